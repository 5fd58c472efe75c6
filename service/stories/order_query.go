package stories

import (
	"context"
	"fmt"

	"storybot/model"
	"storybot/service"
)

const (
	OrderQueryIntent      = "order_query"
	GiveOrderNumberIntent = "give_order_number"
)

// OrderQuery reports the status of an order. Without an order number it asks
// for one and waits for give_order_number.
type OrderQuery struct{}

var (
	_ service.Story        = OrderQuery{}
	_ service.EntityBinder = OrderQuery{}
)

func (OrderQuery) Intent() model.Intent                { return model.NewIntent(OrderQueryIntent) }
func (OrderQuery) OtherStarterIntents() []model.Intent { return []model.Intent{} }
func (OrderQuery) SecondaryIntents() []model.Intent {
	return model.Intents(GiveOrderNumberIntent)
}

func (OrderQuery) EntityBindings() []service.EntityBinding {
	return []service.EntityBinding{{Field: "orderNumber", EntityType: orderNumberEntity}}
}

func (OrderQuery) Answer(ctx context.Context, bus service.Bus) error {
	number := orderNumber(bus, "orderNumber")
	if number == "" {
		bus.Send("Please give me your order number.")
		return nil
	}

	o, ok := lookupOrder(number)
	if !ok {
		bus.Send(model.NewSentence(fmt.Sprintf("I could not find order %s. Please check the number.", number)))
		return nil
	}
	bus.Send(model.NewSentence(fmt.Sprintf("Order %s is %s.", number, o.Status), "Track my package"))
	return nil
}
