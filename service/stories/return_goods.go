package stories

import (
	"context"
	"fmt"

	"storybot/model"
	"storybot/service"
	"storybot/utils"
)

const (
	ReturnGoodsIntent = "return_goods"
	GiveReasonIntent  = "give_reason"
	ConfirmIntent     = "confirm"
	ModifyIntent      = "modify"
)

const (
	stepAskOrderID = "ask_order_id"
	stepAskReason  = "ask_reason"
	stepConfirm    = "confirm"

	itemStep    = "step"
	itemOrderID = "order_id"
	itemReason  = "reason"
)

var returnReasons = []string{"Quality issue", "Not as described", "Wrong size or color", "Other"}

// ReturnGoods collects an order number and a reason over several turns, then
// asks for confirmation. Progress lives in the session scratch items.
type ReturnGoods struct{}

var _ service.Story = ReturnGoods{}

func (ReturnGoods) Intent() model.Intent                { return model.NewIntent(ReturnGoodsIntent) }
func (ReturnGoods) OtherStarterIntents() []model.Intent { return []model.Intent{} }
func (ReturnGoods) SecondaryIntents() []model.Intent {
	return model.Intents(GiveOrderNumberIntent, GiveReasonIntent, ConfirmIntent, ModifyIntent)
}

func (r ReturnGoods) Answer(ctx context.Context, bus service.Bus) error {
	session := bus.Session()
	text := bus.Request().Message.Text

	step := session.ItemString(itemStep)
	if bus.IsIntent(ReturnGoodsIntent) || step == "" {
		session.Clear()
		if number := utils.ExtractOrderNumber(text); number != "" {
			session.SetItem(itemOrderID, number)
			return r.askReason(bus, number)
		}
		session.SetItem(itemStep, stepAskOrderID)
		bus.Send("Sure. Which order do you want to return? Please give me the order number.")
		return nil
	}

	switch step {
	case stepAskOrderID:
		number := orderNumber(bus, "orderNumber")
		if number == "" {
			bus.Send("I need the order number to start the return.")
			return nil
		}
		session.SetItem(itemOrderID, number)
		return r.askReason(bus, number)

	case stepAskReason:
		if text == "" {
			return r.askReason(bus, session.ItemString(itemOrderID))
		}
		session.SetItem(itemReason, text)
		session.SetItem(itemStep, stepConfirm)
		bus.Send(model.NewSentence(
			fmt.Sprintf("Order: %s\nReason: %s\nShall I submit the return?", session.ItemString(itemOrderID), text),
			"Confirm", "Modify"))
		return nil

	case stepConfirm:
		return r.confirm(bus)

	default:
		return fmt.Errorf("unknown return step %q", step)
	}
}

func (ReturnGoods) askReason(bus service.Bus, number string) error {
	bus.Session().SetItem(itemStep, stepAskReason)
	bus.Send(model.NewSentence(fmt.Sprintf("Order %s noted. Why are you returning it?", number), returnReasons...))
	return nil
}

func (ReturnGoods) confirm(bus service.Bus) error {
	session := bus.Session()
	answer := utils.NormalizeConfirm(bus.Request().Message.Text)
	switch {
	case bus.IsIntent(ConfirmIntent) || answer == "confirm":
		orderID, reason := session.ItemString(itemOrderID), session.ItemString(itemReason)
		session.Clear()
		if orderID == "" {
			bus.Send("Some details were lost. Please start the return again.")
			return nil
		}
		bus.Send(fmt.Sprintf("Return submitted for order %s (%s). We will contact you within 24 hours.", orderID, reason))
	case bus.IsIntent(ModifyIntent) || answer == "modify":
		session.Clear()
		session.SetItem(itemStep, stepAskOrderID)
		bus.Send("OK, let's start over. Which order do you want to return?")
	default:
		bus.Send(model.NewSentence("Please confirm or modify the return.", "Confirm", "Modify"))
	}
	return nil
}
