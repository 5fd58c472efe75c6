package stories

import (
	"context"
	"fmt"

	"storybot/model"
	"storybot/service"
)

const (
	LogisticsIntent    = "logistics"
	TrackPackageIntent = "track_package"
)

// Logistics shows the shipment of an order as a card.
var Logistics = service.NewStory(LogisticsIntent, answerLogistics,
	service.WithOtherStarterIntents(TrackPackageIntent),
	service.WithSecondaryIntents(GiveOrderNumberIntent),
	service.WithEntityBinding("orderNumber", orderNumberEntity),
)

func answerLogistics(ctx context.Context, bus service.Bus) error {
	number := orderNumber(bus, "orderNumber")
	if number == "" {
		bus.Send("Which order should I track? Please give me the order number.")
		return nil
	}

	o, ok := lookupOrder(number)
	if !ok {
		bus.Send(fmt.Sprintf("No shipment found for order %s.", number))
		return nil
	}

	title := model.Text(fmt.Sprintf("%s %s", o.Carrier, o.Tracking))
	subTitle := model.Text(fmt.Sprintf("%s, expected %s", o.Location, o.ETA))
	bus.Send(&model.Card{
		Title:    &title,
		SubTitle: &subTitle,
		Actions: []model.Action{{
			Title: model.Text("Track online"),
			URL:   model.StringPtr("https://track.example.com/" + o.Tracking),
		}},
	})
	return nil
}
