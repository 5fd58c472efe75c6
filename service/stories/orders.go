package stories

import (
	"storybot/service"
	"storybot/utils"
)

const orderNumberEntity = "order_number"

type order struct {
	Status   string
	Carrier  string
	Tracking string
	Location string
	ETA      string
}

// demoOrders stands in for an order backend.
var demoOrders = map[string]order{
	"12345": {Status: "shipped, arriving tomorrow", Carrier: "SF Express", Tracking: "SF1234567890", Location: "Beijing Chaoyang", ETA: "this afternoon"},
	"67890": {Status: "processing, ships within 3 business days", Carrier: "ZTO Express", Tracking: "ZT9876543210", Location: "Shanghai sorting center", ETA: "tomorrow"},
	"11111": {Status: "delivered on 2024-01-15 14:30", Carrier: "YTO Express", Tracking: "YT5555555555", Location: "delivered", ETA: "-"},
}

func lookupOrder(number string) (order, bool) {
	o, ok := demoOrders[number]
	return o, ok
}

// orderNumber prefers the bound entity, then the most recent session
// entity, then digits found in the raw utterance.
func orderNumber(bus service.Bus, field string) string {
	if e, ok := bus.Bound(field); ok && e.Text() != "" {
		return e.Text()
	}
	if e := bus.Entity(orderNumberEntity); e != nil && e.Text() != "" {
		return e.Text()
	}
	return utils.ExtractOrderNumber(bus.Request().Message.Text)
}
