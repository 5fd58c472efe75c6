// Package stories holds the demo stories of a small shop assistant.
package stories

import "storybot/service"

// All returns every demo story in registration order.
func All() []service.Story {
	return []service.Story{
		Greetings,
		OrderQuery{},
		Logistics,
		ReturnGoods{},
		CustomerService,
	}
}
