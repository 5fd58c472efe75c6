package stories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"storybot/model"
	"storybot/service"
)

const (
	CustomerServiceIntent = "customer_service"
	OpenTicketIntent      = "open_ticket"
)

var supportTopics = []struct {
	title, subTitle, url string
}{
	{"Product questions", "Specs, sizes and availability", "https://help.example.com/products"},
	{"Orders", "Payment, invoices and changes", "https://help.example.com/orders"},
	{"Refunds", "Refund status and timelines", "https://help.example.com/refunds"},
}

// CustomerService lists support topics and opens a ticket on open_ticket.
var CustomerService = service.NewStory(CustomerServiceIntent, answerCustomerService,
	service.WithSecondaryIntents(OpenTicketIntent),
)

func answerCustomerService(ctx context.Context, bus service.Bus) error {
	if bus.IsIntent(OpenTicketIntent) {
		ticket := uuid.NewString()
		bus.Session().SetItem("ticket", ticket)
		bus.Send(fmt.Sprintf("Ticket %s is open. An agent will contact you soon.", ticket))
		return nil
	}

	carousel := &model.Carousel{Cards: make([]model.Card, 0, len(supportTopics))}
	for _, topic := range supportTopics {
		title, subTitle := model.Text(topic.title), model.Text(topic.subTitle)
		carousel.Cards = append(carousel.Cards, model.Card{
			Title:    &title,
			SubTitle: &subTitle,
			Actions: []model.Action{
				{Title: model.Text("Read more"), URL: model.StringPtr(topic.url)},
				{Title: model.Text("Open a ticket")},
			},
		})
	}
	bus.Send(carousel)
	return nil
}
