package stories

import (
	"context"

	"storybot/model"
	"storybot/service"
)

const GreetingsIntent = "greetings"

// Greetings welcomes the user and lists what the bot can do.
var Greetings = service.NewStory(GreetingsIntent, func(ctx context.Context, bus service.Bus) error {
	bus.Send(model.NewSentence("Hello! How can I help you today?",
		"Where is my order?", "Track my package", "Return an item", "Talk to support"))
	return nil
}, service.WithOtherStarterIntents("hello"))
