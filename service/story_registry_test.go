package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storybot/model"
)

func noop(ctx context.Context, bus Bus) error { return nil }

func TestResolveByMainIntent(t *testing.T) {
	r := NewStoryRegistry()
	stories := []Story{
		NewStory("greetings", noop),
		NewStory("order_query", noop, WithSecondaryIntents("give_order_number")),
		NewStory("logistics", noop, WithOtherStarterIntents("track_package")),
	}
	for _, s := range stories {
		r.Register(s)
	}

	for _, s := range stories {
		got, ok := r.Resolve(s.Intent(), "")
		require.True(t, ok, s.Intent().Name)
		assert.Same(t, s, got)
	}
}

func TestResolveStickyContinuation(t *testing.T) {
	r := NewStoryRegistry()
	current := NewStory("return_goods", noop, WithSecondaryIntents("give_order_number"))
	other := NewStory("give_order_number", noop)
	r.Register(current)
	r.Register(other)

	got, ok := r.Resolve(model.NewIntent("give_order_number"), "return_goods")
	require.True(t, ok)
	assert.Same(t, current, got)

	got, ok = r.Resolve(model.NewIntent("give_order_number"), "")
	require.True(t, ok)
	assert.Same(t, other, got)
}

func TestResolveMainIntentBeatsOtherStarter(t *testing.T) {
	r := NewStoryRegistry()
	starter := NewStory("logistics", noop, WithOtherStarterIntents("track_package"))
	main := NewStory("track_package", noop)
	r.Register(starter)
	r.Register(main)

	got, ok := r.Resolve(model.NewIntent("track_package"), "")
	require.True(t, ok)
	assert.Same(t, main, got)
}

func TestResolveFirstOtherStarterWins(t *testing.T) {
	r := NewStoryRegistry()
	first := NewStory("a", noop, WithOtherStarterIntents("shared"))
	second := NewStory("b", noop, WithOtherStarterIntents("shared"))
	r.Register(first)
	r.Register(second)

	got, ok := r.Resolve(model.NewIntent("shared"), "")
	require.True(t, ok)
	assert.Same(t, first, got)
}

func TestResolveNotFound(t *testing.T) {
	r := NewStoryRegistry()
	r.Register(NewStory("order_query", noop, WithSecondaryIntents("give_order_number")))

	_, ok := r.Resolve(model.NewIntent("unknown_intent"), "")
	assert.False(t, ok)

	// secondary intents never start a story
	_, ok = r.Resolve(model.NewIntent("give_order_number"), "")
	assert.False(t, ok)

	// a current story that no longer exists is ignored
	_, ok = r.Resolve(model.NewIntent("give_order_number"), "vanished")
	assert.False(t, ok)
}

func TestRegistryConfiguration(t *testing.T) {
	r := NewStoryRegistry()
	r.Register(NewStory("greetings", noop))
	r.Register(NewStory("logistics", noop,
		WithOtherStarterIntents("track_package"),
		WithSecondaryIntents("give_order_number"),
		WithName("shipping")))

	cfg := r.Configuration()
	assert.Equal(t, []model.StoryConfiguration{
		{MainIntent: "greetings", Name: "greetings", OtherStarterIntents: []string{}, SecondaryIntents: []string{}, Steps: []model.StepConfiguration{}},
		{MainIntent: "logistics", Name: "shipping", OtherStarterIntents: []string{"track_package"}, SecondaryIntents: []string{"give_order_number"}, Steps: []model.StepConfiguration{}},
	}, cfg.Stories)
	assert.Equal(t, 2, r.Len())

	s, ok := r.ByName("shipping")
	require.True(t, ok)
	assert.Equal(t, "logistics", s.Intent().Name)
	assert.Len(t, r.SecondaryCandidates(model.NewIntent("give_order_number")), 1)
}

func TestRegisterReplacesSameName(t *testing.T) {
	r := NewStoryRegistry()
	r.Register(NewStory("greetings", noop))
	replacement := NewStory("greetings", noop)
	r.Register(replacement)

	assert.Equal(t, 1, r.Len())
	got, ok := r.Resolve(model.NewIntent("greetings"), "")
	require.True(t, ok)
	assert.Same(t, replacement, got)
}

func TestSupports(t *testing.T) {
	s := NewStory("return_goods", noop, WithOtherStarterIntents("refund"), WithSecondaryIntents("confirm"))
	for _, name := range []string{"return_goods", "refund", "confirm"} {
		assert.True(t, Supports(s, model.NewIntent(name)), name)
	}
	assert.False(t, Supports(s, model.NewIntent("greetings")))
}
