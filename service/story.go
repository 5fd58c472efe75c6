package service

import (
	"context"
	"slices"

	"storybot/model"
)

// Story answers the turns of one conversational topic. It is identified by
// a main intent and may also start on other intents or continue on
// secondary intents once it owns the conversation.
type Story interface {
	Intent() model.Intent
	OtherStarterIntents() []model.Intent
	SecondaryIntents() []model.Intent
	// Answer produces the turn's output through bus.Send.
	Answer(ctx context.Context, bus Bus) error
}

// Named overrides the default story name, which is the main intent name.
type Named interface {
	Name() string
}

// EntityBinding asks the orchestrator to expose the most recent session
// entity of EntityType under Field (see Bus.Bound).
type EntityBinding struct {
	Field      string
	EntityType string
}

// EntityBinder is implemented by stories declaring entity bindings.
type EntityBinder interface {
	EntityBindings() []EntityBinding
}

// AnswerFunc is the signature of a stateless story handler.
type AnswerFunc func(ctx context.Context, bus Bus) error

// Supports reports whether intent is the story's main intent or one of its
// starter or secondary intents.
func Supports(story Story, intent model.Intent) bool {
	return story.Intent() == intent ||
		slices.Contains(story.OtherStarterIntents(), intent) ||
		slices.Contains(story.SecondaryIntents(), intent)
}

// StoryName returns the name a story is registered and persisted under.
func StoryName(story Story) string {
	if named, ok := story.(Named); ok && named.Name() != "" {
		return named.Name()
	}
	return story.Intent().Name
}

// Configuration describes story to the front-end.
func Configuration(story Story) model.StoryConfiguration {
	return model.StoryConfiguration{
		MainIntent:          story.Intent().Name,
		Name:                StoryName(story),
		OtherStarterIntents: model.IntentNames(story.OtherStarterIntents()),
		SecondaryIntents:    model.IntentNames(story.SecondaryIntents()),
		Steps:               []model.StepConfiguration{},
	}
}

type StoryOption func(*funcStory)

func WithOtherStarterIntents(names ...string) StoryOption {
	return func(s *funcStory) {
		s.otherStarters = append(s.otherStarters, model.Intents(names...)...)
	}
}

func WithSecondaryIntents(names ...string) StoryOption {
	return func(s *funcStory) {
		s.secondary = append(s.secondary, model.Intents(names...)...)
	}
}

func WithEntityBinding(field, entityType string) StoryOption {
	return func(s *funcStory) {
		s.bindings = append(s.bindings, EntityBinding{Field: field, EntityType: entityType})
	}
}

// WithName registers the story under a name other than its intent.
func WithName(name string) StoryOption {
	return func(s *funcStory) {
		s.name = name
	}
}

// NewStory builds a Story from a plain handler function.
func NewStory(intent string, answer AnswerFunc, opts ...StoryOption) Story {
	s := &funcStory{
		intent:        model.NewIntent(intent),
		otherStarters: []model.Intent{},
		secondary:     []model.Intent{},
		answer:        answer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type funcStory struct {
	intent        model.Intent
	name          string
	otherStarters []model.Intent
	secondary     []model.Intent
	bindings      []EntityBinding
	answer        AnswerFunc
}

func (s *funcStory) Intent() model.Intent                { return s.intent }
func (s *funcStory) OtherStarterIntents() []model.Intent { return s.otherStarters }
func (s *funcStory) SecondaryIntents() []model.Intent    { return s.secondary }
func (s *funcStory) EntityBindings() []EntityBinding     { return s.bindings }
func (s *funcStory) Name() string                        { return s.name }

func (s *funcStory) Answer(ctx context.Context, bus Bus) error {
	if s.answer == nil {
		return nil
	}
	return s.answer(ctx, bus)
}
