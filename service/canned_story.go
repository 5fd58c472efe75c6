package service

import (
	"context"

	"go.uber.org/zap"

	"storybot/model"
)

// CannedStory answers with replies fixed by configuration.
type CannedStory struct {
	def           model.CannedStoryDefinition
	intent        model.Intent
	otherStarters []model.Intent
	secondary     []model.Intent
}

var _ Story = (*CannedStory)(nil)

func NewCannedStory(def model.CannedStoryDefinition) *CannedStory {
	return &CannedStory{
		def:           def,
		intent:        model.NewIntent(def.Intent),
		otherStarters: model.Intents(def.OtherStarterIntents...),
		secondary:     model.Intents(def.SecondaryIntents...),
	}
}

// NewCannedStories builds the enabled definitions, skipping the rest.
func NewCannedStories(defs []model.CannedStoryDefinition, logger *zap.Logger) []Story {
	if logger == nil {
		logger = zap.NewNop()
	}
	stories := make([]Story, 0, len(defs))
	for _, def := range defs {
		if !def.Enabled {
			logger.Debug("skipping disabled canned story", zap.String("intent", def.Intent))
			continue
		}
		if def.Intent == "" {
			logger.Warn("skipping canned story without intent", zap.String("name", def.Name))
			continue
		}
		stories = append(stories, NewCannedStory(def))
	}
	return stories
}

func (s *CannedStory) Intent() model.Intent                { return s.intent }
func (s *CannedStory) OtherStarterIntents() []model.Intent { return s.otherStarters }
func (s *CannedStory) SecondaryIntents() []model.Intent    { return s.secondary }
func (s *CannedStory) Name() string                        { return s.def.Name }

func (s *CannedStory) Answer(ctx context.Context, bus Bus) error {
	last := len(s.def.Replies) - 1
	for i, reply := range s.def.Replies {
		if i < last {
			bus.Send(reply)
			continue
		}
		bus.Send(model.NewSentence(reply, s.def.Suggestions...))
	}
	return nil
}
