package service

import (
	"storybot/model"
)

type storyDefinition struct {
	story    Story
	config   model.StoryConfiguration
	supports map[model.Intent]struct{}
}

func newStoryDefinition(story Story) *storyDefinition {
	def := &storyDefinition{
		story:    story,
		config:   Configuration(story),
		supports: map[model.Intent]struct{}{story.Intent(): {}},
	}
	for _, intent := range story.OtherStarterIntents() {
		def.supports[intent] = struct{}{}
	}
	for _, intent := range story.SecondaryIntents() {
		def.supports[intent] = struct{}{}
	}
	return def
}

func (d *storyDefinition) supportsIntent(intent model.Intent) bool {
	_, ok := d.supports[intent]
	return ok
}

// StoryRegistry indexes stories by main, other starter and secondary
// intents and resolves which story answers a turn.
//
// Registration must complete before the first turn is served; the registry
// is not safe for registration concurrent with resolution.
type StoryRegistry struct {
	byMainIntent   map[model.Intent]*storyDefinition
	byOtherStarter map[model.Intent][]*storyDefinition
	bySecondary    map[model.Intent][]*storyDefinition
	byName         map[string]*storyDefinition
	order          []string
}

func NewStoryRegistry() *StoryRegistry {
	return &StoryRegistry{
		byMainIntent:   make(map[model.Intent]*storyDefinition),
		byOtherStarter: make(map[model.Intent][]*storyDefinition),
		bySecondary:    make(map[model.Intent][]*storyDefinition),
		byName:         make(map[string]*storyDefinition),
	}
}

// Register adds story to the indices. A later story with the same main
// intent replaces the earlier one for main-intent lookup; starter and
// secondary intents accumulate in registration order.
func (r *StoryRegistry) Register(story Story) {
	def := newStoryDefinition(story)

	r.byMainIntent[story.Intent()] = def
	for _, intent := range story.OtherStarterIntents() {
		r.byOtherStarter[intent] = append(r.byOtherStarter[intent], def)
	}
	for _, intent := range story.SecondaryIntents() {
		r.bySecondary[intent] = append(r.bySecondary[intent], def)
	}

	if _, exists := r.byName[def.config.Name]; !exists {
		r.order = append(r.order, def.config.Name)
	}
	r.byName[def.config.Name] = def
}

// Resolve picks the story for intent given the name of the story currently
// owning the conversation ("" for none):
//  1. the current story, if it supports intent;
//  2. the story whose main intent is intent;
//  3. the first registered story starting on intent.
//
// It reports false when none applies; choosing a fallback is up to the
// caller.
func (r *StoryRegistry) Resolve(intent model.Intent, currentStory string) (Story, bool) {
	if currentStory != "" {
		if def, ok := r.byName[currentStory]; ok && def.supportsIntent(intent) {
			return def.story, true
		}
	}

	if def, ok := r.byMainIntent[intent]; ok {
		return def.story, true
	}

	if defs := r.byOtherStarter[intent]; len(defs) > 0 {
		return defs[0].story, true
	}

	return nil, false
}

// ByName returns the story registered under name.
func (r *StoryRegistry) ByName(name string) (Story, bool) {
	def, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return def.story, true
}

// SecondaryCandidates lists the stories declaring intent as secondary, in
// registration order.
func (r *StoryRegistry) SecondaryCandidates(intent model.Intent) []Story {
	defs := r.bySecondary[intent]
	out := make([]Story, 0, len(defs))
	for _, def := range defs {
		out = append(out, def.story)
	}
	return out
}

// Configuration lists every registered story in registration order.
func (r *StoryRegistry) Configuration() model.ClientConfiguration {
	stories := make([]model.StoryConfiguration, 0, len(r.order))
	for _, name := range r.order {
		stories = append(stories, r.byName[name].config)
	}
	return model.ClientConfiguration{Stories: stories}
}

func (r *StoryRegistry) Len() int {
	return len(r.order)
}
