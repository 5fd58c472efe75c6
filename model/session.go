package model

import (
	"maps"
	"slices"
	"time"
)

// Session is the per-user state carried across turns.
type Session struct {
	UserID         UserID         `json:"userId"`
	CurrentStory   string         `json:"currentStory,omitempty"`
	PreviousIntent *Intent        `json:"previousIntent,omitempty"`
	Entities       []Entity       `json:"entities"`
	Items          map[string]any `json:"items,omitempty"`
	// Version and UpdatedAt are owned by the storage backend.
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewSession(userID UserID) *Session {
	return &Session{
		UserID:   userID,
		Entities: []Entity{},
		Items:    map[string]any{},
	}
}

// Entity returns the most recently added entity whose short type matches,
// or nil.
func (s *Session) Entity(shortType string) *Entity {
	for i := len(s.Entities) - 1; i >= 0; i-- {
		if s.Entities[i].ShortType() == shortType {
			return &s.Entities[i]
		}
	}
	return nil
}

func (s *Session) AddEntities(entities []Entity) {
	s.Entities = append(s.Entities, entities...)
}

func (s *Session) SetEntities(entities []Entity) {
	s.Entities = entities
}

func (s *Session) ResetEntities() {
	s.Entities = []Entity{}
}

// TrimEntities keeps only the max most recent entities. max <= 0 is a no-op.
func (s *Session) TrimEntities(max int) {
	if max <= 0 || len(s.Entities) <= max {
		return
	}
	s.Entities = slices.Clone(s.Entities[len(s.Entities)-max:])
}

// SetPreviousIntent records the intent of the turn being answered.
func (s *Session) SetPreviousIntent(intent Intent) {
	s.PreviousIntent = &intent
}

// SetItem stores a scratch value. Values persisted through a serializing
// backend come back in their JSON form (numbers as float64, objects as maps).
func (s *Session) SetItem(key string, value any) {
	if s.Items == nil {
		s.Items = map[string]any{}
	}
	s.Items[key] = value
}

func (s *Session) GetItem(key string) (any, bool) {
	v, ok := s.Items[key]
	return v, ok
}

// ItemString returns a scratch value as a string, or "" when absent or of
// another type.
func (s *Session) ItemString(key string) string {
	v, _ := s.Items[key].(string)
	return v
}

// Clear empties the scratch store.
func (s *Session) Clear() {
	s.Items = map[string]any{}
}

// Clone returns a copy that shares no slices or maps with s. Scratch values
// themselves are copied shallowly.
func (s *Session) Clone() *Session {
	c := *s
	c.Entities = slices.Clone(s.Entities)
	if c.Entities == nil {
		c.Entities = []Entity{}
	}
	c.Items = maps.Clone(s.Items)
	if c.Items == nil {
		c.Items = map[string]any{}
	}
	if s.PreviousIntent != nil {
		intent := *s.PreviousIntent
		c.PreviousIntent = &intent
	}
	return &c
}
