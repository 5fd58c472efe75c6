package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionEntityMostRecentWins(t *testing.T) {
	s := NewSession(UserID{ID: "u1", Type: PlayerUser})
	s.AddEntities([]Entity{
		{Type: "a:color", Content: StringPtr("red")},
		{Type: "b:color", Content: StringPtr("blue")},
		{Type: "size", Content: StringPtr("xl")},
	})

	got := s.Entity("color")
	require.NotNil(t, got)
	assert.Equal(t, "blue", got.Text())

	got = s.Entity("size")
	require.NotNil(t, got)
	assert.Equal(t, "xl", got.Text())

	assert.Nil(t, s.Entity("shape"))
	assert.Nil(t, s.Entity("a"))
}

func TestSessionEntitiesAccumulate(t *testing.T) {
	s := NewSession(UserID{ID: "u1"})
	s.AddEntities([]Entity{{Type: "ns:a"}})
	s.AddEntities([]Entity{{Type: "ns:b"}, {Type: "ns:c"}})
	assert.Len(t, s.Entities, 3)

	s.TrimEntities(2)
	require.Len(t, s.Entities, 2)
	assert.Equal(t, "ns:b", s.Entities[0].Type)

	s.TrimEntities(0)
	assert.Len(t, s.Entities, 2)

	s.SetEntities([]Entity{{Type: "ns:z"}})
	assert.Equal(t, "z", s.Entities[0].ShortType())

	s.ResetEntities()
	assert.Empty(t, s.Entities)
	assert.NotNil(t, s.Entities)
}

func TestSessionItems(t *testing.T) {
	s := &Session{}
	_, ok := s.GetItem("step")
	assert.False(t, ok)

	s.SetItem("step", "ask_reason")
	s.SetItem("count", 2)
	v, ok := s.GetItem("count")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, "ask_reason", s.ItemString("step"))
	assert.Equal(t, "", s.ItemString("count"))

	s.Clear()
	assert.Empty(t, s.Items)
}

func TestSessionCloneIsIndependent(t *testing.T) {
	s := NewSession(UserID{ID: "u1"})
	s.AddEntities([]Entity{{Type: "ns:a"}})
	s.SetItem("k", "v")
	s.SetPreviousIntent(NewIntent("greetings"))

	c := s.Clone()
	c.AddEntities([]Entity{{Type: "ns:b"}})
	c.SetItem("k", "changed")
	c.PreviousIntent.Name = "other"

	assert.Len(t, s.Entities, 1)
	assert.Equal(t, "v", s.ItemString("k"))
	assert.Equal(t, "greetings", s.PreviousIntent.Name)
}

func TestIntentEquality(t *testing.T) {
	assert.Equal(t, NewIntent("greetings"), Intent{Name: "greetings"})
	assert.NotEqual(t, NewIntent("Greetings"), NewIntent("greetings"))
	assert.Equal(t, []string{"a", "b"}, IntentNames(Intents("a", "b")))
	assert.True(t, Intent{}.IsZero())
}
