package model

import "storybot/utils"

// Entity is a typed value extracted upstream for the current turn.
// Type is namespaced with ':' (e.g. "ns:order_number").
type Entity struct {
	Type      string       `json:"type"`
	Role      string       `json:"role"`
	Content   *string      `json:"content,omitempty"`
	Value     *EntityValue `json:"value,omitempty"`
	Evaluated bool         `json:"evaluated"`
	New       bool         `json:"new"`
}

// ShortType returns the last ':' segment of the entity type.
func (e Entity) ShortType() string {
	return utils.LastSegment(e.Type, ":")
}

// Text returns the entity content, or "" when absent.
func (e Entity) Text() string {
	if e.Content == nil {
		return ""
	}
	return *e.Content
}

// StringPtr is a small helper for optional wire fields.
func StringPtr(s string) *string {
	return &s
}
