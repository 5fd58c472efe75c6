package service

import "storybot/model"

type EntityMode string

const (
	// EntityAppend keeps accumulating entities across turns and stories.
	EntityAppend EntityMode = "append"
	// EntityResetOnStoryChange drops the session entities whenever a turn is
	// answered by a different story than the previous one.
	EntityResetOnStoryChange EntityMode = "reset_on_story_change"
)

const DefaultMaxEntities = 50

// EntityPolicy decides how request entities are merged into the session.
// MaxEntities caps retention (oldest dropped first); 0 disables the cap.
type EntityPolicy struct {
	Mode        EntityMode
	MaxEntities int
}

func DefaultEntityPolicy() EntityPolicy {
	return EntityPolicy{Mode: EntityAppend, MaxEntities: DefaultMaxEntities}
}

func (p EntityPolicy) apply(session *model.Session, incoming []model.Entity, storyChanged bool) {
	if p.Mode == EntityResetOnStoryChange && storyChanged {
		session.ResetEntities()
	}
	session.AddEntities(incoming)
	session.TrimEntities(p.MaxEntities)
}
