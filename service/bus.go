package service

import (
	"fmt"

	"go.uber.org/zap"

	"storybot/model"
)

// Bus is what a story sees of the current turn.
type Bus interface {
	Session() *model.Session
	Request() *model.BotRequest
	Intent() model.Intent
	// IsIntent accepts string, model.Intent, []string and []model.Intent
	// arguments and reports whether any of them is the turn's intent.
	IsIntent(intents ...any) bool
	Entity(entityType string) *model.Entity
	Bind(field string, entity *model.Entity)
	Bound(field string) (*model.Entity, bool)
	// Send queues an outgoing message. Strings and model.I18nText become
	// sentences; unsupported payloads are logged and dropped.
	Send(message any)
	Messages() []model.BotMessage
}

// BusFactory builds the bus of one turn.
type BusFactory func(session *model.Session, request *model.BotRequest, logger *zap.Logger) Bus

// TurnBus is the default Bus.
type TurnBus struct {
	session  *model.Session
	request  *model.BotRequest
	logger   *zap.Logger
	bound    map[string]*model.Entity
	messages []model.BotMessage
}

var _ Bus = (*TurnBus)(nil)

func NewTurnBus(session *model.Session, request *model.BotRequest, logger *zap.Logger) Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TurnBus{
		session:  session,
		request:  request,
		logger:   logger,
		bound:    make(map[string]*model.Entity),
		messages: []model.BotMessage{},
	}
}

func (b *TurnBus) Session() *model.Session    { return b.session }
func (b *TurnBus) Request() *model.BotRequest { return b.request }

func (b *TurnBus) Intent() model.Intent {
	return model.NewIntent(b.request.Intent)
}

func (b *TurnBus) IsIntent(intents ...any) bool {
	current := b.Intent()
	for _, arg := range intents {
		switch v := arg.(type) {
		case string:
			if v == current.Name {
				return true
			}
		case model.Intent:
			if v == current {
				return true
			}
		case []string:
			for _, name := range v {
				if name == current.Name {
					return true
				}
			}
		case []model.Intent:
			for _, intent := range v {
				if intent == current {
					return true
				}
			}
		default:
			b.logger.Debug("ignoring intent argument", zap.String("type", fmt.Sprintf("%T", arg)))
		}
	}
	return false
}

func (b *TurnBus) Entity(entityType string) *model.Entity {
	return b.session.Entity(entityType)
}

func (b *TurnBus) Bind(field string, entity *model.Entity) {
	b.bound[field] = entity
}

func (b *TurnBus) Bound(field string) (*model.Entity, bool) {
	e, ok := b.bound[field]
	return e, ok
}

func (b *TurnBus) Send(message any) {
	switch m := message.(type) {
	case string:
		b.push(model.NewSentence(m))
	case model.I18nText:
		b.push(model.Sentence{Text: m, Suggestions: []model.Suggestion{}})
	case *model.Sentence:
		if m != nil {
			b.push(*m)
			return
		}
		b.logger.Warn("dropping nil sentence")
	case *model.Card:
		if m != nil {
			b.push(*m)
			return
		}
		b.logger.Warn("dropping nil card")
	case *model.Carousel:
		if m != nil {
			b.push(*m)
			return
		}
		b.logger.Warn("dropping nil carousel")
	case model.BotMessage:
		b.push(m)
	default:
		b.logger.Warn("dropping unsupported message", zap.String("type", fmt.Sprintf("%T", message)))
	}
}

func (b *TurnBus) push(m model.BotMessage) {
	b.messages = append(b.messages, m)
}

func (b *TurnBus) Messages() []model.BotMessage {
	return b.messages
}
