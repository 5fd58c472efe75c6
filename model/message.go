package model

import (
	"fmt"
	"unicode/utf8"

	"github.com/goccy/go-json"
)

// MessageType is the "type" discriminator of an outgoing bot message.
type MessageType string

const (
	MessageSentence MessageType = "sentence"
	MessageCard     MessageType = "card"
	MessageCarousel MessageType = "carousel"
)

const messageTypeKey = "type"

// BotMessage is the closed set of outgoing messages: Sentence, Card and
// Carousel.
type BotMessage interface {
	MessageType() MessageType
	isBotMessage()
}

type I18nText struct {
	Text           string   `json:"text"`
	Args           []string `json:"args"`
	ToBeTranslated bool     `json:"toBeTranslated"`
	Length         int      `json:"length"`
	Key            *string  `json:"key,omitempty"`
}

// Text builds a translatable text with no arguments.
func Text(s string) I18nText {
	return I18nText{
		Text:           s,
		Args:           []string{},
		ToBeTranslated: true,
		Length:         utf8.RuneCountInString(s),
	}
}

func (t I18nText) MarshalJSON() ([]byte, error) {
	type plain I18nText
	if t.Args == nil {
		t.Args = []string{}
	}
	return json.Marshal(plain(t))
}

type Suggestion struct {
	Title I18nText `json:"title"`
}

type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentAudio AttachmentType = "audio"
	AttachmentVideo AttachmentType = "video"
	AttachmentFile  AttachmentType = "file"
)

type Attachment struct {
	URL  string          `json:"url"`
	Type *AttachmentType `json:"type,omitempty"`
}

type Action struct {
	Title I18nText `json:"title"`
	URL   *string  `json:"url,omitempty"`
}

type Sentence struct {
	Text        I18nText     `json:"text"`
	Suggestions []Suggestion `json:"suggestions"`
	Delay       int          `json:"delay"`
}

// NewSentence wraps plain text into a sentence with the given suggestions.
func NewSentence(text string, suggestions ...string) Sentence {
	s := Sentence{Text: Text(text), Suggestions: []Suggestion{}}
	for _, title := range suggestions {
		s.Suggestions = append(s.Suggestions, Suggestion{Title: Text(title)})
	}
	return s
}

func (Sentence) MessageType() MessageType { return MessageSentence }
func (Sentence) isBotMessage()            {}

func (s Sentence) MarshalJSON() ([]byte, error) {
	type plain Sentence
	if s.Suggestions == nil {
		s.Suggestions = []Suggestion{}
	}
	return marshalTagged(messageTypeKey, string(MessageSentence), plain(s))
}

type Card struct {
	Title      *I18nText   `json:"title,omitempty"`
	SubTitle   *I18nText   `json:"subTitle,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
	Actions    []Action    `json:"actions"`
	Delay      int         `json:"delay"`
}

func (Card) MessageType() MessageType { return MessageCard }
func (Card) isBotMessage()            {}

func (c Card) MarshalJSON() ([]byte, error) {
	type plain Card
	if c.Actions == nil {
		c.Actions = []Action{}
	}
	return marshalTagged(messageTypeKey, string(MessageCard), plain(c))
}

// UnmarshalJSON rejects a card payload tagged with another message type.
func (c *Card) UnmarshalJSON(data []byte) error {
	type CardFields Card
	var tagged struct {
		Type MessageType `json:"type"`
		CardFields
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	if tagged.Type != "" && tagged.Type != MessageCard {
		return fmt.Errorf("%w: %q where a card is expected", ErrUnknownMessageType, tagged.Type)
	}
	*c = Card(tagged.CardFields)
	return nil
}

type Carousel struct {
	Cards []Card `json:"cards"`
	Delay int    `json:"delay"`
}

func (Carousel) MessageType() MessageType { return MessageCarousel }
func (Carousel) isBotMessage()            {}

func (c Carousel) MarshalJSON() ([]byte, error) {
	type plain Carousel
	if c.Cards == nil {
		c.Cards = []Card{}
	}
	return marshalTagged(messageTypeKey, string(MessageCarousel), plain(c))
}

// Messages is an ordered list of bot messages that decodes by dispatching
// on each element's "type".
type Messages []BotMessage

func (m Messages) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]BotMessage(m))
}

func (m *Messages) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(Messages, 0, len(raws))
	for i, raw := range raws {
		msg, err := DecodeBotMessage(raw)
		if err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
		out = append(out, msg)
	}
	*m = out
	return nil
}

// DecodeBotMessage decodes one message, selecting the variant from its
// "type" field.
func DecodeBotMessage(data []byte) (BotMessage, error) {
	var head struct {
		Type MessageType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case MessageSentence:
		var s Sentence
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return s, nil
	case MessageCard:
		var c Card
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return c, nil
	case MessageCarousel:
		var c Carousel
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, head.Type)
	}
}
