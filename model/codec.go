package model

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

var (
	ErrDecode             = errors.New("decode envelope")
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrUnknownValueType   = errors.New("unknown entity value type")
)

// DecodeEnvelope parses a wire envelope. Unknown fields are ignored; an
// unknown discriminator or malformed JSON yields an error wrapping ErrDecode.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &env, nil
}

func EncodeEnvelope(env *Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return data, nil
}

// marshalTagged encodes v, which must encode to a JSON object, with a
// leading discriminator member.
func marshalTagged(key, tag string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("%s %q: not encoded as an object", key, tag)
	}
	out := make([]byte, 0, len(body)+len(key)+len(tag)+6)
	out = append(out, '{')
	out = strconv.AppendQuote(out, key)
	out = append(out, ':')
	out = strconv.AppendQuote(out, tag)
	if len(body) > 2 {
		out = append(out, ',')
	}
	return append(out, body[1:]...), nil
}

// TimestampLayout is the date format the front-end uses in response
// contexts.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Timestamp is a UTC instant with second precision on the wire.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Second)}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.UTC().Format(TimestampLayout))), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("timestamp %s: %w", data, err)
	}
	parsed, err := time.Parse(TimestampLayout, s)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("timestamp %q: %w", s, err)
		}
	}
	t.Time = parsed.UTC()
	return nil
}

// Equal compares instants, ignoring location.
func (t Timestamp) Equal(o Timestamp) bool {
	return t.Time.Equal(o.Time)
}
