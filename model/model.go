package model

type PlayerType string

const (
	PlayerUser PlayerType = "user"
	PlayerBot  PlayerType = "bot"
)

// UserID identifies one side of the conversation. Sessions are keyed by ID.
type UserID struct {
	ID       string     `json:"id"`
	Type     PlayerType `json:"type"`
	ClientID *string    `json:"clientId,omitempty"`
}

type ConnectorType struct {
	ID                string `json:"id"`
	UserInterfaceType string `json:"userInterfaceType"`
}

type User struct {
	Timezone string `json:"timezone"`
	Locale   string `json:"locale"`
	Test     bool   `json:"test"`
}

type RequestContext struct {
	Namespace     string        `json:"namespace"`
	Language      string        `json:"language"`
	ConnectorType ConnectorType `json:"connectorType"`
	UserInterface string        `json:"userInterface"`
	ApplicationID string        `json:"applicationId"`
	UserID        UserID        `json:"userId"`
	BotID         UserID        `json:"botId"`
	User          User          `json:"user"`
}

// Message is the raw user utterance as seen by the front-end.
type Message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type BotRequest struct {
	Intent         string          `json:"intent"`
	Entities       []Entity        `json:"entities"`
	Message        Message         `json:"message"`
	StoryID        string          `json:"storyId"`
	RequestContext *RequestContext `json:"requestContext,omitempty"`
}

// UserID returns the requesting user, or a zero UserID when the request
// carries no context.
func (r *BotRequest) UserID() UserID {
	if r.RequestContext == nil {
		return UserID{}
	}
	return r.RequestContext.UserID
}

type ResponseContext struct {
	RequestID string    `json:"requestId"`
	Date      Timestamp `json:"date"`
}

type BotResponse struct {
	Messages Messages        `json:"messages"`
	StoryID  string          `json:"storyId"`
	Step     *string         `json:"step,omitempty"`
	Entities []Entity        `json:"entities"`
	Context  ResponseContext `json:"context"`
}

// Envelope is the outer record exchanged with the front-end. Exactly one of
// Configuration, BotConfiguration, BotRequest or BotResponse is expected.
type Envelope struct {
	RequestID        string               `json:"requestId"`
	Configuration    *bool                `json:"configuration,omitempty"`
	BotConfiguration *ClientConfiguration `json:"botConfiguration,omitempty"`
	BotRequest       *BotRequest          `json:"botRequest,omitempty"`
	BotResponse      *BotResponse         `json:"botResponse,omitempty"`
}

// IsConfigurationQuery reports whether the front-end asks for the story
// configuration instead of a conversational turn.
func (e *Envelope) IsConfigurationQuery() bool {
	return e.Configuration != nil && *e.Configuration
}
