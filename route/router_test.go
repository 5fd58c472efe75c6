package route

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"storybot/model"
	"storybot/service"
)

func newRouter(t *testing.T, storage failing) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := service.Config{Logger: zaptest.NewLogger(t)}
	if storage.err != nil {
		cfg.Storage = storage
	}
	bot := service.NewBotService(cfg)
	bot.RegisterStory(service.NewStory("greetings", func(ctx context.Context, bus service.Bus) error {
		bus.Send("Hello!")
		return nil
	}))

	r := gin.New()
	Register(r, bot, "shop", zaptest.NewLogger(t))
	return r
}

type failing struct{ err error }

func (f failing) Get(ctx context.Context, id model.UserID) (*model.Session, error) { return nil, f.err }
func (f failing) Save(ctx context.Context, s *model.Session) error                 { return f.err }

func post(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

const greetingsTurn = `{"requestId":"r1","botRequest":{"intent":"greetings","entities":[],"storyId":null,
	"message":{"type":"text","text":"hi"},"requestContext":{"userId":{"id":"alice","type":"user"}}}}`

func TestWebhookAnswersTurn(t *testing.T) {
	r := newRouter(t, failing{})
	w := post(r, "/shop/webhook", greetingsTurn)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env, err := model.DecodeEnvelope(w.Body.Bytes())
	require.NoError(t, err)
	require.NotNil(t, env.BotResponse)
	assert.Equal(t, "greetings", env.BotResponse.StoryID)
	require.Len(t, env.BotResponse.Messages, 1)
	assert.Equal(t, "Hello!", env.BotResponse.Messages[0].(model.Sentence).Text.Text)
}

func TestWebhookConfigurationQuery(t *testing.T) {
	r := newRouter(t, failing{})
	w := post(r, "/shop/webhook", `{"requestId":"r2","configuration":true}`)

	require.Equal(t, http.StatusOK, w.Code)
	var env model.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(t, env.BotConfiguration)
	require.Len(t, env.BotConfiguration.Stories, 1)
	assert.Equal(t, "greetings", env.BotConfiguration.Stories[0].MainIntent)
}

func TestWebhookRejectsBadRequests(t *testing.T) {
	r := newRouter(t, failing{})

	for _, body := range []string{
		`{broken`,
		`{"requestId":"r3","botRequest":{"intent":"x","entities":[{"type":"t","role":"r","value":{"@type":"mystery"}}]}}`,
		`{"requestId":"r4"}`,
		`{"requestId":"r5","botRequest":{"intent":"greetings","entities":[]}}`,
	} {
		w := post(r, "/shop/webhook", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestWebhookStorageFailure(t *testing.T) {
	r := newRouter(t, failing{err: assert.AnError})
	w := post(r, "/shop/webhook", greetingsTurn)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealthAndConfiguration(t *testing.T) {
	r := newRouter(t, failing{})

	for _, path := range []string{"/health", "/healthcheck", "/shop/configuration"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/shop/webhook", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
