package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"storybot/dao"
	"storybot/model"
)

var fixedNow = time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

func newTestBot(t *testing.T, cfg Config) *BotService {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = zaptest.NewLogger(t)
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return fixedNow }
	}
	return NewBotService(cfg)
}

func turn(user, intent string, entities ...model.Entity) *model.Envelope {
	return &model.Envelope{
		RequestID: "req-1",
		BotRequest: &model.BotRequest{
			Intent:   intent,
			Entities: entities,
			RequestContext: &model.RequestContext{
				UserID: model.UserID{ID: user, Type: model.PlayerUser},
			},
		},
	}
}

func TestHandleTurnGreetings(t *testing.T) {
	bot := newTestBot(t, Config{})
	bot.RegisterStory(NewStory("greetings", func(ctx context.Context, bus Bus) error {
		bus.Send("Hello!")
		return nil
	}))

	reply, err := bot.HandleTurn(context.Background(), turn("alice", "greetings"))
	require.NoError(t, err)
	require.NotNil(t, reply.BotResponse)

	resp := reply.BotResponse
	assert.Equal(t, "greetings", resp.StoryID)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "Hello!", resp.Messages[0].(model.Sentence).Text.Text)
	assert.Equal(t, "req-1", resp.Context.RequestID)
	assert.True(t, resp.Context.Date.Equal(model.NewTimestamp(fixedNow)))
	assert.NotNil(t, resp.Entities)
}

func TestHandleRawGreetings(t *testing.T) {
	bot := newTestBot(t, Config{})
	bot.RegisterStory(NewStory("greetings", func(ctx context.Context, bus Bus) error {
		bus.Send("Hello!")
		return nil
	}))

	in := `{"requestId":"r9","botRequest":{"intent":"greetings","entities":[],"storyId":null,
		"message":{"type":"text","text":"hi"},"requestContext":{"userId":{"id":"alice","type":"user"}}}}`
	out, err := bot.HandleRaw(context.Background(), []byte(in))
	require.NoError(t, err)

	var env struct {
		RequestID   string `json:"requestId"`
		BotResponse struct {
			StoryID  string            `json:"storyId"`
			Messages []json.RawMessage `json:"messages"`
			Context  struct {
				Date string `json:"date"`
			} `json:"context"`
		} `json:"botResponse"`
	}
	require.NoError(t, json.Unmarshal(out, &env))
	assert.Equal(t, "r9", env.RequestID)
	assert.Equal(t, "greetings", env.BotResponse.StoryID)
	require.Len(t, env.BotResponse.Messages, 1)
	assert.Contains(t, string(env.BotResponse.Messages[0]), `"type":"sentence"`)
	assert.Equal(t, "2024-03-01T10:30:00Z", env.BotResponse.Context.Date)
}

func TestHandleRawDecodeError(t *testing.T) {
	bot := newTestBot(t, Config{})
	_, err := bot.HandleRaw(context.Background(), []byte(`{not json`))
	assert.ErrorIs(t, err, model.ErrDecode)
}

func TestHandleTurnFailingStoryUsesErrorHandler(t *testing.T) {
	bot := newTestBot(t, Config{})
	bot.RegisterStory(NewStory("boom", func(ctx context.Context, bus Bus) error {
		bus.Send("partial")
		return errors.New("backend down")
	}))

	reply, err := bot.HandleTurn(context.Background(), turn("alice", "boom"))
	require.NoError(t, err)
	require.Len(t, reply.BotResponse.Messages, 1)
	assert.Equal(t, DefaultErrorMessage, reply.BotResponse.Messages[0].(model.Sentence).Text.Text)
	assert.Equal(t, "boom", reply.BotResponse.StoryID)
}

func TestHandleTurnPanickingStory(t *testing.T) {
	bot := newTestBot(t, Config{})
	bot.RegisterStory(NewStory("panic", func(ctx context.Context, bus Bus) error {
		panic("nil map")
	}))
	bot.SetErrorHandler(func(ctx context.Context, bus Bus) error {
		panic("again")
	})

	reply, err := bot.HandleTurn(context.Background(), turn("alice", "panic"))
	require.NoError(t, err)
	require.NotNil(t, reply.BotResponse)
	assert.NotNil(t, reply.BotResponse.Messages)
	assert.Empty(t, reply.BotResponse.Messages)

	assert.ErrorIs(t, safeAnswer(context.Background(), func(context.Context, Bus) error { panic("x") }, nil), ErrStoryPanic)
}

func TestHandleTurnConfigurationQuery(t *testing.T) {
	called := false
	bot := newTestBot(t, Config{})
	bot.RegisterStories(
		NewStory("greetings", func(ctx context.Context, bus Bus) error { called = true; return nil }),
		NewStory("order_query", func(ctx context.Context, bus Bus) error { called = true; return nil },
			WithSecondaryIntents("give_order_number")),
	)

	yes := true
	env := turn("alice", "greetings")
	env.Configuration = &yes
	reply, err := bot.HandleTurn(context.Background(), env)
	require.NoError(t, err)

	assert.False(t, called)
	assert.Nil(t, reply.BotResponse)
	require.NotNil(t, reply.BotConfiguration)
	assert.Equal(t, bot.ClientConfiguration(), *reply.BotConfiguration)
	assert.Len(t, reply.BotConfiguration.Stories, 2)
}

func TestHandleTurnUnknownIntentUsesDefaultStory(t *testing.T) {
	store := dao.NewMemoryStore()
	bot := newTestBot(t, Config{Storage: store})

	reply, err := bot.HandleTurn(context.Background(), turn("alice", "nope"))
	require.NoError(t, err)
	assert.Equal(t, DefaultStoryName, reply.BotResponse.StoryID)
	assert.Equal(t, DefaultUnknownMessage, reply.BotResponse.Messages[0].(model.Sentence).Text.Text)

	session, err := store.Get(context.Background(), model.UserID{ID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, DefaultStoryName, session.CurrentStory)
	require.NotNil(t, session.PreviousIntent)
	assert.Equal(t, "nope", session.PreviousIntent.Name)
}

func TestHandleTurnStickyStoryAndBinding(t *testing.T) {
	store := dao.NewMemoryStore()
	bot := newTestBot(t, Config{Storage: store})

	var bound []string
	bot.RegisterStories(
		NewStory("order_query", func(ctx context.Context, bus Bus) error {
			if e, ok := bus.Bound("orderNumber"); ok {
				bound = append(bound, e.Text())
			}
			return nil
		}, WithSecondaryIntents("give_order_number"), WithEntityBinding("orderNumber", "order_number")),
		NewStory("give_order_number", noop),
	)

	_, err := bot.HandleTurn(context.Background(), turn("alice", "order_query"))
	require.NoError(t, err)
	assert.Empty(t, bound)

	reply, err := bot.HandleTurn(context.Background(), turn("alice", "give_order_number",
		model.Entity{Type: "shop:order_number", Content: model.StringPtr("12345")}))
	require.NoError(t, err)
	assert.Equal(t, "order_query", reply.BotResponse.StoryID)
	assert.Equal(t, []string{"12345"}, bound)
	require.Len(t, reply.BotResponse.Entities, 1)

	// another user starts fresh
	reply, err = bot.HandleTurn(context.Background(), turn("bob", "give_order_number"))
	require.NoError(t, err)
	assert.Equal(t, "give_order_number", reply.BotResponse.StoryID)
}

func TestEntityPolicies(t *testing.T) {
	color := func(c string) model.Entity {
		return model.Entity{Type: "color", Content: model.StringPtr(c)}
	}

	cases := []struct {
		name   string
		policy EntityPolicy
		want   int
	}{
		{"append", EntityPolicy{Mode: EntityAppend}, 3},
		{"capped", EntityPolicy{Mode: EntityAppend, MaxEntities: 2}, 2},
		{"reset", EntityPolicy{Mode: EntityResetOnStoryChange}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := dao.NewMemoryStore()
			bot := newTestBot(t, Config{Storage: store, EntityPolicy: tc.policy})
			bot.RegisterStories(
				NewStory("a", noop, WithSecondaryIntents("more")),
				NewStory("b", noop),
			)

			for _, step := range []struct{ intent, color string }{{"a", "red"}, {"more", "green"}, {"b", "blue"}} {
				_, err := bot.HandleTurn(context.Background(), turn("alice", step.intent, color(step.color)))
				require.NoError(t, err)
			}

			session, err := store.Get(context.Background(), model.UserID{ID: "alice"})
			require.NoError(t, err)
			assert.Len(t, session.Entities, tc.want)
			assert.Equal(t, "blue", session.Entity("color").Text())
		})
	}
}

func TestNewBotServiceDefaultPolicy(t *testing.T) {
	bot := NewBotService(Config{})
	assert.Equal(t, DefaultEntityPolicy(), bot.cfg.EntityPolicy)
}

func TestHandleTurnBadRequests(t *testing.T) {
	bot := newTestBot(t, Config{})

	_, err := bot.HandleTurn(context.Background(), &model.Envelope{RequestID: "x"})
	assert.ErrorIs(t, err, ErrEmptyRequest)
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = bot.HandleTurn(context.Background(), &model.Envelope{BotRequest: &model.BotRequest{Intent: "greetings"}})
	assert.ErrorIs(t, err, ErrMissingUser)
}

func TestHandleTurnGeneratesRequestID(t *testing.T) {
	bot := newTestBot(t, Config{})
	env := turn("alice", "greetings")
	env.RequestID = ""

	reply, err := bot.HandleTurn(context.Background(), env)
	require.NoError(t, err)
	assert.NotEmpty(t, reply.RequestID)
	assert.Equal(t, reply.RequestID, reply.BotResponse.Context.RequestID)
}

type failingStore struct {
	getErr, saveErr error
}

func (s failingStore) Get(ctx context.Context, id model.UserID) (*model.Session, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return model.NewSession(id), nil
}

func (s failingStore) Save(ctx context.Context, session *model.Session) error {
	return s.saveErr
}

func TestHandleTurnStorageErrorsPropagate(t *testing.T) {
	boom := errors.New("disk full")

	bot := newTestBot(t, Config{Storage: failingStore{getErr: boom}})
	_, err := bot.HandleTurn(context.Background(), turn("alice", "greetings"))
	assert.ErrorIs(t, err, boom)

	bot = newTestBot(t, Config{Storage: failingStore{saveErr: dao.ErrSessionConflict}})
	_, err = bot.HandleTurn(context.Background(), turn("alice", "greetings"))
	assert.ErrorIs(t, err, dao.ErrSessionConflict)
}

func TestHandleTurnSerializesPerUser(t *testing.T) {
	store := dao.NewMemoryStore()
	bot := newTestBot(t, Config{Storage: store})
	bot.RegisterStory(NewStory("count", func(ctx context.Context, bus Bus) error {
		n, _ := bus.Session().GetItem("n")
		count, _ := n.(int)
		bus.Session().SetItem("n", count+1)
		return nil
	}))

	const turns = 20
	var wg sync.WaitGroup
	for range turns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := bot.HandleTurn(context.Background(), turn("alice", "count"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	session, err := store.Get(context.Background(), model.UserID{ID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, turns, session.Items["n"])
	assert.Equal(t, int64(turns), session.Version)
	assert.Zero(t, bot.locks.len())
}

func TestCustomBusFactory(t *testing.T) {
	var built int
	bot := newTestBot(t, Config{})
	bot.SetDefaultBus(func(session *model.Session, request *model.BotRequest, logger *zap.Logger) Bus {
		built++
		return NewTurnBus(session, request, logger)
	})
	bot.RegisterStory(NewStory("greetings", noop))

	_, err := bot.HandleTurn(context.Background(), turn("alice", "greetings"))
	require.NoError(t, err)
	assert.Equal(t, 1, built)
}
