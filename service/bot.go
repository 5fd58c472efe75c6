package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storybot/dao"
	"storybot/model"
)

const (
	DefaultStoryName      = "unknown"
	DefaultUnknownMessage = "Sorry, I did not understand that."
	DefaultErrorMessage   = "Sorry, something went wrong. Please try again later."
)

var (
	// ErrBadRequest marks inbound envelopes no turn can be built from.
	ErrBadRequest   = errors.New("bad request")
	ErrEmptyRequest = fmt.Errorf("%w: envelope carries no bot request", ErrBadRequest)
	ErrMissingUser  = fmt.Errorf("%w: bot request carries no user id", ErrBadRequest)
	ErrStoryPanic   = errors.New("story panicked")
)

// Config wires a BotService. Zero fields get defaults:
//   - Storage: dao.NewMemoryStore()
//   - Logger: zap.L()
//   - ErrorHandler: sends DefaultErrorMessage
//   - DefaultStory: story "unknown" sending DefaultUnknownMessage
//   - BusFactory: NewTurnBus
//   - EntityPolicy: DefaultEntityPolicy()
//   - Now: time.Now
type Config struct {
	Storage      dao.Storage
	Logger       *zap.Logger
	ErrorHandler AnswerFunc
	DefaultStory Story
	BusFactory   BusFactory
	EntityPolicy EntityPolicy
	Now          func() time.Time
}

func (c *Config) withDefaults() {
	if c.Storage == nil {
		c.Storage = dao.NewMemoryStore()
	}
	if c.Logger == nil {
		c.Logger = zap.L()
	}
	if c.ErrorHandler == nil {
		c.ErrorHandler = func(ctx context.Context, bus Bus) error {
			bus.Send(DefaultErrorMessage)
			return nil
		}
	}
	if c.DefaultStory == nil {
		c.DefaultStory = NewStory(DefaultStoryName, func(ctx context.Context, bus Bus) error {
			bus.Send(DefaultUnknownMessage)
			return nil
		})
	}
	if c.BusFactory == nil {
		c.BusFactory = NewTurnBus
	}
	if c.EntityPolicy == (EntityPolicy{}) {
		c.EntityPolicy = DefaultEntityPolicy()
	} else if c.EntityPolicy.Mode == "" {
		c.EntityPolicy.Mode = EntityAppend
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// BotService runs one request/response cycle per inbound envelope.
type BotService struct {
	cfg     Config
	stories *StoryRegistry
	logger  *zap.Logger
	locks   *userLocks
}

func NewBotService(cfg Config) *BotService {
	cfg.withDefaults()
	return &BotService{
		cfg:     cfg,
		stories: NewStoryRegistry(),
		logger:  cfg.Logger.Named("bot"),
		locks:   newUserLocks(),
	}
}

func (s *BotService) RegisterStory(story Story) *BotService {
	s.stories.Register(story)
	s.logger.Debug("story registered", zap.String("story", StoryName(story)), zap.String("intent", story.Intent().Name))
	return s
}

func (s *BotService) RegisterStories(stories ...Story) *BotService {
	for _, story := range stories {
		s.RegisterStory(story)
	}
	return s
}

func (s *BotService) SetErrorHandler(handler AnswerFunc) *BotService {
	if handler != nil {
		s.cfg.ErrorHandler = handler
	}
	return s
}

func (s *BotService) SetDefaultBus(factory BusFactory) *BotService {
	if factory != nil {
		s.cfg.BusFactory = factory
	}
	return s
}

func (s *BotService) SetDefaultStory(story Story) *BotService {
	if story != nil {
		s.cfg.DefaultStory = story
	}
	return s
}

func (s *BotService) Stories() *StoryRegistry {
	return s.stories
}

func (s *BotService) ClientConfiguration() model.ClientConfiguration {
	return s.stories.Configuration()
}

// HandleRaw decodes a wire envelope, runs the turn and encodes the reply.
func (s *BotService) HandleRaw(ctx context.Context, data []byte) ([]byte, error) {
	env, err := model.DecodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	reply, err := s.HandleTurn(ctx, env)
	if err != nil {
		return nil, err
	}
	return model.EncodeEnvelope(reply)
}

// HandleTurn answers a configuration query or runs one conversational turn.
// Story failures never surface as errors; storage failures do.
func (s *BotService) HandleTurn(ctx context.Context, env *model.Envelope) (*model.Envelope, error) {
	if env == nil {
		return nil, ErrEmptyRequest
	}

	if env.IsConfigurationQuery() {
		cfg := s.ClientConfiguration()
		s.logger.Info("client configuration requested", zap.Int("stories", len(cfg.Stories)))
		return &model.Envelope{RequestID: env.RequestID, BotConfiguration: &cfg}, nil
	}

	req := env.BotRequest
	if req == nil {
		return nil, fmt.Errorf("%w (request %s)", ErrEmptyRequest, env.RequestID)
	}
	userID := req.UserID()
	if userID.ID == "" {
		return nil, fmt.Errorf("%w (request %s)", ErrMissingUser, env.RequestID)
	}

	requestID := env.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	logger := s.logger.With(zap.String("request_id", requestID), zap.String("user_id", userID.ID))

	unlock := s.locks.lock(userID.ID)
	defer unlock()

	session, err := s.cfg.Storage.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", userID.ID, err)
	}

	intent := model.NewIntent(req.Intent)
	story, found := s.stories.Resolve(intent, session.CurrentStory)
	if found {
		logger.Info("story found", zap.String("story", StoryName(story)), zap.String("intent", intent.Name))
	} else {
		logger.Info("no story for intent", zap.String("intent", intent.Name))
		story = s.cfg.DefaultStory
	}
	name := StoryName(story)

	s.cfg.EntityPolicy.apply(session, req.Entities, name != session.CurrentStory)
	session.CurrentStory = name
	session.SetPreviousIntent(intent)

	bus := s.cfg.BusFactory(session, req, logger)
	s.bindEntities(story, bus, logger)
	messages := s.answer(ctx, story, bus, logger)

	if err := s.cfg.Storage.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session %s: %w", userID.ID, err)
	}

	entities := req.Entities
	if entities == nil {
		entities = []model.Entity{}
	}
	return &model.Envelope{
		RequestID: requestID,
		BotResponse: &model.BotResponse{
			Messages: messages,
			StoryID:  name,
			Entities: entities,
			Context: model.ResponseContext{
				RequestID: requestID,
				Date:      model.NewTimestamp(s.cfg.Now()),
			},
		},
	}, nil
}

func (s *BotService) bindEntities(story Story, bus Bus, logger *zap.Logger) {
	binder, ok := story.(EntityBinder)
	if !ok {
		return
	}
	for _, binding := range binder.EntityBindings() {
		entity := bus.Session().Entity(binding.EntityType)
		if entity == nil {
			logger.Debug("no entity to bind", zap.String("field", binding.Field), zap.String("entity_type", binding.EntityType))
			continue
		}
		bus.Bind(binding.Field, entity)
	}
}

// answer runs the story. On failure its partial output is discarded and the
// error handler answers on a fresh bus instead.
func (s *BotService) answer(ctx context.Context, story Story, bus Bus, logger *zap.Logger) model.Messages {
	err := safeAnswer(ctx, story.Answer, bus)
	if err == nil {
		return bus.Messages()
	}
	logger.Error("story failed", zap.String("story", StoryName(story)), zap.String("intent", bus.Intent().Name), zap.Error(err))

	errBus := s.cfg.BusFactory(bus.Session(), bus.Request(), logger)
	if err := safeAnswer(ctx, s.cfg.ErrorHandler, errBus); err != nil {
		logger.Error("error handler failed", zap.Error(err))
		return model.Messages{}
	}
	return errBus.Messages()
}

func safeAnswer(ctx context.Context, answer AnswerFunc, bus Bus) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStoryPanic, r)
		}
	}()
	return answer(ctx, bus)
}
