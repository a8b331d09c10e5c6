package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avellar/chat-service/internal/domain"
	"github.com/avellar/chat-service/internal/observability"
)

// systemPrompt is prepended to every provider call.
const systemPrompt = "You are a helpful AI assistant. Eliminate filler and emojis from answers. Prioritise directive phrasing. Always be friendly."

// guestKey keys the single shared guest session. Anonymous callers have
// no identity to partition on, so they share one transient history.
const guestKey = "guest"

// GuestNotice is returned on every guest turn.
const GuestNotice = "Conversations are not saved for guest users. Log in to keep your chat history."

// Service is the chat dispatcher: it validates input, resolves the
// conversation, selects a provider by the locked model, runs the turn
// and persists the exchange.
type Service struct {
	providers map[domain.ModelID]domain.ProviderClient
	store     domain.ConversationStore
	guests    domain.GuestStore
	now       func() time.Time
}

func NewService(
	providers map[domain.ModelID]domain.ProviderClient,
	store domain.ConversationStore,
	guests domain.GuestStore,
) *Service {
	return &Service{
		providers: providers,
		store:     store,
		guests:    guests,
		now:       time.Now,
	}
}

type SendMessageInput struct {
	// UserID is only meaningful when Authenticated is true.
	UserID         domain.UserID
	Authenticated  bool
	ConversationID *domain.ConversationID
	Model          string
	Text           string
}

type SendMessageOutput struct {
	Reply          string
	ConversationID *domain.ConversationID
	Model          domain.ModelID
	IsGuest        bool
}

func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: message must not be empty", domain.ErrInvalidInput)
	}

	model, err := s.resolveModel(in.Model)
	if err != nil {
		return nil, err
	}

	if !in.Authenticated {
		return s.sendGuestMessage(ctx, model, text)
	}
	return s.sendUserMessage(ctx, in.UserID, in.ConversationID, model, text)
}

// resolveModel applies the default and rejects unsupported identifiers.
func (s *Service) resolveModel(requested string) (domain.ModelID, error) {
	if requested == "" {
		return domain.DefaultModel, nil
	}
	model := domain.ModelID(requested)
	if _, ok := s.providers[model]; !ok {
		return "", fmt.Errorf("%w: unsupported model %q", domain.ErrInvalidInput, requested)
	}
	return model, nil
}

func (s *Service) sendGuestMessage(ctx context.Context, model domain.ModelID, text string) (*SendMessageOutput, error) {
	log := observability.LoggerFromContext(ctx).With("guest", true)

	session, ok := s.guests.Get(guestKey)
	if !ok {
		session = &domain.GuestSession{Model: model}
	}
	// The session's model was locked on its first turn; a differing
	// model on later calls is ignored.
	model = session.Model

	messages := make([]domain.ChatMessage, 0, len(session.Turns)+2)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: systemPrompt})
	messages = append(messages, session.Turns...)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: text})

	reply, err := s.dispatch(ctx, model, messages)
	if err != nil {
		log.Error("provider call failed", "model", model, "error", err)
		return nil, err
	}

	session.Turns = append(session.Turns,
		domain.ChatMessage{Role: domain.RoleUser, Content: text},
		domain.ChatMessage{Role: domain.RoleAssistant, Content: reply},
	)
	s.guests.Put(guestKey, session)

	log.Info("guest turn completed", "model", model, "history_len", len(session.Turns))

	return &SendMessageOutput{
		Reply:   reply,
		Model:   model,
		IsGuest: true,
	}, nil
}

func (s *Service) sendUserMessage(
	ctx context.Context,
	userID domain.UserID,
	convID *domain.ConversationID,
	model domain.ModelID,
	text string,
) (*SendMessageOutput, error) {
	log := observability.LoggerFromContext(ctx).With("user_id", userID)

	var conv *domain.Conversation
	var history []*domain.Message

	if convID != nil {
		var err error
		conv, err = s.store.GetConversation(*convID, userID)
		if err != nil {
			log.Warn("conversation lookup failed", "conversation_id", *convID, "error", err)
			return nil, err
		}
		history, err = s.store.GetMessages(conv.ID)
		if err != nil {
			log.Error("failed to load history", "conversation_id", conv.ID, "error", err)
			return nil, err
		}
		// Model is locked at creation; the request's model is ignored.
		model = conv.Model
	} else {
		now := s.now()
		conv = &domain.Conversation{
			UserID:    userID,
			Title:     s.GenerateTitle(ctx, text),
			Model:     model,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.store.CreateConversation(conv); err != nil {
			log.Error("failed to create conversation", "error", err)
			return nil, err
		}
		log.Info("conversation created", "conversation_id", conv.ID, "model", model)
	}

	messages := make([]domain.ChatMessage, 0, len(history)+2)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: systemPrompt})
	for _, m := range history {
		messages = append(messages, domain.ChatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: text})

	reply, err := s.dispatch(ctx, model, messages)
	if err != nil {
		log.Error("provider call failed", "model", model, "error", err)
		return nil, err
	}

	now := s.now()
	exchange := []*domain.Message{
		{Role: domain.RoleUser, Content: text, CreatedAt: now},
		{Role: domain.RoleAssistant, Content: reply, CreatedAt: now.Add(time.Millisecond)},
	}
	if err := s.store.AppendMessages(conv.ID, exchange); err != nil {
		log.Error("failed to persist exchange", "conversation_id", conv.ID, "error", err)
		return nil, err
	}
	if err := s.store.TouchConversation(conv.ID, s.now()); err != nil {
		log.Error("failed to touch conversation", "conversation_id", conv.ID, "error", err)
		return nil, err
	}

	log.Info("turn completed", "conversation_id", conv.ID, "model", model)

	id := conv.ID
	return &SendMessageOutput{
		Reply:          reply,
		ConversationID: &id,
		Model:          model,
	}, nil
}

// dispatch selects the provider serving the model and runs one call.
// Failures are not retried.
func (s *Service) dispatch(ctx context.Context, model domain.ModelID, messages []domain.ChatMessage) (string, error) {
	client, ok := s.providers[model]
	if !ok {
		return "", fmt.Errorf("%w: unsupported model %q", domain.ErrInvalidInput, model)
	}
	return client.GenerateReply(ctx, messages)
}
