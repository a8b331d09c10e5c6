package chat

import (
	"context"
	"strings"

	"github.com/avellar/chat-service/internal/domain"
	"github.com/avellar/chat-service/internal/observability"
)

// FallbackTitle is used whenever title generation fails.
const FallbackTitle = "New Conversation"

const titleInstruction = "Generate a very short title (at most five words) for a conversation that starts with the following message. Reply with the title only, no quotes or punctuation around it."

const maxTitleLen = 60

// GenerateTitle asks the default provider for a short label describing
// the first message. Any failure degrades to FallbackTitle; a broken
// title must never fail the turn.
func (s *Service) GenerateTitle(ctx context.Context, firstMessage string) string {
	client, ok := s.providers[domain.DefaultModel]
	if !ok {
		return FallbackTitle
	}

	title, err := client.GenerateReply(ctx, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: titleInstruction},
		{Role: domain.RoleUser, Content: firstMessage},
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("title generation failed", "error", err)
		return FallbackTitle
	}

	title = strings.TrimSpace(strings.Trim(strings.TrimSpace(title), `"`))
	if title == "" {
		return FallbackTitle
	}
	if len(title) > maxTitleLen {
		title = title[:maxTitleLen]
	}
	return title
}
