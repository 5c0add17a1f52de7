package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/student3964/MindVault/internal/util"
	"github.com/student3964/MindVault/pkg/domain"
)

const assistantSystemPrompt = "You are VaultAI, a friendly study assistant " +
	"for students. Help with study questions, explanations, and planning. " +
	"Keep answers concise and practical."

const maxSessionTitleLen = 60

// NewAssistantSession creates an empty session; the title is set lazily
// from the first prompt.
func (a *App) NewAssistantSession(owner domain.User) (domain.ChatSession, error) {
	now := time.Now().UTC()
	session := domain.ChatSession{
		ID:        util.NewID(),
		OwnerID:   owner.ID,
		Title:     "New chat",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.CreateSession(session); err != nil {
		return domain.ChatSession{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// AskAssistant appends a turn to a session and returns the model response.
// Prior turns are replayed as conversation context.
func (a *App) AskAssistant(ctx context.Context, owner domain.User, sessionID, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt required", ErrValidation)
	}
	session, err := a.ownedSession(owner, sessionID)
	if err != nil {
		return "", err
	}
	history, err := a.store.ListSessionMessages(sessionID)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}

	var b strings.Builder
	for _, msg := range history {
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Message)
		b.WriteString("\n")
	}
	b.WriteString("user: ")
	b.WriteString(prompt)

	response, err := a.generator.GenerateText(ctx, assistantSystemPrompt, b.String())
	if err != nil {
		return "", fmt.Errorf("generate response: %w", err)
	}
	response = strings.TrimSpace(response)

	now := time.Now().UTC()
	if err := a.store.AppendSessionMessage(sessionID, domain.ChatMessage{
		ID:        util.NewID(),
		OwnerID:   owner.ID,
		Role:      "user",
		Message:   prompt,
		CreatedAt: now,
	}); err != nil {
		return "", fmt.Errorf("save user message: %w", err)
	}
	if err := a.store.AppendSessionMessage(sessionID, domain.ChatMessage{
		ID:        util.NewID(),
		OwnerID:   owner.ID,
		Role:      "assistant",
		Message:   response,
		CreatedAt: now.Add(time.Millisecond),
	}); err != nil {
		return "", fmt.Errorf("save assistant message: %w", err)
	}

	title := ""
	if len(history) == 0 {
		title = sessionTitle(prompt)
	}
	if err := a.store.UpdateSession(session.ID, title, now); err != nil {
		return "", fmt.Errorf("update session: %w", err)
	}
	return response, nil
}

// ListAssistantSessions returns the owner's sessions, most recent first.
func (a *App) ListAssistantSessions(owner domain.User) ([]domain.ChatSession, error) {
	return a.store.ListSessionsByOwner(owner.ID)
}

// AssistantHistory returns a session's messages in chronological order.
func (a *App) AssistantHistory(owner domain.User, sessionID string) ([]domain.ChatMessage, error) {
	if _, err := a.ownedSession(owner, sessionID); err != nil {
		return nil, err
	}
	return a.store.ListSessionMessages(sessionID)
}

// DeleteAssistantSession removes a session and its messages.
func (a *App) DeleteAssistantSession(owner domain.User, sessionID string) error {
	if _, err := a.ownedSession(owner, sessionID); err != nil {
		return err
	}
	return a.store.DeleteSession(sessionID)
}

func (a *App) ownedSession(owner domain.User, sessionID string) (domain.ChatSession, error) {
	session, ok, err := a.store.GetSession(sessionID)
	if err != nil {
		return domain.ChatSession{}, fmt.Errorf("get session: %w", err)
	}
	if !ok {
		return domain.ChatSession{}, ErrNotFound
	}
	if session.OwnerID != owner.ID {
		return domain.ChatSession{}, ErrForbidden
	}
	return session, nil
}

// sessionTitle derives a short title from the first prompt.
func sessionTitle(prompt string) string {
	title := strings.Join(strings.Fields(prompt), " ")
	runes := []rune(title)
	if len(runes) > maxSessionTitleLen {
		title = string(runes[:maxSessionTitleLen]) + "..."
	}
	if title == "" {
		title = "New chat"
	}
	return title
}
