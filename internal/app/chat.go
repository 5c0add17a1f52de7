package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/student3964/MindVault/internal/util"
	"github.com/student3964/MindVault/pkg/domain"
)

const fileChatSystemPrompt = "You are a study assistant answering questions " +
	"about a document. Ground your answers in the document content provided. " +
	"If the document does not cover the question, say so."

// AskFileChat answers a question about a file using its extracted text and
// the prior turns as context, then appends both turns to the saved history.
func (a *App) AskFileChat(ctx context.Context, owner domain.User, fileID, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt required", ErrValidation)
	}
	text, err := a.readyFileText(owner, fileID)
	if err != nil {
		return "", err
	}
	history, err := a.store.ListFileMessages(fileID)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}

	var b strings.Builder
	b.WriteString("Document:\n")
	b.WriteString(text)
	b.WriteString("\n\n")
	for _, msg := range history {
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Message)
		b.WriteString("\n")
	}
	b.WriteString("user: ")
	b.WriteString(prompt)

	response, err := a.generator.GenerateText(ctx, fileChatSystemPrompt, b.String())
	if err != nil {
		return "", fmt.Errorf("generate response: %w", err)
	}
	response = strings.TrimSpace(response)

	now := time.Now().UTC()
	userMsg := domain.ChatMessage{
		ID:        util.NewID(),
		OwnerID:   owner.ID,
		Role:      "user",
		Message:   prompt,
		CreatedAt: now,
	}
	assistantMsg := domain.ChatMessage{
		ID:        util.NewID(),
		OwnerID:   owner.ID,
		Role:      "assistant",
		Message:   response,
		CreatedAt: now.Add(time.Millisecond),
	}
	if err := a.store.AppendFileMessage(fileID, userMsg); err != nil {
		return "", fmt.Errorf("save user message: %w", err)
	}
	if err := a.store.AppendFileMessage(fileID, assistantMsg); err != nil {
		return "", fmt.Errorf("save assistant message: %w", err)
	}
	return response, nil
}

// SaveFileChat replaces the stored chat history for a file.
func (a *App) SaveFileChat(owner domain.User, fileID string, msgs []domain.ChatMessage) error {
	if _, err := a.ownedFile(owner, fileID); err != nil {
		return err
	}
	now := time.Now().UTC()
	replaced := make([]domain.ChatMessage, 0, len(msgs))
	for i, msg := range msgs {
		role := strings.TrimSpace(msg.Role)
		if role != "user" && role != "assistant" {
			return fmt.Errorf("%w: role must be user or assistant", ErrValidation)
		}
		replaced = append(replaced, domain.ChatMessage{
			ID:        util.NewID(),
			OwnerID:   owner.ID,
			Role:      role,
			Message:   msg.Message,
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
		})
	}
	return a.store.ReplaceFileMessages(fileID, replaced)
}

// FileChatHistory returns a file's chat turns in chronological order.
func (a *App) FileChatHistory(owner domain.User, fileID string) ([]domain.ChatMessage, error) {
	if _, err := a.ownedFile(owner, fileID); err != nil {
		return nil, err
	}
	return a.store.ListFileMessages(fileID)
}
