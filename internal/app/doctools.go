package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/student3964/MindVault/pkg/domain"
)

const summarizeSystemPrompt = "You are a study assistant. Summarize the " +
	"provided document for a student revising from it. Use short paragraphs " +
	"and bullet points for key facts."

const mcqSystemPrompt = "You are a study assistant. From the provided " +
	"document, write multiple choice questions. Respond with JSON only: an " +
	`array of objects with fields "question", "options" (exactly 4 strings) ` +
	`and "correctAnswer" (one of the options). No prose, no markdown fences.`

// Summarize generates a summary of a ready file's extracted text.
func (a *App) Summarize(ctx context.Context, owner domain.User, fileID string) (string, error) {
	text, err := a.readyFileText(owner, fileID)
	if err != nil {
		return "", err
	}
	summary, err := a.generator.GenerateText(ctx, summarizeSystemPrompt, text)
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	return strings.TrimSpace(summary), nil
}

// GenerateMCQs asks the model for multiple choice questions and parses the
// JSON payload out of the response.
func (a *App) GenerateMCQs(ctx context.Context, owner domain.User, fileID string) ([]domain.MCQ, error) {
	text, err := a.readyFileText(owner, fileID)
	if err != nil {
		return nil, err
	}
	raw, err := a.generator.GenerateText(ctx, mcqSystemPrompt, text)
	if err != nil {
		return nil, fmt.Errorf("generate mcqs: %w", err)
	}
	var mcqs []domain.MCQ
	if err := json.Unmarshal([]byte(stripFences(raw)), &mcqs); err != nil {
		return nil, fmt.Errorf("parse mcqs: %w", err)
	}
	return mcqs, nil
}

// readyFileText returns the truncated extracted text of an owned, ready file.
func (a *App) readyFileText(owner domain.User, fileID string) (string, error) {
	file, err := a.ownedFile(owner, fileID)
	if err != nil {
		return "", err
	}
	if file.Status != domain.StatusReady {
		return "", ErrFileNotReady
	}
	return truncate(file.ExtractedText, a.maxContextChars), nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag, so the JSON inside can be parsed.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
