// Package app holds the core domain logic behind the HTTP handlers:
// accounts, the file vault, AI document tools, the VaultAI assistant,
// and the study planner.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/student3964/MindVault/internal/util"
	"github.com/student3964/MindVault/pkg/ai"
	"github.com/student3964/MindVault/pkg/auth"
	"github.com/student3964/MindVault/pkg/domain"
	"github.com/student3964/MindVault/pkg/queue"
	"github.com/student3964/MindVault/pkg/storage"
	"github.com/student3964/MindVault/pkg/store"
)

// Enqueuer pushes extraction jobs for uploaded files.
type Enqueuer interface {
	Enqueue(ctx context.Context, fileID string) (queue.JobStatus, error)
}

// Config holds runtime configuration for the core application.
type Config struct {
	Store     store.Store
	Objects   storage.ObjectStore
	Generator ai.TextGenerator
	Queue     Enqueuer
	Tokens    *auth.TokenManager

	// MaxContextChars caps the extracted text passed to the AI tools.
	MaxContextChars int
}

// App wires together storage and domain logic.
type App struct {
	store           store.Store
	objects         storage.ObjectStore
	generator       ai.TextGenerator
	queue           Enqueuer
	tokens          *auth.TokenManager
	maxContextChars int
}

// New constructs the application service.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	if cfg.Objects == nil {
		return nil, fmt.Errorf("object store required")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token manager required")
	}
	maxContext := cfg.MaxContextChars
	if maxContext <= 0 {
		maxContext = 24000
	}
	return &App{
		store:           cfg.Store,
		objects:         cfg.Objects,
		generator:       cfg.Generator,
		queue:           cfg.Queue,
		tokens:          cfg.Tokens,
		maxContextChars: maxContext,
	}, nil
}

// Register creates a new account.
func (a *App) Register(firstName, email, password string) (domain.User, error) {
	firstName = strings.TrimSpace(firstName)
	email = strings.TrimSpace(strings.ToLower(email))
	if firstName == "" || email == "" || password == "" {
		return domain.User{}, fmt.Errorf("%w: first name, email and password required", ErrValidation)
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	exists, err := a.store.HasUserEmail(email)
	if err != nil {
		return domain.User{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, ErrEmailAlreadyExists
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           util.NewID(),
		FirstName:    firstName,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// Login validates credentials and issues a JWT.
func (a *App) Login(email, password string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.User{}, "", ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := a.tokens.Issue(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// UserFromToken resolves a user from a bearer token.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	uid, err := a.tokens.VerifySubject(token)
	if err != nil {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(uid)
	if err != nil || !found {
		return domain.User{}, false
	}
	return user, true
}
