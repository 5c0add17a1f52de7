package store

import (
	"time"

	"github.com/student3964/MindVault/pkg/domain"
)

// Store is the persistence contract for the backend. GormStore is the
// production implementation; MemoryStore backs tests.
type Store interface {
	// Users.
	SaveUser(u domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)

	// Vault files.
	SaveFile(f domain.StudyFile) error
	GetFile(id string) (domain.StudyFile, bool, error)
	ListFilesByOwner(ownerID, search string) ([]domain.StudyFile, error)
	SetFileStatus(id string, status domain.FileStatus, errMsg string) error
	SetFileText(id, text string) error
	DeleteFile(id string) error

	// Planner tasks.
	SaveTask(t domain.Task) error
	GetTask(id string) (domain.Task, bool, error)
	ListTasksByOwner(ownerID string) ([]domain.Task, error)
	DeleteTask(id string) error

	// Planner events.
	SaveEvent(e domain.Event) error
	ListEventsByOwner(ownerID string, from, to *time.Time) ([]domain.Event, error)
	ListExpiredEvents(now time.Time) ([]domain.Event, error)

	// Alerts.
	SaveAlert(a domain.Alert) error
	GetAlert(id string) (domain.Alert, bool, error)
	ListUnreadAlertsByOwner(ownerID string) ([]domain.Alert, error)
	HasAlertForEvent(eventID string) (bool, error)

	// VaultAI sessions.
	CreateSession(s domain.ChatSession) error
	GetSession(id string) (domain.ChatSession, bool, error)
	ListSessionsByOwner(ownerID string) ([]domain.ChatSession, error)
	UpdateSession(id, title string, lastMessageAt time.Time) error
	DeleteSession(id string) error
	AppendSessionMessage(sessionID string, msg domain.ChatMessage) error
	ListSessionMessages(sessionID string) ([]domain.ChatMessage, error)

	// Per-file chat.
	AppendFileMessage(fileID string, msg domain.ChatMessage) error
	ListFileMessages(fileID string) ([]domain.ChatMessage, error)
	ReplaceFileMessages(fileID string, msgs []domain.ChatMessage) error

	// Study plans.
	SavePlan(p domain.StudyPlan) error
}
