package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	FirstName    string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

type FileModel struct {
	ID            string `gorm:"primaryKey"`
	OwnerID       string `gorm:"not null;index"`
	Name          string `gorm:"not null"`
	ContentType   string
	SizeBytes     int64  `gorm:"not null"`
	StorageKey    string `gorm:"not null"`
	Status        string `gorm:"not null"`
	ErrorMessage  string
	ExtractedText string    `gorm:"type:text"`
	UploadedAt    time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

type TaskModel struct {
	ID        string `gorm:"primaryKey"`
	OwnerID   string `gorm:"not null;index"`
	Title     string `gorm:"not null"`
	Details   string
	Done      bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

type EventModel struct {
	ID          string `gorm:"primaryKey"`
	OwnerID     string `gorm:"not null;index"`
	Title       string `gorm:"not null"`
	Description string
	Deadline    time.Time `gorm:"not null;index"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

type AlertModel struct {
	ID        string `gorm:"primaryKey"`
	OwnerID   string `gorm:"not null;index"`
	Message   string `gorm:"not null"`
	EventID   string `gorm:"index"`
	Read      bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

type SessionModel struct {
	ID            string `gorm:"primaryKey"`
	OwnerID       string `gorm:"not null;index"`
	Title         string
	LastMessageAt *time.Time
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

type MessageModel struct {
	ID        string  `gorm:"primaryKey"`
	SessionID *string `gorm:"index"`
	FileID    *string `gorm:"index"`
	OwnerID   string  `gorm:"not null"`
	Role      string  `gorm:"not null"`
	Content   string  `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

type PlanModel struct {
	ID        string `gorm:"primaryKey"`
	OwnerID   string `gorm:"not null;index"`
	Prompt    string `gorm:"type:text"`
	PlanText  string `gorm:"type:text"`
	Inputs    datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"not null"`
}
