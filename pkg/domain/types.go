package domain

import "time"

type FileStatus string

const (
	StatusQueued     FileStatus = "queued"
	StatusProcessing FileStatus = "processing"
	StatusReady      FileStatus = "ready"
	StatusFailed     FileStatus = "failed"
)

// User is a registered account. The password hash never leaves the backend.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// StudyFile is an uploaded vault document. ExtractedText is filled in by the
// extraction pipeline and is only consumed server-side.
type StudyFile struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"ownerId"`
	Name          string     `json:"name"`
	ContentType   string     `json:"type"`
	SizeBytes     int64      `json:"size"`
	StorageKey    string     `json:"-"`
	Status        FileStatus `json:"status"`
	ErrorMessage  string     `json:"errorMessage,omitempty"`
	ExtractedText string     `json:"-"`
	UploadedAt    time.Time  `json:"uploadDate"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type Task struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"-"`
	Title     string    `json:"title"`
	Details   string    `json:"details"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Event struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"-"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Alert is a stored notification, created by the deadline checker.
// The alerts endpoint also derives transient alerts from event deadlines;
// those are never persisted.
type Alert struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"-"`
	Message   string    `json:"message"`
	EventID   string    `json:"-"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatSession is a VaultAI conversation.
type ChatSession struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"-"`
	Title         string     `json:"title"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// ChatMessage is one turn in a VaultAI session or a per-file chat.
// Exactly one of SessionID / FileID is set.
type ChatMessage struct {
	ID        string    `json:"-"`
	SessionID string    `json:"-"`
	FileID    string    `json:"-"`
	OwnerID   string    `json:"-"`
	Role      string    `json:"role"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"timestamp"`
}

// MCQ is one AI-generated quiz item.
type MCQ struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// StudyPlan records an AI-generated study planner result. Inputs keeps the
// raw goals/subjects/timeframe fields the prompt was built from.
type StudyPlan struct {
	ID        string            `json:"id"`
	OwnerID   string            `json:"-"`
	Prompt    string            `json:"prompt"`
	PlanText  string            `json:"plan"`
	Inputs    map[string]string `json:"inputs,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}
