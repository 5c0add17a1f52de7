package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/student3964/MindVault/pkg/domain"
)

// MemoryStore keeps everything in-process. Used in tests and for local
// development without Postgres.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]domain.User // key: user ID
	email       map[string]string      // email -> user ID
	files       map[string]domain.StudyFile
	fileOrder   []string
	tasks       map[string]domain.Task
	taskOrder   []string
	events      map[string]domain.Event
	eventOrder  []string
	alerts      map[string]domain.Alert
	alertOrder  []string
	sessions    map[string]domain.ChatSession
	sessionMsgs map[string][]domain.ChatMessage
	fileMsgs    map[string][]domain.ChatMessage
	plans       []domain.StudyPlan
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]domain.User),
		email:       make(map[string]string),
		files:       make(map[string]domain.StudyFile),
		tasks:       make(map[string]domain.Task),
		events:      make(map[string]domain.Event),
		alerts:      make(map[string]domain.Alert),
		sessions:    make(map[string]domain.ChatSession),
		sessionMsgs: make(map[string][]domain.ChatMessage),
		fileMsgs:    make(map[string][]domain.ChatMessage),
	}
}

// SaveUser registers or updates a user.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	m.email[strings.ToLower(u.Email)] = u.ID
	return nil
}

// HasUserEmail checks if email exists.
func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[strings.ToLower(email)]
	return ok, nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.email[strings.ToLower(email)]; ok {
		u, exists := m.users[id]
		return u, exists, nil
	}
	return domain.User{}, false, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// SaveFile stores or replaces a file record and tracks insertion order.
func (m *MemoryStore) SaveFile(f domain.StudyFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.files[f.ID]; !exists {
		m.fileOrder = append(m.fileOrder, f.ID)
	}
	m.files[f.ID] = f
	return nil
}

// GetFile retrieves a file by ID.
func (m *MemoryStore) GetFile(id string) (domain.StudyFile, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[id]
	return f, ok, nil
}

// ListFilesByOwner returns files for an owner, newest upload first,
// optionally filtered by a case-insensitive name substring.
func (m *MemoryStore) ListFilesByOwner(ownerID, search string) ([]domain.StudyFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	search = strings.ToLower(strings.TrimSpace(search))
	res := make([]domain.StudyFile, 0, len(m.fileOrder))
	for _, id := range m.fileOrder {
		f, ok := m.files[id]
		if !ok || f.OwnerID != ownerID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(f.Name), search) {
			continue
		}
		res = append(res, f)
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].UploadedAt.After(res[j].UploadedAt)
	})
	return res, nil
}

// SetFileStatus updates status and optional error message.
func (m *MemoryStore) SetFileStatus(id string, status domain.FileStatus, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return nil
	}
	f.Status = status
	f.ErrorMessage = errMsg
	f.UpdatedAt = time.Now().UTC()
	m.files[id] = f
	return nil
}

// SetFileText stores extracted text and marks the file ready.
func (m *MemoryStore) SetFileText(id, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return nil
	}
	f.ExtractedText = text
	f.Status = domain.StatusReady
	f.ErrorMessage = ""
	f.UpdatedAt = time.Now().UTC()
	m.files[id] = f
	return nil
}

// DeleteFile removes a file and its chat history.
func (m *MemoryStore) DeleteFile(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, id)
	delete(m.fileMsgs, id)
	m.fileOrder = removeID(m.fileOrder, id)
	return nil
}

// SaveTask stores or replaces a task.
func (m *MemoryStore) SaveTask(t domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tasks[t.ID]; !exists {
		m.taskOrder = append(m.taskOrder, t.ID)
	}
	m.tasks[t.ID] = t
	return nil
}

// GetTask retrieves a task by ID.
func (m *MemoryStore) GetTask(id string) (domain.Task, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	return t, ok, nil
}

// ListTasksByOwner returns tasks newest-first.
func (m *MemoryStore) ListTasksByOwner(ownerID string) ([]domain.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Task, 0, len(m.taskOrder))
	for _, id := range m.taskOrder {
		if t, ok := m.tasks[id]; ok && t.OwnerID == ownerID {
			res = append(res, t)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

// DeleteTask removes a task.
func (m *MemoryStore) DeleteTask(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, id)
	m.taskOrder = removeID(m.taskOrder, id)
	return nil
}

// SaveEvent stores or replaces an event.
func (m *MemoryStore) SaveEvent(e domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.events[e.ID]; !exists {
		m.eventOrder = append(m.eventOrder, e.ID)
	}
	m.events[e.ID] = e
	return nil
}

// ListEventsByOwner returns an owner's events sorted by deadline,
// restricted to the optional [from, to] range.
func (m *MemoryStore) ListEventsByOwner(ownerID string, from, to *time.Time) ([]domain.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Event, 0, len(m.eventOrder))
	for _, id := range m.eventOrder {
		e, ok := m.events[id]
		if !ok || e.OwnerID != ownerID {
			continue
		}
		if from != nil && e.Deadline.Before(*from) {
			continue
		}
		if to != nil && e.Deadline.After(*to) {
			continue
		}
		res = append(res, e)
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Deadline.Before(res[j].Deadline)
	})
	return res, nil
}

// ListExpiredEvents returns events across all owners whose deadline has passed.
func (m *MemoryStore) ListExpiredEvents(now time.Time) ([]domain.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Event, 0)
	for _, id := range m.eventOrder {
		if e, ok := m.events[id]; ok && !e.Deadline.After(now) {
			res = append(res, e)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Deadline.Before(res[j].Deadline)
	})
	return res, nil
}

// SaveAlert stores or replaces an alert.
func (m *MemoryStore) SaveAlert(a domain.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.alerts[a.ID]; !exists {
		m.alertOrder = append(m.alertOrder, a.ID)
	}
	m.alerts[a.ID] = a
	return nil
}

// GetAlert retrieves a stored alert by ID.
func (m *MemoryStore) GetAlert(id string) (domain.Alert, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.alerts[id]
	return a, ok, nil
}

// ListUnreadAlertsByOwner returns unread stored alerts newest-first.
func (m *MemoryStore) ListUnreadAlertsByOwner(ownerID string) ([]domain.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Alert, 0)
	for _, id := range m.alertOrder {
		if a, ok := m.alerts[id]; ok && a.OwnerID == ownerID && !a.Read {
			res = append(res, a)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

// HasAlertForEvent reports whether an alert was already raised for the event.
func (m *MemoryStore) HasAlertForEvent(eventID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.alerts {
		if a.EventID == eventID {
			return true, nil
		}
	}
	return false, nil
}

// CreateSession creates an assistant session record.
func (m *MemoryStore) CreateSession(s domain.ChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

// GetSession returns a session by ID.
func (m *MemoryStore) GetSession(id string) (domain.ChatSession, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok, nil
}

// ListSessionsByOwner returns an owner's sessions, most recent activity first.
func (m *MemoryStore) ListSessionsByOwner(ownerID string) ([]domain.ChatSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.ChatSession, 0)
	for _, s := range m.sessions {
		if s.OwnerID == ownerID {
			res = append(res, s)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return sessionActivity(res[i]).After(sessionActivity(res[j]))
	})
	return res, nil
}

// UpdateSession refreshes the title and last-message timestamp.
func (m *MemoryStore) UpdateSession(id, title string, lastMessageAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	if strings.TrimSpace(title) != "" {
		s.Title = strings.TrimSpace(title)
	}
	if !lastMessageAt.IsZero() {
		at := lastMessageAt.UTC()
		s.LastMessageAt = &at
	}
	s.UpdatedAt = time.Now().UTC()
	m.sessions[id] = s
	return nil
}

// DeleteSession removes a session and its messages.
func (m *MemoryStore) DeleteSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	delete(m.sessionMsgs, id)
	return nil
}

// AppendSessionMessage records an assistant message.
func (m *MemoryStore) AppendSessionMessage(sessionID string, msg domain.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.SessionID = sessionID
	m.sessionMsgs[sessionID] = append(m.sessionMsgs[sessionID], msg)
	return nil
}

// ListSessionMessages returns session messages in chronological order.
func (m *MemoryStore) ListSessionMessages(sessionID string) ([]domain.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.sessionMsgs[sessionID]
	res := make([]domain.ChatMessage, len(msgs))
	copy(res, msgs)
	return res, nil
}

// AppendFileMessage records a message linked to a vault file.
func (m *MemoryStore) AppendFileMessage(fileID string, msg domain.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.FileID = fileID
	m.fileMsgs[fileID] = append(m.fileMsgs[fileID], msg)
	return nil
}

// ListFileMessages returns per-file chat messages in chronological order.
func (m *MemoryStore) ListFileMessages(fileID string) ([]domain.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.fileMsgs[fileID]
	res := make([]domain.ChatMessage, len(msgs))
	copy(res, msgs)
	return res, nil
}

// ReplaceFileMessages replaces a file's chat history wholesale.
func (m *MemoryStore) ReplaceFileMessages(fileID string, msgs []domain.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	replaced := make([]domain.ChatMessage, 0, len(msgs))
	for _, msg := range msgs {
		msg.FileID = fileID
		replaced = append(replaced, msg)
	}
	m.fileMsgs[fileID] = replaced
	return nil
}

// SavePlan records a generated study plan.
func (m *MemoryStore) SavePlan(p domain.StudyPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans = append(m.plans, p)
	return nil
}

// Plans returns recorded study plans. Test helper.
func (m *MemoryStore) Plans() []domain.StudyPlan {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.StudyPlan, len(m.plans))
	copy(res, m.plans)
	return res
}

func sessionActivity(s domain.ChatSession) time.Time {
	if s.LastMessageAt != nil {
		return *s.LastMessageAt
	}
	return s.UpdatedAt
}

func removeID(ids []string, id string) []string {
	filtered := ids[:0]
	for _, item := range ids {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
