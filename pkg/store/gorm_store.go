package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/student3964/MindVault/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(
		&UserModel{}, &FileModel{}, &TaskModel{}, &EventModel{},
		&AlertModel{}, &SessionModel{}, &MessageModel{}, &PlanModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"first_name", "email", "password_hash"}),
	}).Create(&model).Error
}

// HasUserEmail checks if email exists.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// SaveFile stores or updates a vault file record.
func (s *GormStore) SaveFile(f domain.StudyFile) error {
	model := fileToModel(f)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "content_type", "size_bytes", "storage_key", "status", "error_message", "updated_at"}),
	}).Create(&model).Error
}

// GetFile retrieves a vault file.
func (s *GormStore) GetFile(id string) (domain.StudyFile, bool, error) {
	var model FileModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.StudyFile{}, false, nil
		}
		return domain.StudyFile{}, false, err
	}
	return fileFromModel(model), true, nil
}

// ListFilesByOwner returns files for an owner, optionally filtered by a
// case-insensitive name substring.
func (s *GormStore) ListFilesByOwner(ownerID, search string) ([]domain.StudyFile, error) {
	tx := s.db.Where("owner_id = ?", ownerID).Order("uploaded_at DESC")
	if search = strings.TrimSpace(search); search != "" {
		tx = tx.Where("name ILIKE ?", "%"+search+"%")
	}
	var models []FileModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.StudyFile, 0, len(models))
	for _, m := range models {
		res = append(res, fileFromModel(m))
	}
	return res, nil
}

// SetFileStatus updates file status/error.
func (s *GormStore) SetFileStatus(id string, status domain.FileStatus, errMsg string) error {
	return s.db.Model(&FileModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        string(status),
			"error_message": errMsg,
			"updated_at":    time.Now().UTC(),
		}).Error
}

// SetFileText stores extracted text and marks the file ready.
func (s *GormStore) SetFileText(id, text string) error {
	return s.db.Model(&FileModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"extracted_text": text,
			"status":         string(domain.StatusReady),
			"error_message":  "",
			"updated_at":     time.Now().UTC(),
		}).Error
}

// DeleteFile removes the file record together with its chat history.
func (s *GormStore) DeleteFile(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&MessageModel{}, "file_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&FileModel{}, "id = ?", id).Error
	})
}

// SaveTask stores or updates a planner task.
func (s *GormStore) SaveTask(t domain.Task) error {
	model := taskToModel(t)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "details", "done", "updated_at"}),
	}).Create(&model).Error
}

// GetTask retrieves a task.
func (s *GormStore) GetTask(id string) (domain.Task, bool, error) {
	var model TaskModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Task{}, false, nil
		}
		return domain.Task{}, false, err
	}
	return taskFromModel(model), true, nil
}

// ListTasksByOwner returns tasks newest-first.
func (s *GormStore) ListTasksByOwner(ownerID string) ([]domain.Task, error) {
	var models []TaskModel
	if err := s.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Task, 0, len(models))
	for _, m := range models {
		res = append(res, taskFromModel(m))
	}
	return res, nil
}

// DeleteTask removes a task.
func (s *GormStore) DeleteTask(id string) error {
	return s.db.Delete(&TaskModel{}, "id = ?", id).Error
}

// SaveEvent stores or updates a planner event.
func (s *GormStore) SaveEvent(e domain.Event) error {
	model := eventToModel(e)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "description", "deadline", "updated_at"}),
	}).Create(&model).Error
}

// ListEventsByOwner returns events for an owner within an optional deadline range.
func (s *GormStore) ListEventsByOwner(ownerID string, from, to *time.Time) ([]domain.Event, error) {
	tx := s.db.Where("owner_id = ?", ownerID).Order("deadline ASC")
	if from != nil {
		tx = tx.Where("deadline >= ?", from.UTC())
	}
	if to != nil {
		tx = tx.Where("deadline <= ?", to.UTC())
	}
	var models []EventModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Event, 0, len(models))
	for _, m := range models {
		res = append(res, eventFromModel(m))
	}
	return res, nil
}

// ListExpiredEvents returns events across all owners whose deadline has passed.
// Used by the deadline checker.
func (s *GormStore) ListExpiredEvents(now time.Time) ([]domain.Event, error) {
	var models []EventModel
	if err := s.db.Where("deadline <= ?", now.UTC()).Order("deadline ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Event, 0, len(models))
	for _, m := range models {
		res = append(res, eventFromModel(m))
	}
	return res, nil
}

// SaveAlert stores or updates an alert.
func (s *GormStore) SaveAlert(a domain.Alert) error {
	model := alertToModel(a)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"message", "read"}),
	}).Create(&model).Error
}

// GetAlert retrieves a stored alert.
func (s *GormStore) GetAlert(id string) (domain.Alert, bool, error) {
	var model AlertModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Alert{}, false, nil
		}
		return domain.Alert{}, false, err
	}
	return alertFromModel(model), true, nil
}

// ListUnreadAlertsByOwner returns unread stored alerts newest-first.
func (s *GormStore) ListUnreadAlertsByOwner(ownerID string) ([]domain.Alert, error) {
	var models []AlertModel
	if err := s.db.Where("owner_id = ? AND read = ?", ownerID, false).
		Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Alert, 0, len(models))
	for _, m := range models {
		res = append(res, alertFromModel(m))
	}
	return res, nil
}

// HasAlertForEvent reports whether an alert was already raised for the event.
func (s *GormStore) HasAlertForEvent(eventID string) (bool, error) {
	var count int64
	if err := s.db.Model(&AlertModel{}).Where("event_id = ?", eventID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateSession creates a new VaultAI session record.
func (s *GormStore) CreateSession(session domain.ChatSession) error {
	model := sessionToModel(session)
	return s.db.Create(&model).Error
}

// GetSession returns one session by ID.
func (s *GormStore) GetSession(id string) (domain.ChatSession, bool, error) {
	var model SessionModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.ChatSession{}, false, nil
		}
		return domain.ChatSession{}, false, err
	}
	return sessionFromModel(model), true, nil
}

// ListSessionsByOwner returns the owner's sessions, most recent first.
func (s *GormStore) ListSessionsByOwner(ownerID string) ([]domain.ChatSession, error) {
	var models []SessionModel
	if err := s.db.Where("owner_id = ?", ownerID).
		Order("last_message_at DESC NULLS LAST").
		Order("updated_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.ChatSession, 0, len(models))
	for _, m := range models {
		res = append(res, sessionFromModel(m))
	}
	return res, nil
}

// UpdateSession refreshes title and last-message timestamp.
func (s *GormStore) UpdateSession(id, title string, lastMessageAt time.Time) error {
	updates := map[string]any{
		"updated_at": time.Now().UTC(),
	}
	if strings.TrimSpace(title) != "" {
		updates["title"] = strings.TrimSpace(title)
	}
	if !lastMessageAt.IsZero() {
		updates["last_message_at"] = lastMessageAt.UTC()
	}
	return s.db.Model(&SessionModel{}).Where("id = ?", id).Updates(updates).Error
}

// DeleteSession removes a session and its messages.
func (s *GormStore) DeleteSession(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&MessageModel{}, "session_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&SessionModel{}, "id = ?", id).Error
	})
}

// AppendSessionMessage records a VaultAI message.
func (s *GormStore) AppendSessionMessage(sessionID string, msg domain.ChatMessage) error {
	model := messageToModel(msg)
	model.SessionID = &sessionID
	return s.db.Create(&model).Error
}

// ListSessionMessages returns session messages in chronological order.
func (s *GormStore) ListSessionMessages(sessionID string) ([]domain.ChatMessage, error) {
	var models []MessageModel
	if err := s.db.Where("session_id = ?", sessionID).
		Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	msgs := make([]domain.ChatMessage, 0, len(models))
	for _, m := range models {
		msgs = append(msgs, messageFromModel(m))
	}
	return msgs, nil
}

// AppendFileMessage records a per-file chat message.
func (s *GormStore) AppendFileMessage(fileID string, msg domain.ChatMessage) error {
	model := messageToModel(msg)
	model.FileID = &fileID
	return s.db.Create(&model).Error
}

// ListFileMessages returns per-file chat messages in chronological order.
func (s *GormStore) ListFileMessages(fileID string) ([]domain.ChatMessage, error) {
	var models []MessageModel
	if err := s.db.Where("file_id = ?", fileID).
		Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	msgs := make([]domain.ChatMessage, 0, len(models))
	for _, m := range models {
		msgs = append(msgs, messageFromModel(m))
	}
	return msgs, nil
}

// ReplaceFileMessages replaces a file's chat history wholesale.
func (s *GormStore) ReplaceFileMessages(fileID string, msgs []domain.ChatMessage) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&MessageModel{}, "file_id = ?", fileID).Error; err != nil {
			return err
		}
		if len(msgs) == 0 {
			return nil
		}
		models := make([]MessageModel, 0, len(msgs))
		for _, msg := range msgs {
			model := messageToModel(msg)
			id := fileID
			model.FileID = &id
			models = append(models, model)
		}
		return tx.CreateInBatches(&models, 200).Error
	})
}

// SavePlan records a generated study plan.
func (s *GormStore) SavePlan(p domain.StudyPlan) error {
	model := planToModel(p)
	return s.db.Create(&model).Error
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		FirstName:    u.FirstName,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		FirstName:    m.FirstName,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}
}

func fileToModel(f domain.StudyFile) FileModel {
	return FileModel{
		ID:            f.ID,
		OwnerID:       f.OwnerID,
		Name:          f.Name,
		ContentType:   f.ContentType,
		SizeBytes:     f.SizeBytes,
		StorageKey:    f.StorageKey,
		Status:        string(f.Status),
		ErrorMessage:  f.ErrorMessage,
		ExtractedText: f.ExtractedText,
		UploadedAt:    f.UploadedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

func fileFromModel(m FileModel) domain.StudyFile {
	return domain.StudyFile{
		ID:            m.ID,
		OwnerID:       m.OwnerID,
		Name:          m.Name,
		ContentType:   m.ContentType,
		SizeBytes:     m.SizeBytes,
		StorageKey:    m.StorageKey,
		Status:        domain.FileStatus(m.Status),
		ErrorMessage:  m.ErrorMessage,
		ExtractedText: m.ExtractedText,
		UploadedAt:    m.UploadedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func taskToModel(t domain.Task) TaskModel {
	return TaskModel{
		ID:        t.ID,
		OwnerID:   t.OwnerID,
		Title:     t.Title,
		Details:   t.Details,
		Done:      t.Done,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func taskFromModel(m TaskModel) domain.Task {
	return domain.Task{
		ID:        m.ID,
		OwnerID:   m.OwnerID,
		Title:     m.Title,
		Details:   m.Details,
		Done:      m.Done,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func eventToModel(e domain.Event) EventModel {
	return EventModel{
		ID:          e.ID,
		OwnerID:     e.OwnerID,
		Title:       e.Title,
		Description: e.Description,
		Deadline:    e.Deadline,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func eventFromModel(m EventModel) domain.Event {
	return domain.Event{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Title:       m.Title,
		Description: m.Description,
		Deadline:    m.Deadline,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func alertToModel(a domain.Alert) AlertModel {
	return AlertModel{
		ID:        a.ID,
		OwnerID:   a.OwnerID,
		Message:   a.Message,
		EventID:   a.EventID,
		Read:      a.Read,
		CreatedAt: a.CreatedAt,
	}
}

func alertFromModel(m AlertModel) domain.Alert {
	return domain.Alert{
		ID:        m.ID,
		OwnerID:   m.OwnerID,
		Message:   m.Message,
		EventID:   m.EventID,
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
	}
}

func sessionToModel(s domain.ChatSession) SessionModel {
	return SessionModel{
		ID:            s.ID,
		OwnerID:       s.OwnerID,
		Title:         s.Title,
		LastMessageAt: s.LastMessageAt,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func sessionFromModel(m SessionModel) domain.ChatSession {
	return domain.ChatSession{
		ID:            m.ID,
		OwnerID:       m.OwnerID,
		Title:         m.Title,
		LastMessageAt: m.LastMessageAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func messageToModel(msg domain.ChatMessage) MessageModel {
	return MessageModel{
		ID:        msg.ID,
		OwnerID:   msg.OwnerID,
		Role:      msg.Role,
		Content:   msg.Message,
		CreatedAt: msg.CreatedAt,
	}
}

func messageFromModel(m MessageModel) domain.ChatMessage {
	msg := domain.ChatMessage{
		ID:        m.ID,
		OwnerID:   m.OwnerID,
		Role:      m.Role,
		Message:   m.Content,
		CreatedAt: m.CreatedAt,
	}
	if m.SessionID != nil {
		msg.SessionID = *m.SessionID
	}
	if m.FileID != nil {
		msg.FileID = *m.FileID
	}
	return msg
}

func planToModel(p domain.StudyPlan) PlanModel {
	inputs, _ := json.Marshal(p.Inputs)
	return PlanModel{
		ID:        p.ID,
		OwnerID:   p.OwnerID,
		Prompt:    p.Prompt,
		PlanText:  p.PlanText,
		Inputs:    datatypes.JSON(inputs),
		CreatedAt: p.CreatedAt,
	}
}
