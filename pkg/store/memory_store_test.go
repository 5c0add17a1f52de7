package store

import (
	"testing"
	"time"

	"github.com/student3964/MindVault/pkg/domain"
)

func TestMemoryStoreFileLifecycle(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now().UTC()
	file := domain.StudyFile{
		ID:         "f1",
		OwnerID:    "u1",
		Name:       "Calculus Notes.pdf",
		Status:     domain.StatusQueued,
		UploadedAt: now,
		UpdatedAt:  now,
	}
	if err := s.SaveFile(file); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	got, ok, err := s.GetFile("f1")
	if err != nil || !ok {
		t.Fatalf("GetFile: ok=%v err=%v", ok, err)
	}
	if got.Status != domain.StatusQueued {
		t.Fatalf("status = %q, want queued", got.Status)
	}

	if err := s.SetFileText("f1", "limits and derivatives"); err != nil {
		t.Fatalf("SetFileText: %v", err)
	}
	got, _, _ = s.GetFile("f1")
	if got.Status != domain.StatusReady {
		t.Fatalf("status after text = %q, want ready", got.Status)
	}
	if got.ExtractedText != "limits and derivatives" {
		t.Fatalf("extracted text = %q", got.ExtractedText)
	}

	if err := s.DeleteFile("f1"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if _, ok, _ := s.GetFile("f1"); ok {
		t.Fatal("file still present after delete")
	}
}

func TestMemoryStoreListFilesSearch(t *testing.T) {
	s := NewMemoryStore()
	base := time.Now().UTC()
	for i, name := range []string{"Biology Ch1.pdf", "biology ch2.pdf", "History.txt"} {
		s.SaveFile(domain.StudyFile{
			ID:         name,
			OwnerID:    "u1",
			Name:       name,
			UploadedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	s.SaveFile(domain.StudyFile{ID: "other", OwnerID: "u2", Name: "Biology.pdf", UploadedAt: base})

	files, err := s.ListFilesByOwner("u1", "biology")
	if err != nil {
		t.Fatalf("ListFilesByOwner: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	if !files[0].UploadedAt.After(files[1].UploadedAt) {
		t.Fatal("files not sorted newest-first")
	}
	for _, f := range files {
		if f.OwnerID != "u1" {
			t.Fatalf("file %q leaked from another owner", f.Name)
		}
	}
}

func TestMemoryStoreEventsRangeAndExpiry(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now().UTC()
	s.SaveEvent(domain.Event{ID: "past", OwnerID: "u1", Title: "Quiz", Deadline: now.Add(-time.Hour)})
	s.SaveEvent(domain.Event{ID: "soon", OwnerID: "u1", Title: "Exam", Deadline: now.Add(24 * time.Hour)})
	s.SaveEvent(domain.Event{ID: "far", OwnerID: "u1", Title: "Final", Deadline: now.Add(30 * 24 * time.Hour)})

	from := now
	to := now.Add(48 * time.Hour)
	events, err := s.ListEventsByOwner("u1", &from, &to)
	if err != nil {
		t.Fatalf("ListEventsByOwner: %v", err)
	}
	if len(events) != 1 || events[0].ID != "soon" {
		t.Fatalf("range query returned %v", events)
	}

	expired, err := s.ListExpiredEvents(now)
	if err != nil {
		t.Fatalf("ListExpiredEvents: %v", err)
	}
	if len(expired) != 1 || expired[0].ID != "past" {
		t.Fatalf("expired query returned %v", expired)
	}
}

func TestMemoryStoreAlertDedup(t *testing.T) {
	s := NewMemoryStore()
	s.SaveAlert(domain.Alert{ID: "a1", OwnerID: "u1", EventID: "ev1", Message: "Quiz has passed"})

	ok, err := s.HasAlertForEvent("ev1")
	if err != nil || !ok {
		t.Fatalf("HasAlertForEvent(ev1) = %v, %v", ok, err)
	}
	ok, _ = s.HasAlertForEvent("ev2")
	if ok {
		t.Fatal("HasAlertForEvent reported alert for unknown event")
	}
}

func TestMemoryStoreUnreadAlerts(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now().UTC()
	s.SaveAlert(domain.Alert{ID: "a1", OwnerID: "u1", Message: "old", CreatedAt: now.Add(-time.Hour)})
	s.SaveAlert(domain.Alert{ID: "a2", OwnerID: "u1", Message: "new", CreatedAt: now})
	s.SaveAlert(domain.Alert{ID: "a3", OwnerID: "u1", Message: "seen", Read: true, CreatedAt: now})

	alerts, err := s.ListUnreadAlertsByOwner("u1")
	if err != nil {
		t.Fatalf("ListUnreadAlertsByOwner: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("got %d alerts, want 2", len(alerts))
	}
	if alerts[0].Message != "new" {
		t.Fatalf("alerts not newest-first: %v", alerts)
	}

	// Mark read and confirm it drops out.
	a, _, _ := s.GetAlert("a2")
	a.Read = true
	s.SaveAlert(a)
	alerts, _ = s.ListUnreadAlertsByOwner("u1")
	if len(alerts) != 1 || alerts[0].ID != "a1" {
		t.Fatalf("after marking read: %v", alerts)
	}
}

func TestMemoryStoreReplaceFileMessages(t *testing.T) {
	s := NewMemoryStore()
	s.AppendFileMessage("f1", domain.ChatMessage{Role: "user", Message: "What is osmosis?"})
	s.AppendFileMessage("f1", domain.ChatMessage{Role: "assistant", Message: "Movement of water."})

	replacement := []domain.ChatMessage{
		{Role: "user", Message: "Summarize chapter 2."},
	}
	if err := s.ReplaceFileMessages("f1", replacement); err != nil {
		t.Fatalf("ReplaceFileMessages: %v", err)
	}
	msgs, _ := s.ListFileMessages("f1")
	if len(msgs) != 1 || msgs[0].Message != "Summarize chapter 2." {
		t.Fatalf("history not replaced: %v", msgs)
	}
	if msgs[0].FileID != "f1" {
		t.Fatalf("file ID not stamped on replaced message: %q", msgs[0].FileID)
	}
}

func TestMemoryStoreSessionOrdering(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now().UTC()
	s.CreateSession(domain.ChatSession{ID: "s1", OwnerID: "u1", Title: "New chat", CreatedAt: now, UpdatedAt: now})
	s.CreateSession(domain.ChatSession{ID: "s2", OwnerID: "u1", Title: "New chat", CreatedAt: now, UpdatedAt: now})

	s.UpdateSession("s1", "Thermodynamics help", now.Add(time.Minute))

	sessions, err := s.ListSessionsByOwner("u1")
	if err != nil {
		t.Fatalf("ListSessionsByOwner: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].ID != "s1" {
		t.Fatalf("most recently active session not first: %v", sessions)
	}
	if sessions[0].Title != "Thermodynamics help" {
		t.Fatalf("title not updated: %q", sessions[0].Title)
	}

	if err := s.DeleteSession("s1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, ok, _ := s.GetSession("s1"); ok {
		t.Fatal("session still present after delete")
	}
}
