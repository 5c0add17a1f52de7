package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/student3964/MindVault/pkg/auth"
	"github.com/student3964/MindVault/pkg/domain"
	"github.com/student3964/MindVault/pkg/queue"
	"github.com/student3964/MindVault/pkg/storage"
	"github.com/student3964/MindVault/pkg/store"
)

// fakeGenerator returns canned responses and records prompts.
type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeGenerator) GenerateText(_ context.Context, _, userPrompt string) (string, error) {
	f.prompts = append(f.prompts, userPrompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

// fakeQueue records enqueued file IDs.
type fakeQueue struct {
	fileIDs []string
	err     error
}

func (f *fakeQueue) Enqueue(_ context.Context, fileID string) (queue.JobStatus, error) {
	if f.err != nil {
		return queue.JobStatus{}, f.err
	}
	f.fileIDs = append(f.fileIDs, fileID)
	return queue.JobStatus{ID: "job-" + fileID, FileID: fileID, Status: queue.StatusQueued}, nil
}

type testEnv struct {
	app   *App
	store *store.MemoryStore
	gen   *fakeGenerator
	queue *fakeQueue
}

func newTestApp(t *testing.T) *testEnv {
	t.Helper()
	st := store.NewMemoryStore()
	objects, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	tokens, err := auth.NewTokenManager("test-secret-0123456789", 5*time.Hour, "")
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	gen := &fakeGenerator{response: "generated text"}
	q := &fakeQueue{}
	a, err := New(Config{
		Store:     st,
		Objects:   objects,
		Generator: gen,
		Queue:     q,
		Tokens:    tokens,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return &testEnv{app: a, store: st, gen: gen, queue: q}
}

func registerUser(t *testing.T, a *App, firstName, email string) domain.User {
	t.Helper()
	user, err := a.Register(firstName, email, "hunter2hunter2")
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return user
}

func readyFile(t *testing.T, env *testEnv, owner domain.User, name, text string) domain.StudyFile {
	t.Helper()
	file, err := env.app.UploadFile(context.Background(), owner, name, "text/plain", strings.NewReader(text), int64(len(text)))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := env.store.SetFileText(file.ID, text); err != nil {
		t.Fatalf("set text: %v", err)
	}
	file, _, _ = env.store.GetFile(file.ID)
	return file
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestApp(t)
	registerUser(t, env.app, "Ada", "ada@example.com")

	_, err := env.app.Register("Ada Again", "ADA@example.com", "hunter2hunter2")
	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("err = %v, want ErrEmailAlreadyExists", err)
	}
}

func TestLoginAndTokenRoundTrip(t *testing.T) {
	env := newTestApp(t)
	registerUser(t, env.app, "Ada", "ada@example.com")

	user, token, err := env.app.Login("ada@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	got, ok := env.app.UserFromToken(token)
	if !ok || got.ID != user.ID {
		t.Fatalf("UserFromToken = %+v, %v", got, ok)
	}

	if _, _, err := env.app.Login("ada@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, _, err := env.app.Login("nobody@example.com", "hunter2hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user err = %v", err)
	}
}

func TestTasksAreOwnerScoped(t *testing.T) {
	env := newTestApp(t)
	alice := registerUser(t, env.app, "Alice", "alice@example.com")
	bob := registerUser(t, env.app, "Bob", "bob@example.com")

	task, err := env.app.CreateTask(alice, "Revise algebra", "chapters 1-3")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	aliceTasks, _ := env.app.ListTasks(alice)
	if len(aliceTasks) != 1 || aliceTasks[0].ID != task.ID {
		t.Fatalf("alice tasks = %v", aliceTasks)
	}
	bobTasks, _ := env.app.ListTasks(bob)
	if len(bobTasks) != 0 {
		t.Fatalf("bob sees alice's tasks: %v", bobTasks)
	}

	// Other owner cannot touch the task.
	if _, err := env.app.UpdateTask(bob, task.ID, TaskPatch{Done: boolPtr(true)}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-owner update err = %v", err)
	}
	if err := env.app.DeleteTask(bob, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-owner delete err = %v", err)
	}
}

func TestToggleTaskDoneTwiceRestores(t *testing.T) {
	env := newTestApp(t)
	user := registerUser(t, env.app, "Ada", "ada@example.com")
	task, err := env.app.CreateTask(user, "Read notes", "")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	flipped, err := env.app.UpdateTask(user, task.ID, TaskPatch{Done: boolPtr(!task.Done)})
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	restored, err := env.app.UpdateTask(user, task.ID, TaskPatch{Done: boolPtr(!flipped.Done)})
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if restored.Done != task.Done {
		t.Fatalf("done = %v after double toggle, want %v", restored.Done, task.Done)
	}
}

func TestUploadQueuesExtraction(t *testing.T) {
	env := newTestApp(t)
	user := registerUser(t, env.app, "Ada", "ada@example.com")

	file, err := env.app.UploadFile(context.Background(), user, "notes.txt", "text/plain", strings.NewReader("abc"), 3)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if file.Status != domain.StatusQueued {
		t.Fatalf("status = %q, want queued", file.Status)
	}
	if len(env.queue.fileIDs) != 1 || env.queue.fileIDs[0] != file.ID {
		t.Fatalf("queued ids = %v", env.queue.fileIDs)
	}

	_, err = env.app.UploadFile(context.Background(), user, "virus.exe", "application/octet-stream", strings.NewReader("x"), 1)
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("exe upload err = %v", err)
	}
}

func TestDeleteFileRemovesEverything(t *testing.T) {
	env := newTestApp(t)
	user := registerUser(t, env.app, "Ada", "ada@example.com")
	file := readyFile(t, env, user, "notes.txt", "cell biology")

	if err := env.app.SaveFileChat(user, file.ID, []domain.ChatMessage{{Role: "user", Message: "hi"}}); err != nil {
		t.Fatalf("save chat: %v", err)
	}

	if err := env.app.DeleteFile(context.Background(), user, file.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	files, _ := env.app.ListFiles(user, "")
	if len(files) != 0 {
		t.Fatalf("file still listed: %v", files)
	}
	if _, _, err := env.app.FileContent(context.Background(), user, file.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("content after delete err = %v", err)
	}
	msgs, _ := env.store.ListFileMessages(file.ID)
	if len(msgs) != 0 {
		t.Fatalf("chat history survived delete: %v", msgs)
	}
}

func TestFileContentOwnership(t *testing.T) {
	env := newTestApp(t)
	alice := registerUser(t, env.app, "Alice", "alice@example.com")
	bob := registerUser(t, env.app, "Bob", "bob@example.com")
	file := readyFile(t, env, alice, "notes.txt", "secret notes")

	if _, _, err := env.app.FileContent(context.Background(), bob, file.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cross-owner content err = %v", err)
	}
}

func TestSummarizeRequiresReadyFile(t *testing.T) {
	env := newTestApp(t)
	user := registerUser(t, env.app, "Ada", "ada@example.com")

	file, err := env.app.UploadFile(context.Background(), user, "notes.txt", "text/plain", strings.NewReader("abc"), 3)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, err := env.app.Summarize(context.Background(), user, file.ID); !errors.Is(err, ErrFileNotReady) {
		t.Fatalf("summarize queued file err = %v", err)
	}

	if err := env.store.SetFileText(file.ID, "the mitochondria is the powerhouse"); err != nil {
		t.Fatalf("set text: %v", err)
	}
	env.gen.response = "A fine summary."
	summary, err := env.app.Summarize(context.Background(), user, file.ID)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary != "A fine summary." {
		t.Fatalf("summary = %q", summary)
	}
	if !strings.Contains(env.gen.prompts[len(env.gen.prompts)-1], "mitochondria") {
		t.Fatal("extracted text not passed to generator")
	}
}

func TestGenerateMCQsParsesFencedJSON(t *testing.T) {
	env := newTestApp(t)
	user := registerUser(t, env.app, "Ada", "ada@example.com")
	file := readyFile(t, env, user, "notes.txt", "photosynthesis")

	env.gen.response = "```json\n[{\"question\":\"What do plants use?\"," +
		"\"options\":[\"Light\",\"Dark\",\"Sound\",\"Heat\"],\"correctAnswer\":\"Light\"}]\n```"
	mcqs, err := env.app.GenerateMCQs(context.Background(), user, file.ID)
	if err != nil {
		t.Fatalf("mcqs: %v", err)
	}
	if len(mcqs) != 1 || mcqs[0].CorrectAnswer != "Light" || len(mcqs[0].Options) != 4 {
		t.Fatalf("mcqs = %+v", mcqs)
	}

	env.gen.response = "sorry, I cannot"
	if _, err := env.app.GenerateMCQs(context.Background(), user, file.ID); err == nil {
		t.Fatal("expected parse error for non-JSON response")
	}
}

func TestFileChatAppendsBothTurns(t *testing.T) {
	env := newTestApp(t)
	user := registerUser(t, env.app, "Ada", "ada@example.com")
	file := readyFile(t, env, user, "notes.txt", "the water cycle")

	env.gen.response = "Evaporation, condensation, precipitation."
	resp, err := env.app.AskFileChat(context.Background(), user, file.ID, "Explain the water cycle")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if resp != "Evaporation, condensation, precipitation." {
		t.Fatalf("response = %q", resp)
	}

	msgs, err := env.app.FileChatHistory(user, file.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Fatalf("history = %+v", msgs)
	}
}

func TestSaveFileChatReplacesHistory(t *testing.T) {
	env := newTestApp(t)
	user := registerUser(t, env.app, "Ada", "ada@example.com")
	file := readyFile(t, env, user, "notes.txt", "content")

	first := []domain.ChatMessage{
		{Role: "user", Message: "one"},
		{Role: "assistant", Message: "two"},
	}
	if err := env.app.SaveFileChat(user, file.ID, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := []domain.ChatMessage{{Role: "user", Message: "only"}}
	if err := env.app.SaveFileChat(user, file.ID, second); err != nil {
		t.Fatalf("save again: %v", err)
	}

	msgs, _ := env.app.FileChatHistory(user, file.ID)
	if len(msgs) != 1 || msgs[0].Message != "only" {
		t.Fatalf("history = %+v", msgs)
	}

	if err := env.app.SaveFileChat(user, file.ID, []domain.ChatMessage{{Role: "robot", Message: "x"}}); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad role err = %v", err)
	}
}

func TestAssistantSessionFlow(t *testing.T) {
	env := newTestApp(t)
	user := registerUser(t, env.app, "Ada", "ada@example.com")

	session, err := env.app.NewAssistantSession(user)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	env.gen.response = "Start with limits."
	if _, err := env.app.AskAssistant(context.Background(), user, session.ID, "How do I learn calculus? I have two weeks."); err != nil {
		t.Fatalf("first ask: %v", err)
	}
	env.gen.response = "Then derivatives."
	if _, err := env.app.AskAssistant(context.Background(), user, session.ID, "What next?"); err != nil {
		t.Fatalf("second ask: %v", err)
	}

	msgs, err := env.app.AssistantHistory(user, session.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4", len(msgs))
	}
	wantRoles := []string{"user", "assistant", "user", "assistant"}
	for i, role := range wantRoles {
		if msgs[i].Role != role {
			t.Fatalf("msg %d role = %q, want %q", i, msgs[i].Role, role)
		}
	}

	// First prompt becomes the title.
	sessions, _ := env.app.ListAssistantSessions(user)
	if len(sessions) != 1 || !strings.HasPrefix(sessions[0].Title, "How do I learn calculus?") {
		t.Fatalf("sessions = %+v", sessions)
	}

	if err := env.app.DeleteAssistantSession(user, session.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := env.app.AssistantHistory(user, session.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("history after delete err = %v", err)
	}
}

func TestAssistantSessionOwnership(t *testing.T) {
	env := newTestApp(t)
	alice := registerUser(t, env.app, "Alice", "alice@example.com")
	bob := registerUser(t, env.app, "Bob", "bob@example.com")

	session, _ := env.app.NewAssistantSession(alice)
	if _, err := env.app.AskAssistant(context.Background(), bob, session.ID, "hi"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cross-owner ask err = %v", err)
	}
}

func boolPtr(b bool) *bool { return &b }
