package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/student3964/MindVault/internal/app"
	"github.com/student3964/MindVault/pkg/auth"
	"github.com/student3964/MindVault/pkg/domain"
	"github.com/student3964/MindVault/pkg/queue"
	"github.com/student3964/MindVault/pkg/storage"
	"github.com/student3964/MindVault/pkg/store"
)

// fakeGenerator returns a canned response for every AI call.
type fakeGenerator struct {
	response string
	err      error
}

func (f *fakeGenerator) GenerateText(_ context.Context, _, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

// fakeQueue records enqueued file IDs instead of hitting Redis streams.
type fakeQueue struct {
	fileIDs []string
}

func (f *fakeQueue) Enqueue(_ context.Context, fileID string) (queue.JobStatus, error) {
	f.fileIDs = append(f.fileIDs, fileID)
	return queue.JobStatus{FileID: fileID, Status: queue.StatusQueued}, nil
}

type testServer struct {
	url   string
	store *store.MemoryStore
	gen   *fakeGenerator
	queue *fakeQueue
}

func newTestServer(t *testing.T, cfg Config) *testServer {
	t.Helper()
	redis := miniredis.RunT(t)

	st := store.NewMemoryStore()
	objects, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	tokens, err := auth.NewTokenManager("test-secret-0123456789", 0, "")
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}
	gen := &fakeGenerator{response: "generated text"}
	q := &fakeQueue{}
	a, err := app.New(app.Config{
		Store:     st,
		Objects:   objects,
		Generator: gen,
		Queue:     q,
		Tokens:    tokens,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	cfg.App = a
	cfg.RedisAddr = redis.Addr()
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testServer{url: ts.URL, store: st, gen: gen, queue: q}
}

// doJSON issues a request with an optional JSON body and bearer token, and
// decodes the JSON response into out when out is non-nil.
func doJSON(t *testing.T, method, url, token string, body any, out any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, url, err)
		}
	}
	return resp
}

// registerAndLogin creates an account through the API and returns its token.
func registerAndLogin(t *testing.T, ts *testServer, firstName, email string) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, ts.url+"/api/auth/register", "", map[string]string{
		"firstName": firstName,
		"email":     email,
		"password":  "hunter2hunter2",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s expected 201, got %d", email, resp.StatusCode)
	}
	var login struct {
		Token string `json:"token"`
	}
	resp = doJSON(t, http.MethodPost, ts.url+"/api/auth/login", "", map[string]string{
		"email":    email,
		"password": "hunter2hunter2",
	}, &login)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s expected 200, got %d", email, resp.StatusCode)
	}
	if login.Token == "" {
		t.Fatalf("login %s returned empty token", email)
	}
	return login.Token
}

// uploadFile posts a multipart upload and returns the created file metadata.
func uploadFile(t *testing.T, ts *testServer, token, name, content string) domain.StudyFile {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := io.WriteString(part, content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, ts.url+"/api/upload", &buf)
	if err != nil {
		t.Fatalf("new upload request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload expected 201, got %d", resp.StatusCode)
	}
	var file domain.StudyFile
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return file
}
