package storage

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	ctx := context.Background()

	body := "chapter one text"
	if err := s.Put(ctx, "u1/f1/notes.txt", strings.NewReader(body), int64(len(body)), "text/plain"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	rc, err := s.Get(ctx, "u1/f1/notes.txt")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != body {
		t.Fatalf("content = %q, want %q", got, body)
	}

	if err := s.Delete(ctx, "u1/f1/notes.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "u1/f1/notes.txt"); err == nil {
		t.Fatal("Get succeeded after delete")
	}
	// Deleting a missing key is not an error.
	if err := s.Delete(ctx, "u1/f1/notes.txt"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestLocalStorePathTraversal(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	ctx := context.Background()

	body := "x"
	if err := s.Put(ctx, "../../etc/passwd", strings.NewReader(body), 1, "text/plain"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	// The traversal segments must be stripped, keeping the write inside dir.
	if !strings.HasPrefix(s.path("../../etc/passwd"), dir) {
		t.Fatalf("path escaped base dir: %s", s.path("../../etc/passwd"))
	}
}
