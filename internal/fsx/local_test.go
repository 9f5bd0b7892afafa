package fsx

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestLocal_ListSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"a.txt", "b.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	files, err := NewLocal().List(context.Background(), dir)
	if err != nil {
		t.Fatalf("List() err=%v", err)
	}
	if len(files) != 2 {
		t.Fatalf("List()=%v, want 2 files", files)
	}
}

func TestLocal_WalkIsRecursive(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "x", "y")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(nested, "deep.txt"), []byte("d"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "top.txt"), []byte("t"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	files, err := NewLocal().Walk(context.Background(), dir)
	if err != nil {
		t.Fatalf("Walk() err=%v", err)
	}
	if len(files) != 2 {
		t.Fatalf("Walk()=%v, want 2 files", files)
	}
}

func TestLocal_OpenAndExists(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(name, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	l := NewLocal()
	ok, err := l.Exists(context.Background(), name)
	if err != nil || !ok {
		t.Fatalf("Exists()=%v err=%v, want true", ok, err)
	}
	ok, err = l.Exists(context.Background(), filepath.Join(dir, "absent"))
	if err != nil || ok {
		t.Fatalf("Exists()=%v err=%v, want false without error", ok, err)
	}

	rc, err := l.Open(context.Background(), name)
	if err != nil {
		t.Fatalf("Open() err=%v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil || string(data) != "payload" {
		t.Fatalf("read %q err=%v", data, err)
	}
}

func TestLocal_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLocal().List(ctx, t.TempDir()); err == nil {
		t.Fatal("List() ignored a cancelled context")
	}
}
