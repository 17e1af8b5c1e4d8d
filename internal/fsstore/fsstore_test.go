package fsstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

type snapshotFile struct {
	Version int            `json:"version"`
	Names   map[string]int `json:"names"`
}

func TestWriteJSONAtomic_ReadBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "state.json")

	in := snapshotFile{Version: 1, Names: map[string]int{"a": 1, "b": 2}}
	if err := WriteJSONAtomic(path, in, FileOptions{}); err != nil {
		t.Fatalf("WriteJSONAtomic() error = %v", err)
	}

	var out snapshotFile
	ok, err := ReadJSON(path, &out)
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if !ok {
		t.Fatalf("ReadJSON() ok = false, want true")
	}
	if out.Version != in.Version || len(out.Names) != len(in.Names) {
		t.Fatalf("round trip mismatch: got=%+v want=%+v", out, in)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("file perm = %v, want 0600", info.Mode().Perm())
	}
}

func TestReadJSON_MissingFile(t *testing.T) {
	var out snapshotFile
	ok, err := ReadJSON(filepath.Join(t.TempDir(), "missing.json"), &out)
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if ok {
		t.Fatalf("ReadJSON() ok = true, want false")
	}
}

func TestReadJSON_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	var out snapshotFile
	if _, err := ReadJSON(path, &out); err == nil {
		t.Fatalf("ReadJSON() error = nil, want decode error")
	}
}

func TestBuildLockPath_RejectsInvalidKey(t *testing.T) {
	cases := []struct {
		key string
	}{
		{key: ""},
		{key: "Upper"},
		{key: "has space"},
	}
	for _, tc := range cases {
		if _, err := BuildLockPath(t.TempDir(), tc.key); err == nil {
			t.Fatalf("BuildLockPath(%q) error = nil, want invalid key", tc.key)
		}
	}
}

func TestWithLock_RunsFn(t *testing.T) {
	lockPath, err := BuildLockPath(filepath.Join(t.TempDir(), ".fslocks"), "state.main")
	if err != nil {
		t.Fatalf("BuildLockPath() error = %v", err)
	}
	ran := false
	if err := WithLock(context.Background(), lockPath, func() error {
		ran = true
		return nil
	}); err != nil {
		t.Fatalf("WithLock() error = %v", err)
	}
	if !ran {
		t.Fatalf("WithLock() did not run fn")
	}
}
