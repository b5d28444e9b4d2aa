package store

import (
	"path/filepath"
	"reflect"
	"testing"
)

// kvContract exercises the KV behavior every driver must share.
func kvContract(t *testing.T, kv KV) {
	t.Helper()

	// Absent key reads as (nil, nil).
	v, err := kv.Get("missing")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if v != nil {
		t.Fatalf("expected nil for absent key, got %q", v)
	}

	if err := kv.Set("highlights/book1", []byte(`["a"]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Set("highlights/book2", []byte(`["b"]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Set("notes/book1", []byte(`["c"]`)); err != nil {
		t.Fatalf("set: %v", err)
	}

	v, err = kv.Get("highlights/book1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(v) != `["a"]` {
		t.Errorf("expected value round trip, got %q", v)
	}

	// Overwrite.
	if err := kv.Set("highlights/book1", []byte(`["a2"]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v, _ := kv.Get("highlights/book1"); string(v) != `["a2"]` {
		t.Errorf("expected overwritten value, got %q", v)
	}

	keys, err := kv.ListKeys("highlights/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if want := []string{"highlights/book1", "highlights/book2"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("expected %v, got %v", want, keys)
	}

	if err := kv.Delete("highlights/book1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if v, _ := kv.Get("highlights/book1"); v != nil {
		t.Errorf("expected deleted key absent, got %q", v)
	}
	// Deleting an absent key is not an error.
	if err := kv.Delete("highlights/book1"); err != nil {
		t.Errorf("expected idempotent delete, got %v", err)
	}
}

func TestMemory_Contract(t *testing.T) {
	kvContract(t, NewMemory())
}

func TestFile_Contract(t *testing.T) {
	f, err := OpenFile(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	kvContract(t, f)
}

func TestSQLite_Contract(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	kvContract(t, s)
}

func TestFile_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := f.Set("summaries/book1/ch1:0", []byte(`{"summary":"kept"}`)); err != nil {
		t.Fatalf("set: %v", err)
	}

	again, err := OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	v, err := again.Get("summaries/book1/ch1:0")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if string(v) != `{"summary":"kept"}` {
		t.Errorf("expected persisted value, got %q", v)
	}
}

func TestFile_RejectsInvalidJSON(t *testing.T) {
	f, err := OpenFile(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := f.Set("key", []byte("{broken")); err == nil {
		t.Errorf("expected invalid JSON rejected")
	}
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set("notes/book1", []byte(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	again, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	v, err := again.Get("notes/book1")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if string(v) != `[]` {
		t.Errorf("expected persisted value, got %q", v)
	}
}

func TestMemory_FailSetsHook(t *testing.T) {
	m := NewMemory()
	m.FailSets = 1

	if err := m.Set("k", []byte(`1`)); err != ErrStorageFull {
		t.Fatalf("expected ErrStorageFull, got %v", err)
	}
	if err := m.Set("k", []byte(`1`)); err != nil {
		t.Fatalf("expected recovery after hook drains, got %v", err)
	}
}
