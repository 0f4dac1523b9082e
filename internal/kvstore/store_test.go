package kvstore

import (
	"os"
	"path/filepath"
	"testing"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	if _, ok, err := s.Get("missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}

	if err := s.Set("a", "1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set("a", "2"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, ok, err := s.Get("a")
	if err != nil || !ok || v != "2" {
		t.Fatalf("Get: v=%q ok=%v err=%v", v, ok, err)
	}

	if err := s.Remove("a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := s.Get("a"); ok {
		t.Fatal("expected key to be removed")
	}
	if err := s.Remove("a"); err != nil {
		t.Fatalf("Remove of absent key should be a no-op: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.json")
	s, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	exerciseStore(t, s)

	if err := s.Set("keep", "value"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	reopened, err := NewFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if v, ok, _ := reopened.Get("keep"); !ok || v != "value" {
		t.Fatalf("value not persisted: %q %v", v, ok)
	}
}

func TestFileStoreCorruptFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	s, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if _, ok, _ := s.Get("anything"); ok {
		t.Fatal("expected empty store")
	}
	if _, err := os.Stat(path + ".backup"); err != nil {
		t.Fatalf("expected corrupt file to be backed up: %v", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zenith.sqlite")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := s.Set("k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s.Close()

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if v, ok, _ := reopened.Get("k"); !ok || v != "v" {
		t.Fatalf("got %q %v", v, ok)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("redis", ""); err == nil {
		t.Fatal("expected error")
	}
}
