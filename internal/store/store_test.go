package store

import (
	"path/filepath"
	"testing"
)

func TestOpenRejectsEmptyURL(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty connection string")
	}
}

func TestOpenDefaultsToSQLite(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if _, ok := s.(*SQLite); !ok {
		t.Fatalf("expected sqlite backend, got %T", s)
	}

	st := s.Status()
	if !st.Connected {
		t.Fatal("expected connected status")
	}
	if st.Name != "test.db" {
		t.Fatalf("unexpected store name %q", st.Name)
	}
}
