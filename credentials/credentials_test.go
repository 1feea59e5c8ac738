package credentials

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStore(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "creds.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	creds := map[string]string{"bucket": "clips", "region": "eu-west-1"}
	key, err := s.Add(creds)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if len(key) != 32 {
		t.Errorf("Expected 32 char key, got %q", key)
	}

	got, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if diff := cmp.Diff(creds, got); diff != "" {
		t.Errorf("Credentials mismatch (-want +got):\n%s", diff)
	}

	if err := s.Delete(key); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
