package ids

import (
	"testing"
	"time"
)

func TestNewULID(t *testing.T) {
	t.Parallel()

	now := time.Date(2011, 5, 1, 12, 0, 0, 0, time.UTC)
	a, err := NewULID(now)
	if err != nil {
		t.Fatalf("NewULID: %v", err)
	}
	b, err := NewULID(now.Add(time.Second))
	if err != nil {
		t.Fatalf("NewULID: %v", err)
	}

	if len(a) != 26 || len(b) != 26 {
		t.Fatalf("expected 26-char ids, got %q %q", a, b)
	}
	if !(a < b) {
		t.Fatalf("expected time ordering: %q < %q", a, b)
	}
	if !Valid(a) {
		t.Fatalf("expected %q to be valid", a)
	}
}

func TestValid(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "1", "not-a-ulid-not-a-ulid-xxxx", "01HZZZZZZZZZZZZZZZZZZZZZZZZ"} {
		if Valid(s) {
			t.Fatalf("expected %q to be invalid", s)
		}
	}
}
