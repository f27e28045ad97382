package chat

import (
	"testing"

	domain "github.com/dongnae-labs/storefront/internal/app/domain/chat"
	"github.com/dongnae-labs/storefront/internal/errors"
)

func TestOpenSeedsGreeting(t *testing.T) {
	r := NewRegistry()
	session := r.Open("meat")

	if session.StoreID != "meat" {
		t.Fatalf("unexpected store id %q", session.StoreID)
	}
	if len(session.Transcript) != 1 {
		t.Fatalf("expected greeting-only transcript, got %d entries", len(session.Transcript))
	}
	first := session.Transcript[0]
	if first.Role != domain.RoleAssistant || first.Content != Greeting {
		t.Fatalf("unexpected opening entry %+v", first)
	}
}

func TestAppendAndGet(t *testing.T) {
	r := NewRegistry()
	session := r.Open("meat")

	if err := r.Append(session.ID, domain.Message{Role: domain.RoleCustomer, Content: "라면 주문할게요"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := r.Get(session.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Transcript) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got.Transcript))
	}
	if got.Transcript[1].Content != "라면 주문할게요" {
		t.Fatalf("unexpected transcript tail %+v", got.Transcript[1])
	}
}

func TestGetReturnsCopy(t *testing.T) {
	r := NewRegistry()
	session := r.Open("meat")

	got, err := r.Get(session.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got.Transcript[0].Content = "mutated"

	again, err := r.Get(session.ID)
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if again.Transcript[0].Content != Greeting {
		t.Fatal("caller mutation leaked into the registry")
	}
}

func TestUnknownSession(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Get("missing"); errors.GetServiceError(err) == nil {
		t.Fatalf("expected service error, got %v", err)
	}
	if err := r.Append("missing", domain.Message{Role: domain.RoleCustomer, Content: "hi"}); err == nil {
		t.Fatal("expected error appending to unknown session")
	}

	// Closing an unknown session is a no-op.
	r.Close("missing")
}

func TestCloseStoreDiscardsAllSessions(t *testing.T) {
	r := NewRegistry()
	first := r.Open("meat")
	second := r.Open("meat")
	other := r.Open("bakery")

	r.CloseStore("meat")

	if _, err := r.Get(first.ID); err == nil {
		t.Fatal("expected first session gone")
	}
	if _, err := r.Get(second.ID); err == nil {
		t.Fatal("expected second session gone")
	}
	if _, err := r.Get(other.ID); err != nil {
		t.Fatalf("unrelated store's session should survive: %v", err)
	}
}
