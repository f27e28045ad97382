package admin

import (
	"context"
	"strings"
	"testing"

	"github.com/dongnae-labs/storefront/internal/app/domain/store"
	"github.com/dongnae-labs/storefront/internal/app/services/auth"
	"github.com/dongnae-labs/storefront/internal/app/services/directory"
	"github.com/dongnae-labs/storefront/internal/app/storage/memory"
	"github.com/dongnae-labs/storefront/pkg/logger"
)

func newFixture(t *testing.T) (*Service, *directory.Service) {
	t.Helper()
	dir := directory.New(memory.New(), logger.NewNop())
	return New(dir, nil, logger.NewNop()), dir
}

func seedStore(t *testing.T, dir *directory.Service, id string) {
	t.Helper()
	if err := dir.Create(context.Background(), store.Record{ID: id, Name: id}); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestListStores(t *testing.T) {
	ctx := context.Background()
	svc, dir := newFixture(t)
	seedStore(t, dir, "meat")
	seedStore(t, dir, "bakery")

	rows, err := svc.ListStores(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	// Listing order is deterministic by id.
	if rows[0].ID != "bakery" || rows[1].ID != "meat" {
		t.Fatalf("unexpected order %q, %q", rows[0].ID, rows[1].ID)
	}
	if rows[0].HasPassword {
		t.Fatal("store without a password reported as having one")
	}
}

func TestTwoStepDelete(t *testing.T) {
	ctx := context.Background()
	svc, dir := newFixture(t)
	seedStore(t, dir, "meat")
	seedStore(t, dir, "bakery")

	token, err := svc.RequestDelete([]string{"meat", "ghost"})
	if err != nil {
		t.Fatalf("request delete: %v", err)
	}
	if token == "" {
		t.Fatal("expected a confirmation token")
	}

	// Requesting does not touch the directory.
	if _, err := dir.Get(ctx, "meat"); err != nil {
		t.Fatalf("meat should still exist before confirmation: %v", err)
	}

	deleted, err := svc.ConfirmDelete(ctx, token)
	if err != nil {
		t.Fatalf("confirm delete: %v", err)
	}
	if len(deleted) != 2 {
		t.Fatalf("expected staged ids echoed back, got %v", deleted)
	}
	if _, err := dir.Get(ctx, "meat"); err == nil {
		t.Fatal("meat should be gone after confirmation")
	}
	if _, err := dir.Get(ctx, "bakery"); err != nil {
		t.Fatalf("bakery should survive: %v", err)
	}

	// A token is single-use.
	if _, err := svc.ConfirmDelete(ctx, token); err == nil {
		t.Fatal("expected reused token to fail")
	}
}

func TestConfirmDeleteUnknownToken(t *testing.T) {
	svc, _ := newFixture(t)
	if _, err := svc.ConfirmDelete(context.Background(), "nope"); err == nil {
		t.Fatal("expected unknown token to fail")
	}
}

func TestCancelDelete(t *testing.T) {
	ctx := context.Background()
	svc, dir := newFixture(t)
	seedStore(t, dir, "meat")

	token, err := svc.RequestDelete([]string{"meat"})
	if err != nil {
		t.Fatalf("request delete: %v", err)
	}
	svc.CancelDelete(token)

	if _, err := svc.ConfirmDelete(ctx, token); err == nil {
		t.Fatal("expected cancelled token to fail")
	}
	if _, err := dir.Get(ctx, "meat"); err != nil {
		t.Fatalf("meat should survive a cancelled deletion: %v", err)
	}
}

func TestRequestDeleteEmptySelection(t *testing.T) {
	svc, _ := newFixture(t)
	if _, err := svc.RequestDelete(nil); err == nil {
		t.Fatal("expected empty selection to fail")
	}
}

func TestSetPassword(t *testing.T) {
	ctx := context.Background()
	svc, dir := newFixture(t)
	seedStore(t, dir, "meat")

	cases := []struct {
		name            string
		secret, confirm string
	}{
		{"empty", "", ""},
		{"too short", "123", "123"},
		{"mismatch", "1234", "4321"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.SetPassword(ctx, "meat", tc.secret, tc.confirm); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	if err := svc.SetPassword(ctx, "meat", "5678", "5678"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	rec, err := dir.Get(ctx, "meat")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !auth.VerifySecret(rec.Password, "5678") {
		t.Fatal("stored hash does not verify against the new secret")
	}
	if strings.Contains(rec.Password, "5678") {
		t.Fatal("secret stored in the clear")
	}

	if err := svc.SetPassword(ctx, "ghost", "5678", "5678"); err == nil {
		t.Fatal("expected unknown store to fail")
	}
}

func TestInviteValidation(t *testing.T) {
	svc, _ := newFixture(t)

	res := svc.Invite(context.Background(), "010-1234-5678", "https://example.com")
	if res.Success {
		t.Fatal("expected dashed number to be rejected")
	}
	res = svc.Invite(context.Background(), "01012345678", "")
	if res.Success {
		t.Fatal("expected missing link to be rejected")
	}
	res = svc.Invite(context.Background(), "01012345678", "https://example.com")
	if res.Success || res.Reason != "sms provider not configured" {
		t.Fatalf("expected unconfigured-provider result, got %+v", res)
	}
}

func TestValidatePhone(t *testing.T) {
	valid := []string{"0212345678", "01012345678"}
	for _, phone := range valid {
		if err := ValidatePhone(phone); err != nil {
			t.Errorf("ValidatePhone(%q) = %v, want nil", phone, err)
		}
	}
	invalid := []string{"", "010-1234-5678", "123456789", "010123456789", "0101234567a"}
	for _, phone := range invalid {
		if err := ValidatePhone(phone); err == nil {
			t.Errorf("ValidatePhone(%q) = nil, want error", phone)
		}
	}
}
