package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dongnae-labs/storefront/internal/app/services/directory"
	"github.com/dongnae-labs/storefront/internal/app/storage/memory"
	apperrors "github.com/dongnae-labs/storefront/internal/errors"
	"github.com/dongnae-labs/storefront/pkg/logger"
)

func newService() (*Service, *directory.Service) {
	dir := directory.New(memory.New(), logger.NewNop())
	return New(dir, "test-signing-secret", time.Hour, logger.NewNop()), dir
}

func TestRegisterThenAuthenticate(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	err := svc.Register(ctx, Registration{
		ID: "meat", Secret: "1234", SecretConfirm: "1234",
		Name: "Meat Shop", Phone: "01012345678",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	rec, err := svc.Authenticate(ctx, "meat", "1234")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if rec.Name != "Meat Shop" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Password == "1234" {
		t.Fatal("secret stored in plaintext")
	}
	if !strings.HasPrefix(rec.Password, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", rec.Password)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	cases := []struct {
		name string
		reg  Registration
	}{
		{"empty id", Registration{Secret: "1234", SecretConfirm: "1234"}},
		{"empty secret", Registration{ID: "a"}},
		{"short secret", Registration{ID: "a", Secret: "123", SecretConfirm: "123"}},
		{"confirm mismatch", Registration{ID: "a", Secret: "1234", SecretConfirm: "4321"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Register(ctx, tc.reg)
			if se := apperrors.GetServiceError(err); se == nil || se.Code != apperrors.CodeValidation {
				t.Fatalf("expected Validation error, got %v", err)
			}
		})
	}
}

func TestAuthenticateWrongSecretLeavesDirectoryUnchanged(t *testing.T) {
	svc, dir := newService()
	ctx := context.Background()

	if err := svc.Register(ctx, Registration{ID: "meat", Secret: "1234", SecretConfirm: "1234"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	before, _ := dir.Get(ctx, "meat")

	_, err := svc.Authenticate(ctx, "meat", "wrong")
	if se := apperrors.GetServiceError(err); se == nil || se.Code != apperrors.CodeBadSecret {
		t.Fatalf("expected BadSecret, got %v", err)
	}

	after, _ := dir.Get(ctx, "meat")
	if before.Password != after.Password {
		t.Fatal("directory changed by failed authentication")
	}
}

func TestAuthenticateUnknownID(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Authenticate(context.Background(), "ghost", "1234")
	if se := apperrors.GetServiceError(err); se == nil || se.Code != apperrors.CodeUnknownID {
		t.Fatalf("expected UnknownID, got %v", err)
	}
}

func TestRegisterLoginDeleteScenario(t *testing.T) {
	svc, dir := newService()
	ctx := context.Background()

	if err := svc.Register(ctx, Registration{ID: "meat", Secret: "1234", SecretConfirm: "1234"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := svc.Login(ctx, "meat", "1234"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, _, err := svc.Login(ctx, "meat", "wrong"); !isCode(err, apperrors.CodeBadSecret) {
		t.Fatalf("expected BadSecret, got %v", err)
	}

	if err := dir.Delete(ctx, []string{"meat"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := svc.Login(ctx, "meat", "1234"); !isCode(err, apperrors.CodeUnknownID) {
		t.Fatalf("expected UnknownID after deletion, got %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc, _ := newService()

	token, err := svc.IssueToken("meat")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	claims, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.StoreID != "meat" {
		t.Fatalf("unexpected store id %q", claims.StoreID)
	}

	if _, err := svc.ParseToken(token + "tampered"); err == nil {
		t.Fatal("expected tampered token to be rejected")
	}
}

func TestVerifySecretLegacyPlaintext(t *testing.T) {
	if !VerifySecret("1234", "1234") {
		t.Fatal("legacy plaintext comparison failed")
	}
	if VerifySecret("1234", "4321") {
		t.Fatal("legacy plaintext comparison accepted wrong secret")
	}
	if VerifySecret("", "anything") {
		t.Fatal("record without password must never authenticate")
	}
}

func isCode(err error, code apperrors.ErrorCode) bool {
	se := apperrors.GetServiceError(err)
	return se != nil && se.Code == code
}
