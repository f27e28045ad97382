// Package admin implements the administrative console operations.
package admin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dongnae-labs/storefront/internal/app/domain/store"
	"github.com/dongnae-labs/storefront/internal/app/services/auth"
	"github.com/dongnae-labs/storefront/internal/app/services/directory"
	"github.com/dongnae-labs/storefront/internal/app/services/notify"
	"github.com/dongnae-labs/storefront/internal/errors"
	"github.com/dongnae-labs/storefront/pkg/logger"
)

const (
	minSecretLength = 4
	confirmTTL      = 5 * time.Minute
)

// inviteTemplate is the fixed invitation message body.
const inviteTemplate = "사장님, 우리동네 배달앱 가입하세요! 링크: %s"

// StoreSummary is one row of the admin store listing.
type StoreSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Info        string `json:"info"`
	MenuText    string `json:"menu_text"`
	HasPassword bool   `json:"has_password"`
	ImageCount  int    `json:"image_count"`
}

// Service exposes directory management and invitation dispatch. Deletions
// are a two-step flow: a request returns a confirmation token, and only the
// confirm call with that token executes the removal.
type Service struct {
	directory  *directory.Service
	dispatcher *notify.Dispatcher
	log        *logger.Logger

	mu      sync.Mutex
	pending map[string]pendingDelete
}

type pendingDelete struct {
	ids     []string
	expires time.Time
}

// New creates the admin service.
func New(dir *directory.Service, dispatcher *notify.Dispatcher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("admin")
	}
	return &Service{
		directory:  dir,
		dispatcher: dispatcher,
		log:        log,
		pending:    make(map[string]pendingDelete),
	}
}

// ListStores returns a summary row for every registered store.
func (s *Service) ListStores(ctx context.Context) ([]StoreSummary, error) {
	records, err := s.directory.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]StoreSummary, 0, len(records))
	for _, rec := range records {
		out = append(out, summarize(rec))
	}
	return out, nil
}

func summarize(rec store.Record) StoreSummary {
	return StoreSummary{
		ID:          rec.ID,
		Name:        rec.Name,
		Phone:       rec.Phone,
		Info:        rec.Info,
		MenuText:    rec.MenuText,
		HasPassword: rec.Password != "",
		ImageCount:  len(rec.ImageFiles),
	}
}

// RequestDelete stages a deletion and returns the confirmation token. No
// record is touched until the token is confirmed.
func (s *Service) RequestDelete(ids []string) (string, error) {
	if len(ids) == 0 {
		return "", errors.Validation("no store ids selected")
	}
	token := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prunePendingLocked()
	s.pending[token] = pendingDelete{
		ids:     append([]string(nil), ids...),
		expires: time.Now().Add(confirmTTL),
	}
	return token, nil
}

// ConfirmDelete executes a staged deletion. Ids absent from the directory
// are silently ignored; the directory is persisted once.
func (s *Service) ConfirmDelete(ctx context.Context, token string) ([]string, error) {
	s.mu.Lock()
	staged, ok := s.pending[token]
	if ok {
		delete(s.pending, token)
	}
	s.mu.Unlock()

	if !ok || time.Now().After(staged.expires) {
		return nil, errors.Validation("unknown or expired confirmation token")
	}
	if err := s.directory.Delete(ctx, staged.ids); err != nil {
		return nil, err
	}
	return staged.ids, nil
}

// CancelDelete discards a staged deletion. Cancelling an unknown token is
// not an error.
func (s *Service) CancelDelete(token string) {
	s.mu.Lock()
	delete(s.pending, token)
	s.mu.Unlock()
}

func (s *Service) prunePendingLocked() {
	now := time.Now()
	for token, staged := range s.pending {
		if now.After(staged.expires) {
			delete(s.pending, token)
		}
	}
}

// SetPassword validates the new secret and overwrites the stored hash.
func (s *Service) SetPassword(ctx context.Context, id, secret, confirm string) error {
	if secret == "" {
		return errors.Validation("password is required")
	}
	if len(secret) < minSecretLength {
		return errors.Validation(fmt.Sprintf("password must be at least %d characters", minSecretLength))
	}
	if secret != confirm {
		return errors.Validation("password confirmation does not match")
	}
	hash, err := auth.HashSecret(secret)
	if err != nil {
		return errors.Internal("hash password", err)
	}
	return s.directory.SetPassword(ctx, id, hash)
}

// Invite validates the destination number and dispatches the invitation SMS
// with the fixed message template.
func (s *Service) Invite(ctx context.Context, phone, link string) notify.Result {
	if err := ValidatePhone(phone); err != nil {
		return notify.Result{Success: false, Reason: err.Error()}
	}
	if link == "" {
		return notify.Result{Success: false, Reason: "invitation link is required"}
	}
	if s.dispatcher == nil {
		return notify.Result{Success: false, Reason: "sms provider not configured"}
	}
	return s.dispatcher.Send(ctx, phone, fmt.Sprintf(inviteTemplate, link))
}

// ValidatePhone enforces the destination format: all digits, 10-11 chars.
func ValidatePhone(phone string) error {
	if phone == "" {
		return errors.Validation("phone number is required")
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return errors.Validation("phone number must contain digits only")
		}
	}
	if len(phone) < 10 || len(phone) > 11 {
		return errors.Validation("phone number must be 10-11 digits")
	}
	return nil
}
