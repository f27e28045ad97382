// Package auth implements credential checks and session token issuance.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/dongnae-labs/storefront/internal/app/domain/store"
	"github.com/dongnae-labs/storefront/internal/app/services/directory"
	"github.com/dongnae-labs/storefront/internal/errors"
	"github.com/dongnae-labs/storefront/pkg/logger"
)

const minSecretLength = 4

// Claims are the JWT claims carried by a store session token.
type Claims struct {
	StoreID string `json:"store_id"`
	jwt.RegisteredClaims
}

// Service validates credentials against the directory and issues session
// tokens. Secrets are stored as bcrypt hashes; records written before
// hashing was introduced (no bcrypt prefix) are compared constant-time
// against the stored value.
type Service struct {
	directory *directory.Service
	jwtSecret []byte
	tokenTTL  time.Duration
	log       *logger.Logger
}

// New creates the auth service.
func New(dir *directory.Service, jwtSecret string, tokenTTL time.Duration, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &Service{
		directory: dir,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		log:       log,
	}
}

// Registration carries the fields submitted by a store owner.
type Registration struct {
	ID            string
	Secret        string
	SecretConfirm string
	Name          string
	Phone         string
	Info          string
	MenuText      string
	ImageFiles    []string
}

// Register validates the submission and creates the directory record.
// Validation happens before any mutation; id uniqueness is delegated to the
// directory create.
func (s *Service) Register(ctx context.Context, reg Registration) error {
	if strings.TrimSpace(reg.ID) == "" {
		return errors.Validation("store id is required")
	}
	if reg.Secret == "" {
		return errors.Validation("password is required")
	}
	if len(reg.Secret) < minSecretLength {
		return errors.Validation(fmt.Sprintf("password must be at least %d characters", minSecretLength))
	}
	if reg.Secret != reg.SecretConfirm {
		return errors.Validation("password confirmation does not match")
	}

	hash, err := HashSecret(reg.Secret)
	if err != nil {
		return errors.Internal("hash password", err)
	}

	return s.directory.Create(ctx, store.Record{
		ID:         strings.TrimSpace(reg.ID),
		Name:       reg.Name,
		Phone:      reg.Phone,
		Info:       reg.Info,
		MenuText:   reg.MenuText,
		ImageFiles: reg.ImageFiles,
		Password:   hash,
	})
}

// Authenticate checks id and secret against the directory. Fails with
// UnknownID if the id is absent and BadSecret if the stored password (or
// absence thereof) does not match.
func (s *Service) Authenticate(ctx context.Context, id, secret string) (store.Record, error) {
	rec, err := s.directory.Get(ctx, id)
	if err != nil {
		return store.Record{}, err
	}
	if !VerifySecret(rec.Password, secret) {
		s.log.WithField("store_id", id).Warn("login rejected: wrong password")
		return store.Record{}, errors.BadSecret()
	}
	return rec, nil
}

// Login authenticates and issues a session token bound to the store.
func (s *Service) Login(ctx context.Context, id, secret string) (string, store.Record, error) {
	rec, err := s.Authenticate(ctx, id, secret)
	if err != nil {
		return "", store.Record{}, err
	}
	token, err := s.IssueToken(rec.ID)
	if err != nil {
		return "", store.Record{}, errors.Internal("issue session token", err)
	}
	return token, rec, nil
}

// IssueToken signs an HS256 session token for the store id.
func (s *Service) IssueToken(storeID string) (string, error) {
	now := time.Now()
	claims := Claims{
		StoreID: storeID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   storeID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// ParseToken validates a session token and returns its claims.
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, errors.Unauthorized("invalid session token").WithDetails("reason", err.Error())
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.StoreID == "" {
		return nil, errors.Unauthorized("invalid session token")
	}
	return claims, nil
}

// HashSecret produces a salted one-way hash of the secret.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifySecret compares a stored password value against a submitted secret.
// bcrypt hashes verify through bcrypt; anything else (legacy plaintext or an
// unset password) is compared constant-time.
func VerifySecret(stored, secret string) bool {
	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(secret)) == nil
	}
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(secret)) == 1
}
