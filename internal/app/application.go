// Package app wires the storefront services together.
package app

import (
	"time"

	"github.com/dongnae-labs/storefront/internal/app/services/admin"
	"github.com/dongnae-labs/storefront/internal/app/services/auth"
	"github.com/dongnae-labs/storefront/internal/app/services/chat"
	"github.com/dongnae-labs/storefront/internal/app/services/directory"
	"github.com/dongnae-labs/storefront/internal/app/services/images"
	"github.com/dongnae-labs/storefront/internal/app/services/notify"
	"github.com/dongnae-labs/storefront/internal/app/services/relay"
	"github.com/dongnae-labs/storefront/internal/app/services/transcribe"
	"github.com/dongnae-labs/storefront/internal/app/storage"
	"github.com/dongnae-labs/storefront/internal/app/storage/file"
	"github.com/dongnae-labs/storefront/internal/config"
	"github.com/dongnae-labs/storefront/internal/metrics"
	"github.com/dongnae-labs/storefront/pkg/logger"
)

// Application ties the domain services together.
type Application struct {
	Directory   *directory.Service
	Auth        *auth.Service
	Relay       *relay.Service
	Dispatcher  *notify.Dispatcher
	Transcriber *transcribe.Client
	Sessions    *chat.Registry
	Admin       *admin.Service
	Images      *images.Service
	Metrics     *metrics.Metrics

	log *logger.Logger
}

// Options override pieces of the default wiring. Nil fields keep the
// configuration-driven defaults. Used by tests to inject fakes.
type Options struct {
	DirectoryStore storage.DirectoryStore
	Generator      relay.Generator
}

// New builds a fully initialised application from configuration.
func New(cfg *config.Config, log *logger.Logger, opts Options) (*Application, error) {
	if log == nil {
		log = logger.New("storefront", cfg.Log.Level, cfg.Log.Format)
	}
	m := metrics.New("storefront")

	dirStore := opts.DirectoryStore
	if dirStore == nil {
		dirStore = file.New(cfg.Directory.Path, log.WithField("component", "directory-file"))
	}
	dirService := directory.New(dirStore, log.WithField("component", "directory"))

	authService := auth.New(dirService, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL(), log.WithField("component", "auth"))

	gen := opts.Generator
	if gen == nil {
		httpGen, err := relay.NewHTTPGenerator(relay.HTTPGeneratorConfig{
			BaseURL:    cfg.Generator.BaseURL,
			APIKey:     cfg.Generator.APIKey,
			Model:      cfg.Generator.Model,
			Timeout:    time.Duration(cfg.Generator.TimeoutSeconds) * time.Second,
			MaxRetries: cfg.Generator.MaxRetries,
			Backoff:    time.Duration(cfg.Generator.BackoffMillis) * time.Millisecond,
		}, log.WithField("component", "generator"))
		if err != nil {
			return nil, err
		}
		gen = httpGen
	}
	relayService := relay.New(gen, relay.Mode(cfg.Relay.IntentMode), cfg.Relay.OrderKeyword, m, log.WithField("component", "relay"))

	// The dispatcher is optional: without provider credentials the service
	// runs and every send reports failure.
	var dispatcher *notify.Dispatcher
	if cfg.SMS.APIKey != "" && cfg.SMS.APISecret != "" && cfg.SMS.From != "" {
		var err error
		dispatcher, err = notify.New(notify.Config{
			Endpoint:   cfg.SMS.Endpoint,
			APIKey:     cfg.SMS.APIKey,
			APISecret:  cfg.SMS.APISecret,
			From:       cfg.SMS.From,
			Timeout:    time.Duration(cfg.SMS.TimeoutSeconds) * time.Second,
			MaxRetries: cfg.SMS.MaxRetries,
			Backoff:    time.Duration(cfg.SMS.BackoffMillis) * time.Millisecond,
		}, m, log.WithField("component", "notify"))
		if err != nil {
			return nil, err
		}
	} else {
		log.Warn("SMS credentials not set; dispatch disabled")
	}

	var transcriber *transcribe.Client
	if cfg.Transcribe.Endpoint != "" {
		var err error
		transcriber, err = transcribe.New(transcribe.Config{
			Endpoint: cfg.Transcribe.Endpoint,
			APIKey:   cfg.Transcribe.APIKey,
			Language: cfg.Transcribe.Language,
			Timeout:  time.Duration(cfg.Transcribe.TimeoutSeconds) * time.Second,
		}, m, log.WithField("component", "transcribe"))
		if err != nil {
			return nil, err
		}
	} else {
		log.Warn("TRANSCRIBE_ENDPOINT not set; voice orders disabled")
	}

	imageService, err := images.New(cfg.Images.Dir, log.WithField("component", "images"))
	if err != nil {
		return nil, err
	}

	return &Application{
		Directory:   dirService,
		Auth:        authService,
		Relay:       relayService,
		Dispatcher:  dispatcher,
		Transcriber: transcriber,
		Sessions:    chat.NewRegistry(),
		Admin:       admin.New(dirService, dispatcher, log.WithField("component", "admin")),
		Images:      imageService,
		Metrics:     m,
		log:         log,
	}, nil
}
