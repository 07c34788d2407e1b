package service

import (
	"log/slog"
	"time"

	"estatehub/internal/platform/events"
	"estatehub/pkg/platform/tx"
)

// Option configures a Service.
type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithTx sets the unit-of-work runner shared with the stores.
func WithTx(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithHashCost overrides the bcrypt cost used for new passwords.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.hashCost = cost
	}
}

// WithTokenIssuer enables Login.
func WithTokenIssuer(issuer TokenIssuer) Option {
	return func(s *Service) {
		s.tokens = issuer
	}
}
