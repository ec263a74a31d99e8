// Package session ties one loaded configuration to one build session.
//
// A session's configuration and mode never change. A changed declaration or
// environment signal means a new session.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/buildspec/internal/ir"
	"github.com/roach88/buildspec/internal/loader"
)

// Session is a loaded configuration with an identity.
type Session struct {
	ID        string
	StartedAt time.Time
	Config    *ir.BuildConfig
	// Hash is ir.ConfigHash of Config.
	Hash string
}

// Mode returns the session's build mode.
func (s *Session) Mode() ir.Mode {
	return s.Config.Mode
}

// Options configure Start.
type Options struct {
	Loader loader.Options
	// Clock returns the start time. Nil means time.Now.
	Clock func() time.Time
	// NewID returns the session ID. Nil means a random UUID.
	NewID func() string
}

// Start loads a configuration and opens a session around it.
func Start(ctx context.Context, opts Options) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg, err := loader.Load(opts.Loader)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts)
}

// New opens a session around an already loaded configuration.
func New(cfg *ir.BuildConfig, opts Options) (*Session, error) {
	hash, err := ir.ConfigHash(cfg)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	now := time.Now
	if opts.Clock != nil {
		now = opts.Clock
	}
	newID := uuid.NewString
	if opts.NewID != nil {
		newID = opts.NewID
	}

	return &Session{
		ID:        newID(),
		StartedAt: now(),
		Config:    cfg,
		Hash:      hash,
	}, nil
}

// Changed reports whether next carries a different configuration.
func (s *Session) Changed(next *Session) bool {
	return next == nil || s.Hash != next.Hash
}
