// Package repository is the Persistence Store: transactional writes and
// indexed reads over the platform's single SQLite database (SPEC_FULL.md §0,
// entity table in §3).
package repository

import (
	"github.com/signalbridge/platform/internal/database"
)

// Store aggregates every repository over one *database.DB connection.
type Store struct {
	db *database.DB

	Users         *UserRepository
	BrokerAccount *BrokerAccountRepository
	Credentials   *CredentialRepository
	Channels      *ChannelRepository
	Signals       *SignalRepository
	Executions    *ExecutionRepository
	Preferences   *PreferencesRepository
	Audit         *AuditRepository
	Subscribers   *SubscriberRepository
}

// NewStore wires every repository against the same connection.
func NewStore(db *database.DB) *Store {
	return &Store{
		db:            db,
		Users:         &UserRepository{db: db},
		BrokerAccount: &BrokerAccountRepository{db: db},
		Credentials:   &CredentialRepository{db: db},
		Channels:      &ChannelRepository{db: db},
		Signals:       &SignalRepository{db: db},
		Executions:    &ExecutionRepository{db: db},
		Preferences:   &PreferencesRepository{db: db},
		Audit:         &AuditRepository{db: db},
		Subscribers:   &SubscriberRepository{db: db},
	}
}

// DB exposes the underlying connection for components that need a single
// transaction spanning multiple repositories (e.g. the Signal Recorder).
func (s *Store) DB() *database.DB { return s.db }
