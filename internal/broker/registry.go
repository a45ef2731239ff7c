package broker

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/signalbridge/platform/internal/domain"
)

// CredentialSource resolves the decrypted secrets for one broker account,
// satisfied by internal/crypto.Vault.
type CredentialSource interface {
	Retrieve(userID uuid.UUID, brokerID *uuid.UUID, credType domain.CredentialType) (string, error)
}

// AccountSource resolves the non-secret half of a broker account, satisfied
// by internal/repository.BrokerAccountRepository.
type AccountSource interface {
	ByID(id uuid.UUID) (*domain.BrokerAccount, error)
}

// BridgeRegistry is a Registry that connects (and caches) one BridgeClient
// session per broker account id, per §5 "Broker sessions are
// one-per-(login, server)".
type BridgeRegistry struct {
	accounts AccountSource
	creds    CredentialSource
	baseURL  string
	log      zerolog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]Adapter
}

func NewBridgeRegistry(accounts AccountSource, creds CredentialSource, baseURL string, log zerolog.Logger) *BridgeRegistry {
	return &BridgeRegistry{
		accounts: accounts,
		creds:    creds,
		baseURL:  baseURL,
		log:      log.With().Str("component", "broker_registry").Logger(),
		sessions: make(map[uuid.UUID]Adapter),
	}
}

// Adapter resolves and, on first use, connects the adapter for accountID.
func (r *BridgeRegistry) Adapter(ctx context.Context, accountID uuid.UUID) (Adapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if adapter, ok := r.sessions[accountID]; ok {
		return adapter, nil
	}

	account, err := r.accounts.ByID(accountID)
	if err != nil {
		return nil, err
	}
	password, err := r.creds.Retrieve(account.UserID, &account.ID, domain.CredentialPassword)
	if err != nil {
		return nil, err
	}

	adapter := NewBridgeClient(r.baseURL, r.log)
	if err := adapter.Connect(ctx, Credentials{Login: account.Login, Password: password, Server: account.Server}); err != nil {
		return nil, err
	}

	r.sessions[accountID] = adapter
	return adapter, nil
}
