package broker

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalbridge/platform/internal/domain"
)

type fakeAccountSource struct {
	accounts map[uuid.UUID]*domain.BrokerAccount
}

func (f fakeAccountSource) ByID(id uuid.UUID) (*domain.BrokerAccount, error) {
	acc, ok := f.accounts[id]
	if !ok {
		return nil, assert.AnError
	}
	return acc, nil
}

type fakeCredentialSource struct {
	password string
	err      error
	calls    int
}

func (f *fakeCredentialSource) Retrieve(userID uuid.UUID, brokerID *uuid.UUID, credType domain.CredentialType) (string, error) {
	f.calls++
	return f.password, f.err
}

func TestBridgeRegistry_AdapterIsCachedPerAccount(t *testing.T) {
	accountID := uuid.New()
	accounts := fakeAccountSource{accounts: map[uuid.UUID]*domain.BrokerAccount{
		accountID: {ID: accountID, UserID: uuid.New(), Login: "demo", Server: "demo-server"},
	}}
	creds := &fakeCredentialSource{password: "secret"}

	// baseURL points nowhere reachable; Connect against the bridge client
	// is expected to fail in this unit test, which is enough to prove the
	// credential lookup and account resolution happened without a broker
	// actually needing to be up.
	registry := NewBridgeRegistry(accounts, creds, "http://127.0.0.1:0", zerolog.Nop())

	_, err := registry.Adapter(context.Background(), accountID)
	require.Error(t, err)
	assert.Equal(t, 1, creds.calls)

	// second call re-resolves the account/credentials since the first
	// attempt never reached the cache (Connect failed before caching).
	_, err = registry.Adapter(context.Background(), accountID)
	require.Error(t, err)
	assert.Equal(t, 2, creds.calls)
}

func TestBridgeRegistry_UnknownAccountPropagatesError(t *testing.T) {
	accounts := fakeAccountSource{accounts: map[uuid.UUID]*domain.BrokerAccount{}}
	creds := &fakeCredentialSource{}
	registry := NewBridgeRegistry(accounts, creds, "http://127.0.0.1:0", zerolog.Nop())

	_, err := registry.Adapter(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, 0, creds.calls)
}
