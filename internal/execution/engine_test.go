package execution

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/signalbridge/platform/internal/apperr"
	"github.com/signalbridge/platform/internal/broker"
	"github.com/signalbridge/platform/internal/database"
	"github.com/signalbridge/platform/internal/domain"
	"github.com/signalbridge/platform/internal/notify"
	"github.com/signalbridge/platform/internal/repository"
)

// fakeAdapter is a broker.Adapter double that records calls and returns
// canned results, standing in for a live MT5 bridge session.
type fakeAdapter struct {
	closeErr   error
	modifyErr  error
	dealResult broker.HistoryDeal
	closed     []int64
	modified   []int64
}

func (f *fakeAdapter) Connect(ctx context.Context, creds broker.Credentials) error { return nil }
func (f *fakeAdapter) Disconnect(ctx context.Context) error                       { return nil }
func (f *fakeAdapter) MarketOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderResult, error) {
	return broker.OrderResult{}, nil
}
func (f *fakeAdapter) LimitOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderResult, error) {
	return broker.OrderResult{}, nil
}
func (f *fakeAdapter) ClosePosition(ctx context.Context, ticket int64) error {
	f.closed = append(f.closed, ticket)
	return f.closeErr
}
func (f *fakeAdapter) ModifyPosition(ctx context.Context, ticket int64, sl, tp *decimal.Decimal) error {
	f.modified = append(f.modified, ticket)
	return f.modifyErr
}
func (f *fakeAdapter) Quote(ctx context.Context, symbol string) (broker.Quote, error) {
	return broker.Quote{Symbol: symbol}, nil
}
func (f *fakeAdapter) ListPositions(ctx context.Context) ([]broker.Position, error) { return nil, nil }
func (f *fakeAdapter) HistoryDeal(ctx context.Context, ticket int64) (broker.HistoryDeal, error) {
	return f.dealResult, nil
}
func (f *fakeAdapter) AccountInfo(ctx context.Context) (broker.AccountInfo, error) {
	return broker.AccountInfo{}, nil
}

// singleAdapterRegistry always resolves to the same adapter, regardless of account id.
type singleAdapterRegistry struct {
	adapter broker.Adapter
}

func (r singleAdapterRegistry) Adapter(ctx context.Context, accountID uuid.UUID) (broker.Adapter, error) {
	return r.adapter, nil
}

func setupEngineDB(t *testing.T) *repository.Store {
	t.Helper()
	db, err := database.New(database.Config{Path: ":memory:", Profile: database.ProfileStandard, Name: "engine_test"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Conn().Exec(`
		CREATE TABLE users (id TEXT PRIMARY KEY, email TEXT, username TEXT, password_hash TEXT, active INTEGER, created_at TEXT);
		CREATE TABLE broker_accounts (id TEXT PRIMARY KEY, user_id TEXT, label TEXT, login TEXT, server TEXT, created_at TEXT);
		CREATE TABLE channel_subscriptions (id TEXT PRIMARY KEY, user_id TEXT, channel_id INTEGER, label TEXT, active INTEGER, created_at TEXT);
		CREATE TABLE signals (id TEXT PRIMARY KEY, user_id TEXT, channel_id TEXT, received_at TEXT, raw_text TEXT, extracted TEXT, status TEXT, processed_at TEXT);
		CREATE TABLE executions (
			id TEXT PRIMARY KEY, user_id TEXT, signal_id TEXT, broker_id TEXT, symbol TEXT, side TEXT, volume TEXT,
			planned_entry TEXT, planned_sl TEXT, planned_tp TEXT,
			actual_entry TEXT, actual_entry_at TEXT, close_price TEXT, close_time TEXT,
			profit_loss TEXT, price_current TEXT, ticket INTEGER, state TEXT, error TEXT, created_at TEXT
		);
		CREATE TABLE preferences (
			user_id TEXT PRIMARY KEY, manual_approval INTEGER, risk_per_trade TEXT, max_slippage_pips TEXT,
			use_limit_orders INTEGER, default_sl_pips TEXT, max_open_positions INTEGER
		);
	`)
	require.NoError(t, err)

	return repository.NewStore(db)
}

// seedExecution inserts one Execution (plus its parent user/broker/signal
// rows, required by the schema's foreign keys) in the given state.
func seedExecution(t *testing.T, store *repository.Store, state domain.ExecutionState, ticket *int64) domain.Execution {
	t.Helper()
	userID, signalID, brokerID := uuid.New(), uuid.New(), uuid.New()
	now := time.Now().Format(time.RFC3339)

	_, err := store.DB().Exec(`INSERT INTO users (id, email, username, password_hash, active, created_at) VALUES (?, 'u@example.com', 'u', 'h', 1, ?)`,
		userID.String(), now)
	require.NoError(t, err)
	_, err = store.DB().Exec(`INSERT INTO broker_accounts (id, user_id, label, login, server, created_at) VALUES (?, ?, 'demo', 'login', 'server', ?)`,
		brokerID.String(), userID.String(), now)
	require.NoError(t, err)
	_, err = store.DB().Exec(`INSERT INTO signals (id, user_id, channel_id, received_at, raw_text, extracted, status) VALUES (?, ?, 'c1', ?, 'raw', '{}', 'pending')`,
		signalID.String(), userID.String(), now)
	require.NoError(t, err)

	exec := domain.Execution{
		ID: uuid.New(), UserID: userID, SignalID: signalID, BrokerID: brokerID,
		Symbol: "EURUSD", Side: domain.SideBuy, Volume: decimal.NewFromFloat(0.1),
		Ticket: ticket, State: state, CreatedAt: time.Now(),
	}
	err = database.WithTransaction(store.DB().Conn(), func(tx *sql.Tx) error {
		return store.Executions.CreateTx(tx, exec)
	})
	require.NoError(t, err)
	return exec
}

func newTestEngine(store *repository.Store, adapter broker.Adapter) *Engine {
	return NewEngine(store, singleAdapterRegistry{adapter: adapter}, notify.NewHub(zerolog.Nop()), zerolog.Nop())
}

func TestEngineClose_MarksClosedAndRecomputesSignal(t *testing.T) {
	store := setupEngineDB(t)
	ticket := int64(555)
	exec := seedExecution(t, store, domain.StateExecuted, &ticket)

	adapter := &fakeAdapter{dealResult: broker.HistoryDeal{
		Ticket: ticket, ClosePrice: decimal.NewFromFloat(1.2345), ProfitLoss: decimal.NewFromFloat(12.5),
		CloseTime: time.Now().Format(time.RFC3339),
	}}
	engine := newTestEngine(store, adapter)

	err := engine.Close(context.Background(), exec.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{ticket}, adapter.closed)

	updated, err := store.Executions.ByID(exec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateClosed, updated.State)
	assert.True(t, updated.ProfitLoss.Equal(decimal.NewFromFloat(12.5)))

	signal, err := store.Signals.ByID(exec.SignalID)
	require.NoError(t, err)
	assert.Equal(t, domain.SignalProcessed, signal.Status)
}

func TestEngineClose_RejectsExecutionNotOpen(t *testing.T) {
	store := setupEngineDB(t)
	exec := seedExecution(t, store, domain.StatePendingApproval, nil)
	engine := newTestEngine(store, &fakeAdapter{})

	err := engine.Close(context.Background(), exec.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestEngineClose_WrapsBrokerFailureAsBrokerKind(t *testing.T) {
	store := setupEngineDB(t)
	ticket := int64(7)
	exec := seedExecution(t, store, domain.StateExecuted, &ticket)
	adapter := &fakeAdapter{closeErr: assert.AnError}
	engine := newTestEngine(store, adapter)

	err := engine.Close(context.Background(), exec.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindBroker, apperr.KindOf(err))

	// state must not have advanced past EXECUTED
	updated, err := store.Executions.ByID(exec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateExecuted, updated.State)
}

func TestEngineModify_PersistsOverridesOnSuccess(t *testing.T) {
	store := setupEngineDB(t)
	ticket := int64(321)
	exec := seedExecution(t, store, domain.StateExecuted, &ticket)
	adapter := &fakeAdapter{}
	engine := newTestEngine(store, adapter)

	sl := decimal.NewFromFloat(1.1)
	tp := decimal.NewFromFloat(1.3)
	err := engine.Modify(context.Background(), exec.ID, &sl, &tp)
	require.NoError(t, err)
	assert.Equal(t, []int64{ticket}, adapter.modified)

	updated, err := store.Executions.ByID(exec.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.PlannedSL)
	require.NotNil(t, updated.PlannedTP)
	assert.True(t, updated.PlannedSL.Equal(sl))
	assert.True(t, updated.PlannedTP.Equal(tp))
}

func TestEngineModify_RejectsExecutionWithoutTicket(t *testing.T) {
	store := setupEngineDB(t)
	exec := seedExecution(t, store, domain.StateExecuted, nil)
	engine := newTestEngine(store, &fakeAdapter{})

	sl := decimal.NewFromFloat(1.1)
	err := engine.Modify(context.Background(), exec.ID, &sl, nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestEngineCancel_BroadcastsAndRecomputesSignal(t *testing.T) {
	store := setupEngineDB(t)
	exec := seedExecution(t, store, domain.StatePendingApproval, nil)
	engine := newTestEngine(store, &fakeAdapter{})

	require.NoError(t, engine.Cancel(context.Background(), exec.ID))

	updated, err := store.Executions.ByID(exec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateCancelled, updated.State)

	signal, err := store.Signals.ByID(exec.SignalID)
	require.NoError(t, err)
	assert.Equal(t, domain.SignalRejected, signal.Status)
}
