package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/signalbridge/platform/internal/auth"
	"github.com/signalbridge/platform/internal/broker"
	"github.com/signalbridge/platform/internal/crypto"
	"github.com/signalbridge/platform/internal/database"
	"github.com/signalbridge/platform/internal/execution"
	"github.com/signalbridge/platform/internal/notify"
	"github.com/signalbridge/platform/internal/repository"
)

const testSchema = `
CREATE TABLE users (id TEXT PRIMARY KEY, email TEXT UNIQUE, username TEXT UNIQUE, password_hash TEXT, active INTEGER, created_at TEXT);
CREATE TABLE broker_accounts (id TEXT PRIMARY KEY, user_id TEXT, label TEXT, login TEXT, server TEXT, created_at TEXT);
CREATE TABLE credentials (id TEXT PRIMARY KEY, user_id TEXT, broker_id TEXT, type TEXT, ciphertext BLOB, updated_at TEXT, UNIQUE(user_id, broker_id, type));
CREATE TABLE channel_subscriptions (id TEXT PRIMARY KEY, user_id TEXT, channel_id INTEGER, label TEXT, active INTEGER, created_at TEXT, UNIQUE(user_id, channel_id));
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
CREATE TABLE audit_events (id TEXT PRIMARY KEY, user_id TEXT, action TEXT, resource_kind TEXT, resource_id TEXT, details TEXT, timestamp TEXT, client_addr TEXT);
CREATE TABLE subscribers (id TEXT PRIMARY KEY, user_id TEXT, external_address TEXT, label TEXT, active INTEGER);
`

type stubSystem struct{}

func (stubSystem) Start(ctx context.Context) error { return nil }
func (stubSystem) Stop(ctx context.Context) error  { return nil }
func (stubSystem) Status() string                  { return "running" }

type stubRegistry struct{}

func (stubRegistry) Adapter(ctx context.Context, accountID uuid.UUID) (broker.Adapter, error) {
	return nil, assert.AnError
}

func setupAPI(t *testing.T) (*chi.Mux, *repository.Store) {
	t.Helper()
	db, err := database.New(database.Config{Path: ":memory:", Profile: database.ProfileStandard, Name: "httpapi_test"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Conn().Exec(testSchema)
	require.NoError(t, err)

	store := repository.NewStore(db)
	vault, err := crypto.New(store, "test-master-key-0123456789")
	require.NoError(t, err)
	tokens := auth.NewTokenIssuer("test-jwt-secret")
	hub := notify.NewHub(zerolog.Nop())
	engine := execution.NewEngine(store, stubRegistry{}, hub, zerolog.Nop())

	api := New(store, vault, tokens, engine, hub, stubRegistry{}, stubSystem{}, zerolog.Nop())
	r := chi.NewRouter()
	api.Mount(r)
	return r, store
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(b))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func registerUser(t *testing.T, router http.Handler, email, username string) authResponse {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", registerRequest{
		Email: email, Username: username, Password: "hunter22",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	router, _ := setupAPI(t)

	reg := registerUser(t, router, "alice@example.com", "alice")
	assert.NotEmpty(t, reg.AccessToken)
	assert.Equal(t, "alice@example.com", reg.Email)

	rec := doJSON(t, router, http.MethodPost, "/auth/login", "", loginRequest{Email: "alice@example.com", Password: "hunter22"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/auth/login", "", loginRequest{Email: "alice@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	router, _ := setupAPI(t)
	registerUser(t, router, "bob@example.com", "bob")

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", registerRequest{
		Email: "bob@example.com", Username: "bob2", Password: "hunter22",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProtectedRouteRejectsMissingToken(t *testing.T) {
	router, _ := setupAPI(t)
	rec := doJSON(t, router, http.MethodGet, "/signals/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBrokerConfigLifecycle(t *testing.T) {
	router, _ := setupAPI(t)
	user := registerUser(t, router, "carol@example.com", "carol")

	rec := doJSON(t, router, http.MethodPost, "/broker-configs/", user.AccessToken, brokerConfigRequest{
		Label: "demo account", Login: "12345", Server: "Broker-Demo",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/broker-configs/", user.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var configs []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &configs))
	require.Len(t, configs, 1)
	assert.Equal(t, "demo account", configs[0]["Label"])
}

func TestSignalsListEmptyForNewUser(t *testing.T) {
	router, _ := setupAPI(t)
	user := registerUser(t, router, "dave@example.com", "dave")

	rec := doJSON(t, router, http.MethodGet, "/signals/", user.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "null", rec.Body.String())
}

func TestExecutionNotFoundIsScopedToOwner(t *testing.T) {
	router, _ := setupAPI(t)
	user := registerUser(t, router, "erin@example.com", "erin")

	rec := doJSON(t, router, http.MethodGet, "/executions/"+uuid.New().String(), user.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSettingsRoundTrip(t *testing.T) {
	router, _ := setupAPI(t)
	user := registerUser(t, router, "frank@example.com", "frank")

	rec := doJSON(t, router, http.MethodGet, "/settings", user.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/settings", user.AccessToken, map[string]any{
		"ManualApproval":   false,
		"RiskPerTrade":     decimal.NewFromFloat(0.02),
		"MaxSlippagePips":  decimal.NewFromInt(15),
		"UseLimitOrders":   true,
		"DefaultSLPips":    decimal.NewFromInt(40),
		"MaxOpenPositions": 5,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestSystemStatusDelegatesToController(t *testing.T) {
	router, _ := setupAPI(t)
	user := registerUser(t, router, "grace@example.com", "grace")

	rec := doJSON(t, router, http.MethodGet, "/system/status", user.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"running"}`, rec.Body.String())
}
