// Package broker defines the abstract order-execution contract (§4.6) that
// every concrete terminal transport must satisfy, independent of which
// broker-bridge microservice backs it.
package broker

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/signalbridge/platform/internal/domain"
)

// Quote is a bid/ask snapshot for one symbol, plus the symbol's allowed
// order-filling bitmask used by §4.6's fill-mode selection.
type Quote struct {
	Symbol      string
	Bid         decimal.Decimal
	Ask         decimal.Decimal
	FillingMode int
}

// Position mirrors one open position as reported by the broker terminal.
type Position struct {
	Ticket       int64
	Symbol       string
	Side         domain.Side
	Volume       decimal.Decimal
	OpenPrice    decimal.Decimal
	PriceCurrent decimal.Decimal
	ProfitLoss   decimal.Decimal
}

// HistoryDeal is one closed deal as reported by the broker terminal,
// keyed by the ticket of the position that generated it.
type HistoryDeal struct {
	Ticket     int64
	ClosePrice decimal.Decimal
	ProfitLoss decimal.Decimal
	CloseTime  string
}

// AccountInfo is the broker account summary (§6 "/account/info").
type AccountInfo struct {
	Login    string
	Balance  decimal.Decimal
	Equity   decimal.Decimal
	Currency string
}

// OrderRequest is the common shape for market and limit order placement.
type OrderRequest struct {
	Symbol   string
	Side     domain.Side
	Volume   decimal.Decimal
	Price    *decimal.Decimal // required for limit orders, nil for market
	StopLoss *decimal.Decimal
	TakeProfit *decimal.Decimal
}

// OrderResult is returned by a successful market_order/limit_order call.
type OrderResult struct {
	Ticket     int64
	FillPrice  decimal.Decimal
	FilledAt   string
}

// Credentials carries the decrypted secrets a connect() call needs; the
// caller retrieves these from the Credential Vault and never persists them
// itself.
type Credentials struct {
	Login    string
	Password string
	Server   string
	APIKey   string
}

// Adapter is the abstract broker-terminal operation contract of §4.6.
// Concrete implementations translate these calls into one broker-bridge
// microservice's wire protocol.
type Adapter interface {
	Connect(ctx context.Context, creds Credentials) error
	Disconnect(ctx context.Context) error

	MarketOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
	LimitOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
	ClosePosition(ctx context.Context, ticket int64) error
	ModifyPosition(ctx context.Context, ticket int64, sl, tp *decimal.Decimal) error

	Quote(ctx context.Context, symbol string) (Quote, error)
	ListPositions(ctx context.Context) ([]Position, error)
	HistoryDeal(ctx context.Context, ticket int64) (HistoryDeal, error)
	AccountInfo(ctx context.Context) (AccountInfo, error)
}

// Registry resolves the adapter instance bound to one broker account,
// keyed by account id so the Execution Engine and the Position
// Synchronizer share a single connected session per account.
type Registry interface {
	Adapter(ctx context.Context, accountID uuid.UUID) (Adapter, error)
}
