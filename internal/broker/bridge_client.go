package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/signalbridge/platform/internal/apperr"
	"github.com/signalbridge/platform/internal/domain"
)

// serviceResponse is the standard envelope returned by the broker-bridge
// microservice for every call.
type serviceResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
}

// BridgeClient talks to an HTTP broker-bridge microservice that fronts one
// terminal connection (MT5, cTrader, or similar) over a small JSON API.
// This is the one concrete Adapter shipped in-tree; other transports are
// explicitly out of scope per SPEC_FULL.md §1.
type BridgeClient struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
	session string // opaque session token returned by connect()
}

func NewBridgeClient(baseURL string, log zerolog.Logger) *BridgeClient {
	return &BridgeClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log.With().Str("client", "broker-bridge").Logger(),
	}
}

func (c *BridgeClient) Connect(ctx context.Context, creds Credentials) error {
	resp, err := c.post(ctx, "/connect", map[string]string{
		"login":    creds.Login,
		"password": creds.Password,
		"server":   creds.Server,
		"api_key":  creds.APIKey,
	})
	if err != nil {
		return err
	}
	var payload struct {
		Session string `json:"session"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return apperr.Broker("malformed connect response", err)
	}
	c.session = payload.Session
	return nil
}

func (c *BridgeClient) Disconnect(ctx context.Context) error {
	_, err := c.post(ctx, "/disconnect", map[string]string{"session": c.session})
	c.session = ""
	return err
}

// MarketOrder resolves the symbol's fill mode client-side per §4.6 (prefer
// FOK, then IOC, else RETURN) before placing the order.
func (c *BridgeClient) MarketOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	quote, err := c.Quote(ctx, req.Symbol)
	if err != nil {
		return OrderResult{}, err
	}
	return c.placeOrder(ctx, "/market_order", req, ResolveFillMode(quote.FillingMode))
}

// LimitOrder always rests on the book, so it always uses RETURN.
func (c *BridgeClient) LimitOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	return c.placeOrder(ctx, "/limit_order", req, FillModeReturn)
}

func (c *BridgeClient) placeOrder(ctx context.Context, endpoint string, req OrderRequest, fillMode FillMode) (OrderResult, error) {
	body := map[string]any{
		"session":      c.session,
		"symbol":       req.Symbol,
		"side":         req.Side,
		"volume":       req.Volume.String(),
		"filling_mode": string(fillMode),
	}
	if req.Price != nil {
		body["price"] = req.Price.String()
	}
	if req.StopLoss != nil {
		body["stop_loss"] = req.StopLoss.String()
	}
	if req.TakeProfit != nil {
		body["take_profit"] = req.TakeProfit.String()
	}

	resp, err := c.post(ctx, endpoint, body)
	if err != nil {
		return OrderResult{}, err
	}

	var payload struct {
		Ticket    int64  `json:"ticket"`
		FillPrice string `json:"fill_price"`
		FilledAt  string `json:"filled_at"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return OrderResult{}, apperr.Broker("malformed order response", err)
	}
	fillPrice, err := decimal.NewFromString(payload.FillPrice)
	if err != nil {
		return OrderResult{}, apperr.Broker("malformed fill price", err)
	}
	return OrderResult{Ticket: payload.Ticket, FillPrice: fillPrice, FilledAt: payload.FilledAt}, nil
}

func (c *BridgeClient) ClosePosition(ctx context.Context, ticket int64) error {
	_, err := c.post(ctx, "/close_position", map[string]any{"session": c.session, "ticket": ticket})
	return err
}

func (c *BridgeClient) ModifyPosition(ctx context.Context, ticket int64, sl, tp *decimal.Decimal) error {
	body := map[string]any{"session": c.session, "ticket": ticket}
	if sl != nil {
		body["stop_loss"] = sl.String()
	}
	if tp != nil {
		body["take_profit"] = tp.String()
	}
	_, err := c.post(ctx, "/modify_position", body)
	return err
}

func (c *BridgeClient) Quote(ctx context.Context, symbol string) (Quote, error) {
	resp, err := c.get(ctx, "/quote?symbol="+symbol)
	if err != nil {
		return Quote{}, err
	}
	var payload struct {
		Bid         string `json:"bid"`
		Ask         string `json:"ask"`
		FillingMode int    `json:"filling_mode"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return Quote{}, apperr.Broker("malformed quote response", err)
	}
	bid, err := decimal.NewFromString(payload.Bid)
	if err != nil {
		return Quote{}, apperr.Broker("malformed bid", err)
	}
	ask, err := decimal.NewFromString(payload.Ask)
	if err != nil {
		return Quote{}, apperr.Broker("malformed ask", err)
	}
	return Quote{Symbol: symbol, Bid: bid, Ask: ask, FillingMode: payload.FillingMode}, nil
}

func (c *BridgeClient) ListPositions(ctx context.Context) ([]Position, error) {
	resp, err := c.post(ctx, "/list_positions", map[string]string{"session": c.session})
	if err != nil {
		return nil, err
	}
	var raw []struct {
		Ticket       int64  `json:"ticket"`
		Symbol       string `json:"symbol"`
		Side         string `json:"side"`
		Volume       string `json:"volume"`
		OpenPrice    string `json:"open_price"`
		PriceCurrent string `json:"price_current"`
		ProfitLoss   string `json:"profit_loss"`
	}
	if err := json.Unmarshal(resp.Data, &raw); err != nil {
		return nil, apperr.Broker("malformed positions response", err)
	}

	positions := make([]Position, 0, len(raw))
	for _, r := range raw {
		p := Position{Ticket: r.Ticket, Symbol: r.Symbol, Side: domain.Side(r.Side)}
		var decErr error
		if p.Volume, decErr = decimal.NewFromString(r.Volume); decErr != nil {
			return nil, apperr.Broker("malformed position volume", decErr)
		}
		if p.OpenPrice, decErr = decimal.NewFromString(r.OpenPrice); decErr != nil {
			return nil, apperr.Broker("malformed position open price", decErr)
		}
		if p.PriceCurrent, decErr = decimal.NewFromString(r.PriceCurrent); decErr != nil {
			return nil, apperr.Broker("malformed position current price", decErr)
		}
		if p.ProfitLoss, decErr = decimal.NewFromString(r.ProfitLoss); decErr != nil {
			return nil, apperr.Broker("malformed position profit/loss", decErr)
		}
		positions = append(positions, p)
	}
	return positions, nil
}

func (c *BridgeClient) HistoryDeal(ctx context.Context, ticket int64) (HistoryDeal, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/history_deal?ticket=%d", ticket))
	if err != nil {
		return HistoryDeal{}, err
	}
	var payload struct {
		ClosePrice string `json:"close_price"`
		ProfitLoss string `json:"profit_loss"`
		CloseTime  string `json:"close_time"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return HistoryDeal{}, apperr.Broker("malformed history deal response", err)
	}
	closePrice, err := decimal.NewFromString(payload.ClosePrice)
	if err != nil {
		return HistoryDeal{}, apperr.Broker("malformed close price", err)
	}
	profitLoss, err := decimal.NewFromString(payload.ProfitLoss)
	if err != nil {
		return HistoryDeal{}, apperr.Broker("malformed profit/loss", err)
	}
	return HistoryDeal{Ticket: ticket, ClosePrice: closePrice, ProfitLoss: profitLoss, CloseTime: payload.CloseTime}, nil
}

func (c *BridgeClient) AccountInfo(ctx context.Context) (AccountInfo, error) {
	resp, err := c.post(ctx, "/account_info", map[string]string{"session": c.session})
	if err != nil {
		return AccountInfo{}, err
	}
	var payload struct {
		Login    string `json:"login"`
		Balance  string `json:"balance"`
		Equity   string `json:"equity"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return AccountInfo{}, apperr.Broker("malformed account info response", err)
	}
	balance, err := decimal.NewFromString(payload.Balance)
	if err != nil {
		return AccountInfo{}, apperr.Broker("malformed balance", err)
	}
	equity, err := decimal.NewFromString(payload.Equity)
	if err != nil {
		return AccountInfo{}, apperr.Broker("malformed equity", err)
	}
	return AccountInfo{Login: payload.Login, Balance: balance, Equity: equity, Currency: payload.Currency}, nil
}

func (c *BridgeClient) post(ctx context.Context, endpoint string, body any) (*serviceResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperr.Broker("failed to marshal request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, apperr.Broker("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *BridgeClient) get(ctx context.Context, endpoint string) (*serviceResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, apperr.Broker("failed to build request", err)
	}
	return c.do(req)
}

func (c *BridgeClient) do(req *http.Request) (*serviceResponse, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.TransientSync("broker bridge request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.TransientSync("failed to read broker bridge response", err)
	}

	var result serviceResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, apperr.Broker("failed to parse broker bridge response", err)
	}
	if !result.Success {
		msg := "unknown broker bridge error"
		if result.Error != nil {
			msg = *result.Error
		}
		return nil, apperr.Broker(msg, nil)
	}
	return &result, nil
}
