package repository

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/signalbridge/platform/internal/database"
	"github.com/signalbridge/platform/internal/domain"
)

// PreferencesRepository persists domain.Preferences, materializing defaults
// on first read (§3).
type PreferencesRepository struct {
	db *database.DB
}

func (r *PreferencesRepository) Get(userID uuid.UUID) (domain.Preferences, error) {
	row := r.db.QueryRow(
		`SELECT manual_approval, risk_per_trade, max_slippage_pips, use_limit_orders, default_sl_pips, max_open_positions
		 FROM preferences WHERE user_id = ?`,
		userID.String(),
	)

	var manualApproval, useLimitOrders int
	var riskPerTrade, maxSlippage, defaultSL string
	var maxOpen int
	err := row.Scan(&manualApproval, &riskPerTrade, &maxSlippage, &useLimitOrders, &defaultSL, &maxOpen)
	if errors.Is(err, sql.ErrNoRows) {
		defaults := domain.DefaultPreferences(userID)
		if err := r.Upsert(defaults); err != nil {
			return domain.Preferences{}, err
		}
		return defaults, nil
	}
	if err != nil {
		return domain.Preferences{}, err
	}

	risk, err := decimal.NewFromString(riskPerTrade)
	if err != nil {
		return domain.Preferences{}, err
	}
	slippage, err := decimal.NewFromString(maxSlippage)
	if err != nil {
		return domain.Preferences{}, err
	}
	sl, err := decimal.NewFromString(defaultSL)
	if err != nil {
		return domain.Preferences{}, err
	}

	return domain.Preferences{
		UserID:           userID,
		ManualApproval:   manualApproval != 0,
		RiskPerTrade:     risk,
		MaxSlippagePips:  slippage,
		UseLimitOrders:   useLimitOrders != 0,
		DefaultSLPips:    sl,
		MaxOpenPositions: maxOpen,
	}, nil
}

func (r *PreferencesRepository) Upsert(p domain.Preferences) error {
	_, err := r.db.Exec(
		`INSERT INTO preferences (user_id, manual_approval, risk_per_trade, max_slippage_pips, use_limit_orders, default_sl_pips, max_open_positions)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   manual_approval = excluded.manual_approval,
		   risk_per_trade = excluded.risk_per_trade,
		   max_slippage_pips = excluded.max_slippage_pips,
		   use_limit_orders = excluded.use_limit_orders,
		   default_sl_pips = excluded.default_sl_pips,
		   max_open_positions = excluded.max_open_positions`,
		p.UserID.String(), boolToInt(p.ManualApproval), p.RiskPerTrade.String(), p.MaxSlippagePips.String(),
		boolToInt(p.UseLimitOrders), p.DefaultSLPips.String(), p.MaxOpenPositions,
	)
	return err
}
