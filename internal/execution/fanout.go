package execution

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/signalbridge/platform/internal/domain"
)

var minVolume = decimal.NewFromFloat(0.01)

// takeProfitTargets implements the §4.3 fan-out rule's TP list: non-empty
// take_profits, else the single take_profit wrapped in a list, else one nil
// target (a TP-less Execution, e.g. an SL-only signal).
func takeProfitTargets(extracted domain.ExtractedSignal) []*decimal.Decimal {
	if len(extracted.TakeProfits) > 0 {
		targets := make([]*decimal.Decimal, len(extracted.TakeProfits))
		for i := range extracted.TakeProfits {
			tp := extracted.TakeProfits[i]
			targets[i] = &tp
		}
		return targets
	}
	return []*decimal.Decimal{nil}
}

// perExecutionVolume computes round(risk_per_trade / n, 2), clamped to a
// minimum of 0.01 lots.
func perExecutionVolume(riskPerTrade decimal.Decimal, n int) decimal.Decimal {
	if n <= 0 {
		n = 1
	}
	vol := riskPerTrade.Div(decimal.NewFromInt(int64(n))).Round(2)
	if vol.LessThan(minVolume) {
		return minVolume
	}
	return vol
}

// buildExecutions constructs the (not-yet-persisted) Execution rows for one
// actionable Signal, per §4.3's fan-out rule. The initial state is PENDING
// on the auto path or PENDING_APPROVAL when manual approval is required and
// this is not a resume.
func buildExecutions(signal domain.Signal, prefs domain.Preferences, brokerID uuid.UUID, requiresApproval bool) []domain.Execution {
	extracted := signal.Extracted
	targets := takeProfitTargets(extracted)
	volume := perExecutionVolume(prefs.RiskPerTrade, len(targets))

	initialState := domain.StatePending
	if requiresApproval {
		initialState = domain.StatePendingApproval
	}

	side := domain.SideBuy
	if extracted.Side != nil {
		side = *extracted.Side
	}
	symbol := ""
	if extracted.Symbol != nil {
		symbol = *extracted.Symbol
	}

	executions := make([]domain.Execution, 0, len(targets))
	for _, tp := range targets {
		executions = append(executions, domain.Execution{
			ID:           uuid.New(),
			UserID:       signal.UserID,
			SignalID:     signal.ID,
			BrokerID:     brokerID,
			Symbol:       symbol,
			Side:         side,
			Volume:       volume,
			PlannedEntry: plannedEntry(extracted),
			PlannedSL:    extracted.StopLoss,
			PlannedTP:    tp,
			State:        initialState,
		})
	}
	return executions
}

func plannedEntry(extracted domain.ExtractedSignal) *decimal.Decimal {
	if extracted.Entry != nil {
		return extracted.Entry
	}
	if extracted.EntryRangeHigh != nil {
		// The entry-range case resolves its concrete order price at
		// placement time (§4.3 "Entry pricing policy"); the high bound is
		// recorded here only as a planning reference.
		return extracted.EntryRangeHigh
	}
	return nil
}
