package execution

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalbridge/platform/internal/domain"
)

func TestBuildExecutions_GoldMultiTPFanOut(t *testing.T) {
	side := domain.SideSell
	symbol := "XAUUSD"
	sl := decimal.NewFromFloat(4609.5)
	low := decimal.NewFromFloat(4601.5)
	high := decimal.NewFromFloat(4605.5)

	tps := []decimal.Decimal{
		decimal.NewFromInt(4600), decimal.NewFromInt(4598), decimal.NewFromInt(4596),
		decimal.NewFromInt(4594), decimal.NewFromInt(4592), decimal.NewFromInt(4588),
		decimal.NewFromInt(4583),
	}

	signal := domain.Signal{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Extracted: domain.ExtractedSignal{
			Category:       domain.CategoryActionableSignal,
			Symbol:         &symbol,
			Side:           &side,
			EntryRangeLow:  &low,
			EntryRangeHigh: &high,
			StopLoss:       &sl,
			TakeProfits:    tps,
		},
	}
	prefs := domain.Preferences{RiskPerTrade: decimal.NewFromInt(1), ManualApproval: false}

	executions := buildExecutions(signal, prefs, uuid.New(), false)

	require.Len(t, executions, 7)
	for _, ex := range executions {
		assert.Equal(t, domain.StatePending, ex.State)
		assert.True(t, ex.Volume.Equal(decimal.NewFromFloat(0.14)), "volume=%s", ex.Volume)
	}
}

func TestBuildExecutions_NoTPsUsesSingleNilTarget(t *testing.T) {
	signal := domain.Signal{
		Extracted: domain.ExtractedSignal{Category: domain.CategoryActionableSignal},
	}
	prefs := domain.Preferences{RiskPerTrade: decimal.NewFromFloat(0.02)}

	executions := buildExecutions(signal, prefs, uuid.New(), true)

	require.Len(t, executions, 1)
	assert.Nil(t, executions[0].PlannedTP)
	assert.Equal(t, domain.StatePendingApproval, executions[0].State)
}

func TestPerExecutionVolume_ClampsToMinimum(t *testing.T) {
	vol := perExecutionVolume(decimal.NewFromFloat(0.01), 5)
	assert.True(t, vol.Equal(decimal.NewFromFloat(0.01)))
}
