package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nstehr/towerbot/agent"
	"github.com/nstehr/towerbot/model"
	"github.com/nstehr/towerbot/rules"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

func outcome(id string, kind agent.Kind, tier agent.Tier, reason agent.Reason, latency time.Duration) agent.Outcome {
	return agent.Outcome{
		ID:      id,
		GameID:  1,
		Turn:    3,
		Kind:    kind,
		Tier:    tier,
		Reason:  reason,
		Actions: 1,
		Latency: latency,
		At:      time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func reopen(t *testing.T, path string) *Journal {
	t.Helper()
	j, err := Open(path, 16)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndSummarize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal", "decisions.db")
	j, err := Open(path, 16)
	require.NoError(t, err)

	j.Record(outcome("a", agent.KindCombat, agent.TierAI, agent.ReasonNone, 100*time.Millisecond))
	j.Record(outcome("b", agent.KindCombat, agent.TierAI, agent.ReasonNone, 300*time.Millisecond))
	j.Record(outcome("c", agent.KindCombat, agent.TierFallback, agent.ReasonAdvisorTimeout, 800*time.Millisecond))
	bad := outcome("d", agent.KindNegotiate, agent.TierFallback, agent.ReasonActionSetInvalid, 5*time.Millisecond)
	bad.Violations = []rules.Violation{{Check: rules.CheckUniqueAllies, Detail: "ally 3 declared more than once"}}
	j.Record(bad)
	require.NoError(t, j.Close())

	j = reopen(t, path)
	summary, err := j.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []TierCount{
		{Kind: agent.KindCombat, Tier: agent.TierAI, Count: 2, AvgLatency: 200 * time.Millisecond},
		{Kind: agent.KindCombat, Tier: agent.TierFallback, Count: 1, AvgLatency: 800 * time.Millisecond},
		{Kind: agent.KindNegotiate, Tier: agent.TierFallback, Count: 1, AvgLatency: 5 * time.Millisecond},
	}, summary)

	reasons, err := j.Reasons(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[agent.Reason]int{
		agent.ReasonAdvisorTimeout:   1,
		agent.ReasonActionSetInvalid: 1,
	}, reasons)
}

func TestCloseIsIdempotent(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "decisions.db"), 4)
	require.NoError(t, err)

	require.NoError(t, j.Close())
	assert.NoError(t, j.Close())
	assert.NotPanics(t, func() {
		j.Record(outcome("late", agent.KindCombat, agent.TierAI, agent.ReasonNone, time.Millisecond))
	})
}

func TestEmptySummary(t *testing.T) {
	j := reopen(t, filepath.Join(t.TempDir(), "decisions.db"))

	summary, err := j.Summary(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summary)
}

func TestJournalAsRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.db")
	j, err := Open(path, 16)
	require.NoError(t, err)

	fb, err := rules.NewFallback(rules.DefaultDoctrine())
	require.NoError(t, err)
	st := agent.NewStrategist(nil, fb, 50*time.Millisecond).WithRecorder(j)
	req := model.CombatRequest{
		GameID:      9,
		Turn:        5,
		PlayerTower: model.Tower{PlayerID: 1, HP: 100, Resources: 50, Level: 2},
		EnemyTowers: []model.Tower{{PlayerID: 2, HP: 60, Level: 1}},
	}
	st.DecideCombat(context.Background(), req)
	st.DecideCombat(context.Background(), req)
	require.NoError(t, j.Close())

	j = reopen(t, path)
	summary, err := j.Summary(context.Background())
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, agent.TierFallback, summary[0].Tier)
	assert.Equal(t, 2, summary[0].Count)

	reasons, err := j.Reasons(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, reasons[agent.ReasonAdvisorDisabled])
	assert.Zero(t, j.Dropped())
}
