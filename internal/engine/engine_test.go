package engine

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANPalert-art/Port-rep/internal/models"
	"github.com/ANPalert-art/Port-rep/internal/state"
)

var testStart = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

func newTestEngine(clock *time.Time) *Engine {
	e := New(DefaultStaleCutoff, discardLogger())
	e.Clock = func() time.Time { return *clock }
	return e
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func obs(registry, callSeq, status, port string) models.VesselObservation {
	return models.VesselObservation{
		Identity: models.NewIdentity(registry, callSeq),
		Status:   models.ParseStatus(status),
		PortCode: port,
		Name:     "MV " + registry,
		Agent:    "AGENCE " + registry,
	}
}

func tracked(o models.VesselObservation, at time.Time) *models.TrackedVessel {
	return &models.TrackedVessel{
		Identity:          o.Identity,
		CurrentStatus:     o.Status,
		FirstSeenAt:       at,
		LastUpdatedAt:     at,
		LastSeenAt:        at,
		LatestObservation: o,
	}
}

func TestTimerAttributionOnTransition(t *testing.T) {
	// Worked example: anchorage at T, observed at berth at T+2h, observed
	// departed at T+5h.
	x1 := obs("X", "1", "EN RADE", "07")
	st := state.NewState()
	st.Active[x1.Identity] = tracked(x1, testStart)

	now := testStart.Add(2 * time.Hour)
	eng := newTestEngine(&now)

	res := eng.Reconcile(st, []models.VesselObservation{obs("X", "1", "A QUAI", "07")})
	require.Empty(t, res.Completed)

	tv := st.Active[x1.Identity]
	require.NotNil(t, tv)
	assert.InDelta(t, 2.0, tv.AnchorageHours, 1e-9)
	assert.InDelta(t, 0.0, tv.BerthHours, 1e-9)
	assert.Equal(t, models.StatusAtBerth, tv.CurrentStatus.Code)
	assert.Equal(t, now, tv.LastUpdatedAt)

	now = testStart.Add(5 * time.Hour)
	res = eng.Reconcile(st, []models.VesselObservation{obs("X", "1", "APPAREILLAGE", "07")})

	require.Len(t, res.Completed, 1)
	rec := res.Completed[0]
	assert.InDelta(t, 2.0, rec.AnchorageHours, 1e-9)
	assert.InDelta(t, 3.0, rec.BerthHours, 1e-9)
	assert.Equal(t, testStart, rec.ArrivedAt)
	assert.Equal(t, now, rec.DepartedAt)
	assert.NotContains(t, st.Active, x1.Identity)
	assert.Len(t, st.History, 1)
}

func TestAccumulatorsMonotonic(t *testing.T) {
	x1 := obs("X", "1", "EN RADE", "07")
	st := state.NewState()
	st.Active[x1.Identity] = tracked(x1, testStart)

	now := testStart
	eng := newTestEngine(&now)

	statuses := []string{"EN RADE", "EN RADE", "A QUAI", "ZARBA", "A QUAI", "EN RADE"}
	var prevAnchorage, prevBerth float64
	for i, status := range statuses {
		now = testStart.Add(time.Duration(i+1) * time.Hour)
		eng.Reconcile(st, []models.VesselObservation{obs("X", "1", status, "07")})

		tv := st.Active[x1.Identity]
		require.NotNil(t, tv)
		assert.GreaterOrEqual(t, tv.AnchorageHours, prevAnchorage)
		assert.GreaterOrEqual(t, tv.BerthHours, prevBerth)
		prevAnchorage, prevBerth = tv.AnchorageHours, tv.BerthHours
	}
}

func TestFeedGapDoesNotInflateAccumulators(t *testing.T) {
	x1 := obs("X", "1", "EN RADE", "07")
	st := state.NewState()
	st.Active[x1.Identity] = tracked(x1, testStart)

	now := testStart.Add(2 * time.Hour)
	eng := newTestEngine(&now)

	// Vessel disappears from the feed for one cycle.
	eng.Reconcile(st, nil)
	tv := st.Active[x1.Identity]
	require.NotNil(t, tv)
	assert.InDelta(t, 0.0, tv.AnchorageHours, 1e-9)
	assert.Equal(t, testStart, tv.LastSeenAt, "absence must not refresh last seen")

	// Reappears two hours later: only the post-gap interval is credited.
	now = testStart.Add(4 * time.Hour)
	eng.Reconcile(st, []models.VesselObservation{obs("X", "1", "EN RADE", "07")})

	tv = st.Active[x1.Identity]
	require.NotNil(t, tv)
	assert.InDelta(t, 2.0, tv.AnchorageHours, 1e-9)
	assert.Equal(t, now, tv.LastSeenAt)
}

func TestCompletionUnconditionalOnPriorStatus(t *testing.T) {
	// A call can jump straight from planned to departed.
	x1 := obs("X", "1", "PREVU", "07")
	st := state.NewState()
	st.Active[x1.Identity] = tracked(x1, testStart)

	now := testStart.Add(time.Hour)
	eng := newTestEngine(&now)
	res := eng.Reconcile(st, []models.VesselObservation{obs("X", "1", "APPAREILLAGE", "07")})

	require.Len(t, res.Completed, 1)
	assert.InDelta(t, 0.0, res.Completed[0].AnchorageHours, 1e-9)
	assert.InDelta(t, 0.0, res.Completed[0].BerthHours, 1e-9)
	assert.Empty(t, st.Active)
}

func TestCompletedIdentityNotReadopted(t *testing.T) {
	x1 := obs("X", "1", "A QUAI", "07")
	st := state.NewState()
	st.Active[x1.Identity] = tracked(x1, testStart)

	now := testStart.Add(time.Hour)
	eng := newTestEngine(&now)
	res := eng.Reconcile(st, []models.VesselObservation{obs("X", "1", "APPAREILLAGE", "07")})

	require.Len(t, res.Completed, 1)
	assert.NotContains(t, st.Active, x1.Identity)
	assert.Zero(t, res.Adopted)
}

func TestColdStartSuppressesMidLifecycleCalls(t *testing.T) {
	st := state.NewState()
	now := testStart
	eng := newTestEngine(&now)

	res := eng.Reconcile(st, []models.VesselObservation{
		obs("A", "1", "A QUAI", "07"),
		obs("B", "1", "PREVU", "07"),
	})

	// The in-progress call is skipped, the planned one adopted and alerted.
	assert.NotContains(t, st.Active, models.NewIdentity("A", "1"))
	assert.Contains(t, st.Active, models.NewIdentity("B", "1"))
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Adopted)
	require.Len(t, res.Alerts["07"], 1)
	assert.Equal(t, models.NewIdentity("B", "1"), res.Alerts["07"][0].Identity)
}

func TestWarmStartAdoptsMidLifecycleCalls(t *testing.T) {
	existing := obs("X", "1", "EN RADE", "07")
	st := state.NewState()
	st.Active[existing.Identity] = tracked(existing, testStart)

	now := testStart.Add(time.Hour)
	eng := newTestEngine(&now)
	res := eng.Reconcile(st, []models.VesselObservation{
		obs("X", "1", "EN RADE", "07"),
		obs("C", "9", "A QUAI", "07"),
	})

	tv := st.Active[models.NewIdentity("C", "9")]
	require.NotNil(t, tv)
	assert.Zero(t, tv.AnchorageHours)
	assert.Zero(t, tv.BerthHours)
	assert.Equal(t, now, tv.FirstSeenAt)
	assert.Equal(t, 1, res.Adopted)
	// Mid-lifecycle adoptions are not planned-arrival alert candidates.
	assert.Empty(t, res.Alerts)
}

func TestAlertsGroupedByPort(t *testing.T) {
	existing := obs("X", "1", "EN RADE", "07")
	st := state.NewState()
	st.Active[existing.Identity] = tracked(existing, testStart)

	now := testStart.Add(time.Hour)
	eng := newTestEngine(&now)
	res := eng.Reconcile(st, []models.VesselObservation{
		obs("X", "1", "EN RADE", "07"),
		obs("P", "1", "PREVU", "07"),
		obs("Q", "1", "PREVU", "03"),
		obs("R", "1", "PREVU", "03"),
	})

	assert.Len(t, res.Alerts["07"], 1)
	assert.Len(t, res.Alerts["03"], 2)
}

func TestEvictionWithoutHistoryRecord(t *testing.T) {
	stale := obs("S", "1", "EN RADE", "07")
	st := state.NewState()
	st.Active[stale.Identity] = tracked(stale, testStart.Add(-4*24*time.Hour))

	now := testStart
	eng := newTestEngine(&now)
	res := eng.Reconcile(st, nil)

	assert.NotContains(t, st.Active, stale.Identity)
	assert.Equal(t, 1, res.Evicted)
	assert.Empty(t, res.Completed)
	assert.Empty(t, st.History)
}

func TestRecentlySeenNotEvicted(t *testing.T) {
	fresh := obs("F", "1", "EN RADE", "07")
	st := state.NewState()
	st.Active[fresh.Identity] = tracked(fresh, testStart.Add(-2*24*time.Hour))

	now := testStart
	eng := newTestEngine(&now)
	res := eng.Reconcile(st, nil)

	assert.Contains(t, st.Active, fresh.Identity)
	assert.Zero(t, res.Evicted)
}

func TestUnknownStatusAccumulatesNothing(t *testing.T) {
	x1 := obs("X", "1", "ZARBA", "07")
	st := state.NewState()
	st.Active[x1.Identity] = tracked(x1, testStart)

	now := testStart.Add(3 * time.Hour)
	eng := newTestEngine(&now)
	eng.Reconcile(st, []models.VesselObservation{obs("X", "1", "A QUAI", "07")})

	tv := st.Active[x1.Identity]
	require.NotNil(t, tv)
	assert.Zero(t, tv.AnchorageHours)
	assert.Zero(t, tv.BerthHours)
	assert.Equal(t, models.StatusAtBerth, tv.CurrentStatus.Code)
}
