// Package engine implements the port-call lifecycle state machine: it
// reconciles each fetched batch against the tracked active set, attributes
// elapsed time to anchorage/berth accumulators, converts completed calls
// into history records, and evicts stale entries.
package engine

import (
	"log/slog"
	"time"

	"github.com/ANPalert-art/Port-rep/internal/models"
	"github.com/ANPalert-art/Port-rep/internal/state"
)

// DefaultStaleCutoff is how long a tracked call may go unobserved before
// it is dropped as abandoned.
const DefaultStaleCutoff = 72 * time.Hour

// Engine drives one reconciliation cycle. Clock is swappable for tests.
type Engine struct {
	Clock func() time.Time

	stale  time.Duration
	logger *slog.Logger
}

// New creates an engine with the given staleness cutoff.
func New(stale time.Duration, logger *slog.Logger) *Engine {
	if stale <= 0 {
		stale = DefaultStaleCutoff
	}
	return &Engine{
		Clock:  time.Now,
		stale:  stale,
		logger: logger.With("component", "engine"),
	}
}

// Result summarizes one reconciliation cycle. Completed records have
// already been appended to the state's history; Alerts maps port code to
// the newly planned observations that should be announced.
type Result struct {
	Completed []models.HistoryRecord
	Alerts    map[string][]models.VesselObservation

	Ticked  int
	Adopted int
	Skipped int
	Evicted int
}

// Reconcile ingests one normalized batch against the active set. The state
// is left fully updated; the caller persists it and dispatches alerts.
//
// Time attribution is retroactive: the interval since the last tick is
// credited to the status the vessel held at the start of the interval, not
// the one it is entering. Coarse polling biases boundary intervals toward
// the pre-transition status; this matches the historical behaviour of the
// monitor and is kept deliberately.
func (e *Engine) Reconcile(st *state.State, batch []models.VesselObservation) Result {
	now := e.Clock()
	coldStart := len(st.Active) == 0

	byID := make(map[models.Identity]models.VesselObservation, len(batch))
	for _, obs := range batch {
		byID[obs.Identity] = obs
	}

	res := Result{Alerts: make(map[string][]models.VesselObservation)}
	completed := make(map[models.Identity]struct{})
	var toRemove []models.Identity

	// Reconciliation pass over every tracked call.
	for id, tv := range st.Active {
		obs, present := byID[id]
		if !present {
			// Feed gap: never attribute the interval to any accumulator.
			// The timer reference still advances so a reappearance only
			// accounts for the latest interval, while LastSeenAt keeps
			// aging toward eviction.
			tv.LastUpdatedAt = now
			continue
		}

		elapsed := now.Sub(tv.LastUpdatedAt).Hours()
		if elapsed < 0 {
			elapsed = 0
		}
		switch tv.CurrentStatus.Code {
		case models.StatusAtAnchorage:
			tv.AnchorageHours += elapsed
		case models.StatusAtBerth:
			tv.BerthHours += elapsed
		}

		prev := tv.CurrentStatus
		tv.CurrentStatus = obs.Status
		tv.LastUpdatedAt = now
		tv.LastSeenAt = now
		tv.LatestObservation = obs
		res.Ticked++

		if prev.Code != obs.Status.Code {
			e.logger.Info("status_changed",
				"identity", id.String(),
				"vessel", obs.Name,
				"from", prev.Code.String(),
				"to", obs.Status.Code.String(),
			)
		}

		// Completion is unconditional on reaching a completion status,
		// whatever the call transitioned from.
		if obs.Status.Code == models.StatusCompleted {
			rec := models.HistoryRecord{
				Vessel:         obs.Name,
				Agent:          obs.Agent,
				PortCode:       obs.PortCode,
				AnchorageHours: tv.AnchorageHours,
				BerthHours:     tv.BerthHours,
				ArrivedAt:      tv.FirstSeenAt,
				DepartedAt:     now,
			}
			st.History = append(st.History, rec)
			res.Completed = append(res.Completed, rec)
			completed[id] = struct{}{}
			toRemove = append(toRemove, id)
			e.logger.Info("call_completed",
				"identity", id.String(),
				"vessel", obs.Name,
				"anchorage_hours", tv.AnchorageHours,
				"berth_hours", tv.BerthHours,
			)
		}
	}

	for _, id := range toRemove {
		delete(st.Active, id)
	}

	// New-arrival pass. Identities completed this cycle are not
	// re-adopted from the same batch.
	for _, obs := range batch {
		if _, tracked := st.Active[obs.Identity]; tracked {
			continue
		}
		if _, done := completed[obs.Identity]; done {
			continue
		}
		if coldStart && obs.Status.Code != models.StatusPlanned {
			// With no prior state, a mid-lifecycle call would be adopted
			// with fabricated zero durations. Skip it; it will be picked
			// up on its next call.
			res.Skipped++
			e.logger.Debug("cold_start_skip",
				"identity", obs.Identity.String(),
				"status", obs.Status.Raw,
			)
			continue
		}

		st.Active[obs.Identity] = &models.TrackedVessel{
			Identity:          obs.Identity,
			CurrentStatus:     obs.Status,
			FirstSeenAt:       now,
			LastUpdatedAt:     now,
			LastSeenAt:        now,
			LatestObservation: obs,
		}
		res.Adopted++

		if obs.Status.Code == models.StatusPlanned {
			res.Alerts[obs.PortCode] = append(res.Alerts[obs.PortCode], obs)
		}
	}

	// Eviction pass: calls unseen past the cutoff are abandoned, not
	// completed — no history record.
	cutoff := now.Add(-e.stale)
	for id, tv := range st.Active {
		if tv.LastSeenAt.Before(cutoff) {
			delete(st.Active, id)
			res.Evicted++
			e.logger.Info("call_evicted",
				"identity", id.String(),
				"vessel", tv.LatestObservation.Name,
				"last_seen_at", tv.LastSeenAt,
			)
		}
	}

	return res
}
