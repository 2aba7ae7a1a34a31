// Package models defines the domain types shared across the monitor:
// vessel identities, canonical statuses, per-call tracking state and the
// completed-call history records they collapse into.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Sentinel identity components used when the feed omits a field. They keep
// the composite key non-empty so a malformed record never aborts a batch.
const (
	SentinelRegistry = "0000000"
	SentinelCallSeq  = "0"
)

// Identity is the composite key scoping one port call: hull registry
// (Lloyd's/IMO) number plus the port authority call sequence number. It is
// stable across a single call but not globally unique across calls.
type Identity struct {
	Registry string
	CallSeq  string
}

// NewIdentity builds an identity, substituting sentinel components for
// missing fields.
func NewIdentity(registry, callSeq string) Identity {
	registry = strings.TrimSpace(registry)
	callSeq = strings.TrimSpace(callSeq)
	if registry == "" {
		registry = SentinelRegistry
	}
	if callSeq == "" {
		callSeq = SentinelCallSeq
	}
	return Identity{Registry: registry, CallSeq: callSeq}
}

func (id Identity) String() string {
	return id.Registry + "-" + id.CallSeq
}

// MarshalText lets Identity act as a JSON map key in the persisted state
// while staying human-diffable ("<registry>-<callseq>").
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *Identity) UnmarshalText(text []byte) error {
	registry, callSeq, ok := strings.Cut(string(text), "-")
	if !ok {
		return fmt.Errorf("malformed identity key %q", string(text))
	}
	*id = NewIdentity(registry, callSeq)
	return nil
}

// VesselObservation is one normalized feed record for one cycle. It is
// ephemeral: the engine consumes a batch of observations and discards it.
type VesselObservation struct {
	Identity      Identity `json:"identity"`
	Status        Status   `json:"status"`
	PortCode      string   `json:"port_code"`
	Agent         string   `json:"agent,omitempty"`
	Name          string   `json:"name,omitempty"`
	Type          string   `json:"type,omitempty"`
	Origin        string   `json:"origin,omitempty"`
	ScheduledDate string   `json:"scheduled_date,omitempty"`
	ScheduledTime string   `json:"scheduled_time,omitempty"`
}

// TrackedVessel is the persistent record of one in-progress port call.
//
// AnchorageHours and BerthHours start at zero and only ever grow.
// LastUpdatedAt is the timer reference (last tick applied); LastSeenAt is
// the last time the identity appeared in a fetched batch and drives
// staleness eviction.
type TrackedVessel struct {
	Identity          Identity          `json:"identity"`
	CurrentStatus     Status            `json:"current_status"`
	FirstSeenAt       time.Time         `json:"first_seen_at"`
	LastUpdatedAt     time.Time         `json:"last_updated_at"`
	LastSeenAt        time.Time         `json:"last_seen_at"`
	AnchorageHours    float64           `json:"anchorage_hours"`
	BerthHours        float64           `json:"berth_hours"`
	LatestObservation VesselObservation `json:"latest_observation"`
}

// HistoryRecord is one completed port call. Immutable once appended.
type HistoryRecord struct {
	Vessel         string    `json:"vessel"`
	Agent          string    `json:"agent"`
	PortCode       string    `json:"port_code"`
	AnchorageHours float64   `json:"anchorage_hours"`
	BerthHours     float64   `json:"berth_hours"`
	ArrivedAt      time.Time `json:"arrived_at"`
	DepartedAt     time.Time `json:"departed_at"`
}
