// Package report reduces completed port calls into per-agent and per-port
// turnaround statistics, and compacts the live history window into the
// durable archive.
package report

import (
	"sort"
	"strings"

	"github.com/ANPalert-art/Port-rep/internal/models"
)

// UnknownAgent is the sentinel bucket for records with no agent name.
const UnknownAgent = "AGENT INCONNU"

// Qualitative turnaround tiers, assigned from fixed thresholds on the
// average anchorage and berth hours of an agent's calls.
const (
	NoteExcellent = "Très performant"
	NoteGood      = "Performant"
	NoteModerate  = "Moyen"
	NoteSlow      = "Lent"
)

// Overall is the aggregate across every record in the slice.
type Overall struct {
	Calls             int     `json:"calls"`
	AvgAnchorageHours float64 `json:"avg_anchorage_hours"`
	AvgBerthHours     float64 `json:"avg_berth_hours"`
}

// AgentStat is one agent's aggregate. Derived on every report, never
// persisted.
type AgentStat struct {
	Agent             string  `json:"agent"`
	Calls             int     `json:"calls"`
	AvgAnchorageHours float64 `json:"avg_anchorage_hours"`
	AvgBerthHours     float64 `json:"avg_berth_hours"`
	Note              string  `json:"note"`
}

// Aggregate reduces a history slice into overall and per-agent statistics.
// Empty input yields zero averages. Agents are ordered by descending call
// count, ties broken by first appearance in the input.
func Aggregate(records []models.HistoryRecord) (Overall, []AgentStat) {
	overall := Overall{Calls: len(records)}
	if len(records) == 0 {
		return overall, nil
	}

	type bucket struct {
		calls        int
		sumAnchorage float64
		sumBerth     float64
	}
	buckets := make(map[string]*bucket)
	var order []string

	var sumAnchorage, sumBerth float64
	for _, rec := range records {
		sumAnchorage += rec.AnchorageHours
		sumBerth += rec.BerthHours

		agent := strings.TrimSpace(rec.Agent)
		if agent == "" {
			agent = UnknownAgent
		}
		b, ok := buckets[agent]
		if !ok {
			b = &bucket{}
			buckets[agent] = b
			order = append(order, agent)
		}
		b.calls++
		b.sumAnchorage += rec.AnchorageHours
		b.sumBerth += rec.BerthHours
	}

	n := float64(len(records))
	overall.AvgAnchorageHours = sumAnchorage / n
	overall.AvgBerthHours = sumBerth / n

	stats := make([]AgentStat, 0, len(order))
	for _, agent := range order {
		b := buckets[agent]
		avgAnchorage := b.sumAnchorage / float64(b.calls)
		avgBerth := b.sumBerth / float64(b.calls)
		stats = append(stats, AgentStat{
			Agent:             agent,
			Calls:             b.calls,
			AvgAnchorageHours: avgAnchorage,
			AvgBerthHours:     avgBerth,
			Note:              classify(avgAnchorage, avgBerth),
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Calls > stats[j].Calls
	})

	return overall, stats
}

// FilterPort returns the records belonging to one port code.
func FilterPort(records []models.HistoryRecord, portCode string) []models.HistoryRecord {
	var out []models.HistoryRecord
	for _, rec := range records {
		if rec.PortCode == portCode {
			out = append(out, rec)
		}
	}
	return out
}

func classify(avgAnchorage, avgBerth float64) string {
	switch {
	case avgAnchorage < 5 && avgBerth < 24:
		return NoteExcellent
	case avgAnchorage < 10 && avgBerth < 36:
		return NoteGood
	case avgAnchorage < 24:
		return NoteModerate
	default:
		return NoteSlow
	}
}
