package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANPalert-art/Port-rep/internal/models"
	"github.com/ANPalert-art/Port-rep/internal/report"
)

func TestPortName(t *testing.T) {
	assert.Equal(t, "Jorf Lasfar", PortName("07"))
	assert.Equal(t, "Safi", PortName("03"))
	assert.Equal(t, "Nador", PortName("06"))
	assert.Equal(t, "Port 12", PortName("12"))
}

func TestFormatFrenchDate(t *testing.T) {
	// 2026-01-05 23:30 UTC is Tuesday 00:30 in display time (UTC+1).
	d := time.Date(2026, 1, 5, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "Mardi, 06 janvier 2026", FormatFrenchDate(d))

	d = time.Date(2026, 8, 14, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "Vendredi, 14 août 2026", FormatFrenchDate(d))
}

func TestFormatVendorHelpers(t *testing.T) {
	assert.Equal(t, "N/A", formatVendorDate(""))
	assert.Equal(t, "N/A", formatVendorTime("not-a-date"))

	// 2023-11-14 22:13:20 UTC → 23:13 display time.
	assert.Equal(t, "23:13", formatVendorTime("/Date(1700000000000+0100)/"))
}

func TestRenderAlert(t *testing.T) {
	observations := []models.VesselObservation{
		{
			Identity: models.NewIdentity("9316141", "1024"),
			Status:   models.ParseStatus("PREVU"),
			PortCode: "07",
			Name:     "MV ATLANTIC",
			Agent:    "MARSA MAROC",
			Type:     "VRAQUIER",
			Origin:   "ROTTERDAM",
		},
		{
			Identity: models.NewIdentity("", ""),
			Status:   models.ParseStatus("PREVU"),
			PortCode: "07",
		},
	}

	subject, body, err := RenderAlert("07", observations)
	require.NoError(t, err)

	assert.Contains(t, subject, "MV ATLANTIC")
	assert.Contains(t, subject, "INCONNU")
	assert.Contains(t, subject, "Port de Jorf Lasfar")

	assert.Contains(t, body, "MV ATLANTIC")
	assert.Contains(t, body, "MARSA MAROC")
	assert.Contains(t, body, "9316141")
	assert.Contains(t, body, "ROTTERDAM")
	// Missing origin falls back to the French placeholder.
	assert.Contains(t, body, "Inconnue")
	assert.True(t, strings.HasPrefix(body, "<p"))
}

func TestRenderReportWithAgents(t *testing.T) {
	overall := report.Overall{Calls: 3, AvgAnchorageHours: 4.5, AvgBerthHours: 21.2}
	agents := []report.AgentStat{
		{Agent: "MARSA MAROC", Calls: 2, AvgAnchorageHours: 3.0, AvgBerthHours: 20.0, Note: report.NoteExcellent},
		{Agent: report.UnknownAgent, Calls: 1, AvgAnchorageHours: 7.5, AvgBerthHours: 23.5, Note: report.NoteGood},
	}

	subject, body, err := RenderReport("03", overall, agents)
	require.NoError(t, err)

	assert.Contains(t, subject, "Port de Safi")
	assert.Contains(t, subject, "3 escales")
	assert.Contains(t, body, "MARSA MAROC")
	assert.Contains(t, body, report.NoteExcellent)
	assert.Contains(t, body, "4.5")
}

func TestRenderReportEmpty(t *testing.T) {
	subject, body, err := RenderReport("06", report.Overall{}, nil)
	require.NoError(t, err)

	assert.Contains(t, subject, "Port de Nador")
	assert.Contains(t, body, "Aucune escale")
}
