package notify

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/ANPalert-art/Port-rep/internal/feed"
	"github.com/ANPalert-art/Port-rep/internal/models"
	"github.com/ANPalert-art/Port-rep/internal/report"
)

// Mail is rendered in French for the operations team; timestamps are shown
// in Moroccan local time (UTC+1, no DST on the historical feed).
var displayZone = time.FixedZone("GMT+1", 3600)

var frenchDays = [...]string{"lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi", "dimanche"}

var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

var portNames = map[string]string{
	"07": "Jorf Lasfar",
	"03": "Safi",
	"06": "Nador",
}

// PortName maps a feed port code to its display name.
func PortName(code string) string {
	if name, ok := portNames[code]; ok {
		return name
	}
	return fmt.Sprintf("Port %s", code)
}

// FormatFrenchDate renders "Lundi, 02 janvier 2026" in display time.
func FormatFrenchDate(t time.Time) string {
	local := t.In(displayZone)
	day := frenchDays[(int(local.Weekday())+6)%7]
	day = strings.ToUpper(day[:1]) + day[1:]
	return fmt.Sprintf("%s, %02d %s %d", day, local.Day(), frenchMonths[local.Month()-1], local.Year())
}

// formatVendorDate renders a vendor "/Date(...)/" value as a French date,
// "N/A" when absent or unparseable.
func formatVendorDate(raw string) string {
	t, ok := feed.ParseMSDate(raw)
	if !ok {
		return "N/A"
	}
	return FormatFrenchDate(t)
}

func formatVendorTime(raw string) string {
	t, ok := feed.ParseMSDate(raw)
	if !ok {
		return "N/A"
	}
	return t.In(displayZone).Format("15:04")
}

type alertVessel struct {
	Name   string
	ETA    string
	IMO    string
	Escale string
	Type   string
	Agent  string
	Origin string
}

var alertTmpl = template.Must(template.New("alert").Parse(`<p style="font-family:Arial; font-size:15px;">Bonjour,<br><br>Ci-dessous les mouvements prévus au <b>Port de {{.Port}}</b> :</p>
{{- range .Vessels}}
<div style="font-family: Arial, sans-serif; margin: 15px 0; border: 1px solid #d0d7e1; border-radius: 8px; overflow: hidden;">
  <div style="background: #0a3d62; color: white; padding: 12px; font-size: 16px;">🚢 <b>{{.Name}}</b></div>
  <table style="width: 100%; border-collapse: collapse; font-size: 14px;">
    <tr><td style="padding: 10px; border-bottom: 1px solid #eeeeee; width: 30%;"><b>🕒 ETA</b></td><td style="padding: 10px; border-bottom: 1px solid #eeeeee;">{{.ETA}}</td></tr>
    <tr><td style="padding: 10px; border-bottom: 1px solid #eeeeee;"><b>🆔 IMO</b></td><td style="padding: 10px; border-bottom: 1px solid #eeeeee;">{{.IMO}}</td></tr>
    <tr><td style="padding: 10px; border-bottom: 1px solid #eeeeee;"><b>⚓ Escale</b></td><td style="padding: 10px; border-bottom: 1px solid #eeeeee;">{{.Escale}}</td></tr>
    <tr><td style="padding: 10px; border-bottom: 1px solid #eeeeee;"><b>🛳️ Type</b></td><td style="padding: 10px; border-bottom: 1px solid #eeeeee;">{{.Type}}</td></tr>
    <tr><td style="padding: 10px; border-bottom: 1px solid #eeeeee;"><b>🏢 Agent</b></td><td style="padding: 10px; border-bottom: 1px solid #eeeeee;">{{.Agent}}</td></tr>
    <tr><td style="padding: 10px;"><b>🌍 Prov.</b></td><td style="padding: 10px;">{{.Origin}}</td></tr>
  </table>
</div>
{{- end}}
<div style="margin-top: 20px; border-top: 1px solid #e6e9ef; padding-top: 15px;">
  <p style="font-family:Arial; font-size:14px; color:#333;">Cordialement,</p>
  <p style="font-family:Arial; font-size:12px; color:#777777; font-style: italic;">Ceci est une génération automatique par le système de surveillance des ports.</p>
</div>
`))

// RenderAlert builds the planned-arrival notification for one port.
func RenderAlert(portCode string, observations []models.VesselObservation) (subject, body string, err error) {
	port := PortName(portCode)

	names := make([]string, 0, len(observations))
	vessels := make([]alertVessel, 0, len(observations))
	for _, obs := range observations {
		name := obs.Name
		if name == "" {
			name = "INCONNU"
		}
		names = append(names, name)
		vessels = append(vessels, alertVessel{
			Name:   name,
			ETA:    formatVendorDate(obs.ScheduledDate) + " " + formatVendorTime(obs.ScheduledTime),
			IMO:    orNA(obs.Identity.Registry),
			Escale: orNA(obs.Identity.CallSeq),
			Type:   orNA(obs.Type),
			Agent:  orNA(obs.Agent),
			Origin: orDefault(obs.Origin, "Inconnue"),
		})
	}

	var sb strings.Builder
	data := struct {
		Port    string
		Vessels []alertVessel
	}{Port: port, Vessels: vessels}
	if err := alertTmpl.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("render alert: %w", err)
	}

	subject = fmt.Sprintf("🔔 NOUVELLE ARRIVÉE PRÉVUE | %s au Port de %s", strings.Join(names, ", "), port)
	return subject, sb.String(), nil
}

var reportTmpl = template.Must(template.New("report").Parse(`<p style="font-family:Arial; font-size:15px;">Bonjour,<br><br>Voici le bilan des escales clôturées au <b>Port de {{.Port}}</b> :</p>
<p style="font-family:Arial; font-size:14px;">Escales : <b>{{.Overall.Calls}}</b> &mdash; Rade moyenne : <b>{{printf "%.1f" .Overall.AvgAnchorageHours}} h</b> &mdash; Quai moyen : <b>{{printf "%.1f" .Overall.AvgBerthHours}} h</b></p>
{{- if .Agents}}
<table style="width: 100%; border-collapse: collapse; font-family: Arial, sans-serif; font-size: 14px;">
  <tr style="background: #0a3d62; color: white;">
    <th style="padding: 10px; text-align: left;">Agent</th>
    <th style="padding: 10px; text-align: right;">Escales</th>
    <th style="padding: 10px; text-align: right;">Rade moy. (h)</th>
    <th style="padding: 10px; text-align: right;">Quai moy. (h)</th>
    <th style="padding: 10px; text-align: left;">Appréciation</th>
  </tr>
  {{- range .Agents}}
  <tr>
    <td style="padding: 10px; border-bottom: 1px solid #eeeeee;">{{.Agent}}</td>
    <td style="padding: 10px; border-bottom: 1px solid #eeeeee; text-align: right;">{{.Calls}}</td>
    <td style="padding: 10px; border-bottom: 1px solid #eeeeee; text-align: right;">{{printf "%.1f" .AvgAnchorageHours}}</td>
    <td style="padding: 10px; border-bottom: 1px solid #eeeeee; text-align: right;">{{printf "%.1f" .AvgBerthHours}}</td>
    <td style="padding: 10px; border-bottom: 1px solid #eeeeee;">{{.Note}}</td>
  </tr>
  {{- end}}
</table>
{{- else}}
<p style="font-family:Arial; font-size:14px;">Aucune escale clôturée sur la période.</p>
{{- end}}
<div style="margin-top: 20px; border-top: 1px solid #e6e9ef; padding-top: 15px;">
  <p style="font-family:Arial; font-size:14px; color:#333;">Cordialement,</p>
  <p style="font-family:Arial; font-size:12px; color:#777777; font-style: italic;">Ceci est une génération automatique par le système de surveillance des ports.</p>
</div>
`))

// RenderReport builds the per-port turnaround report notification.
func RenderReport(portCode string, overall report.Overall, agents []report.AgentStat) (subject, body string, err error) {
	port := PortName(portCode)

	var sb strings.Builder
	data := struct {
		Port    string
		Overall report.Overall
		Agents  []report.AgentStat
	}{Port: port, Overall: overall, Agents: agents}
	if err := reportTmpl.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("render report: %w", err)
	}

	subject = fmt.Sprintf("📊 RAPPORT D'ACTIVITÉ | Port de %s (%d escales)", port, overall.Calls)
	return subject, sb.String(), nil
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
