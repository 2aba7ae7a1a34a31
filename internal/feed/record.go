package feed

import (
	"log/slog"
	"strings"

	"github.com/ANPalert-art/Port-rep/internal/models"
)

// RawRecord mirrors one entry of the ANP movement feed. Field names follow
// the vendor's WCF JSON serialization verbatim.
type RawRecord struct {
	PortCode      string `json:"cODE_SOCIETEField"`
	Registry      string `json:"nUMERO_LLOYDField"`
	CallSeq       string `json:"nUMERO_ESCALEField"`
	Status        string `json:"sITUATIONField"`
	VesselName    string `json:"nOM_NAVIREField"`
	VesselType    string `json:"tYP_NAVIREField"`
	Agent         string `json:"cONSIGNATAIREField"`
	Origin        string `json:"pROVField"`
	ScheduledDate string `json:"dATE_SITUATIONField"`
	ScheduledTime string `json:"hEURE_SITUATIONField"`
}

// Normalize converts a raw feed record into a canonical observation.
// Records outside the allowed port set are dropped (ok == false). Status
// text is trimmed and upper-cased; values outside the known vocabulary are
// flagged for operator visibility but passed through unchanged so a feed
// vocabulary change never fails a cycle.
func Normalize(rec RawRecord, allowedPorts map[string]struct{}, logger *slog.Logger) (models.VesselObservation, bool) {
	portCode := strings.TrimSpace(rec.PortCode)
	if _, ok := allowedPorts[portCode]; !ok {
		return models.VesselObservation{}, false
	}

	status := models.ParseStatus(rec.Status)
	identity := models.NewIdentity(rec.Registry, rec.CallSeq)
	if !status.Known() {
		logger.Warn("unknown_status_value",
			"status", status.Raw,
			"identity", identity.String(),
			"port_code", portCode,
		)
	}

	return models.VesselObservation{
		Identity:      identity,
		Status:        status,
		PortCode:      portCode,
		Agent:         strings.TrimSpace(rec.Agent),
		Name:          strings.TrimSpace(rec.VesselName),
		Type:          strings.TrimSpace(rec.VesselType),
		Origin:        strings.TrimSpace(rec.Origin),
		ScheduledDate: rec.ScheduledDate,
		ScheduledTime: rec.ScheduledTime,
	}, true
}
