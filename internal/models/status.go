package models

import (
	"encoding/json"
	"strings"
)

// StatusCode is the canonical port-call status. The values are ordered by
// the expected progression of a call; the feed is not required to follow
// that order and the engine never enforces it.
type StatusCode int

const (
	StatusUnknown StatusCode = iota
	StatusPlanned
	StatusAtAnchorage
	StatusAtBerth
	StatusCompleted
)

// Raw status vocabulary of the ANP movement feed.
const (
	rawPlanned     = "PREVU"
	rawAtAnchorage = "EN RADE"
	rawAtBerth     = "A QUAI"
	rawCompleted   = "APPAREILLAGE"
)

func (c StatusCode) String() string {
	switch c {
	case StatusPlanned:
		return "planned"
	case StatusAtAnchorage:
		return "at_anchorage"
	case StatusAtBerth:
		return "at_berth"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Status pairs a canonical code with the raw feed text it was parsed from.
// Unrecognized feed values keep Code == StatusUnknown but preserve the raw
// text, so upstream vocabulary changes degrade timer attribution instead of
// failing the cycle.
type Status struct {
	Code StatusCode
	Raw  string
}

// ParseStatus canonicalizes a raw feed status: trimmed, upper-cased, mapped
// to a known code when possible. Parsing is idempotent on its own output.
func ParseStatus(raw string) Status {
	canon := strings.ToUpper(strings.TrimSpace(raw))
	code := StatusUnknown
	switch canon {
	case rawPlanned:
		code = StatusPlanned
	case rawAtAnchorage:
		code = StatusAtAnchorage
	case rawAtBerth:
		code = StatusAtBerth
	case rawCompleted:
		code = StatusCompleted
	}
	return Status{Code: code, Raw: canon}
}

// Known reports whether the status maps to a canonical code.
func (s Status) Known() bool {
	return s.Code != StatusUnknown
}

func (s Status) String() string {
	return s.Raw
}

// MarshalJSON persists the raw feed text only, keeping the state file
// human-diffable. The code is rederived on load.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Raw)
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParseStatus(raw)
	return nil
}
