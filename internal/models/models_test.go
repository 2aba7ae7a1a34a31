package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		code StatusCode
		out  string
	}{
		{name: "planned", raw: "PREVU", code: StatusPlanned, out: "PREVU"},
		{name: "anchorage", raw: "EN RADE", code: StatusAtAnchorage, out: "EN RADE"},
		{name: "berth lowercase", raw: "a quai", code: StatusAtBerth, out: "A QUAI"},
		{name: "completed padded", raw: "  APPAREILLAGE ", code: StatusCompleted, out: "APPAREILLAGE"},
		{name: "unknown preserved", raw: "EN ATTENTE", code: StatusUnknown, out: "EN ATTENTE"},
		{name: "empty", raw: "", code: StatusUnknown, out: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ParseStatus(tt.raw)
			assert.Equal(t, tt.code, s.Code)
			assert.Equal(t, tt.out, s.Raw)
		})
	}
}

func TestParseStatusIdempotent(t *testing.T) {
	s := ParseStatus(" en rade ")
	again := ParseStatus(s.Raw)
	assert.Equal(t, s, again)
}

func TestStatusJSONRoundTrip(t *testing.T) {
	s := ParseStatus("MANOEUVRE")
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `"MANOEUVRE"`, string(data))

	var back Status
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s, back)
}

func TestNewIdentitySentinels(t *testing.T) {
	id := NewIdentity("", "")
	assert.Equal(t, SentinelRegistry, id.Registry)
	assert.Equal(t, SentinelCallSeq, id.CallSeq)
	assert.Equal(t, "0000000-0", id.String())

	id = NewIdentity(" 9316141 ", "1024")
	assert.Equal(t, "9316141-1024", id.String())
}

func TestIdentityAsMapKey(t *testing.T) {
	m := map[Identity]int{
		NewIdentity("9316141", "1024"): 1,
		NewIdentity("9316141", "1025"): 2,
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var back map[Identity]int
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, m, back)
}

func TestIdentityUnmarshalMalformed(t *testing.T) {
	var id Identity
	err := id.UnmarshalText([]byte("no-separator-missing"))
	require.NoError(t, err, "extra separators split at the first dash")
	assert.Equal(t, "no", id.Registry)
	assert.Equal(t, "separator-missing", id.CallSeq)

	err = id.UnmarshalText([]byte("justregistry"))
	assert.Error(t, err)
}
