package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_PruneAtWindowBoundary(t *testing.T) {
	l := NewLedger(4 * time.Second)
	t0 := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	l.Record(RelayField("heater"), true, t0, l.NextSeq())
	l.Record(RelayField("light"), true, t0.Add(time.Second), l.NextSeq())

	assert.Empty(t, l.Prune(t0.Add(3999*time.Millisecond)))
	assert.Equal(t, []Field{RelayField("heater")}, l.Prune(t0.Add(4*time.Second)))
	assert.Equal(t, 1, l.Len())
}

func TestLedger_DropIgnoresStaleSeq(t *testing.T) {
	l := NewLedger(0)
	assert.Equal(t, DefaultWindow, l.Window())

	now := time.Now()
	first := l.NextSeq()
	l.Record(SettingsField("set_point"), 101.0, now, first)
	second := l.NextSeq()
	l.Record(SettingsField("set_point"), 102.0, now, second)

	assert.False(t, l.Drop(SettingsField("set_point"), first))
	e, ok := l.Get(SettingsField("set_point"))
	require.True(t, ok)
	assert.Equal(t, 102.0, e.Value)
	assert.True(t, l.Drop(SettingsField("set_point"), second))
}

func TestParseField(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"relay.heater", false},
		{"relay.ozone", false},
		{"relay.sauna", true},
		{"settings.set_point", false},
		{"settings.location", false},
		{"settings.colour", true},
		{"session.manual_soak_expires", false},
		{"heater", true},
	}
	for _, tt := range tests {
		_, err := ParseField(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnknownField, tt.in)
		} else {
			assert.NoError(t, err, tt.in)
		}
	}
}

func TestMerge_EditSessionOverridesLedger(t *testing.T) {
	raw := rawWith(false, 100)
	f := SettingsField("set_point")
	entries := []Entry{{Field: f, Value: 103.0, Seq: 1}}
	sessions := []EditSession{{Field: f, Raw: "10", Frozen: 101}}

	v := Merge(raw, Status{Connected: true}, entries, sessions)
	assert.Equal(t, 101.0, v.Settings.SetPoint)
	assert.Nil(t, v.Pending)
	assert.Equal(t, "10", v.Editing[f])

	// the raw snapshot's relay map is never written through
	v = Merge(raw, Status{}, []Entry{{Field: RelayField("heater"), Value: true}}, nil)
	assert.True(t, v.Snapshot.Desired.Relays["heater"])
	assert.False(t, raw.Snapshot.Desired.Relays["heater"])
}
