package monitor

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/roboclaw.go/pkg/l1"
	"github.com/robotalks/roboclaw.go/pkg/l1/msgs"
)

func TestFormatValues(t *testing.T) {
	testCases := []struct {
		ev   msgs.Telemetry
		want string
	}{
		{msgs.Telemetry{Kind: "encoder", Values: []int64{-120, 3}, Valid: true}, "-120 3"},
		{msgs.Telemetry{Kind: "main-battery", Values: []int64{121}, Valid: true}, "12.1V"},
		{msgs.Telemetry{Kind: "temperature", Values: []int64{355}, Valid: true}, "35.5C"},
		{msgs.Telemetry{Kind: "currents", Values: []int64{150, 0}, Valid: true}, "1.50A 0.00A"},
		{msgs.Telemetry{Kind: "error-state", Values: []int64{0x20}, Valid: true}, "0x00000020"},
		{msgs.Telemetry{Kind: "encoder", Values: []int64{-1, -1}}, "-"},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.want, FormatValues(&tc.ev), tc.ev.Kind)
	}
}

func TestModelRecords(t *testing.T) {
	ref := l1.ControllerRef{Type: "roboclaw", ID: "a1"}
	var model tea.Model = New()
	send := func(ev *msgs.Telemetry) {
		model, _ = model.Update(TelemetryMsg{Ref: ref, Event: ev})
	}
	send(&msgs.Telemetry{Controller: 1, Motor: 2, Kind: "speed", Values: []int64{10}, Valid: true})
	send(&msgs.Telemetry{Controller: 0, Motor: 1, Kind: "speed", Values: []int64{20}, Valid: true})
	send(&msgs.Telemetry{Controller: 0, Motor: 1, Kind: "speed", Values: []int64{-1}, Error: "checksum mismatch"})

	m := model.(Model)
	require.Equal(t, uint64(3), m.received)
	require.Equal(t, uint64(1), m.invalid)
	rows := m.table.Rows()
	require.Len(t, rows, 2)
	require.Equal(t, "0", rows[0][1])
	require.Equal(t, "M1", rows[0][2])
	require.Equal(t, "-", rows[0][4])
	require.Equal(t, "checksum mismatch", rows[0][5])
	require.Equal(t, "10", rows[1][4])
	require.Contains(t, m.View(), "received 3, invalid 1")
	require.Contains(t, m.View(), "last error: roboclaw/a1 ctl 0 speed: checksum mismatch")
}

func TestModelQuit(t *testing.T) {
	_, cmd := New().Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestFormatEvent(t *testing.T) {
	line := FormatEvent(l1.ControllerRef{Type: "roboclaw", ID: "a1"},
		&msgs.Telemetry{Controller: 1, Motor: 2, Kind: "encoder", Values: []int64{5}, Valid: true})
	require.Contains(t, line, "roboclaw/a1 ctl=1 motor=2 encoder: 5")
}
