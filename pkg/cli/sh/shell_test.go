package sh

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/roboclaw.go/pkg/l1"
	env "github.com/robotalks/roboclaw.go/pkg/l1/env/connector"
	"github.com/robotalks/roboclaw.go/pkg/l1/msgs"
)

func TestFormatResult(t *testing.T) {
	out, err := FormatResult(msgs.NewCommandOK(), false)
	require.NoError(t, err)
	require.Equal(t, "OK", out)

	status := &msgs.BaseStatus{State: "running", Controllers: 2, Wheels: 4}
	out, err = FormatResult(status, false)
	require.NoError(t, err)
	require.Contains(t, out, "BaseStatus ")
	require.Contains(t, out, `state:"running"`)

	out, err = FormatResult(status, true)
	require.NoError(t, err)
	require.JSONEq(t, `{"state":"running","controllers":2,"wheels":4}`, out)

	_, err = FormatResult(&l1.CommandMsg{}, false)
	require.Error(t, err)
}

func TestFormatInfo(t *testing.T) {
	info := l1.ControllerInfo{Ref: l1.ControllerRef{Type: "roboclaw", ID: "a1"}}
	require.Equal(t, "roboclaw/a1", FormatInfo(info))
	info.Meta.Description = "RoboClaw base"
	require.Equal(t, "roboclaw/a1: RoboClaw base", FormatInfo(info))
}

func TestParseRef(t *testing.T) {
	s := &Shell{Config: &env.Config{Ref: l1.ControllerRef{Type: "roboclaw"}}}
	testCases := []struct {
		args []string
		want l1.ControllerRef
		fail bool
	}{
		{args: nil, want: l1.ControllerRef{Type: "roboclaw"}},
		{args: []string{"a1"}, want: l1.ControllerRef{Type: "roboclaw", ID: "a1"}},
		{args: []string{"sim/s1"}, want: l1.ControllerRef{Type: "sim", ID: "s1"}},
		{args: []string{"sim", "s1"}, want: l1.ControllerRef{Type: "sim", ID: "s1"}},
		{args: []string{"sim/"}, fail: true},
	}
	for _, tc := range testCases {
		ref, err := s.ParseRef(tc.args)
		if tc.fail {
			require.Error(t, err, tc.args)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tc.want, ref)
	}

	s.Config.Ref.Type = ""
	_, err := s.ParseRef([]string{"a1"})
	require.EqualError(t, err, `robot type unknown for "a1"`)
}
