package base

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/roboclaw.go/pkg/framework"
	"github.com/robotalks/roboclaw.go/pkg/l1/msgs"
	"github.com/robotalks/roboclaw.go/pkg/manager"
	"github.com/robotalks/roboclaw.go/pkg/roboclaw"
)

type eventSink struct {
	lock   sync.Mutex
	events []*msgs.Telemetry
}

func (s *eventSink) SendEvent(ctx context.Context, msg fx.Message) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if ev, ok := msg.(*msgs.Telemetry); ok {
		s.events = append(s.events, ev)
	}
	return nil
}

func (s *eventSink) Events() []*msgs.Telemetry {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]*msgs.Telemetry{}, s.events...)
}

func newTestController(t *testing.T, controllers int) (*Controller, *eventSink) {
	conf := manager.NewConfig()
	conf.WheelRadius = 0.05
	conf.TrackWidth = 0.3
	conf.TicksPerRev = 2000
	conf.InboxSize = 2
	claws := make([]*roboclaw.Claw, controllers)
	for i := range claws {
		claws[i] = roboclaw.New(roboclaw.NewNullDevice())
	}
	m, err := conf.New(claws...)
	require.NoError(t, err)
	m.Clock = clock.NewMock()
	sink := &eventSink{}
	return NewController(sink, m), sink
}

func TestHandleCommands(t *testing.T) {
	testCases := []struct {
		name string
		msg  fx.Message
		err  string
	}{
		{name: "velocity", msg: &msgs.BaseVelocity{Linear: 0.5, Angular: 0.1}},
		{name: "wheel speed", msg: &msgs.WheelSpeed{Wheel: 3, Speed: -1200, Accel: 500}},
		{name: "wheel duty", msg: &msgs.WheelDuty{Wheel: 1, Duty: -16384}},
		{name: "stop", msg: &msgs.BaseStop{}},
		{name: "no wheel", msg: &msgs.WheelSpeed{Wheel: 4, Speed: 10}, err: "no such wheel: 4"},
		{name: "duty min", msg: &msgs.WheelDuty{Wheel: 2, Duty: math.MinInt16}},
		{name: "duty max", msg: &msgs.WheelDuty{Wheel: 2, Duty: math.MaxInt16}},
		{name: "duty range", msg: &msgs.WheelDuty{Duty: 40000}, err: "duty 40000 out of range"},
		{name: "duty below range", msg: &msgs.WheelDuty{Duty: math.MinInt16 - 1}, err: "duty -32769 out of range"},
		{name: "accel range", msg: &msgs.WheelDuty{Duty: 1, Accel: 70000}, err: "accel 70000 out of range"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestController(t, 2)
			reply := c.handle(tc.msg)
			if tc.err != "" {
				require.IsType(t, &msgs.CommandErr{}, reply)
				require.Equal(t, tc.err, reply.(*msgs.CommandErr).Message)
				return
			}
			require.IsType(t, &msgs.CommandOK{}, reply)
		})
	}
}

func TestHandleInboxFull(t *testing.T) {
	c, _ := newTestController(t, 1)
	require.IsType(t, &msgs.CommandOK{}, c.handle(&msgs.BaseStop{}))
	require.IsType(t, &msgs.CommandOK{}, c.handle(&msgs.BaseStop{}))
	reply := c.handle(&msgs.BaseStop{})
	require.Equal(t, manager.ErrInboxFull.Error(), reply.(*msgs.CommandErr).Message)
}

func TestHandleIgnoresOthers(t *testing.T) {
	c, _ := newTestController(t, 1)
	require.Nil(t, c.handle(&msgs.Telemetry{}))
	require.Nil(t, c.handle(msgs.NewCommandOK()))
}

func TestStatus(t *testing.T) {
	c, _ := newTestController(t, 2)
	status := c.handle(&msgs.BaseStatusQuery{}).(*msgs.BaseStatus)
	require.Equal(t, "idle", status.State)
	require.Equal(t, uint32(2), status.Controllers)
	require.Equal(t, uint32(4), status.Wheels)

	c.Manager.Stop()
	require.Equal(t, "stopped", c.Status().State)
	reply := c.handle(&msgs.BaseStop{})
	require.Equal(t, manager.ErrStopped.Error(), reply.(*msgs.CommandErr).Message)
}

func TestTelemetryFrom(t *testing.T) {
	at := time.Unix(100, 5)
	ev := TelemetryFrom(manager.Sample{
		Controller: 1,
		Kind:       manager.Encoder,
		Motor:      roboclaw.M2,
		Values:     []int64{-1, -1},
		Err:        roboclaw.ErrChecksum,
		Time:       at,
	})
	require.Equal(t, uint32(1), ev.Controller)
	require.Equal(t, manager.Encoder.String(), ev.Kind)
	require.Equal(t, uint32(2), ev.Motor)
	require.False(t, ev.Valid)
	require.Equal(t, roboclaw.ErrChecksum.Error(), ev.Error)
	require.Equal(t, at.UnixNano(), ev.Timestamp)
}

func TestTelemetryPump(t *testing.T) {
	c, sink := newTestController(t, 1)
	mock := c.Manager.Clock.(*clock.Mock)

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	pumpErr := make(chan error, 1)
	go func() { runErr <- c.Manager.Run(ctx) }()
	go func() { pumpErr <- c.pumpTelemetry(ctx) }()

	require.Eventually(t, func() bool {
		mock.Add(c.Manager.Interval)
		return len(sink.Events()) > 0
	}, time.Second, time.Millisecond)

	cancel()
	require.True(t, errors.Is(<-runErr, context.Canceled))
	require.NoError(t, <-pumpErr)
	for _, ev := range sink.Events() {
		require.True(t, ev.Valid, ev.Kind)
		require.Empty(t, ev.Error)
	}
}
