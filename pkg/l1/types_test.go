package l1

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/roboclaw.go/pkg/framework"
)

type futureChan chan Result

func (f futureChan) ResultChan() <-chan Result { return f }

type errReply struct{}

func (m *errReply) NewMessage() fx.Message { return &errReply{} }
func (m *errReply) Error() string         { return "rejected" }

type okReply struct{}

func (m *okReply) NewMessage() fx.Message { return &okReply{} }

func TestParseControllerRef(t *testing.T) {
	ref, err := ParseControllerRef("roboclaw/a1")
	require.NoError(t, err)
	require.Equal(t, ControllerRef{Type: "roboclaw", ID: "a1"}, ref)
	require.Equal(t, "roboclaw/a1", ref.Name())
	require.True(t, ref.IsValid())

	for _, name := range []string{"", "roboclaw", "roboclaw/", "/a1", "a/b/c"} {
		_, err := ParseControllerRef(name)
		require.Error(t, err, name)
	}
}

func TestWaitResult(t *testing.T) {
	f := make(futureChan, 1)
	f <- Result{Msg: &okReply{}}
	msg, err := WaitResult(context.Background(), f)
	require.NoError(t, err)
	require.IsType(t, &okReply{}, msg)

	f <- Result{Msg: &errReply{}}
	_, err = WaitResult(context.Background(), f)
	require.EqualError(t, err, "rejected")

	errLost := errors.New("lost")
	f <- Result{Err: errLost}
	_, err = WaitResult(context.Background(), f)
	require.ErrorIs(t, err, errLost)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = WaitResult(ctx, f)
	require.ErrorIs(t, err, context.Canceled)
}
