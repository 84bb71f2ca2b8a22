package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/roboclaw.go/pkg/framework"
	"github.com/robotalks/roboclaw.go/pkg/l1"
	"github.com/robotalks/roboclaw.go/pkg/l1/comm"
	"github.com/robotalks/roboclaw.go/pkg/l1/msgs"
)

func startServer(t *testing.T) *Server {
	srv := NewServer("127.0.0.1:0")
	loop := fx.NewLoop().Add(srv)
	loop.Clock = clock.NewMock()
	loop.AddController(fx.PrLvControl, fx.ControlFunc(func(cc fx.ControlContext) error {
		cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
			if cmd, ok := mctx.CurrentMessage().(*l1.CommandMsg); ok {
				mctx.MessageTaken()
				cmd.Command.Done(msgs.NewCommandOK())
			}
		}))
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	require.Eventually(t, func() bool { return srv.ListenAddr() != nil }, time.Second, time.Millisecond)
	return srv
}

func dial(t *testing.T, srv *Server) *ReadWriter {
	conn, err := websocket.Dial("ws://"+srv.ListenAddr().String()+DefaultPath, "", "http://localhost/")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return New(conn)
}

func readTyped(t *testing.T, rw comm.PacketReader) *msgs.Typed {
	pkt, err := rw.ReadPacket()
	require.NoError(t, err)
	typed, err := msgs.DecodeTyped(pkt)
	require.NoError(t, err)
	return typed
}

func TestServerCommands(t *testing.T) {
	srv := startServer(t)
	rw := dial(t, srv)

	typed, err := msgs.TypedFrom(&msgs.BaseStop{})
	require.NoError(t, err)
	typed.Sequence = 3
	pkt, err := typed.Encode()
	require.NoError(t, err)
	require.NoError(t, rw.WritePacket(pkt))

	reply := readTyped(t, rw)
	require.True(t, reply.IsReply())
	require.Equal(t, uint32(3), reply.Sequence)
	require.Equal(t, msgs.CommandOKTypeID, reply.TypeId)
}

func TestServerBroadcast(t *testing.T) {
	srv := startServer(t)
	a, b := dial(t, srv), dial(t, srv)
	require.Eventually(t, func() bool { return srv.Connections() == 2 }, time.Second, time.Millisecond)

	require.NoError(t, srv.SendEvent(context.Background(), &msgs.Telemetry{Controller: 1, Kind: "encoder"}))
	for _, rw := range []*ReadWriter{a, b} {
		typed := readTyped(t, rw)
		require.Equal(t, msgs.TelemetryEventTypeID, typed.TypeId)
		msg, err := typed.Decode()
		require.NoError(t, err)
		require.Equal(t, "encoder", msg.(*msgs.Telemetry).Kind)
	}

	require.NoError(t, a.Close())
	require.Eventually(t, func() bool { return srv.Connections() == 1 }, time.Second, time.Millisecond)
}
