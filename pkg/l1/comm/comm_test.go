package comm

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/roboclaw.go/pkg/framework"
	"github.com/robotalks/roboclaw.go/pkg/l1"
	"github.com/robotalks/roboclaw.go/pkg/l1/msgs"
)

type chanReadWriter struct {
	in     <-chan []byte
	out    chan<- []byte
	closed chan struct{}
	once   sync.Once
}

func newChanPair() (*chanReadWriter, *chanReadWriter) {
	a, b := make(chan []byte, 16), make(chan []byte, 16)
	return &chanReadWriter{in: a, out: b, closed: make(chan struct{})},
		&chanReadWriter{in: b, out: a, closed: make(chan struct{})}
}

func (p *chanReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.in:
		return pkt, nil
	case <-p.closed:
		return nil, io.EOF
	}
}

func (p *chanReadWriter) WritePacket(pkt []byte) error {
	p.out <- pkt
	return nil
}

func (p *chanReadWriter) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func runLoop(t *testing.T, loop *fx.Loop) {
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
}

func result(t *testing.T, f l1.CommandFuture) l1.Result {
	select {
	case res := <-f.ResultChan():
		return res
	case <-time.After(time.Second):
		t.Fatal("no result")
	}
	return l1.Result{}
}

func TestCommandRoundTrip(t *testing.T) {
	serverRW, clientRW := newChanPair()

	var reg Registrar
	reg.Init(serverRW)
	server := fx.NewLoop().Add(&reg)
	server.AddController(fx.PrLvControl, fx.ControlFunc(func(cc fx.ControlContext) error {
		cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
			if cmd, ok := mctx.CurrentMessage().(*l1.CommandMsg); ok {
				if _, ok := cmd.Command.Msg().(*msgs.BaseStop); ok {
					mctx.MessageTaken()
					cmd.Command.Done(msgs.NewCommandOK())
				}
			}
		}))
		return nil
	}))
	server.Add(&UnsupportedCommands{})
	runLoop(t, server)

	var conn ControllerConn
	conn.Init(clientRW)
	events := make(chan *msgs.Telemetry, 1)
	client := fx.NewLoop().Add(&conn)
	client.AddController(fx.PrLvControl, fx.ControlFunc(func(cc fx.ControlContext) error {
		cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
			if ev, ok := mctx.CurrentMessage().(*msgs.Telemetry); ok {
				mctx.MessageTaken()
				events <- ev
			}
		}))
		return nil
	}))
	runLoop(t, client)

	res := result(t, conn.DoCommand(&msgs.BaseStop{}))
	require.NoError(t, res.Err)
	require.IsType(t, &msgs.CommandOK{}, res.Msg)

	res = result(t, conn.DoCommand(&msgs.WheelDuty{Wheel: 1, Duty: 100}))
	require.EqualError(t, res.Err, msgs.ErrUnsupportedCommand.Error())

	require.NoError(t, reg.SendEvent(context.Background(), &msgs.Telemetry{Controller: 1, Valid: true}))
	select {
	case ev := <-events:
		require.Equal(t, uint32(1), ev.Controller)
	case <-time.After(time.Second):
		t.Fatal("no event")
	}
}

func TestCommandExpiration(t *testing.T) {
	_, clientRW := newChanPair()
	mock := clock.NewMock()

	var conn ControllerConn
	conn.Init(clientRW)
	conn.Clock = mock
	client := fx.NewLoop().Add(&conn)
	client.Clock = mock
	runLoop(t, client)

	f := conn.DoCommand(&msgs.BaseStop{})
	for {
		mock.Add(conn.Expiration)
		select {
		case res := <-f.ResultChan():
			require.Equal(t, context.DeadlineExceeded, res.Err)
			return
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRegistrarMux(t *testing.T) {
	a, aPeer := newChanPair()
	b, bPeer := newChanPair()
	var ra, rb Registrar
	ra.Init(a)
	rb.Init(b)
	mux := &RegistrarMux{}
	mux.Add(&ra, &rb)

	require.NoError(t, mux.SendEvent(context.Background(), &msgs.Telemetry{Kind: "encoder"}))
	for _, peer := range []*chanReadWriter{aPeer, bPeer} {
		pkt, err := peer.ReadPacket()
		require.NoError(t, err)
		typed, err := msgs.DecodeTyped(pkt)
		require.NoError(t, err)
		require.Equal(t, msgs.TelemetryEventTypeID, typed.TypeId)
	}
}

func TestPendingCommandsFailOnClose(t *testing.T) {
	peer, clientRW := newChanPair()

	var conn ControllerConn
	conn.Init(clientRW)
	client := fx.NewLoop().Add(&conn)
	client.Clock = clock.NewMock()
	runLoop(t, client)

	f := conn.DoCommand(&msgs.BaseStop{})
	_, err := peer.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, 1, conn.Pending())

	require.NoError(t, conn.Close())
	res := result(t, f)
	require.ErrorIs(t, res.Err, ErrConnClosed)
	require.Zero(t, conn.Pending())

	res = result(t, conn.DoCommand(&msgs.BaseStop{}))
	require.ErrorIs(t, res.Err, ErrConnClosed)
}

func TestCommandRepliedOnce(t *testing.T) {
	rw, peer := newChanPair()
	pipe := NewPipe(rw)
	cmd := &command{seq: 5, msg: &msgs.BaseStop{}, pipe: pipe}
	require.NoError(t, cmd.Done(msgs.NewCommandOK()))
	require.ErrorIs(t, cmd.Done(msgs.NewCommandOK()), ErrAlreadyReplied)

	pkt, err := peer.ReadPacket()
	require.NoError(t, err)
	typed, err := msgs.DecodeTyped(pkt)
	require.NoError(t, err)
	require.Equal(t, uint32(5), typed.Sequence)
	require.True(t, typed.IsReply())
	select {
	case <-peer.in:
		t.Fatal("replied twice")
	default:
	}
}

func TestPipeMessageKinds(t *testing.T) {
	rw, _ := newChanPair()
	pipe := NewPipe(rw)
	require.ErrorIs(t, pipe.SendEventMsg(&msgs.BaseStop{}), ErrNotEvent)
	require.ErrorIs(t, pipe.SendCommandMsg(&msgs.Telemetry{}, 1), ErrNotCommand)
	require.ErrorIs(t, pipe.SendEventMsg(&l1.CommandMsg{}), msgs.ErrNotSerializable)
}
