package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/golang/glog"

	fx "github.com/robotalks/roboclaw.go/pkg/framework"
	"github.com/robotalks/roboclaw.go/pkg/l1"
	"github.com/robotalks/roboclaw.go/pkg/l1/comm"
)

// Registrar implements l1.Registrar using MQTT.
// The controller meta is published retained on type/id/meta and
// cleared by the will message when the connection drops.
type Registrar struct {
	Queue *Queue
	Info  l1.ControllerInfo

	meta      []byte
	rw        *ReadWriter
	registrar comm.Registrar
}

// NewRegistrar creates a Registrar.
func NewRegistrar(brokerURL string, info l1.ControllerInfo) (*Registrar, error) {
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		return nil, fmt.Errorf("encode meta error: %w", err)
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+MetaTopic(info.Ref), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("roboclaw:" + info.Ref.Name())
	}
	r := &Registrar{
		Queue: NewQueue(opts, topicPrefix),
		Info:  info,
		meta:  meta,
	}
	r.Queue.OnConnect = func(*Queue) { r.onConnected() }
	r.rw = NewPacketReadWriter(r.Queue).ForController(info.Ref)
	r.registrar.Init(r.rw)
	return r, nil
}

// MetaTopic is the topic carrying the retained controller meta.
func MetaTopic(ref l1.ControllerRef) string {
	return ref.Name() + "/meta"
}

// SendEvent implements Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	if !r.Queue.Client.IsConnected() {
		return nil
	}
	return r.registrar.SendEvent(ctx, msg)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.registrar)
	loop.AddRunnable(r)
}

// Run implements Runnable.
func (r *Registrar) Run(ctx context.Context) error {
	glog.Infof("registering %s", r.Info.Ref.Name())
	r.Queue.Connect()
	<-ctx.Done()
	if r.Queue.Client.IsConnected() {
		r.Queue.PubWith(MetaTopic(r.Info.Ref), nil, 1, true).Wait()
	}
	r.Queue.Close()
	return ctx.Err()
}

func (r *Registrar) onConnected() {
	r.Queue.PubWith(MetaTopic(r.Info.Ref), r.meta, 1, true)
}
