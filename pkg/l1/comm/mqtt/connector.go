package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/roboclaw.go/pkg/l1"
	"github.com/robotalks/roboclaw.go/pkg/l1/comm"
)

// Connector implements l1.Connector using MQTT.
type Connector struct {
	DiscoverTimeout time.Duration

	options     *paho.ClientOptions
	topicPrefix string
}

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// NewConnector creates a Connector.
func NewConnector(brokerURL string) (*Connector, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Connector{
		DiscoverTimeout: DefaultDiscoverTimeout,
		options:         opts,
		topicPrefix:     topicPrefix,
	}, nil
}

// ParseMeta decodes a retained meta message. An empty payload means
// the controller went offline.
func ParseMeta(topic string, payload []byte) (info l1.ControllerInfo, ok bool) {
	name := strings.TrimSuffix(topic, "/meta")
	if name == topic || len(payload) == 0 {
		return
	}
	ref, err := l1.ParseControllerRef(name)
	if err != nil {
		return
	}
	info.Ref = ref
	if err := json.Unmarshal(payload, &info.Meta); err != nil {
		glog.V(1).Infof("invalid meta of %s: %v", info.Ref.Name(), err)
	}
	return info, true
}

// Discover implements Connector.
func (c *Connector) Discover(ctx context.Context) (res []l1.ControllerInfo, err error) {
	q := NewQueue(c.options, c.topicPrefix)
	token := q.Connect()
	token.Wait()
	if err = token.Error(); err != nil {
		return nil, err
	}
	defer q.Close()

	dur := c.DiscoverTimeout
	if dur == 0 {
		dur = DefaultDiscoverTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, dur)
	defer cancel()

	resCh := make(chan l1.ControllerInfo, 1)
	sub := q.Sub("+/+/meta", Handler(func(topic string, payload []byte) {
		if info, ok := ParseMeta(topic, payload); ok {
			select {
			case resCh <- info:
			case <-ctx.Done():
			}
		}
	}))
	defer sub.Close()

	for {
		select {
		case info := <-resCh:
			res = append(res, info)
		case <-ctx.Done():
			if ctx.Err() != context.DeadlineExceeded {
				err = ctx.Err()
			}
			return
		}
	}
}

// Connect implements Connector.
func (c *Connector) Connect(ctx context.Context, ref l1.ControllerRef) (l1.ControllerConn, error) {
	conn := &ControllerConn{
		Queue: NewQueue(c.options, c.topicPrefix),
	}
	conn.rw = NewPacketReadWriter(conn.Queue).ForConnector(ref)
	conn.Init(conn.rw)
	token := conn.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	return conn, nil
}

// ControllerConn implements ControllerConn using MQTT.
type ControllerConn struct {
	comm.ControllerConn
	Queue *Queue

	rw *ReadWriter
}

// Close disconnects from the broker.
func (c *ControllerConn) Close() error {
	c.rw.Close()
	return c.Queue.Close()
}
