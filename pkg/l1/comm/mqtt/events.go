package mqtt

import (
	"strings"

	"github.com/golang/glog"

	fx "github.com/robotalks/roboclaw.go/pkg/framework"
	"github.com/robotalks/roboclaw.go/pkg/l1"
	"github.com/robotalks/roboclaw.go/pkg/l1/msgs"
)

// EventHandler receives a decoded event along with the controller
// which sent it.
type EventHandler func(ref l1.ControllerRef, msg fx.Message)

// EventTopic is the topic an L1 controller publishes messages to.
// Empty Type or ID of ref matches any.
func EventTopic(ref l1.ControllerRef) string {
	typ, id := ref.Type, ref.ID
	if typ == "" {
		typ = "+"
	}
	if id == "" {
		id = "+"
	}
	return typ + "/" + id + "/msg"
}

// SubEvents subscribes events from controllers matching ref.
// Replies of commands sent by others are skipped.
func (q *Queue) SubEvents(ref l1.ControllerRef, handler EventHandler) *Subscription {
	return q.Sub(EventTopic(ref), func(topic string, payload []byte) {
		ref, err := l1.ParseControllerRef(strings.TrimSuffix(topic, "/msg"))
		if err != nil {
			return
		}
		typed, err := msgs.DecodeTyped(payload)
		if err != nil {
			glog.V(1).Infof("%s: bad message: %v", topic, err)
			return
		}
		if !typed.IsEvent() {
			return
		}
		msg, err := typed.Decode()
		if err != nil {
			glog.V(1).Infof("%s: decode type %x error: %v", topic, typed.TypeId, err)
			return
		}
		handler(ref, msg)
	})
}
