package framework

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
)

// Loop runs controllers by priority levels on every tick, and keeps
// the runnables (devices, transports) alive until one of them fails.
type Loop struct {
	Interval time.Duration
	Clock    clock.Clock

	controllers [PriorityLevels][]Controller
	runners     []Runnable

	lock     sync.Mutex
	messages []Message
	wakeUpCh chan struct{}

	iterations uint64
	overruns   uint64
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopCtxKeyType struct{}

var loopCtxKey loopCtxKeyType

// LoopCtlFrom gets LoopControl from the context of a runnable
// started by the loop.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtxKey).(LoopControl)
}

// DefaultInterval is the default tick interval of a Loop.
const DefaultInterval = 100 * time.Millisecond

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{
		Interval: DefaultInterval,
		Clock:    clock.New(),
		wakeUpCh: make(chan struct{}, 1),
	}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers to the loop.
// Controllers which are also Runnable are started with the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	l.controllers[priorityLevel] = append(l.controllers[priorityLevel], ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementions.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Iterations returns the number of iterations executed.
func (l *Loop) Iterations() uint64 {
	return atomic.LoadUint64(&l.iterations)
}

// Overruns returns the number of iterations taking longer than Interval.
func (l *Loop) Overruns() uint64 {
	return atomic.LoadUint64(&l.overruns)
}

// Run implements Runnable.
// It returns when ctx is done or any runnable fails, after all
// runnables are stopped.
func (l *Loop) Run(ctx context.Context) error {
	if l.Clock == nil {
		l.Clock = clock.New()
	}
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	interval := l.Interval
	if interval == 0 {
		interval = DefaultInterval
	}

	runner := NewRunnerWith(context.WithValue(ctx, loopCtxKey, LoopControl(l))).CancelOnError()
	runner.Go(l.runners...)

	ticker := l.Clock.Ticker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-runner.Context.Done():
			err := runner.Wait()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		case <-ticker.C:
		case <-l.wakeUpCh:
		}
		start := l.Clock.Now()
		l.runIteration(ctx, start)
		if elapsed := l.Clock.Since(start); elapsed > interval {
			atomic.AddUint64(&l.overruns, 1)
			glog.V(1).Infof("iteration took %v, interval %v", elapsed, interval)
		}
	}
}

// RunOrFail is intended to be used in main to simply run the loop
// until interrupted.
func (l *Loop) RunOrFail() {
	ctx := NewRunner().HandleSignals().Context
	if err := l.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalln(err)
	}
}

// PostMessage implements LoopControl.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.messages = append(l.messages, msg)
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

func (l *Loop) runIteration(ctx context.Context, now time.Time) {
	iter := &loopIteration{Loop: l, time: now}
	l.lock.Lock()
	iter.messages, l.messages = l.messages, nil
	l.lock.Unlock()
	iter.ctx = context.WithValue(ctx, loopCtxKey, LoopControl(l))
	for level, ctls := range l.controllers {
		iter.priorityLevel = level
		for _, ctl := range ctls {
			if err := ctl.Control(iter); err != nil {
				glog.Errorf("controller error at level %d: %v", level, err)
			}
		}
	}
	atomic.AddUint64(&l.iterations, 1)
}

type loopIteration struct {
	*Loop
	ctx           context.Context
	time          time.Time
	priorityLevel int
	messages      []Message
}

func (t *loopIteration) Context() context.Context { return t.ctx }
func (t *loopIteration) Time() time.Time          { return t.time }
func (t *loopIteration) PriorityLevel() int       { return t.priorityLevel }
func (t *loopIteration) Messages() MessageStore   { return t }

type messageContext struct {
	msg   Message
	taken bool
}

func (c *messageContext) CurrentMessage() Message { return c.msg }
func (c *messageContext) MessageTaken()           { c.taken = true }

// ProcessMessages implements MessageStore.
func (t *loopIteration) ProcessMessages(proc MessageProcessor) {
	remains := t.messages[:0]
	for _, msg := range t.messages {
		mctx := &messageContext{msg: msg}
		proc.ProcessMessage(mctx)
		if !mctx.taken {
			remains = append(remains, msg)
		}
	}
	for n := len(remains); n < len(t.messages); n++ {
		t.messages[n] = nil
	}
	t.messages = remains
}
