package core

import (
	"context"
	"fmt"
	"sync"

	"pkt.systems/inkbridge/schema"
	"pkt.systems/pslog"
)

// DefaultLoopDepth bounds the number of queued operations.
const DefaultLoopDepth = 256

// Loop runs posted operations sequentially on a single goroutine. Session and
// Host state is only touched from inside Loop operations.
type Loop struct {
	ops  chan func()
	done chan struct{}
	once sync.Once
	log  pslog.Logger
}

// NewLoop constructs a loop with the given queue depth.
func NewLoop(depth int, logger pslog.Logger) *Loop {
	if depth <= 0 {
		depth = DefaultLoopDepth
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Loop{
		ops:  make(chan func(), depth),
		done: make(chan struct{}),
		log:  logger,
	}
}

// Run executes operations until ctx is canceled.
func (l *Loop) Run(ctx context.Context) {
	defer l.once.Do(func() { close(l.done) })
	l.log.Debug("bridge loop start")
	for {
		select {
		case <-ctx.Done():
			l.log.Debug("bridge loop stop")
			return
		case fn := <-l.ops:
			l.exec(fn)
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("bridge loop operation panic", "panic", fmt.Sprint(r))
		}
	}()
	fn()
}

// Post enqueues fn without waiting for it to run.
func (l *Loop) Post(ctx context.Context, fn func()) error {
	select {
	case <-l.done:
		return schema.ErrLoopStopped
	default:
	}
	select {
	case l.ops <- fn:
		return nil
	case <-l.done:
		return schema.ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Call enqueues fn and waits until it has run.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := l.Post(ctx, func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
		}
		return schema.ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
