package chromesurface

import (
	"context"
	"errors"
	"sync"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"pkt.systems/inkbridge/schema"
	"pkt.systems/inkbridge/wire"
	"pkt.systems/pslog"
)

// BindingName is the page function the editor calls to post events to the host.
const BindingName = "inkbridgePost"

const defaultQueueDepth = 256

// Deliver receives decoded surface events. It is called from the CDP event
// goroutine and must not block.
type Deliver func(schema.SurfaceEvent)

// Surface is one editor page in a Chrome tab. It implements core.Surface.
type Surface struct {
	id      schema.SurfaceID
	ctx     context.Context
	cancel  context.CancelFunc
	deliver Deliver
	log     pslog.Logger
	eval    func(ctx context.Context, script string) error

	attachOnce sync.Once
	attachErr  error

	mu     sync.Mutex
	closed bool
	queue  chan string
	done   chan struct{}
}

// NewSurface opens a tab in browser. Events posted by the page are decoded and
// handed to deliver; call Load to navigate.
func NewSurface(browser *Browser, id schema.SurfaceID, deliver Deliver) *Surface {
	tabCtx, cancel := chromedp.NewContext(browser.ctx)
	s := newSurface(tabCtx, cancel, id, deliver, browser.log, evaluate)
	chromedp.ListenTarget(tabCtx, func(ev any) {
		if called, ok := ev.(*runtime.EventBindingCalled); ok {
			s.handleBinding(called)
		}
	})
	return s
}

func newSurface(ctx context.Context, cancel context.CancelFunc, id schema.SurfaceID, deliver Deliver, logger pslog.Logger, eval func(context.Context, string) error) *Surface {
	if logger == nil {
		logger = pslog.Ctx(ctx)
	}
	s := &Surface{
		id:      id,
		ctx:     ctx,
		cancel:  cancel,
		deliver: deliver,
		log:     logger.With("surface", id),
		eval:    eval,
		queue:   make(chan string, defaultQueueDepth),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

func evaluate(ctx context.Context, script string) error {
	return chromedp.Run(ctx, chromedp.Evaluate(script, nil))
}

// attach creates the tab on the surface context. chromedp binds the tab's
// event routing to the context of its first Run, so it must outlive Load.
func (s *Surface) attach(ctx context.Context) error {
	s.attachOnce.Do(func() {
		errCh := make(chan error, 1)
		go func() { errCh <- chromedp.Run(s.ctx) }()
		select {
		case s.attachErr = <-errCh:
		case <-ctx.Done():
			s.attachErr = ctx.Err()
		}
	})
	return s.attachErr
}

// Load installs the event binding and navigates the tab to url. ctx bounds
// the navigation only; the tab lives until Close.
func (s *Surface) Load(ctx context.Context, url string) error {
	if err := s.attach(ctx); err != nil {
		s.log.Warn("chrome surface attach failed", "err", err)
		return err
	}
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(runCtx, runtime.AddBinding(BindingName), chromedp.Navigate(url)); err != nil {
		s.log.Warn("chrome surface load failed", "url", url, "err", err)
		return err
	}
	s.log.Info("chrome surface loaded", "url", url)
	return nil
}

// Evaluate runs a read-only expression in the page and stores the result in res.
func (s *Surface) Evaluate(expression string, res any) error {
	return chromedp.Run(s.ctx, chromedp.Evaluate(expression, res))
}

// ID returns the surface id.
func (s *Surface) ID() schema.SurfaceID {
	return s.id
}

// Dispatch queues a script for in-order evaluation without blocking.
func (s *Surface) Dispatch(script string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.log.Debug("chrome surface dispatch after close")
		return
	}
	select {
	case s.queue <- script:
	default:
		s.log.Warn("chrome surface queue full; script dropped", "depth", cap(s.queue))
	}
}

// Close stops delivery and closes the tab.
func (s *Surface) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	<-s.done
	s.cancel()
}

func (s *Surface) run() {
	defer close(s.done)
	for script := range s.queue {
		if err := s.eval(s.ctx, script); err != nil {
			if errors.Is(err, context.Canceled) {
				continue
			}
			s.log.Warn("chrome surface evaluate failed", "err", err)
			continue
		}
		s.log.Trace("chrome surface evaluated", "bytes", len(script))
	}
}

func (s *Surface) handleBinding(ev *runtime.EventBindingCalled) {
	if ev == nil || ev.Name != BindingName {
		return
	}
	event, err := wire.DecodeEvent([]byte(ev.Payload))
	if err != nil {
		s.log.Warn("chrome surface event rejected", "err", err)
		return
	}
	if s.deliver != nil {
		s.deliver(event)
	}
}
