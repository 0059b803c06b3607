package pos

import (
	"context"
	"sort"
	"sync"
	"time"

	"restoran-pos/internal/metrics"
	"restoran-pos/internal/storage"

	"go.uber.org/zap"
)

const defaultWriteTimeout = 10 * time.Second

// persister writes collection snapshots on a background goroutine. Pending
// writes are coalesced per key so the latest snapshot always wins and
// enqueue never blocks the caller.
type persister struct {
	gw      storage.Gateway
	log     *zap.Logger
	metrics *metrics.Metrics
	timeout time.Duration

	mu       sync.Mutex
	pending  map[string]string
	inflight bool
	waiters  []chan struct{}
	closed   bool

	wake      chan struct{}
	stop      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

func newPersister(gw storage.Gateway, log *zap.Logger, m *metrics.Metrics, timeout time.Duration) *persister {
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	p := &persister{
		gw:      gw,
		log:     log,
		metrics: m,
		timeout: timeout,
		pending: make(map[string]string),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *persister) enqueue(key, value string) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.log.Warn("persister closed, dropping write", zap.String("key", key))
		return
	}
	p.pending[key] = value
	p.mu.Unlock()
	p.signal()
}

func (p *persister) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *persister) run() {
	defer close(p.stopped)
	for {
		select {
		case <-p.wake:
			p.drain()
		case <-p.stop:
			p.drain()
			return
		}
	}
}

func (p *persister) drain() {
	for {
		p.mu.Lock()
		if len(p.pending) == 0 {
			p.inflight = false
			for _, w := range p.waiters {
				close(w)
			}
			p.waiters = nil
			p.mu.Unlock()
			return
		}
		batch := p.pending
		p.pending = make(map[string]string)
		p.inflight = true
		p.mu.Unlock()

		keys := make([]string, 0, len(batch))
		for k := range batch {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			p.write(k, batch[k])
		}
	}
}

func (p *persister) write(key, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.gw.Set(ctx, key, value); err != nil {
		p.log.Warn("persist failed", zap.String("key", key), zap.Error(err))
		p.metrics.ObservePersistFailure(key)
	}
}

// flush waits until every write enqueued before the call has been attempted.
func (p *persister) flush(ctx context.Context) error {
	p.mu.Lock()
	if len(p.pending) == 0 && !p.inflight {
		p.mu.Unlock()
		return nil
	}
	done := make(chan struct{})
	p.waiters = append(p.waiters, done)
	p.mu.Unlock()
	p.signal()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *persister) close(ctx context.Context) error {
	err := p.flush(ctx)
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.stop)
	})
	select {
	case <-p.stopped:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}
