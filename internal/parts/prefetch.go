package parts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultPrefetchTimeout = 10 * time.Second
	prefetchBytes          = 1 << 20
)

// Prefetcher warms the delivery cache for the part after the one being
// played so playback does not stall at the boundary.
type Prefetcher struct {
	client   *http.Client
	resolver *Resolver
	timeout  time.Duration
	log      logrus.FieldLogger

	mu      sync.Mutex
	handles map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewPrefetcher returns a prefetcher. Each warm-up is abandoned after timeout;
// zero selects the default.
func NewPrefetcher(client *http.Client, resolver *Resolver, timeout time.Duration, log logrus.FieldLogger) *Prefetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = defaultPrefetchTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Prefetcher{
		client:   client,
		resolver: resolver,
		timeout:  timeout,
		log:      log,
		handles:  make(map[string]context.CancelFunc),
	}
}

// PrefetchNext starts a background warm-up of parts[current+1]. It returns
// immediately and never fails; missing parts, unresolvable URLs and duplicate
// requests are ignored.
func (p *Prefetcher) PrefetchNext(parts []VideoPart, current int) {
	next := current + 1
	if current < 0 || next >= len(parts) {
		return
	}
	u, err := p.resolver.PlaybackURL(parts[next])
	if err != nil {
		p.log.WithError(err).WithField("part", next).Debug("skipping prefetch")
		return
	}

	p.mu.Lock()
	if _, busy := p.handles[u]; busy {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	p.handles[u] = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer p.release(u)
		if err := p.warm(ctx, u); err != nil {
			p.log.WithError(err).WithField("url", u).Debug("prefetch failed")
		}
	}()
}

func (p *Prefetcher) warm(ctx context.Context, u string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", prefetchBytes-1))
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	_, err = io.Copy(io.Discard, io.LimitReader(resp.Body, prefetchBytes))
	return err
}

func (p *Prefetcher) release(u string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cancel, ok := p.handles[u]; ok {
		cancel()
		delete(p.handles, u)
	}
}

// Pending returns the number of warm-ups still in flight.
func (p *Prefetcher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handles)
}

// Wait blocks until every started warm-up has finished or timed out.
func (p *Prefetcher) Wait() {
	p.wg.Wait()
}
