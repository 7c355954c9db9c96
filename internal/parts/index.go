package parts

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const defaultFetchTimeout = 15 * time.Second

// Fetcher loads the raw part records of a video from wherever they are stored.
type Fetcher interface {
	FetchParts(ctx context.Context, videoID string) ([]RawPart, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, videoID string) ([]RawPart, error)

func (f FetcherFunc) FetchParts(ctx context.Context, videoID string) ([]RawPart, error) {
	return f(ctx, videoID)
}

// Index caches normalized part lists keyed by video id. Entries never expire;
// they are replaced only after Invalidate or InvalidateAll.
//
// Concurrent lookups of the same uncached video share one fetch. A fetch that
// finishes after its entry was invalidated is returned to its callers but
// not stored.
type Index struct {
	fetcher      Fetcher
	fetchTimeout time.Duration
	log          logrus.FieldLogger

	mu      sync.RWMutex
	entries map[string][]VideoPart
	gens    map[string]uint64
	epoch   uint64

	group singleflight.Group
}

// NewIndex returns an empty index backed by fetcher. A zero fetchTimeout
// selects the default.
func NewIndex(fetcher Fetcher, fetchTimeout time.Duration, log logrus.FieldLogger) *Index {
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Index{
		fetcher:      fetcher,
		fetchTimeout: fetchTimeout,
		log:          log,
		entries:      make(map[string][]VideoPart),
		gens:         make(map[string]uint64),
	}
}

type generation struct {
	epoch uint64
	gen   uint64
}

func (g generation) key(videoID string) string {
	return videoID + "@" + strconv.FormatUint(g.epoch, 10) + "." + strconv.FormatUint(g.gen, 10)
}

// Parts returns the normalized parts of videoID. Fetch failures are logged
// and yield an empty list, which callers treat as a single-resource video.
// The returned slice is a copy owned by the caller.
func (x *Index) Parts(ctx context.Context, videoID string) []VideoPart {
	x.mu.RLock()
	cached, ok := x.entries[videoID]
	gen := generation{epoch: x.epoch, gen: x.gens[videoID]}
	x.mu.RUnlock()
	if ok {
		return slices.Clone(cached)
	}

	log := x.log.WithField("video", videoID)
	ch := x.group.DoChan(gen.key(videoID), func() (any, error) {
		// The fetch outlives any single caller; it is bounded by fetchTimeout.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), x.fetchTimeout)
		defer cancel()

		parts, err := load(fctx, x.fetcher, videoID, log)
		if err != nil {
			return nil, err
		}
		x.store(videoID, gen, parts)
		return parts, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			log.WithError(res.Err).Error("failed to fetch video parts")
			return []VideoPart{}
		}
		return slices.Clone(res.Val.([]VideoPart))
	case <-ctx.Done():
		log.WithError(ctx.Err()).Warn("gave up waiting for video parts")
		return []VideoPart{}
	}
}

func (x *Index) store(videoID string, gen generation, parts []VideoPart) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.epoch != gen.epoch || x.gens[videoID] != gen.gen {
		x.log.WithField("video", videoID).Debug("discarding parts fetched before invalidation")
		return
	}
	x.entries[videoID] = parts
}

// Cached reports whether videoID currently has a cache entry.
func (x *Index) Cached(videoID string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.entries[videoID]
	return ok
}

// Invalidate evicts videoID so the next Parts call fetches again.
func (x *Index) Invalidate(videoID string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.entries, videoID)
	x.gens[videoID]++
}

// InvalidateAll evicts every entry.
func (x *Index) InvalidateAll() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries = make(map[string][]VideoPart)
	x.gens = make(map[string]uint64)
	x.epoch++
}

func load(ctx context.Context, fetcher Fetcher, videoID string, log logrus.FieldLogger) ([]VideoPart, error) {
	raw, err := fetcher.FetchParts(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return Normalize(raw, log), nil
}

// Loader fetches and normalizes parts on every call without caching. Worker
// processes use it because they never see the API service's invalidations.
type Loader struct {
	fetcher      Fetcher
	fetchTimeout time.Duration
	log          logrus.FieldLogger
}

// NewLoader returns a Loader backed by fetcher. A zero fetchTimeout selects
// the default.
func NewLoader(fetcher Fetcher, fetchTimeout time.Duration, log logrus.FieldLogger) *Loader {
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Loader{fetcher: fetcher, fetchTimeout: fetchTimeout, log: log}
}

// Parts returns the current normalized parts of videoID. Fetch failures are
// logged and yield an empty list, as with Index.
func (l *Loader) Parts(ctx context.Context, videoID string) []VideoPart {
	ctx, cancel := context.WithTimeout(ctx, l.fetchTimeout)
	defer cancel()

	log := l.log.WithField("video", videoID)
	list, err := load(ctx, l.fetcher, videoID, log)
	if err != nil {
		log.WithError(err).Error("failed to fetch video parts")
		return []VideoPart{}
	}
	return list
}
