package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
	"github.com/yungbote/neurobridge-assessment/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

// loadTimeout bounds one shared store round trip; it is detached from the caller that started it.
const loadTimeout = 5 * time.Second

// QuestionStore is the persistence side of a catalog (see data/repos/assessment.QuestionRepo).
type QuestionStore interface {
	ListByConcepts(dbc dbctx.Context, concepts []string) ([]*types.QuestionRecord, error)
}

type cacheEntry struct {
	questions []types.Question
	loadedAt  time.Time
}

// StoreCatalog reads questions from a QuestionStore and keeps them for ttl.
// Concurrent misses for the same concept set share one store round trip.
type StoreCatalog struct {
	store QuestionStore
	log   *logger.Logger
	ttl   time.Duration
	now   func() time.Time

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]cacheEntry
}

func NewStoreCatalog(store QuestionStore, log *logger.Logger, ttl time.Duration) *StoreCatalog {
	return &StoreCatalog{
		store: store,
		log:   log.With("service", "StoreCatalog"),
		ttl:   ttl,
		now:   time.Now,
		cache: map[string]cacheEntry{},
	}
}

func (c *StoreCatalog) ListByConcepts(ctx context.Context, concepts []string) ([]types.Question, error) {
	key := cacheKey(concepts)
	if qs, ok := c.cached(key); ok {
		return qs, nil
	}
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		rows, err := c.store.ListByConcepts(dbctx.Context{Ctx: lctx}, concepts)
		if err != nil {
			return nil, err
		}
		qs := make([]types.Question, 0, len(rows))
		for _, r := range rows {
			qs = append(qs, r.ToQuestion())
		}
		c.mu.Lock()
		c.cache[key] = cacheEntry{questions: qs, loadedAt: c.now()}
		c.mu.Unlock()
		c.log.Debug("catalog loaded", "concepts", key, "count", len(qs))
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneAll(v.([]types.Question)), nil
}

// Invalidate drops every cached concept set, e.g. after seeding.
func (c *StoreCatalog) Invalidate() {
	c.mu.Lock()
	c.cache = map[string]cacheEntry{}
	c.mu.Unlock()
}

func (c *StoreCatalog) cached(key string) ([]types.Question, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	e, ok := c.cache[key]
	c.mu.RUnlock()
	if !ok || c.now().Sub(e.loadedAt) > c.ttl {
		return nil, false
	}
	return cloneAll(e.questions), true
}

func cacheKey(concepts []string) string {
	norm := make([]string, 0, len(concepts))
	for _, c := range concepts {
		if c = types.NormalizeConcept(c); c != "" {
			norm = append(norm, c)
		}
	}
	sort.Strings(norm)
	return strings.Join(norm, ",")
}

func cloneAll(in []types.Question) []types.Question {
	out := make([]types.Question, len(in))
	for i, q := range in {
		out[i] = q.Clone()
	}
	return out
}
