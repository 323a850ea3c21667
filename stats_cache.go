package scout

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/mongodb/grip/recovery"
	"github.com/pkg/errors"
)

// Names of the activity stats caches.
const (
	StatsCacheCalls = "calls"
	StatsCacheTAL   = "tal"
)

const (
	topN               = 10
	statChanBufferSize = 1000
	statsLogInterval   = time.Minute
)

func newStatsCacheRegistry(ctx context.Context) map[string]*statsCache {
	registry := map[string]*statsCache{
		StatsCacheCalls: newStatsCache(StatsCacheCalls),
		StatsCacheTAL:   newStatsCache(StatsCacheTAL),
	}
	for _, r := range registry {
		go r.consumerLoop(ctx)
		go r.loggerLoop(ctx)
	}

	return registry
}

// Stat is one unit of user activity, such as a logged call or a company
// added to a TAL, attributed to a user and a hypothesis.
type Stat struct {
	Count        int
	User         string
	HypothesisID int
	CompanyID    *int
}

// statsCache counts activity between log intervals and logs the most active
// users, hypotheses and companies once per interval.
type statsCache struct {
	mu        sync.Mutex
	cacheName string
	statChan  chan Stat

	events       int
	total        int
	byUser       map[string]int
	byHypothesis map[string]int
	byCompany    map[string]int
}

func newStatsCache(name string) *statsCache {
	return &statsCache{
		cacheName:    name,
		statChan:     make(chan Stat, statChanBufferSize),
		byUser:       make(map[string]int),
		byHypothesis: make(map[string]int),
		byCompany:    make(map[string]int),
	}
}

func (s *statsCache) resetCache() {
	s.events = 0
	s.total = 0
	s.byUser = make(map[string]int)
	s.byHypothesis = make(map[string]int)
	s.byCompany = make(map[string]int)
}

func (s *statsCache) cacheStat(newStat Stat) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events++
	s.total += newStat.Count
	s.byUser[newStat.User] += newStat.Count
	s.byHypothesis[strconv.Itoa(newStat.HypothesisID)] += newStat.Count
	if newStat.CompanyID != nil {
		s.byCompany[strconv.Itoa(*newStat.CompanyID)] += newStat.Count
	}
}

func (s *statsCache) logStats() {
	s.mu.Lock()
	defer s.mu.Unlock()

	grip.InfoWhen(s.events > 0, message.Fields{
		"message":       fmt.Sprintf("%s activity", s.cacheName),
		"events":        s.events,
		"total":         s.total,
		"by_user":       topNItems(s.byUser, topN),
		"by_hypothesis": topNItems(s.byHypothesis, topN),
		"by_company":    topNItems(s.byCompany, topN),
	})

	s.resetCache()
}

func (s *statsCache) consumerLoop(ctx context.Context) {
	defer func() {
		if err := recovery.HandlePanicWithError(recover(), nil, "stats cache consumer"); err != nil {
			grip.Error(message.WrapError(err, message.Fields{
				"message": "panic in stats cache consumer loop",
				"cache":   s.cacheName,
			}))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case nextStat := <-s.statChan:
			s.cacheStat(nextStat)
		}
	}
}

func (s *statsCache) loggerLoop(ctx context.Context) {
	defer func() {
		if err := recovery.HandlePanicWithError(recover(), nil, "stats cache logger"); err != nil {
			grip.Error(message.WrapError(err, message.Fields{
				"message": "panic in stats cache logger loop",
				"cache":   s.cacheName,
			}))
		}
	}()

	ticker := time.NewTicker(statsLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.logStats()
		}
	}
}

// AddStat queues a stat for the cache. It returns an error when the queue is
// full rather than blocking the caller.
func (s *statsCache) AddStat(newStat Stat) error {
	if s == nil {
		return errors.New("stats cache is not configured")
	}

	select {
	case s.statChan <- newStat:
		return nil
	default:
		return errors.Errorf("%s stats cache is full", s.cacheName)
	}
}

type item struct {
	Identifier string `json:"identifier"`
	Count      int    `json:"count"`
}

// topNItems returns the n largest counts, ties ordered by identifier.
func topNItems(fullMap map[string]int, n int) []item {
	items := make([]item, 0, len(fullMap))
	for identifier, count := range fullMap {
		items = append(items, item{Identifier: identifier, Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Identifier < items[j].Identifier
	})

	if len(items) < n {
		n = len(items)
	}

	return items[:n]
}
