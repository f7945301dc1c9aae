package jobs

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const storeShards = 16

// Store is a sharded in-memory holder of job records. Each update replaces
// the record pointer under its shard lock, so readers always observe either
// the previous or the fully written snapshot, never a partial one.
type Store struct {
	shards [storeShards]storeShard

	ttl      time.Duration
	interval time.Duration
}

type storeShard struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewStore creates a store whose janitor evicts terminal records ttl after
// completion, checking every interval.
func NewStore(ttl, interval time.Duration) *Store {
	s := &Store{ttl: ttl, interval: interval}
	for i := range s.shards {
		s.shards[i].jobs = make(map[string]*Job)
	}
	return s
}

func (s *Store) shard(id string) *storeShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &s.shards[h.Sum32()%storeShards]
}

// Put stores the record snapshot, replacing any previous one for the id.
func (s *Store) Put(job *Job) {
	shard := s.shard(job.ID)
	shard.mu.Lock()
	shard.jobs[job.ID] = job
	shard.mu.Unlock()
}

// Get returns the current snapshot for the id.
func (s *Store) Get(id string) (*Job, bool) {
	shard := s.shard(id)
	shard.mu.RLock()
	job, ok := shard.jobs[id]
	shard.mu.RUnlock()
	return job, ok
}

// Delete removes the record for the id, if present.
func (s *Store) Delete(id string) {
	shard := s.shard(id)
	shard.mu.Lock()
	delete(shard.jobs, id)
	shard.mu.Unlock()
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	total := 0
	for i := range s.shards {
		s.shards[i].mu.RLock()
		total += len(s.shards[i].jobs)
		s.shards[i].mu.RUnlock()
	}
	return total
}

// StartJanitor runs TTL eviction until ctx ends. Only terminal records age
// out; in-flight jobs are never touched, so eviction cannot race a
// processing sequence.
func (s *Store) StartJanitor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.evictExpired(now)
			}
		}
	}()
}

func (s *Store) evictExpired(now time.Time) {
	evicted := 0
	for i := range s.shards {
		shard := &s.shards[i]
		shard.mu.Lock()
		for id, job := range shard.jobs {
			if job.Status.IsTerminal() && now.Sub(job.CompletedAt) > s.ttl {
				delete(shard.jobs, id)
				evicted++
			}
		}
		shard.mu.Unlock()
	}
	if evicted > 0 {
		log.Debug().
			Str("component", "jobs.store").
			Int("evicted", evicted).
			Msg("Evicted expired job records")
	}
}
