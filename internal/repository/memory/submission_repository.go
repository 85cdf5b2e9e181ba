package memory

import (
	"time"

	"academic-auth-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// SubmissionRepository keeps live submissions until they sit idle for the
// configured TTL. An evicted submission has its runner stopped.
type SubmissionRepository struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewSubmissionRepository(ttl time.Duration) *SubmissionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	cleanup := ttl / 6
	if cleanup < time.Second {
		cleanup = time.Second
	}
	c := cache.New(ttl, cleanup)
	c.OnEvicted(func(_ string, v interface{}) {
		if sub, ok := v.(*entity.Submission); ok && sub.Runner != nil {
			// Eviction runs on the janitor goroutine or the deleting caller;
			// never from inside the runner itself.
			go sub.Runner.Stop()
		}
	})
	return &SubmissionRepository{cache: c, ttl: ttl}
}

func (r *SubmissionRepository) Save(sub *entity.Submission) {
	r.cache.Set(sub.Id.String(), sub, cache.DefaultExpiration)
}

// Get returns the submission and extends its lifetime.
func (r *SubmissionRepository) Get(id uuid.UUID) (*entity.Submission, bool) {
	x, found := r.cache.Get(id.String())
	if !found {
		return nil, false
	}
	sub := x.(*entity.Submission)
	r.cache.Set(id.String(), sub, cache.DefaultExpiration)
	return sub, true
}

func (r *SubmissionRepository) Delete(id uuid.UUID) {
	r.cache.Delete(id.String())
}

func (r *SubmissionRepository) Count() int {
	return r.cache.ItemCount()
}

// Flush drops every submission and stops their runners.
func (r *SubmissionRepository) Flush() {
	for key := range r.cache.Items() {
		r.cache.Delete(key)
	}
}
