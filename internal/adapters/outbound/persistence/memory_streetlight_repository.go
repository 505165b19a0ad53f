package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/erickfunier/lumenq/internal/domain/streetlight"
	"github.com/erickfunier/lumenq/internal/domain/worker"
)

// MemoryStreetlightRepository implements streetlight.Repository in process.
// Callers receive copies, so mutating a returned light has no effect until
// Update is called.
type MemoryStreetlightRepository struct {
	mu     sync.RWMutex
	lights map[int64]streetlight.Streetlight
	nextID int64
}

// NewMemoryStreetlightRepository creates a repository holding seed
func NewMemoryStreetlightRepository(seed ...streetlight.Streetlight) *MemoryStreetlightRepository {
	r := &MemoryStreetlightRepository{
		lights: make(map[int64]streetlight.Streetlight),
	}
	for _, light := range seed {
		if light.UpdatedAt.IsZero() {
			light.UpdatedAt = time.Now().UTC()
		}
		r.lights[light.ID] = light
		if light.ID > r.nextID {
			r.nextID = light.ID
		}
	}
	return r
}

func (r *MemoryStreetlightRepository) List(_ context.Context) ([]*streetlight.Streetlight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lights := make([]*streetlight.Streetlight, 0, len(r.lights))
	for _, light := range r.lights {
		light := light
		lights = append(lights, &light)
	}
	sort.Slice(lights, func(i, j int) bool { return lights[i].ID < lights[j].ID })
	return lights, nil
}

func (r *MemoryStreetlightRepository) GetByID(_ context.Context, id int64) (*streetlight.Streetlight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	light, ok := r.lights[id]
	if !ok {
		return nil, streetlight.ErrStreetlightNotFound
	}
	return &light, nil
}

func (r *MemoryStreetlightRepository) Create(_ context.Context, light *streetlight.Streetlight) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	light.ID = r.nextID
	r.lights[light.ID] = *light
	return nil
}

func (r *MemoryStreetlightRepository) Update(_ context.Context, light *streetlight.Streetlight) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lights[light.ID]; !ok {
		return streetlight.ErrStreetlightNotFound
	}
	r.lights[light.ID] = *light
	return nil
}

// MemoryScopeProvider hands every job the shared in-memory repository.
// There is nothing to commit, so release is a no-op.
type MemoryScopeProvider struct {
	repo *MemoryStreetlightRepository
}

// NewMemoryScopeProvider creates a scope provider over repo
func NewMemoryScopeProvider(repo *MemoryStreetlightRepository) *MemoryScopeProvider {
	return &MemoryScopeProvider{repo: repo}
}

// Open implements worker.ScopeProvider
func (p *MemoryScopeProvider) Open(_ context.Context) (streetlight.UnitOfWork, worker.Release, error) {
	return streetlight.UnitOfWork{Streetlights: p.repo}, func(context.Context, error) error { return nil }, nil
}
