package game

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Registry is the set of currently connected players.
type Registry struct {
	mu      sync.RWMutex
	players map[string]*Player
}

func NewRegistry() *Registry {
	return &Registry{players: make(map[string]*Player)}
}

func (r *Registry) Create() *Player {
	p := NewPlayer(uuid.NewString())
	r.Add(p)
	return p
}

// Add inserts p unless a player with the same id already exists, in which
// case the existing record is returned.
func (r *Registry) Add(p *Player) *Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.players[p.ID]; ok {
		return existing
	}
	r.players[p.ID] = p
	return p
}

func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[id]; !ok {
		return false
	}
	delete(r.players, id)
	return true
}

func (r *Registry) Get(id string) (*Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	return p, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// snapshot returns the current members ordered by id.
func (r *Registry) snapshot() []*Player {
	r.mu.RLock()
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Each calls fn for every member. The registry lock is not held during fn.
func (r *Registry) Each(fn func(*Player)) {
	for _, p := range r.snapshot() {
		fn(p)
	}
}

func (r *Registry) Others(id string) []*Player {
	all := r.snapshot()
	out := all[:0]
	for _, p := range all {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
