// internal/coordinator/registry.go
package coordinator

import (
	"fmt"
	"sync"

	"github.com/fieldbus-io/modbus-coordinator/internal/register"
)

// registry tracks the register set each attached consumer needs.
// Attach/detach are safe to call while a cycle is executing: they only
// flip the dirty flag, and the batch list is rebuilt at the next cycle
// boundary.
type registry struct {
	mu        sync.Mutex
	consumers map[string]map[register.Key]register.Register
	order     []string // attach order; first registrant wins key collisions
	dirty     bool
}

func newRegistry() *registry {
	return &registry{
		consumers: make(map[string]map[register.Key]register.Register),
	}
}

// attach replaces the consumer's register set. A register wider than
// maxWords is a configuration error: the whole registration is rejected
// and the previous set, if any, stays in effect.
func (g *registry) attach(id string, regs []register.Register, maxWords uint16) error {
	set := make(map[register.Key]register.Register, len(regs))
	for _, r := range regs {
		if r.Words > maxWords {
			return fmt.Errorf("registry: register %s exceeds transaction ceiling of %d words", r, maxWords)
		}
		switch r.Words {
		case 1, 2, 4:
		default:
			return fmt.Errorf("registry: register %s has invalid width", r)
		}
		if _, ok := set[r.Key()]; !ok {
			set[r.Key()] = r
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, known := g.consumers[id]; !known {
		g.order = append(g.order, id)
	}
	g.consumers[id] = set
	g.dirty = true
	return nil
}

// detach removes the consumer. Detaching an unknown id is a no-op.
func (g *registry) detach(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, known := g.consumers[id]; !known {
		return
	}
	delete(g.consumers, id)
	for i, o := range g.order {
		if o == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	g.dirty = true
}

// snapshot returns the union of all consumer sets and whether it changed
// since the last snapshot. The dirty flag is cleared: bursts of
// attach/detach between two cycles coalesce into one rebuild.
func (g *registry) snapshot() ([]register.Register, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	changed := g.dirty
	g.dirty = false

	union := make(map[register.Key]register.Register)
	var regs []register.Register
	for _, id := range g.order {
		for _, r := range g.consumers[id] {
			if _, ok := union[r.Key()]; ok {
				continue
			}
			union[r.Key()] = r
			regs = append(regs, r)
		}
	}
	return regs, changed
}
