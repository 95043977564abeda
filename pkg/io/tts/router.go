package tts

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type route struct {
	synth    Synthesizer
	defaults Config
}

// Router implements Synthesizer by dispatching on Config.Service.
type Router struct {
	mu     sync.RWMutex
	routes map[string]route
}

func NewRouter() *Router {
	return &Router{routes: make(map[string]route)}
}

// Register adds a provider. defaults fill Voice and Model when a session switches to it.
func (r *Router) Register(name string, s Synthesizer, defaults Config) {
	defaults.Service = name
	r.mu.Lock()
	r.routes[name] = route{synth: s, defaults: defaults}
	r.mu.Unlock()
}

func (r *Router) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.routes[name]
	return ok
}

func (r *Router) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.routes))
	for n := range r.routes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Defaults returns the registered default config for name.
func (r *Router) Defaults(name string) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.routes[name]
	return rt.defaults, ok
}

// Merge applies a partial update to cur. Unknown services and empty fields are skipped
// and reported in ignored. Switching service resets Voice and Model to that service's
// defaults unless the patch sets them.
func (r *Router) Merge(cur, patch Config) (next Config, ignored []string) {
	next = cur
	if patch.Service != "" && patch.Service != cur.Service {
		if d, ok := r.Defaults(patch.Service); ok {
			next = d
		} else {
			ignored = append(ignored, "service")
		}
	}
	if patch.Voice != "" {
		next.Voice = patch.Voice
	}
	if patch.Model != "" {
		next.Model = patch.Model
	}
	return next, ignored
}

func (r *Router) Synthesize(ctx context.Context, text string, cfg Config) (Audio, error) {
	if text == "" {
		return Audio{}, ErrEmptyText
	}
	r.mu.RLock()
	rt, ok := r.routes[cfg.Service]
	r.mu.RUnlock()
	if !ok {
		return Audio{}, fmt.Errorf("%w: %q", ErrUnknownService, cfg.Service)
	}
	cfg.Voice = pick(cfg.Voice, rt.defaults.Voice)
	cfg.Model = pick(cfg.Model, rt.defaults.Model)
	return rt.synth.Synthesize(ctx, text, cfg)
}
