package worktime

import (
	"fmt"
	"sync"
	"time"
)

// Resolver maps a site's IANA zone name to a location, falling back to a default zone
// when the name is empty or unknown. Lookups are cached.
type Resolver struct {
	fallback *time.Location

	mu    sync.RWMutex
	cache map[string]*time.Location
}

// NewResolver loads the fallback zone once
func NewResolver(defaultZone string) (*Resolver, error) {
	loc, err := time.LoadLocation(defaultZone)
	if err != nil {
		return nil, fmt.Errorf("worktime: load default zone %q: %w", defaultZone, err)
	}
	return &Resolver{fallback: loc, cache: make(map[string]*time.Location)}, nil
}

// Default is the fallback location
func (r *Resolver) Default() *time.Location { return r.fallback }

// Resolve never fails; unknown zones resolve to the fallback
func (r *Resolver) Resolve(zone string) *time.Location {
	if zone == "" {
		return r.fallback
	}

	r.mu.RLock()
	loc, ok := r.cache[zone]
	r.mu.RUnlock()
	if ok {
		return loc
	}

	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = r.fallback
	}

	r.mu.Lock()
	r.cache[zone] = loc
	r.mu.Unlock()
	return loc
}
