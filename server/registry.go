package server

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrProfileNotFound is returned when no profile matches an id or name.
	ErrProfileNotFound = errors.New("server profile not found")

	// ErrDuplicateProfile is returned when a profile id is already registered.
	ErrDuplicateProfile = errors.New("server profile already exists")
)

// SessionEvicter drops cached sessions for a profile id.
type SessionEvicter interface {
	RemoveSession(id string)
}

// Registry keeps the configured profiles and evicts sessions when a profile changes.
type Registry struct {
	mu       sync.RWMutex
	profiles []Profile
	evicter  SessionEvicter
	logger   zerolog.Logger
}

// NewRegistry creates a registry seeded with profiles
func NewRegistry(profiles []Profile, evicter SessionEvicter, logger zerolog.Logger) *Registry {
	return &Registry{
		profiles: append([]Profile(nil), profiles...),
		evicter:  evicter,
		logger:   logger,
	}
}

// List returns a copy of all profiles in configuration order.
func (r *Registry) List() []Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]Profile(nil), r.profiles...)
}

// Get looks a profile up by id, falling back to its display name.
func (r *Registry) Get(idOrName string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.profiles {
		if p.ID == idOrName {
			return p, nil
		}
	}
	for _, p := range r.profiles {
		if p.Name != "" && p.Name == idOrName {
			return p, nil
		}
	}

	return Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, idOrName)
}

// Add registers a new profile. An empty id is replaced by a random uuid.
func (r *Registry) Add(p Profile) (Profile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.profiles {
		if existing.ID == p.ID {
			return Profile{}, fmt.Errorf("%w: %s", ErrDuplicateProfile, p.ID)
		}
	}

	r.profiles = append(r.profiles, p)
	r.logger.Debug().Str("server", p.ID).Str("host", p.Host).Msg("Added server profile")

	return p, nil
}

// Edit replaces the profile with the same id and drops its session,
// so the next request picks up the new address and credentials.
func (r *Registry) Edit(p Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.profiles {
		if existing.ID == p.ID {
			r.profiles[i] = p
			r.evict(p.ID)
			r.logger.Debug().Str("server", p.ID).Msg("Edited server profile")
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrProfileNotFound, p.ID)
}

// Remove deletes the profile and drops its session.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.profiles {
		if existing.ID == id {
			r.profiles = append(r.profiles[:i], r.profiles[i+1:]...)
			r.evict(id)
			r.logger.Debug().Str("server", id).Msg("Removed server profile")
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrProfileNotFound, id)
}

func (r *Registry) evict(id string) {
	if r.evicter != nil {
		r.evicter.RemoveSession(id)
	}
}
