package site

import (
	"fmt"

	"github.com/i474232898/renewable-site-aggregation/internal/grid"
)

// Registry is the ordered set of sites declared for one run. It owns the
// site records; callers only ever receive copies.
type Registry struct {
	sites  []*Site
	byName map[string]int
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// Add validates s and appends it. Any resolution carried by s is discarded.
func (r *Registry) Add(s Site) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if _, ok := r.byName[s.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, s.Name)
	}

	s = s.clone()
	s.cell = grid.Cell{}
	s.resolved = false

	r.byName[s.Name] = len(r.sites)
	r.sites = append(r.sites, &s)
	return nil
}

// Len returns the number of declared sites.
func (r *Registry) Len() int { return len(r.sites) }

// get returns a copy of the named site.
func (r *Registry) get(name string) (Site, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Site{}, false
	}
	return r.sites[i].clone(), true
}

// Sites returns copies of every site in declaration order.
func (r *Registry) Sites() []Site {
	out := make([]Site, len(r.sites))
	for i, s := range r.sites {
		out[i] = s.clone()
	}
	return out
}

// Resolve snaps every site onto its nearest grid cell, each axis
// independently, always starting from the requested coordinates. Either all
// sites are resolved or, on error, none are changed.
func (r *Registry) Resolve(ix *grid.Index) error {
	cells := make([]grid.Cell, len(r.sites))
	for i, s := range r.sites {
		c, err := ix.Resolve(s.Lon, s.Lat)
		if err != nil {
			return fmt.Errorf("site %q: %w", s.Name, err)
		}
		cells[i] = c
	}

	for i, s := range r.sites {
		s.cell = cells[i]
		s.resolved = true
	}
	return nil
}

// Resolved returns copies of every site, failing with ErrUnresolvedSite if
// any site has not been resolved yet.
func (r *Registry) Resolved() ([]Site, error) {
	for _, s := range r.sites {
		if !s.resolved {
			return nil, fmt.Errorf("%w: %q", ErrUnresolvedSite, s.Name)
		}
	}
	return r.Sites(), nil
}

func (s *Site) clone() Site {
	out := *s
	if s.Orientation != nil {
		o := *s.Orientation
		out.Orientation = &o
	}
	return out
}
