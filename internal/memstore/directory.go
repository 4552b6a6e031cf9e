package memstore

import (
	"context"

	"github.com/aawaaz/ehs-server/internal/models"
)

// Directory implements services.Directory over an in-memory user list
type Directory struct{ s *Store }

// AddUser registers a user
func (d *Directory) AddUser(u models.User) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	d.s.users[u.ID] = u
}

// ListActiveUsersByRole returns active users with role matching filter
func (d *Directory) ListActiveUsersByRole(_ context.Context, role models.Role, filter models.LocationFilter) ([]models.User, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	var out []models.User
	for _, u := range d.s.users {
		if u.IsActive && u.Role == role && filter.Matches(u) {
			out = append(out, u)
		}
	}
	return out, nil
}

// ListSuperusers returns active superusers
func (d *Directory) ListSuperusers(context.Context) ([]models.User, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	var out []models.User
	for _, u := range d.s.users {
		if u.IsActive && u.IsSuperuser {
			out = append(out, u)
		}
	}
	return out, nil
}

// DayGate implements services.DayGate in memory
type DayGate struct{ s *Store }

// Claim returns true for the first caller of (key, day)
func (g *DayGate) Claim(_ context.Context, key, day string) (bool, error) {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	k := key + ":" + day
	if g.s.days[k] {
		return false, nil
	}
	g.s.days[k] = true
	return true, nil
}
