package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/models"
)

const userColumns = `id, email, full_name, role, plant_id, zone_id, location_id, is_active, is_superuser`

// DirectoryStore answers role and location lookups from the users table
type DirectoryStore struct {
	db     DB
	logger *zap.SugaredLogger
}

// NewDirectoryStore creates a new directory adapter
func NewDirectoryStore(db DB, logger *zap.SugaredLogger) *DirectoryStore {
	return &DirectoryStore{db: db, logger: logger}
}

// ListActiveUsersByRole returns active users holding role, restricted by every set filter field
func (s *DirectoryStore) ListActiveUsersByRole(ctx context.Context, role models.Role, filter models.LocationFilter) ([]models.User, error) {
	conds := []string{"is_active", "role = $1"}
	args := []any{role}

	add := func(column string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.PlantID != nil {
		add("plant_id", *filter.PlantID)
	}
	if filter.ZoneID != nil {
		add("zone_id", *filter.ZoneID)
	}
	if filter.LocationID != nil {
		add("location_id", *filter.LocationID)
	}

	query := "SELECT " + userColumns + " FROM users WHERE " + strings.Join(conds, " AND ")
	return s.list(ctx, query, args...)
}

// ListSuperusers returns the admin broadcast list
func (s *DirectoryStore) ListSuperusers(ctx context.Context) ([]models.User, error) {
	return s.list(ctx, "SELECT "+userColumns+" FROM users WHERE is_active AND is_superuser")
}

func (s *DirectoryStore) list(ctx context.Context, query string, args ...any) ([]models.User, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.PlantID, &u.ZoneID,
			&u.LocationID, &u.IsActive, &u.IsSuperuser); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
