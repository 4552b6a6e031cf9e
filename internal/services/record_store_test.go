package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/models"
	"github.com/aawaaz/ehs-server/internal/services"
)

var recordRowColumns = []string{"id", "kind", "report_number", "title", "category", "severity",
	"plant_id", "zone_id", "location_id", "sublocation_id", "department",
	"status", "approval_status", "approval_remarks", "report_date", "deadline",
	"reported_by", "assigned_to", "approved_by", "approved_at", "closed_by", "closed_at",
	"created_at", "updated_at"}

var itemRowColumns = []string{"id", "record_id", "description", "responsible_person", "status",
	"target_date", "completion_date", "remarks", "attachment_url", "created_by", "created_at", "updated_at"}

const lockQuery = `FROM records WHERE id = \$1 FOR UPDATE`

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func approvedRecordRow(id uuid.UUID) *pgxmock.Rows {
	approver := uuid.New()
	approvedAt := testNow.Add(-time.Hour)
	return pgxmock.NewRows(recordRowColumns).AddRow(
		id, models.KindIncident, "INC-2026-000001", "Forklift near miss", "vehicle", models.SeverityHigh,
		uuid.New(), (*uuid.UUID)(nil), (*uuid.UUID)(nil), (*uuid.UUID)(nil), "",
		models.StatusApproved, models.ApprovalApproved, "", testNow, testNow.AddDate(0, 0, 3),
		uuid.New(), (*uuid.UUID)(nil), &approver, &approvedAt, (*uuid.UUID)(nil), (*time.Time)(nil),
		testNow, testNow,
	)
}

func TestRecordStore_MutateUnchangedSkipsUpdate(t *testing.T) {
	mock := newMockPool(t)
	store := services.NewRecordStore(mock, zap.NewNop().Sugar())
	id := uuid.New()
	itemID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WithArgs(id).WillReturnRows(approvedRecordRow(id))
	mock.ExpectQuery("FROM action_items").WithArgs(id).
		WillReturnRows(pgxmock.NewRows(itemRowColumns).AddRow(
			itemID, id, "Fit mirror", (*uuid.UUID)(nil), models.ItemPending,
			testNow.AddDate(0, 0, 2), (*time.Time)(nil), "", "", uuid.New(), testNow, testNow,
		))
	mock.ExpectCommit()

	var seen []models.ActionItem
	rec, err := store.Mutate(context.Background(), id, func(rec *models.Record, items []models.ActionItem) (bool, error) {
		seen = items
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, rec.Status)
	require.Len(t, seen, 1)
	assert.Equal(t, itemID, seen[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordStore_MutateChangedWritesInsideTx(t *testing.T) {
	mock := newMockPool(t)
	store := services.NewRecordStore(mock, zap.NewNop().Sugar())
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WithArgs(id).WillReturnRows(approvedRecordRow(id))
	mock.ExpectQuery("FROM action_items").WithArgs(id).WillReturnRows(pgxmock.NewRows(itemRowColumns))
	mock.ExpectExec("UPDATE records").
		WithArgs(id, models.StatusActionAssigned, models.ApprovalApproved, "",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	rec, err := store.Mutate(context.Background(), id, func(rec *models.Record, _ []models.ActionItem) (bool, error) {
		rec.Status = models.StatusActionAssigned
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusActionAssigned, rec.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordStore_MutateErrorRollsBack(t *testing.T) {
	mock := newMockPool(t)
	store := services.NewRecordStore(mock, zap.NewNop().Sugar())
	id := uuid.New()
	boom := errors.New("illegal transition")

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WithArgs(id).WillReturnRows(approvedRecordRow(id))
	mock.ExpectQuery("FROM action_items").WithArgs(id).WillReturnRows(pgxmock.NewRows(itemRowColumns))
	mock.ExpectRollback()

	_, err := store.Mutate(context.Background(), id, func(rec *models.Record, _ []models.ActionItem) (bool, error) {
		rec.Status = models.StatusClosed
		return true, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordStore_MutateMissingRecord(t *testing.T) {
	mock := newMockPool(t)
	store := services.NewRecordStore(mock, zap.NewNop().Sugar())
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WithArgs(id).WillReturnRows(pgxmock.NewRows(recordRowColumns))
	mock.ExpectRollback()

	called := false
	_, err := store.Mutate(context.Background(), id, func(*models.Record, []models.ActionItem) (bool, error) {
		called = true
		return false, nil
	})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var userRowColumns = []string{"id", "email", "full_name", "role", "plant_id", "zone_id", "location_id", "is_active", "is_superuser"}

func TestDirectoryStore_FilterPlaceholders(t *testing.T) {
	plant, zone, location := uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		name   string
		filter models.LocationFilter
		where  string
		args   []any
	}{
		{
			name:  "no filter",
			where: `WHERE is_active AND role = \$1$`,
			args:  []any{models.RoleSafetyManager},
		},
		{
			name:   "plant only",
			filter: models.LocationFilter{PlantID: &plant},
			where:  `WHERE is_active AND role = \$1 AND plant_id = \$2$`,
			args:   []any{models.RoleSafetyManager, plant},
		},
		{
			name:   "plant and location",
			filter: models.LocationFilter{PlantID: &plant, LocationID: &location},
			where:  `WHERE is_active AND role = \$1 AND plant_id = \$2 AND location_id = \$3$`,
			args:   []any{models.RoleSafetyManager, plant, location},
		},
		{
			name:   "all levels",
			filter: models.LocationFilter{PlantID: &plant, ZoneID: &zone, LocationID: &location},
			where:  `WHERE is_active AND role = \$1 AND plant_id = \$2 AND zone_id = \$3 AND location_id = \$4$`,
			args:   []any{models.RoleSafetyManager, plant, zone, location},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			dir := services.NewDirectoryStore(mock, zap.NewNop().Sugar())
			userID := uuid.New()

			mock.ExpectQuery(tt.where).WithArgs(tt.args...).
				WillReturnRows(pgxmock.NewRows(userRowColumns).AddRow(
					userID, "sm@example.com", "Safety Manager", models.RoleSafetyManager,
					&plant, (*uuid.UUID)(nil), &location, true, false,
				))

			users, err := dir.ListActiveUsersByRole(context.Background(), models.RoleSafetyManager, tt.filter)
			require.NoError(t, err)
			require.Len(t, users, 1)
			assert.Equal(t, userID, users[0].ID)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
