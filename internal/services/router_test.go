package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/memstore"
	"github.com/aawaaz/ehs-server/internal/models"
	"github.com/aawaaz/ehs-server/internal/services"
)

func stakeholderIDs(ss []models.Stakeholder) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(ss))
	for _, s := range ss {
		ids = append(ids, s.User.ID)
	}
	return ids
}

func TestRouter_SamePlantSafetyManagersOnly(t *testing.T) {
	h := newHarness(t, rule(models.EventIncidentReported, models.RoleSafetyManager, true, true))
	m1 := h.user(models.RoleSafetyManager, h.plant)
	m2 := h.user(models.RoleSafetyManager, h.plant)
	h.user(models.RoleSafetyManager, uuid.New())

	rec := &models.Record{ID: uuid.New(), Kind: models.KindIncident, PlantID: h.plant}
	got, err := h.router.Resolve(context.Background(), models.EventIncidentReported, rec)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{m1.ID, m2.ID}, stakeholderIDs(got))
	for _, s := range got {
		assert.True(t, s.EmailEnabled)
	}
}

func TestRouter_DeduplicatesAcrossRules(t *testing.T) {
	store := memstore.New()
	plant, zone := uuid.New(), uuid.New()
	both := models.User{ID: uuid.New(), Role: models.RoleSafetyOfficer, PlantID: &plant, ZoneID: &zone, IsActive: true}
	store.Directory.AddUser(both)

	// two different roles both matching the same person through different flags
	head := models.User{ID: uuid.New(), Role: models.RoleZoneHead, PlantID: &plant, ZoneID: &zone, IsActive: true}
	store.Directory.AddUser(head)
	set, err := services.NewRuleset([]models.NotificationRule{
		{EventType: models.EventHazardApproved, Role: models.RoleSafetyOfficer, FilterByPlant: true, Active: true},
		{EventType: models.EventHazardApproved, Role: models.RoleZoneHead, FilterByZone: true, EmailEnabled: true, Active: true},
		{EventType: models.EventHazardApproved, Role: models.RolePlantHead, FilterByPlant: true, Active: true},
	})
	require.NoError(t, err)

	dup := &dupDirectory{Directory: store.Directory, extra: both}
	router := services.NewStakeholderRouter(set, dup, false, zap.NewNop().Sugar())
	rec := &models.Record{ID: uuid.New(), Kind: models.KindHazard, PlantID: plant, ZoneID: &zone}

	got, err := router.Resolve(context.Background(), models.EventHazardApproved, rec)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{both.ID, head.ID}, stakeholderIDs(got))
	for _, s := range got {
		if s.User.ID == both.ID {
			assert.True(t, s.EmailEnabled, "email is enabled if any matching rule enables it")
		}
	}
}

// dupDirectory also returns extra for zone-head lookups so one user matches two rules
type dupDirectory struct {
	*memstore.Directory
	extra models.User
}

func (d *dupDirectory) ListActiveUsersByRole(ctx context.Context, role models.Role, f models.LocationFilter) ([]models.User, error) {
	users, err := d.Directory.ListActiveUsersByRole(ctx, role, f)
	if role == models.RoleZoneHead {
		users = append(users, d.extra)
	}
	return users, err
}

func TestRouter_NoRulesIsEmptyNotError(t *testing.T) {
	h := newHarness(t)
	rec := &models.Record{ID: uuid.New(), Kind: models.KindIncident, PlantID: h.plant}

	got, err := h.router.Resolve(context.Background(), models.EventIncidentClosed, rec)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRouter_ReportedFallsBackToAdmins(t *testing.T) {
	h := newHarness(t)
	admin := models.User{ID: uuid.New(), Email: "admin@example.com", Role: models.RoleAdmin, IsActive: true, IsSuperuser: true}
	h.store.Directory.AddUser(admin)
	rec := &models.Record{ID: uuid.New(), Kind: models.KindIncident, PlantID: h.plant}

	got, err := h.router.Resolve(context.Background(), models.EventIncidentReported, rec)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{admin.ID}, stakeholderIDs(got))

	got, err = h.router.Resolve(context.Background(), models.EventIncidentApproved, rec)
	require.NoError(t, err)
	assert.Empty(t, got, "fallback is only for reported-class events")
}

func TestFilterFor_SkipsUnsetLevels(t *testing.T) {
	plant := uuid.New()
	rec := &models.Record{PlantID: plant}
	f := services.FilterFor(models.NotificationRule{FilterByPlant: true, FilterByZone: true}, rec)
	require.NotNil(t, f.PlantID)
	assert.Equal(t, plant, *f.PlantID)
	assert.Nil(t, f.ZoneID)
	assert.Nil(t, f.LocationID)
}
