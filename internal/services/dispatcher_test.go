package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aawaaz/ehs-server/internal/models"
)

func testRecord(plant uuid.UUID) *models.Record {
	return &models.Record{
		ID:           uuid.New(),
		Kind:         models.KindIncident,
		ReportNumber: "INC-2026-000010",
		Title:        "Chemical spill",
		Severity:     models.SeverityHigh,
		PlantID:      plant,
	}
}

func TestDispatch_EmailFailureIsolation(t *testing.T) {
	h := newHarness(t)
	var stakeholders []models.Stakeholder
	for i := 0; i < 3; i++ {
		stakeholders = append(stakeholders, models.Stakeholder{User: h.user(models.RoleSafetyManager, h.plant), EmailEnabled: true})
	}
	h.transport.fail[stakeholders[1].User.Email] = true

	rec := testRecord(h.plant)
	var report models.DispatchReport
	require.NotPanics(t, func() {
		report = h.dispatcher.Dispatch(context.Background(), models.Notice{Type: models.EventIncidentReported, Record: rec}, stakeholders)
	})

	assert.Equal(t, 3, report.Created)
	assert.Equal(t, 2, report.Emailed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, stakeholders[1].User.ID, report.Failures[0].RecipientID)
	assert.Len(t, h.store.Notifications.All(), 3)

	for _, n := range h.store.Notifications.All() {
		assert.Equal(t, n.RecipientID != stakeholders[1].User.ID, n.IsEmailSent)
	}
}

func TestDispatch_Idempotent(t *testing.T) {
	h := newHarness(t)
	s := models.Stakeholder{User: h.user(models.RolePlantHead, h.plant), EmailEnabled: true}
	rec := testRecord(h.plant)
	notice := models.Notice{Type: models.EventIncidentApproved, Record: rec}

	first := h.dispatcher.Dispatch(context.Background(), notice, []models.Stakeholder{s})
	second := h.dispatcher.Dispatch(context.Background(), notice, []models.Stakeholder{s})

	assert.Equal(t, 1, first.Created)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, 0, second.Emailed, "already emailed")
	assert.Len(t, h.store.Notifications.All(), 1)
	assert.Equal(t, 1, h.transport.count())
}

func TestDispatch_RetriesEmailOnSecondCallAfterFailure(t *testing.T) {
	h := newHarness(t)
	s := models.Stakeholder{User: h.user(models.RolePlantHead, h.plant), EmailEnabled: true}
	notice := models.Notice{Type: models.EventIncidentApproved, Record: testRecord(h.plant)}

	h.transport.fail[s.User.Email] = true
	first := h.dispatcher.Dispatch(context.Background(), notice, []models.Stakeholder{s})
	assert.Equal(t, 1, first.Created)
	assert.Len(t, first.Failures, 1)

	delete(h.transport.fail, s.User.Email)
	second := h.dispatcher.Dispatch(context.Background(), notice, []models.Stakeholder{s})
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Emailed)
	assert.Len(t, h.store.Notifications.All(), 1)
}

func TestDispatch_EmailDisabled(t *testing.T) {
	h := newHarness(t)
	s := models.Stakeholder{User: h.user(models.RoleHOD, h.plant), EmailEnabled: false}

	report := h.dispatcher.Dispatch(context.Background(), models.Notice{Type: models.EventIncidentClosed, Record: testRecord(h.plant)}, []models.Stakeholder{s})
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 0, report.Emailed)
	assert.Equal(t, 0, h.transport.count())
}

func TestDispatch_OccurrenceSeparatesOverdueDays(t *testing.T) {
	h := newHarness(t)
	s := models.Stakeholder{User: h.user(models.RoleSafetyManager, h.plant)}
	rec := testRecord(h.plant)

	h.dispatcher.Dispatch(context.Background(), models.Notice{Type: models.EventIncidentOverdue, Record: rec, Occurrence: "2026-10-18"}, []models.Stakeholder{s})
	h.dispatcher.Dispatch(context.Background(), models.Notice{Type: models.EventIncidentOverdue, Record: rec, Occurrence: "2026-10-18"}, []models.Stakeholder{s})
	h.dispatcher.Dispatch(context.Background(), models.Notice{Type: models.EventIncidentOverdue, Record: rec, Occurrence: "2026-10-19"}, []models.Stakeholder{s})

	assert.Len(t, h.store.Notifications.All(), 2)
}

func TestDispatch_MessageRendered(t *testing.T) {
	h := newHarness(t)
	s := models.Stakeholder{User: h.user(models.RoleSafetyManager, h.plant), EmailEnabled: true}
	rec := testRecord(h.plant)

	h.dispatcher.Dispatch(context.Background(), models.Notice{Type: models.EventIncidentReported, Record: rec}, []models.Stakeholder{s})

	all := h.store.Notifications.All()
	require.Len(t, all, 1)
	assert.Equal(t, "New incident reported: INC-2026-000010", all[0].Title)
	assert.Contains(t, all[0].Message, "Chemical spill")
}
