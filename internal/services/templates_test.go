package services_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aawaaz/ehs-server/internal/models"
	"github.com/aawaaz/ehs-server/internal/services"
)

func TestRenderer_EveryEventType(t *testing.T) {
	r, err := services.NewRenderer()
	require.NoError(t, err)

	rec := &models.Record{
		ID:           uuid.New(),
		Kind:         models.KindHazard,
		ReportNumber: "HAZ-2026-000003",
		Title:        "Exposed wiring <panel 2>",
		Severity:     models.SeverityMedium,
		Status:       models.StatusApproved,
		Deadline:     time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC),
	}
	item := &models.ActionItem{Description: "Isolate panel", TargetDate: time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)}

	for _, ev := range models.AllEventTypes() {
		t.Run(string(ev), func(t *testing.T) {
			out, err := r.Render(models.Notice{Type: ev, Record: rec, Item: item})
			require.NoError(t, err)
			assert.Contains(t, out.Title, "HAZ-2026-000003")
			assert.NotEmpty(t, out.Body)
			assert.Contains(t, out.HTMLBody, "<p>")
		})
	}
}

func TestRenderer_EscapesHTML(t *testing.T) {
	r, err := services.NewRenderer()
	require.NoError(t, err)

	out, err := r.Render(models.Notice{Type: models.EventHazardReported, Record: &models.Record{
		ReportNumber: "HAZ-2026-000004",
		Title:        "<script>alert(1)</script>",
		Severity:     models.SeverityHigh,
	}})
	require.NoError(t, err)
	assert.Contains(t, out.Body, "<script>")
	assert.NotContains(t, out.HTMLBody, "<script>")
	assert.Contains(t, out.Body, "0001-01-01")
}

func TestRenderer_RequiresRecord(t *testing.T) {
	r, err := services.NewRenderer()
	require.NoError(t, err)

	_, err = r.Render(models.Notice{Type: models.EventIncidentClosed})
	assert.Error(t, err)

	_, err = r.Render(models.Notice{Type: "incident_exploded", Record: &models.Record{}})
	assert.Error(t, err)
}
