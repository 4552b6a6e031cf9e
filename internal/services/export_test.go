package services_test

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/aawaaz/ehs-server/internal/models"
	"github.com/aawaaz/ehs-server/internal/services"
)

func TestWriteActionItemRegister(t *testing.T) {
	rec := &models.Record{ID: uuid.New(), ReportNumber: "INC-2026-000010"}
	done := testNow.AddDate(0, 0, -1)
	items := []models.ActionItem{
		{ID: uuid.New(), Description: "Fix ladder", Status: models.ItemPending, TargetDate: testNow.AddDate(0, 0, -3)},
		{ID: uuid.New(), Description: "Brief crew", Status: models.ItemCompleted, TargetDate: testNow, CompletionDate: &done},
	}

	var buf bytes.Buffer
	require.NoError(t, services.WriteActionItemRegister(&buf, rec, items, testNow))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Action Items")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Report No.", rows[0][0])
	assert.Equal(t, []string{"INC-2026-000010", "Fix ladder", "", "overdue", "2026-10-15"}, rows[1][:5])
	assert.Equal(t, "completed", rows[2][3])
	assert.Equal(t, "2026-10-17", rows[2][5])
}
