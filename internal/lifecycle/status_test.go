package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aawaaz/ehs-server/internal/models"
)

var countGrid = []models.ActionItemCounts{
	{},
	{Total: 1, Pending: 1},
	{Total: 2, Completed: 2},
	{Total: 3, Completed: 2, Overdue: 1},
	{Total: 3, Pending: 1, InProgress: 2},
	{Total: 4, Pending: 2, Completed: 2},
}

func TestComputeStatus_TerminalIsUnchanged(t *testing.T) {
	for _, st := range []models.Status{models.StatusClosed, models.StatusRejected} {
		for _, c := range countGrid {
			for _, ap := range []models.ApprovalStatus{models.ApprovalApproved, models.ApprovalRejected} {
				assert.Equal(t, st, ComputeStatus(st, ap, c), "counts=%+v", c)
			}
		}
	}
}

func TestComputeStatus_PreApprovalLockout(t *testing.T) {
	for _, st := range []models.Status{models.StatusReported, models.StatusPendingApproval} {
		for _, c := range countGrid {
			assert.Equal(t, st, ComputeStatus(st, models.ApprovalPending, c))
		}
	}
}

func TestComputeStatus_ZeroItemsRevertsToApproved(t *testing.T) {
	for _, st := range []models.Status{models.StatusActionAssigned, models.StatusInProgress, models.StatusResolved} {
		assert.Equal(t, models.StatusApproved, ComputeStatus(st, models.ApprovalApproved, models.ActionItemCounts{}))
	}
}

func TestComputeStatus_Buckets(t *testing.T) {
	tests := []struct {
		name   string
		counts models.ActionItemCounts
		want   models.Status
	}{
		{"all completed", models.ActionItemCounts{Total: 2, Completed: 2}, models.StatusResolved},
		{"overdue wins over pending", models.ActionItemCounts{Total: 3, Completed: 2, Overdue: 1}, models.StatusInProgress},
		{"in progress", models.ActionItemCounts{Total: 2, Pending: 1, InProgress: 1}, models.StatusInProgress},
		{"pending only", models.ActionItemCounts{Total: 2, Pending: 1, Completed: 1}, models.StatusActionAssigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeStatus(models.StatusApproved, models.ApprovalApproved, tt.counts))
		})
	}
}

func TestComputeStatus_Deterministic(t *testing.T) {
	first := make([]models.Status, len(countGrid))
	for i, c := range countGrid {
		first[i] = ComputeStatus(models.StatusInProgress, models.ApprovalApproved, c)
	}
	for i := len(countGrid) - 1; i >= 0; i-- {
		assert.Equal(t, first[i], ComputeStatus(models.StatusInProgress, models.ApprovalApproved, countGrid[i]))
	}
}

func TestCount_RecomputesOverdue(t *testing.T) {
	today := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	yesterday := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	tomorrow := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	items := []models.ActionItem{
		{Status: models.ItemCompleted, TargetDate: yesterday},
		{Status: models.ItemCompleted, TargetDate: yesterday},
		{Status: models.ItemPending, TargetDate: yesterday},
		{Status: models.ItemOverdue, TargetDate: tomorrow},
		{Status: models.ItemPending, TargetDate: today},
	}

	c := Count(items, today)
	assert.Equal(t, models.ActionItemCounts{Total: 5, Completed: 2, Overdue: 1, Pending: 2}, c)
}

func TestScenario_TwoCompletedOneOverdue(t *testing.T) {
	today := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	items := []models.ActionItem{
		{Status: models.ItemCompleted, TargetDate: today},
		{Status: models.ItemCompleted, TargetDate: today},
		{Status: models.ItemPending, TargetDate: today.AddDate(0, 0, -3)},
	}
	got := ComputeStatus(models.StatusActionAssigned, models.ApprovalApproved, Count(items, today))
	require.Equal(t, models.StatusInProgress, got)
}
