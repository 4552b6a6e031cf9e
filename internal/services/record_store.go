package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/models"
)

const recordColumns = `id, kind, report_number, title, category, severity,
	plant_id, zone_id, location_id, sublocation_id, department,
	status, approval_status, approval_remarks, report_date, deadline,
	reported_by, assigned_to, approved_by, approved_at, closed_by, closed_at,
	created_at, updated_at`

const actionItemColumns = `id, record_id, description, responsible_person, status,
	target_date, completion_date, remarks, attachment_url, created_by, created_at, updated_at`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// RecordStore is the Postgres RecordRepository
type RecordStore struct {
	db     DB
	logger *zap.SugaredLogger
}

// NewRecordStore creates a new record store
func NewRecordStore(db DB, logger *zap.SugaredLogger) *RecordStore {
	return &RecordStore{db: db, logger: logger}
}

// Create assigns the next report number of the record kind and inserts rec
func (s *RecordStore) Create(ctx context.Context, rec *models.Record) error {
	var seq int64
	if err := s.db.QueryRow(ctx, "SELECT nextval($1::regclass)", string(rec.Kind)+"_report_seq").Scan(&seq); err != nil {
		return fmt.Errorf("next report number: %w", err)
	}
	rec.ReportNumber = fmt.Sprintf("%s-%d-%06d", rec.Kind.ReportPrefix(), rec.ReportDate.Year(), seq)

	query := `
		INSERT INTO records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24)
	`
	_, err := s.db.Exec(ctx, query,
		rec.ID, rec.Kind, rec.ReportNumber, rec.Title, rec.Category, rec.Severity,
		rec.PlantID, rec.ZoneID, rec.LocationID, rec.SublocationID, rec.Department,
		rec.Status, rec.ApprovalStatus, rec.ApprovalRemarks, rec.ReportDate, rec.Deadline,
		rec.ReportedBy, rec.AssignedTo, rec.ApprovedBy, rec.ApprovedAt, rec.ClosedBy, rec.ClosedAt,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Get loads one record by id
func (s *RecordStore) Get(ctx context.Context, id uuid.UUID) (*models.Record, error) {
	rec, err := scanRecord(s.db.QueryRow(ctx, "SELECT "+recordColumns+" FROM records WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select record: %w", err)
	}
	return rec, nil
}

// Mutate serializes lifecycle changes on one record with SELECT ... FOR UPDATE.
// Concurrent mutations of the same record wait for the row lock; different
// records never contend.
func (s *RecordStore) Mutate(ctx context.Context, id uuid.UUID, fn models.RecordMutation) (*models.Record, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	rec, err := scanRecord(tx.QueryRow(ctx, "SELECT "+recordColumns+" FROM records WHERE id = $1 FOR UPDATE", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock record: %w", err)
	}

	items, err := listActionItems(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	changed, err := fn(rec, items)
	if err != nil {
		return nil, err
	}

	if changed {
		rec.UpdatedAt = time.Now()
		query := `
			UPDATE records
			SET status = $2, approval_status = $3, approval_remarks = $4,
				approved_by = $5, approved_at = $6, closed_by = $7, closed_at = $8,
				assigned_to = $9, updated_at = $10
			WHERE id = $1
		`
		if _, err := tx.Exec(ctx, query,
			rec.ID, rec.Status, rec.ApprovalStatus, rec.ApprovalRemarks,
			rec.ApprovedBy, rec.ApprovedAt, rec.ClosedBy, rec.ClosedAt,
			rec.AssignedTo, rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("update record status: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit record: %w", err)
	}
	return rec, nil
}

// ListPastDeadline returns records whose deadline is before today and that still need action
func (s *RecordStore) ListPastDeadline(ctx context.Context, today time.Time) ([]models.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM records
		WHERE deadline < $1
			AND status NOT IN ('resolved', 'closed', 'rejected')
		ORDER BY deadline
	`
	rows, err := s.db.Query(ctx, query, today)
	if err != nil {
		return nil, fmt.Errorf("select overdue records: %w", err)
	}
	defer rows.Close()

	var recs []models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			s.logger.Warnw("Skipping unreadable record row", "error", err)
			continue
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

// ListWithLateItems returns records whose open action items passed their target date
func (s *RecordStore) ListWithLateItems(ctx context.Context, today time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT r.id
		FROM records r
		JOIN action_items a ON a.record_id = r.id
		WHERE a.status <> 'completed'
			AND a.target_date < $1
			AND r.status IN ('action_assigned', 'in_progress')
	`
	rows, err := s.db.Query(ctx, query, today)
	if err != nil {
		return nil, fmt.Errorf("select records with late items: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ValidateLocation checks that each given level exists under its parent
func (s *RecordStore) ValidateLocation(ctx context.Context, sub *models.RecordSubmission) error {
	query := `
		SELECT
			EXISTS (SELECT 1 FROM plants WHERE id = $1),
			($2::uuid IS NULL OR EXISTS (SELECT 1 FROM zones WHERE id = $2 AND plant_id = $1)),
			($3::uuid IS NULL OR EXISTS (SELECT 1 FROM locations WHERE id = $3 AND zone_id = $2)),
			($4::uuid IS NULL OR EXISTS (SELECT 1 FROM sublocations WHERE id = $4 AND location_id = $3))
	`
	var plantOK, zoneOK, locationOK, sublocationOK bool
	err := s.db.QueryRow(ctx, query, sub.PlantID, sub.ZoneID, sub.LocationID, sub.SublocationID).
		Scan(&plantOK, &zoneOK, &locationOK, &sublocationOK)
	if err != nil {
		return fmt.Errorf("validate location: %w", err)
	}

	switch {
	case !plantOK:
		return models.Invalid("plant_id", "unknown plant")
	case !zoneOK:
		return models.Invalid("zone_id", "zone does not belong to plant")
	case !locationOK:
		return models.Invalid("location_id", "location does not belong to zone")
	case !sublocationOK:
		return models.Invalid("sublocation_id", "sublocation does not belong to location")
	}
	return nil
}

func scanRecord(row pgx.Row) (*models.Record, error) {
	var r models.Record
	err := row.Scan(&r.ID, &r.Kind, &r.ReportNumber, &r.Title, &r.Category, &r.Severity,
		&r.PlantID, &r.ZoneID, &r.LocationID, &r.SublocationID, &r.Department,
		&r.Status, &r.ApprovalStatus, &r.ApprovalRemarks, &r.ReportDate, &r.Deadline,
		&r.ReportedBy, &r.AssignedTo, &r.ApprovedBy, &r.ApprovedAt, &r.ClosedBy, &r.ClosedAt,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanActionItem(row pgx.Row) (*models.ActionItem, error) {
	var a models.ActionItem
	err := row.Scan(&a.ID, &a.RecordID, &a.Description, &a.ResponsiblePerson, &a.Status,
		&a.TargetDate, &a.CompletionDate, &a.Remarks, &a.AttachmentURL, &a.CreatedBy,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func listActionItems(ctx context.Context, q querier, recordID uuid.UUID) ([]models.ActionItem, error) {
	query := `
		SELECT ` + actionItemColumns + `
		FROM action_items
		WHERE record_id = $1
		ORDER BY target_date, created_at
	`
	rows, err := q.Query(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("select action items: %w", err)
	}
	defer rows.Close()

	items := make([]models.ActionItem, 0)
	for rows.Next() {
		item, err := scanActionItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan action item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
