package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/clearance-service/internal/domain"
)

// ClearanceFilter captures listing parameters. StudentID and HeadID scope the
// result set to a caller's own requests or a head's department.
type ClearanceFilter struct {
	StudentID    *string
	DepartmentID *string
	HeadID       *string
	Statuses     []domain.RequestStatus
	Limit        int
	Offset       int
}

// ClearanceRepository encapsulates clearance request persistence.
type ClearanceRepository interface {
	Create(ctx context.Context, req *domain.ClearanceRequest) error
	Update(ctx context.Context, req *domain.ClearanceRequest) error
	GetByID(ctx context.Context, id string) (*domain.ClearanceRequest, error)
	GetByStudentAndDepartment(ctx context.Context, studentID, departmentID string) (*domain.ClearanceRequest, error)
	ListWithFilter(ctx context.Context, filter ClearanceFilter) ([]domain.ClearanceRequest, error)
}

type clearanceRepository struct {
	pool *pgxpool.Pool
}

// NewClearanceRepository instantiates repository.
func NewClearanceRepository(pool *pgxpool.Pool) ClearanceRepository {
	return &clearanceRepository{pool: pool}
}

func (r *clearanceRepository) Create(ctx context.Context, req *domain.ClearanceRequest) error {
	const query = `
        INSERT INTO clearance_requests (student_account_id, department_id, status, comment, request_date, response_date)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		req.StudentID,
		req.DepartmentID,
		req.Status,
		req.Comment,
		req.RequestDate,
		req.ResponseDate,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
}

func (r *clearanceRepository) Update(ctx context.Context, req *domain.ClearanceRequest) error {
	const query = `
        UPDATE clearance_requests SET status=$1, comment=$2, response_date=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query,
		req.Status,
		req.Comment,
		req.ResponseDate,
		req.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *clearanceRepository) GetByID(ctx context.Context, id string) (*domain.ClearanceRequest, error) {
	const query = `
        SELECT id, student_account_id, department_id, status, comment, request_date, response_date, created_at, updated_at
        FROM clearance_requests WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *clearanceRepository) GetByStudentAndDepartment(ctx context.Context, studentID, departmentID string) (*domain.ClearanceRequest, error) {
	const query = `
        SELECT id, student_account_id, department_id, status, comment, request_date, response_date, created_at, updated_at
        FROM clearance_requests WHERE student_account_id=$1 AND department_id=$2`
	return r.fetchSingle(ctx, query, studentID, departmentID)
}

func (r *clearanceRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.ClearanceRequest, error) {
	var req domain.ClearanceRequest
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&req.ID,
		&req.StudentID,
		&req.DepartmentID,
		&req.Status,
		&req.Comment,
		&req.RequestDate,
		&req.ResponseDate,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *clearanceRepository) ListWithFilter(ctx context.Context, filter ClearanceFilter) ([]domain.ClearanceRequest, error) {
	base := `SELECT cr.id, cr.student_account_id, cr.department_id, cr.status, cr.comment,
                    cr.request_date, cr.response_date, cr.created_at, cr.updated_at
             FROM clearance_requests cr`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.HeadID != nil {
		base += ` JOIN departments d ON d.id = cr.department_id`
		args = append(args, *filter.HeadID)
		clauses = append(clauses, fmt.Sprintf("d.head_account_id=$%d", len(args)))
	}
	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		clauses = append(clauses, fmt.Sprintf("cr.student_account_id=$%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("cr.department_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("cr.status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY cr.request_date DESC, cr.created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanClearanceRequests(rows)
}

func scanClearanceRequests(rows pgx.Rows) ([]domain.ClearanceRequest, error) {
	var result []domain.ClearanceRequest
	for rows.Next() {
		var req domain.ClearanceRequest
		if err := rows.Scan(
			&req.ID,
			&req.StudentID,
			&req.DepartmentID,
			&req.Status,
			&req.Comment,
			&req.RequestDate,
			&req.ResponseDate,
			&req.CreatedAt,
			&req.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}
