package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"cannaclub/internal/models"

	"github.com/google/uuid"
)

type AuditLogsRepository interface {
	Create(ctx context.Context, db Database, log *models.AuditLog) error
	List(ctx context.Context, db Database, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error)
}

type auditLogsRepo struct{}

func NewAuditLogsRepo() AuditLogsRepository {
	return &auditLogsRepo{}
}

func (r *auditLogsRepo) Create(ctx context.Context, db Database, log *models.AuditLog) error {
	values, err := json.Marshal(log.NewValues)
	if err != nil {
		return fmt.Errorf("marshal audit values: %w", err)
	}
	query := `
		INSERT INTO audit_logs (id, tenant_id, table_name, record_id, action, new_values, changed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	_, err = db.Exec(ctx, query, log.ID, log.TenantID, log.TableName, log.RecordID, log.Action, values, log.ChangedBy)
	return err
}

func (r *auditLogsRepo) List(ctx context.Context, db Database, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	if filters == nil {
		filters = &models.AuditLogFilters{}
	}
	if filters.Limit == 0 {
		filters.Limit = 50
	}

	queryBase := `
		SELECT id, tenant_id, table_name, record_id, action, new_values, changed_by, created_at
		FROM audit_logs
		WHERE tenant_id = $1
	`
	args := []any{tenantID}
	n := 1

	if filters.TableName != nil {
		n++
		queryBase += fmt.Sprintf(` AND table_name = $%d`, n)
		args = append(args, *filters.TableName)
	}
	if filters.RecordID != nil {
		n++
		queryBase += fmt.Sprintf(` AND record_id = $%d`, n)
		args = append(args, *filters.RecordID)
	}
	if filters.Action != nil {
		n++
		queryBase += fmt.Sprintf(` AND action = $%d`, n)
		args = append(args, *filters.Action)
	}
	if filters.ChangedBy != nil {
		n++
		queryBase += fmt.Sprintf(` AND changed_by = $%d`, n)
		args = append(args, *filters.ChangedBy)
	}
	if filters.StartDate != nil {
		n++
		queryBase += fmt.Sprintf(` AND created_at >= $%d`, n)
		args = append(args, *filters.StartDate)
	}
	if filters.EndDate != nil {
		n++
		queryBase += fmt.Sprintf(` AND created_at <= $%d`, n)
		args = append(args, *filters.EndDate)
	}

	queryBase += ` ORDER BY created_at DESC`
	n++
	queryBase += fmt.Sprintf(` LIMIT $%d`, n)
	args = append(args, filters.Limit)
	if filters.Offset > 0 {
		n++
		queryBase += fmt.Sprintf(` OFFSET $%d`, n)
		args = append(args, filters.Offset)
	}

	rows, err := db.Query(ctx, queryBase, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		l := &models.AuditLog{}
		var values []byte
		if err := rows.Scan(&l.ID, &l.TenantID, &l.TableName, &l.RecordID, &l.Action, &values, &l.ChangedBy, &l.CreatedAt); err != nil {
			return nil, err
		}
		if len(values) > 0 {
			if err := json.Unmarshal(values, &l.NewValues); err != nil {
				return nil, fmt.Errorf("unmarshal audit values: %w", err)
			}
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
