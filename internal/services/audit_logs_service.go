package services

import (
	"context"
	"time"

	"cannaclub/internal/ledger"
	"cannaclub/internal/models"
	"cannaclub/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuditLogsService interface {
	LogActivity(ctx context.Context, tenantID uuid.UUID, tableName, recordID, action string, changedBy *uuid.UUID, newValues models.JSONB) error
	ListAuditLogs(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error)
}

type auditLogsService struct {
	db            repositories.Database
	auditLogsRepo repositories.AuditLogsRepository
	logger        *zap.Logger
}

func NewAuditLogsService(db repositories.Database, auditLogsRepo repositories.AuditLogsRepository, logger *zap.Logger) AuditLogsService {
	return &auditLogsService{
		db:            db,
		auditLogsRepo: auditLogsRepo,
		logger:        logger,
	}
}

// LogActivity records a non-ledger mutation. Ledger entries are not mirrored
// here; the transaction tables carry their own trail.
func (s *auditLogsService) LogActivity(ctx context.Context, tenantID uuid.UUID, tableName, recordID, action string, changedBy *uuid.UUID, newValues models.JSONB) error {
	if tableName == "" {
		return &ledger.ValidationError{Field: "table_name", Message: "table name is required"}
	}
	if action != models.ActionInsert && action != models.ActionUpdate && action != models.ActionDelete {
		return &ledger.ValidationError{Field: "action", Message: "action must be INSERT, UPDATE or DELETE"}
	}

	log := &models.AuditLog{
		ID:        uuid.New(),
		TenantID:  tenantID,
		TableName: tableName,
		RecordID:  recordID,
		Action:    action,
		NewValues: newValues,
		ChangedBy: changedBy,
		CreatedAt: time.Now(),
	}
	if err := s.auditLogsRepo.Create(ctx, s.db, log); err != nil {
		s.logger.Warn("audit log write failed",
			zap.String("table", tableName),
			zap.String("record_id", recordID),
			zap.Error(err))
		return err
	}
	return nil
}

func (s *auditLogsService) ListAuditLogs(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	if filters == nil {
		filters = &models.AuditLogFilters{}
	}
	if filters.Limit <= 0 || filters.Limit > 500 {
		filters.Limit = 100
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}
	return s.auditLogsRepo.List(ctx, s.db, tenantID, filters)
}
