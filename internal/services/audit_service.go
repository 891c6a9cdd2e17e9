package services

import (
	"context"

	"ledger/internal/models"
	"ledger/internal/pagination"
	"ledger/internal/store"
)

// auditService reads the audit entries written by commits.
type auditService struct {
	store *store.Store
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(st *store.Store) AuditServicer {
	return &auditService{store: st}
}

// ListAuditLogs returns one page of audit entries, newest first.
func (s *auditService) ListAuditLogs(ctx context.Context, resourceType, resourceID string, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error) {
	page.Defaults()
	entries, total, err := s.store.AuditLogs(ctx, resourceType, resourceID, page)
	if err != nil {
		return nil, err
	}
	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, total)
	return &result, nil
}
