package repository

import (
	"context"
	"fmt"

	"foodcatalog/internal/model"

	"gorm.io/gorm"
)

// AuditQuery selects one page of the audit trail. Empty filters match everything.
type AuditQuery struct {
	Page     int
	Limit    int
	Action   string
	EntityID string
}

func (q AuditQuery) offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, q AuditQuery) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Log inserts one row, joining the caller's transaction when there is one
func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	if entry.Details == "" {
		entry.Details = "{}"
	}
	if err := GetDB(ctx, r.db).Omit("User").Create(entry).Error; err != nil {
		return fmt.Errorf("insert audit row: %w", translate(err))
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, q AuditQuery) ([]model.AuditLog, int64, error) {
	filtered := func() *gorm.DB {
		db := GetDB(ctx, r.db).Model(&model.AuditLog{})
		if q.Action != "" {
			db = db.Where("action = ?", q.Action)
		}
		if q.EntityID != "" {
			db = db.Where("entity_id = ?", q.EntityID)
		}
		return db
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	logs := []model.AuditLog{}
	err := filtered().
		Preload("User").
		Order("created_at desc, id").
		Offset(q.offset()).
		Limit(q.Limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return logs, total, nil
}
