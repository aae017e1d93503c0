package store

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// AuditRecord is the GORM row mirroring an AuthzDecision. CauseJSON
// carries the serialized indeterminate-cause tree when the decision had
// one.
type AuditRecord struct {
	ID         uint   `gorm:"primaryKey"`
	RequestID  string `gorm:"index"`
	SubjectID  string `gorm:"index"`
	ResourceID string
	ActionName string
	Decision   string `gorm:"index"`
	CauseJSON  []byte `gorm:"type:jsonb"`
	DecidedAt  time.Time
	CreatedAt  time.Time
}

// TableName pins the table name.
func (AuditRecord) TableName() string { return "audit_records" }

// AuditStore persists AuditRecords. Package audit depends on this interface
// rather than *gorm.DB directly, so it can be tested with a fake.
type AuditStore interface {
	SaveAudit(record *AuditRecord) error
}

// PostgresAuditStore is the PostgreSQL-backed AuditStore, sharing the
// PolicyStore's connection.
type PostgresAuditStore struct {
	db *gorm.DB
}

// NewAuditStore wraps db as an AuditStore.
func NewAuditStore(db *gorm.DB) *PostgresAuditStore {
	return &PostgresAuditStore{db: db}
}

// SaveAudit inserts record.
func (s *PostgresAuditStore) SaveAudit(record *AuditRecord) error {
	if err := s.db.Create(record).Error; err != nil {
		return fmt.Errorf("store: saving audit record: %w", err)
	}
	return nil
}
