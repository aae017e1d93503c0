package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dotrongnhan/xacml-pdp/loader"
	"github.com/dotrongnhan/xacml-pdp/model"
)

// StoredPolicyDocument is the GORM row backing a persisted policy
// document: the raw wire-schema JSON plus tenant/version/enabled
// bookkeeping.
type StoredPolicyDocument struct {
	ID        uint   `gorm:"primaryKey"`
	Tenant    string `gorm:"index;not null"`
	Version   int    `gorm:"not null"`
	RawJSON   []byte `gorm:"type:jsonb;not null"`
	Enabled   bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName pins the table name rather than relying on GORM's pluralization
// of "StoredPolicyDocument".
func (StoredPolicyDocument) TableName() string { return "policy_documents" }

// PolicyStore persists policy documents per tenant and resolves the active
// one into an evaluable model.Principle tree.
type PolicyStore struct {
	db *gorm.DB
}

// New wraps an already-open *gorm.DB. Call Migrate once at startup (or via
// cmd/pdpctl's migrate subcommand) before using the store.
func New(db *gorm.DB) *PolicyStore {
	return &PolicyStore{db: db}
}

// Migrate creates/updates the schema this package owns.
func (s *PolicyStore) Migrate() error {
	if err := s.db.AutoMigrate(&StoredPolicyDocument{}, &AuditRecord{}); err != nil {
		return fmt.Errorf("store: migrating schema: %w", err)
	}
	return nil
}

// Put inserts a new policy document version for tenant, disabled by
// default. Callers flip it live via Activate once it has been
// validated.
func (s *PolicyStore) Put(tenant string, version int, rawJSON []byte) (*StoredPolicyDocument, error) {
	doc := &StoredPolicyDocument{Tenant: tenant, Version: version, RawJSON: rawJSON}
	if err := s.db.Create(doc).Error; err != nil {
		return nil, fmt.Errorf("store: saving policy document for tenant %q: %w", tenant, err)
	}
	return doc, nil
}

// Activate marks version as the sole enabled document for tenant, disabling
// any document previously active for it, inside one transaction.
func (s *PolicyStore) Activate(tenant string, version int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&StoredPolicyDocument{}).
			Where("tenant = ? AND enabled = ?", tenant, true).
			Update("enabled", false).Error; err != nil {
			return err
		}
		result := tx.Model(&StoredPolicyDocument{}).
			Where("tenant = ? AND version = ?", tenant, version).
			Update("enabled", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("store: no policy document for tenant %q version %d", tenant, version)
		}
		return nil
	})
}

// Active fetches the currently enabled policy document for tenant and
// parses it into a model.PolicySet, the normal shape of a deployed root
// policy.
func (s *PolicyStore) Active(tenant string) (*model.PolicySet, error) {
	var doc StoredPolicyDocument
	err := s.db.Where("tenant = ? AND enabled = ?", tenant, true).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("store: no active policy document for tenant %q", tenant)
		}
		return nil, fmt.Errorf("store: loading active policy document for tenant %q: %w", tenant, err)
	}

	principle, err := loader.Load(doc.RawJSON)
	if err != nil {
		return nil, fmt.Errorf("store: parsing policy document %d for tenant %q: %w", doc.ID, tenant, err)
	}
	policySet, ok := principle.(*model.PolicySet)
	if !ok {
		return nil, fmt.Errorf("store: active policy document %d for tenant %q is not a policy set", doc.ID, tenant)
	}
	return policySet, nil
}
