// Package gorm provides a relational registry store built on GORM.
// Each registration maps to a single row; endpoints, metadata, and tags
// are serialized to JSON columns while the identity triple, service name,
// and status stay as indexed columns for query pushdown.
package gorm

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sngor/regkit/errors"
	"github.com/sngor/regkit/logger"
	"github.com/sngor/regkit/registry"
)

const providerName = "gorm"

// registrationRow is the table model for a service registration.
type registrationRow struct {
	Key           string    `gorm:"primaryKey;size:512"`
	ServiceName   string    `gorm:"index;size:255;not null"`
	Version       string    `gorm:"size:64;not null"`
	ServiceID     string    `gorm:"size:255;not null"`
	Status        string    `gorm:"index;size:16;not null"`
	Endpoints     []byte    `gorm:"type:json"`
	Metadata      []byte    `gorm:"type:json"`
	Tags          []byte    `gorm:"type:json"`
	HealthCheck   string    `gorm:"size:1024"`
	RegisteredAt  time.Time `gorm:"not null"`
	LastHeartbeat time.Time `gorm:"not null"`
}

func (registrationRow) TableName() string { return "service_registrations" }

// Store implements registry.Store on a relational table via GORM.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

func init() {
	registry.RegisterStoreFactory(providerName, func(_ registry.Config, providerCfg any, log *logger.Logger) (registry.Store, error) {
		dialector, ok := providerCfg.(gorm.Dialector)
		if !ok || dialector == nil {
			return nil, fmt.Errorf("gorm store requires a gorm.Dialector, got %T", providerCfg)
		}
		return NewStore(dialector, log)
	})
}

// NewStore opens a database connection with the given dialector and
// migrates the registrations table.
func NewStore(dialector gorm.Dialector, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&registrationRow{}); err != nil {
		return nil, fmt.Errorf("migrate registrations table: %w", err)
	}

	log = log.WithComponent("registry-gorm")
	log.Info("gorm registry store created", logger.Fields(
		"dialect", db.Dialector.Name(),
	))

	return &Store{db: db, log: log}, nil
}

// NewStoreFromDB wraps an existing GORM handle and migrates the
// registrations table.
func NewStoreFromDB(db *gorm.DB, log *logger.Logger) (*Store, error) {
	if err := db.AutoMigrate(&registrationRow{}); err != nil {
		return nil, fmt.Errorf("migrate registrations table: %w", err)
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Store{db: db, log: log.WithComponent("registry-gorm")}, nil
}

// ensure Store satisfies registry.Store.
var _ registry.Store = (*Store)(nil)

func toRow(reg *registry.ServiceRegistration) (*registrationRow, error) {
	endpoints, err := json.Marshal(reg.Endpoints)
	if err != nil {
		return nil, fmt.Errorf("marshal endpoints: %w", err)
	}
	metadata, err := json.Marshal(reg.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	tags, err := json.Marshal(reg.Tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}

	return &registrationRow{
		Key:           reg.Key(),
		ServiceName:   reg.ServiceName,
		Version:       reg.Version,
		ServiceID:     reg.ServiceID,
		Status:        string(reg.Status),
		Endpoints:     endpoints,
		Metadata:      metadata,
		Tags:          tags,
		HealthCheck:   reg.HealthCheckURL,
		RegisteredAt:  reg.RegisteredAt,
		LastHeartbeat: reg.LastHeartbeat,
	}, nil
}

func fromRow(row *registrationRow) (*registry.ServiceRegistration, error) {
	reg := &registry.ServiceRegistration{
		ServiceID:      row.ServiceID,
		ServiceName:    row.ServiceName,
		Version:        row.Version,
		Status:         registry.Status(row.Status),
		HealthCheckURL: row.HealthCheck,
		RegisteredAt:   row.RegisteredAt,
		LastHeartbeat:  row.LastHeartbeat,
	}
	if len(row.Endpoints) > 0 {
		if err := json.Unmarshal(row.Endpoints, &reg.Endpoints); err != nil {
			return nil, fmt.Errorf("unmarshal endpoints for %q: %w", row.Key, err)
		}
	}
	if len(row.Metadata) > 0 {
		if err := json.Unmarshal(row.Metadata, &reg.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata for %q: %w", row.Key, err)
		}
	}
	if len(row.Tags) > 0 {
		if err := json.Unmarshal(row.Tags, &reg.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags for %q: %w", row.Key, err)
		}
	}
	return reg, nil
}

// Put creates or replaces the registration row.
func (s *Store) Put(ctx context.Context, reg *registry.ServiceRegistration) error {
	row, err := toRow(reg)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return errors.StoreUnavailable(providerName, err)
	}
	return nil
}

// Get returns the registration for the triple, or (nil, nil) if absent.
func (s *Store) Get(ctx context.Context, serviceName, version, serviceID string) (*registry.ServiceRegistration, error) {
	var row registrationRow
	err := s.db.WithContext(ctx).
		Where("key = ?", registry.RegistrationKey(serviceName, version, serviceID)).
		First(&row).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.StoreUnavailable(providerName, err)
	}
	return fromRow(&row)
}

// Query pushes name and status filters into SQL; the tag subset filter is
// applied client-side on the decoded rows.
func (s *Store) Query(ctx context.Context, q registry.Query) ([]registry.ServiceRegistration, error) {
	tx := s.db.WithContext(ctx).Model(&registrationRow{})
	if q.ServiceName != "" {
		tx = tx.Where("service_name = ?", q.ServiceName)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", string(q.Status))
	}

	var rows []registrationRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, errors.StoreUnavailable(providerName, err)
	}

	var out []registry.ServiceRegistration
	for i := range rows {
		reg, err := fromRow(&rows[i])
		if err != nil {
			s.log.Warn("skipping undecodable registry row", logger.Fields(
				"key", rows[i].Key,
				logger.FieldError, err.Error(),
			))
			continue
		}
		if q.Matches(reg) {
			out = append(out, *reg)
		}
	}
	return out, nil
}

// Delete removes the registration row. Deleting an absent key is not an
// error.
func (s *Store) Delete(ctx context.Context, serviceName, version, serviceID string) error {
	err := s.db.WithContext(ctx).
		Where("key = ?", registry.RegistrationKey(serviceName, version, serviceID)).
		Delete(&registrationRow{}).Error
	if err != nil {
		return errors.StoreUnavailable(providerName, err)
	}
	return nil
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.StoreUnavailable(providerName, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.StoreUnavailable(providerName, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
