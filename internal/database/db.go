package database

import (
	"fmt"

	"copycorner/internal/model"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
}

// activeUnique enforces name uniqueness among live rows only, so an archived
// record never blocks reuse of its name.
var activeUnique = []struct{ name, table, column string }{
	{"ux_categories_name_active", "categories", "name"},
	{"ux_products_name_active", "products", "name"},
	{"ux_service_types_name_active", "service_types", "name"},
	{"ux_groups_name_active", "groups", "name"},
	{"ux_users_username_active", "users", "username"},
}

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string, opts Options) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}

	if err := Migrate(db); err != nil {
		log.Warn().Err(err).Msg("Failed to auto-migrate models")
	}

	return db, nil
}

// Migrate creates the schema and the partial unique indexes.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Sequence{},
		&model.Category{},
		&model.Product{},
		&model.ServiceType{},
		&model.Group{},
		&model.User{},
		&model.Staff{},
		&model.Schedule{},
		&model.Transaction{},
		&model.StockMovement{},
		&model.AuditLog{},
	)
	if err != nil {
		return err
	}

	for _, ix := range activeUnique {
		stmt := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s) WHERE is_archived = false", ix.name, ix.table, ix.column)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", ix.name, err)
		}
	}
	return nil
}
