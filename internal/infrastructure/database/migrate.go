package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Atik203/Scholar-Flow-sub001/internal/domain/model"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := createExtensions(db); err != nil {
		logger.Error("Failed to create extensions", zap.Error(err))
		return err
	}

	// Enum types must exist before auto-migrate references them.
	if err := createCustomTypes(db); err != nil {
		logger.Error("Failed to create custom types", zap.Error(err))
		return err
	}

	err := db.AutoMigrate(
		&model.Plan{},
		&model.CustomerLink{},
		&model.Subscription{},
		&model.Payment{},
		&model.WebhookEvent{},
		&model.UserRole{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createCustomIndexes creates indexes GORM cannot express in tags
func createCustomIndexes(db *gorm.DB) error {
	// One active subscription per user and workspace scope. COALESCE folds
	// the personal scope (NULL workspace) into a comparable value.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS unique_active_subscription_per_scope
		ON subscriptions (user_id, COALESCE(workspace_id, '00000000-0000-0000-0000-000000000000'::uuid))
		WHERE status = 'active'`).Error; err != nil {
		return err
	}

	// Reprocessing sweep scans unresolved events in arrival order.
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_webhook_events_unresolved
		ON webhook_events (received_at)
		WHERE status IN ('pending', 'failed')`).Error; err != nil {
		return err
	}

	return nil
}

// createExtensions creates required PostgreSQL extensions
func createExtensions(db *gorm.DB) error {
	return db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error
}

// createCustomTypes creates the enum types backing the status columns
func createCustomTypes(db *gorm.DB) error {
	types := []string{
		`DO $$ BEGIN
			CREATE TYPE subscription_status AS ENUM ('active', 'past_due', 'canceled', 'expired');
		EXCEPTION WHEN duplicate_object THEN NULL;
		END $$`,
		`DO $$ BEGIN
			CREATE TYPE payment_status AS ENUM ('pending', 'succeeded', 'failed', 'refunded');
		EXCEPTION WHEN duplicate_object THEN NULL;
		END $$`,
		`DO $$ BEGIN
			CREATE TYPE webhook_status AS ENUM ('pending', 'processed', 'failed');
		EXCEPTION WHEN duplicate_object THEN NULL;
		END $$`,
	}
	for _, t := range types {
		if err := db.Exec(t).Error; err != nil {
			return err
		}
	}
	return nil
}
