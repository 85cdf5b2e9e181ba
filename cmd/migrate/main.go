package main

import (
	"log"

	"academic-auth-be/internal/config"
	"academic-auth-be/internal/model"
	"academic-auth-be/pkg/database"
)

func main() {
	// 1. Load Environment Variables
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.DefaultOptions(true))
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Pre-Migration: Extensions (gen_random_uuid and uuid_generate_v4 defaults)
	log.Println("Step 1: Setting up Extensions...")
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models
	models := []interface{}{
		&model.Institution{},
		&model.InstitutionDocument{},
		&model.User{},
		&model.UserSettings{},
		&model.Verification{},
		&model.AuditEvent{},
		&model.VerificationRequest{},
		&model.NotificationType{},
		&model.Notification{},
	}
	log.Printf("Step 2: Running AutoMigrate for %d Tables...", len(models))
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: Partial indexes GORM tags cannot express
	log.Println("Step 3: Creating partial indexes...")
	postMigrationSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_requests_open_queue ON verification_requests (institution_id, submitted_at)
		 WHERE status IN ('pending', 'in-review');`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications (user_id)
		 WHERE is_read = false;`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
