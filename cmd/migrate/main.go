package main

import (
	"log"
	"os"

	"agora-be/internal/model"
	"agora-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		color.Red("Error: DB_CONNECTION_STRING is not set")
		os.Exit(1)
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		color.Red("Error: Failed to connect to database: %v", err)
		os.Exit(1)
	}

	color.Cyan("Starting GORM migration...")

	color.Cyan("Step 1: Extensions...")
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			color.Yellow("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	color.Cyan("Step 2: AutoMigrate...")
	models := []interface{}{
		&model.User{},
		&model.EmailVerificationToken{},
		&model.Session{},
		&model.SessionParticipant{},
		&model.Proposal{},
		&model.Rating{},
		&model.Comment{},
		&model.Vote{},
		&model.TopProposal{},
		&model.NotificationType{},
		&model.Notification{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		color.Red("Error: AutoMigrate failed: %v", err)
		os.Exit(1)
	}

	// The partial unique index is the authoritative single-active-session
	// guard; the application-level count check only gives friendlier errors.
	color.Cyan("Step 3: Constraints...")
	constraintSQL := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_sessions_single_active
		 ON sessions (status) WHERE status = 'active';`,
	}
	for _, sql := range constraintSQL {
		if err := db.Exec(sql).Error; err != nil {
			color.Red("Error: Failed to create constraint: %v", err)
			os.Exit(1)
		}
	}

	color.Cyan("Step 4: Seeding notification types...")
	seedNotificationTypes(db)

	color.Green("Success: database migration completed.")
}

func seedNotificationTypes(db *gorm.DB) {
	types := []model.NotificationType{
		{
			Code:        "SESSION_TRANSITION_SCHEDULED",
			DisplayName: "Transition Countdown Started",
			Template:    "Rating is wrapping up. The session moves to the voting phase at {scheduled_at}.",
			TargetType:  "BROADCAST",
			IsActive:    true,
		},
		{
			Code:        "SESSION_TERMINATION_SCHEDULED",
			DisplayName: "Termination Countdown Started",
			Template:    "Voting is wrapping up. The session closes at {scheduled_at}.",
			TargetType:  "BROADCAST",
			IsActive:    true,
		},
		{
			Code:        "SESSION_PHASE_CHANGED",
			DisplayName: "Voting Phase Started",
			Template:    "The top-rated proposals advanced to {to_phase}. Voting is now open.",
			TargetType:  "BROADCAST",
			IsActive:    true,
		},
		{
			Code:        "SESSION_TIEBREAKER_STARTED",
			DisplayName: "Tiebreaker Round Started",
			Template:    "The vote ended in a tie. A 30-second tiebreaker round is underway.",
			TargetType:  "BROADCAST",
			IsActive:    true,
		},
		{
			Code:        "SESSION_CLOSED",
			DisplayName: "Session Closed",
			Template:    "The session has closed with {winner_count} winning proposal(s). Results are available.",
			TargetType:  "BROADCAST",
			IsActive:    true,
		},
	}

	for _, t := range types {
		var existing model.NotificationType
		if err := db.Where("code = ?", t.Code).First(&existing).Error; err == nil {
			color.Yellow("Notification type '%s' already exists, skipping...", t.Code)
			continue
		}
		if err := db.Create(&t).Error; err != nil {
			color.Red("Error creating notification type '%s': %v", t.Code, err)
		} else {
			color.Green("Created notification type: %s", t.Code)
		}
	}
}
