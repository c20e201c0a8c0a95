package database

import (
	"fmt"

	"gorm.io/gorm"

	"trainingdesk/internal/domain/machine"
	"trainingdesk/internal/domain/member"
	"trainingdesk/internal/domain/session"
	"trainingdesk/internal/domain/settings"
	"trainingdesk/internal/domain/subscription"
)

// Models lists every table owned or read by this service, in dependency order.
func Models() []any {
	return []any{
		&machine.Machine{},
		&member.Member{},
		&subscription.Subscription{},
		&settings.Settings{},
		&session.Session{},
	}
}

// Postgres-only guarantees that AutoMigrate cannot express. The exclusion
// constraint rejects overlapping non-cancelled sessions on one machine even for
// writers that skip the machine row lock.
var postgresStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,
	`DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'training_sessions_window_check') THEN
		ALTER TABLE training_sessions
			ADD CONSTRAINT training_sessions_window_check CHECK (scheduled_end > scheduled_start);
	END IF;
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'training_sessions_no_overlap') THEN
		ALTER TABLE training_sessions
			ADD CONSTRAINT training_sessions_no_overlap EXCLUDE USING gist (
				machine_id WITH =,
				tstzrange(scheduled_start, scheduled_end, '[)') WITH &&
			) WHERE (status <> 'cancelled');
	END IF;
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'subscriptions_used_sessions_check') THEN
		ALTER TABLE subscriptions
			ADD CONSTRAINT subscriptions_used_sessions_check CHECK (used_sessions >= 0);
	END IF;
END $$`,
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}
	for _, stmt := range postgresStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("postgres constraints: %w", err)
		}
	}
	return nil
}
