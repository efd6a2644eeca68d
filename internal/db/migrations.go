package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'camera_status') THEN
			CREATE TYPE camera_status AS ENUM ('online', 'offline');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'alert_type') THEN
			CREATE TYPE alert_type AS ENUM ('normal face', 'with helmet', 'with mask');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'alert_severity') THEN
			CREATE TYPE alert_severity AS ENUM ('low', 'medium', 'high');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'alert_status') THEN
			CREATE TYPE alert_status AS ENUM ('open', 'resolved');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS counters (
		name VARCHAR(64) PRIMARY KEY,
		seq BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(64) PRIMARY KEY,
		sequence_number BIGINT NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(32) NOT NULL DEFAULT 'operator',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS cameras (
		id VARCHAR(64) PRIMARY KEY,
		sequence_number BIGINT NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL,
		bank_name VARCHAR(255) NOT NULL,
		district VARCHAR(255) NOT NULL,
		province VARCHAR(255) NOT NULL,
		branch VARCHAR(255) NOT NULL,
		address TEXT NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		status camera_status NOT NULL DEFAULT 'online',
		last_available_time TIMESTAMPTZ NOT NULL,
		stream_url TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_cameras_status ON cameras (status);`,
	`CREATE INDEX IF NOT EXISTS idx_cameras_province ON cameras (province);`,
	// alerts.camera_id is deliberately not a foreign key: alerts outlive the
	// cameras they reference.
	`CREATE TABLE IF NOT EXISTS alerts (
		id VARCHAR(64) PRIMARY KEY,
		sequence_number BIGINT NOT NULL UNIQUE,
		type alert_type NOT NULL,
		severity alert_severity NOT NULL DEFAULT 'low',
		status alert_status NOT NULL DEFAULT 'open',
		description TEXT,
		camera_id VARCHAR(64) NOT NULL,
		confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
		image_path TEXT,
		created_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		resolved_time TIMESTAMPTZ,
		resolved_by VARCHAR(64),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_camera_id ON alerts (camera_id);`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts (status);`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_type ON alerts (type);`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_severity ON alerts (severity);`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_created_time ON alerts (created_time);`,
	`CREATE OR REPLACE FUNCTION set_updated_at()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_counters_updated_at') THEN
			CREATE TRIGGER trg_counters_updated_at
				BEFORE UPDATE ON counters
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_users_updated_at') THEN
			CREATE TRIGGER trg_users_updated_at
				BEFORE UPDATE ON users
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_cameras_updated_at') THEN
			CREATE TRIGGER trg_cameras_updated_at
				BEFORE UPDATE ON cameras
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_alerts_updated_at') THEN
			CREATE TRIGGER trg_alerts_updated_at
				BEFORE UPDATE ON alerts
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
