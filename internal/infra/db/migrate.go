package db

import (
	"database/sql"
)

// MigrateUp creates the schema. Statements are idempotent so the binary can
// run them on every start.
func MigrateUp(database *sql.DB) error {
	if _, err := database.Exec(`
CREATE TABLE IF NOT EXISTS jobs (
    id         UUID PRIMARY KEY,
    title      TEXT NOT NULL,
    company    TEXT NOT NULL,
    location   TEXT,
    url        TEXT NOT NULL UNIQUE,
    posted_at  TIMESTAMPTZ
)`); err != nil {
		return err
	}

	if _, err := database.Exec(`
CREATE TABLE IF NOT EXISTS applications (
    id              UUID PRIMARY KEY,
    job_id          UUID NOT NULL REFERENCES jobs(id),
    status          VARCHAR(20) NOT NULL DEFAULT 'applied',
    notes           TEXT,
    score           INTEGER,
    score_rationale TEXT,
    scored_at       TIMESTAMPTZ,
    created_at      TIMESTAMPTZ DEFAULT now(),
    updated_at      TIMESTAMPTZ DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := database.Exec(`
CREATE TABLE IF NOT EXISTS saved_searches (
    id         UUID PRIMARY KEY,
    keywords   TEXT NOT NULL,
    location   TEXT,
    remote     BOOLEAN NOT NULL DEFAULT false,
    created_at TIMESTAMPTZ DEFAULT now()
)`); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_applications_job_id ON applications(job_id)`,
		`CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(status)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_posted_at ON jobs(posted_at DESC)`,
	}
	for _, idx := range indexes {
		if _, err := database.Exec(idx); err != nil {
			return err
		}
	}

	// Status constraint; ignore the error when the constraint already exists.
	_, _ = database.Exec(`
DO $$
BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM pg_constraint
        WHERE conname = 'chk_application_status'
    ) THEN
        ALTER TABLE applications ADD CONSTRAINT chk_application_status
        CHECK (status IN ('applied', 'screening', 'interview', 'offer', 'rejected'));
    END IF;
END $$;
`)

	return nil
}
