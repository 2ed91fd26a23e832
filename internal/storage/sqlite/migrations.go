package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
//
// Money columns are TEXT: decimal amounts round-trip through their exact
// string form instead of REAL. The partial unique indexes on identities
// apply uniqueness only to real (non-null) emails and phone numbers, and
// are the serialization point for concurrent registration attempts.
const schema = `
CREATE TABLE IF NOT EXISTS identities (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT,
    phone_number TEXT,
    avatar_url TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_identities_email ON identities(email) WHERE email IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS idx_identities_phone ON identities(phone_number) WHERE phone_number IS NOT NULL;

CREATE TABLE IF NOT EXISTS debts (
    id TEXT PRIMARY KEY,
    lender_id TEXT NOT NULL,
    debtor_id TEXT,
    debtor_phone_number TEXT NOT NULL,
    principal_amount TEXT NOT NULL,
    interest_rate REAL NOT NULL,
    calculated_interest TEXT NOT NULL,
    total_amount TEXT NOT NULL,
    outstanding_balance TEXT NOT NULL,
    due_date INTEGER NOT NULL,
    status TEXT NOT NULL,
    notes TEXT,
    is_external INTEGER NOT NULL DEFAULT 0,
    external_lender_name TEXT,
    paid_at INTEGER,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (lender_id) REFERENCES identities(id) ON DELETE CASCADE,
    FOREIGN KEY (debtor_id) REFERENCES identities(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS payments (
    id TEXT PRIMARY KEY,
    debt_id TEXT NOT NULL,
    amount TEXT NOT NULL,
    status TEXT NOT NULL,
    reference TEXT NOT NULL UNIQUE,
    gateway TEXT NOT NULL,
    notes TEXT,
    paid_at INTEGER,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (debt_id) REFERENCES debts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_debts_lender_id ON debts(lender_id);
CREATE INDEX IF NOT EXISTS idx_debts_debtor_id ON debts(debtor_id);
CREATE INDEX IF NOT EXISTS idx_debts_debtor_phone ON debts(debtor_phone_number);
CREATE INDEX IF NOT EXISTS idx_payments_debt_id ON payments(debt_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
