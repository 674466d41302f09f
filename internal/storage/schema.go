package storage

// Schema is the relational layout. Transfers come before records in insert
// order because records carry a transfer foreign key.
const Schema = `
CREATE TABLE IF NOT EXISTS wallets (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    name            TEXT NOT NULL CHECK (length(trim(name)) > 0),
    currency        TEXT NOT NULL CHECK (length(currency) >= 3),
    initial_balance REAL NOT NULL DEFAULT 0 CHECK (initial_balance >= 0),
    system          INTEGER NOT NULL DEFAULT 0,
    allow_negative  INTEGER NOT NULL DEFAULT 0,
    is_active       INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS transfers (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    from_wallet_id    INTEGER NOT NULL REFERENCES wallets(id) ON DELETE RESTRICT ON UPDATE CASCADE,
    to_wallet_id      INTEGER NOT NULL REFERENCES wallets(id) ON DELETE RESTRICT ON UPDATE CASCADE,
    date              TEXT NOT NULL CHECK (length(date) = 10),
    amount_original   REAL NOT NULL CHECK (amount_original > 0),
    currency          TEXT NOT NULL CHECK (length(currency) >= 3),
    rate_at_operation REAL NOT NULL CHECK (rate_at_operation > 0),
    amount_kzt        REAL NOT NULL CHECK (amount_kzt > 0),
    description       TEXT NOT NULL DEFAULT '',
    CHECK (from_wallet_id <> to_wallet_id)
);

CREATE TABLE IF NOT EXISTS records (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    type              TEXT NOT NULL CHECK (type IN ('income', 'expense', 'mandatory_expense')),
    date              TEXT NOT NULL CHECK (length(date) = 10),
    wallet_id         INTEGER NOT NULL REFERENCES wallets(id) ON DELETE RESTRICT ON UPDATE CASCADE,
    transfer_id       INTEGER REFERENCES transfers(id) ON DELETE SET NULL ON UPDATE CASCADE,
    amount_original   REAL NOT NULL CHECK (amount_original >= 0),
    currency          TEXT NOT NULL CHECK (length(currency) >= 3),
    rate_at_operation REAL NOT NULL CHECK (rate_at_operation > 0),
    amount_kzt        REAL NOT NULL CHECK (amount_kzt >= 0),
    category          TEXT NOT NULL CHECK (length(trim(category)) > 0),
    description       TEXT NOT NULL DEFAULT '',
    period            TEXT CHECK (period IN ('daily', 'weekly', 'monthly', 'yearly'))
);

CREATE TABLE IF NOT EXISTS mandatory_expenses (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    date              TEXT NOT NULL DEFAULT '',
    wallet_id         INTEGER NOT NULL REFERENCES wallets(id) ON DELETE RESTRICT ON UPDATE CASCADE,
    amount_original   REAL NOT NULL CHECK (amount_original >= 0),
    currency          TEXT NOT NULL CHECK (length(currency) >= 3),
    rate_at_operation REAL NOT NULL CHECK (rate_at_operation > 0),
    amount_kzt        REAL NOT NULL CHECK (amount_kzt >= 0),
    category          TEXT NOT NULL CHECK (length(trim(category)) > 0),
    description       TEXT NOT NULL CHECK (length(trim(description)) > 0),
    period            TEXT NOT NULL CHECK (period IN ('daily', 'weekly', 'monthly', 'yearly'))
);

CREATE INDEX IF NOT EXISTS idx_records_date ON records(date);
CREATE INDEX IF NOT EXISTS idx_records_wallet ON records(wallet_id);
CREATE INDEX IF NOT EXISTS idx_transfers_date ON transfers(date);
CREATE INDEX IF NOT EXISTS idx_transfers_from_wallet ON transfers(from_wallet_id);
CREATE INDEX IF NOT EXISTS idx_transfers_to_wallet ON transfers(to_wallet_id);
CREATE INDEX IF NOT EXISTS idx_mandatory_date ON mandatory_expenses(date);
CREATE INDEX IF NOT EXISTS idx_mandatory_wallet ON mandatory_expenses(wallet_id);
`
