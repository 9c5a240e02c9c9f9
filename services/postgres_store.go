package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/protocol"
)

// PostgresStore implements ResultStore with PostgreSQL persistence.
type PostgresStore struct {
	db *sql.DB
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// ConnectionString returns the PostgreSQL connection string.
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode)
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(config *PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS submissions (
		batch_id BIGINT NOT NULL,
		idx INTEGER NOT NULL,
		provider VARCHAR(128) NOT NULL,
		delta_handle VARCHAR(64) NOT NULL,
		flag_handle VARCHAR(64) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		PRIMARY KEY (batch_id, idx)
	);

	CREATE TABLE IF NOT EXISTS decryptions (
		request_id VARCHAR(64) PRIMARY KEY,
		batch_id BIGINT NOT NULL,
		deltas BIGINT[],
		malicious_flags BOOLEAN[],
		rejected BOOLEAN NOT NULL DEFAULT FALSE,
		reason TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_submissions_provider ON submissions(provider);
	CREATE INDEX IF NOT EXISTS idx_decryptions_batch ON decryptions(batch_id);
	`

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveSubmission persists an accepted submission.
func (s *PostgresStore) SaveSubmission(sub protocol.Submission) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
	INSERT INTO submissions (batch_id, idx, provider, delta_handle, flag_handle)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (batch_id, idx) DO NOTHING
	`

	_, err := s.db.ExecContext(ctx, query,
		int64(sub.BatchID),
		sub.Index,
		sub.Provider.String(),
		sub.DeltaHandle.String(),
		sub.FlagHandle.String(),
	)
	return err
}

// SaveDecryption persists a decryption outcome.
func (s *PostgresStore) SaveDecryption(record *DecryptionRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
	INSERT INTO decryptions (request_id, batch_id, deltas, malicious_flags, rejected, reason)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (request_id) DO UPDATE SET
		deltas = EXCLUDED.deltas,
		malicious_flags = EXCLUDED.malicious_flags,
		rejected = EXCLUDED.rejected,
		reason = EXCLUDED.reason
	`

	_, err := s.db.ExecContext(ctx, query,
		record.RequestID,
		int64(record.BatchID),
		pq.Array(record.Deltas),
		pq.Array(record.MaliciousFlags),
		record.Rejected,
		record.Reason,
	)
	return err
}

// LoadDecryptions retrieves all decryption outcomes for a batch.
func (s *PostgresStore) LoadDecryptions(batchID uint64) ([]*DecryptionRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT request_id, batch_id, deltas, malicious_flags, rejected, reason
		FROM decryptions
		WHERE batch_id = $1
		ORDER BY created_at
	`, int64(batchID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*DecryptionRecord
	for rows.Next() {
		var (
			record  DecryptionRecord
			batchID int64
			deltas  pq.Int64Array
			flags   pq.BoolArray
			reason  sql.NullString
		)

		if err := rows.Scan(&record.RequestID, &batchID, &deltas, &flags, &record.Rejected, &reason); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		record.BatchID = uint64(batchID)
		record.Deltas = []int64(deltas)
		record.MaliciousFlags = []bool(flags)
		record.Reason = reason.String
		records = append(records, &record)
	}

	return records, rows.Err()
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
