package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"bridgeDrip/internal/model"
)

// Store provides Postgres persistence for the disbursement history. It is
// additive to the file-based status record: the file stays authoritative
// for the counters, the table keeps the per-drip audit trail queryable.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InsertDisbursement records one confirmed drip. Replays of the same
// funding transaction are ignored.
func (s *Store) InsertDisbursement(ctx context.Context, d model.Disbursement) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO disbursements (
			recipient, amount, tx_hash, origin_tx, block_number, sent_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (tx_hash) DO NOTHING
	`,
		d.Recipient,
		d.Amount.String(),
		d.TxHash,
		d.OriginTx,
		int64(d.BlockNumber),
		d.SentAt,
	)
	return err
}

// CountDisbursements returns the number of recorded drips, mainly for
// operational spot checks.
func (s *Store) CountDisbursements(ctx context.Context) (uint64, error) {
	var count uint64
	row := s.pool.QueryRow(ctx, `SELECT count(*) FROM disbursements`)
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
