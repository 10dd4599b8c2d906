package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository. A
// transaction row plus its posting rows are written inside the caller's
// unit of work.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create persists a validated transaction and its postings.
func (r *TransactionRepository) Create(ctx context.Context, uow usecase.UnitOfWork, tx *domain.Transaction) error {
	pgxTx := uow.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO transactions (id, description, status, currency, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		tx.ID, tx.Description, string(tx.Status), tx.Currency(), timeToPgTimestamptz(tx.CreatedAt))
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i, p := range tx.Postings {
		batch.Queue(`
			INSERT INTO postings (transaction_id, position, account_id, amount, currency, direction)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			tx.ID, i, p.AccountID, decimalToNumeric(p.Amount.Amount), p.Amount.Currency, string(p.Direction))
	}

	return pgxTx.SendBatch(ctx, batch).Close()
}

// GetByID retrieves a transaction and its postings by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	var (
		tx        domain.Transaction
		status    string
		currency  string
		createdAt pgtype.Timestamptz
	)

	err := r.pool.QueryRow(ctx, `
		SELECT id, description, status, currency, created_at
		FROM transactions
		WHERE id = $1`, id).
		Scan(&tx.ID, &tx.Description, &status, &currency, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	tx.Status = domain.TransactionStatus(status)
	tx.CreatedAt = createdAt.Time

	if tx.Postings, err = r.postingsFor(ctx, tx.ID); err != nil {
		return nil, err
	}

	return &tx, nil
}

// ListByAccount lists transactions that have at least one posting against
// the account, newest first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT t.id, t.description, t.status, t.currency, t.created_at
		FROM transactions t
		JOIN postings p ON p.transaction_id = t.id
		WHERE p.account_id = $1
		ORDER BY t.created_at DESC, t.id
		LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*domain.Transaction

	for rows.Next() {
		var (
			tx        domain.Transaction
			status    string
			currency  string
			createdAt pgtype.Timestamptz
		)

		if err := rows.Scan(&tx.ID, &tx.Description, &status, &currency, &createdAt); err != nil {
			return nil, err
		}

		tx.Status = domain.TransactionStatus(status)
		tx.CreatedAt = createdAt.Time

		txs = append(txs, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, tx := range txs {
		if tx.Postings, err = r.postingsFor(ctx, tx.ID); err != nil {
			return nil, err
		}
	}

	return txs, nil
}

func (r *TransactionRepository) postingsFor(ctx context.Context, txID string) ([]domain.Posting, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT account_id, amount, currency, direction
		FROM postings
		WHERE transaction_id = $1
		ORDER BY position`, txID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var postings []domain.Posting

	for rows.Next() {
		var (
			p         domain.Posting
			amount    pgtype.Numeric
			currency  string
			direction string
		)

		if err := rows.Scan(&p.AccountID, &amount, &currency, &direction); err != nil {
			return nil, err
		}

		p.Amount = domain.Money{Amount: numericToDecimal(amount), Currency: currency}
		p.Direction = domain.Direction(direction)

		postings = append(postings, p)
	}

	return postings, rows.Err()
}
