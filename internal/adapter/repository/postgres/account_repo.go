package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

const accountColumns = `id, name, type, currency, balance, created_at, updated_at`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		account.ID,
		account.Name,
		string(account.Type),
		account.Currency,
		decimalToNumeric(account.Balance.Amount),
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	)

	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1`, id)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return account, nil
}

// GetByIDsForUpdate retrieves accounts by IDs with exclusive row locks held
// for the remainder of the unit of work. The ORDER BY matches the caller's
// pre-sorted ids, so every concurrent unit of work locks overlapping rows
// in the same relative order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, uow usecase.UnitOfWork, ids []string) ([]*domain.Account, error) {
	pgxTx := uow.(*Tx).PgxTx()

	rows, err := pgxTx.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0, len(ids))

	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// UpdateBalance updates the balance of an account.
func (r *AccountRepository) UpdateBalance(ctx context.Context, uow usecase.UnitOfWork, id string, balance decimal.Decimal, updatedAt time.Time) error {
	pgxTx := uow.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		UPDATE accounts
		SET balance = $2, updated_at = $3
		WHERE id = $1`,
		id, decimalToNumeric(balance), timeToPgTimestamptz(updatedAt))

	return err
}

// List lists accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account

	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account   domain.Account
		typ       string
		balance   pgtype.Numeric
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	if err := row.Scan(&account.ID, &account.Name, &typ, &account.Currency, &balance, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	account.Type = domain.AccountType(typ)
	account.Balance = domain.Money{Amount: numericToDecimal(balance), Currency: account.Currency}
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time

	return &account, nil
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
