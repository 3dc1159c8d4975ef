package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/veriflow/identity/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

// queryTimeout bounds every store call so request handlers never block
// indefinitely on a wedged connection.
const queryTimeout = 5 * time.Second

const accountColumns = `id, name, email, phone, password_hash, account_verified,
			  verification_code, verification_code_expires_at,
			  reset_token_hash, reset_token_expires_at,
			  google_id, facebook_id, provider, created_at, updated_at`

type AccountRepository struct {
	db *Connection
}

func NewAccountRepository(db *Connection) *AccountRepository {
	return &AccountRepository{
		db: db,
	}
}

func scanAccount(row pgx.Row) (model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.Phone, &a.PasswordHash, &a.AccountVerified,
		&a.VerificationCode, &a.VerificationCodeExpiresAt,
		&a.ResetTokenHash, &a.ResetTokenExpiresAt,
		&a.GoogleID, &a.FacebookID, &a.Provider, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, model.NewTransientError("account store", fmt.Errorf("failed to get account by id: %w", err))
	}

	return account, nil
}

// GetVerified matches on whichever of email/phone is non-empty; an empty
// value never matches anything.
func (r *AccountRepository) GetVerified(ctx context.Context, email, phone string) (model.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + accountColumns + ` FROM accounts
			  WHERE account_verified
			    AND (($1 <> '' AND email = $1) OR ($2 <> '' AND phone = $2))
			  LIMIT 1`

	account, err := scanAccount(r.db.QueryRow(ctx, query, email, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, model.NewTransientError("account store", fmt.Errorf("failed to get verified account: %w", err))
	}

	return account, nil
}

func (r *AccountRepository) GetVerifiedByEmail(ctx context.Context, email string) (model.Account, error) {
	return r.GetVerified(ctx, email, "")
}

func (r *AccountRepository) CountUnverified(ctx context.Context, email, phone string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT COUNT(*) FROM accounts
			  WHERE NOT account_verified
			    AND (($1 <> '' AND email = $1) OR ($2 <> '' AND phone = $2))`

	var count int
	if err := r.db.QueryRow(ctx, query, email, phone).Scan(&count); err != nil {
		return 0, model.NewTransientError("account store", fmt.Errorf("failed to count unverified accounts: %w", err))
	}

	return count, nil
}

func (r *AccountRepository) ListUnverified(ctx context.Context, email, phone string) ([]model.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + accountColumns + ` FROM accounts
			  WHERE NOT account_verified
			    AND (($1 <> '' AND email = $1) OR ($2 <> '' AND phone = $2))
			  ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, email, phone)
	if err != nil {
		return nil, model.NewTransientError("account store", fmt.Errorf("failed to list unverified accounts: %w", err))
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, model.NewTransientError("account store", fmt.Errorf("failed to scan unverified account: %w", err))
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewTransientError("account store", fmt.Errorf("failed to read unverified accounts: %w", err))
	}

	return accounts, nil
}

func (r *AccountRepository) GetByResetTokenHash(ctx context.Context, digest []byte) (model.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + accountColumns + ` FROM accounts
			  WHERE account_verified AND reset_token_hash = $1`

	account, err := scanAccount(r.db.QueryRow(ctx, query, digest))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, model.NewTransientError("account store", fmt.Errorf("failed to get account by reset token hash: %w", err))
	}

	return account, nil
}

func (r *AccountRepository) Create(ctx context.Context, account model.Account) (model.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `INSERT INTO accounts (id, name, email, phone, password_hash, account_verified,
				verification_code, verification_code_expires_at,
				reset_token_hash, reset_token_expires_at,
				google_id, facebook_id, provider, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			  RETURNING ` + accountColumns

	saved, err := scanAccount(r.db.QueryRow(ctx, query,
		account.ID, account.Name, account.Email, account.Phone, account.PasswordHash, account.AccountVerified,
		account.VerificationCode, account.VerificationCodeExpiresAt,
		account.ResetTokenHash, account.ResetTokenExpiresAt,
		account.GoogleID, account.FacebookID, account.Provider, account.CreatedAt, account.UpdatedAt,
	))
	if err != nil {
		return model.Account{}, model.NewTransientError("account store", fmt.Errorf("failed to create account: %w", err))
	}

	return saved, nil
}

func (r *AccountRepository) Update(ctx context.Context, account model.Account) (model.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `UPDATE accounts
			  SET name = $2, email = $3, phone = $4, password_hash = $5, account_verified = $6,
			      verification_code = $7, verification_code_expires_at = $8,
			      reset_token_hash = $9, reset_token_expires_at = $10,
			      google_id = $11, facebook_id = $12, provider = $13, updated_at = now()
			  WHERE id = $1
			  RETURNING ` + accountColumns

	saved, err := scanAccount(r.db.QueryRow(ctx, query,
		account.ID, account.Name, account.Email, account.Phone, account.PasswordHash, account.AccountVerified,
		account.VerificationCode, account.VerificationCodeExpiresAt,
		account.ResetTokenHash, account.ResetTokenExpiresAt,
		account.GoogleID, account.FacebookID, account.Provider,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, model.NewTransientError("account store", fmt.Errorf("failed to update account: %w", err))
	}

	return saved, nil
}

func (r *AccountRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `DELETE FROM accounts WHERE id = ANY($1)`

	if _, err := r.db.Exec(ctx, query, ids); err != nil {
		return model.NewTransientError("account store", fmt.Errorf("failed to delete accounts: %w", err))
	}

	return nil
}

func (r *AccountRepository) DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `DELETE FROM accounts WHERE NOT account_verified AND created_at < $1`

	tag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, model.NewTransientError("account store", fmt.Errorf("failed to delete stale unverified accounts: %w", err))
	}

	return tag.RowsAffected(), nil
}
