package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/alpha-cen/auth-user-service/pkg/errors"

	"github.com/alpha-cen/auth-user-service/internal/domain"
)

const addressColumns = `id, user_id, address_line1, address_line2, city, state, postal_code, country, is_default, address_type, created_at, updated_at`

// AddressRepository implements repository.AddressRepository using PostgreSQL.
type AddressRepository struct {
	db DB
}

// NewAddressRepository creates a new PostgreSQL-backed address repository.
func NewAddressRepository(db DB) *AddressRepository {
	return &AddressRepository{db: db}
}

// Create inserts a new address. When the address is marked default, the
// insert and the demotion of any previous default happen in one transaction.
func (r *AddressRepository) Create(ctx context.Context, a *domain.Address) error {
	insert := `
		INSERT INTO user_addresses (id, user_id, address_line1, address_line2, city, state, postal_code, country, is_default, address_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	args := []any{
		a.ID,
		a.UserID,
		a.AddressLine1,
		a.AddressLine2,
		a.City,
		a.State,
		a.PostalCode,
		a.Country,
		a.IsDefault,
		a.AddressType,
		a.CreatedAt,
		a.UpdatedAt,
	}

	if !a.IsDefault {
		if _, err := r.db.Exec(ctx, insert, args...); err != nil {
			return fmt.Errorf("insert address: %w", err)
		}
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`UPDATE user_addresses SET is_default = false, updated_at = $2 WHERE user_id = $1 AND is_default = true`,
		a.UserID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("clear default addresses: %w", err)
	}

	if _, err := tx.Exec(ctx, insert, args...); err != nil {
		return fmt.Errorf("insert address: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByIDAndUserID retrieves an address only when it belongs to the user.
// A wrong owner looks the same as a missing row.
func (r *AddressRepository) GetByIDAndUserID(ctx context.Context, id, userID string) (*domain.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM user_addresses WHERE id = $1 AND user_id = $2`
	return r.scanAddress(ctx, query, id, userID)
}

// GetDefault retrieves the user's default address.
func (r *AddressRepository) GetDefault(ctx context.Context, userID string) (*domain.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM user_addresses WHERE user_id = $1 AND is_default = true`
	return r.scanAddress(ctx, query, userID)
}

// ListByUserID returns all addresses for the user, default first, then newest first.
func (r *AddressRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Address, error) {
	query := `
		SELECT ` + addressColumns + `
		FROM user_addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	addresses := []*domain.Address{}
	for rows.Next() {
		var a domain.Address
		if err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.AddressLine1,
			&a.AddressLine2,
			&a.City,
			&a.State,
			&a.PostalCode,
			&a.Country,
			&a.IsDefault,
			&a.AddressType,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan address row: %w", err)
		}
		addresses = append(addresses, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate address rows: %w", err)
	}

	return addresses, nil
}

// Update modifies an existing address. With resetOthers set, other defaults
// for the user are cleared in the same transaction as the update.
func (r *AddressRepository) Update(ctx context.Context, a *domain.Address, resetOthers bool) error {
	a.UpdatedAt = time.Now().UTC()

	update := `
		UPDATE user_addresses
		SET address_line1 = $1, address_line2 = $2, city = $3, state = $4, postal_code = $5,
		    country = $6, is_default = $7, address_type = $8, updated_at = $9
		WHERE id = $10 AND user_id = $11`
	args := []any{
		a.AddressLine1,
		a.AddressLine2,
		a.City,
		a.State,
		a.PostalCode,
		a.Country,
		a.IsDefault,
		a.AddressType,
		a.UpdatedAt,
		a.ID,
		a.UserID,
	}

	if !resetOthers {
		ct, err := r.db.Exec(ctx, update, args...)
		if err != nil {
			return fmt.Errorf("update address: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return apperrors.NotFound("address", a.ID)
		}
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`UPDATE user_addresses SET is_default = false, updated_at = $3 WHERE user_id = $1 AND is_default = true AND id <> $2`,
		a.UserID, a.ID, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("clear default addresses: %w", err)
	}

	ct, err := tx.Exec(ctx, update, args...)
	if err != nil {
		return fmt.Errorf("update address: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("address", a.ID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Delete removes an address owned by the user.
func (r *AddressRepository) Delete(ctx context.Context, id, userID string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM user_addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("address", id)
	}

	return nil
}

// SetDefault marks the address as the user's default, clearing any previous
// default within one transaction.
func (r *AddressRepository) SetDefault(ctx context.Context, userID, addressID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()

	_, err = tx.Exec(ctx,
		`UPDATE user_addresses SET is_default = false, updated_at = $2 WHERE user_id = $1 AND is_default = true`,
		userID, now,
	)
	if err != nil {
		return fmt.Errorf("clear default addresses: %w", err)
	}

	ct, err := tx.Exec(ctx,
		`UPDATE user_addresses SET is_default = true, updated_at = $3 WHERE id = $1 AND user_id = $2`,
		addressID, userID, now,
	)
	if err != nil {
		return fmt.Errorf("set default address: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("address", addressID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// CountByUserID returns the number of addresses owned by the user.
func (r *AddressRepository) CountByUserID(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM user_addresses WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count addresses: %w", err)
	}
	return n, nil
}

// Count returns the total number of addresses across all users.
func (r *AddressRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM user_addresses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count addresses: %w", err)
	}
	return n, nil
}

// scanAddress executes a query expected to return a single address row.
func (r *AddressRepository) scanAddress(ctx context.Context, query string, args ...any) (*domain.Address, error) {
	var a domain.Address

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&a.ID,
		&a.UserID,
		&a.AddressLine1,
		&a.AddressLine2,
		&a.City,
		&a.State,
		&a.PostalCode,
		&a.Country,
		&a.IsDefault,
		&a.AddressType,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan address: %w", err)
	}

	return &a, nil
}
