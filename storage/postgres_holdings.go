package storage

import (
	"context"
	"fmt"

	"go-bank-ledger/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const investmentColumns = `id, owner_id, investment_type, name, quantity, average_price,
	amount_invested, current_value, interest_rate, purchase_date`

func scanInvestment(row pgx.Row) (*model.Investment, error) {
	var inv model.Investment
	err := row.Scan(&inv.ID, &inv.OwnerID, &inv.Type, &inv.Name, &inv.Quantity, &inv.AveragePrice,
		&inv.AmountInvested, &inv.CurrentValue, &inv.InterestRate, &inv.PurchasedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (q *queries) GetInvestment(ctx context.Context, id uuid.UUID) (*model.Investment, error) {
	inv, err := scanInvestment(q.db.QueryRow(ctx, "SELECT "+investmentColumns+" FROM investments WHERE id = $1", id))
	if err != nil {
		return nil, notFound(err, model.ErrHoldingNotFound)
	}
	return inv, nil
}

func (q *txQueries) LockInvestment(ctx context.Context, id uuid.UUID) (*model.Investment, error) {
	inv, err := scanInvestment(q.db.QueryRow(ctx, "SELECT "+investmentColumns+" FROM investments WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		return nil, notFound(err, model.ErrHoldingNotFound)
	}
	return inv, nil
}

func (q *txQueries) LockInvestmentByName(ctx context.Context, ownerID uuid.UUID, name string) (*model.Investment, error) {
	query := "SELECT " + investmentColumns + " FROM investments WHERE owner_id = $1 AND name = $2 FOR UPDATE"
	inv, err := scanInvestment(q.db.QueryRow(ctx, query, ownerID, name))
	if err != nil {
		return nil, notFound(err, model.ErrHoldingNotFound)
	}
	return inv, nil
}

// SaveInvestment inserts the position or replaces it in place.
func (q *txQueries) SaveInvestment(ctx context.Context, inv *model.Investment) error {
	query := `
		INSERT INTO investments (` + investmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			average_price = EXCLUDED.average_price,
			amount_invested = EXCLUDED.amount_invested,
			current_value = EXCLUDED.current_value,
			interest_rate = EXCLUDED.interest_rate`
	_, err := q.db.Exec(ctx, query, inv.ID, inv.OwnerID, inv.Type, inv.Name, inv.Quantity, inv.AveragePrice,
		inv.AmountInvested, inv.CurrentValue, inv.InterestRate, inv.PurchasedAt)
	if err != nil {
		return fmt.Errorf("could not save investment: %w", mapError(err))
	}
	return nil
}

func (q *txQueries) DeleteInvestment(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, "DELETE FROM investments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("could not delete investment: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return model.ErrHoldingNotFound
	}
	return nil
}

func (q *queries) ListInvestments(ctx context.Context, ownerID uuid.UUID) ([]model.Investment, error) {
	rows, err := q.db.Query(ctx, "SELECT "+investmentColumns+" FROM investments WHERE owner_id = $1 ORDER BY purchase_date, id", ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []model.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan investment row: %w", err)
		}
		out = append(out, *inv)
	}
	return out, mapError(rows.Err())
}

const cryptoColumns = "id, owner_id, symbol, name, amount, average_buy_price, updated_at"

func scanCrypto(row pgx.Row) (*model.CryptoHolding, error) {
	var h model.CryptoHolding
	if err := row.Scan(&h.ID, &h.OwnerID, &h.Symbol, &h.Name, &h.Amount, &h.AveragePrice, &h.UpdatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}

func (q *queries) GetCryptoHolding(ctx context.Context, ownerID uuid.UUID, symbol string) (*model.CryptoHolding, error) {
	query := "SELECT " + cryptoColumns + " FROM crypto_wallet WHERE owner_id = $1 AND symbol = $2"
	h, err := scanCrypto(q.db.QueryRow(ctx, query, ownerID, symbol))
	if err != nil {
		return nil, notFound(err, model.ErrHoldingNotFound)
	}
	return h, nil
}

func (q *txQueries) LockCryptoHolding(ctx context.Context, ownerID uuid.UUID, symbol string) (*model.CryptoHolding, error) {
	query := "SELECT " + cryptoColumns + " FROM crypto_wallet WHERE owner_id = $1 AND symbol = $2 FOR UPDATE"
	h, err := scanCrypto(q.db.QueryRow(ctx, query, ownerID, symbol))
	if err != nil {
		return nil, notFound(err, model.ErrHoldingNotFound)
	}
	return h, nil
}

// SaveCryptoHolding upserts a wallet entry on (owner, symbol).
func (q *txQueries) SaveCryptoHolding(ctx context.Context, h *model.CryptoHolding) error {
	query := `
		INSERT INTO crypto_wallet (` + cryptoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (owner_id, symbol) DO UPDATE SET
			amount = EXCLUDED.amount,
			average_buy_price = EXCLUDED.average_buy_price,
			updated_at = EXCLUDED.updated_at`
	_, err := q.db.Exec(ctx, query, h.ID, h.OwnerID, h.Symbol, h.Name, h.Amount, h.AveragePrice, h.UpdatedAt)
	if err != nil {
		return fmt.Errorf("could not save crypto holding: %w", mapError(err))
	}
	return nil
}

func (q *txQueries) DeleteCryptoHolding(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, "DELETE FROM crypto_wallet WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("could not delete crypto holding: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return model.ErrHoldingNotFound
	}
	return nil
}

func (q *queries) ListCryptoHoldings(ctx context.Context, ownerID uuid.UUID) ([]model.CryptoHolding, error) {
	rows, err := q.db.Query(ctx, "SELECT "+cryptoColumns+" FROM crypto_wallet WHERE owner_id = $1 ORDER BY symbol", ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []model.CryptoHolding
	for rows.Next() {
		h, err := scanCrypto(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan crypto row: %w", err)
		}
		out = append(out, *h)
	}
	return out, mapError(rows.Err())
}
