package storage

import (
	"context"
	"fmt"

	"go-bank-ledger/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const cardColumns = `c.id, c.account_id, c.card_number, c.card_type, c.cvv, c.expiry_date, c.credit_limit,
	c.current_debt, c.points_multiplier, c.is_active, c.expires_at, c.created_at`

func scanCard(row pgx.Row) (*model.Card, error) {
	var c model.Card
	err := row.Scan(&c.ID, &c.AccountID, &c.Number, &c.Type, &c.CVV, &c.ExpiryDate, &c.CreditLimit,
		&c.CurrentDebt, &c.PointsMultiplier, &c.Active, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (q *txQueries) CreateCard(ctx context.Context, c *model.Card) error {
	query := `
		INSERT INTO cards (id, account_id, card_number, card_type, cvv, expiry_date, credit_limit,
			current_debt, points_multiplier, is_active, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := q.db.Exec(ctx, query, c.ID, c.AccountID, c.Number, c.Type, c.CVV, c.ExpiryDate, c.CreditLimit,
		c.CurrentDebt, c.PointsMultiplier, c.Active, c.ExpiresAt, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("could not insert card: %w", mapError(err))
	}
	return nil
}

func (q *txQueries) UpdateCard(ctx context.Context, c *model.Card) error {
	tag, err := q.db.Exec(ctx, "UPDATE cards SET is_active = $2, current_debt = $3 WHERE id = $1", c.ID, c.Active, c.CurrentDebt)
	if err != nil {
		return fmt.Errorf("could not update card: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCardNotFound
	}
	return nil
}

func (q *queries) GetCard(ctx context.Context, id uuid.UUID) (*model.Card, error) {
	c, err := scanCard(q.db.QueryRow(ctx, "SELECT "+cardColumns+" FROM cards c WHERE c.id = $1", id))
	if err != nil {
		return nil, notFound(err, model.ErrCardNotFound)
	}
	return c, nil
}

// ListCards returns the cards on every account of an owner.
func (q *queries) ListCards(ctx context.Context, ownerID uuid.UUID) ([]model.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards c JOIN accounts a ON a.id = c.account_id
		WHERE a.owner_id = $1
		ORDER BY c.created_at, c.id`
	rows, err := q.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var cards []model.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan card row: %w", err)
		}
		cards = append(cards, *c)
	}
	return cards, mapError(rows.Err())
}
