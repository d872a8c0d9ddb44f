package storage

import (
	"context"
	"fmt"
	"sort"

	"go-bank-ledger/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const accountColumns = "id, account_number, owner_id, currency, account_type, balance, created_at"

func scanAccount(row pgx.Row) (*model.Account, error) {
	var acc model.Account
	err := row.Scan(&acc.ID, &acc.Number, &acc.OwnerID, &acc.Currency, &acc.Type, &acc.Balance, &acc.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// CreateAccount inserts a new account. A clashing account number yields
// model.ErrDuplicateAccount.
func (q *txQueries) CreateAccount(ctx context.Context, acc *model.Account) error {
	query := `
		INSERT INTO accounts (id, account_number, owner_id, currency, account_type, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := q.db.Exec(ctx, query, acc.ID, acc.Number, acc.OwnerID, acc.Currency, acc.Type, acc.Balance, acc.CreatedAt)
	return mapError(err)
}

// GetAccount retrieves a single account by its ID.
func (q *queries) GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	row := q.db.QueryRow(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id = $1", id)
	acc, err := scanAccount(row)
	if err != nil {
		return nil, notFound(err, model.ErrAccountNotFound)
	}
	return acc, nil
}

// GetAccountByNumber retrieves a single account by its account number.
func (q *queries) GetAccountByNumber(ctx context.Context, number string) (*model.Account, error) {
	row := q.db.QueryRow(ctx, "SELECT "+accountColumns+" FROM accounts WHERE account_number = $1", number)
	acc, err := scanAccount(row)
	if err != nil {
		return nil, notFound(err, model.ErrAccountNotFound)
	}
	return acc, nil
}

func (q *queries) AccountNumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM accounts WHERE account_number = $1)", number).Scan(&exists)
	return exists, mapError(err)
}

// ListAccounts returns the accounts of an owner, oldest first.
func (q *queries) ListAccounts(ctx context.Context, ownerID uuid.UUID) ([]model.Account, error) {
	rows, err := q.db.Query(ctx, "SELECT "+accountColumns+" FROM accounts WHERE owner_id = $1 ORDER BY created_at, id", ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan account row: %w", err)
		}
		accounts = append(accounts, *acc)
	}
	return accounts, mapError(rows.Err())
}

// LockAccounts locks the rows in a consistent order (by ID) to prevent deadlocks.
func (q *txQueries) LockAccounts(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*model.Account, error) {
	wanted := make([]string, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			wanted = append(wanted, id.String())
		}
	}
	sort.Strings(wanted)

	query := `
		SELECT ` + accountColumns + ` FROM accounts
		WHERE id = ANY($1::uuid[])
		ORDER BY id FOR UPDATE`
	rows, err := q.db.Query(ctx, query, wanted)
	if err != nil {
		return nil, fmt.Errorf("could not query accounts for update: %w", mapError(err))
	}
	defer rows.Close()

	locked := make(map[uuid.UUID]*model.Account, len(wanted))
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan account row: %w", err)
		}
		locked[acc.ID] = acc
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	for id := range seen {
		if _, ok := locked[id]; !ok {
			return nil, fmt.Errorf("%w: %s", model.ErrAccountNotFound, id)
		}
	}
	return locked, nil
}

func (q *txQueries) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	tag, err := q.db.Exec(ctx, "UPDATE accounts SET balance = $1 WHERE id = $2", balance, id)
	if err != nil {
		return fmt.Errorf("could not update balance: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAccountNotFound
	}
	return nil
}

// AppendTransactions writes ledger entries. Entries are append-only.
func (q *txQueries) AppendTransactions(ctx context.Context, txs ...*model.Transaction) error {
	query := `
		INSERT INTO transactions (id, account_id, transaction_type, amount, currency, description,
			recipient_account, correlation_id, is_suspicious, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for _, t := range txs {
		_, err := q.db.Exec(ctx, query, t.ID, t.AccountID, t.Type, t.Amount, t.Currency, t.Description,
			t.Counterparty, t.CorrelationID, t.Suspicious, t.CreatedAt)
		if err != nil {
			return fmt.Errorf("could not append transaction: %w", mapError(err))
		}
	}
	return nil
}

// ListTransactions returns the newest entries of an account first.
func (q *queries) ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]model.Transaction, error) {
	query := `
		SELECT id, account_id, transaction_type, amount, currency, description,
			recipient_account, correlation_id, is_suspicious, created_at
		FROM transactions WHERE account_id = $1
		ORDER BY created_at DESC, id LIMIT $2`
	rows, err := q.db.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Type, &t.Amount, &t.Currency, &t.Description,
			&t.Counterparty, &t.CorrelationID, &t.Suspicious, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("could not scan transaction row: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, mapError(rows.Err())
}

// Treasury returns the institution's account reference.
func (q *queries) Treasury(ctx context.Context) (*model.Treasury, error) {
	query := `
		SELECT a.id, a.account_number, a.currency
		FROM treasury t JOIN accounts a ON a.id = t.account_id`
	var t model.Treasury
	if err := q.db.QueryRow(ctx, query).Scan(&t.AccountID, &t.AccountNumber, &t.Currency); err != nil {
		return nil, notFound(err, model.ErrTreasuryMissing)
	}
	return &t, nil
}

func (q *txQueries) SetTreasury(ctx context.Context, t model.Treasury) error {
	query := `
		INSERT INTO treasury (singleton, account_id) VALUES (TRUE, $1)
		ON CONFLICT (singleton) DO UPDATE SET account_id = EXCLUDED.account_id`
	_, err := q.db.Exec(ctx, query, t.AccountID)
	return mapError(err)
}

// Stats aggregates counts for the worker panel in one round trip.
func (q *queries) Stats(ctx context.Context) (*model.Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM accounts),
			(SELECT COUNT(*) FROM cards),
			(SELECT COUNT(*) FROM loans),
			(SELECT COUNT(*) FROM loans WHERE status = 'pending'),
			(SELECT COUNT(*) FROM investments),
			(SELECT COUNT(*) FROM crypto_wallet),
			(SELECT COALESCE(SUM(a.balance), 0) FROM accounts a
				WHERE NOT EXISTS (SELECT 1 FROM treasury t WHERE t.account_id = a.id))`
	var st model.Stats
	err := q.db.QueryRow(ctx, query).Scan(&st.Accounts, &st.Cards, &st.Loans, &st.PendingLoans,
		&st.Investments, &st.CryptoHoldings, &st.TotalBalance)
	if err != nil {
		return nil, mapError(err)
	}
	return &st, nil
}
