package storage

import (
	"context"
	"fmt"
	"strconv"

	"go-bank-ledger/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const loanColumns = `id, borrower_id, account_id, loan_type, amount, interest_rate, term_months,
	monthly_payment, remaining_balance, status, approved_by, approved_at, created_at`

func scanLoan(row pgx.Row) (*model.Loan, error) {
	var l model.Loan
	err := row.Scan(&l.ID, &l.BorrowerID, &l.AccountID, &l.Type, &l.Amount, &l.InterestRate, &l.TermMonths,
		&l.MonthlyPayment, &l.RemainingBalance, &l.Status, &l.ApprovedBy, &l.ApprovedAt, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (q *txQueries) CreateLoan(ctx context.Context, l *model.Loan) error {
	query := `INSERT INTO loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := q.db.Exec(ctx, query, l.ID, l.BorrowerID, l.AccountID, l.Type, l.Amount, l.InterestRate, l.TermMonths,
		l.MonthlyPayment, l.RemainingBalance, l.Status, l.ApprovedBy, l.ApprovedAt, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("could not insert loan: %w", mapError(err))
	}
	return nil
}

func (q *queries) GetLoan(ctx context.Context, id uuid.UUID) (*model.Loan, error) {
	l, err := scanLoan(q.db.QueryRow(ctx, "SELECT "+loanColumns+" FROM loans WHERE id = $1", id))
	if err != nil {
		return nil, notFound(err, model.ErrLoanNotFound)
	}
	return l, nil
}

// LockLoan reads a loan and holds its row lock until the transaction ends.
func (q *txQueries) LockLoan(ctx context.Context, id uuid.UUID) (*model.Loan, error) {
	l, err := scanLoan(q.db.QueryRow(ctx, "SELECT "+loanColumns+" FROM loans WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		return nil, notFound(err, model.ErrLoanNotFound)
	}
	return l, nil
}

func (q *txQueries) UpdateLoan(ctx context.Context, l *model.Loan) error {
	query := `
		UPDATE loans SET term_months = $2, remaining_balance = $3, status = $4,
			approved_by = $5, approved_at = $6
		WHERE id = $1`
	tag, err := q.db.Exec(ctx, query, l.ID, l.TermMonths, l.RemainingBalance, l.Status, l.ApprovedBy, l.ApprovedAt)
	if err != nil {
		return fmt.Errorf("could not update loan: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return model.ErrLoanNotFound
	}
	return nil
}

// ListLoans returns loans matching filter, newest first.
func (q *queries) ListLoans(ctx context.Context, filter model.LoanFilter) ([]model.Loan, error) {
	query := "SELECT " + loanColumns + " FROM loans WHERE TRUE"
	var args []any
	if filter.BorrowerID != uuid.Nil {
		args = append(args, filter.BorrowerID)
		query += " AND borrower_id = $" + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += " AND status = $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var loans []model.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan loan row: %w", err)
		}
		loans = append(loans, *l)
	}
	return loans, mapError(rows.Err())
}
