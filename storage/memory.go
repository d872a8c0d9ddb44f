package storage

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"go-bank-ledger/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryStore implements Store in process memory. Transactions run one at a time
// against a fork of the state, which replaces the shared state on commit. A fork
// copies a map only when the transaction first writes to it, and the
// transaction log is only ever appended to.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memState
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState()}
}

// Close is a no-op.
func (s *MemoryStore) Close() {}

// ExecTx runs fn with exclusive access to a copy of the state.
func (s *MemoryStore) ExecTx(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.fork()
	if err := fn(&memTx{memState: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	s.state = work
	return nil
}

func (s *MemoryStore) view() *memState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Committed states are never mutated, so readers may use a snapshot after
// releasing the lock.

func (s *MemoryStore) GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	return s.view().GetAccount(ctx, id)
}

func (s *MemoryStore) GetAccountByNumber(ctx context.Context, number string) (*model.Account, error) {
	return s.view().GetAccountByNumber(ctx, number)
}

func (s *MemoryStore) AccountNumberExists(ctx context.Context, number string) (bool, error) {
	return s.view().AccountNumberExists(ctx, number)
}

func (s *MemoryStore) ListAccounts(ctx context.Context, ownerID uuid.UUID) ([]model.Account, error) {
	return s.view().ListAccounts(ctx, ownerID)
}

func (s *MemoryStore) ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]model.Transaction, error) {
	return s.view().ListTransactions(ctx, accountID, limit)
}

func (s *MemoryStore) Treasury(ctx context.Context) (*model.Treasury, error) {
	return s.view().Treasury(ctx)
}

func (s *MemoryStore) GetLoan(ctx context.Context, id uuid.UUID) (*model.Loan, error) {
	return s.view().GetLoan(ctx, id)
}

func (s *MemoryStore) ListLoans(ctx context.Context, filter model.LoanFilter) ([]model.Loan, error) {
	return s.view().ListLoans(ctx, filter)
}

func (s *MemoryStore) GetInvestment(ctx context.Context, id uuid.UUID) (*model.Investment, error) {
	return s.view().GetInvestment(ctx, id)
}

func (s *MemoryStore) ListInvestments(ctx context.Context, ownerID uuid.UUID) ([]model.Investment, error) {
	return s.view().ListInvestments(ctx, ownerID)
}

func (s *MemoryStore) GetCryptoHolding(ctx context.Context, ownerID uuid.UUID, symbol string) (*model.CryptoHolding, error) {
	return s.view().GetCryptoHolding(ctx, ownerID, symbol)
}

func (s *MemoryStore) ListCryptoHoldings(ctx context.Context, ownerID uuid.UUID) ([]model.CryptoHolding, error) {
	return s.view().ListCryptoHoldings(ctx, ownerID)
}

func (s *MemoryStore) GetCard(ctx context.Context, id uuid.UUID) (*model.Card, error) {
	return s.view().GetCard(ctx, id)
}

func (s *MemoryStore) ListCards(ctx context.Context, ownerID uuid.UUID) ([]model.Card, error) {
	return s.view().ListCards(ctx, ownerID)
}

func (s *MemoryStore) Stats(ctx context.Context) (*model.Stats, error) {
	return s.view().Stats(ctx)
}

type memState struct {
	accounts     map[uuid.UUID]model.Account
	numbers      map[string]uuid.UUID
	treasury     uuid.UUID
	transactions []model.Transaction
	loans        map[uuid.UUID]model.Loan
	investments  map[uuid.UUID]model.Investment
	crypto       map[uuid.UUID]model.CryptoHolding
	cards        map[uuid.UUID]model.Card
}

func newMemState() *memState {
	return &memState{
		accounts:    map[uuid.UUID]model.Account{},
		numbers:     map[string]uuid.UUID{},
		loans:       map[uuid.UUID]model.Loan{},
		investments: map[uuid.UUID]model.Investment{},
		crypto:      map[uuid.UUID]model.CryptoHolding{},
		cards:       map[uuid.UUID]model.Card{},
	}
}

// fork returns a shallow copy sharing every map and the log with m. Appends to
// the fork's log land past m's length, so m never sees them.
func (m *memState) fork() *memState {
	c := *m
	return &c
}

func (m *memState) GetAccount(_ context.Context, id uuid.UUID) (*model.Account, error) {
	acc, ok := m.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return &acc, nil
}

func (m *memState) GetAccountByNumber(ctx context.Context, number string) (*model.Account, error) {
	id, ok := m.numbers[number]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return m.GetAccount(ctx, id)
}

func (m *memState) AccountNumberExists(_ context.Context, number string) (bool, error) {
	_, ok := m.numbers[number]
	return ok, nil
}

func (m *memState) ListAccounts(_ context.Context, ownerID uuid.UUID) ([]model.Account, error) {
	var out []model.Account
	for _, acc := range m.accounts {
		if acc.OwnerID == ownerID {
			out = append(out, acc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (m *memState) ListTransactions(_ context.Context, accountID uuid.UUID, limit int) ([]model.Transaction, error) {
	var out []model.Transaction
	for i := len(m.transactions) - 1; i >= 0 && len(out) < limit; i-- {
		if m.transactions[i].AccountID == accountID {
			out = append(out, m.transactions[i])
		}
	}
	return out, nil
}

func (m *memState) Treasury(_ context.Context) (*model.Treasury, error) {
	acc, ok := m.accounts[m.treasury]
	if !ok {
		return nil, model.ErrTreasuryMissing
	}
	return &model.Treasury{AccountID: acc.ID, AccountNumber: acc.Number, Currency: acc.Currency}, nil
}

func (m *memState) GetLoan(_ context.Context, id uuid.UUID) (*model.Loan, error) {
	l, ok := m.loans[id]
	if !ok {
		return nil, model.ErrLoanNotFound
	}
	return &l, nil
}

func (m *memState) ListLoans(_ context.Context, filter model.LoanFilter) ([]model.Loan, error) {
	var out []model.Loan
	for _, l := range m.loans {
		if filter.BorrowerID != uuid.Nil && l.BorrowerID != filter.BorrowerID {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (m *memState) GetInvestment(_ context.Context, id uuid.UUID) (*model.Investment, error) {
	inv, ok := m.investments[id]
	if !ok {
		return nil, model.ErrHoldingNotFound
	}
	return &inv, nil
}

func (m *memState) ListInvestments(_ context.Context, ownerID uuid.UUID) ([]model.Investment, error) {
	var out []model.Investment
	for _, inv := range m.investments {
		if inv.OwnerID == ownerID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PurchasedAt.Equal(out[j].PurchasedAt) {
			return out[i].PurchasedAt.Before(out[j].PurchasedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (m *memState) GetCryptoHolding(_ context.Context, ownerID uuid.UUID, symbol string) (*model.CryptoHolding, error) {
	for _, h := range m.crypto {
		if h.OwnerID == ownerID && h.Symbol == symbol {
			return &h, nil
		}
	}
	return nil, model.ErrHoldingNotFound
}

func (m *memState) ListCryptoHoldings(_ context.Context, ownerID uuid.UUID) ([]model.CryptoHolding, error) {
	var out []model.CryptoHolding
	for _, h := range m.crypto {
		if h.OwnerID == ownerID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (m *memState) GetCard(_ context.Context, id uuid.UUID) (*model.Card, error) {
	c, ok := m.cards[id]
	if !ok {
		return nil, model.ErrCardNotFound
	}
	return &c, nil
}

func (m *memState) ListCards(_ context.Context, ownerID uuid.UUID) ([]model.Card, error) {
	var out []model.Card
	for _, c := range m.cards {
		if acc, ok := m.accounts[c.AccountID]; ok && acc.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (m *memState) Stats(_ context.Context) (*model.Stats, error) {
	st := &model.Stats{
		Accounts:       int64(len(m.accounts)),
		Cards:          int64(len(m.cards)),
		Loans:          int64(len(m.loans)),
		Investments:    int64(len(m.investments)),
		CryptoHoldings: int64(len(m.crypto)),
		TotalBalance:   decimal.Zero,
	}
	for _, l := range m.loans {
		if l.Status == model.LoanPending {
			st.PendingLoans++
		}
	}
	for id, acc := range m.accounts {
		if id != m.treasury {
			st.TotalBalance = st.TotalBalance.Add(acc.Balance)
		}
	}
	return st, nil
}

// memTx is the write side, bound to a fork of the state.
type memTx struct {
	*memState
	owned uint8
}

const (
	ownAccounts uint8 = 1 << iota
	ownLoans
	ownInvestments
	ownCrypto
	ownCards
)

// own gives the transaction private copies of the maps named by flags before
// it writes to them.
func (t *memTx) own(flags uint8) {
	todo := flags &^ t.owned
	if todo&ownAccounts != 0 {
		t.accounts = maps.Clone(t.accounts)
		t.numbers = maps.Clone(t.numbers)
	}
	if todo&ownLoans != 0 {
		t.loans = maps.Clone(t.loans)
	}
	if todo&ownInvestments != 0 {
		t.investments = maps.Clone(t.investments)
	}
	if todo&ownCrypto != 0 {
		t.crypto = maps.Clone(t.crypto)
	}
	if todo&ownCards != 0 {
		t.cards = maps.Clone(t.cards)
	}
	t.owned |= todo
}

func (t *memTx) CreateAccount(_ context.Context, acc *model.Account) error {
	if _, ok := t.numbers[acc.Number]; ok {
		return fmt.Errorf("%w: %s", model.ErrDuplicateAccount, acc.Number)
	}
	if _, ok := t.accounts[acc.ID]; ok {
		return fmt.Errorf("%w: duplicate account id %s", model.ErrPersistenceConflict, acc.ID)
	}
	t.own(ownAccounts)
	t.accounts[acc.ID] = *acc
	t.numbers[acc.Number] = acc.ID
	return nil
}

func (t *memTx) LockAccounts(_ context.Context, ids ...uuid.UUID) (map[uuid.UUID]*model.Account, error) {
	locked := make(map[uuid.UUID]*model.Account, len(ids))
	for _, id := range ids {
		acc, ok := t.accounts[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", model.ErrAccountNotFound, id)
		}
		locked[id] = &acc
	}
	return locked, nil
}

func (t *memTx) UpdateBalance(_ context.Context, id uuid.UUID, balance decimal.Decimal) error {
	acc, ok := t.accounts[id]
	if !ok {
		return model.ErrAccountNotFound
	}
	if balance.IsNegative() {
		return fmt.Errorf("%w: balance of %s would be %s", model.ErrInvalidAmount, id, balance)
	}
	acc.Balance = balance
	t.own(ownAccounts)
	t.accounts[id] = acc
	return nil
}

func (t *memTx) AppendTransactions(_ context.Context, txs ...*model.Transaction) error {
	for _, tx := range txs {
		if _, ok := t.accounts[tx.AccountID]; !ok {
			return fmt.Errorf("could not append transaction: %w", model.ErrAccountNotFound)
		}
		t.transactions = append(t.transactions, *tx)
	}
	return nil
}

func (t *memTx) SetTreasury(_ context.Context, tr model.Treasury) error {
	if _, ok := t.accounts[tr.AccountID]; !ok {
		return model.ErrAccountNotFound
	}
	t.treasury = tr.AccountID
	return nil
}

func (t *memTx) CreateLoan(_ context.Context, l *model.Loan) error {
	t.own(ownLoans)
	t.loans[l.ID] = *l
	return nil
}

func (t *memTx) LockLoan(ctx context.Context, id uuid.UUID) (*model.Loan, error) {
	return t.GetLoan(ctx, id)
}

func (t *memTx) UpdateLoan(_ context.Context, l *model.Loan) error {
	if _, ok := t.loans[l.ID]; !ok {
		return model.ErrLoanNotFound
	}
	t.own(ownLoans)
	t.loans[l.ID] = *l
	return nil
}

func (t *memTx) LockInvestment(ctx context.Context, id uuid.UUID) (*model.Investment, error) {
	return t.GetInvestment(ctx, id)
}

func (t *memTx) LockInvestmentByName(_ context.Context, ownerID uuid.UUID, name string) (*model.Investment, error) {
	for _, inv := range t.investments {
		if inv.OwnerID == ownerID && inv.Name == name {
			return &inv, nil
		}
	}
	return nil, model.ErrHoldingNotFound
}

func (t *memTx) SaveInvestment(_ context.Context, inv *model.Investment) error {
	t.own(ownInvestments)
	t.investments[inv.ID] = *inv
	return nil
}

func (t *memTx) DeleteInvestment(_ context.Context, id uuid.UUID) error {
	if _, ok := t.investments[id]; !ok {
		return model.ErrHoldingNotFound
	}
	t.own(ownInvestments)
	delete(t.investments, id)
	return nil
}

func (t *memTx) LockCryptoHolding(ctx context.Context, ownerID uuid.UUID, symbol string) (*model.CryptoHolding, error) {
	return t.GetCryptoHolding(ctx, ownerID, symbol)
}

func (t *memTx) SaveCryptoHolding(_ context.Context, h *model.CryptoHolding) error {
	t.own(ownCrypto)
	for id, existing := range t.crypto {
		if existing.OwnerID == h.OwnerID && existing.Symbol == h.Symbol && id != h.ID {
			existing.Amount = h.Amount
			existing.AveragePrice = h.AveragePrice
			existing.UpdatedAt = h.UpdatedAt
			t.crypto[id] = existing
			return nil
		}
	}
	t.crypto[h.ID] = *h
	return nil
}

func (t *memTx) DeleteCryptoHolding(_ context.Context, id uuid.UUID) error {
	if _, ok := t.crypto[id]; !ok {
		return model.ErrHoldingNotFound
	}
	t.own(ownCrypto)
	delete(t.crypto, id)
	return nil
}

func (t *memTx) CreateCard(_ context.Context, c *model.Card) error {
	if _, ok := t.accounts[c.AccountID]; !ok {
		return model.ErrAccountNotFound
	}
	for _, existing := range t.cards {
		if existing.Number == c.Number {
			return fmt.Errorf("%w: duplicate card number", model.ErrPersistenceConflict)
		}
	}
	t.own(ownCards)
	t.cards[c.ID] = *c
	return nil
}

func (t *memTx) UpdateCard(_ context.Context, c *model.Card) error {
	if _, ok := t.cards[c.ID]; !ok {
		return model.ErrCardNotFound
	}
	t.own(ownCards)
	t.cards[c.ID] = *c
	return nil
}
