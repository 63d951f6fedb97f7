package ledger

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrInsufficientFunds is returned when the sender's balance does not
	// cover the amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNotApproved is returned when a third-party transfer exceeds the
	// spender's allowance.
	ErrNotApproved = errors.New("allowance does not cover amount")

	// ErrNegativeAmount is returned for transfers or approvals of a
	// negative amount.
	ErrNegativeAmount = errors.New("negative amount")
)

// Ledger is the payment ledger contract consumed by the marketplace.
// A zero-amount transfer is valid and still counts as a transfer.
type Ledger interface {
	// Mint credits freshly issued units to an account.
	Mint(to uuid.UUID, amount int64) error

	// BalanceOf returns the account balance.
	BalanceOf(acct uuid.UUID) int64

	// Allowance returns how much spender may move out of owner's balance.
	Allowance(owner, spender uuid.UUID) int64

	// Approve sets spender's allowance over owner's balance.
	Approve(owner, spender uuid.UUID, amount int64) error

	// Transfer moves amount from one account to another.
	Transfer(from, to uuid.UUID, amount int64) error

	// TransferFrom moves amount on behalf of spender, consuming allowance
	// when spender is not the sender.
	TransferFrom(spender, from, to uuid.UUID, amount int64) error
}

// InMemory is a mutex-guarded in-process Ledger.
type InMemory struct {
	mu         sync.RWMutex
	balances   map[uuid.UUID]int64
	allowances map[allowanceKey]int64
	logger     *slog.Logger
}

type allowanceKey struct {
	owner   uuid.UUID
	spender uuid.UUID
}

// NewInMemory creates an empty ledger.
func NewInMemory(logger *slog.Logger) *InMemory {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemory{
		balances:   make(map[uuid.UUID]int64),
		allowances: make(map[allowanceKey]int64),
		logger:     logger,
	}
}

// Mint credits freshly issued units to an account.
func (l *InMemory) Mint(to uuid.UUID, amount int64) error {
	if amount < 0 {
		return ErrNegativeAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.balances[to] += amount
	return nil
}

// BalanceOf returns the account balance.
func (l *InMemory) BalanceOf(acct uuid.UUID) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[acct]
}

// Allowance returns spender's remaining allowance over owner's balance.
func (l *InMemory) Allowance(owner, spender uuid.UUID) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.allowances[allowanceKey{owner, spender}]
}

// Approve sets spender's allowance over owner's balance.
func (l *InMemory) Approve(owner, spender uuid.UUID, amount int64) error {
	if amount < 0 {
		return ErrNegativeAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.allowances[allowanceKey{owner, spender}] = amount
	return nil
}

// Transfer moves amount between accounts.
func (l *InMemory) Transfer(from, to uuid.UUID, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transferLocked(from, to, amount)
}

// TransferFrom moves amount on behalf of spender. When spender is not the
// sender the allowance is checked and consumed.
func (l *InMemory) TransferFrom(spender, from, to uuid.UUID, amount int64) error {
	if amount < 0 {
		return ErrNegativeAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if spender != from {
		key := allowanceKey{from, spender}
		if l.allowances[key] < amount {
			return ErrNotApproved
		}
		if err := l.transferLocked(from, to, amount); err != nil {
			return err
		}
		l.allowances[key] -= amount
		return nil
	}
	return l.transferLocked(from, to, amount)
}

// transferLocked performs the balance move. Caller holds the lock.
func (l *InMemory) transferLocked(from, to uuid.UUID, amount int64) error {
	if amount < 0 {
		return ErrNegativeAmount
	}
	if l.balances[from] < amount {
		return ErrInsufficientFunds
	}

	l.balances[from] -= amount
	l.balances[to] += amount

	l.logger.Debug("payment transferred", "from", from, "to", to, "amount", amount)
	return nil
}
