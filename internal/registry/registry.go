package registry

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mkarev/nftmarket/internal/model"
)

var (
	// ErrNoSuchToken is returned when the token id was never minted.
	ErrNoSuchToken = errors.New("no such token")

	// ErrNotHolder is returned when a transfer names a sender that is not
	// the current custodian.
	ErrNotHolder = errors.New("sender does not hold token")

	// ErrNotApproved is returned when a third-party transfer lacks a prior
	// approval for the token.
	ErrNotApproved = errors.New("spender not approved for token")
)

// Registry is the asset registry contract consumed by the marketplace.
type Registry interface {
	// Mint creates a new token owned by owner with an immutable metadata
	// URI and returns its id. IDs are monotonic from 0.
	Mint(owner uuid.UUID, uri string) (model.TokenID, error)

	// OwnerOf returns the current custodian of the token.
	OwnerOf(id model.TokenID) (uuid.UUID, error)

	// TokenURI returns the metadata URI set at mint time.
	TokenURI(id model.TokenID) (string, error)

	// Approve lets owner authorize spender to move the token once.
	Approve(owner, spender uuid.UUID, id model.TokenID) error

	// Transfer moves the token from its current holder. Fails with
	// ErrNotHolder if from is not the custodian.
	Transfer(from, to uuid.UUID, id model.TokenID) error

	// TransferFrom moves the token on behalf of spender. When spender is
	// not the holder, a prior Approve for the token is required.
	TransferFrom(spender, from, to uuid.UUID, id model.TokenID) error
}

// InMemory is a mutex-guarded in-process Registry.
type InMemory struct {
	mu       sync.RWMutex
	next     model.TokenID
	holders  map[model.TokenID]uuid.UUID
	uris     map[model.TokenID]string
	approved map[model.TokenID]uuid.UUID
	logger   *slog.Logger
}

// NewInMemory creates an empty registry.
func NewInMemory(logger *slog.Logger) *InMemory {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemory{
		holders:  make(map[model.TokenID]uuid.UUID),
		uris:     make(map[model.TokenID]string),
		approved: make(map[model.TokenID]uuid.UUID),
		logger:   logger,
	}
}

// Mint creates a new token owned by owner.
func (r *InMemory) Mint(owner uuid.UUID, uri string) (model.TokenID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.next
	r.next++
	r.holders[id] = owner
	r.uris[id] = uri

	r.logger.Debug("token minted", "token_id", id, "owner", owner)
	return id, nil
}

// OwnerOf returns the current custodian.
func (r *InMemory) OwnerOf(id model.TokenID) (uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	holder, ok := r.holders[id]
	if !ok {
		return uuid.Nil, ErrNoSuchToken
	}
	return holder, nil
}

// TokenURI returns the metadata URI.
func (r *InMemory) TokenURI(id model.TokenID) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	uri, ok := r.uris[id]
	if !ok {
		return "", ErrNoSuchToken
	}
	return uri, nil
}

// Approve authorizes spender to move the token.
func (r *InMemory) Approve(owner, spender uuid.UUID, id model.TokenID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	holder, ok := r.holders[id]
	if !ok {
		return ErrNoSuchToken
	}
	if holder != owner {
		return ErrNotHolder
	}
	r.approved[id] = spender
	return nil
}

// Transfer moves the token from its current holder.
func (r *InMemory) Transfer(from, to uuid.UUID, id model.TokenID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transferLocked(from, to, id)
}

// TransferFrom moves the token on behalf of spender.
func (r *InMemory) TransferFrom(spender, from, to uuid.UUID, id model.TokenID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if spender != from && r.approved[id] != spender {
		return ErrNotApproved
	}
	return r.transferLocked(from, to, id)
}

// transferLocked performs the custody change. Caller holds the lock.
func (r *InMemory) transferLocked(from, to uuid.UUID, id model.TokenID) error {
	holder, ok := r.holders[id]
	if !ok {
		return ErrNoSuchToken
	}
	if holder != from {
		return ErrNotHolder
	}

	r.holders[id] = to
	delete(r.approved, id) // approvals do not survive a transfer

	r.logger.Debug("token transferred", "token_id", id, "from", from, "to", to)
	return nil
}
