// Package memory implements the storage interfaces in process memory. It backs
// local development and the engine tests.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/chris/trade-sphere/pkg/models"
	"github.com/chris/trade-sphere/pkg/storage"
	"github.com/google/uuid"
)

// Store keeps all state behind a single mutex. Every write validates first and
// mutates last, so a failed call leaves nothing behind.
type Store struct {
	mu      sync.RWMutex
	nextID  uint64
	trades  map[uint64]*models.Trade
	tokens  map[string]models.SupportedToken
	wallets map[string]*models.Wallet
	ledger  []models.LedgerEntry
	now     func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		trades:  make(map[uint64]*models.Trade),
		tokens:  make(map[string]models.SupportedToken),
		wallets: make(map[string]*models.Wallet),
		now:     time.Now,
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

func (s *Store) PutSupportedToken(ctx context.Context, token models.SupportedToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[token.Token]; ok {
		return nil
	}
	s.tokens[token.Token] = token
	return nil
}

func (s *Store) DeleteSupportedToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

func (s *Store) IsSupportedToken(ctx context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tokens[token]
	return ok, nil
}

func (s *Store) ListSupportedTokens(ctx context.Context) ([]models.SupportedToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SupportedToken, 0, len(s.tokens))
	for _, t := range s.tokens {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out, nil
}

// CreateTrade assigns the next sequential ID and stores a copy of trade.
func (s *Store) CreateTrade(ctx context.Context, trade *models.Trade) (*models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := trade.Clone()
	stored.Id = s.nextID
	s.trades[stored.Id] = stored
	s.nextID++
	return stored.Clone(), nil
}

func (s *Store) GetTrade(ctx context.Context, id uint64) (*models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	trade, ok := s.trades[id]
	if !ok {
		return nil, fmt.Errorf("trade with ID %d: %w", id, storage.ErrTradeNotFound)
	}
	return trade.Clone(), nil
}

func (s *Store) ListTradesByParty(ctx context.Context, principal string) ([]models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Trade
	for id := uint64(0); id < s.nextID; id++ {
		t := s.trades[id]
		if t.Buyer == principal || t.Seller == principal {
			out = append(out, *t.Clone())
		}
	}
	return out, nil
}

func (s *Store) ListTrades(ctx context.Context) ([]models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Trade, 0, len(s.trades))
	for id := uint64(0); id < s.nextID; id++ {
		out = append(out, *s.trades[id].Clone())
	}
	return out, nil
}

func (s *Store) AppendStatusLabel(ctx context.Context, id uint64, label models.StatusLabel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	trade, ok := s.trades[id]
	if !ok {
		return fmt.Errorf("trade with ID %d: %w", id, storage.ErrTradeNotFound)
	}
	trade.Labels = append(trade.Labels, label)
	trade.UpdatedAt = label.At
	return nil
}

// ApplyTransition checks the expected status and the transfer source balance
// before mutating anything.
func (s *Store) ApplyTransition(ctx context.Context, t storage.Transition) (*models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trade, ok := s.trades[t.TradeID]
	if !ok {
		return nil, fmt.Errorf("trade with ID %d: %w", t.TradeID, storage.ErrTradeNotFound)
	}
	if trade.Status != t.From {
		return nil, fmt.Errorf("trade %d is %s, expected %s: %w", t.TradeID, trade.Status, t.From, storage.ErrTransitionConflict)
	}
	if tr := t.Transfer; tr != nil && tr.Amount > 0 {
		if s.balance(tr.From, tr.Asset) < tr.Amount {
			return nil, storage.ErrInsufficientFunds
		}
		if s.balance(tr.To, tr.Asset) > math.MaxUint64-tr.Amount {
			return nil, fmt.Errorf("crediting %s: %w", tr.To, storage.ErrBalanceOverflow)
		}
		s.move(tr, &t.TradeID, t.At)
	}

	trade.Status = t.To
	trade.EscrowedAmount = t.Escrowed
	trade.UpdatedAt = t.At
	return trade.Clone(), nil
}

func (s *Store) balance(principal, asset string) uint64 {
	if w, ok := s.wallets[models.WalletID(principal, asset)]; ok {
		return w.Balance
	}
	return 0
}

func (s *Store) wallet(principal, asset string) *models.Wallet {
	id := models.WalletID(principal, asset)
	w, ok := s.wallets[id]
	if !ok {
		w = &models.Wallet{WalletId: id, Principal: principal, Asset: asset}
		s.wallets[id] = w
	}
	return w
}

// move must be called with the lock held and the source balance checked.
func (s *Store) move(tr *storage.Transfer, tradeID *uint64, at time.Time) {
	from := s.wallet(tr.From, tr.Asset)
	to := s.wallet(tr.To, tr.Asset)
	from.Balance -= tr.Amount
	from.Version++
	from.UpdatedAt = at
	to.Balance += tr.Amount
	to.Version++
	to.UpdatedAt = at

	id := *tradeID
	s.ledger = append(s.ledger,
		models.LedgerEntry{
			EntryID:     uuid.New().String(),
			TradeID:     &id,
			AccountID:   tr.From,
			Asset:       tr.Asset,
			Debit:       tr.Amount,
			Description: tr.Description,
			Timestamp:   at,
			GSI1PK:      models.LedgerPartition,
		},
		models.LedgerEntry{
			EntryID:     uuid.New().String(),
			TradeID:     &id,
			AccountID:   tr.To,
			Asset:       tr.Asset,
			Credit:      tr.Amount,
			Description: tr.Description,
			Timestamp:   at,
			GSI1PK:      models.LedgerPartition,
		},
	)
}

func (s *Store) GetWallet(ctx context.Context, principal, asset string) (*models.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if w, ok := s.wallets[models.WalletID(principal, asset)]; ok {
		copied := *w
		return &copied, nil
	}
	return &models.Wallet{WalletId: models.WalletID(principal, asset), Principal: principal, Asset: asset}, nil
}

func (s *Store) Deposit(ctx context.Context, principal, asset string, amount uint64) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balance(principal, asset) > math.MaxUint64-amount {
		return nil, fmt.Errorf("crediting %s: %w", principal, storage.ErrBalanceOverflow)
	}
	now := s.now()
	w := s.wallet(principal, asset)
	w.Balance += amount
	w.Version++
	w.UpdatedAt = now
	s.ledger = append(s.ledger, models.LedgerEntry{
		EntryID:     uuid.New().String(),
		AccountID:   principal,
		Asset:       asset,
		Credit:      amount,
		Description: fmt.Sprintf("Deposit of %d %s", amount, asset),
		Timestamp:   now,
		GSI1PK:      models.LedgerPartition,
	})
	copied := *w
	return &copied, nil
}

func (s *Store) ListWallets(ctx context.Context, principal string) ([]models.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Wallet
	for _, w := range s.wallets {
		if w.Principal == principal {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out, nil
}

// ListLedgerEntries returns up to limit entries, newest first.
func (s *Store) ListLedgerEntries(ctx context.Context, limit int32) ([]models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.ledger)
	if limit > 0 && int(limit) < n {
		n = int(limit)
	}
	out := make([]models.LedgerEntry, 0, n)
	for i := len(s.ledger) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.ledger[i])
	}
	return out, nil
}
