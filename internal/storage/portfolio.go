package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/guttosm/etfpulse/internal/domain/models"
	"github.com/guttosm/etfpulse/internal/logger"
)

const (
	portfolioFile  = "portfolio.json"
	portfoliosDir  = "portfolios"
	updatedAtShape = "2006-01-02 15:04:05"
)

var (
	ErrAccountExists   = errors.New("account already exists")
	ErrAccountNotFound = errors.New("account not found")
	ErrLastAccount     = errors.New("cannot delete last account")
	ErrInvalidName     = errors.New("invalid name")
	ErrNotFound        = errors.New("not found")
)

// PortfolioStore owns the active portfolio document plus named copies. Same
// persistence discipline as the snapshot store: temp file then rename.
type PortfolioStore struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

// NewPortfolioStore ensures the data directory exists and returns the store.
func NewPortfolioStore(dir string) (*PortfolioStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &PortfolioStore{dir: dir, now: time.Now}, nil
}

func (s *PortfolioStore) path() string { return filepath.Join(s.dir, portfolioFile) }

// Load reads the active portfolio, migrating legacy shapes in place: a flat
// top-level "positions" map moves under the default account, and positions
// without a timestamp get one.
func (s *PortfolioStore) Load() models.Portfolio {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *PortfolioStore) loadLocked() models.Portfolio {
	raw, err := os.ReadFile(s.path())
	if err != nil {
		return models.NewPortfolio()
	}

	doc, migrated, err := decodePortfolio(raw, s.now())
	if err != nil {
		logger.L().Warn().Err(err).Msg("portfolio file corrupt, starting empty")
		return models.NewPortfolio()
	}
	if migrated {
		if err := s.saveLocked(&doc); err != nil {
			logger.L().Warn().Err(err).Msg("persisting portfolio migration failed")
		}
	}
	return doc
}

// decodePortfolio parses a portfolio document and normalizes legacy shapes.
func decodePortfolio(raw []byte, now time.Time) (models.Portfolio, bool, error) {
	var envelope struct {
		UpdatedAt string                     `json:"updated_at"`
		Accounts  map[string]models.Account  `json:"accounts"`
		Positions map[string]models.Position `json:"positions"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return models.Portfolio{}, false, err
	}

	migrated := false
	doc := models.Portfolio{UpdatedAt: envelope.UpdatedAt, Accounts: envelope.Accounts}

	if doc.Accounts == nil {
		doc.Accounts = map[string]models.Account{
			models.DefaultAccount: {Positions: envelope.Positions},
		}
		migrated = true
	}
	if len(doc.Accounts) == 0 {
		doc.Accounts[models.DefaultAccount] = models.Account{Positions: map[string]models.Position{}}
		migrated = true
	}

	for name, acc := range doc.Accounts {
		if acc.Positions == nil {
			acc.Positions = map[string]models.Position{}
			doc.Accounts[name] = acc
			migrated = true
		}
		for sym, pos := range acc.Positions {
			if pos.AddedAt == "" {
				pos.AddedAt = now.Format(time.RFC3339)
				acc.Positions[sym] = pos
				migrated = true
			}
		}
	}
	return doc, migrated, nil
}

func (s *PortfolioStore) saveLocked(doc *models.Portfolio) error {
	doc.UpdatedAt = s.now().Format(updatedAtShape)

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding portfolio: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".portfolio-*.json")
	if err != nil {
		return fmt.Errorf("creating temp portfolio: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing temp portfolio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("closing temp portfolio: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path()); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replacing portfolio: %w", err)
	}
	return nil
}

// Upsert sets or removes a position. A non-positive qty removes the symbol.
// The account is created implicitly when missing; the original added_at is
// preserved across updates.
func (s *PortfolioStore) Upsert(symbol string, qty, avgPrice float64, accountName string) (models.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.loadLocked()
	if accountName == "" {
		accountName = models.DefaultAccount
	}
	acc, ok := doc.Accounts[accountName]
	if !ok {
		acc = models.Account{Positions: map[string]models.Position{}}
	}

	if qty <= 0 {
		delete(acc.Positions, symbol)
	} else {
		addedAt := s.now().Format(time.RFC3339)
		if prev, exists := acc.Positions[symbol]; exists && prev.AddedAt != "" {
			addedAt = prev.AddedAt
		}
		acc.Positions[symbol] = models.Position{Qty: qty, AvgPrice: avgPrice, AddedAt: addedAt}
	}
	doc.Accounts[accountName] = acc

	return doc, s.saveLocked(&doc)
}

// ReplaceAccount swaps out every position in one account.
func (s *PortfolioStore) ReplaceAccount(accountName string, positions map[string]models.Position) (models.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.loadLocked()
	if accountName == "" {
		accountName = models.DefaultAccount
	}
	if positions == nil {
		positions = map[string]models.Position{}
	}
	doc.Accounts[accountName] = models.Account{Positions: positions}
	return doc, s.saveLocked(&doc)
}

// Clear resets the document to a single empty default account.
func (s *PortfolioStore) Clear() (models.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := models.NewPortfolio()
	return doc, s.saveLocked(&doc)
}

// AddAccount creates a new empty account.
func (s *PortfolioStore) AddAccount(name string) error {
	if name == "" {
		return ErrInvalidName
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.loadLocked()
	if _, exists := doc.Accounts[name]; exists {
		return ErrAccountExists
	}
	doc.Accounts[name] = models.Account{Positions: map[string]models.Position{}}
	return s.saveLocked(&doc)
}

// RenameAccount moves an account's positions under a new name.
func (s *PortfolioStore) RenameAccount(oldName, newName string) error {
	if newName == "" || oldName == newName {
		return ErrInvalidName
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.loadLocked()
	acc, ok := doc.Accounts[oldName]
	if !ok {
		return ErrAccountNotFound
	}
	if _, exists := doc.Accounts[newName]; exists {
		return ErrAccountExists
	}
	doc.Accounts[newName] = acc
	delete(doc.Accounts, oldName)
	return s.saveLocked(&doc)
}

// DeleteAccount removes an account; the last one cannot be deleted.
func (s *PortfolioStore) DeleteAccount(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.loadLocked()
	if _, ok := doc.Accounts[name]; !ok {
		return ErrAccountNotFound
	}
	if len(doc.Accounts) <= 1 {
		return ErrLastAccount
	}
	delete(doc.Accounts, name)
	return s.saveLocked(&doc)
}

func (s *PortfolioStore) namedDir() (string, error) {
	d := filepath.Join(s.dir, portfoliosDir)
	if err := os.MkdirAll(d, 0o755); err != nil {
		return "", fmt.Errorf("creating portfolios dir: %w", err)
	}
	return d, nil
}

// ListNamed returns the names of saved portfolio copies, sorted.
func (s *PortfolioStore) ListNamed() ([]string, error) {
	d, err := s.namedDir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(d)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// SaveAs writes the active portfolio under a name. Path separators in the
// name are rejected.
func (s *PortfolioStore) SaveAs(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	d, err := s.namedDir()
	if err != nil {
		return err
	}

	doc := s.Load()
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding portfolio: %w", err)
	}
	return os.WriteFile(filepath.Join(d, name+".json"), raw, 0o644)
}

// LoadNamed copies a saved portfolio into the active slot.
func (s *PortfolioStore) LoadNamed(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	d, err := s.namedDir()
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(filepath.Join(d, name+".json"))
	if err != nil {
		return ErrNotFound
	}

	doc, _, err := decodePortfolio(raw, s.now())
	if err != nil {
		return fmt.Errorf("decoding named portfolio: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(&doc)
}

// DeleteNamed removes a saved portfolio copy.
func (s *PortfolioStore) DeleteNamed(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	d, err := s.namedDir()
	if err != nil {
		return err
	}
	path := filepath.Join(d, name+".json")
	if _, err := os.Stat(path); err != nil {
		return ErrNotFound
	}
	return os.Remove(path)
}
