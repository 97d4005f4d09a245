package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/guttosm/etfpulse/internal/domain/models"
)

func newTestPortfolioStore(t *testing.T) *PortfolioStore {
	t.Helper()
	s, err := NewPortfolioStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewPortfolioStore: %v", err)
	}
	return s
}

func TestPortfolioStore_LoadMissingFile(t *testing.T) {
	s := newTestPortfolioStore(t)
	doc := s.Load()
	if len(doc.Accounts) != 1 {
		t.Fatalf("accounts = %v", doc.Accounts)
	}
	if _, ok := doc.Accounts[models.DefaultAccount]; !ok {
		t.Fatalf("default account missing")
	}
}

func TestPortfolioStore_LegacyMigration(t *testing.T) {
	s := newTestPortfolioStore(t)
	legacy := `{"positions":{"069500":{"qty":10,"avg_price":10000}}}`
	if err := os.WriteFile(s.path(), []byte(legacy), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	doc := s.Load()
	pos, ok := doc.Accounts[models.DefaultAccount].Positions["069500"]
	if !ok {
		t.Fatalf("legacy position not migrated: %+v", doc)
	}
	if pos.Qty != 10 || pos.AvgPrice != 10000 {
		t.Fatalf("position = %+v", pos)
	}
	if pos.AddedAt == "" {
		t.Fatalf("migration must stamp added_at")
	}

	// Migration is persisted, not recomputed forever.
	raw, err := os.ReadFile(s.path())
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(raw) == legacy {
		t.Fatalf("migrated document was not saved")
	}
}

func TestPortfolioStore_UpsertAndRemove(t *testing.T) {
	s := newTestPortfolioStore(t)

	doc, err := s.Upsert("069500", 10, 10000, "")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	pos := doc.Accounts[models.DefaultAccount].Positions["069500"]
	if pos.Qty != 10 || pos.AvgPrice != 10000 || pos.AddedAt == "" {
		t.Fatalf("position = %+v", pos)
	}
	firstAdded := pos.AddedAt

	// An update keeps the original added_at.
	doc, err = s.Upsert("069500", 20, 10500, "")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	pos = doc.Accounts[models.DefaultAccount].Positions["069500"]
	if pos.Qty != 20 || pos.AddedAt != firstAdded {
		t.Fatalf("update lost added_at: %+v", pos)
	}

	// Zero quantity removes.
	doc, err = s.Upsert("069500", 0, 0, "")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := doc.Accounts[models.DefaultAccount].Positions["069500"]; ok {
		t.Fatalf("position should be removed")
	}
}

func TestPortfolioStore_UpsertCreatesAccount(t *testing.T) {
	s := newTestPortfolioStore(t)
	doc, err := s.Upsert("360750", 5, 20000, "연금저축")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, ok := doc.Accounts["연금저축"].Positions["360750"]; !ok {
		t.Fatalf("implicit account missing: %+v", doc.Accounts)
	}
}

func TestPortfolioStore_ReplaceAccount(t *testing.T) {
	s := newTestPortfolioStore(t)
	if _, err := s.Upsert("069500", 10, 10000, ""); err != nil {
		t.Fatalf("seed: %v", err)
	}

	doc, err := s.ReplaceAccount(models.DefaultAccount, map[string]models.Position{
		"360750": {Qty: 5, AvgPrice: 20000, AddedAt: "2026-08-31"},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	positions := doc.Accounts[models.DefaultAccount].Positions
	if _, ok := positions["069500"]; ok {
		t.Fatalf("old position should be gone: %+v", positions)
	}
	if positions["360750"].Qty != 5 {
		t.Fatalf("positions = %+v", positions)
	}
}

func TestPortfolioStore_AccountLifecycle(t *testing.T) {
	s := newTestPortfolioStore(t)

	if err := s.AddAccount("ISA"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddAccount("ISA"); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("duplicate add err = %v", err)
	}
	if err := s.RenameAccount("ISA", "ISA계좌"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := s.RenameAccount("없는계좌", "다른이름"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("rename missing err = %v", err)
	}
	if err := s.DeleteAccount("ISA계좌"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteAccount(models.DefaultAccount); !errors.Is(err, ErrLastAccount) {
		t.Fatalf("last delete err = %v", err)
	}
}

func TestPortfolioStore_Clear(t *testing.T) {
	s := newTestPortfolioStore(t)
	if _, err := s.Upsert("069500", 10, 0, "추가계좌"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	doc, err := s.Clear()
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(doc.Accounts) != 1 {
		t.Fatalf("accounts = %v", doc.Accounts)
	}
	if len(doc.Accounts[models.DefaultAccount].Positions) != 0 {
		t.Fatalf("positions should be empty")
	}
}

func TestPortfolioStore_NamedPortfolios(t *testing.T) {
	s := newTestPortfolioStore(t)
	if _, err := s.Upsert("069500", 10, 10000, ""); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := s.SaveAs("은퇴플랜"); err != nil {
		t.Fatalf("save as: %v", err)
	}
	if err := s.SaveAs("bad/name"); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("path separator err = %v", err)
	}

	names, err := s.ListNamed()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 1 || names[0] != "은퇴플랜" {
		t.Fatalf("names = %v", names)
	}

	// Mutate the active document, then restore the named copy.
	if _, err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := s.LoadNamed("은퇴플랜"); err != nil {
		t.Fatalf("load named: %v", err)
	}
	doc := s.Load()
	if _, ok := doc.Accounts[models.DefaultAccount].Positions["069500"]; !ok {
		t.Fatalf("restored document missing position: %+v", doc)
	}

	if err := s.DeleteNamed("은퇴플랜"); err != nil {
		t.Fatalf("delete named: %v", err)
	}
	if err := s.LoadNamed("은퇴플랜"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("load deleted err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.dir, portfoliosDir, "은퇴플랜.json")); !os.IsNotExist(err) {
		t.Fatalf("named file should be gone")
	}
}
