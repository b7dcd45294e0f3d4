package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/iwvelando/mortgage-planner/internal/household"
	"github.com/iwvelando/mortgage-planner/pkg/constants"
	"github.com/iwvelando/mortgage-planner/pkg/tax"
)

func backends(t *testing.T) map[string]KV {
	t.Helper()

	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "state.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })

	redisKV, _ := newMemoryRedis(t)

	return map[string]KV{
		"memory": NewMemory(),
		"sqlite": sqlite,
		"redis":  redisKV,
	}
}

func TestKVOperations(t *testing.T) {
	ctx := context.Background()

	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
				t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
			}

			if err := kv.Set(ctx, "key", "first"); err != nil {
				t.Fatalf("Set() error: %v", err)
			}
			if err := kv.Set(ctx, "key", "second"); err != nil {
				t.Fatalf("Set() overwrite error: %v", err)
			}
			value, ok, err := kv.Get(ctx, "key")
			if err != nil || !ok || value != "second" {
				t.Errorf("Get(key) = %q, %v, %v; expected last write", value, ok, err)
			}

			if err := kv.Delete(ctx, "key"); err != nil {
				t.Fatalf("Delete() error: %v", err)
			}
			if _, ok, _ := kv.Get(ctx, "key"); ok {
				t.Error("expected key to be gone after Delete")
			}
			if err := kv.Delete(ctx, "key"); err != nil {
				t.Errorf("deleting a missing key should succeed, got %v", err)
			}
		})
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	first, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	if err := first.Set(ctx, constants.BrokerFeeRateKey, "1.5"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	second, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer func() { _ = second.Close() }()

	value, ok, err := second.Get(ctx, constants.BrokerFeeRateKey)
	if err != nil || !ok || value != "1.5" {
		t.Errorf("Get() after reopen = %q, %v, %v", value, ok, err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	kv, err := Open(ctx, Settings{Backend: constants.StoreBackendMemory}, dir)
	if err != nil {
		t.Fatalf("Open(memory) error: %v", err)
	}
	if _, ok := kv.(*Memory); !ok {
		t.Errorf("expected *Memory, got %T", kv)
	}

	kv, err = Open(ctx, Settings{}, dir)
	if err != nil {
		t.Fatalf("Open(default) error: %v", err)
	}
	defer func() { _ = kv.Close() }()
	if _, ok := kv.(*SQLite); !ok {
		t.Errorf("expected default backend to be *SQLite, got %T", kv)
	}

	if _, err := Open(ctx, Settings{Backend: "etcd"}, dir); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestRepositoryFreshStore(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(NewMemory(), nil)

	state, err := repo.LoadState(ctx)
	if err != nil {
		t.Fatalf("LoadState() error: %v", err)
	}
	if !reflect.DeepEqual(state, household.NewState()) {
		t.Errorf("empty store should yield NewState, got %+v", state)
	}

	prefs, err := repo.LoadPreferences(ctx)
	if err != nil {
		t.Fatalf("LoadPreferences() error: %v", err)
	}
	if prefs != household.DefaultPreferences() {
		t.Errorf("empty store should yield defaults, got %+v", prefs)
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			repo := NewRepository(kv, nil)

			state := household.State{
				PurchasePrice: 2500000,
				TermYears:     20,
				AnnualRate:    4.5,
				Member1Income: []household.IncomeSample{{Amount: 18000}},
				Debts: []household.DebtObligation{
					{Name: "car", Principal: 40000, TermMonths: 24, PeriodicPayment: 1800, CreditEligible: true},
				},
				PurchaseTaxPolicy: household.PurchaseTaxPolicy{IsFirstHome: false, Brackets: tax.AdditionalHomeBrackets()},
			}
			if err := repo.SaveState(ctx, state); err != nil {
				t.Fatalf("SaveState() error: %v", err)
			}
			loaded, err := repo.LoadState(ctx)
			if err != nil {
				t.Fatalf("LoadState() error: %v", err)
			}
			if !reflect.DeepEqual(loaded, state) {
				t.Errorf("LoadState() = %+v, expected %+v", loaded, state)
			}

			prefs := household.Preferences{
				ReturnPower: household.ReturnPowerFortyPercent,
				Fees:        household.FeeRates{Legal: 0.8, Broker: 1},
			}
			if err := repo.SavePreferences(ctx, prefs); err != nil {
				t.Fatalf("SavePreferences() error: %v", err)
			}
			loadedPrefs, err := repo.LoadPreferences(ctx)
			if err != nil {
				t.Fatalf("LoadPreferences() error: %v", err)
			}
			if loadedPrefs != prefs {
				t.Errorf("LoadPreferences() = %+v, expected %+v", loadedPrefs, prefs)
			}
		})
	}
}

func TestRepositoryLegacyValues(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	_ = kv.Set(ctx, constants.StateKey, `{"homePrice":900000,"savings":[{"name":"s","totalAmount":100,"totalRevenue":10,"state":"open"}]}`)
	_ = kv.Set(ctx, constants.ReturnPowerKey, "33")
	_ = kv.Set(ctx, constants.LegalFeeRateKey, "0.5")

	repo := NewRepository(kv, nil)

	state, err := repo.LoadState(ctx)
	if err != nil {
		t.Fatalf("LoadState() error: %v", err)
	}
	if !state.Assets[0].Taxable || state.Assets[0].TaxRate != 25 {
		t.Errorf("legacy asset not normalized: %+v", state.Assets[0])
	}

	prefs, err := repo.LoadPreferences(ctx)
	if err != nil {
		t.Fatalf("LoadPreferences() error: %v", err)
	}
	if prefs.ReturnPower != household.ReturnPowerThird {
		t.Errorf("legacy 33 should load as one third, got %s", prefs.ReturnPower)
	}
}

func TestRepositoryCorruptState(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	_ = kv.Set(ctx, constants.StateKey, "{broken")

	if _, err := NewRepository(kv, nil).LoadState(ctx); err == nil {
		t.Error("expected an error for a corrupt stored household")
	}
}

func TestRepositoryReset(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(NewMemory(), nil)

	_ = repo.SaveState(ctx, household.State{PurchasePrice: 123})
	_ = repo.SavePreferences(ctx, household.Preferences{ReturnPower: household.ReturnPowerFortyPercent})

	if err := repo.Reset(ctx); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}

	state, _ := repo.LoadState(ctx)
	if !reflect.DeepEqual(state, household.NewState()) {
		t.Errorf("state after reset = %+v", state)
	}
	prefs, _ := repo.LoadPreferences(ctx)
	if prefs != household.DefaultPreferences() {
		t.Errorf("preferences after reset = %+v", prefs)
	}
}

func TestRepositoryEditBrackets(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(NewMemory(), nil)

	updated, err := repo.SetBracket(ctx, 1, tax.Bracket{Ceiling: 2_000_000, Rate: 3})
	if err != nil {
		t.Fatalf("SetBracket() error: %v", err)
	}
	if updated[1].Ceiling != 2_000_000 || updated[1].Rate != 3 {
		t.Errorf("unexpected bracket after set: %+v", updated[1])
	}

	updated, err = repo.RemoveBracket(ctx, 0)
	if err != nil {
		t.Fatalf("RemoveBracket() error: %v", err)
	}
	if len(updated) != len(tax.FirstHomeBrackets())-1 || updated[0].Ceiling != 2_000_000 {
		t.Errorf("unexpected table after remove: %+v", updated)
	}

	state, err := repo.LoadState(ctx)
	if err != nil {
		t.Fatalf("LoadState() error: %v", err)
	}
	if !reflect.DeepEqual(state.PurchaseTaxPolicy.Brackets, updated) {
		t.Errorf("stored brackets = %+v, expected %+v", state.PurchaseTaxPolicy.Brackets, updated)
	}

	tests := []struct {
		name string
		edit func() error
		want error
	}{
		{
			name: "ceiling not between neighbours",
			edit: func() error {
				_, err := repo.SetBracket(ctx, 1, tax.Bracket{Ceiling: 100, Rate: 5})
				return err
			},
			want: tax.ErrNotAscending,
		},
		{
			name: "index out of range",
			edit: func() error {
				_, err := repo.RemoveBracket(ctx, 10)
				return err
			},
			want: tax.ErrIndexOutOfRange,
		},
		{
			name: "removing the open-ended bracket",
			edit: func() error {
				_, err := repo.RemoveBracket(ctx, len(updated)-1)
				return err
			},
			want: tax.ErrMissingSentinel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.edit(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			state, _ := repo.LoadState(ctx)
			if !reflect.DeepEqual(state.PurchaseTaxPolicy.Brackets, updated) {
				t.Errorf("rejected edit changed the stored table: %+v", state.PurchaseTaxPolicy.Brackets)
			}
		})
	}
}
