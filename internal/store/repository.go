package store

import (
	"context"
	"fmt"

	"github.com/iwvelando/mortgage-planner/internal/household"
	"github.com/iwvelando/mortgage-planner/internal/snapshot"
	"github.com/iwvelando/mortgage-planner/pkg/constants"
	"github.com/iwvelando/mortgage-planner/pkg/tax"
	"go.uber.org/zap"
)

var preferenceKeys = []string{
	constants.LegalFeeRateKey,
	constants.BrokerFeeRateKey,
	constants.ReturnPowerKey,
}

// Repository reads and writes the household and its preferences through a
// KV. Writes are last-write-wins.
type Repository struct {
	kv     KV
	logger *zap.Logger
}

func NewRepository(kv KV, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{kv: kv, logger: logger}
}

// LoadState returns the stored household, normalized. A store with no
// household yields a fresh NewState.
func (r *Repository) LoadState(ctx context.Context) (household.State, error) {
	raw, ok, err := r.kv.Get(ctx, constants.StateKey)
	if err != nil {
		return household.State{}, fmt.Errorf("failed to load household: %w", err)
	}
	if !ok {
		return household.NewState(), nil
	}

	record, err := snapshot.Decode([]byte(raw))
	if err != nil {
		return household.State{}, err
	}
	state, migration := snapshot.Normalize(record)
	if migration.Changed() {
		r.logger.Info("applied defaults to stored household",
			zap.String("op", "store.LoadState"),
			zap.Int("asset_taxable", migration.AssetTaxable),
			zap.Int("asset_tax_rate", migration.AssetTaxRate),
			zap.Int("debt_credit_eligible", migration.DebtCreditEligible),
			zap.Bool("tax_policy", migration.TaxPolicy),
		)
	}
	return state, nil
}

func (r *Repository) SaveState(ctx context.Context, state household.State) error {
	data, err := snapshot.Encode(state)
	if err != nil {
		return err
	}
	if err := r.kv.Set(ctx, constants.StateKey, string(data)); err != nil {
		return fmt.Errorf("failed to save household: %w", err)
	}
	return nil
}

// LoadPreferences returns the stored preferences. Missing values take their
// defaults; unsupported values are logged and replaced by the default.
func (r *Repository) LoadPreferences(ctx context.Context) (household.Preferences, error) {
	raw := make(map[string]string, len(preferenceKeys))
	for _, key := range preferenceKeys {
		value, ok, err := r.kv.Get(ctx, key)
		if err != nil {
			return household.Preferences{}, fmt.Errorf("failed to load preferences: %w", err)
		}
		if ok {
			raw[key] = value
		}
	}

	prefs, warnings := snapshot.ParsePreferences(raw)
	for _, warning := range warnings {
		r.logger.Warn("stored preference replaced by default",
			zap.String("op", "store.LoadPreferences"),
			zap.String("detail", warning),
		)
	}
	return prefs, nil
}

func (r *Repository) SavePreferences(ctx context.Context, prefs household.Preferences) error {
	values := snapshot.FormatPreferences(prefs)
	for _, key := range preferenceKeys {
		if err := r.kv.Set(ctx, key, values[key]); err != nil {
			return fmt.Errorf("failed to save preferences: %w", err)
		}
	}
	return nil
}

// Reset clears the planner: the household returns to NewState and the stored
// preferences are removed so they load as their defaults.
func (r *Repository) Reset(ctx context.Context) error {
	if err := r.SaveState(ctx, household.NewState()); err != nil {
		return err
	}
	for _, key := range preferenceKeys {
		if err := r.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to clear preferences: %w", err)
		}
	}
	r.logger.Info("planner reset to defaults", zap.String("op", "store.Reset"))
	return nil
}

// SetBracket stores bracket at index in the household's purchase-tax table,
// appending when index equals the table length. Edits that would leave the
// table invalid are rejected and nothing is saved.
func (r *Repository) SetBracket(ctx context.Context, index int, bracket tax.Bracket) ([]tax.Bracket, error) {
	return r.editBrackets(ctx, "store.SetBracket", func(brackets []tax.Bracket) ([]tax.Bracket, error) {
		return tax.Set(brackets, index, bracket)
	})
}

// RemoveBracket drops the bracket at index from the household's purchase-tax
// table.
func (r *Repository) RemoveBracket(ctx context.Context, index int) ([]tax.Bracket, error) {
	return r.editBrackets(ctx, "store.RemoveBracket", func(brackets []tax.Bracket) ([]tax.Bracket, error) {
		return tax.Remove(brackets, index)
	})
}

func (r *Repository) editBrackets(ctx context.Context, op string, edit func([]tax.Bracket) ([]tax.Bracket, error)) ([]tax.Bracket, error) {
	state, err := r.LoadState(ctx)
	if err != nil {
		return nil, err
	}
	updated, err := edit(state.PurchaseTaxPolicy.Brackets)
	if err != nil {
		return nil, err
	}
	if err := tax.Validate(updated); err != nil {
		return nil, err
	}
	state.PurchaseTaxPolicy.Brackets = updated
	if err := r.SaveState(ctx, state); err != nil {
		return nil, err
	}
	r.logger.Info("updated purchase tax brackets",
		zap.String("op", op),
		zap.Int("brackets", len(updated)),
	)
	return updated, nil
}
