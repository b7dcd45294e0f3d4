package integration

import (
	"bytes"
	"context"
	"encoding/csv"
	"math"
	"path/filepath"
	"reflect"
	"strconv"
	"testing"

	"github.com/iwvelando/mortgage-planner/internal/affordability"
	"github.com/iwvelando/mortgage-planner/internal/config"
	"github.com/iwvelando/mortgage-planner/internal/household"
	"github.com/iwvelando/mortgage-planner/internal/store"
	"github.com/iwvelando/mortgage-planner/pkg/output"
	"github.com/iwvelando/mortgage-planner/pkg/testutil"
	"go.uber.org/zap"
)

const testHousehold = "../test_household.yaml"

// TestHouseholdFileBaseline checks the report for the sample household file
// against figures worked out by hand.
func TestHouseholdFileBaseline(t *testing.T) {
	logger := zap.NewNop()

	conf, err := config.LoadConfiguration(testHousehold)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if warnings := conf.ValidateConfiguration(); len(warnings) != 0 {
		t.Errorf("expected no warnings for the sample household, got %v", warnings)
	}

	report := affordability.Analyze(logger, conf.State(), conf.Preferences())
	validateBaselineValues(t, report)
}

// validateBaselineValues checks specific key values against the baseline.
func validateBaselineValues(t *testing.T, report affordability.Report) {
	t.Helper()

	d := report.Details
	baselineChecks := []struct {
		name        string
		actual      float64
		expectedVal float64
		tolerance   float64
	}{
		{"household income", d.HouseholdIncome, 20000, 1e-9},
		{"long-term debt service", d.LongTermDebtService, 1400, 1e-9},
		{"monthly allowance", report.MonthlyAllowance, 6200, 1e-9},
		{"residual income capacity", d.Capacities.ResidualIncome, 1060572.2917, 1e-3},
		{"asset capacity", d.Capacities.Assets, 3900000, 1e-6},
		{"price capacity", d.Capacities.Price, 1500000, 1e-6},
		{"recommended capacity", report.RecommendedCapacity, 1060572.2917, 1e-3},
		{"monthly payment", report.MonthlyPayment, 6200, 1e-6},
		{"net assets", d.NetAssets, 675000, 1e-6},
		{"eligible buying power", d.EligibleBuyingPower, 300000, 1e-9},
		{"purchase tax", d.PurchaseTax, 743.925, 1e-6},
		{"total expenses", d.TotalExpenses, 117000, 1e-6},
		{"available funds", report.TotalAvailableFunds, 857256.075, 1e-6},
		{"buying power", report.TotalBuyingPower, 1917828.3667, 1e-3},
		{"shortfall", report.ShortfallOrSurplus, 82171.6333, 1e-3},
		{"gap payment", d.GapMonthlyPayment, 480.3672, 1e-3},
		{"additional income", report.AdditionalIncomeNeeded, 1441.1016, 1e-3},
	}

	for _, check := range baselineChecks {
		if math.Abs(check.actual-check.expectedVal) > check.tolerance {
			t.Errorf("%s: expected %.4f, got %.4f", check.name, check.expectedVal, check.actual)
		}
	}
	if report.HasEnoughBuyingPower {
		t.Error("expected the sample household to fall short")
	}
}

// TestCSVOutputBaseline renders the report as CSV and reads the figures back.
func TestCSVOutputBaseline(t *testing.T) {
	conf, err := config.LoadConfiguration(testHousehold)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	report := affordability.Analyze(nil, conf.State(), conf.Preferences())

	var buf bytes.Buffer
	if err := output.WriteCSV(&buf, report); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to read CSV output: %v", err)
	}
	if len(records) < 2 || records[0][0] != "metric" || records[0][1] != "value" {
		t.Fatalf("unexpected CSV header: %v", records)
	}

	values := make(map[string]string, len(records))
	for _, record := range records[1:] {
		if len(record) != 2 {
			t.Fatalf("expected 2 columns, got %v", record)
		}
		values[record[0]] = record[1]
	}

	expected := map[string]float64{
		"household_income":         20000,
		"recommended_capacity":     1060572.29,
		"purchase_tax":             743.93,
		"total_expenses":           117000,
		"shortfall_or_surplus":     82171.63,
		"additional_income_needed": 1441.10,
	}
	for metric, want := range expected {
		raw, ok := values[metric]
		if !ok {
			t.Errorf("metric %s missing from CSV output", metric)
			continue
		}
		got, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			t.Errorf("metric %s: %v", metric, err)
			continue
		}
		if math.Abs(got-want) > 0.011 {
			t.Errorf("metric %s: expected %.2f, got %s", metric, want, raw)
		}
	}
	if values["has_enough_buying_power"] != "false" {
		t.Errorf("expected has_enough_buying_power false, got %q", values["has_enough_buying_power"])
	}
}

// TestFileAndBuilderAgree guards the sample builder against drifting from
// the sample file.
func TestFileAndBuilderAgree(t *testing.T) {
	conf, err := config.LoadConfiguration(testHousehold)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	fromFile := affordability.Analyze(nil, conf.State(), conf.Preferences())
	fromBuilder := affordability.Analyze(nil, testutil.SampleState(), household.DefaultPreferences())
	if !reflect.DeepEqual(fromFile, fromBuilder) {
		t.Errorf("reports differ:\nfile:    %+v\nbuilder: %+v", fromFile, fromBuilder)
	}
}

// TestStoreRoundTripIsBitIdentical persists the sample household in SQLite,
// reloads it and checks the recomputed report is unchanged.
func TestStoreRoundTripIsBitIdentical(t *testing.T) {
	ctx := context.Background()

	kv, err := store.OpenSQLite(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer func() {
		_ = kv.Close()
	}()
	repo := store.NewRepository(kv, zap.NewNop())

	state := testutil.SampleState()
	prefs := household.Preferences{
		ReturnPower: household.ReturnPowerFortyPercent,
		Fees:        household.FeeRates{Legal: 0.75, Broker: 1.25},
	}
	if err := repo.SaveState(ctx, state); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}
	if err := repo.SavePreferences(ctx, prefs); err != nil {
		t.Fatalf("SavePreferences() error = %v", err)
	}

	loadedState, err := repo.LoadState(ctx)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	loadedPrefs, err := repo.LoadPreferences(ctx)
	if err != nil {
		t.Fatalf("LoadPreferences() error = %v", err)
	}

	before := affordability.Analyze(nil, state, prefs)
	after := affordability.Analyze(nil, loadedState, loadedPrefs)
	if !reflect.DeepEqual(before, after) {
		t.Errorf("report changed across the store:\nbefore: %+v\nafter:  %+v", before, after)
	}
}

// TestPreferenceChangesOnlyMoveTheirFigures switches the return power and
// checks the asset and price capacities are untouched.
func TestPreferenceChangesOnlyMoveTheirFigures(t *testing.T) {
	state := testutil.SampleState()

	third := affordability.Analyze(nil, state, household.DefaultPreferences())
	forty := household.DefaultPreferences()
	forty.ReturnPower = household.ReturnPowerFortyPercent
	higher := affordability.Analyze(nil, state, forty)

	if higher.MonthlyAllowance <= third.MonthlyAllowance {
		t.Errorf("expected a larger allowance at 0.4: %v <= %v", higher.MonthlyAllowance, third.MonthlyAllowance)
	}
	if higher.Details.Capacities.Assets != third.Details.Capacities.Assets {
		t.Error("asset capacity must not depend on the return power")
	}
	if higher.Details.Capacities.Price != third.Details.Capacities.Price {
		t.Error("price capacity must not depend on the return power")
	}
	if higher.Details.TotalExpenses != third.Details.TotalExpenses {
		t.Error("expenses must not depend on the return power")
	}
}
