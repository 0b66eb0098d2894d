package memory

import (
	"bytes"
	"context"
	stderrors "errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"setup-memory/internal/errors"
	"setup-memory/internal/models"
	"setup-memory/internal/store"
)

// faultyStore wraps a MemoryStore and fails reads or writes on demand.
type faultyStore struct {
	*store.MemoryStore
	readErr  error
	writeErr error
}

func (f *faultyStore) Read(ctx context.Context, key string) ([]byte, bool, error) {
	if f.readErr != nil {
		return nil, false, f.readErr
	}
	return f.MemoryStore.Read(ctx, key)
}

func (f *faultyStore) Write(ctx context.Context, key string, value []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.MemoryStore.Write(ctx, key, value)
}

func newTestMemory() *Memory {
	return New(store.NewMemoryStore(), zerolog.Nop())
}

var fixedTime = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

func TestLogTradeCreatesNormalizedRecord(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()

	inputs := []TradeInput{
		{SetupType: "bull flag", Outcome: models.OutcomeWin, Timestamp: fixedTime},
		{SetupType: " BULL FLAG ", Outcome: models.OutcomeLoss, Note: "entered too early", Timestamp: fixedTime},
		{SetupType: "Bull Flag", Outcome: models.OutcomeBreakEven, Timestamp: fixedTime},
	}
	for _, in := range inputs {
		if err := m.LogTrade(ctx, in); err != nil {
			t.Fatalf("LogTrade(%+v) failed: %v", in, err)
		}
	}

	stats := m.GetAll(ctx)
	if len(stats) != 1 {
		t.Fatalf("expected one setup, got %v", stats.Keys())
	}
	record, ok := stats["Bull Flag"]
	if !ok {
		t.Fatalf("expected key %q, got %v", "Bull Flag", stats.Keys())
	}
	if record.Wins != 1 || record.Losses != 1 || record.BreakEven != 1 {
		t.Errorf("counters = %d/%d/%d, want 1/1/1", record.Wins, record.Losses, record.BreakEven)
	}
	if len(record.Trades) != 3 {
		t.Fatalf("expected 3 trades, got %d", len(record.Trades))
	}
	if record.Trades[1].Note != "entered too early" || record.Trades[1].Outcome != models.OutcomeLoss {
		t.Errorf("unexpected second trade: %+v", record.Trades[1])
	}
	if !record.Trades[0].Timestamp.Equal(fixedTime) {
		t.Errorf("timestamp = %v, want %v", record.Trades[0].Timestamp, fixedTime)
	}
	if len(record.CommonMistakes) != 1 || record.CommonMistakes[0] != "Entered too early" {
		t.Errorf("CommonMistakes = %v", record.CommonMistakes)
	}
}

func TestLogTradeMistakesOnlyFromLosses(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()

	if err := m.LogTrade(ctx, TradeInput{SetupType: "Wedge", Outcome: models.OutcomeWin, Note: "fomo but it worked"}); err != nil {
		t.Fatal(err)
	}
	if err := m.LogTrade(ctx, TradeInput{SetupType: "Wedge", Outcome: models.OutcomeBreakEven, Note: "fomo again"}); err != nil {
		t.Fatal(err)
	}

	record, ok := m.GetStatsForSetup(ctx, "wedge")
	if !ok {
		t.Fatal("expected Wedge record")
	}
	if len(record.CommonMistakes) != 0 {
		t.Errorf("expected no mistakes, got %v", record.CommonMistakes)
	}
}

func TestLogTradeDefaultsTimestamp(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()
	m.now = func() time.Time { return fixedTime }

	if err := m.LogTrade(ctx, TradeInput{SetupType: "Pennant", Outcome: models.OutcomeWin}); err != nil {
		t.Fatal(err)
	}

	record, _ := m.GetStatsForSetup(ctx, "Pennant")
	if !record.Trades[0].Timestamp.Equal(fixedTime) {
		t.Errorf("timestamp = %v, want %v", record.Trades[0].Timestamp, fixedTime)
	}
}

func TestLogTradeRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()

	tests := []TradeInput{
		{SetupType: "", Outcome: models.OutcomeWin},
		{SetupType: "   ", Outcome: models.OutcomeWin},
		{SetupType: "Bull Flag", Outcome: "draw"},
		{SetupType: "Bull Flag", Outcome: ""},
	}
	for _, in := range tests {
		err := m.LogTrade(ctx, in)
		if !errors.Is(err, errors.ErrInvalidInput) {
			t.Errorf("LogTrade(%+v) error = %v, want ErrInvalidInput", in, err)
		}
	}

	if len(m.GetAll(ctx)) != 0 {
		t.Error("invalid input must not change storage")
	}
}

// Property: for any sequence of logged trades, each record's counters match
// its trade list and the mistake list stays bounded.
func TestProperty_LogTradeCountersMatchTrades(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	labels := []string{"bull flag", "Bull Flag", "head and shoulders", "WEDGE", "double bottom"}
	outcomes := []models.Outcome{models.OutcomeWin, models.OutcomeLoss, models.OutcomeBreakEven}
	notes := []string{"", "fomo", "stop too tight and wrong direction", "revenge trade", "against trend", "entered too late"}

	tradeGen := gen.Struct(reflectTradeInput, map[string]gopter.Gen{
		"SetupType": gen.IntRange(0, len(labels)-1).Map(func(i int) string { return labels[i] }),
		"Outcome":   gen.IntRange(0, len(outcomes)-1).Map(func(i int) models.Outcome { return outcomes[i] }),
		"Note":      gen.IntRange(0, len(notes)-1).Map(func(i int) string { return notes[i] }),
	})

	properties.Property("counters equal trade outcomes per record", prop.ForAll(
		func(trades []TradeInput) bool {
			ctx := context.Background()
			m := newTestMemory()

			for _, in := range trades {
				if err := m.LogTrade(ctx, in); err != nil {
					return false
				}
			}

			total := 0
			for _, record := range m.GetAll(ctx) {
				var wins, losses, be int
				for _, trade := range record.Trades {
					switch trade.Outcome {
					case models.OutcomeWin:
						wins++
					case models.OutcomeLoss:
						losses++
					case models.OutcomeBreakEven:
						be++
					}
				}
				if wins != record.Wins || losses != record.Losses || be != record.BreakEven {
					return false
				}
				if len(record.CommonMistakes) > MaxCommonMistakes {
					return false
				}
				total += len(record.Trades)
			}
			return total == len(trades)
		},
		gen.SliceOf(tradeGen),
	))

	properties.TestingRun(t)
}

var reflectTradeInput = reflect.TypeOf(TradeInput{})

func TestCheckWarnsOnPoorHistory(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()

	seq := []models.Outcome{models.OutcomeWin, models.OutcomeLoss, models.OutcomeLoss, models.OutcomeLoss, models.OutcomeLoss}
	for _, outcome := range seq {
		if err := m.LogTrade(ctx, TradeInput{SetupType: "head and shoulders", Outcome: outcome}); err != nil {
			t.Fatal(err)
		}
	}

	warning := m.Check(ctx, "Head and Shoulders (H&S)")
	if warning == "" {
		t.Fatal("expected warning for Head and Shoulders")
	}
	if !strings.Contains(warning, "20.0%") {
		t.Errorf("unexpected warning: %q", warning)
	}
	if m.Check(ctx, "Bull Flag") != "" {
		t.Error("unrelated setup must not warn")
	}
}

func TestGetAllDegradesOnReadError(t *testing.T) {
	kv := &faultyStore{MemoryStore: store.NewMemoryStore(), readErr: stderrors.New("disk on fire")}
	m := New(kv, zerolog.Nop())

	stats := m.GetAll(context.Background())
	if stats == nil || len(stats) != 0 {
		t.Errorf("expected empty mapping, got %v", stats)
	}
	if m.Check(context.Background(), "Bull Flag") != "" {
		t.Error("expected no warning when storage is unreadable")
	}
}

func TestGetAllDegradesOnCorruptData(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	if err := kv.Write(ctx, store.StatsKey, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	m := New(kv, zerolog.Nop())

	if stats := m.GetAll(ctx); len(stats) != 0 {
		t.Errorf("expected empty mapping, got %v", stats)
	}
}

func TestLogTradeKeepsHistoryOnReadError(t *testing.T) {
	ctx := context.Background()
	kv := &faultyStore{MemoryStore: store.NewMemoryStore()}
	m := New(kv, zerolog.Nop())

	for i := 0; i < 5; i++ {
		if err := m.LogTrade(ctx, TradeInput{SetupType: "Bull Flag", Outcome: models.OutcomeLoss, Timestamp: fixedTime}); err != nil {
			t.Fatal(err)
		}
	}

	kv.readErr = stderrors.New("connection reset")
	err := m.LogTrade(ctx, TradeInput{SetupType: "Wedge", Outcome: models.OutcomeWin, Timestamp: fixedTime})
	if !errors.Is(err, errors.ErrPersistence) {
		t.Fatalf("LogTrade error = %v, want ErrPersistence", err)
	}

	kv.readErr = nil
	stats := m.GetAll(ctx)
	if _, ok := stats["Wedge"]; ok {
		t.Error("trade must not be recorded when the read failed")
	}
	if record := stats["Bull Flag"]; record == nil || len(record.Trades) != 5 {
		t.Errorf("Bull Flag history lost after read failure: %+v", record)
	}
}

func TestLogTradeKeepsCorruptData(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	corrupt := []byte("{not json")
	if err := kv.Write(ctx, store.StatsKey, corrupt); err != nil {
		t.Fatal(err)
	}
	m := New(kv, zerolog.Nop())

	err := m.LogTrade(ctx, TradeInput{SetupType: "Wedge", Outcome: models.OutcomeWin})
	if !errors.Is(err, errors.ErrInvalidFormat) {
		t.Fatalf("LogTrade error = %v, want ErrInvalidFormat", err)
	}

	data, _, err := kv.Read(ctx, store.StatsKey)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(corrupt) {
		t.Errorf("stored payload was overwritten: %q", data)
	}
}

func TestLogTradeLogsSetupAndOperation(t *testing.T) {
	var buf bytes.Buffer
	m := New(store.NewMemoryStore(), zerolog.New(&buf))

	if err := m.LogTrade(context.Background(), TradeInput{SetupType: "bull flag", Outcome: models.OutcomeWin}); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{`"setup":"Bull Flag"`, `"operation":"log_trade"`, `"event":"trade"`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log output missing %s: %s", want, buf.String())
		}
	}
}

func TestWriteFailuresPropagate(t *testing.T) {
	ctx := context.Background()
	kv := &faultyStore{MemoryStore: store.NewMemoryStore(), writeErr: stderrors.New("quota exceeded")}
	m := New(kv, zerolog.Nop())

	err := m.LogTrade(ctx, TradeInput{SetupType: "Bull Flag", Outcome: models.OutcomeWin})
	if !errors.Is(err, errors.ErrPersistence) {
		t.Errorf("LogTrade error = %v, want ErrPersistence", err)
	}

	if err := m.Save(ctx, models.StatsMapping{}); !errors.Is(err, errors.ErrPersistence) {
		t.Errorf("Save error = %v, want ErrPersistence", err)
	}
	if err := m.ClearAll(ctx); !errors.Is(err, errors.ErrPersistence) {
		t.Errorf("ClearAll error = %v, want ErrPersistence", err)
	}
	err = m.ImportStats(ctx, `{}`)
	if !errors.Is(err, errors.ErrPersistence) {
		t.Errorf("ImportStats error = %v, want ErrPersistence", err)
	}

	var pe *errors.PersistenceError
	if !errors.As(err, &pe) {
		t.Fatal("expected a PersistenceError")
	}
	if pe.Key != store.StatsKey {
		t.Errorf("PersistenceError.Key = %q, want %q", pe.Key, store.StatsKey)
	}
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()

	if err := m.LogTrade(ctx, TradeInput{SetupType: "Bull Flag", Outcome: models.OutcomeWin}); err != nil {
		t.Fatal(err)
	}
	if err := m.ClearAll(ctx); err != nil {
		t.Fatal(err)
	}
	if len(m.GetAll(ctx)) != 0 {
		t.Error("expected empty mapping after ClearAll")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := newTestMemory()

	trades := []TradeInput{
		{SetupType: "Bull Flag", Outcome: models.OutcomeWin, Note: "clean breakout", Timestamp: fixedTime},
		{SetupType: "Bull Flag", Outcome: models.OutcomeLoss, Note: "FOMO", Timestamp: fixedTime.Add(time.Hour)},
		{SetupType: "Double Top", Outcome: models.OutcomeBreakEven, Timestamp: fixedTime.Add(2 * time.Hour)},
	}
	for _, in := range trades {
		if err := source.LogTrade(ctx, in); err != nil {
			t.Fatal(err)
		}
	}

	exported, err := source.ExportStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(exported, "\n  \"Bull Flag\"") {
		t.Errorf("expected two-space indented export, got:\n%s", exported)
	}

	target := newTestMemory()
	if err := target.ImportStats(ctx, exported); err != nil {
		t.Fatalf("ImportStats failed: %v", err)
	}

	reexported, err := target.ExportStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if reexported != exported {
		t.Errorf("round trip mismatch:\n%s\nvs\n%s", exported, reexported)
	}
}

func TestImportRejectsMalformedInput(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()

	if err := m.LogTrade(ctx, TradeInput{SetupType: "Bull Flag", Outcome: models.OutcomeWin, Timestamp: fixedTime}); err != nil {
		t.Fatal(err)
	}
	before, _ := m.ExportStats(ctx)

	bad := []string{
		"not json",
		`["Bull Flag"]`,
		`{"Bull Flag": null}`,
		`{"": {"wins": 1}}`,
		`{"Bull Flag": {"wins": -1}}`,
		`{"Bull Flag": {"wins": "many"}}`,
	}
	for _, input := range bad {
		err := m.ImportStats(ctx, input)
		if !errors.Is(err, errors.ErrInvalidFormat) {
			t.Errorf("ImportStats(%q) error = %v, want ErrInvalidFormat", input, err)
		}
	}

	after, _ := m.ExportStats(ctx)
	if before != after {
		t.Error("failed import must leave storage unchanged")
	}
}

func TestImportFillsMissingLists(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()

	if err := m.ImportStats(ctx, `{"Wedge": {"wins": 2, "losses": 1}}`); err != nil {
		t.Fatal(err)
	}

	record, ok := m.GetStatsForSetup(ctx, "Wedge")
	if !ok {
		t.Fatal("expected Wedge record")
	}
	if record.Trades == nil || record.CommonMistakes == nil {
		t.Error("expected non-nil trade and mistake lists")
	}
}

func TestGetSummary(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()

	if err := m.LogTrade(ctx, TradeInput{SetupType: "Bull Flag", Outcome: models.OutcomeLoss, Note: "fomo"}); err != nil {
		t.Fatal(err)
	}

	summary := m.GetSummary(ctx)
	got, ok := summary["Bull Flag"]
	if !ok {
		t.Fatalf("expected Bull Flag in summary: %v", summary)
	}
	if got.Losses != 1 || len(got.CommonMistakes) != 1 {
		t.Errorf("unexpected summary: %+v", got)
	}
}

func TestGetDisplaySummary(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()

	log := func(setup string, outcome models.Outcome, n int) {
		for i := 0; i < n; i++ {
			if err := m.LogTrade(ctx, TradeInput{SetupType: setup, Outcome: outcome}); err != nil {
				t.Fatal(err)
			}
		}
	}
	log("Bull Flag", models.OutcomeWin, 2)
	log("Bull Flag", models.OutcomeLoss, 1)
	log("Double Top", models.OutcomeWin, 1)
	log("Double Top", models.OutcomeBreakEven, 3)
	log("Wedge", models.OutcomeLoss, 4)

	summary := m.GetDisplaySummary(ctx)

	if summary.TotalTrades != 11 {
		t.Errorf("TotalTrades = %d, want 11", summary.TotalTrades)
	}
	if summary.TotalWins != 3 || summary.TotalLosses != 5 || summary.TotalBreakEven != 3 {
		t.Errorf("totals = %d/%d/%d, want 3/5/3", summary.TotalWins, summary.TotalLosses, summary.TotalBreakEven)
	}
	if summary.OverallWinRate != 37.5 {
		t.Errorf("OverallWinRate = %v, want 37.5", summary.OverallWinRate)
	}

	order := make([]string, len(summary.SetupBreakdown))
	for i, row := range summary.SetupBreakdown {
		order[i] = row.SetupType
	}
	want := []string{"Wedge", "Bull Flag", "Double Top"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("breakdown order = %v, want %v", order, want)
	}
	if summary.SetupBreakdown[1].WinRate != 66.7 {
		t.Errorf("Bull Flag win rate = %v, want 66.7", summary.SetupBreakdown[1].WinRate)
	}
}

func TestGetDisplaySummaryEmpty(t *testing.T) {
	summary := newTestMemory().GetDisplaySummary(context.Background())
	if summary.TotalTrades != 0 || summary.OverallWinRate != 0 || len(summary.SetupBreakdown) != 0 {
		t.Errorf("expected zero summary, got %+v", summary)
	}
	if summary.SetupBreakdown == nil {
		t.Error("expected non-nil breakdown slice")
	}
}
