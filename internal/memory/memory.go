package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"setup-memory/internal/errors"
	"setup-memory/internal/logging"
	"setup-memory/internal/models"
	"setup-memory/internal/store"
)

// TradeInput describes one trade outcome to record.
type TradeInput struct {
	SetupType string
	Outcome   models.Outcome
	Note      string
	Timestamp time.Time // zero means now
}

// Memory owns the StatsMapping persisted under store.StatsKey.
// Every read and write moves the whole mapping.
type Memory struct {
	kv     store.KVStore
	logger zerolog.Logger
	now    func() time.Time

	// mu serializes read-modify-write cycles within this process.
	// Separate processes sharing one backend can still lose updates.
	mu sync.Mutex
}

// New creates a Memory backed by kv.
func New(kv store.KVStore, logger zerolog.Logger) *Memory {
	return &Memory{
		kv:     kv,
		logger: logger.With().Str("component", "memory").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GetAll returns every setup record. It never fails: read and decode errors
// are logged and reported as an empty mapping so analysis can continue.
func (m *Memory) GetAll(ctx context.Context) models.StatsMapping {
	stats, err := m.load(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("Failed to get stats, treating as empty")
		return models.StatsMapping{}
	}
	return stats
}

// load reads the stored mapping, reporting read and decode failures.
// Write paths use it so an unreadable store is never overwritten.
func (m *Memory) load(ctx context.Context) (models.StatsMapping, error) {
	data, found, err := m.kv.Read(ctx, store.StatsKey)
	if err != nil {
		return nil, errors.NewPersistenceError("read", store.StatsKey, err)
	}
	if !found || len(data) == 0 {
		return models.StatsMapping{}, nil
	}
	return decodeStats(data)
}

// GetStatsForSetup returns the record stored for the normalized form of setupType.
func (m *Memory) GetStatsForSetup(ctx context.Context, setupType string) (*models.SetupRecord, bool) {
	record, ok := m.GetAll(ctx)[Normalize(setupType)]
	if !ok || record == nil {
		return nil, false
	}
	return record, true
}

// Save replaces the whole stored mapping.
func (m *Memory) Save(ctx context.Context, stats models.StatsMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(ctx, stats)
}

func (m *Memory) save(ctx context.Context, stats models.StatsMapping) error {
	if stats == nil {
		stats = models.StatsMapping{}
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return errors.NewPersistenceError("encode", store.StatsKey, err)
	}
	if err := m.kv.Write(ctx, store.StatsKey, data); err != nil {
		m.logger.Error().Err(err).Msg("Failed to save stats")
		return errors.NewPersistenceError("write", store.StatsKey, err)
	}
	return nil
}

// ClearAll resets the stored mapping to empty.
func (m *Memory) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.save(ctx, models.StatsMapping{}); err != nil {
		return err
	}
	m.logger.Info().Msg("All trading stats cleared")
	return nil
}

// LogTrade records one trade outcome under the normalized setup label.
// Loss notes are scanned for known mistakes. Write failures are returned so
// the caller never silently loses a trade.
func (m *Memory) LogTrade(ctx context.Context, in TradeInput) error {
	key := Normalize(in.SetupType)
	if key == "" {
		return errors.NewValidationError("setup_type", in.SetupType, "must not be empty")
	}
	if !in.Outcome.IsValid() {
		return errors.NewValidationError("outcome", in.Outcome, "must be one of win, loss, be")
	}

	timestamp := in.Timestamp
	if timestamp.IsZero() {
		timestamp = m.now()
	}

	logger := logging.WithOperation(m.logger, "log_trade")

	m.mu.Lock()
	defer m.mu.Unlock()

	stats, err := m.load(ctx)
	if err != nil {
		setupLogger := logging.WithSetup(logger, key)
		setupLogger.Error().Err(err).Msg("Refusing to log trade over unreadable stats")
		return errors.Wrap(err, "failed to log trade")
	}
	record, ok := stats[key]
	if !ok || record == nil {
		record = models.NewSetupRecord()
		stats[key] = record
	}

	switch in.Outcome {
	case models.OutcomeWin:
		record.Wins++
	case models.OutcomeLoss:
		record.Losses++
	case models.OutcomeBreakEven:
		record.BreakEven++
	}

	record.Trades = append(record.Trades, models.TradeEntry{
		Outcome:   in.Outcome,
		Note:      in.Note,
		Timestamp: timestamp,
	})

	if in.Outcome == models.OutcomeLoss && in.Note != "" {
		ExtractMistakes(record, in.Note)
	}

	if err := m.save(ctx, stats); err != nil {
		return errors.Wrap(err, "failed to log trade")
	}

	logging.LogTrade(logger, key, string(in.Outcome), in.Note != "")
	return nil
}

// Check evaluates setupType against the stored history.
func (m *Memory) Check(ctx context.Context, setupType string) string {
	return Evaluate(setupType, m.GetAll(ctx))
}

// GetSummary returns the counters and mistakes per setup without trade history.
func (m *Memory) GetSummary(ctx context.Context) map[string]models.SetupSummary {
	return Summarize(m.GetAll(ctx))
}

// Summarize strips trade history from stats.
func Summarize(stats models.StatsMapping) map[string]models.SetupSummary {
	summary := make(map[string]models.SetupSummary, len(stats))
	for label, record := range stats {
		if record == nil {
			continue
		}
		mistakes := record.CommonMistakes
		if mistakes == nil {
			mistakes = []string{}
		}
		summary[label] = models.SetupSummary{
			Wins:           record.Wins,
			Losses:         record.Losses,
			BreakEven:      record.BreakEven,
			CommonMistakes: mistakes,
		}
	}
	return summary
}

// GetDisplaySummary aggregates totals and a per-setup breakdown sorted by
// decided trades, most traded first.
func (m *Memory) GetDisplaySummary(ctx context.Context) models.DisplaySummary {
	stats := m.GetAll(ctx)
	summary := models.DisplaySummary{
		SetupBreakdown: make([]models.SetupBreakdown, 0, len(stats)),
	}

	for _, label := range stats.Keys() {
		record := stats[label]
		if record == nil {
			continue
		}

		summary.TotalTrades += record.Decided() + record.BreakEven
		summary.TotalWins += record.Wins
		summary.TotalLosses += record.Losses
		summary.TotalBreakEven += record.BreakEven

		summary.SetupBreakdown = append(summary.SetupBreakdown, models.SetupBreakdown{
			SetupType:   label,
			Wins:        record.Wins,
			Losses:      record.Losses,
			BreakEven:   record.BreakEven,
			WinRate:     roundToOneDecimal(record.WinRate()),
			TotalTrades: record.Decided(),
		})
	}

	decided := summary.TotalWins + summary.TotalLosses
	if decided > 0 {
		summary.OverallWinRate = roundToOneDecimal(float64(summary.TotalWins) / float64(decided) * 100)
	}

	sort.SliceStable(summary.SetupBreakdown, func(i, j int) bool {
		return summary.SetupBreakdown[i].TotalTrades > summary.SetupBreakdown[j].TotalTrades
	})

	return summary
}

// ExportStats returns the stored mapping as indented JSON.
func (m *Memory) ExportStats(ctx context.Context) (string, error) {
	data, err := json.MarshalIndent(m.GetAll(ctx), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode stats: %w", err)
	}
	return string(data), nil
}

// ImportStats replaces the stored mapping with the one in jsonString.
// Malformed input returns a FormatError and leaves storage untouched.
func (m *Memory) ImportStats(ctx context.Context, jsonString string) error {
	stats, err := decodeStats([]byte(jsonString))
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.save(ctx, stats); err != nil {
		return err
	}
	importLogger := logging.WithOperation(m.logger, "import_stats")
	importLogger.Info().Int("setups", len(stats)).Msg("Stats imported successfully")
	return nil
}

// decodeStats parses and sanity-checks a serialized StatsMapping.
func decodeStats(data []byte) (models.StatsMapping, error) {
	var stats models.StatsMapping
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, errors.NewFormatError("stats", err)
	}
	if stats == nil {
		return models.StatsMapping{}, nil
	}

	for label, record := range stats {
		if strings.TrimSpace(label) == "" {
			return nil, errors.NewFormatError("stats", fmt.Errorf("empty setup label"))
		}
		if record == nil {
			return nil, errors.NewFormatError("stats", fmt.Errorf("setup %q has no record", label))
		}
		if record.Wins < 0 || record.Losses < 0 || record.BreakEven < 0 {
			return nil, errors.NewFormatError("stats", fmt.Errorf("setup %q has negative counters", label))
		}
		if record.Trades == nil {
			record.Trades = []models.TradeEntry{}
		}
		if record.CommonMistakes == nil {
			record.CommonMistakes = []string{}
		}
	}

	return stats, nil
}

func roundToOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
