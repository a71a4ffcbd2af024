// Package telemetry records one CSV row per terminal build outcome. The log
// is the training corpus for the strategy model, so the column order is a
// contract shared with the trainer and must never change.
package telemetry

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/jonathan/siteforge/internal/features"
	"github.com/jonathan/siteforge/internal/types"
)

// Columns is the canonical header, in order.
var Columns = []string{
	"timestamp",
	"theme",
	"input_char_len",
	"input_word_count",
	"css_signature",
	"css_density_spacing",
	"css_density_layout",
	"pathological_score",
	"active_strategy",
	"resolved_strategy_id",
	"is_valid",
	"failure_reason",
	"style_overrides_raw",
}

// Event is one terminal build outcome.
type Event struct {
	Timestamp         time.Time
	Theme             string
	Features          features.Vector
	CSSSignature      string
	ActiveStrategy    types.Tier
	ResolvedStrategy  types.Tier
	IsValid           bool
	FailureReason     string
	StyleOverridesRaw string
}

// row serializes the event in Columns order.
func (e *Event) row() []string {
	return []string{
		e.Timestamp.UTC().Format(time.RFC3339),
		e.Theme,
		strconv.Itoa(e.Features.CharLen),
		strconv.Itoa(e.Features.WordCount),
		e.CSSSignature,
		strconv.Itoa(e.Features.DensitySpacing),
		strconv.Itoa(e.Features.DensityLayout),
		strconv.FormatFloat(e.Features.PathologicalScore, 'f', -1, 64),
		e.ActiveStrategy.String(),
		strconv.Itoa(int(e.ResolvedStrategy)),
		strconv.FormatBool(e.IsValid),
		e.FailureReason,
		e.StyleOverridesRaw,
	}
}

// Miner appends build events to an append-only CSV log, creating the file
// with a header on first write. Safe for concurrent use.
type Miner struct {
	path string
	mu   sync.Mutex
}

// NewMiner creates a miner for the given log path. The file is not touched
// until the first record.
func NewMiner(path string) *Miner {
	return &Miner{path: path}
}

// Path returns the log file location.
func (m *Miner) Path() string {
	return m.path
}

// Record appends one event. Callers log failures and continue; a telemetry
// error must never fail a build.
func (m *Miner) Record(event *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("failed to create telemetry directory: %w", err)
	}

	_, statErr := os.Stat(m.path)
	needHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(m.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open telemetry log: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(Columns); err != nil {
			return fmt.Errorf("failed to write telemetry header: %w", err)
		}
	}
	if err := w.Write(event.row()); err != nil {
		return fmt.Errorf("failed to write telemetry row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush telemetry row: %w", err)
	}
	return nil
}
