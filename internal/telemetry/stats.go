package telemetry

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/jonathan/siteforge/internal/features"
	"github.com/jonathan/siteforge/internal/types"
)

// Record is one parsed log row.
type Record struct {
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

// Summary aggregates a telemetry log for reporting.
type Summary struct {
	Total         int
	Valid         int
	ByStrategy    map[types.Tier]int
	ByTheme       map[string]int
	MeanPathScore float64
}

// ValidRate returns the fraction of events that ended approved.
func (s *Summary) ValidRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Valid) / float64(s.Total)
}

// Load parses a telemetry log. Rows that fail to parse are skipped rather
// than aborting the read; the log is append-only and a torn tail row from a
// crashed run should not poison the corpus.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry log: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read telemetry header: %w", err)
	}
	if !slices.Equal(header, Columns) {
		return nil, fmt.Errorf("telemetry header mismatch: got %v", header)
	}

	var records []Record
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		rec, ok := parseRow(row)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Summarize aggregates parsed records.
func Summarize(records []Record) *Summary {
	s := &Summary{
		ByStrategy: make(map[types.Tier]int),
		ByTheme:    make(map[string]int),
	}
	totalScore := 0.0
	for _, rec := range records {
		s.Total++
		if rec.IsValid {
			s.Valid++
		}
		s.ByStrategy[rec.ResolvedStrategy]++
		s.ByTheme[rec.Theme]++
		totalScore += rec.Features.PathologicalScore
	}
	if s.Total > 0 {
		s.MeanPathScore = totalScore / float64(s.Total)
	}
	return s
}

func parseRow(row []string) (Record, bool) {
	if len(row) != len(Columns) {
		return Record{}, false
	}

	ts, err := time.Parse(time.RFC3339, row[0])
	if err != nil {
		return Record{}, false
	}
	charLen, err1 := strconv.Atoi(row[2])
	wordCount, err2 := strconv.Atoi(row[3])
	spacing, err3 := strconv.Atoi(row[5])
	layout, err4 := strconv.Atoi(row[6])
	pathScore, err5 := strconv.ParseFloat(row[7], 64)
	resolved, err6 := strconv.Atoi(row[9])
	isValid, err7 := strconv.ParseBool(row[10])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil || err6 != nil || err7 != nil {
		return Record{}, false
	}

	active, ok := tierFromName(row[8])
	if !ok {
		return Record{}, false
	}

	return Record{
		Timestamp: ts,
		Theme:     row[1],
		Features: features.Vector{
			CharLen:           charLen,
			WordCount:         wordCount,
			DensitySpacing:    spacing,
			DensityLayout:     layout,
			PathologicalScore: pathScore,
			ThemeID:           features.ThemeID(row[1]),
			StrategyID:        float64(active),
		},
		CSSSignature:      row[4],
		ActiveStrategy:    active,
		ResolvedStrategy:  types.Tier(resolved),
		IsValid:           isValid,
		FailureReason:     row[11],
		StyleOverridesRaw: row[12],
	}, true
}

func tierFromName(name string) (types.Tier, bool) {
	for _, t := range []types.Tier{
		types.TierNone, types.TierWordBreak, types.TierFontShrink,
		types.TierTruncate, types.TierContentCut, types.TierUnresolved,
	} {
		if t.String() == name {
			return t, true
		}
	}
	return 0, false
}
