package pipeline

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"freightmatch/internal"
	"freightmatch/internal/storage"
)

func TestExportBreakdownRowsSorted(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	rec := internal.PricingRecommendation{
		ID:                   "rec-1",
		QuoteID:              "q-1",
		RecommendedPrice:     975,
		FloorPrice:           922.5,
		TargetPrice:          975,
		CeilingPrice:         1027.5,
		ConfidencePercentage: 68,
		ConfidenceTier:       internal.ConfidenceMedium,
		Method:               internal.MethodStatistical,
		Reasoning:            "Based on 4 comparable historical quotes.",
		Breakdown: map[string]float64{
			"weighted_average": 980,
			"cv":               0.06,
			"mean":             975,
			"median":           975,
			"best_score":       0.88,
		},
		CreatedAt: time.Now(),
	}
	if err := db.SaveRecommendation(rec); err != nil {
		t.Fatalf("save recommendation: %v", err)
	}

	out := filepath.Join(dir, "q-1.xlsx")
	if err := ExportQuoteXLSX(db, "q-1", out); err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Recommendation")
	if err != nil {
		t.Fatalf("read summary sheet: %v", err)
	}
	var keys []string
	for _, row := range rows {
		if len(row) > 0 && strings.HasPrefix(row[0], "breakdown.") {
			keys = append(keys, row[0])
		}
	}
	want := []string{
		"breakdown.best_score", "breakdown.cv", "breakdown.mean",
		"breakdown.median", "breakdown.weighted_average",
	}
	if len(keys) != len(want) {
		t.Fatalf("breakdown rows = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("breakdown row %d = %s, want %s", i, keys[i], want[i])
		}
	}
}
