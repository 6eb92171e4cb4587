package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"freightmatch/internal/storage"
)

// ExportQuoteXLSX writes one priced quote to a workbook: a summary sheet with
// the latest recommendation and a sheet with the ranked match table.
func ExportQuoteXLSX(db *storage.DB, quoteID, outputPath string) error {
	rec, err := db.GetLatestRecommendation(quoteID)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("no recommendation for quote %s", quoteID)
	}
	matches, err := db.ListMatchesForQuote(quoteID)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	summary := f.GetSheetName(0)
	_ = f.SetSheetName(summary, "Recommendation")
	summary = "Recommendation"

	summaryRows := [][2]any{
		{"quote_id", rec.QuoteID},
		{"recommended_price", rec.RecommendedPrice},
		{"floor_price", rec.FloorPrice},
		{"target_price", rec.TargetPrice},
		{"ceiling_price", rec.CeilingPrice},
		{"confidence_pct", rec.ConfidencePercentage},
		{"confidence_tier", string(rec.ConfidenceTier)},
		{"method", string(rec.Method)},
		{"reasoning", rec.Reasoning},
		{"created_at", rec.CreatedAt.Format("2006-01-02 15:04:05")},
	}
	for i, pair := range summaryRows {
		keyCell, _ := excelize.CoordinatesToCellName(1, i+1)
		valueCell, _ := excelize.CoordinatesToCellName(2, i+1)
		_ = f.SetCellValue(summary, keyCell, pair[0])
		_ = f.SetCellValue(summary, valueCell, pair[1])
	}

	breakdownKeys := make([]string, 0, len(rec.Breakdown))
	for key := range rec.Breakdown {
		breakdownKeys = append(breakdownKeys, key)
	}
	sort.Strings(breakdownKeys)

	row := len(summaryRows) + 2
	for _, key := range breakdownKeys {
		keyCell, _ := excelize.CoordinatesToCellName(1, row)
		valueCell, _ := excelize.CoordinatesToCellName(2, row)
		_ = f.SetCellValue(summary, keyCell, "breakdown."+key)
		_ = f.SetCellValue(summary, valueCell, rec.Breakdown[key])
		row++
	}

	matchSheet := "Matches"
	if _, err := f.NewSheet(matchSheet); err != nil {
		return err
	}

	headers := []string{
		"rank", "matched_quote_id", "similarity_score", "suggested_price",
		"price_confidence", "price_range_low", "price_range_high",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(matchSheet, cell, h)
	}

	for i, m := range matches {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(matchSheet, cell, value)
		}
		set(1, i+1)
		set(2, m.MatchedQuoteID)
		set(3, m.SimilarityScore)
		set(4, m.SuggestedPrice)
		set(5, m.PriceConfidence)
		set(6, m.PriceRangeLow)
		set(7, m.PriceRangeHigh)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
