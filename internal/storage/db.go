package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"freightmatch/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS quotes (
  id TEXT PRIMARY KEY,
  customerName TEXT,
  originCity TEXT,
  originState TEXT,
  originCountry TEXT,
  originAddress TEXT,
  destCity TEXT,
  destState TEXT,
  destCountry TEXT,
  destAddress TEXT,
  cargoDescription TEXT,
  weightValue REAL,
  weightUnit TEXT,
  lengthValue REAL,
  widthValue REAL,
  heightValue REAL,
  dimensionUnit TEXT,
  pieceCount INTEGER,
  hazmat INTEGER NOT NULL DEFAULT 0,
  serviceType TEXT,
  equipment TEXT,
  quoteDate TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  initialQuoteAmount REAL,
  finalAgreedPrice REAL,
  jobWon INTEGER,
  quoteStatus TEXT,
  totalDistanceMiles REAL,
  status TEXT NOT NULL DEFAULT 'pending'
);
CREATE INDEX IF NOT EXISTS idx_quotes_status ON quotes(status);
CREATE INDEX IF NOT EXISTS idx_quotes_createdAt ON quotes(createdAt);

CREATE TABLE IF NOT EXISTS matches (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  sourceQuoteId TEXT NOT NULL,
  matchedQuoteId TEXT NOT NULL,
  similarityScore REAL NOT NULL,
  criteriaJson TEXT NOT NULL,
  suggestedPrice REAL NOT NULL,
  priceConfidence REAL NOT NULL,
  priceRangeLow REAL NOT NULL,
  priceRangeHigh REAL NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(sourceQuoteId, matchedQuoteId),
  FOREIGN KEY(sourceQuoteId) REFERENCES quotes(id)
);
CREATE INDEX IF NOT EXISTS idx_matches_source ON matches(sourceQuoteId);
CREATE INDEX IF NOT EXISTS idx_matches_matched ON matches(matchedQuoteId);

CREATE TABLE IF NOT EXISTS recommendations (
  id TEXT PRIMARY KEY,
  quoteId TEXT NOT NULL,
  recommendedPrice REAL NOT NULL,
  floorPrice REAL NOT NULL,
  targetPrice REAL NOT NULL,
  ceilingPrice REAL NOT NULL,
  confidencePercentage REAL NOT NULL,
  confidenceTier TEXT NOT NULL,
  method TEXT NOT NULL,
  reasoning TEXT NOT NULL,
  breakdownJson TEXT NOT NULL,
  marketFactorsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL,
  FOREIGN KEY(quoteId) REFERENCES quotes(id)
);
CREATE INDEX IF NOT EXISTS idx_recommendations_quote ON recommendations(quoteId);

CREATE TABLE IF NOT EXISTS quote_feedback (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  quoteId TEXT NOT NULL,
  positive INTEGER NOT NULL,
  actualPriceUsed REAL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(quoteId) REFERENCES quotes(id)
);
CREATE INDEX IF NOT EXISTS idx_feedback_quote ON quote_feedback(quoteId);

CREATE TABLE IF NOT EXISTS learned_weights (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  weightsJson TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  quoteId TEXT,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

const quoteColumns = `
  id, customerName,
  originCity, originState, originCountry, originAddress,
  destCity, destState, destCountry, destAddress,
  cargoDescription, weightValue, weightUnit,
  lengthValue, widthValue, heightValue, dimensionUnit,
  pieceCount, hazmat, serviceType, equipment,
  quoteDate, createdAt,
  initialQuoteAmount, finalAgreedPrice, jobWon, quoteStatus,
  totalDistanceMiles`

func (d *DB) UpsertQuote(q internal.Quote) error {
	_, err := d.conn.Exec(`
INSERT INTO quotes (`+quoteColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  customerName=excluded.customerName,
  originCity=excluded.originCity,
  originState=excluded.originState,
  originCountry=excluded.originCountry,
  originAddress=excluded.originAddress,
  destCity=excluded.destCity,
  destState=excluded.destState,
  destCountry=excluded.destCountry,
  destAddress=excluded.destAddress,
  cargoDescription=excluded.cargoDescription,
  weightValue=excluded.weightValue,
  weightUnit=excluded.weightUnit,
  lengthValue=excluded.lengthValue,
  widthValue=excluded.widthValue,
  heightValue=excluded.heightValue,
  dimensionUnit=excluded.dimensionUnit,
  pieceCount=excluded.pieceCount,
  hazmat=excluded.hazmat,
  serviceType=excluded.serviceType,
  equipment=excluded.equipment,
  quoteDate=excluded.quoteDate,
  initialQuoteAmount=excluded.initialQuoteAmount,
  finalAgreedPrice=excluded.finalAgreedPrice,
  jobWon=excluded.jobWon,
  quoteStatus=excluded.quoteStatus,
  totalDistanceMiles=excluded.totalDistanceMiles
`, quoteArgs(q)...)
	return err
}

func (d *DB) InsertQuotes(quotes []internal.Quote) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO quotes (` + quoteColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, q := range quotes {
		if _, err := stmt.Exec(quoteArgs(q)...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func quoteArgs(q internal.Quote) []any {
	return []any{
		q.ID, q.CustomerName,
		q.OriginCity, q.OriginState, q.OriginCountry, q.OriginAddress,
		q.DestCity, q.DestState, q.DestCountry, q.DestAddress,
		q.CargoDescription, q.WeightValue, q.WeightUnit,
		q.LengthValue, q.WidthValue, q.HeightValue, q.DimensionUnit,
		q.PieceCount, q.Hazmat, q.ServiceType, q.Equipment,
		fmtTimePtr(q.QuoteDate), fmtTime(q.CreatedAt),
		q.InitialQuoteAmount, q.FinalAgreedPrice, q.JobWon, q.QuoteStatus,
		q.TotalDistanceMiles,
	}
}

func scanQuote(row interface{ Scan(...any) error }) (internal.Quote, error) {
	var q internal.Quote
	var quoteDate, createdAt *string
	err := row.Scan(
		&q.ID, &q.CustomerName,
		&q.OriginCity, &q.OriginState, &q.OriginCountry, &q.OriginAddress,
		&q.DestCity, &q.DestState, &q.DestCountry, &q.DestAddress,
		&q.CargoDescription, &q.WeightValue, &q.WeightUnit,
		&q.LengthValue, &q.WidthValue, &q.HeightValue, &q.DimensionUnit,
		&q.PieceCount, &q.Hazmat, &q.ServiceType, &q.Equipment,
		&quoteDate, &createdAt,
		&q.InitialQuoteAmount, &q.FinalAgreedPrice, &q.JobWon, &q.QuoteStatus,
		&q.TotalDistanceMiles,
	)
	if err != nil {
		return internal.Quote{}, err
	}
	q.QuoteDate = parseTimePtr(quoteDate)
	if t := parseTimePtr(createdAt); t != nil {
		q.CreatedAt = *t
	}
	return q, nil
}

func (d *DB) GetQuote(id string) (*internal.Quote, error) {
	q, err := scanQuote(d.conn.QueryRow(`SELECT `+quoteColumns+` FROM quotes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ListHistoricalQuotesWithPrice returns the candidate pool for matching:
// every quote carrying a usable price, excluding the one being priced.
func (d *DB) ListHistoricalQuotesWithPrice(excludeID string) ([]internal.Quote, error) {
	rows, err := d.conn.Query(`
SELECT `+quoteColumns+` FROM quotes
WHERE id != ?
  AND (COALESCE(finalAgreedPrice, 0) > 0 OR COALESCE(initialQuoteAmount, 0) > 0)
ORDER BY createdAt DESC
`, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (d *DB) ListQuotesByStatus(status string, limit int) ([]internal.Quote, error) {
	rows, err := d.conn.Query(`
SELECT `+quoteColumns+` FROM quotes WHERE status = ? ORDER BY createdAt ASC LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (d *DB) UpdateQuoteStatus(id, status string) error {
	_, err := d.conn.Exec(`UPDATE quotes SET status = ? WHERE id = ?`, status, id)
	return err
}

func (d *DB) BulkInsertMatches(matches []internal.Match) error {
	if len(matches) == 0 {
		return nil
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO matches (sourceQuoteId, matchedQuoteId, similarityScore, criteriaJson, suggestedPrice, priceConfidence, priceRangeLow, priceRangeHigh)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(sourceQuoteId, matchedQuoteId) DO UPDATE SET
  similarityScore=excluded.similarityScore,
  criteriaJson=excluded.criteriaJson,
  suggestedPrice=excluded.suggestedPrice,
  priceConfidence=excluded.priceConfidence,
  priceRangeLow=excluded.priceRangeLow,
  priceRangeHigh=excluded.priceRangeHigh,
  createdAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range matches {
		criteriaJSON, _ := json.Marshal(m.Criteria)
		if _, err := stmt.Exec(
			m.SourceQuoteID, m.MatchedQuoteID, m.SimilarityScore, string(criteriaJSON),
			m.SuggestedPrice, m.PriceConfidence, m.PriceRangeLow, m.PriceRangeHigh,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListMatchesForQuote(sourceQuoteID string) ([]internal.Match, error) {
	rows, err := d.conn.Query(`
SELECT sourceQuoteId, matchedQuoteId, similarityScore, criteriaJson, suggestedPrice, priceConfidence, priceRangeLow, priceRangeHigh
FROM matches WHERE sourceQuoteId = ? ORDER BY similarityScore DESC, matchedQuoteId ASC
`, sourceQuoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Match
	for rows.Next() {
		var m internal.Match
		var criteriaJSON string
		if err := rows.Scan(
			&m.SourceQuoteID, &m.MatchedQuoteID, &m.SimilarityScore, &criteriaJSON,
			&m.SuggestedPrice, &m.PriceConfidence, &m.PriceRangeLow, &m.PriceRangeHigh,
		); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(criteriaJSON), &m.Criteria)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (d *DB) SaveRecommendation(rec internal.PricingRecommendation) error {
	breakdownJSON, _ := json.Marshal(rec.Breakdown)
	factorsJSON, _ := json.Marshal(rec.MarketFactors)
	_, err := d.conn.Exec(`
INSERT INTO recommendations (id, quoteId, recommendedPrice, floorPrice, targetPrice, ceilingPrice, confidencePercentage, confidenceTier, method, reasoning, breakdownJson, marketFactorsJson, createdAt)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, rec.ID, rec.QuoteID, rec.RecommendedPrice, rec.FloorPrice, rec.TargetPrice, rec.CeilingPrice,
		rec.ConfidencePercentage, string(rec.ConfidenceTier), string(rec.Method), rec.Reasoning,
		string(breakdownJSON), string(factorsJSON), fmtTime(rec.CreatedAt))
	return err
}

func (d *DB) GetLatestRecommendation(quoteID string) (*internal.PricingRecommendation, error) {
	var rec internal.PricingRecommendation
	var tier, method, breakdownJSON, factorsJSON, createdAt string
	err := d.conn.QueryRow(`
SELECT id, quoteId, recommendedPrice, floorPrice, targetPrice, ceilingPrice, confidencePercentage, confidenceTier, method, reasoning, breakdownJson, marketFactorsJson, createdAt
FROM recommendations WHERE quoteId = ? ORDER BY createdAt DESC LIMIT 1
`, quoteID).Scan(
		&rec.ID, &rec.QuoteID, &rec.RecommendedPrice, &rec.FloorPrice, &rec.TargetPrice, &rec.CeilingPrice,
		&rec.ConfidencePercentage, &tier, &method, &rec.Reasoning, &breakdownJSON, &factorsJSON, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.ConfidenceTier = internal.ConfidenceTier(tier)
	rec.Method = internal.PricingMethod(method)
	_ = json.Unmarshal([]byte(breakdownJSON), &rec.Breakdown)
	_ = json.Unmarshal([]byte(factorsJSON), &rec.MarketFactors)
	if t := parseTimePtr(&createdAt); t != nil {
		rec.CreatedAt = *t
	}
	return &rec, nil
}

func (d *DB) InsertFeedback(quoteID string, positive bool, actualPriceUsed *float64) error {
	_, err := d.conn.Exec(`
INSERT INTO quote_feedback (quoteId, positive, actualPriceUsed) VALUES (?, ?, ?)
`, quoteID, positive, actualPriceUsed)
	return err
}

// FeedbackForQuotes aggregates ratings for a set of historical quote ids.
func (d *DB) FeedbackForQuotes(ids []string) (map[string]internal.FeedbackRecord, error) {
	out := map[string]internal.FeedbackRecord{}
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := d.conn.Query(`
SELECT quoteId, positive, actualPriceUsed FROM quote_feedback WHERE quoteId IN (`+placeholders+`)
`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var quoteID string
		var positive bool
		var actualPrice *float64
		if err := rows.Scan(&quoteID, &positive, &actualPrice); err != nil {
			return nil, err
		}
		rec := out[quoteID]
		rec.QuoteID = quoteID
		if positive {
			rec.PositiveCount++
		} else {
			rec.NegativeCount++
		}
		if actualPrice != nil && *actualPrice > 0 {
			rec.ActualPriceUsed++
			rec.ActualPrices = append(rec.ActualPrices, *actualPrice)
		}
		out[quoteID] = rec
	}
	return out, rows.Err()
}

// ListMatchFeedback joins persisted matches with the ratings their historical
// quotes received. One row per (match, rating) pair; input to the learner.
func (d *DB) ListMatchFeedback() ([]internal.MatchFeedback, error) {
	rows, err := d.conn.Query(`
SELECT m.matchedQuoteId, m.criteriaJson, f.positive
FROM matches m
JOIN quote_feedback f ON f.quoteId = m.matchedQuoteId
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.MatchFeedback
	for rows.Next() {
		var fb internal.MatchFeedback
		var criteriaJSON string
		if err := rows.Scan(&fb.MatchedQuoteID, &criteriaJSON, &fb.Positive); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(criteriaJSON), &fb.Criteria)
		out = append(out, fb)
	}
	return out, rows.Err()
}

func (d *DB) GetLearnedWeights() (map[string]float64, error) {
	var weightsJSON string
	err := d.conn.QueryRow(`SELECT weightsJson FROM learned_weights WHERE id = 1`).Scan(&weightsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var weights map[string]float64
	if err := json.Unmarshal([]byte(weightsJSON), &weights); err != nil {
		return nil, fmt.Errorf("corrupt learned weights: %w", err)
	}
	return weights, nil
}

func (d *DB) SaveLearnedWeights(weights map[string]float64) error {
	weightsJSON, err := json.Marshal(weights)
	if err != nil {
		return err
	}
	_, err = d.conn.Exec(`
INSERT INTO learned_weights (id, weightsJson) VALUES (1, ?)
ON CONFLICT(id) DO UPDATE SET weightsJson = excluded.weightsJson, updatedAt = CURRENT_TIMESTAMP
`, string(weightsJSON))
	return err
}

func (d *DB) InsertRun(stats internal.RunStats) error {
	timingsJSON, _ := json.Marshal(stats.Timings)
	countsJSON, _ := json.Marshal(stats.Counts)
	_, err := d.conn.Exec(`
INSERT INTO runs (traceId, quoteId, timingsJson, countsJson) VALUES (?, ?, ?, ?)
`, stats.TraceID, stats.QuoteID, string(timingsJSON), string(countsJSON))
	return err
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t.UTC().Format(time.RFC3339)
}

func fmtTimePtr(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func parseTimePtr(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, *s); err == nil {
			return &t
		}
	}
	return nil
}
