package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"freightmatch/internal"
	"freightmatch/internal/storage"
)

type quoteRecord struct {
	ID            string  `json:"id"`
	CustomerName  *string `json:"customerName"`
	OriginCity    *string `json:"originCity"`
	OriginState   *string `json:"originState"`
	OriginCountry *string `json:"originCountry"`
	OriginAddress *string `json:"originAddress"`
	DestCity      *string `json:"destCity"`
	DestState     *string `json:"destState"`
	DestCountry   *string `json:"destCountry"`
	DestAddress   *string `json:"destAddress"`

	CargoDescription *string  `json:"cargoDescription"`
	WeightValue      *float64 `json:"weightValue"`
	WeightUnit       *string  `json:"weightUnit"`
	LengthValue      *float64 `json:"lengthValue"`
	WidthValue       *float64 `json:"widthValue"`
	HeightValue      *float64 `json:"heightValue"`
	DimensionUnit    *string  `json:"dimensionUnit"`
	PieceCount       *int     `json:"pieceCount"`
	Hazmat           bool     `json:"hazmat"`

	ServiceType *string `json:"serviceType"`
	Equipment   *string `json:"equipment"`

	QuoteDate *string `json:"quoteDate"`
	CreatedAt *string `json:"createdAt"`

	InitialQuoteAmount *float64 `json:"initialQuoteAmount"`
	FinalAgreedPrice   *float64 `json:"finalAgreedPrice"`
	JobWon             *bool    `json:"jobWon"`
	QuoteStatus        *string  `json:"quoteStatus"`

	TotalDistanceMiles *float64 `json:"totalDistanceMiles"`
}

// ImportQuotesJSON loads a JSON array of quote records into the database.
// Records without an id get one assigned. Existing ids are left untouched.
func ImportQuotesJSON(db *storage.DB, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var records []quoteRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}

	quotes := make([]internal.Quote, 0, len(records))
	for _, rec := range records {
		quotes = append(quotes, toQuote(rec))
	}

	if err := db.InsertQuotes(quotes); err != nil {
		return 0, err
	}
	return len(quotes), nil
}

func toQuote(rec quoteRecord) internal.Quote {
	q := internal.Quote{
		ID:            strings.TrimSpace(rec.ID),
		CustomerName:  rec.CustomerName,
		OriginCity:    rec.OriginCity,
		OriginState:   rec.OriginState,
		OriginCountry: rec.OriginCountry,
		OriginAddress: rec.OriginAddress,
		DestCity:      rec.DestCity,
		DestState:     rec.DestState,
		DestCountry:   rec.DestCountry,
		DestAddress:   rec.DestAddress,

		CargoDescription: rec.CargoDescription,
		WeightValue:      rec.WeightValue,
		WeightUnit:       rec.WeightUnit,
		LengthValue:      rec.LengthValue,
		WidthValue:       rec.WidthValue,
		HeightValue:      rec.HeightValue,
		DimensionUnit:    rec.DimensionUnit,
		PieceCount:       rec.PieceCount,
		Hazmat:           rec.Hazmat,

		ServiceType: rec.ServiceType,
		Equipment:   rec.Equipment,

		InitialQuoteAmount: rec.InitialQuoteAmount,
		FinalAgreedPrice:   rec.FinalAgreedPrice,
		JobWon:             rec.JobWon,
		QuoteStatus:        rec.QuoteStatus,

		TotalDistanceMiles: rec.TotalDistanceMiles,
	}

	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	q.QuoteDate = parseDate(rec.QuoteDate)
	if t := parseDate(rec.CreatedAt); t != nil {
		q.CreatedAt = *t
	} else {
		q.CreatedAt = time.Now().UTC()
	}
	return q
}

func parseDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	value := strings.TrimSpace(*s)
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02", "01/02/2006"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

// QuoteFromJSON decodes one quote record from an API payload.
func QuoteFromJSON(raw []byte) (internal.Quote, error) {
	var rec quoteRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return internal.Quote{}, err
	}
	return toQuote(rec), nil
}
