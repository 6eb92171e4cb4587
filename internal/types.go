package internal

import "time"

type ServiceCategory string

const (
	ServiceGround     ServiceCategory = "GROUND"
	ServiceDrayage    ServiceCategory = "DRAYAGE"
	ServiceOcean      ServiceCategory = "OCEAN"
	ServiceIntermodal ServiceCategory = "INTERMODAL"
	ServiceTransload  ServiceCategory = "TRANSLOAD"
	ServiceAir        ServiceCategory = "AIR"
	ServiceStorage    ServiceCategory = "STORAGE"
	ServiceUnknown    ServiceCategory = "UNKNOWN"
)

type CargoCategory string

const (
	CargoMachinery    CargoCategory = "MACHINERY"
	CargoVehicles     CargoCategory = "VEHICLES"
	CargoContainers   CargoCategory = "CONTAINERS"
	CargoIndustrial   CargoCategory = "INDUSTRIAL"
	CargoAgricultural CargoCategory = "AGRICULTURAL"
	CargoOversized    CargoCategory = "OVERSIZED"
	CargoHazmat       CargoCategory = "HAZMAT"
	CargoGeneral      CargoCategory = "GENERAL"
	CargoUnknown      CargoCategory = "UNKNOWN"
)

type WeightClass string

const (
	WeightLight      WeightClass = "LIGHT"
	WeightMedium     WeightClass = "MEDIUM"
	WeightHeavy      WeightClass = "HEAVY"
	WeightOverweight WeightClass = "OVERWEIGHT"
	WeightSuperload  WeightClass = "SUPERLOAD"
	WeightProject    WeightClass = "PROJECT"
	WeightUnknown    WeightClass = "UNKNOWN"
)

type EquipmentType string

const (
	EquipFlatbed  EquipmentType = "FLATBED"
	EquipStepDeck EquipmentType = "STEP_DECK"
	EquipLowboy   EquipmentType = "LOWBOY"
	EquipDryVan   EquipmentType = "DRY_VAN"
	EquipReefer   EquipmentType = "REEFER"
	EquipChassis  EquipmentType = "CHASSIS"
	EquipUnknown  EquipmentType = "UNKNOWN"
)

type ContainerType string

const (
	ContainerStandard20 ContainerType = "STANDARD_20"
	ContainerStandard40 ContainerType = "STANDARD_40"
	ContainerHighCube   ContainerType = "HIGH_CUBE"
	ContainerOpenTop    ContainerType = "OPEN_TOP"
	ContainerFlatRack   ContainerType = "FLAT_RACK"
	ContainerUnknown    ContainerType = "UNKNOWN"
)

type Quote struct {
	ID            string
	CustomerName  *string
	OriginCity    *string
	OriginState   *string
	OriginCountry *string
	OriginAddress *string
	DestCity      *string
	DestState     *string
	DestCountry   *string
	DestAddress   *string

	CargoDescription *string
	WeightValue      *float64
	WeightUnit       *string
	LengthValue      *float64
	WidthValue       *float64
	HeightValue      *float64
	DimensionUnit    *string
	PieceCount       *int
	Hazmat           bool

	ServiceType *string
	Equipment   *string

	QuoteDate *time.Time
	CreatedAt time.Time

	InitialQuoteAmount *float64
	FinalAgreedPrice   *float64
	JobWon             *bool
	QuoteStatus        *string

	TotalDistanceMiles *float64
}

// EffectivePrice prefers the customer-accepted final price over the
// initially quoted amount.
func (q Quote) EffectivePrice() *float64 {
	if q.FinalAgreedPrice != nil && *q.FinalAgreedPrice > 0 {
		return q.FinalAgreedPrice
	}
	if q.InitialQuoteAmount != nil && *q.InitialQuoteAmount > 0 {
		return q.InitialQuoteAmount
	}
	return nil
}

func (q Quote) EffectiveDate() *time.Time {
	if q.QuoteDate != nil && !q.QuoteDate.IsZero() {
		return q.QuoteDate
	}
	if !q.CreatedAt.IsZero() {
		t := q.CreatedAt
		return &t
	}
	return nil
}

// NormalizedAttributes is derived per comparison, never stored: the
// distance-based service correction depends on the pairing.
type NormalizedAttributes struct {
	ServiceCategory ServiceCategory
	Region          string
	DestRegion      string
	CargoCategory   CargoCategory
	EquipmentType   EquipmentType
	WeightClass     WeightClass
	WeightLbs       *float64
	ContainerType   ContainerType
	IsOutOfGauge    bool
	International   bool
}

type MatchCriteria map[string]float64

type Match struct {
	SourceQuoteID   string        `json:"sourceQuoteId"`
	MatchedQuoteID  string        `json:"matchedQuoteId"`
	SimilarityScore float64       `json:"similarityScore"`
	Criteria        MatchCriteria `json:"criteria"`
	SuggestedPrice  float64       `json:"suggestedPrice"`
	PriceConfidence float64       `json:"priceConfidence"`
	PriceRangeLow   float64       `json:"priceRangeLow"`
	PriceRangeHigh  float64       `json:"priceRangeHigh"`

	MatchedQuote *Quote `json:"-"`
}

type PricingMethod string

const (
	MethodStatistical PricingMethod = "statistical"
	MethodRateCard    PricingMethod = "rate_card"
	MethodAIBlend     PricingMethod = "ai_blend"
)

type ConfidenceTier string

const (
	ConfidenceHigh    ConfidenceTier = "HIGH"
	ConfidenceMedium  ConfidenceTier = "MEDIUM"
	ConfidenceLow     ConfidenceTier = "LOW"
	ConfidenceVeryLow ConfidenceTier = "VERY_LOW"
)

type PricingRecommendation struct {
	ID                   string             `json:"id"`
	QuoteID              string             `json:"quoteId"`
	RecommendedPrice     float64            `json:"recommendedPrice"`
	FloorPrice           float64            `json:"floorPrice"`
	TargetPrice          float64            `json:"targetPrice"`
	CeilingPrice         float64            `json:"ceilingPrice"`
	ConfidencePercentage float64            `json:"confidencePercentage"`
	ConfidenceTier       ConfidenceTier     `json:"confidenceTier"`
	Method               PricingMethod      `json:"method"`
	Reasoning            string             `json:"reasoning"`
	Breakdown            map[string]float64 `json:"breakdown"`
	MarketFactors        map[string]string  `json:"marketFactors"`
	CreatedAt            time.Time          `json:"createdAt"`
}

// FeedbackRecord aggregates persisted ratings for one historical quote.
type FeedbackRecord struct {
	QuoteID         string
	PositiveCount   int
	NegativeCount   int
	ActualPriceUsed int
	ActualPrices    []float64
}

// MatchFeedback pairs a persisted match's criteria breakdown with the
// rating its historical quote later received. Input to the weight learner.
type MatchFeedback struct {
	MatchedQuoteID string
	Criteria       MatchCriteria
	Positive       bool
}

type RouteDistance struct {
	Miles        float64 `json:"miles"`
	Km           float64 `json:"km"`
	DurationText string  `json:"durationText"`
}

type Validation struct {
	Valid        bool
	QualityScore float64
	Warnings     []string
}

type RunStats struct {
	TraceID string
	QuoteID string
	Timings map[string]float64
	Counts  map[string]int
}
