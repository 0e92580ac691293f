package models

// AnalysisTypeVolatility is the analysis_type value stamped on every result.
const AnalysisTypeVolatility = "volatility"

// AnalysisRequest is the inbound message schema.
type AnalysisRequest struct {
	Symbol    string `json:"symbol" validate:"required"`
	Data      Series `json:"data" validate:"required"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Series holds the parallel numeric sequences an analysis runs over.
type Series struct {
	ClosePrices []float64 `json:"close_prices" validate:"required,min=1"`
	Highs       []float64 `json:"highs" validate:"required,min=1"`
	Lows        []float64 `json:"lows" validate:"required,min=1"`
}

// Len returns the series length (the close price count).
func (s Series) Len() int { return len(s.ClosePrices) }

// Consistent reports whether all three sequences have equal length.
func (s Series) Consistent() bool {
	return len(s.ClosePrices) == len(s.Highs) && len(s.Highs) == len(s.Lows)
}

// BollingerBands is the Bollinger Bands sub-record.
type BollingerBands struct {
	SMA       float64 `json:"sma"`
	UpperBand float64 `json:"upper_band"`
	LowerBand float64 `json:"lower_band"`
	PercentB  float64 `json:"percent_b"`
}

// KeltnerChannels is the Keltner Channels sub-record.
type KeltnerChannels struct {
	EMA          float64 `json:"ema"`
	UpperChannel float64 `json:"upper_channel"`
	LowerChannel float64 `json:"lower_channel"`
}

// DonchianChannels is the Donchian Channels sub-record.
type DonchianChannels struct {
	UpperChannel float64 `json:"upper_channel"`
	LowerChannel float64 `json:"lower_channel"`
}

// AnalysisResult is the outbound message schema. Produced once per request,
// immutable after construction. All numeric fields are rounded to 4 decimals.
type AnalysisResult struct {
	Symbol               string           `json:"symbol"`
	AnalysisType         string           `json:"analysis_type"`
	BollingerBands       BollingerBands   `json:"bollinger_bands"`
	ATR                  float64          `json:"atr"`
	StdDev               float64          `json:"stddev"`
	HistoricalVolatility float64          `json:"historical_volatility"`
	KeltnerChannels      KeltnerChannels  `json:"keltner_channels"`
	ChaikinVolatility    float64          `json:"chaikin_volatility"`
	DonchianChannels     DonchianChannels `json:"donchian_channels"`
}
