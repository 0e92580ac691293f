package indicator

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"VolaPulse/internal/domain/models"
)

// linearSeries builds n bars with closes rising by step from start, highs one
// above the close and lows one below.
func linearSeries(start, step float64, n int) models.Series {
	s := models.Series{
		ClosePrices: make([]float64, n),
		Highs:       make([]float64, n),
		Lows:        make([]float64, n),
	}
	for i := 0; i < n; i++ {
		c := start + step*float64(i)
		s.ClosePrices[i] = c
		s.Highs[i] = c + 1
		s.Lows[i] = c - 1
	}
	return s
}

func TestAnalyzeLinearSeries(t *testing.T) {
	e := NewEngine(Default())
	// 21 closes rising linearly from 100 to 120.
	s := linearSeries(100, 1, 21)

	got, err := e.Analyze("AAPL", s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Symbol != "AAPL" {
		t.Fatalf("unexpected symbol %q", got.Symbol)
	}
	if got.AnalysisType != "volatility" {
		t.Fatalf("unexpected analysis type %q", got.AnalysisType)
	}

	// SMA over the last 20 closes (101..120).
	if got.BollingerBands.SMA != 110.5 {
		t.Fatalf("sma = %v, want 110.5", got.BollingerBands.SMA)
	}
	// Donchian over the last 20 highs (102..121) and lows (100..119).
	if got.DonchianChannels.UpperChannel != 121 {
		t.Fatalf("donchian upper = %v, want 121", got.DonchianChannels.UpperChannel)
	}
	if got.DonchianChannels.LowerChannel != 100 {
		t.Fatalf("donchian lower = %v, want 100", got.DonchianChannels.LowerChannel)
	}
	// Every true range of a 1-step linear walk with ±1 bands is 2.
	if got.ATR != 2 {
		t.Fatalf("atr = %v, want 2", got.ATR)
	}
	// Population stddev of 20 consecutive integers.
	if got.StdDev != 5.7663 {
		t.Fatalf("stddev = %v, want 5.7663", got.StdDev)
	}

	for name, v := range map[string]float64{
		"bollinger.upper":  got.BollingerBands.UpperBand,
		"bollinger.lower":  got.BollingerBands.LowerBand,
		"bollinger.pct_b":  got.BollingerBands.PercentB,
		"hist_vol":         got.HistoricalVolatility,
		"keltner.ema":      got.KeltnerChannels.EMA,
		"keltner.upper":    got.KeltnerChannels.UpperChannel,
		"keltner.lower":    got.KeltnerChannels.LowerChannel,
		"chaikin":          got.ChaikinVolatility,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("%s is not finite: %v", name, v)
		}
		// Rounded to 4 decimal places exactly.
		if math.Round(v*1e4)/1e4 != v {
			t.Fatalf("%s not rounded to 4 decimals: %v", name, v)
		}
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	e := NewEngine(Default())
	s := linearSeries(50, 0.5, 40)

	first, err := e.Analyze("MSFT", s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := e.Analyze("MSFT", s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ between runs:\n%+v\n%+v", first, second)
	}
}

func TestAnalyzeShortSeries(t *testing.T) {
	e := NewEngine(Default())
	s := linearSeries(100, 1, 10)

	if _, err := e.Analyze("AAPL", s); err == nil {
		t.Fatalf("expected error for short series")
	}
}

func TestIndicatorLengthChecks(t *testing.T) {
	e := NewEngine(Default())
	short := linearSeries(100, 1, 5)

	if _, err := e.BollingerBands(short.ClosePrices); err == nil || !strings.Contains(err.Error(), "bollinger") {
		t.Fatalf("expected bollinger length error, got %v", err)
	}
	if _, err := e.ATR(short.Highs, short.Lows, short.ClosePrices, 14); err == nil || !strings.Contains(err.Error(), "atr") {
		t.Fatalf("expected atr length error, got %v", err)
	}
	if _, err := e.StdDev(short.ClosePrices); err == nil {
		t.Fatalf("expected stddev length error")
	}
	if _, err := e.HistoricalVolatility(short.ClosePrices); err == nil {
		t.Fatalf("expected historical volatility length error")
	}
	if _, err := e.KeltnerChannels(short.Highs, short.Lows, short.ClosePrices); err == nil {
		t.Fatalf("expected keltner length error")
	}
	if _, err := e.ChaikinVolatility(short.Highs, short.Lows); err == nil {
		t.Fatalf("expected chaikin length error")
	}
	if _, err := e.DonchianChannels(short.Highs, short.Lows); err == nil {
		t.Fatalf("expected donchian length error")
	}
}

func TestMinLen(t *testing.T) {
	e := NewEngine(Default())
	// Keltner's embedded ATR over its 20-bar window needs 21 bars.
	if got := e.MinLen(); got != 21 {
		t.Fatalf("minlen = %d, want 21", got)
	}

	ok := linearSeries(100, 1, e.MinLen())
	if _, err := e.Analyze("AAPL", ok); err != nil {
		t.Fatalf("series at minlen should analyze, got %v", err)
	}
}

func TestBollingerFlatSeries(t *testing.T) {
	e := NewEngine(Default())
	flat := make([]float64, 25)
	for i := range flat {
		flat[i] = 100
	}
	// Sample stddev of a flat window is zero, percent_b divides by it.
	bb, err := e.BollingerBands(flat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bb.SMA != 100 || bb.UpperBand != 100 || bb.LowerBand != 100 {
		t.Fatalf("flat series bands = %+v", bb)
	}
}
