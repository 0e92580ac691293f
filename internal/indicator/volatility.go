package indicator

import (
	"fmt"
	"math"

	"VolaPulse/internal/domain/models"
	"VolaPulse/internal/domain/repository"
)

// tradingDays is the annualization factor for historical volatility.
const tradingDays = 252

// Config holds the indicator windows. Zero values are filled by Default.
type Config struct {
	BollingerWindow int
	BollingerStd    float64
	ATRWindow       int
	StdWindow       int
	HVWindow        int
	KeltnerWindow   int
	KeltnerFactor   float64
	ChaikinWindow   int
	DonchianWindow  int
}

// Default returns the stock indicator windows.
func Default() Config {
	return Config{
		BollingerWindow: 20,
		BollingerStd:    2,
		ATRWindow:       14,
		StdWindow:       20,
		HVWindow:        20,
		KeltnerWindow:   20,
		KeltnerFactor:   2,
		ChaikinWindow:   10,
		DonchianWindow:  20,
	}
}

// Engine computes the volatility indicator set over a price series.
// Analyze is pure: same input, bit-identical output.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// MinLen returns the shortest series length every indicator can run on.
func (e *Engine) MinLen() int {
	min := e.cfg.BollingerWindow
	for _, n := range []int{
		e.cfg.ATRWindow + 1,
		e.cfg.StdWindow,
		e.cfg.HVWindow + 1,
		e.cfg.KeltnerWindow + 1, // Keltner embeds an ATR over its own window
		e.cfg.ChaikinWindow * 2,
		e.cfg.DonchianWindow,
	} {
		if n > min {
			min = n
		}
	}
	return min
}

// Analyze runs every indicator over the series and assembles the result.
func (e *Engine) Analyze(symbol string, data models.Series) (*models.AnalysisResult, error) {
	bb, err := e.BollingerBands(data.ClosePrices)
	if err != nil {
		return nil, err
	}
	atr, err := e.ATR(data.Highs, data.Lows, data.ClosePrices, e.cfg.ATRWindow)
	if err != nil {
		return nil, err
	}
	std, err := e.StdDev(data.ClosePrices)
	if err != nil {
		return nil, err
	}
	hv, err := e.HistoricalVolatility(data.ClosePrices)
	if err != nil {
		return nil, err
	}
	kc, err := e.KeltnerChannels(data.Highs, data.Lows, data.ClosePrices)
	if err != nil {
		return nil, err
	}
	cv, err := e.ChaikinVolatility(data.Highs, data.Lows)
	if err != nil {
		return nil, err
	}
	dc, err := e.DonchianChannels(data.Highs, data.Lows)
	if err != nil {
		return nil, err
	}

	return &models.AnalysisResult{
		Symbol:               symbol,
		AnalysisType:         models.AnalysisTypeVolatility,
		BollingerBands:       bb,
		ATR:                  atr,
		StdDev:               std,
		HistoricalVolatility: hv,
		KeltnerChannels:      kc,
		ChaikinVolatility:    cv,
		DonchianChannels:     dc,
	}, nil
}

// BollingerBands computes the SMA band set over the trailing window.
// The band width uses the sample standard deviation.
func (e *Engine) BollingerBands(prices []float64) (models.BollingerBands, error) {
	w := e.cfg.BollingerWindow
	if len(prices) < w {
		return models.BollingerBands{}, fmt.Errorf("bollinger bands: need %d prices, got %d", w, len(prices))
	}
	win := prices[len(prices)-w:]
	sma := mean(win)
	std := sampleStd(win)
	k := e.cfg.BollingerStd
	lower := sma - k*std
	return models.BollingerBands{
		SMA:       round4(sma),
		UpperBand: round4(sma + k*std),
		LowerBand: round4(lower),
		PercentB:  round4((win[len(win)-1] - lower) / (2 * k * std)),
	}, nil
}

// ATR averages the true range over the first window bars after the opener.
func (e *Engine) ATR(highs, lows, closes []float64, window int) (float64, error) {
	if len(closes) < window+1 {
		return 0, fmt.Errorf("atr: need %d closes, got %d", window+1, len(closes))
	}
	sum := 0.0
	for i := 1; i <= window; i++ {
		tr := math.Max(highs[i]-lows[i],
			math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])))
		sum += tr
	}
	return round4(sum / float64(window)), nil
}

// StdDev is the population standard deviation over the trailing window.
func (e *Engine) StdDev(prices []float64) (float64, error) {
	w := e.cfg.StdWindow
	if len(prices) < w {
		return 0, fmt.Errorf("stddev: need %d prices, got %d", w, len(prices))
	}
	return round4(popStd(prices[len(prices)-w:])), nil
}

// HistoricalVolatility is the annualized stddev of log returns over the
// trailing window.
func (e *Engine) HistoricalVolatility(prices []float64) (float64, error) {
	w := e.cfg.HVWindow
	if len(prices) < w+1 {
		return 0, fmt.Errorf("historical volatility: need %d prices, got %d", w+1, len(prices))
	}
	tail := prices[len(prices)-(w+1):]
	returns := make([]float64, w)
	for i := 1; i < len(tail); i++ {
		returns[i-1] = math.Log(tail[i]) - math.Log(tail[i-1])
	}
	return round4(popStd(returns) * math.Sqrt(tradingDays)), nil
}

// KeltnerChannels bands an exponentially weighted close around its ATR.
func (e *Engine) KeltnerChannels(highs, lows, closes []float64) (models.KeltnerChannels, error) {
	w := e.cfg.KeltnerWindow
	if len(closes) < w || len(highs) < w || len(lows) < w {
		return models.KeltnerChannels{}, fmt.Errorf("keltner channels: need %d bars, got %d", w, len(closes))
	}
	ema := ewmLast(closes[len(closes)-w:], w)
	atr, err := e.ATR(highs, lows, closes, w)
	if err != nil {
		return models.KeltnerChannels{}, fmt.Errorf("keltner channels: %w", err)
	}
	f := e.cfg.KeltnerFactor
	return models.KeltnerChannels{
		EMA:          round4(ema),
		UpperChannel: round4(ema + f*atr),
		LowerChannel: round4(ema - f*atr),
	}, nil
}

// ChaikinVolatility is the rate of change of the smoothed high-low range.
func (e *Engine) ChaikinVolatility(highs, lows []float64) (float64, error) {
	w := e.cfg.ChaikinWindow
	if len(highs) < w*2 || len(lows) < w*2 {
		return 0, fmt.Errorf("chaikin volatility: need %d bars, got %d", w*2, len(highs))
	}
	hl := make([]float64, len(highs))
	for i := range highs {
		hl[i] = highs[i] - lows[i]
	}
	ema := ewmSeries(hl, w)
	prev := ema[len(ema)-1-w]
	return round4((ema[len(ema)-1] - prev) / prev * 100), nil
}

// DonchianChannels are the extremes over the trailing window.
func (e *Engine) DonchianChannels(highs, lows []float64) (models.DonchianChannels, error) {
	w := e.cfg.DonchianWindow
	if len(highs) < w || len(lows) < w {
		return models.DonchianChannels{}, fmt.Errorf("donchian channels: need %d bars, got %d", w, len(highs))
	}
	upper := highs[len(highs)-w]
	for _, h := range highs[len(highs)-w:] {
		if h > upper {
			upper = h
		}
	}
	lower := lows[len(lows)-w]
	for _, l := range lows[len(lows)-w:] {
		if l < lower {
			lower = l
		}
	}
	return models.DonchianChannels{
		UpperChannel: round4(upper),
		LowerChannel: round4(lower),
	}, nil
}

// round4 rounds to exactly 4 decimal places.
func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStd divides by n-1 (Bessel correction).
func sampleStd(xs []float64) float64 {
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

// popStd divides by n.
func popStd(xs []float64) float64 {
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

// ewmSeries computes an exponentially weighted mean with decaying-window
// weighting: each point is the weighted average of everything seen so far
// with weights (1-alpha)^age, alpha = 2/(span+1).
func ewmSeries(xs []float64, span int) []float64 {
	alpha := 2.0 / (float64(span) + 1)
	out := make([]float64, len(xs))
	num, den := 0.0, 0.0
	for i, x := range xs {
		num = x + (1-alpha)*num
		den = 1 + (1-alpha)*den
		out[i] = num / den
	}
	return out
}

// ewmLast returns the final value of ewmSeries without keeping the series.
func ewmLast(xs []float64, span int) float64 {
	alpha := 2.0 / (float64(span) + 1)
	num, den := 0.0, 0.0
	for _, x := range xs {
		num = x + (1-alpha)*num
		den = 1 + (1-alpha)*den
	}
	return num / den
}

var _ repository.Analyzer = (*Engine)(nil)
