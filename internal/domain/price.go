package domain

// PriceSample is one point of an asset's time series as returned by the
// price feed. The series is sparse and irregular; samples are ordered
// ascending by timestamp.
type PriceSample struct {
	Symbol    string  // asset symbol the sample belongs to
	Timestamp int64   // unix seconds
	Open      float64 // opening price of the interval
	High      float64 // highest price of the interval
	Low       float64 // lowest price of the interval
	Close     float64 // closing price of the interval
}

// Estimate derives a single representative price from the OHLC quad.
func (s *PriceSample) Estimate() float64 {
	return (s.Open + s.High + s.Low + s.Close) / 4
}
