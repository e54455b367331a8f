package analytics

// AnomalyReport is the result of anomaly detection over a numeric series.
// Indexes refer to positions in the input series.
type AnomalyReport struct {
	Anomalies []float64 `json:"anomalies"`
	Indexes   []int     `json:"indexes"`
	Count     int       `json:"count"`
	Threshold float64   `json:"threshold"`
	Message   string    `json:"message"`
}

// Forecast is a trend-aware projection of future values.
type Forecast struct {
	Values  []float64 `json:"values"`
	Message string    `json:"message"`
}

// Sentiment is a polarity score in [-1, 1]. Risk is |polarity| for negative
// text and 0 otherwise.
type Sentiment struct {
	Polarity float64 `json:"polarity"`
	Risk     float64 `json:"risk"`
	Message  string  `json:"message"`
}
