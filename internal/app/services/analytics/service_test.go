package analytics

import (
	"errors"
	"math"
	"testing"
)

func TestDetectAnomaliesInsufficientData(t *testing.T) {
	svc := New(nil)
	if _, err := svc.DetectAnomalies([]float64{1, 2}, 0, "", "en"); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := svc.Forecast([]float64{1, 2}, 3, "", "en"); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestDetectAnomaliesFlagsOutlier(t *testing.T) {
	svc := New(nil)
	series := []float64{10, 12, 11, 13, 12, 95}

	report, err := svc.DetectAnomalies(series, 0, "", "en")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if report.Count != 1 {
		t.Fatalf("count %d, want 1", report.Count)
	}
	if report.Anomalies[0] != 95 || report.Indexes[0] != 5 {
		t.Fatalf("unexpected anomaly %v at %v", report.Anomalies, report.Indexes)
	}
	if report.Threshold != 3.5 {
		t.Fatalf("default threshold %v, want 3.5", report.Threshold)
	}
	if report.Message != "Anomalies detected: 1" {
		t.Fatalf("message %q", report.Message)
	}
}

func TestDetectAnomaliesCleanSeries(t *testing.T) {
	svc := New(nil)

	report, err := svc.DetectAnomalies([]float64{10, 11, 12, 11, 10}, 0, "", "en")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if report.Count != 0 || len(report.Anomalies) != 0 {
		t.Fatalf("unexpected anomalies %+v", report)
	}
}

func TestJurisdictionThresholds(t *testing.T) {
	svc := New(nil)
	series := []float64{10, 12, 11, 13, 12, 95}

	cases := map[string]float64{
		"EU":   3.0,
		"AR":   4.0,
		"ASIA": 3.2,
	}
	for jurisdiction, want := range cases {
		report, err := svc.DetectAnomalies(series, 2.5, jurisdiction, "en")
		if err != nil {
			t.Fatalf("%s: %v", jurisdiction, err)
		}
		if report.Threshold != want {
			t.Fatalf("%s threshold %v, want %v", jurisdiction, report.Threshold, want)
		}
	}

	// Unknown jurisdictions keep the caller's threshold.
	report, err := svc.DetectAnomalies(series, 2.5, "XX", "en")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if report.Threshold != 2.5 {
		t.Fatalf("threshold %v, want 2.5", report.Threshold)
	}
}

func TestAnomalyMessageLocalization(t *testing.T) {
	svc := New(nil)
	series := []float64{10, 12, 11, 13, 12, 95}

	es, _ := svc.DetectAnomalies(series, 0, "", "es")
	if es.Message != "Anomalías detectadas: 1" {
		t.Fatalf("es message %q", es.Message)
	}

	// Unsupported languages fall back to English.
	it, _ := svc.DetectAnomalies(series, 0, "", "it")
	if it.Message != "Anomalies detected: 1" {
		t.Fatalf("fallback message %q", it.Message)
	}
}

func TestForecastLinearTrend(t *testing.T) {
	svc := New(nil)

	fc, err := svc.Forecast([]float64{1, 2, 3, 4}, 3, "", "en")
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(fc.Values) != 3 {
		t.Fatalf("got %d values, want 3", len(fc.Values))
	}
	// Holt smoothing tracks a clean linear trend exactly.
	for i, want := range []float64{5, 6, 7} {
		if math.Abs(fc.Values[i]-want) > 1e-9 {
			t.Fatalf("value %d = %v, want %v", i, fc.Values[i], want)
		}
	}
	if fc.Message != "Metrics predicted" {
		t.Fatalf("message %q", fc.Message)
	}
}

func TestForecastProfiles(t *testing.T) {
	svc := New(nil)
	history := []float64{10, 14, 9, 16, 8, 15}

	stable, err := svc.Forecast(history, 1, "DE", "en")
	if err != nil {
		t.Fatalf("stable: %v", err)
	}
	volatile, err := svc.Forecast(history, 1, "BR", "en")
	if err != nil {
		t.Fatalf("volatile: %v", err)
	}
	if stable.Values[0] == volatile.Values[0] {
		t.Fatalf("profiles produced identical forecasts: %v", stable.Values[0])
	}

	// Zero or negative steps forecast a single value.
	one, err := svc.Forecast(history, 0, "", "en")
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(one.Values) != 1 {
		t.Fatalf("got %d values, want 1", len(one.Values))
	}
}

func TestSentiment(t *testing.T) {
	svc := New(nil)

	neg := svc.Sentiment("the rollout was terrible and broken", "en")
	if neg.Polarity >= 0 {
		t.Fatalf("polarity %v, want negative", neg.Polarity)
	}
	if math.Abs(neg.Risk-math.Abs(neg.Polarity)) > 1e-9 {
		t.Fatalf("risk %v does not match polarity %v", neg.Risk, neg.Polarity)
	}

	pos := svc.Sentiment("excellent support, very helpful", "en")
	if pos.Polarity <= 0 || pos.Risk != 0 {
		t.Fatalf("unexpected positive scoring %+v", pos)
	}

	neutral := svc.Sentiment("the quarterly report", "en")
	if neutral.Polarity != 0 || neutral.Risk != 0 {
		t.Fatalf("unexpected neutral scoring %+v", neutral)
	}

	negated := svc.Sentiment("the service was not good", "en")
	if negated.Polarity >= 0 {
		t.Fatalf("negation not applied: %+v", negated)
	}

	es := svc.Sentiment("terrible", "es")
	if es.Message != "Sentimiento evaluado" {
		t.Fatalf("message %q", es.Message)
	}
}
