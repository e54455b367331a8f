package analytics

import (
	"fmt"
	"math"

	"github.com/veltasoft/worksuite/internal/app/domain/analytics"
	"github.com/veltasoft/worksuite/pkg/logger"
)

// minSeriesLen is the smallest series the statistics are meaningful on.
const minSeriesLen = 3

// ErrInsufficientData is returned when a series is too short to analyze.
var ErrInsufficientData = fmt.Errorf("at least %d data points are required", minSeriesLen)

var anomalyMessages = map[string]string{
	"en": "Anomalies detected",
	"es": "Anomalías detectadas",
	"pt": "Anomalias detectadas",
	"fr": "Anomalies détectées",
	"de": "Anomalien erkannt",
}

var forecastMessages = map[string]string{
	"en": "Metrics predicted",
	"es": "Métricas predichas",
	"pt": "Métricas previstas",
	"fr": "Métriques prévues",
	"de": "Metriken prognostiziert",
}

var sentimentMessages = map[string]string{
	"en": "Sentiment scored",
	"es": "Sentimiento evaluado",
	"pt": "Sentimento avaliado",
	"fr": "Sentiment évalué",
	"de": "Stimmung bewertet",
}

func localize(messages map[string]string, language string) string {
	if msg, ok := messages[language]; ok {
		return msg
	}
	return messages["en"]
}

// Service runs statistical analysis over tenant data. It is stateless;
// callers supply the series to score.
type Service struct {
	log *logger.Logger
}

// New constructs an analytics service.
func New(log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("analytics")
	}
	return &Service{log: log}
}

// DetectAnomalies flags outliers in the series using a modified z-score
// over the median absolute deviation. The jurisdiction picks the flagging
// threshold where one is defined for it; otherwise the caller's threshold
// applies, defaulting to 3.5.
func (s *Service) DetectAnomalies(series []float64, threshold float64, jurisdiction, language string) (analytics.AnomalyReport, error) {
	if len(series) < minSeriesLen {
		return analytics.AnomalyReport{}, ErrInsufficientData
	}
	if threshold <= 0 {
		threshold = 3.5
	}
	threshold = thresholdFor(jurisdiction, threshold)

	values, indexes := detectAnomalies(series, threshold)
	report := analytics.AnomalyReport{
		Anomalies: values,
		Indexes:   indexes,
		Count:     len(values),
		Threshold: threshold,
		Message:   fmt.Sprintf("%s: %d", localize(anomalyMessages, language), len(values)),
	}
	if report.Count > 0 {
		s.log.WithFields(map[string]interface{}{
			"count":        report.Count,
			"jurisdiction": jurisdiction,
		}).Warn("anomalies detected")
	}
	return report, nil
}

// Forecast projects the series forward using Holt double exponential
// smoothing. The jurisdiction selects the smoothing profile.
func (s *Service) Forecast(history []float64, steps int, jurisdiction, language string) (analytics.Forecast, error) {
	if len(history) < minSeriesLen {
		return analytics.Forecast{}, ErrInsufficientData
	}
	if steps <= 0 {
		steps = 1
	}

	values := holtForecast(history, steps, profileFor(jurisdiction))
	return analytics.Forecast{
		Values:  values,
		Message: localize(forecastMessages, language),
	}, nil
}

// Sentiment scores the polarity of the text. Risk carries the magnitude
// of negative sentiment and is zero for neutral or positive text.
func (s *Service) Sentiment(text, language string) analytics.Sentiment {
	polarity := scoreSentiment(text)
	risk := 0.0
	if polarity < 0 {
		risk = math.Abs(polarity)
	}
	return analytics.Sentiment{
		Polarity: polarity,
		Risk:     risk,
		Message:  localize(sentimentMessages, language),
	}
}
