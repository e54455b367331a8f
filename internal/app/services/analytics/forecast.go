package analytics

// smoothingProfile holds Holt double-exponential-smoothing factors. Stable
// jurisdictions weight history more heavily than recent movement.
type smoothingProfile struct {
	alpha float64 // level
	beta  float64 // trend
}

var (
	profileStable   = smoothingProfile{alpha: 0.3, beta: 0.1}
	profileVolatile = smoothingProfile{alpha: 0.6, beta: 0.3}
)

// stableJurisdictions get the conservative smoothing profile.
var stableJurisdictions = map[string]bool{
	"UK": true,
	"DE": true,
	"FR": true,
	"EU": true,
}

func profileFor(jurisdiction string) smoothingProfile {
	if stableJurisdictions[jurisdiction] {
		return profileStable
	}
	return profileVolatile
}

// holtForecast projects steps future values using double exponential
// smoothing over the history. The history must have at least two points.
func holtForecast(history []float64, steps int, p smoothingProfile) []float64 {
	level := history[0]
	trend := history[1] - history[0]

	for _, v := range history[1:] {
		prevLevel := level
		level = p.alpha*v + (1-p.alpha)*(level+trend)
		trend = p.beta*(level-prevLevel) + (1-p.beta)*trend
	}

	out := make([]float64, steps)
	for i := 0; i < steps; i++ {
		out[i] = level + float64(i+1)*trend
	}
	return out
}
