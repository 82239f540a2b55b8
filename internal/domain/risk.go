package domain

import (
	"math"
	"sort"
)

const (
	// MaxRiskLevel is the top of the 0-8 severity scale.
	MaxRiskLevel = 8

	defaultRecommendation = "Monitor weather updates."

	// Marikina River valley modifier. The threshold is exclusive.
	marikinaRainfallThreshold = 100.0
	marikinaSuffix            = " (Higher risk due to Marikina River proximity)"
)

// RiskAssessment is the classifier output for one city and rainfall value.
type RiskAssessment struct {
	RiskLevel              int      `json:"riskLevel"`
	RiskDescription        string   `json:"riskDescription"`
	PredictedFloodDepth    float64  `json:"predictedFloodDepth"` // meters
	AffectedInfrastructure []string `json:"affectedInfrastructure"`
	Recommendation         string   `json:"recommendation"`
}

// riskBucket is one row of the rainfall table. minRainfall is inclusive.
// An empty recommendation keeps defaultRecommendation.
type riskBucket struct {
	minRainfall    float64
	level          int
	depth          float64
	description    string
	infrastructure []string
	recommendation string
}

// riskBuckets must stay sorted by minRainfall.
var riskBuckets = []riskBucket{
	{
		minRainfall: math.Inf(-1),
		level:       1,
		depth:       0.1,
		description: "Minimal Risk: Normal rainfall levels.",
	},
	{
		minRainfall:    50,
		level:          3,
		depth:          0.5,
		description:    "Moderate Risk: Street flooding possible.",
		infrastructure: []string{"Local Roads", "Low-lying residential areas"},
		recommendation: "Avoid low-lying areas. Prepare emergency kits.",
	},
	{
		minRainfall:    150,
		level:          6,
		depth:          1.5,
		description:    "High Risk: Significant flooding expected.",
		infrastructure: []string{"Main Highways", "Schools", "Ground floor residences", "Public Transport"},
		recommendation: "Evacuate if in flood-prone zones. Move to higher ground.",
	},
	{
		minRainfall:    300,
		level:          8,
		depth:          3.0,
		description:    "Severe Risk: Catastrophic flooding likely.",
		infrastructure: []string{"All major infrastructure", "Power Grid", "Hospitals in low areas"},
		recommendation: "IMMEDIATE EVACUATION REQUIRED. Seek designated evacuation centers.",
	},
}

// bucketFor returns the last bucket whose lower bound is <= rainfall.
func bucketFor(rainfall float64) riskBucket {
	i := sort.Search(len(riskBuckets), func(i int) bool {
		return riskBuckets[i].minRainfall > rainfall
	})
	return riskBuckets[i-1]
}

// Classify maps a city and rainfall (mm) to a risk assessment. It assumes the
// input has already been validated; use Assess when it has not.
func Classify(city City, rainfall float64) RiskAssessment {
	b := bucketFor(rainfall)

	a := RiskAssessment{
		RiskLevel:              b.level,
		RiskDescription:        b.description,
		PredictedFloodDepth:    b.depth,
		AffectedInfrastructure: append([]string{}, b.infrastructure...),
		Recommendation:         defaultRecommendation,
	}
	if b.recommendation != "" {
		a.Recommendation = b.recommendation
	}

	// Only level and description move; depth, infrastructure and
	// recommendation keep the bucket's values.
	if city == Marikina && rainfall > marikinaRainfallThreshold {
		a.RiskLevel = min(MaxRiskLevel, a.RiskLevel+1)
		a.RiskDescription += marikinaSuffix
	}

	return a
}

// Assess validates city and rainfall before classifying. Failures are
// *ValidationError values wrapping ErrInvalidCity or ErrInvalidRainfall.
func Assess(city City, rainfall float64) (RiskAssessment, error) {
	if _, err := ParseCity(string(city)); err != nil {
		return RiskAssessment{}, err
	}
	if err := ValidateRainfall(rainfall); err != nil {
		return RiskAssessment{}, err
	}
	return Classify(city, rainfall), nil
}

// ValidateRainfall rejects negative, NaN and infinite rainfall.
func ValidateRainfall(rainfall float64) error {
	if math.IsNaN(rainfall) || math.IsInf(rainfall, 0) {
		return &ValidationError{Field: "rainfall", Message: "rainfall must be a finite number", Err: ErrInvalidRainfall}
	}
	if rainfall < 0 {
		return &ValidationError{Field: "rainfall", Message: "rainfall must be greater than or equal to 0", Err: ErrInvalidRainfall}
	}
	return nil
}
