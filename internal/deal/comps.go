package deal

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/offer-oven/pkg/constants"
)

// Comp is a comparable sale near the subject property.
type Comp struct {
	Address       string  `json:"address" yaml:"address"`
	SalePrice     float64 `json:"salePrice" yaml:"salePrice" validate:"finite,gte=0"`
	Sqft          float64 `json:"sqft" yaml:"sqft" validate:"finite,gte=0"`
	DateSold      string  `json:"dateSold,omitempty" yaml:"dateSold,omitempty"`
	Similarity    float64 `json:"similarity,omitempty" yaml:"similarity,omitempty"`
	DistanceMiles float64 `json:"distanceMiles,omitempty" yaml:"distanceMiles,omitempty"`
}

// AveragePricePerSqft averages sale price per square foot across comps. A
// comp without square footage counts as 1 sqft.
func AveragePricePerSqft(comps []Comp) float64 {
	if len(comps) == 0 {
		return 0
	}

	total := 0.0
	for _, comp := range comps {
		sqft := comp.Sqft
		if sqft <= 0 {
			sqft = 1
		}
		total += comp.SalePrice / sqft
	}
	return total / float64(len(comps))
}

// ARVFromComps estimates after-repair value as the rounded average price per
// square foot applied to the subject's square footage.
func ARVFromComps(comps []Comp, subjectSqft float64) float64 {
	if subjectSqft <= 0 {
		return 0
	}
	return math.Round(AveragePricePerSqft(comps) * subjectSqft)
}

// EstimateRehab prices a rehab by square footage and scope.
func EstimateRehab(sqft float64, level string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case constants.RehabLight:
		return sqft * constants.RehabLightPerSqft, nil
	case constants.RehabMedium:
		return sqft * constants.RehabMediumPerSqft, nil
	case constants.RehabHeavy:
		return sqft * constants.RehabHeavyPerSqft, nil
	case "":
		return 0, nil
	default:
		return 0, fmt.Errorf("unknown rehab level %q", level)
	}
}
