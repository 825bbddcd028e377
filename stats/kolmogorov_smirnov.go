package stats

import (
	"fmt"
	"gonum.org/v1/gonum/stat"
	"math"
)

type Confidence = int

const (
	C90 Confidence = iota
	C95
	C97d5
	C99
	C99d5
	C99d9
)

// coefficients are KS-coefficients.
// Retrieved from: https://www.webdepot.umontreal.ca/Usagers/angers/MonDepotPublic/STT3500H10/Critical_KS.pdf
var coefficients = map[Confidence]float64{
	C90:   1.22,
	C95:   1.36,
	C97d5: 1.48,
	C99:   1.63,
	C99d5: 1.73,
	C99d9: 1.95,
}

// KolmogorovSmirnov holds the outcome of a two-sample KS-test.
type KolmogorovSmirnov struct {
	Statistic     float64
	CriticalValue float64
	// Rejected is true if the two samples come from different distributions.
	Rejected bool
}

// KolmogorovSmirnovTest performs a two-tailed KS-test between the latency
// samples of two cohorts, e.g. DoH against ODoH.
func KolmogorovSmirnovTest(control []float64, candidate []float64, confidence Confidence) (*KolmogorovSmirnov, error) {
	if len(control) == 0 || len(candidate) == 0 {
		return nil, fmt.Errorf("KolmogorovSmirnovTest(): %w", ErrEmptySample)
	}
	coeff, ok := coefficients[confidence]
	if !ok {
		return nil, fmt.Errorf("KolmogorovSmirnovTest() unexpected confidence %v, see Confidence type", confidence)
	}

	criticalValue := coeff * math.Sqrt(float64(len(control)+len(candidate))/float64(len(control)*len(candidate)))

	// Pass in nil weights as gonum's stat package allows inputs to be
	// weighted, which is not relevant to latency samples.
	statistic := stat.KolmogorovSmirnov(sortedCopy(control), nil, sortedCopy(candidate), nil)

	return &KolmogorovSmirnov{
		Statistic:     statistic,
		CriticalValue: criticalValue,
		Rejected:      statistic > criticalValue,
	}, nil
}
