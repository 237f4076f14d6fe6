// Package evo implements the population layer of the compatibility search:
// pairwise and triple scoring, tournament selection, variation operators,
// the generational engine, and stable-triple detection.
package evo

import (
	"math"
	"sync"

	"skbengine/internal/model"
)

const (
	// DefaultTwistSigma is the width of the Gaussian twist-alignment kernel.
	DefaultTwistSigma = 1.0
	// DefaultCTCEpsilon is the time-twist cancellation tolerance for the
	// pairwise CTC stability component.
	DefaultCTCEpsilon = 0.1

	// CompatibleThreshold is the pairwise score above which two individuals
	// count as compatible, for compatibleCount, compatiblePairs, and triple
	// gating alike.
	CompatibleThreshold = 0.5

	// TripleCTCLimit bounds |tt_a + tt_b + tt_c| for a CTC-stable triple.
	TripleCTCLimit = 0.2
	// TripleTwistLimit bounds the summed absolute per-axis twist sums of a
	// twist-balanced triple.
	TripleTwistLimit = 1.0
)

// Weights holds the five pairwise fitness component weights. Scores are
// normalized by the weight sum, so only ratios matter.
type Weights struct {
	W1    float64 `json:"w1"`
	Euler float64 `json:"euler"`
	Q     float64 `json:"q"`
	Twist float64 `json:"twist"`
	CTC   float64 `json:"ctc"`
}

func DefaultWeights() Weights {
	return Weights{W1: 1, Euler: 1, Q: 1, Twist: 1, CTC: 1}
}

func (w Weights) Sum() float64 {
	return w.W1 + w.Euler + w.Q + w.Twist + w.CTC
}

// Targets holds the configured preferences the evaluator scores against.
type Targets struct {
	EulerCharacteristic int                    `json:"euler_characteristic"`
	Orientability       string                 `json:"orientability"`
	IntersectionForm    model.IntersectionForm `json:"intersection_form"`
}

func DefaultTargets() Targets {
	return Targets{
		EulerCharacteristic: 0,
		Orientability:       "orientable",
		IntersectionForm:    model.FormIndefinite,
	}
}

// Evaluator scores individuals pairwise and triple-wise. It only ever reads
// the snapshot it is handed; all evaluator methods are pure.
type Evaluator struct {
	Weights    Weights
	Targets    Targets
	TwistSigma float64
	CTCEpsilon float64
}

func NewEvaluator(weights Weights, targets Targets, sigma, epsilon float64) Evaluator {
	if sigma <= 0 {
		sigma = DefaultTwistSigma
	}
	if epsilon <= 0 {
		epsilon = DefaultCTCEpsilon
	}
	return Evaluator{Weights: weights, Targets: targets, TwistSigma: sigma, CTCEpsilon: epsilon}
}

// Compatibility scores a pair in [0,1] as the weight-normalized mean of the
// five component scores. It is symmetric in its arguments.
func (e Evaluator) Compatibility(a, b model.Individual) float64 {
	total := e.Weights.Sum()
	if total <= 0 {
		return 0
	}
	sum := e.Weights.W1*w1Score(a, b) +
		e.Weights.Euler*e.eulerScore(a, b) +
		e.Weights.Q*e.qScore(a, b) +
		e.Weights.Twist*e.twistScore(a, b) +
		e.Weights.CTC*e.ctcScore(a, b)
	return sum / total
}

// w1Score rewards pairs that include at least one non-orientable member,
// since only those can glue into a Klein-bottle-like composite.
func w1Score(a, b model.Individual) float64 {
	if !a.IsOrientable() || !b.IsOrientable() {
		return 1.0
	}
	return 0.0
}

func (e Evaluator) eulerScore(a, b model.Individual) float64 {
	combined := a.EulerCharacteristic + b.EulerCharacteristic
	return 1.0 / (1.0 + math.Abs(float64(combined-e.Targets.EulerCharacteristic)))
}

func (e Evaluator) qScore(a, b model.Individual) float64 {
	aIndef := a.IntersectionForm == model.FormIndefinite
	bIndef := b.IntersectionForm == model.FormIndefinite

	var score float64
	switch {
	case aIndef && bIndef:
		score = 1.0
	case aIndef || bIndef:
		score = 0.5
	default:
		score = 0.3
	}
	if e.Targets.IntersectionForm == model.FormIndefinite && (aIndef || bIndef) {
		score = math.Min(score+0.2, 1.0)
	}
	return score
}

func (e Evaluator) twistScore(a, b model.Individual) float64 {
	var dist float64
	for i := range a.Twists {
		d := float64(a.Twists[i] - b.Twists[i])
		dist += d * d
	}
	return math.Exp(-dist / (e.TwistSigma * e.TwistSigma))
}

func (e Evaluator) ctcScore(a, b model.Individual) float64 {
	if math.Abs(a.TT+b.TT) < e.CTCEpsilon {
		return 1.0
	}
	return 0.0
}

// Matrix computes the full symmetric pairwise compatibility matrix. The
// per-pair loops are embarrassingly parallel; workers > 1 fans rows out over
// a worker pool without changing the result.
func (e Evaluator) Matrix(population []model.Individual, workers int) [][]float64 {
	n := len(population)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}

	scoreRow := func(i int) {
		for j := i + 1; j < n; j++ {
			score := e.Compatibility(population[i], population[j])
			matrix[i][j] = score
			matrix[j][i] = score
		}
	}

	if workers <= 1 || n < 2 {
		for i := 0; i < n; i++ {
			scoreRow(i)
		}
		return matrix
	}

	if workers > n {
		workers = n
	}
	rows := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range rows {
				scoreRow(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		rows <- i
	}
	close(rows)
	wg.Wait()
	return matrix
}

// ApplyMatrix writes fitness and compatibleCount for every individual from a
// pairwise matrix: fitness is the mean score against all other members and
// compatibleCount the number of members scoring above CompatibleThreshold.
func ApplyMatrix(population []model.Individual, matrix [][]float64) {
	n := len(population)
	for i := range population {
		sum := 0.0
		compatible := 0
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			sum += matrix[i][j]
			if matrix[i][j] > CompatibleThreshold {
				compatible++
			}
		}
		if n > 1 {
			population[i].Fitness = sum / float64(n-1)
		} else {
			population[i].Fitness = 0
		}
		population[i].Evaluated = true
		population[i].CompatibleCount = compatible
	}
}

// CountCompatiblePairs counts unordered pairs scoring above the threshold.
func CountCompatiblePairs(matrix [][]float64) int {
	pairs := 0
	for i := range matrix {
		for j := i + 1; j < len(matrix); j++ {
			if matrix[i][j] > CompatibleThreshold {
				pairs++
			}
		}
	}
	return pairs
}

// TripleResult is the outcome of scoring one unordered triple.
type TripleResult struct {
	PairScores     [3]float64
	CTCStable      bool
	TwistBalanced  bool
	TopoCompatible bool
	OverallScore   float64
	Compatible     bool
}

// TripleCompatibility scores a candidate triple. Any pairwise score at or
// below CompatibleThreshold rejects the triple outright with a zero score.
func (e Evaluator) TripleCompatibility(a, b, c model.Individual) TripleResult {
	result := TripleResult{
		PairScores: [3]float64{
			e.Compatibility(a, b),
			e.Compatibility(a, c),
			e.Compatibility(b, c),
		},
	}
	for _, score := range result.PairScores {
		if score <= CompatibleThreshold {
			return result
		}
	}

	result.CTCStable = math.Abs(a.TT+b.TT+c.TT) < TripleCTCLimit

	balance := 0.0
	for axis := range a.Twists {
		balance += math.Abs(float64(a.Twists[axis] + b.Twists[axis] + c.Twists[axis]))
	}
	result.TwistBalanced = balance < TripleTwistLimit

	nonOrientable := !a.IsOrientable() || !b.IsOrientable() || !c.IsOrientable()
	indefinite := a.IntersectionForm == model.FormIndefinite ||
		b.IntersectionForm == model.FormIndefinite ||
		c.IntersectionForm == model.FormIndefinite
	result.TopoCompatible = nonOrientable && indefinite

	total := e.Weights.CTC + e.Weights.Twist + e.Weights.W1
	if total > 0 {
		sum := 0.0
		if result.CTCStable {
			sum += e.Weights.CTC
		}
		if result.TwistBalanced {
			sum += e.Weights.Twist
		}
		if result.TopoCompatible {
			sum += e.Weights.W1
		}
		result.OverallScore = sum / total
	}

	result.Compatible = result.CTCStable && result.TwistBalanced && result.TopoCompatible
	return result
}
