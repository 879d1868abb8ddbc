package profiler

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/starford/subtaste/internal/apperr"
	"github.com/starford/subtaste/internal/signal"
)

// Response answers one question. Answer holds the option index for binary
// questions, the 1-based scale point for Likert questions and item indices
// in order of preference for ranking questions.
type Response struct {
	QuestionID string          `json:"questionId"`
	Answer     json.RawMessage `json:"response"`
	Timestamp  time.Time       `json:"timestamp"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperr.ErrValidation, fmt.Sprintf(format, args...))
}

// MapBinary returns the weights of the chosen option.
func MapBinary(q Question, choice int) (Weights, error) {
	if choice < 0 || choice >= len(q.OptionWeights) {
		return nil, invalid("%s: option %d out of range", q.ID, choice)
	}
	return q.OptionWeights[choice].clone(), nil
}

// MapLikert scales the question weights by agreement: the scale midpoint
// maps to 0, the top to +1 and the bottom to -1, so negative weights grow
// with disagreement.
func MapLikert(q Question, point int) (Weights, error) {
	if point < 1 || point > q.Scale {
		return nil, invalid("%s: scale point %d outside 1..%d", q.ID, point, q.Scale)
	}
	mid := float64(q.Scale+1) / 2
	agreement := (float64(point) - mid) / (mid - 1)
	out := make(Weights, len(q.Weights))
	for id, w := range q.Weights {
		out[id] = w * agreement
	}
	return out, nil
}

// MapRanking sums item weights scaled by rank, from 1 for the first choice
// down to 0.2 for the last item. A partial ranking scores only the ranked
// items.
func MapRanking(q Question, order []int) (Weights, error) {
	n := len(q.ItemWeights)
	if len(order) == 0 || len(order) > n {
		return nil, invalid("%s: ranking must list 1..%d items", q.ID, n)
	}
	seen := make(map[int]bool, len(order))
	out := make(Weights)
	for rank, idx := range order {
		if idx < 0 || idx >= n {
			return nil, invalid("%s: item %d out of range", q.ID, idx)
		}
		if seen[idx] {
			return nil, invalid("%s: item %d ranked twice", q.ID, idx)
		}
		seen[idx] = true
		scale := 1.0
		if n > 1 {
			scale = 1 - float64(rank)*0.8/float64(n-1)
		}
		for id, w := range q.ItemWeights[idx] {
			out[id] += w * scale
		}
	}
	return out, nil
}

// ToSignal converts a response into an explicit signal. A zero timestamp
// becomes now.
func ToSignal(r Response, source signal.Source, now time.Time) (signal.Signal, error) {
	q, _, ok := Lookup(r.QuestionID)
	if !ok {
		return signal.Signal{}, invalid("unknown question %q", r.QuestionID)
	}

	var (
		weights Weights
		kind    signal.Kind
		value   any
		err     error
	)
	switch q.Type {
	case Binary, Likert:
		var n float64
		if err := json.Unmarshal(r.Answer, &n); err != nil || n != math.Trunc(n) {
			return signal.Signal{}, invalid("%s: response must be an integer", q.ID)
		}
		value = int(n)
		if q.Type == Binary {
			kind = signal.KindChoice
			weights, err = MapBinary(q, int(n))
		} else {
			kind = signal.KindLikert
			weights, err = MapLikert(q, int(n))
		}
	case Ranking:
		var order []int
		if err := json.Unmarshal(r.Answer, &order); err != nil {
			return signal.Signal{}, invalid("%s: response must be a list of item indices", q.ID)
		}
		value = order
		kind = signal.KindRanking
		weights, err = MapRanking(q, order)
	}
	if err != nil {
		return signal.Signal{}, err
	}

	ts := r.Timestamp
	if ts.IsZero() {
		ts = now
	}
	s := signal.NewExplicit(source, kind, weights, ts)
	s.Explicit.QuestionID = q.ID
	s.Explicit.Value = value
	return s, nil
}

// Assess converts a complete set of answers for stage into signals. Every
// question of the stage must be answered exactly once and no other
// questions may appear. Onboarding answers are quiz signals; later stages
// are calibration signals.
func Assess(stage StageID, responses []Response, now time.Time) ([]signal.Signal, error) {
	questions := Questions(stage)
	if questions == nil {
		return nil, invalid("unknown stage %q", stage)
	}
	want := make(map[string]bool, len(questions))
	for _, q := range questions {
		want[q.ID] = true
	}

	source := signal.SourceCalibration
	if stage == StageInitial {
		source = signal.SourceQuiz
	}

	answered := make(map[string]bool, len(responses))
	out := make([]signal.Signal, 0, len(responses))
	for _, r := range responses {
		if !want[r.QuestionID] {
			return nil, invalid("question %q is not part of stage %s", r.QuestionID, stage)
		}
		if answered[r.QuestionID] {
			return nil, invalid("question %q answered twice", r.QuestionID)
		}
		answered[r.QuestionID] = true
		s, err := ToSignal(r, source, now)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	for _, q := range questions {
		if !answered[q.ID] {
			return nil, invalid("question %q is unanswered", q.ID)
		}
	}
	return out, nil
}
