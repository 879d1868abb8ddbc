// Package reading derives a six-line symbolic reading from four personality
// axes.
package reading

import (
	"fmt"
	"math"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/subtaste/internal/apperr"
)

const (
	solidThreshold  = 0.5
	movingThreshold = 0.1
)

// Trigram is one of the eight three-line figures.
type Trigram int

const (
	Heaven Trigram = iota
	Earth
	Thunder
	Water
	Mountain
	Wind
	Fire
	Lake
)

var trigramNames = [...]string{"Heaven", "Earth", "Thunder", "Water", "Mountain", "Wind", "Fire", "Lake"}

// Lines bottom to top, true is solid.
var trigramLines = [...][3]bool{
	Heaven:   {true, true, true},
	Earth:    {false, false, false},
	Thunder:  {true, false, false},
	Water:    {false, true, false},
	Mountain: {false, false, true},
	Wind:     {false, true, true},
	Fire:     {true, false, true},
	Lake:     {true, true, false},
}

func (t Trigram) String() string {
	if t < 0 || int(t) >= len(trigramNames) {
		return fmt.Sprintf("Trigram(%d)", int(t))
	}
	return trigramNames[t]
}

// Pattern is six lines, bottom to top. True is a solid line.
type Pattern [6]bool

// String renders the pattern as bits, bottom line first.
func (p Pattern) String() string {
	var b strings.Builder
	for _, l := range p {
		if l {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Hexagram is one entry of the 64-pattern table.
type Hexagram struct {
	Number   int     `json:"number"`
	Name     string  `json:"name"`
	Chinese  string  `json:"chinese"`
	Image    string  `json:"image"`
	Judgment string  `json:"judgment"`
	Lines    Pattern `json:"lines"`
	Upper    Trigram `json:"-"`
	Lower    Trigram `json:"-"`
}

var byPattern = make(map[Pattern]int, len(hexagrams))

func init() {
	for i := range hexagrams {
		h := &hexagrams[i]
		lo, up := trigramLines[h.Lower], trigramLines[h.Upper]
		h.Lines = Pattern{lo[0], lo[1], lo[2], up[0], up[1], up[2]}
		h.Image = h.Upper.String() + " over " + h.Lower.String()
		if prev, dup := byPattern[h.Lines]; dup {
			panic(fmt.Sprintf("reading: hexagrams %d and %d share pattern %s", hexagrams[prev].Number, h.Number, h.Lines))
		}
		byPattern[h.Lines] = i
	}
}

// Lookup returns the hexagram for p.
func Lookup(p Pattern) (Hexagram, error) {
	i, ok := byPattern[p]
	if !ok {
		return Hexagram{}, fmt.Errorf("reading: no hexagram for pattern %s", p)
	}
	return hexagrams[i], nil
}

// ByNumber returns the hexagram with the given traditional number.
func ByNumber(n int) (Hexagram, bool) {
	for _, h := range hexagrams {
		if h.Number == n {
			return h, true
		}
	}
	return Hexagram{}, false
}

// All returns the full table in traditional order.
func All() []Hexagram {
	out := make([]Hexagram, len(hexagrams))
	copy(out, hexagrams[:])
	return out
}

// Axes are the four continuous inputs, each in [0,1].
type Axes struct {
	OrderChaos         float64 `json:"orderChaos"`
	MercyRuthlessness  float64 `json:"mercyRuthlessness"`
	IntrovertExtrovert float64 `json:"introvertExtrovert"`
	FaithDoubt         float64 `json:"faithDoubt"`
}

// AxesInput is a possibly partial axes submission.
type AxesInput struct {
	OrderChaos         *float64 `json:"orderChaos"`
	MercyRuthlessness  *float64 `json:"mercyRuthlessness"`
	IntrovertExtrovert *float64 `json:"introvertExtrovert"`
	FaithDoubt         *float64 `json:"faithDoubt"`
}

var finite = validation.By(func(v any) error {
	f, ok := v.(*float64)
	if !ok || f == nil {
		return nil
	}
	if math.IsNaN(*f) || math.IsInf(*f, 0) {
		return fmt.Errorf("must be a finite number")
	}
	return nil
})

// Validate rejects non-finite values. Out-of-range values are clamped by
// Normalize rather than rejected.
func (in AxesInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.OrderChaos, finite),
		validation.Field(&in.MercyRuthlessness, finite),
		validation.Field(&in.IntrovertExtrovert, finite),
		validation.Field(&in.FaithDoubt, finite),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	return nil
}

// Normalize clamps every axis to [0,1] and fills missing axes with 0.5.
func (in AxesInput) Normalize() Axes {
	return Axes{
		OrderChaos:         axisValue(in.OrderChaos),
		MercyRuthlessness:  axisValue(in.MercyRuthlessness),
		IntrovertExtrovert: axisValue(in.IntrovertExtrovert),
		FaithDoubt:         axisValue(in.FaithDoubt),
	}
}

// NormalizeAxes clamps a full axes value.
func NormalizeAxes(a Axes) Axes {
	return AxesInput{&a.OrderChaos, &a.MercyRuthlessness, &a.IntrovertExtrovert, &a.FaithDoubt}.Normalize()
}

func axisValue(v *float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return 0.5
	}
	return math.Max(0, math.Min(1, *v))
}

// Reading is the derived present pattern, its moving lines and, when any
// line moves, the transformed pattern.
type Reading struct {
	Present     Hexagram  `json:"present"`
	Transformed *Hexagram `json:"transforming"`
	MovingLines []int     `json:"movingLines"`
}

// Derive computes the reading for a. Axes are clamped first.
func Derive(a Axes) (Reading, error) {
	a = NormalizeAxes(a)
	raw := [6]float64{
		a.OrderChaos,
		a.MercyRuthlessness,
		a.IntrovertExtrovert,
		a.FaithDoubt,
		(a.OrderChaos + a.MercyRuthlessness) / 2,
		(a.IntrovertExtrovert + a.FaithDoubt) / 2,
	}

	var present Pattern
	moving := []int{}
	for i, v := range raw {
		present[i] = v >= solidThreshold
		if math.Abs(v-solidThreshold) < movingThreshold {
			moving = append(moving, i+1)
		}
	}

	hex, err := Lookup(present)
	if err != nil {
		return Reading{}, err
	}
	r := Reading{Present: hex, MovingLines: moving}
	if len(moving) == 0 {
		return r, nil
	}

	transformed := present
	for _, line := range moving {
		transformed[line-1] = !transformed[line-1]
	}
	th, err := Lookup(transformed)
	if err != nil {
		return Reading{}, err
	}
	r.Transformed = &th
	return r, nil
}
