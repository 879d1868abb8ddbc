// Package archetype holds the static catalog of the twelve taste archetypes.
//
// Each archetype has a public identity (designation, glyph, formal sigil and
// copy) and hidden engine weights (structural position, resonance pair and
// trait affinities). The engine weights must never be exposed to untrusted
// consumers; only the public fields are safe to serialise to clients.
package archetype

import (
	"fmt"
	"strings"
)

// ID is an archetype designation such as "S-0" or "Ø".
type ID string

// The twelve designations.
const (
	Keth   ID = "S-0"
	Strata ID = "T-1"
	Omen   ID = "V-2"
	Silt   ID = "L-3"
	Cull   ID = "C-4"
	Limn   ID = "N-5"
	Toll   ID = "H-6"
	Vault  ID = "P-7"
	Wick   ID = "D-8"
	Anvil  ID = "F-9"
	Schism ID = "R-10"
	Void   ID = "Ø"
)

// All lists every designation in canonical order. Iteration over archetypes
// always uses this order so results are deterministic.
var All = [Count]ID{Keth, Strata, Omen, Silt, Cull, Limn, Toll, Vault, Wick, Anvil, Schism, Void}

// Count is the number of archetypes. It is untyped so it can be used directly
// in float arithmetic.
const Count = 12

// Valid reports whether id is one of the twelve designations.
func (id ID) Valid() bool {
	_, ok := catalog[id]
	return ok
}

// Index returns the canonical position of id, or -1 if unknown.
func (id ID) Index() int {
	for i, a := range All {
		if a == id {
			return i
		}
	}
	return -1
}

// ParseID resolves a designation, glyph or sigil (case-insensitive for the
// latter two) to an ID.
func ParseID(s string) (ID, error) {
	if id := ID(s); id.Valid() {
		return id, nil
	}
	for _, a := range All {
		def := catalog[a]
		if strings.EqualFold(def.Glyph, s) || strings.EqualFold(def.Sigil, s) {
			return a, nil
		}
	}
	return "", fmt.Errorf("archetype: unknown designation %q", s)
}

// Affinity is the psychometric target vector of an archetype.
type Affinity struct {
	Openness      float64
	Intellect     float64
	Mellow        float64
	Unpretentious float64
	Sophisticated float64
	Intense       float64
	Contemporary  float64
}

// Archetype is one catalog entry.
type Archetype struct {
	ID           ID
	Glyph        string
	Sigil        string
	Essence      string
	CreativeMode string
	Shadow       string
	RecogniseBy  string

	// Engine-only fields.
	Position        Position
	Resonance       Resonance
	ShadowResonance Resonance
	Affinity        Affinity
}

// Public is the client-safe projection of an archetype.
type Public struct {
	Designation  ID     `json:"designation"`
	Glyph        string `json:"glyph"`
	Essence      string `json:"essence"`
	CreativeMode string `json:"creativeMode"`
	Shadow       string `json:"shadow"`
	RecogniseBy  string `json:"recogniseBy"`
}

// Public strips the engine weights and the formal sigil.
func (a Archetype) Public() Public {
	return Public{
		Designation:  a.ID,
		Glyph:        a.Glyph,
		Essence:      a.Essence,
		CreativeMode: a.CreativeMode,
		Shadow:       a.Shadow,
		RecogniseBy:  a.RecogniseBy,
	}
}

// Get returns the archetype for id.
func Get(id ID) (Archetype, bool) {
	a, ok := catalog[id]
	return a, ok
}

// MustGet returns the archetype for id and panics on unknown ids.
func MustGet(id ID) Archetype {
	a, ok := catalog[id]
	if !ok {
		panic(fmt.Sprintf("archetype: unknown designation %q", id))
	}
	return a
}

// Glyph returns the spoken name for id, or "" if unknown.
func Glyph(id ID) string {
	return catalog[id].Glyph
}

// Sigil returns the formal name for id, or "" if unknown.
func Sigil(id ID) string {
	return catalog[id].Sigil
}

// ByGlyph looks an archetype up by its spoken name.
func ByGlyph(glyph string) (Archetype, bool) {
	for _, id := range All {
		if a := catalog[id]; strings.EqualFold(a.Glyph, glyph) {
			return a, true
		}
	}
	return Archetype{}, false
}

// BySigil looks an archetype up by its formal name.
func BySigil(sigil string) (Archetype, bool) {
	for _, id := range All {
		if a := catalog[id]; strings.EqualFold(a.Sigil, sigil) {
			return a, true
		}
	}
	return Archetype{}, false
}

// PublicCatalog returns the public projection of every archetype in
// canonical order.
func PublicCatalog() []Public {
	out := make([]Public, 0, Count)
	for _, id := range All {
		out = append(out, catalog[id].Public())
	}
	return out
}
