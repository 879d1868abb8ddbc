package archetype

// Position is a structural position on the tree the engine uses to group
// archetypes. The mapping from archetype to position is fixed data.
type Position string

const (
	Keter   Position = "Keter"
	Chokmah Position = "Chokmah"
	Binah   Position = "Binah"
	Chesed  Position = "Chesed"
	Geburah Position = "Geburah"
	Tiferet Position = "Tiferet"
	Netzach Position = "Netzach"
	Hod     Position = "Hod"
	Yesod   Position = "Yesod"
	Malkuth Position = "Malkuth"
	Daat    Position = "Daat"
	AinSoph Position = "AinSoph"
)

// Positions lists every structural position in tree order.
var Positions = [...]Position{Keter, Chokmah, Binah, Chesed, Geburah, Tiferet, Netzach, Hod, Yesod, Malkuth, Daat, AinSoph}

// Resonance is an energetic signature tag.
type Resonance string

const (
	Obatala  Resonance = "Obatala"
	Ogun     Resonance = "Ogun"
	Orunmila Resonance = "Orunmila"
	Yemoja   Resonance = "Yemoja"
	Oshun    Resonance = "Oshun"
	Shango   Resonance = "Shango"
	Elegua   Resonance = "Elegua"
	Eshu     Resonance = "Eshu"
)

// ResonancePair is the primary and shadow resonance of an archetype.
type ResonancePair struct {
	Primary Resonance `json:"primary"`
	Shadow  Resonance `json:"shadow"`
}

// ResonanceOf returns the resonance pair for id. Unknown ids yield the zero
// pair.
func ResonanceOf(id ID) ResonancePair {
	a := catalog[id]
	return ResonancePair{Primary: a.Resonance, Shadow: a.ShadowResonance}
}

// PositionOf returns the structural position for id.
func PositionOf(id ID) Position {
	return catalog[id].Position
}

// AffinityOf returns the psychometric target vector for id.
func AffinityOf(id ID) Affinity {
	return catalog[id].Affinity
}

// PositionBalance sums each archetype's weight into its structural position.
// Every position is present in the result, including empty ones. Unknown ids
// are ignored.
func PositionBalance(weights map[ID]float64) map[Position]float64 {
	balance := make(map[Position]float64, len(Positions))
	for _, p := range Positions {
		balance[p] = 0
	}
	for id, w := range weights {
		a, ok := catalog[id]
		if !ok {
			continue
		}
		balance[a.Position] += w
	}
	return balance
}
