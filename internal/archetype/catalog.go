package archetype

var catalog = map[ID]Archetype{
	Keth: {
		ID:              Keth,
		Glyph:           "KETH",
		Sigil:           "Aethonis",
		Essence:         "The unmarked throne. First without announcement.",
		CreativeMode:    "Visionary",
		Shadow:          "Paralysis by standard. Nothing meets the mark.",
		RecogniseBy:     "Others unconsciously defer to their judgment. They rarely explain themselves. When they speak, rooms reorganise.",
		Position:        Keter,
		Resonance:       Obatala,
		ShadowResonance: Eshu,
		Affinity:        Affinity{Openness: 0.9, Intellect: 0.7, Mellow: 0.3, Unpretentious: 0.1, Sophisticated: 0.9, Intense: 0.4, Contemporary: 0.5},
	},
	Strata: {
		ID:              Strata,
		Glyph:           "STRATA",
		Sigil:           "Tectris",
		Essence:         "The hidden architecture. Layers beneath surfaces.",
		CreativeMode:    "Architectural",
		Shadow:          "Over-engineering. The system becomes the end.",
		RecogniseBy:     "They explain systems you did not know existed. They build frameworks before building anything else.",
		Position:        Chokmah,
		Resonance:       Ogun,
		ShadowResonance: Obatala,
		Affinity:        Affinity{Openness: 0.7, Intellect: 0.95, Mellow: 0.2, Unpretentious: 0.3, Sophisticated: 0.8, Intense: 0.5, Contemporary: 0.6},
	},
	Omen: {
		ID:              Omen,
		Glyph:           "OMEN",
		Sigil:           "Vatis",
		Essence:         "What arrives before itself. The shape of the unformed.",
		CreativeMode:    "Prophetic",
		Shadow:          "Cassandra syndrome. Right too soon.",
		RecogniseBy:     "Their recommendations age well. Years later, you remember what they said.",
		Position:        Binah,
		Resonance:       Orunmila,
		ShadowResonance: Elegua,
		Affinity:        Affinity{Openness: 0.95, Intellect: 0.6, Mellow: 0.4, Unpretentious: 0.2, Sophisticated: 0.85, Intense: 0.5, Contemporary: 0.8},
	},
	Silt: {
		ID:              Silt,
		Glyph:           "SILT",
		Sigil:           "Seris",
		Essence:         "Patient sediment. What accumulates in darkness.",
		CreativeMode:    "Developmental",
		Shadow:          "Endless patience becomes enabling.",
		RecogniseBy:     "Long memory. They remember what you showed them three years ago. They are still watching.",
		Position:        Chesed,
		Resonance:       Yemoja,
		ShadowResonance: Ogun,
		Affinity:        Affinity{Openness: 0.7, Intellect: 0.5, Mellow: 0.8, Unpretentious: 0.6, Sophisticated: 0.5, Intense: 0.2, Contemporary: 0.4},
	},
	Cull: {
		ID:              Cull,
		Glyph:           "CULL",
		Sigil:           "Severis",
		Essence:         "The necessary cut. What must be removed, removed.",
		CreativeMode:    "Editorial",
		Shadow:          "Nihilistic rejection. Nothing survives.",
		RecogniseBy:     "Sparse playlists. Brutal honesty. They will tell you what is wrong before what is right.",
		Position:        Geburah,
		Resonance:       Ogun,
		ShadowResonance: Yemoja,
		Affinity:        Affinity{Openness: 0.6, Intellect: 0.8, Mellow: 0.1, Unpretentious: 0.2, Sophisticated: 0.7, Intense: 0.8, Contemporary: 0.5},
	},
	Limn: {
		ID:              Limn,
		Glyph:           "LIMN",
		Sigil:           "Nexilis",
		Essence:         "To illuminate by edge. The binding outline.",
		CreativeMode:    "Integrative",
		Shadow:          "Pathological balance. Refuses to choose.",
		RecogniseBy:     "Unexpected pairings that work. Playlists that should not cohere but do.",
		Position:        Tiferet,
		Resonance:       Oshun,
		ShadowResonance: Shango,
		Affinity:        Affinity{Openness: 0.8, Intellect: 0.6, Mellow: 0.5, Unpretentious: 0.5, Sophisticated: 0.7, Intense: 0.5, Contemporary: 0.5},
	},
	Toll: {
		ID:              Toll,
		Glyph:           "TOLL",
		Sigil:           "Voxis",
		Essence:         "The bell that cannot be unheard. The summons.",
		CreativeMode:    "Advocacy",
		Shadow:          "Missionary zeal. Sharing becomes shoving.",
		RecogniseBy:     "Relentless enthusiasm. They have sent you the same link three times. They are right, and they know it.",
		Position:        Netzach,
		Resonance:       Shango,
		ShadowResonance: Oshun,
		Affinity:        Affinity{Openness: 0.8, Intellect: 0.4, Mellow: 0.2, Unpretentious: 0.4, Sophisticated: 0.5, Intense: 0.9, Contemporary: 0.7},
	},
	Vault: {
		ID:              Vault,
		Glyph:           "VAULT",
		Sigil:           "Palimpsest",
		Essence:         "What is kept. Writing over writing.",
		CreativeMode:    "Archival",
		Shadow:          "Hoarding. Knowledge that never circulates.",
		RecogniseBy:     "They cite sources you have never heard of. They own formats you cannot play.",
		Position:        Hod,
		Resonance:       Orunmila,
		ShadowResonance: Elegua,
		Affinity:        Affinity{Openness: 0.75, Intellect: 0.9, Mellow: 0.6, Unpretentious: 0.3, Sophisticated: 0.9, Intense: 0.3, Contemporary: 0.3},
	},
	Wick: {
		ID:              Wick,
		Glyph:           "WICK",
		Sigil:           "Siphis",
		Essence:         "Draws flame upward without burning. The hollow channel.",
		CreativeMode:    "Channelling",
		Shadow:          "Dissolution. The channel consumes the self.",
		RecogniseBy:     "Uncanny recommendations. They cannot always explain why. They just knew.",
		Position:        Yesod,
		Resonance:       Elegua,
		ShadowResonance: Orunmila,
		Affinity:        Affinity{Openness: 0.9, Intellect: 0.4, Mellow: 0.5, Unpretentious: 0.5, Sophisticated: 0.6, Intense: 0.6, Contemporary: 0.7},
	},
	Anvil: {
		ID:              Anvil,
		Glyph:           "ANVIL",
		Sigil:           "Crucis",
		Essence:         "Where pressure becomes form. The manifestation point.",
		CreativeMode:    "Manifestation",
		Shadow:          "Crude materialism. Only what ships matters.",
		RecogniseBy:     "They have built something. While others talked, they shipped.",
		Position:        Malkuth,
		Resonance:       Ogun,
		ShadowResonance: Obatala,
		Affinity:        Affinity{Openness: 0.5, Intellect: 0.7, Mellow: 0.3, Unpretentious: 0.7, Sophisticated: 0.4, Intense: 0.6, Contemporary: 0.6},
	},
	Schism: {
		ID:              Schism,
		Glyph:           "SCHISM",
		Sigil:           "Apostis",
		Essence:         "The productive fracture. What breaks to reveal grain.",
		CreativeMode:    "Contrarian",
		Shadow:          "Reflexive opposition. Disagreement as identity.",
		RecogniseBy:     "Their takes age strangely. What seemed wrong becomes obvious. Or does not.",
		Position:        Daat,
		Resonance:       Eshu,
		ShadowResonance: Obatala,
		Affinity:        Affinity{Openness: 0.85, Intellect: 0.7, Mellow: 0.1, Unpretentious: 0.3, Sophisticated: 0.6, Intense: 0.9, Contemporary: 0.8},
	},
	Void: {
		ID:              Void,
		Glyph:           "VOID",
		Sigil:           "Lacuna",
		Essence:         "The deliberate absence. What receives by containing nothing.",
		CreativeMode:    "Receptive",
		Shadow:          "Passivity. Reception without response.",
		RecogniseBy:     "They listen longer than anyone. Their recommendations feel like mirrors.",
		Position:        AinSoph,
		Resonance:       Obatala,
		ShadowResonance: Eshu,
		Affinity:        Affinity{Openness: 0.95, Intellect: 0.5, Mellow: 0.7, Unpretentious: 0.6, Sophisticated: 0.6, Intense: 0.3, Contemporary: 0.4},
	},
}
