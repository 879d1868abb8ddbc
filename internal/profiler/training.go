package profiler

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/starford/subtaste/internal/archetype"
	"github.com/starford/subtaste/internal/signal"
)

// Best and worst picks on a training card score the hinted designation by
// these amounts.
const (
	bestScore  = 5.0
	worstScore = -1.0
)

// TrainingPrompt is one statement shown on a best/worst card.
type TrainingPrompt struct {
	ID     string       `json:"id"`
	Topic  string       `json:"topic"`
	Prompt string       `json:"prompt"`
	Hint   archetype.ID `json:"-"`
}

// Prompts come in opposing pairs per topic; a card joins two topics.
var trainingPrompts = []TrainingPrompt{
	{"bw-opening-thesis", "opening", "Open with a blade: state the thesis in one line.", archetype.Schism},
	{"bw-opening-scene", "opening", "Open with a scene; let the idea surface later.", archetype.Wick},
	{"bw-payoff-fast", "payoff", "Payoff now. No suspense, no detours.", archetype.Anvil},
	{"bw-payoff-slow", "payoff", "Slow burn; land the reveal at the end.", archetype.Wick},
	{"bw-voice-lived", "authority", "Speak from scars and lived experience.", archetype.Silt},
	{"bw-voice-research", "authority", "Speak from research and synthesis.", archetype.Strata},
	{"bw-audience-insider", "audience", "Write for insiders who already get it.", archetype.Vault},
	{"bw-audience-bridge", "audience", "Bridge the gap for outsiders and first-timers.", archetype.Silt},
	{"bw-energy", "energy", "High-energy delivery with short, charged sentences.", archetype.Anvil},
	{"bw-calm", "energy", "Low-velocity calm; controlled and steady.", archetype.Silt},
	{"bw-visual-polish", "visual", "Cinematic polish; every frame designed.", archetype.Keth},
	{"bw-visual-utility", "visual", "Utilitarian clarity; function over flair.", archetype.Strata},
	{"bw-novel-framing", "novelty", "Reframe the familiar; shift the lens.", archetype.Limn},
	{"bw-new-facts", "novelty", "Bring new facts, even if the frame is plain.", archetype.Strata},
	{"bw-texture-analog", "texture", "Analog grit, texture, imperfection.", archetype.Vault},
	{"bw-texture-digital", "texture", "Clean, precise, digital surfaces.", archetype.Keth},
	{"bw-signal-subtle", "signal", "Coded, subtle signals for insiders.", archetype.Vault},
	{"bw-signal-explicit", "signal", "Direct, explicit, broad reach.", archetype.Toll},
	{"bw-sit-viral", "situation-viral", "Your post went viral for the wrong reason: address it head-on.", archetype.Schism},
	{"bw-sit-viral-ignore", "situation-viral", "Your post went viral for the wrong reason: say nothing and move on.", archetype.Cull},
	{"bw-sit-feedback", "situation-feedback", "Harsh feedback on your best work: rethink the core assumption.", archetype.Limn},
	{"bw-sit-feedback-hold", "situation-feedback", "Harsh feedback on your best work: hold the line, they will catch up.", archetype.Omen},
	{"bw-abs-palette-mono", "abstract-palette", "Monochrome with one accent color.", archetype.Cull},
	{"bw-abs-palette-max", "abstract-palette", "Saturated, layered, maximalist color.", archetype.Keth},
	{"bw-lat-name-first", "latent-naming", "You name the thing before you build it.", archetype.Omen},
	{"bw-lat-name-last", "latent-naming", "You build the thing and the name finds itself.", archetype.Wick},
	{"bw-lat-read-room", "latent-audience", "You instinctively know what a room wants to hear.", archetype.Toll},
	{"bw-lat-ignore-room", "latent-audience", "You say what needs saying regardless of the room.", archetype.Schism},
}

// TrainingCard offers four prompts; the user picks the best and the worst.
type TrainingCard struct {
	ID      string           `json:"id"`
	Topic   string           `json:"topic"`
	Options []TrainingPrompt `json:"options"`
}

// TrainingPick is the answer to one card.
type TrainingPick struct {
	BestID  string `json:"bestId"`
	WorstID string `json:"worstId"`
}

// TrainingSession deals up to n cards, each joining two shuffled topics so
// every card has four options.
func TrainingSession(n int, rng *rand.Rand) []TrainingCard {
	byTopic := make(map[string][]TrainingPrompt)
	var topics []string
	for _, p := range trainingPrompts {
		if _, ok := byTopic[p.Topic]; !ok {
			topics = append(topics, p.Topic)
		}
		byTopic[p.Topic] = append(byTopic[p.Topic], p)
	}
	rng.Shuffle(len(topics), func(i, j int) { topics[i], topics[j] = topics[j], topics[i] })

	var cards []TrainingCard
	for i := 0; i+1 < len(topics) && len(cards) < n; i += 2 {
		opts := append(append([]TrainingPrompt(nil), byTopic[topics[i]]...), byTopic[topics[i+1]]...)
		rng.Shuffle(len(opts), func(a, b int) { opts[a], opts[b] = opts[b], opts[a] })
		ids := make([]string, len(opts))
		for k, o := range opts {
			ids[k] = o.ID
		}
		cards = append(cards, TrainingCard{
			ID:      "card-" + strings.Join(ids, "+"),
			Topic:   topics[i] + " / " + topics[i+1],
			Options: opts,
		})
	}
	return cards
}

func trainingPrompt(id string) (TrainingPrompt, bool) {
	for _, p := range trainingPrompts {
		if p.ID == id {
			return p, true
		}
	}
	return TrainingPrompt{}, false
}

// TrainingSignals turns picks into selection signals: the best prompt
// scores its designation up and the worst scores its designation down.
func TrainingSignals(picks []TrainingPick, now time.Time) ([]signal.Signal, error) {
	if len(picks) == 0 {
		return nil, invalid("at least one pick is required")
	}
	out := make([]signal.Signal, 0, 2*len(picks))
	for i, p := range picks {
		if p.BestID == p.WorstID {
			return nil, invalid("pick %d: best and worst must differ", i)
		}
		best, ok := trainingPrompt(p.BestID)
		if !ok {
			return nil, invalid("pick %d: unknown prompt %q", i, p.BestID)
		}
		worst, ok := trainingPrompt(p.WorstID)
		if !ok {
			return nil, invalid("pick %d: unknown prompt %q", i, p.WorstID)
		}
		for _, pp := range []struct {
			prompt TrainingPrompt
			score  float64
		}{{best, bestScore}, {worst, worstScore}} {
			s := signal.NewExplicit(signal.SourceTraining, signal.KindSelection, map[archetype.ID]float64{pp.prompt.Hint: pp.score}, now)
			s.Explicit.ItemID = pp.prompt.ID
			out = append(out, s)
		}
	}
	return out, nil
}
