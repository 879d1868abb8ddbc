package mcpserver

// SignalFormatContract describes the signal wire format and batch files that
// LLM consumers should produce.
const SignalFormatContract = `# Subtaste Signal Format Contract

A signal is one piece of taste evidence. Tools take signals as a JSON array.

## Signal

` + "```" + `json
{
  "type": "explicit",                   // explicit | intentional_implicit | unintentional_implicit
  "source": "quiz",                     // quiz, calibration, training, swipe, feed, content,
                                        // refyn, selectr, dropr, canora, external, api, migration
  "timestamp": "2025-07-30T10:00:00Z",  // RFC 3339
  "data": {
    "kind": "choice",                   // decides the payload shape, see below
    "questionId": "q-12",
    "archetypeWeights": {"C-4": 1, "Ø": 0.5}
  }
}
` + "```" + `

## Rules

1. **` + "`" + `data.kind` + "`" + ` selects the payload.** Explicit kinds: rating, choice,
   likert, block, ranking, preference, comparison, selection. Implicit kinds:
   dwell, skip, repeat, save, share, click. An unknown kind is rejected.
2. **` + "`" + `type` + "`" + ` must agree with the kind.** Explicit kinds need
   ` + "`" + `"type": "explicit"` + "`" + `; implicit kinds need one of the implicit types.
3. **Archetype weights** are keyed by designation: S-0, T-1, V-2, L-3, C-4,
   N-5, H-6, P-7, D-8, F-9, R-10, Ø. Weights must be finite numbers. Only
   explicit signals carry weights; implicit signals are counted but not scored.
4. **Implicit payloads** carry ` + "`" + `itemId` + "`" + ` and optionally
   ` + "`" + `duration` + "`" + ` (seconds, non-negative) and ` + "`" + `context` + "`" + `.
5. **Context labels** for classify_signals are Creating, Consuming, Curating or
   any custom label of at most 64 characters.

## Batch files

The inbox directory and the import_batch tool accept one batch per file, as
JSON (.json) or YAML (.yaml, .yml):

` + "```" + `yaml
userId: alice
source: feed          # default for signals without a source
batchId: feed-0412    # optional; defaults to a content checksum
signals:
  - type: unintentional_implicit
    data:
      kind: dwell
      itemId: track-9
      duration: 42
  - type: explicit
    timestamp: 2025-07-29T08:00:00Z   # optional; defaults to the time of ingest
    data:
      kind: rating
      value: 4
      archetypeWeights:
        Ø: 0.5
` + "```" + `

Ingested files are archived under .processed/. Files that fail validation are
moved to .failed/ with a .error note describing the problem.
`
