package mcpserver

import (
	"encoding/json"
	"strings"
	"testing"
)

const initialResponses = `[
  {"questionId":"init-1-approach","response":0},
  {"questionId":"init-2-timing","response":0},
  {"questionId":"init-3-creation","response":1}
]`

func TestGetQuestions(t *testing.T) {
	srv, _ := testServer(t, false)

	r := callTool(t, srv, "get_questions", map[string]interface{}{"stage": "music", "userId": "fresh"})
	if r.IsError {
		t.Fatalf("error: %s", resultText(r))
	}
	var out struct {
		Stages []struct {
			ID        string            `json:"id"`
			Questions []json.RawMessage `json:"questions"`
		} `json:"stages"`
		Status struct {
			NextStage struct {
				ID string `json:"id"`
			} `json:"nextStage"`
		} `json:"status"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Stages) != 1 || out.Stages[0].ID != "music" || len(out.Stages[0].Questions) != 3 {
		t.Errorf("stages = %+v", out.Stages)
	}
	if out.Status.NextStage.ID != "initial" {
		t.Errorf("next stage = %q", out.Status.NextStage.ID)
	}

	if r := callTool(t, srv, "get_questions", map[string]interface{}{"stage": "encore"}); !r.IsError {
		t.Error("unknown stage should fail")
	}
}

func TestSubmitAssessment(t *testing.T) {
	srv, _ := testServer(t, false)

	r := callTool(t, srv, "submit_assessment", map[string]interface{}{
		"userId":    "quiz-taker",
		"stage":     "initial",
		"responses": initialResponses,
	})
	if r.IsError {
		t.Fatalf("error: %s", resultText(r))
	}
	var out struct {
		Created bool `json:"created"`
		Genome  struct {
			OwnerID string `json:"userId"`
		} `json:"genome"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &out); err != nil {
		t.Fatal(err)
	}
	if !out.Created || out.Genome.OwnerID != "quiz-taker" {
		t.Errorf("output = %+v", out)
	}

	for name, args := range map[string]map[string]interface{}{
		"repeat":    {"userId": "quiz-taker", "stage": "initial", "responses": initialResponses},
		"bad json":  {"userId": "x", "stage": "initial", "responses": "["},
		"no stage":  {"userId": "x", "responses": initialResponses},
		"too early": {"userId": "y", "stage": "deep", "responses": "[]"},
	} {
		if r := callTool(t, srv, "submit_assessment", args); !r.IsError {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLearnKeywordsTool(t *testing.T) {
	srv, _ := testServer(t, false)

	if r := callTool(t, srv, "learn_keywords", map[string]interface{}{"userId": "nobody", "text": "dark"}); resultText(r) != "not found" {
		t.Errorf("missing genome = %s", resultText(r))
	}
	callTool(t, srv, "ingest_signals", map[string]interface{}{"userId": "kw", "signals": cullSignals})

	r := callTool(t, srv, "learn_keywords", map[string]interface{}{
		"userId":   "kw",
		"text":     "too polished and clean",
		"weight":   1.5,
		"polarity": "negative",
	})
	if r.IsError {
		t.Fatalf("error: %s", resultText(r))
	}
	if text := resultText(r); !strings.Contains(text, `"keyword": "clean"`) || !strings.Contains(text, `"negativeKeywords": 1`) {
		t.Errorf("profile = %s", text)
	}
}
