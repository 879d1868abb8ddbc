package genomeservice

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/starford/subtaste/internal/apperr"
	"github.com/starford/subtaste/internal/archetype"
	"github.com/starford/subtaste/internal/keywords"
	"github.com/starford/subtaste/internal/profiler"
)

func responses(t *testing.T, answers map[string]any) []profiler.Response {
	t.Helper()
	out := make([]profiler.Response, 0, len(answers))
	for id, v := range answers {
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, profiler.Response{QuestionID: id, Answer: raw})
	}
	return out
}

func initialAnswers(t *testing.T) []profiler.Response {
	return responses(t, map[string]any{"init-1-approach": 1, "init-2-timing": 0, "init-3-creation": 0})
}

func musicAnswers(t *testing.T) []profiler.Response {
	return responses(t, map[string]any{"music-1-complexity": 5, "music-2-intensity": 1, "music-3-obscurity": 4})
}

func TestProfilingJourney(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	st, err := env.svc.ProfilingStatus(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if st.Next == nil || st.Next.ID != profiler.StageInitial || !st.ShouldPrompt {
		t.Fatalf("fresh status = %+v", st)
	}

	c, err := env.svc.SubmitStage(ctx, "alice", profiler.StageInitial, initialAnswers(t), 0)
	if err != nil {
		t.Fatalf("initial: %v", err)
	}
	if !c.Created || !c.Genome.HasStage(string(profiler.StageInitial)) || len(c.Genome.Behaviour.SignalHistory) != 3 {
		t.Errorf("initial change = %+v", c)
	}

	if _, err := env.svc.SubmitStage(ctx, "alice", profiler.StageMusic, musicAnswers(t), 0); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("music before milestone err = %v", err)
	}
	if _, err := env.svc.SubmitStage(ctx, "alice", profiler.StageDeep, nil, 0); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("empty deep submission err = %v", err)
	}

	if _, err := env.svc.Update(ctx, "alice", choices(archetype.Vault, 2), 0); err != nil {
		t.Fatal(err)
	}
	cur, _ := env.svc.Get(ctx, "alice")
	if _, err := env.svc.SubmitStage(ctx, "alice", profiler.StageMusic, musicAnswers(t), cur.Version+1); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale version err = %v", err)
	}

	c, err = env.svc.SubmitStage(ctx, "alice", profiler.StageMusic, musicAnswers(t), cur.Version)
	if err != nil {
		t.Fatalf("music: %v", err)
	}
	if c.Created || !c.Genome.HasStage(string(profiler.StageMusic)) || c.Genome.Version <= cur.Version {
		t.Errorf("music change = %+v", c)
	}
	if got := len(c.Genome.Behaviour.SignalHistory); got != 8 {
		t.Errorf("history = %d, want 8", got)
	}

	st, _ = env.svc.ProfilingStatus(ctx, "alice")
	if !st.State.Has(profiler.StageMusic) || st.ShouldPrompt {
		t.Errorf("status after music = %+v", st)
	}

	kinds := env.pub.kinds()
	if kinds[0] != EventStageCompleted || kinds[len(kinds)-1] != EventStageCompleted {
		t.Errorf("events = %v", kinds)
	}
}

func TestSubmitStageNeedsOnboardingFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.SubmitStage(ctx, "bob", profiler.StageMusic, musicAnswers(t), 0); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v", err)
	}
	if _, err := env.svc.Get(ctx, "bob"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("rejected stage stored a genome: %v", err)
	}
	if _, err := env.svc.SubmitStage(ctx, "bob", "bogus", nil, 0); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("unknown stage err = %v", err)
	}
	if _, err := env.svc.SubmitStage(ctx, "", profiler.StageInitial, initialAnswers(t), 0); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("empty owner err = %v", err)
	}
}

func TestLearnKeywords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.LearnKeywords(ctx, "alice", "dark", 0, "", 0); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing genome err = %v", err)
	}
	created, err := env.svc.Create(ctx, "alice", choices(archetype.Omen, 2))
	if err != nil {
		t.Fatal(err)
	}

	g, err := env.svc.LearnKeywords(ctx, "alice", "Dark, cinematic and playful", 0, "", created.Version)
	if err != nil {
		t.Fatal(err)
	}
	if g.Version != created.Version+1 {
		t.Errorf("version = %d", g.Version)
	}
	if _, err := env.svc.LearnKeywords(ctx, "alice", "cold", 2, keywords.Negative, 0); err != nil {
		t.Fatal(err)
	}

	prof, err := env.svc.Keywords(ctx, "alice", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(prof.Attracted.Visual) != 2 || prof.Attracted.Visual[0].Keyword != "cinematic" {
		t.Errorf("attracted visual = %+v", prof.Attracted.Visual)
	}
	if len(prof.Repelled.Content) != 1 || prof.Repelled.Content[0].Score != 2 {
		t.Errorf("repelled content = %+v", prof.Repelled.Content)
	}

	for name, call := range map[string]func() error{
		"empty text":    func() error { _, err := env.svc.LearnKeywords(ctx, "alice", "", 1, "", 0); return err },
		"heavy weight":  func() error { _, err := env.svc.LearnKeywords(ctx, "alice", "dark", 11, "", 0); return err },
		"negative":      func() error { _, err := env.svc.LearnKeywords(ctx, "alice", "dark", -1, "", 0); return err },
		"polarity":      func() error { _, err := env.svc.LearnKeywords(ctx, "alice", "dark", 1, "meh", 0); return err },
		"stale version": func() error { _, err := env.svc.LearnKeywords(ctx, "alice", "dark", 1, "", 1); return err },
	} {
		err := call()
		want := apperr.ErrValidation
		if name == "stale version" {
			want = apperr.ErrConflict
		}
		if !errors.Is(err, want) {
			t.Errorf("%s: err = %v, want %v", name, err, want)
		}
	}
}

func TestSubmitTraining(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	picks := []profiler.TrainingPick{{BestID: "bw-sit-viral", WorstID: "bw-calm"}}
	if _, err := env.svc.SubmitTraining(ctx, "alice", picks, 0); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing genome err = %v", err)
	}
	if _, err := env.svc.Create(ctx, "alice", choices(archetype.Silt, 1)); err != nil {
		t.Fatal(err)
	}

	c, err := env.svc.SubmitTraining(ctx, "alice", append(picks, picks...), 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Genome.Archetype.Primary.ID; got != archetype.Schism {
		t.Errorf("primary = %s, want %s", got, archetype.Schism)
	}
	if got := len(c.Genome.Behaviour.SignalHistory); got != 5 {
		t.Errorf("history = %d, want 5", got)
	}
	if _, err := env.svc.SubmitTraining(ctx, "alice", nil, 0); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("empty picks err = %v", err)
	}
}
