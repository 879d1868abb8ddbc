package keywords

import (
	"reflect"
	"testing"
)

func TestCategorize(t *testing.T) {
	m := Categorize("A Cinematic, DARK piece: slow and nuanced. OK?")
	if want := []string{"cinematic", "dark", "slow"}; !reflect.DeepEqual(m.Visual, want) {
		t.Errorf("visual = %v, want %v", m.Visual, want)
	}
	if want := []string{"slow", "nuanced"}; !reflect.DeepEqual(m.Content, want) {
		t.Errorf("content = %v, want %v", m.Content, want)
	}
	if m := Categorize("a ok no"); len(m.Visual)+len(m.Content) != 0 {
		t.Errorf("short words matched: %+v", m)
	}
}

func TestLearnPolarity(t *testing.T) {
	start := NewScores()
	s := Learn(start, "raw raw texture", 1, Positive)
	s = Learn(s, "raw", 0.5, Negative)

	if got := s.Visual["raw"]; got.Score != 1.5 || got.Count != 3 {
		t.Errorf("raw = %+v", got)
	}
	if got := s.Visual["texture"]; got.Score != 1 || got.Count != 1 {
		t.Errorf("texture = %+v", got)
	}
	if len(start.Visual) != 0 {
		t.Error("input scores were modified")
	}
}

func TestAttractedAndRepelled(t *testing.T) {
	s := Learn(NewScores(), "warm playful", 2, Positive)
	s = Learn(s, "cold", 3, Negative)
	s = Learn(s, "serious", 1, Positive)
	s = Learn(s, "serious", 1, Negative)

	att := Attracted(s, 1)
	if len(att.Content) != 1 || att.Content[0].Keyword != "playful" {
		t.Errorf("attracted = %+v", att.Content)
	}
	rep := Repelled(s, 10)
	if len(rep.Content) != 1 || rep.Content[0].Keyword != "cold" || rep.Content[0].Score != 3 {
		t.Errorf("repelled = %+v", rep.Content)
	}

	st := StatsOf(s)
	if st.Total != 4 || st.Positive != 2 || st.Negative != 1 || st.Neutral != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestMerge(t *testing.T) {
	a := Learn(NewScores(), "deep", 1, Positive)
	b := Learn(NewScores(), "deep", 2, Positive)
	m := Merge(a, b)
	if got := m.Content["deep"]; got.Score != 3 || got.Count != 2 {
		t.Errorf("merged content deep = %+v", got)
	}
	if got := m.Visual["deep"]; got.Score != 3 || got.Count != 2 {
		t.Errorf("merged visual deep = %+v", got)
	}
}
