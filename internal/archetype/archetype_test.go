package archetype

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestCatalogComplete(t *testing.T) {
	if len(catalog) != Count {
		t.Fatalf("catalog has %d entries, want %d", len(catalog), Count)
	}
	glyphs := make(map[string]struct{})
	sigils := make(map[string]struct{})
	for _, id := range All {
		a, ok := Get(id)
		if !ok {
			t.Fatalf("missing archetype %q", id)
		}
		if a.ID != id {
			t.Errorf("entry %q carries id %q", id, a.ID)
		}
		glyphs[a.Glyph] = struct{}{}
		sigils[a.Sigil] = struct{}{}
	}
	if len(glyphs) != Count || len(sigils) != Count {
		t.Errorf("glyphs=%d sigils=%d, want %d unique each", len(glyphs), len(sigils), Count)
	}
}

func TestAffinitiesInUnitRange(t *testing.T) {
	for _, id := range All {
		a := AffinityOf(id)
		for _, v := range []float64{a.Openness, a.Intellect, a.Mellow, a.Unpretentious, a.Sophisticated, a.Intense, a.Contemporary} {
			if v < 0 || v > 1 {
				t.Errorf("%s affinity %v out of range", id, v)
			}
		}
	}
}

func TestParseID(t *testing.T) {
	cases := map[string]ID{
		"C-4":      Cull,
		"cull":     Cull,
		"Severis":  Cull,
		"Ø":        Void,
		"void":     Void,
		"Lacuna":   Void,
		"R-10":     Schism,
		"palimpse": "",
	}
	for in, want := range cases {
		got, err := ParseID(in)
		if want == "" {
			if err == nil {
				t.Errorf("ParseID(%q) = %q, want error", in, got)
			}
			continue
		}
		if err != nil || got != want {
			t.Errorf("ParseID(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
}

func TestPositionBalance(t *testing.T) {
	bal := PositionBalance(map[ID]float64{Keth: 0.5, Cull: 0.25, Void: 0.25, "bogus": 1})
	if len(bal) != len(Positions) {
		t.Fatalf("balance has %d buckets, want %d", len(bal), len(Positions))
	}
	if bal[Keter] != 0.5 || bal[Geburah] != 0.25 || bal[AinSoph] != 0.25 {
		t.Errorf("unexpected balance %v", bal)
	}
	if bal[Hod] != 0 {
		t.Errorf("empty bucket = %v", bal[Hod])
	}
}

func TestResonanceOf(t *testing.T) {
	r := ResonanceOf(Toll)
	if r.Primary != Shango || r.Shadow != Oshun {
		t.Errorf("Toll resonance = %+v", r)
	}
}

func TestPublicCatalogHidesEngineFields(t *testing.T) {
	data, err := json.Marshal(PublicCatalog())
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, leaked := range []string{"Keter", "Obatala", "Aethonis", "affinity", "Openness"} {
		if strings.Contains(s, leaked) {
			t.Errorf("public catalog leaks %q", leaked)
		}
	}
	if !strings.Contains(s, `"glyph":"KETH"`) {
		t.Errorf("public catalog missing glyph: %s", s)
	}
}

func TestIndexOrder(t *testing.T) {
	for i, id := range All {
		if id.Index() != i {
			t.Errorf("%s index = %d, want %d", id, id.Index(), i)
		}
	}
	if ID("x").Index() != -1 {
		t.Error("unknown id should have index -1")
	}
}
