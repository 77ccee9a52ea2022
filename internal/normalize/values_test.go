package normalize

import (
	"reflect"
	"testing"
)

func TestScalar(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{`"Sega"`, "Sega", true},
		{`16`, "16", true},
		{`true`, "true", true},
		{`{"text":"16"}`, "16", true},
		{`{"nom":"Sega"}`, "Sega", true},
		{`{"value":3}`, "3", true},
		{`{"id":"1"}`, "", false},
		{`null`, "", false},
		{`[1,2]`, "", false},
		{``, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Scalar([]byte(tt.input))
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Scalar(%s) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFlag(t *testing.T) {
	truthy := []string{`true`, `1`, `"1"`, `"true"`, `{"text":"1"}`}
	falsy := []string{`false`, `0`, `"0"`, `""`, `null`, `"yes"`, `2`, ``}

	for _, in := range truthy {
		if !Flag([]byte(in)) {
			t.Errorf("Flag(%s) = false, want true", in)
		}
	}
	for _, in := range falsy {
		if Flag([]byte(in)) {
			t.Errorf("Flag(%s) = true, want false", in)
		}
	}
}

func TestIntAndPlayers(t *testing.T) {
	intTests := map[string]*int64{
		`"16"`:           ptr(16),
		`16`:             ptr(16),
		`{"text":"18"}`:  ptr(18),
		`"16.0"`:         ptr(16),
		`"16.5"`:         nil,
		`"n/a"`:          nil,
		`null`:           nil,
		`{"other":"12"}`: nil,
	}
	for in, want := range intTests {
		if got := Int([]byte(in)); !reflect.DeepEqual(got, want) {
			t.Errorf("Int(%s) = %v, want %v", in, deref(got), deref(want))
		}
	}

	playerTests := map[string]*int64{
		`{"text":"1-4"}`: ptr(4),
		`"2"`:            ptr(2),
		`1`:              ptr(1),
		`"1 - 2"`:        ptr(2),
		`"4+"`:           ptr(4),
		`"many"`:         nil,
		`"0"`:            nil,
	}
	for in, want := range playerTests {
		if got := Players([]byte(in)); !reflect.DeepEqual(got, want) {
			t.Errorf("Players(%s) = %v, want %v", in, deref(got), deref(want))
		}
	}
}

func TestRegionalTexts(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []RegionalText
	}{
		{
			name:  "regional array",
			input: `[{"region":"eu","text":"Sonic"},{"region":"JP","text":"Sonic JP"},{"region":"us","text":""}]`,
			want:  []RegionalText{{"eu", "Sonic"}, {"jp", "Sonic JP"}},
		},
		{
			name:  "language array",
			input: `[{"langue":"fr","text":"Un hérisson"}]`,
			want:  []RegionalText{{"fr", "Un hérisson"}},
		},
		{
			name:  "region keyed object skips non-region keys",
			input: `{"nom_us":"Genesis","nom_eu":"Megadrive","nom_recalbox":"megadrive","noms_commun":"x"}`,
			want:  []RegionalText{{"eu", "Megadrive"}, {"us", "Genesis"}},
		},
		{
			name:  "flat string",
			input: `"Sonic"`,
			want:  []RegionalText{{"", "Sonic"}},
		},
		{
			name:  "alias wrapped object",
			input: `{"text":"Sonic"}`,
			want:  []RegionalText{{"", "Sonic"}},
		},
		{
			name:  "unrecognized",
			input: `true`,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RegionalTexts([]byte(tt.input))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RegionalTexts() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRef(t *testing.T) {
	if ref := Ref([]byte(`"Konami"`)); ref == nil || ref.Name != "Konami" || ref.UpstreamID != nil {
		t.Errorf("flat ref = %+v", ref)
	}
	ref := Ref([]byte(`{"id":"3","text":"Sega"}`))
	if ref == nil || ref.Name != "Sega" || ref.UpstreamID == nil || *ref.UpstreamID != 3 {
		t.Errorf("object ref = %+v", ref)
	}
	if ref := Ref([]byte(`{"id":"3"}`)); ref != nil {
		t.Errorf("ref without name should be nil, got %+v", ref)
	}
	if ref := Ref([]byte(`null`)); ref != nil {
		t.Errorf("null ref should be nil, got %+v", ref)
	}
}

func TestPrincipal(t *testing.T) {
	entries := ListEntries([]byte(`[{"id":"1","principale":"0"},{"id":"7","principale":"1"}]`))
	p := Principal(entries)
	if p == nil || *p.UpstreamID != 7 {
		t.Fatalf("expected principal 7, got %+v", p)
	}

	entries = ListEntries([]byte(`[{"id":"3"},{"id":"4"}]`))
	if p := Principal(entries); p == nil || *p.UpstreamID != 3 {
		t.Errorf("expected first entry, got %+v", p)
	}

	if p := Principal(nil); p != nil {
		t.Errorf("expected nil, got %+v", p)
	}
}

func TestMedia(t *testing.T) {
	items := Media([]byte(`[
		{"type":"box-2D","region":"EU","url":"https://example.test/box.png","size":"1234","format":"PNG","parent":"jeu"},
		{"region":"eu","url":"https://example.test/notype.png"},
		"garbage"
	]`))
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	got := items[0]
	if got.Type != "box-2D" || got.Region != "eu" || got.Format != "png" || got.Size == nil || *got.Size != 1234 {
		t.Errorf("unexpected media item: %+v", got)
	}
}

func ptr(n int64) *int64 { return &n }

func deref(p *int64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
