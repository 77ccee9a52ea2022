package normalize

import (
	"reflect"
	"testing"
)

func TestResolveTextFallback(t *testing.T) {
	chain := DefaultPriorities().Chain("FR")

	tests := []struct {
		name       string
		candidates []RegionalText
		want       string
		wantRegion string
		wantOK     bool
	}{
		{
			name:       "eu precedes us for fr",
			candidates: []RegionalText{{Region: "us", Text: "A"}, {Region: "eu", Text: "B"}},
			want:       "B",
			wantRegion: "eu",
			wantOK:     true,
		},
		{
			name:       "first available when no chain region matches",
			candidates: []RegionalText{{Region: "jp", Text: "C"}},
			want:       "C",
			wantRegion: "jp",
			wantOK:     true,
		},
		{
			name:       "unlisted region falls back to list order",
			candidates: []RegionalText{{Region: "kr", Text: "K"}, {Region: "br", Text: "P"}},
			want:       "K",
			wantRegion: "kr",
			wantOK:     true,
		},
		{
			name:       "mixed case region codes",
			candidates: []RegionalText{{Region: "US", Text: "A"}, {Region: " Wor ", Text: "W"}},
			want:       "W",
			wantRegion: "wor",
			wantOK:     true,
		},
		{
			name:       "empty text is skipped",
			candidates: []RegionalText{{Region: "fr", Text: "  "}, {Region: "us", Text: "A"}},
			want:       "A",
			wantRegion: "us",
			wantOK:     true,
		},
		{
			name:       "empty list",
			candidates: nil,
			wantOK:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, region, ok := ResolveText(tt.candidates, chain)
			if ok != tt.wantOK || got != tt.want || region != tt.wantRegion {
				t.Errorf("ResolveText() = (%q, %q, %v), want (%q, %q, %v)",
					got, region, ok, tt.want, tt.wantRegion, tt.wantOK)
			}
		})
	}
}

func TestPrioritiesChain(t *testing.T) {
	p := DefaultPriorities()

	if got := p.Chain("fr"); !reflect.DeepEqual(got, []string{"fr", "eu", "wor", "ss", "us", "jp"}) {
		t.Errorf("fr chain = %v", got)
	}
	if got := p.Chain("kr"); !reflect.DeepEqual(got, []string{"kr", "wor", "ss", "eu", "us", "jp"}) {
		t.Errorf("unknown region chain = %v", got)
	}

	merged := p.Merge(map[string][]string{"fr": {"FR", "wor"}})
	if got := merged.Chain("fr"); !reflect.DeepEqual(got, []string{"fr", "wor"}) {
		t.Errorf("override chain = %v", got)
	}
	if got := p.Chain("fr"); len(got) != 6 {
		t.Errorf("Merge must not modify the receiver, got %v", got)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input  string
		want   Date
		wantOK bool
	}{
		{"1991", Date{Year: 1991}, true},
		{"1991-06", Date{Year: 1991, Month: 6}, true},
		{"1991-06-23", Date{Year: 1991, Month: 6, Day: 23}, true},
		{" 2030 ", Date{Year: 2030}, true},
		{"1969", Date{}, false},
		{"2031-01-01", Date{}, false},
		{"0000-00-00", Date{}, false},
		{"1991-13", Date{}, false},
		{"91", Date{}, false},
		{"June 1991", Date{}, false},
		{"", Date{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseDate(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestResolveDateRejectsOutOfRange(t *testing.T) {
	chain := DefaultPriorities().Chain("fr")
	candidates := []RegionalText{
		{Region: "fr", Text: "1900-01-01"},
		{Region: "us", Text: "1991-06-23"},
	}

	d, region, ok := ResolveDate(candidates, chain)
	if !ok || region != "us" || d.Year != 1991 {
		t.Errorf("ResolveDate() = (%v, %q, %v), want 1991 from us", d, region, ok)
	}
	if d.String() != "1991-06-23" {
		t.Errorf("Date.String() = %q", d.String())
	}

	if _, _, ok := ResolveDate([]RegionalText{{Region: "eu", Text: "2099"}}, chain); ok {
		t.Error("expected no match for year 2099")
	}
}

func TestLanguageChain(t *testing.T) {
	if got := LanguageChain("FR")[0]; got != "fr" {
		t.Errorf("fr language chain starts with %q", got)
	}
	if got := LanguageChain("us")[0]; got != "en" {
		t.Errorf("us language chain starts with %q", got)
	}
}
