package normalize

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Sonic the Hedgehog", "sonic-the-hedgehog"},
		{"Pokémon Rouge", "pokemon-rouge"},
		{"  Street Fighter II': Champion Edition  ", "street-fighter-ii-champion-edition"},
		{"Mega-Drive / Genesis", "mega-drive-genesis"},
		{"Ys III - Wanderers from Ys", "ys-iii-wanderers-from-ys"},
		{"ÉCLAT", "eclat"},
		{"---", "item"},
		{"", "item"},
		{"ロックマン", "item"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
