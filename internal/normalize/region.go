package normalize

import (
	"strconv"
	"strings"
)

// Priorities maps a preferred region to its ordered fallback chain
type Priorities map[string][]string

// DefaultPriorities returns the built-in region fallback table
func DefaultPriorities() Priorities {
	return Priorities{
		"fr":  {"fr", "eu", "wor", "ss", "us", "jp"},
		"eu":  {"eu", "wor", "ss", "us", "fr", "jp"},
		"us":  {"us", "wor", "ss", "eu", "jp"},
		"jp":  {"jp", "wor", "ss", "us", "eu"},
		"wor": {"wor", "ss", "eu", "us", "jp"},
	}
}

// Merge overlays configured chains on top of p and returns a new table
func (p Priorities) Merge(overrides map[string][]string) Priorities {
	merged := make(Priorities, len(p)+len(overrides))
	for k, v := range p {
		merged[k] = v
	}
	for k, v := range overrides {
		chain := make([]string, 0, len(v))
		for _, r := range v {
			if r = normalizeRegion(r); r != "" {
				chain = append(chain, r)
			}
		}
		if len(chain) > 0 {
			merged[normalizeRegion(k)] = chain
		}
	}
	return merged
}

// Chain returns the fallback order for a preferred region. An unknown code
// is tried first and then followed by the worldwide chain.
func (p Priorities) Chain(preferred string) []string {
	preferred = normalizeRegion(preferred)
	if chain, ok := p[preferred]; ok {
		return chain
	}
	chain := []string{}
	if preferred != "" {
		chain = append(chain, preferred)
	}
	for _, r := range p["wor"] {
		if r != preferred {
			chain = append(chain, r)
		}
	}
	return chain
}

// LanguageChain is the fallback order for language-keyed fields (synopsis, genre names)
func LanguageChain(preferredRegion string) []string {
	if normalizeRegion(preferredRegion) == "fr" {
		return []string{"fr", "en", "es", "de", "it", "pt"}
	}
	return []string{"en", "fr", "es", "de", "it", "pt"}
}

// Resolve picks the first accepted candidate in chain order. When no chain
// region matches, the first accepted candidate in list order wins.
func Resolve[T any](candidates []RegionalText, chain []string, accept func(string) (T, bool)) (T, string, bool) {
	for _, region := range chain {
		for _, c := range candidates {
			if normalizeRegion(c.Region) != region {
				continue
			}
			if v, ok := accept(c.Text); ok {
				return v, region, true
			}
		}
	}
	for _, c := range candidates {
		if v, ok := accept(c.Text); ok {
			return v, normalizeRegion(c.Region), true
		}
	}
	var zero T
	return zero, "", false
}

func nonEmpty(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}

// ResolveText returns the best non-empty text, or "" when nothing qualifies
func ResolveText(candidates []RegionalText, chain []string) (string, string, bool) {
	return Resolve(candidates, chain, nonEmpty)
}

// Year bounds outside which an upstream date is treated as corrupt
const (
	MinYear = 1970
	MaxYear = 2030
)

// Date is a parsed release date; Month and Day are 0 when unknown
type Date struct {
	Year  int
	Month int
	Day   int
}

// String renders the date with the precision it was parsed with
func (d Date) String() string {
	switch {
	case d.Day > 0:
		return strconv.Itoa(d.Year) + "-" + pad2(d.Month) + "-" + pad2(d.Day)
	case d.Month > 0:
		return strconv.Itoa(d.Year) + "-" + pad2(d.Month)
	}
	return strconv.Itoa(d.Year)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// ParseDate accepts YYYY, YYYY-MM and YYYY-MM-DD with a year in [MinYear, MaxYear]
func ParseDate(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "-")
	if len(parts) > 3 || len(parts[0]) != 4 {
		return Date{}, false
	}

	var nums [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return Date{}, false
		}
		nums[i] = n
	}

	d := Date{Year: nums[0], Month: nums[1], Day: nums[2]}
	if d.Year < MinYear || d.Year > MaxYear {
		return Date{}, false
	}
	if len(parts) >= 2 && (d.Month < 1 || d.Month > 12) {
		return Date{}, false
	}
	if len(parts) == 3 && (d.Day < 1 || d.Day > 31) {
		return Date{}, false
	}
	return d, true
}

// ResolveDate returns the best parseable date in chain order
func ResolveDate(candidates []RegionalText, chain []string) (Date, string, bool) {
	return Resolve(candidates, chain, ParseDate)
}
