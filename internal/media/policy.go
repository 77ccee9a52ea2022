// Package media filters upstream media lists and records the retained
// entries as URL pointers. It never downloads media bytes.
package media

import (
	"fmt"
	"strings"

	"github.com/franz/retro-scraper/internal/normalize"
	"github.com/franz/retro-scraper/internal/util"
)

// DefaultMaxSize is the largest declared media size kept
const DefaultMaxSize = "50MB"

// DefaultExcludedTypes are media categories not used for display.
// Matching is by prefix, so "bezel" covers bezel-4-3 and bezel-16-9.
var DefaultExcludedTypes = []string{
	"box-texture",
	"support-texture",
	"bezel",
	"overlay",
	"steamgrid",
	"picto",
	"manuel",
	"flyer",
	"maps",
	"theme",
}

// DefaultExcludedRegions are uncommon locales whose media is rarely distinct
var DefaultExcludedRegions = []string{
	"ae", "au", "bg", "br", "ca", "cl", "cn", "cus", "cz", "dk",
	"fi", "gr", "hk", "il", "kr", "kw", "mor", "nl", "no", "nz",
	"oce", "pe", "pl", "pt", "ru", "se", "sk", "tr", "tw", "za",
}

// Policy decides which media items are kept
type Policy struct {
	ExcludedTypes   []string
	ExcludedRegions []string
	MaxSize         int64 // bytes; 0 disables the size check
}

// DefaultPolicy returns the built-in policy
func DefaultPolicy() Policy {
	maxSize, _ := util.ParseBytes(DefaultMaxSize)
	return Policy{
		ExcludedTypes:   append([]string(nil), DefaultExcludedTypes...),
		ExcludedRegions: append([]string(nil), DefaultExcludedRegions...),
		MaxSize:         maxSize,
	}
}

// NewPolicy builds a policy from configuration. nil lists fall back to the
// defaults while empty lists disable the filter; an empty maxSize keeps the default.
func NewPolicy(types, regions []string, maxSize string) (Policy, error) {
	p := DefaultPolicy()
	if types != nil {
		p.ExcludedTypes = lowerAll(types)
	}
	if regions != nil {
		p.ExcludedRegions = lowerAll(regions)
	}
	if strings.TrimSpace(maxSize) != "" {
		n, err := util.ParseBytes(maxSize)
		if err != nil {
			return Policy{}, fmt.Errorf("media.max_size: %w", err)
		}
		p.MaxSize = n
	}
	return p, nil
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Rejection is a media item the policy dropped
type Rejection struct {
	Item   normalize.MediaItem
	Reason string
}

// Classify keeps the items that pass the policy, at most one per (type, region), first wins
func (p Policy) Classify(items []normalize.MediaItem) ([]normalize.MediaItem, []Rejection) {
	var kept []normalize.MediaItem
	var rejected []Rejection
	seen := make(map[string]bool)

	for _, item := range items {
		mediaType := strings.ToLower(item.Type)
		region := strings.ToLower(item.Region)

		switch {
		case p.typeExcluded(mediaType):
			rejected = append(rejected, Rejection{Item: item, Reason: "excluded type"})
			continue
		case region != "" && contains(p.ExcludedRegions, region):
			rejected = append(rejected, Rejection{Item: item, Reason: "excluded region"})
			continue
		case p.MaxSize > 0 && item.Size != nil && *item.Size > p.MaxSize:
			rejected = append(rejected, Rejection{
				Item:   item,
				Reason: fmt.Sprintf("size %s exceeds %s", util.FormatBytes(*item.Size), util.FormatBytes(p.MaxSize)),
			})
			continue
		}

		key := mediaType + "\x00" + region
		if seen[key] {
			rejected = append(rejected, Rejection{Item: item, Reason: "duplicate type and region"})
			continue
		}
		seen[key] = true
		kept = append(kept, item)
	}

	return kept, rejected
}

func (p Policy) typeExcluded(mediaType string) bool {
	for _, excluded := range p.ExcludedTypes {
		if strings.HasPrefix(mediaType, excluded) {
			return true
		}
	}
	return false
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
