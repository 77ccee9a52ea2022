// Package normalize turns the upstream's shifting payload shapes into one
// canonical record per concept. Nothing here performs I/O or returns errors:
// unrecognized shapes degrade to zero values, nil pointers or placeholders.
package normalize

import (
	"bytes"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// aliasKeys are the wrapper keys the legacy shape uses around a scalar, tried in order
var aliasKeys = []string{"text", "nom", "value"}

type kind int

const (
	kindNull kind = iota
	kindString
	kindNumber
	kindBool
	kindObject
	kindArray
)

func kindOf(raw []byte) kind {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return kindNull
	}
	switch c := raw[0]; {
	case c == '"':
		return kindString
	case c == '{':
		return kindObject
	case c == '[':
		return kindArray
	case c == 't' || c == 'f':
		return kindBool
	case c == '-' || (c >= '0' && c <= '9'):
		return kindNumber
	}
	return kindNull
}

func object(raw []byte) map[string]json.RawMessage {
	if kindOf(raw) != kindObject {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func array(raw []byte) []json.RawMessage {
	if kindOf(raw) != kindArray {
		return nil
	}
	var a []json.RawMessage
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil
	}
	return a
}

// Scalar unwraps a string, number, boolean or alias-wrapped object into its
// trimmed string form. ok is false for null, arrays and unknown objects.
func Scalar(raw []byte) (string, bool) {
	switch kindOf(raw) {
	case kindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return strings.TrimSpace(s), true
	case kindNumber, kindBool:
		return string(bytes.TrimSpace(raw)), true
	case kindObject:
		m := object(raw)
		for _, key := range aliasKeys {
			if v, ok := m[key]; ok && kindOf(v) != kindObject {
				return Scalar(v)
			}
		}
	}
	return "", false
}

// Text returns the scalar form or ""
func Text(raw []byte) string {
	s, _ := Scalar(raw)
	return s
}

// Int parses a numeric-ish value. Integral floats ("16.0") are accepted.
func Int(raw []byte) *int64 {
	s, ok := Scalar(raw)
	if !ok || s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return nil
	}
	n := int64(f)
	return &n
}

// Flag is true only for boolean true, 1, "1" or "true"
func Flag(raw []byte) bool {
	s, ok := Scalar(raw)
	if !ok {
		return false
	}
	switch strings.ToLower(s) {
	case "1", "true":
		return true
	}
	return false
}

// Players reads a player count. A range such as "1-4" yields its upper bound.
func Players(raw []byte) *int64 {
	s, ok := Scalar(raw)
	if !ok {
		return nil
	}
	if i := strings.LastIndex(s, "-"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return nil
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

// RegionalText is one localized value of a field
type RegionalText struct {
	Region string // lower-case region or language code, "" when the shape carries none
	Text   string
}

// RegionalTexts reads every shape a localized field has used:
// an array of {region|langue, text}, a region-keyed object ({"nom_eu": ...}
// or {"eu": ...}), a flat string, or an alias-wrapped object.
// Entries with empty text are dropped.
func RegionalTexts(raw []byte) []RegionalText {
	switch kindOf(raw) {
	case kindArray:
		var out []RegionalText
		for _, item := range array(raw) {
			if kindOf(item) != kindObject {
				if s, ok := Scalar(item); ok && s != "" {
					out = append(out, RegionalText{Text: s})
				}
				continue
			}
			m := object(item)
			text := Text(m["text"])
			if text == "" {
				text = Text(item)
			}
			if text == "" {
				continue
			}
			region := Text(m["region"])
			if region == "" {
				region = Text(m["langue"])
			}
			out = append(out, RegionalText{Region: normalizeRegion(region), Text: text})
		}
		return out

	case kindObject:
		m := object(raw)
		for _, key := range aliasKeys {
			if _, ok := m[key]; ok {
				if s := Text(raw); s != "" {
					return []RegionalText{{Text: s}}
				}
				return nil
			}
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []RegionalText
		for _, k := range keys {
			region, ok := regionKey(k)
			if !ok {
				continue
			}
			if s, ok := Scalar(m[k]); ok && s != "" {
				out = append(out, RegionalText{Region: region, Text: s})
			}
		}
		return out

	case kindString, kindNumber:
		if s, ok := Scalar(raw); ok && s != "" {
			return []RegionalText{{Text: s}}
		}
	}
	return nil
}

// regionKey maps "nom_eu" or "eu" to "eu". Keys whose suffix is not a
// two or three letter code (nom_recalbox, noms_commun) are not regions.
func regionKey(key string) (string, bool) {
	if i := strings.LastIndex(key, "_"); i >= 0 {
		key = key[i+1:]
	}
	key = normalizeRegion(key)
	if len(key) < 2 || len(key) > 3 {
		return "", false
	}
	for _, r := range key {
		if r < 'a' || r > 'z' {
			return "", false
		}
	}
	return key, true
}

func normalizeRegion(region string) string {
	return strings.ToLower(strings.TrimSpace(region))
}

// EntityRef names a corporation-like entity, with its upstream id when known
type EntityRef struct {
	UpstreamID *int64
	Name       string
}

// Ref reads a flat string or an {id, text|nom|value} object. nil when no name is present.
func Ref(raw []byte) *EntityRef {
	var ref EntityRef
	switch kindOf(raw) {
	case kindString:
		ref.Name = Text(raw)
	case kindObject:
		m := object(raw)
		ref.Name = Text(raw)
		if id := Int(m["id"]); id != nil && *id > 0 {
			ref.UpstreamID = id
		}
	default:
		return nil
	}
	if ref.Name == "" {
		return nil
	}
	return &ref
}

// ListEntry is one element of a multi-valued list such as genres or families
type ListEntry struct {
	UpstreamID *int64
	Principal  bool
	Names      []RegionalText
}

// ListEntries reads an array of {id, principale, noms} objects. A single
// object is treated as a one-element list.
func ListEntries(raw []byte) []ListEntry {
	var items []json.RawMessage
	switch kindOf(raw) {
	case kindArray:
		items = array(raw)
	case kindObject:
		items = []json.RawMessage{raw}
	default:
		return nil
	}

	var out []ListEntry
	for _, item := range items {
		m := object(item)
		if m == nil {
			continue
		}
		entry := ListEntry{Principal: Flag(m["principale"])}
		if id := Int(m["id"]); id != nil && *id > 0 {
			entry.UpstreamID = id
		}
		entry.Names = RegionalTexts(m["noms"])
		if len(entry.Names) == 0 {
			if s := Text(item); s != "" {
				entry.Names = []RegionalText{{Text: s}}
			}
		}
		if entry.UpstreamID == nil && len(entry.Names) == 0 {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// Principal returns the entry flagged principal, else the first one, else nil
func Principal(entries []ListEntry) *ListEntry {
	for i := range entries {
		if entries[i].Principal {
			return &entries[i]
		}
	}
	if len(entries) > 0 {
		return &entries[0]
	}
	return nil
}

// MediaItem is one upstream media reference
type MediaItem struct {
	Type   string
	Region string
	URL    string
	Format string
	Parent string
	Size   *int64
}

// Media reads the medias array. Items without a type are dropped.
func Media(raw []byte) []MediaItem {
	var out []MediaItem
	for _, item := range array(raw) {
		m := object(item)
		if m == nil {
			continue
		}
		media := MediaItem{
			Type:   Text(m["type"]),
			Region: normalizeRegion(Text(m["region"])),
			URL:    Text(m["url"]),
			Format: strings.ToLower(Text(m["format"])),
			Parent: Text(m["parent"]),
			Size:   Int(m["size"]),
		}
		if media.Type == "" {
			continue
		}
		out = append(out, media)
	}
	return out
}
