// Package language holds the fixed set of ISO 639-1 codes the proxy accepts
// and the pivot language used when no direct model exists for a pair.
package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Pivot is the intermediate language for two-hop translation.
const Pivot = "en"

// DefaultCodes is the allow-list, in the order it is reported to callers.
var DefaultCodes = []string{
	"en", "es", "fr", "de", "ru", "zh", "ar", "hi", "ja", "pt",
	"it", "nl", "pl", "tr", "sv", "fi", "ko", "uk", "cs",
}

// Set is an ordered, read-only collection of language codes.
type Set struct {
	codes []string
	index map[string]struct{}
}

// NewSet builds a Set from codes. Every code must be a known ISO 639 base
// language; duplicates are dropped keeping the first occurrence.
func NewSet(codes []string) (*Set, error) {
	s := &Set{index: make(map[string]struct{}, len(codes))}
	for _, c := range codes {
		code := Normalize(c)
		if _, err := language.ParseBase(code); err != nil {
			return nil, fmt.Errorf("invalid language code %q: %w", c, err)
		}
		if _, dup := s.index[code]; dup {
			continue
		}
		s.index[code] = struct{}{}
		s.codes = append(s.codes, code)
	}
	if len(s.codes) == 0 {
		return nil, fmt.Errorf("language set is empty")
	}
	return s, nil
}

// Default returns the built-in allow-list. It panics only if DefaultCodes is
// edited into something invalid.
func Default() *Set {
	s, err := NewSet(DefaultCodes)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Set) Contains(code string) bool {
	_, ok := s.index[code]
	return ok
}

// Codes returns a copy of the codes in allow-list order.
func (s *Set) Codes() []string {
	out := make([]string, len(s.codes))
	copy(out, s.codes)
	return out
}

func (s *Set) Len() int {
	return len(s.codes)
}

func (s *Set) String() string {
	return strings.Join(s.codes, ", ")
}

// Normalize lower-cases and trims a raw code from user input.
func Normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Name returns the English display name for code, or the code itself when
// the name is unknown.
func Name(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}
