// Package text implements the cleaner profiles applied to raw manifest text
// before tokenization.
package text

import (
	"fmt"
	"strings"
)

// Cleaner profile names accepted by the text_cleaner option.
const (
	ProfileBasic   = "basic_cleaners"
	ProfileEnglish = "english_cleaners"
)

// Cleaner transforms raw manifest text into tokenizer-ready form.
type Cleaner func(string) string

// ForProfile returns the cleaner registered under name.
func ForProfile(name string) (Cleaner, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProfileBasic:
		return CleanBasic, nil
	case ProfileEnglish:
		return CleanEnglish, nil
	default:
		return nil, fmt.Errorf(
			"unknown text cleaner %q (expected %s|%s)",
			name,
			ProfileBasic,
			ProfileEnglish,
		)
	}
}

// CleanBasic lowercases and collapses whitespace.
func CleanBasic(s string) string {
	return collapseWhitespace(strings.ToLower(s))
}

// CleanEnglish expands common English abbreviations, then lowercases and
// collapses whitespace.
func CleanEnglish(s string) string {
	return collapseWhitespace(expandAbbreviations(strings.ToLower(s)))
}

// abbreviations maps a trailing-period short form to its expansion. Keys are
// matched case-insensitively on word boundaries.
var abbreviations = map[string]string{
	"mrs.":  "misess",
	"mr.":   "mister",
	"dr.":   "doctor",
	"st.":   "saint",
	"co.":   "company",
	"jr.":   "junior",
	"maj.":  "major",
	"gen.":  "general",
	"drs.":  "doctors",
	"rev.":  "reverend",
	"lt.":   "lieutenant",
	"hon.":  "honorable",
	"sgt.":  "sergeant",
	"capt.": "captain",
	"esq.":  "esquire",
	"ltd.":  "limited",
	"col.":  "colonel",
	"ft.":   "fort",
}

func expandAbbreviations(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		if expanded, ok := abbreviations[f]; ok {
			fields[i] = expanded
		}
	}

	return strings.Join(fields, " ")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
