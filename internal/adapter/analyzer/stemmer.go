package analyzer

import (
	"strings"
)

// PorterStemmer implements the Porter stemming algorithm.
// Rule tables are ordered slices so that a word always reduces to the same
// stem; the local embedder depends on that.
type PorterStemmer struct{}

// NewPorterStemmer creates a new Porter stemmer.
func NewPorterStemmer() *PorterStemmer {
	return &PorterStemmer{}
}

type suffixRule struct {
	suffix      string
	replacement string
}

// Longest suffixes first within each table; the first match wins.
var (
	step2Rules = []suffixRule{
		{"ational", "ate"}, {"tional", "tion"}, {"iveness", "ive"}, {"fulness", "ful"},
		{"ousness", "ous"}, {"ization", "ize"}, {"biliti", "ble"}, {"entli", "ent"},
		{"ousli", "ous"}, {"alism", "al"}, {"aliti", "al"}, {"iviti", "ive"},
		{"ation", "ate"}, {"enci", "ence"}, {"anci", "ance"}, {"izer", "ize"},
		{"abli", "able"}, {"alli", "al"}, {"ator", "ate"}, {"eli", "e"},
	}
	step3Rules = []suffixRule{
		{"icate", "ic"}, {"ative", ""}, {"alize", "al"}, {"iciti", "ic"},
		{"ical", "ic"}, {"ness", ""}, {"ful", ""},
	}
	step4Suffixes = []string{
		"ement", "ance", "ence", "able", "ible", "ment",
		"ant", "ent", "ion", "ism", "ate", "iti", "ous", "ive", "ize",
		"al", "er", "ic", "ou",
	}
)

// Stem returns the stem of a word using the Porter algorithm.
func (p *PorterStemmer) Stem(word string) string {
	if len(word) < 3 {
		return word
	}

	word = strings.ToLower(word)
	word = step1a(word)
	word = step1b(word)
	word = step1c(word)
	word = replaceSuffix(word, step2Rules, 0)
	word = replaceSuffix(word, step3Rules, 0)
	word = step4(word)
	word = step5a(word)
	word = step5b(word)

	return word
}

func isConsonant(word string, i int) bool {
	switch word[i] {
	case 'a', 'e', 'i', 'o', 'u':
		return false
	case 'y':
		if i == 0 {
			return true
		}
		return !isConsonant(word, i-1)
	}
	return true
}

// measure counts the vowel-consonant sequences of word ([C](VC)^m[V]).
func measure(word string) int {
	n := len(word)
	m := 0
	i := 0

	for i < n && isConsonant(word, i) {
		i++
	}
	for i < n {
		for i < n && !isConsonant(word, i) {
			i++
		}
		if i >= n {
			break
		}
		m++
		for i < n && isConsonant(word, i) {
			i++
		}
	}

	return m
}

func hasVowel(word string) bool {
	for i := 0; i < len(word); i++ {
		if !isConsonant(word, i) {
			return true
		}
	}
	return false
}

func endsDoubleConsonant(word string) bool {
	n := len(word)
	if n < 2 {
		return false
	}
	return word[n-1] == word[n-2] && isConsonant(word, n-1)
}

func endsCVC(word string) bool {
	n := len(word)
	if n < 3 {
		return false
	}
	if !isConsonant(word, n-3) || isConsonant(word, n-2) || !isConsonant(word, n-1) {
		return false
	}
	c := word[n-1]
	return c != 'w' && c != 'x' && c != 'y'
}

func step1a(word string) string {
	switch {
	case strings.HasSuffix(word, "sses"), strings.HasSuffix(word, "ies"):
		return word[:len(word)-2]
	case strings.HasSuffix(word, "ss"):
		return word
	case strings.HasSuffix(word, "s"):
		return word[:len(word)-1]
	}
	return word
}

func step1b(word string) string {
	if strings.HasSuffix(word, "eed") {
		if measure(word[:len(word)-3]) > 0 {
			return word[:len(word)-1]
		}
		return word
	}

	var stem string
	switch {
	case strings.HasSuffix(word, "ed"):
		stem = word[:len(word)-2]
	case strings.HasSuffix(word, "ing"):
		stem = word[:len(word)-3]
	default:
		return word
	}
	if !hasVowel(stem) {
		return word
	}

	switch {
	case strings.HasSuffix(stem, "at"), strings.HasSuffix(stem, "bl"), strings.HasSuffix(stem, "iz"):
		return stem + "e"
	case endsDoubleConsonant(stem):
		if c := stem[len(stem)-1]; c != 'l' && c != 's' && c != 'z' {
			return stem[:len(stem)-1]
		}
	case measure(stem) == 1 && endsCVC(stem):
		return stem + "e"
	}
	return stem
}

func step1c(word string) string {
	if strings.HasSuffix(word, "y") {
		stem := word[:len(word)-1]
		if hasVowel(stem) {
			return stem + "i"
		}
	}
	return word
}

// replaceSuffix applies the first rule whose suffix matches, provided the
// remaining stem has a measure greater than minMeasure.
func replaceSuffix(word string, rules []suffixRule, minMeasure int) string {
	for _, r := range rules {
		if !strings.HasSuffix(word, r.suffix) {
			continue
		}
		stem := word[:len(word)-len(r.suffix)]
		if measure(stem) > minMeasure {
			return stem + r.replacement
		}
		return word
	}
	return word
}

func step4(word string) string {
	for _, suffix := range step4Suffixes {
		if !strings.HasSuffix(word, suffix) {
			continue
		}
		stem := word[:len(word)-len(suffix)]
		if measure(stem) <= 1 {
			return word
		}
		if suffix == "ion" {
			if n := len(stem); n > 0 && (stem[n-1] == 's' || stem[n-1] == 't') {
				return stem
			}
			return word
		}
		return stem
	}
	return word
}

func step5a(word string) string {
	if !strings.HasSuffix(word, "e") {
		return word
	}
	stem := word[:len(word)-1]
	m := measure(stem)
	if m > 1 || (m == 1 && !endsCVC(stem)) {
		return stem
	}
	return word
}

func step5b(word string) string {
	if measure(word) > 1 && endsDoubleConsonant(word) && word[len(word)-1] == 'l' {
		return word[:len(word)-1]
	}
	return word
}
