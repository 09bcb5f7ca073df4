package services

import (
	"fmt"
	"regexp"
	"strings"
)

var BannedWords = []string{
	"porn", "porno", "nude", "nudes", "xxx", "escort",
	"casino", "betting", "gambling",
	"viagra", "cialis",
	"scam", "phishing", "malware", "warez", "crack",
}

// ContentScreener rejects listing copy that marketplace policy does not allow.
type ContentScreener struct {
	bannedWordRegexps   []*regexp.Regexp
	repeatedCharPattern *regexp.Regexp
	allCapsPattern      *regexp.Regexp
}

func NewContentScreener(words []string) *ContentScreener {
	cs := &ContentScreener{
		bannedWordRegexps:   make([]*regexp.Regexp, 0, len(words)),
		repeatedCharPattern: regexp.MustCompile(repeatedRuns("abcdefghijklmnopqrstuvwxyz!?.", 6)),
		allCapsPattern:      regexp.MustCompile(`\b[A-Z]{5,}\b`),
	}
	for _, word := range words {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
		if err == nil {
			cs.bannedWordRegexps = append(cs.bannedWordRegexps, re)
		}
	}
	return cs
}

// repeatedRuns matches any of chars repeated at least n times in a row.
func repeatedRuns(chars string, n int) string {
	parts := make([]string, 0, len(chars))
	for _, c := range chars {
		parts = append(parts, fmt.Sprintf("%s{%d,}", regexp.QuoteMeta(string(c)), n))
	}
	return "(?i)(" + strings.Join(parts, "|") + ")"
}

// Check returns a short reason code when text is not acceptable.
func (cs *ContentScreener) Check(text string) (bool, string) {
	if cs == nil || strings.TrimSpace(text) == "" {
		return true, ""
	}
	for _, re := range cs.bannedWordRegexps {
		if re.MatchString(text) {
			return false, "restricted_topic"
		}
	}
	if cs.repeatedCharPattern.MatchString(text) {
		return false, "spam_detected"
	}
	if len(cs.allCapsPattern.FindAllString(text, -1)) > 2 {
		return false, "excessive_caps"
	}
	return true, ""
}

func (cs *ContentScreener) RejectionMessage(reason string) string {
	messages := map[string]string{
		"restricted_topic": "listings about restricted topics are not accepted",
		"spam_detected":    "the text looks like spam",
		"excessive_caps":   "please avoid excessive capital letters",
	}
	if msg, ok := messages[reason]; ok {
		return msg
	}
	return "the text does not meet our listing guidelines"
}

// screenedField is one piece of listing copy and the name reported for it.
type screenedField struct {
	name string
	text string
}

// screen checks fields in order and wraps the first failure as a validation error.
func (cs *ContentScreener) screen(fields ...screenedField) error {
	for _, f := range fields {
		if ok, reason := cs.Check(f.text); !ok {
			return fmt.Errorf("%w: %s: %s", ErrValidation, f.name, cs.RejectionMessage(reason))
		}
	}
	return nil
}
