// Package guardrail screens analysis and feedback text for harmful or
// discouraging language before it reaches the end user.
package guardrail

import "strings"

// Verdict is the guardrail outcome for one pipeline run.
type Verdict string

const (
	VerdictApproved Verdict = "APPROVED"
	VerdictWarning  Verdict = "WARNING"
	VerdictBlocked  Verdict = "BLOCKED"
)

// SafeMessage replaces blocked feedback. The matched patterns are never
// echoed back to the user.
const SafeMessage = "Feedback generation was blocked for safety reasons. Please contact support."

// Pattern lists cover both deployment languages. English terms are kept
// first for backward compatibility with earlier key files.
var harmfulTerms = []string{
	"stupid", "dumb", "idiot", "failure", "worthless", "hopeless",
	"give up", "terrible", "awful", "pathetic", "loser", "incompetent",
	// Romanian
	"prost", "incompetent", "valorii zero", "fără valoare", "prostie",
}

var discouragingPhrases = []string{
	"you failed", "you're bad", "you can't", "you'll never",
	// Romanian
	"ai picat", "ești prost", "nu poți", "nu vei putea niciodată",
}

var positiveIndicators = []string{
	"great", "good", "excellent", "correct", "well done", "keep", "practice",
}

// Result carries the verdict, the (possibly replaced) feedback, and the
// matched patterns for diagnostics.
type Result struct {
	Verdict  Verdict
	Feedback string
	Matches  []string
}

// Blocked reports whether the feedback was replaced with SafeMessage.
func (r *Result) Blocked() bool {
	return r != nil && r.Verdict == VerdictBlocked
}

// Filter holds the active pattern lists. The zero value is not usable; use
// NewFilter for the built-in lists.
type Filter struct {
	harmful      []string
	discouraging []string
	positive     []string
}

func NewFilter() *Filter {
	return &Filter{
		harmful:      harmfulTerms,
		discouraging: discouragingPhrases,
		positive:     positiveIndicators,
	}
}

// Check scans the concatenation of analysis and feedback with
// case-insensitive substring matching. Any harmful or discouraging match
// blocks the response and substitutes SafeMessage. With no match, the
// verdict is APPROVED when a positive indicator is present or the score is
// perfect, and an advisory WARNING otherwise; a warning leaves the feedback
// unchanged.
func (f *Filter) Check(analysis, feedback string, score, total int) Result {
	if f == nil {
		f = NewFilter()
	}

	haystack := strings.ToLower(analysis) + "\n" + strings.ToLower(feedback)

	var matches []string
	for _, term := range f.harmful {
		if strings.Contains(haystack, strings.ToLower(term)) {
			matches = append(matches, term)
		}
	}
	for _, phrase := range f.discouraging {
		if strings.Contains(haystack, strings.ToLower(phrase)) {
			matches = append(matches, phrase)
		}
	}

	if len(matches) > 0 {
		return Result{
			Verdict:  VerdictBlocked,
			Feedback: SafeMessage,
			Matches:  matches,
		}
	}

	if total == 0 {
		return Result{Verdict: VerdictApproved, Feedback: feedback}
	}

	constructive := score == total
	if !constructive {
		for _, word := range f.positive {
			if strings.Contains(haystack, word) {
				constructive = true
				break
			}
		}
	}
	if constructive {
		return Result{Verdict: VerdictApproved, Feedback: feedback}
	}
	return Result{Verdict: VerdictWarning, Feedback: feedback}
}
