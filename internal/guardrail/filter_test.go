package guardrail

import "testing"

func TestCheckApproved(t *testing.T) {
	t.Parallel()

	f := NewFilter()

	{
		// Perfect score approves even without positive wording.
		res := f.Check("analysis", "All 5 answers right.", 5, 5)
		if res.Verdict != VerdictApproved {
			t.Fatalf("got %s", res.Verdict)
		}
		if res.Feedback != "All 5 answers right." {
			t.Fatalf("feedback changed: %q", res.Feedback)
		}
	}
	{
		// Positive indicator approves an imperfect score.
		res := f.Check("", "Good effort, keep practicing.", 2, 5)
		if res.Verdict != VerdictApproved {
			t.Fatalf("got %s", res.Verdict)
		}
	}
	{
		// Empty submissions are approved unconditionally.
		res := f.Check("No quiz provided.", "Cannot generate feedback for a quiz with no questions.", 0, 0)
		if res.Verdict != VerdictApproved {
			t.Fatalf("got %s", res.Verdict)
		}
	}
}

func TestCheckWarning(t *testing.T) {
	t.Parallel()

	res := NewFilter().Check("", "Numbers only: 2/5.", 2, 5)
	if res.Verdict != VerdictWarning {
		t.Fatalf("got %s", res.Verdict)
	}
	// A warning is advisory: feedback passes through unchanged.
	if res.Feedback != "Numbers only: 2/5." {
		t.Fatalf("feedback changed: %q", res.Feedback)
	}
	if len(res.Matches) != 0 {
		t.Fatalf("matches: got %v", res.Matches)
	}
}

func TestCheckBlocked(t *testing.T) {
	t.Parallel()

	f := NewFilter()

	cases := []struct {
		name     string
		analysis string
		feedback string
	}{
		{"harmful term", "", "That was a stupid mistake."},
		{"discouraging phrase", "", "You failed this one badly."},
		{"romanian term", "", "Ai fost prost la întrebarea 3."},
		{"match in analysis", "the student is hopeless", "Keep practicing!"},
		{"case insensitive", "", "STUPID errors everywhere."},
	}
	for _, c := range cases {
		res := f.Check(c.analysis, c.feedback, 3, 5)
		if res.Verdict != VerdictBlocked {
			t.Fatalf("%s: got %s", c.name, res.Verdict)
		}
		if !res.Blocked() {
			t.Fatalf("%s: Blocked()=false", c.name)
		}
		if res.Feedback != SafeMessage {
			t.Fatalf("%s: feedback %q", c.name, res.Feedback)
		}
		if len(res.Matches) == 0 {
			t.Fatalf("%s: no matches recorded", c.name)
		}
	}
}

func TestCheckBlockedCollectsAllMatches(t *testing.T) {
	t.Parallel()

	res := NewFilter().Check("", "stupid and worthless, you failed", 0, 5)
	if res.Verdict != VerdictBlocked {
		t.Fatalf("got %s", res.Verdict)
	}
	if len(res.Matches) != 3 {
		t.Fatalf("matches: got %v", res.Matches)
	}
}

func TestCheckNilFilter(t *testing.T) {
	t.Parallel()

	var f *Filter
	res := f.Check("", "terrible work", 1, 5)
	if res.Verdict != VerdictBlocked {
		t.Fatalf("nil filter must use built-in lists, got %s", res.Verdict)
	}
}
