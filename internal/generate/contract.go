package generate

import (
	"fmt"
	"strings"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Content rules given to the AI and checked on its output.
const (
	MaxEmailWords    = 120
	MaxLinkedInWords = 60
	CallToAction     = "Are you free for a 15-min call?"
)

// Violation is one broken content rule.
type Violation struct {
	Field  string
	Reason string
}

func (v Violation) String() string {
	return v.Field + ": " + v.Reason
}

// CheckContract checks AI-written messages against the word limits and the
// call to action. Empty fields are skipped; whether they are required is
// decided by the caller.
func CheckContract(b *model.MessageBundle) []Violation {
	if b == nil {
		return nil
	}
	var out []Violation
	out = append(out, checkEmail("email_variant_1", b.EmailVariant1)...)
	if b.EmailVariant2 != nil {
		out = append(out, checkEmail("email_variant_2", *b.EmailVariant2)...)
	}
	out = append(out, checkLinkedIn("linkedin_variant_1", b.LinkedInVariant1)...)
	out = append(out, checkLinkedIn("linkedin_variant_2", b.LinkedInVariant2)...)
	return out
}

func checkEmail(field string, e model.EmailMessage) []Violation {
	if strings.TrimSpace(e.Body) == "" {
		return nil
	}
	var out []Violation
	if n := wordCount(e.Body); n > MaxEmailWords {
		out = append(out, Violation{Field: field, Reason: fmt.Sprintf("body has %d words, limit %d", n, MaxEmailWords)})
	}
	if !strings.HasSuffix(strings.TrimSpace(e.Body), CallToAction) {
		out = append(out, Violation{Field: field, Reason: "missing call to action"})
	}
	return out
}

func checkLinkedIn(field, msg string) []Violation {
	if n := wordCount(msg); n > MaxLinkedInWords {
		return []Violation{{Field: field, Reason: fmt.Sprintf("message has %d words, limit %d", n, MaxLinkedInWords)}}
	}
	return nil
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
