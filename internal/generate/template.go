package generate

import (
	"math/rand/v2"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Placeholder defaults for missing lead fields.
const (
	defaultCompany = "your company"
	defaultRole    = "Leader"
)

// TemplateBundle renders the template messages for a lead. Rendering
// failures produce the minimal bundle instead of an error.
func (c *Catalog) TemplateBundle(l model.Lead, r *rand.Rand) *model.MessageBundle {
	b, err := c.Render(l, r)
	if err != nil {
		zap.L().Warn("generation: template rendering failed, using minimal message",
			zap.String("lead_id", l.ID),
			zap.Error(err),
		)
		return model.MinimalBundle()
	}
	return b
}

// Render fills a randomly chosen variant of the lead's category, the
// follow-up email and the LinkedIn messages.
func (c *Catalog) Render(l model.Lead, r *rand.Rand) (*model.MessageBundle, error) {
	vars, err := leadVars(l, c.sender())
	if err != nil {
		return nil, err
	}

	variants := c.Industries[c.Category(l.Industry)]
	if len(variants) == 0 {
		return nil, eris.Errorf("generate: no templates for industry %q", l.Industry)
	}
	tmpl := variants[r.IntN(len(variants))]

	var b model.MessageBundle
	if b.EmailVariant1, err = renderEmail(tmpl, vars); err != nil {
		return nil, err
	}
	followUp, err := renderEmail(c.FollowUp, vars)
	if err != nil {
		return nil, err
	}
	if followUp.Usable() {
		b.EmailVariant2 = &followUp
	}
	if len(c.LinkedIn) > 0 {
		if b.LinkedInVariant1, err = interpolate(c.LinkedIn[0], vars); err != nil {
			return nil, err
		}
	}
	if len(c.LinkedIn) > 1 {
		if b.LinkedInVariant2, err = interpolate(c.LinkedIn[1], vars); err != nil {
			return nil, err
		}
	}

	if !b.Usable() {
		return nil, eris.New("generate: rendered bundle is missing the primary email or LinkedIn message")
	}
	return &b, nil
}

func (c *Catalog) sender() string {
	if c.Sender == "" {
		return DefaultSender
	}
	return c.Sender
}

func leadVars(l model.Lead, sender string) (map[string]string, error) {
	name := strings.Fields(l.FullName)
	if len(name) == 0 {
		return nil, eris.Errorf("generate: lead %s has no full_name", l.ID)
	}
	company := strings.TrimSpace(l.CompanyName)
	if company == "" {
		company = defaultCompany
	}
	role := strings.TrimSpace(l.Role)
	if role == "" {
		role = defaultRole
	}
	industry := strings.TrimSpace(l.Industry)
	if industry == "" {
		industry = CategoryGeneric
	}
	return map[string]string{
		"first_name": name[0],
		"company":    company,
		"role":       role,
		"industry":   industry,
		"sender":     sender,
	}, nil
}

func renderEmail(t Template, vars map[string]string) (model.EmailMessage, error) {
	subject, err := interpolate(t.Subject, vars)
	if err != nil {
		return model.EmailMessage{}, err
	}
	body, err := interpolate(t.Body, vars)
	if err != nil {
		return model.EmailMessage{}, err
	}
	return model.EmailMessage{Subject: subject, Body: body}, nil
}

// interpolate replaces {name} placeholders. Unknown names and unterminated
// braces are errors.
func interpolate(s string, vars map[string]string) (string, error) {
	var b strings.Builder
	for {
		open := strings.IndexByte(s, '{')
		if open < 0 {
			b.WriteString(s)
			return b.String(), nil
		}
		end := strings.IndexByte(s[open:], '}')
		if end < 0 {
			return "", eris.Errorf("generate: unterminated placeholder in %q", s)
		}
		name := s[open+1 : open+end]
		val, ok := vars[name]
		if !ok {
			return "", eris.Errorf("generate: unknown placeholder {%s}", name)
		}
		b.WriteString(s[:open])
		b.WriteString(val)
		s = s[open+end+1:]
	}
}
