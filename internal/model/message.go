package model

import "strings"

// Minimal message used when every other way of producing content fails.
const (
	MinimalSubject  = "Hello"
	MinimalBody     = "Hi, let's connect."
	MinimalLinkedIn = "Hi, let's connect."
)

// EmailMessage is one email variant.
type EmailMessage struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Usable reports whether both subject and body carry text.
func (e EmailMessage) Usable() bool {
	return strings.TrimSpace(e.Subject) != "" && strings.TrimSpace(e.Body) != ""
}

// MessageBundle holds the multi-channel outreach content for a lead.
type MessageBundle struct {
	EmailVariant1    EmailMessage  `json:"email_variant_1"`
	EmailVariant2    *EmailMessage `json:"email_variant_2,omitempty"`
	LinkedInVariant1 string        `json:"linkedin_variant_1"`
	LinkedInVariant2 string        `json:"linkedin_variant_2,omitempty"`
}

// Usable reports whether the bundle has a primary email and a primary
// LinkedIn message.
func (b *MessageBundle) Usable() bool {
	return b != nil && b.EmailVariant1.Usable() && strings.TrimSpace(b.LinkedInVariant1) != ""
}

// Empty reports whether the bundle carries no content at all.
func (b *MessageBundle) Empty() bool {
	if b == nil {
		return true
	}
	return strings.TrimSpace(b.EmailVariant1.Subject) == "" &&
		strings.TrimSpace(b.EmailVariant1.Body) == "" &&
		(b.EmailVariant2 == nil || (strings.TrimSpace(b.EmailVariant2.Subject) == "" && strings.TrimSpace(b.EmailVariant2.Body) == "")) &&
		strings.TrimSpace(b.LinkedInVariant1) == "" &&
		strings.TrimSpace(b.LinkedInVariant2) == ""
}

// MinimalBundle returns the hardcoded one-line message.
func MinimalBundle() *MessageBundle {
	return &MessageBundle{
		EmailVariant1:    EmailMessage{Subject: MinimalSubject, Body: MinimalBody},
		LinkedInVariant1: MinimalLinkedIn,
	}
}

// PrimaryEmail returns the first email variant, substituting the minimal
// subject or body when either is missing.
func (b *MessageBundle) PrimaryEmail() EmailMessage {
	out := EmailMessage{Subject: MinimalSubject, Body: "Body"}
	if b == nil {
		return out
	}
	if s := strings.TrimSpace(b.EmailVariant1.Subject); s != "" {
		out.Subject = b.EmailVariant1.Subject
	}
	if s := strings.TrimSpace(b.EmailVariant1.Body); s != "" {
		out.Body = b.EmailVariant1.Body
	}
	return out
}

// PrimaryLinkedIn returns the first LinkedIn variant or the minimal message.
func (b *MessageBundle) PrimaryLinkedIn() string {
	if b == nil || strings.TrimSpace(b.LinkedInVariant1) == "" {
		return MinimalLinkedIn
	}
	return b.LinkedInVariant1
}
