package llm

import (
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// FieldKind is the JSON type of a requested field.
type FieldKind int

const (
	KindString FieldKind = iota
	KindStringList
	KindObject
)

// Field is one key of the requested JSON object.
type Field struct {
	Name        string
	Kind        FieldKind
	Description string
	// Fields lists the keys of a KindObject field.
	Fields []Field
}

// Shape describes the JSON object a stage expects back.
type Shape struct {
	Fields []Field
}

// Instructions renders the shape as prompt text for providers without
// native schema support.
func (s Shape) Instructions() string {
	var b strings.Builder
	b.WriteString("Return ONLY a single JSON object with these keys:\n")
	writeFields(&b, s.Fields, "")
	b.WriteString("Do not include extra keys or any text outside the JSON object.")
	return b.String()
}

func writeFields(b *strings.Builder, fields []Field, indent string) {
	for _, f := range fields {
		fmt.Fprintf(b, "%s- %s (%s)", indent, f.Name, f.Kind.label())
		if f.Description != "" {
			fmt.Fprintf(b, ": %s", f.Description)
		}
		b.WriteString("\n")
		if f.Kind == KindObject {
			writeFields(b, f.Fields, indent+"  ")
		}
	}
}

func (k FieldKind) label() string {
	switch k {
	case KindStringList:
		return "array of strings"
	case KindObject:
		return "object"
	default:
		return "string"
	}
}

// Schema converts the shape to a Gemini response schema.
func (s Shape) Schema() *genai.Schema {
	return objectSchema(s.Fields)
}

func objectSchema(fields []Field) *genai.Schema {
	props := make(map[string]*genai.Schema, len(fields))
	required := make([]string, 0, len(fields))
	for _, f := range fields {
		props[f.Name] = fieldSchema(f)
		required = append(required, f.Name)
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   required,
	}
}

func fieldSchema(f Field) *genai.Schema {
	var s *genai.Schema
	switch f.Kind {
	case KindStringList:
		s = &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
	case KindObject:
		s = objectSchema(f.Fields)
	default:
		s = &genai.Schema{Type: genai.TypeString}
	}
	s.Description = f.Description
	return s
}
