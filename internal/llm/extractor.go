// Package llm - extractor.go provides generic LLM-based structured extraction.
package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema describes what to extract from a document. It doubles as the
// schema hint handed to the oracle's extraction call.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "CareerFacts")
	Description string        // System prompt preamble describing the extraction task
	Fields      []SchemaField // Expected output fields
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint written into the prompt
	Description string // Description for the LLM
	Required    bool   // Whether this field is required
}

// BuildExtractionPrompt constructs the LLM prompt from schema and input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "\"string\""
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Extract only facts stated in the text; never invent dates, metrics or employers.\n")
	sb.WriteString("- Do not use placeholders such as [X] or [Date]; leave unknown fields empty.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// CareerFactsSchema returns the schema for pulling profile entities out of an
// uploaded document such as an old resume or a LinkedIn export.
func CareerFactsSchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "CareerFacts",
		Description: `You are an expert resume parser. Your task is to extract every career fact from a document.
Internships are experiences. Keep descriptions as newline-separated bullet points, copied verbatim where possible.`,
		Fields: []SchemaField{
			{
				Name:        "personalInfo",
				Type:        `{"fullName": "string", "email": "string", "phone": "string", "location": "string", "linkedin": "string", "website": "string", "summary": "string"}`,
				Description: "Contact details and professional summary",
			},
			{
				Name:        "experiences",
				Type:        `[{"role": "string", "company": "string", "startDate": "string", "endDate": "string", "description": "string"}]`,
				Description: "Jobs and internships, most recent first",
				Required:    true,
			},
			{
				Name: "educations",
				Type: `[{"degree": "string", "school": "string", "year": "string"}]`,
			},
			{
				Name:        "projects",
				Type:        `[{"name": "string", "description": "string", "link": "string", "repoLink": "string"}]`,
				Description: "link is a demo or live URL, repoLink a source code URL",
			},
			{
				Name: "leadershipActivities",
				Type: `[{"name": "string", "description": "string", "dateRange": "string"}]`,
			},
			{
				Name:        "skills",
				Type:        `["string"]`,
				Description: "Technical and professional skills as short names",
			},
		},
	}
}
