package llm

import "context"

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one prior exchange entry in structured-history form.
type Turn struct {
	Role Role
	Text string
}

// Attachment carries a binary document already encoded as base64 text.
type Attachment struct {
	Name     string
	MIMEType string
	Data     string
}

// Part is either text or an attachment, never both.
type Part struct {
	Text       string
	Attachment *Attachment
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func AttachmentPart(a Attachment) Part {
	return Part{Attachment: &a}
}

// Property describes one field of a structured output.
type Property struct {
	Description string
	Enum        []string
	Nullable    bool
}

// Schema asks the backend for a flat JSON object of string properties.
type Schema struct {
	Name       string
	Properties map[string]Property
	Required   []string
}

// Request is one generation call. Turns and Parts are exclusive: Turns
// becomes a multi-turn conversation, Parts a single user message.
type Request struct {
	Model             string
	SystemInstruction string
	Turns             []Turn
	Parts             []Part
	Schema            *Schema
}

type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
}
