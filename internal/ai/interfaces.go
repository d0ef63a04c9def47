package ai

import (
	"context"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// Format selects how the model should shape its reply.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// Request 一次生成调用
type Request struct {
	// System is the instruction the model follows for this call.
	System string
	// Prompt is the user turn.
	Prompt string
	Format Format
	// Schema is sent to providers that support structured output, others ignore it.
	Schema     *jsonschema.Definition
	SchemaName string
	// Images are data URLs attached to the user turn.
	Images      []string
	Temperature float32
}

// Generator defines the large language model collaborator.
type Generator interface {
	// Generate returns the raw model text. Errors are already classified, see Classify.
	Generate(ctx context.Context, req *Request) (string, error)
}
