// Package problems generates a match's problem set via an AI model and
// persists it in storage.
package problems

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mcoot/battlecode-go/internal/model"
	"github.com/mcoot/battlecode-go/internal/services/ai"
)

// Generator produces problem drafts for a match.
type Generator interface {
	Generate(ctx context.Context, count int, difficulty, language string) ([]model.ProblemDraft, error)
}

// Completer is the slice of the AI client the generator needs.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// AIGenerator asks a chat model to write problems.
type AIGenerator struct {
	client Completer
}

// NewAIGenerator creates an AIGenerator.
func NewAIGenerator(client Completer) *AIGenerator {
	return &AIGenerator{client: client}
}

const generatorSystemPrompt = "You are an assistant that writes programming exercises. Follow the user's instructions and respond with only JSON."

const generatorPromptFormat = `Write %d programming problems of "%s" difficulty for the %s language. Suggested topics: basic syntax, data types, conditionals, loops, functions, lists, dictionaries.

Respond with ONLY a JSON array where each element has exactly this shape:

{
  "title": "short problem title",
  "tag": "topic tag",
  "description": "full problem statement",
  "input_format": "description of the input",
  "output_format": "description of the output",
  "sample_input": "one sample input",
  "sample_output": "the matching sample output",
  "difficulty": "%s"
}
`

// Generate produces count drafts. Drafts missing a title or description
// are dropped; an empty usable set is an error.
func (g *AIGenerator) Generate(ctx context.Context, count int, difficulty, language string) ([]model.ProblemDraft, error) {
	prompt := fmt.Sprintf(generatorPromptFormat, count, difficulty, language, difficulty)

	reply, err := g.client.Complete(ctx, generatorSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating problems: %w", err)
	}

	var drafts []model.ProblemDraft
	if err := json.Unmarshal([]byte(ai.StripFences(reply)), &drafts); err != nil {
		return nil, fmt.Errorf("parsing generated problems: %w", err)
	}

	usable := make([]model.ProblemDraft, 0, len(drafts))
	for _, d := range drafts {
		if strings.TrimSpace(d.Title) == "" || strings.TrimSpace(d.Description) == "" {
			continue
		}
		if d.Difficulty == "" {
			d.Difficulty = difficulty
		}
		usable = append(usable, d)
	}
	if len(usable) == 0 {
		return nil, model.ErrNoProblems
	}
	return usable, nil
}
