package model

import "time"

// ProblemID uniquely identifies a generated problem
type ProblemID string

// Problem is one generated challenge within a match, ordered by Order
// (1-based, contiguous per match)
type Problem struct {
	ID           ProblemID
	MatchID      MatchID
	Order        int
	Language     string
	Title        string
	Tag          string
	Description  string
	InputFormat  string
	OutputFormat string
	SampleInput  string
	SampleOutput string
	Difficulty   string
	CreatedAt    time.Time
}

// ProblemDraft is a problem as returned by the generator, before it is
// bound to a match and assigned an order
type ProblemDraft struct {
	Title        string `json:"title"`
	Tag          string `json:"tag"`
	Description  string `json:"description"`
	InputFormat  string `json:"input_format"`
	OutputFormat string `json:"output_format"`
	SampleInput  string `json:"sample_input"`
	SampleOutput string `json:"sample_output"`
	Difficulty   string `json:"difficulty"`
}
