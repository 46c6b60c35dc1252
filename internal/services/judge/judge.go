// Package judge evaluates submitted code against a problem using an AI
// model. Judging never fails open: any transport or parse failure is
// reported as an Error verdict rather than an error the caller might
// mistake for "correct".
package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mcoot/battlecode-go/internal/model"
	"github.com/mcoot/battlecode-go/internal/services/ai"
)

// Verdict is the judged outcome of one submission.
type Verdict struct {
	IsCorrect       bool   `json:"is_correct"`
	Result          string `json:"result"` // Correct / Wrong / Error / Timeout
	Output          string `json:"output"`
	ErrorMessage    string `json:"error_message"`
	ExecutionTimeMs int    `json:"execution_time_ms"`
	Analysis        string `json:"analysis"`
}

// SubmissionResult maps the verdict's result string onto the stored
// submission result, defaulting to Error for anything unrecognized.
func (v Verdict) SubmissionResult() model.SubmissionResult {
	switch model.SubmissionResult(v.Result) {
	case model.ResultCorrect, model.ResultWrong, model.ResultError, model.ResultTimeout:
		return model.SubmissionResult(v.Result)
	default:
		return model.ResultError
	}
}

// Judge evaluates code against a problem.
type Judge interface {
	Judge(ctx context.Context, code string, problem *model.Problem, language string) Verdict
}

// Completer is the slice of the AI client the judge needs.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// AIJudge asks a chat model to act as the judge.
type AIJudge struct {
	client Completer
	logger *slog.Logger
}

// NewAIJudge creates an AIJudge.
func NewAIJudge(client Completer, logger *slog.Logger) *AIJudge {
	return &AIJudge{client: client, logger: logger}
}

const judgeSystemPrompt = "You are an assistant that grades submitted code against a programming problem."

const judgePromptFormat = `Decide whether the user's code below correctly solves the problem. Respond with ONLY a JSON object in exactly this shape:

{
  "is_correct": true or false,
  "result": "Correct" or "Wrong" or "Error" or "Timeout",
  "output": "what the user's program would print for the sample input",
  "error_message": "the error if any, otherwise an empty string",
  "execution_time_ms": estimated integer milliseconds,
  "analysis": "a short explanation, at most 200 words"
}

Problem title: %s

Problem description:
%s

Input format:
%s

Output format:
%s

Sample input:
%s

Sample output:
%s

Language: %s

User code:
%s
`

// Judge evaluates the code. Failures are folded into an Error verdict.
func (j *AIJudge) Judge(ctx context.Context, code string, problem *model.Problem, language string) Verdict {
	prompt := fmt.Sprintf(judgePromptFormat,
		problem.Title,
		problem.Description,
		problem.InputFormat,
		problem.OutputFormat,
		problem.SampleInput,
		problem.SampleOutput,
		language,
		code,
	)

	reply, err := j.client.Complete(ctx, judgeSystemPrompt, prompt)
	if err != nil {
		j.logger.Error("judge completion failed",
			slog.String("problem_id", string(problem.ID)),
			slog.Any("error", err),
		)
		return errorVerdict("judging service unavailable")
	}

	var verdict Verdict
	if err := json.Unmarshal([]byte(ai.StripFences(reply)), &verdict); err != nil {
		j.logger.Error("judge reply was not valid JSON",
			slog.String("problem_id", string(problem.ID)),
			slog.Any("error", err),
		)
		return errorVerdict("judge response could not be parsed")
	}

	// An inconsistent verdict is never treated as correct.
	if verdict.IsCorrect && verdict.Result != string(model.ResultCorrect) {
		verdict.IsCorrect = false
	}
	return verdict
}

func errorVerdict(message string) Verdict {
	return Verdict{
		IsCorrect:    false,
		Result:       string(model.ResultError),
		ErrorMessage: message,
		Analysis:     message,
	}
}
