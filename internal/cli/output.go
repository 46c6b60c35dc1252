package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case User:
		o.printUser(v)
	case AuthResult:
		o.printAuthResult(v)
	case Match:
		o.printMatch(v)
	case Problem:
		o.printProblem(v)
	case ProblemList:
		o.printProblemList(v)
	case Scores:
		o.printScores(v)
	case SubmitResult:
		o.printSubmitResult(v)
	case MatchResult:
		o.printMatchResult(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// User response type (matches API)
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// AuthResult combines user and token
type AuthResult struct {
	User         User   `json:"user"`
	SessionToken string `json:"session_token"`
}

// Match response type
type Match struct {
	ID        string     `json:"id"`
	Player1   string     `json:"player1"`
	Player2   string     `json:"player2,omitempty"`
	Status    string     `json:"status"`
	Mode      string     `json:"mode"`
	Language  string     `json:"language"`
	RoomID    string     `json:"room_id"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Problem response type
type Problem struct {
	ID           string `json:"id"`
	MatchID      string `json:"match_id"`
	Order        int    `json:"order"`
	Language     string `json:"language"`
	Title        string `json:"title"`
	Tag          string `json:"tag,omitempty"`
	Description  string `json:"description"`
	InputFormat  string `json:"input_format"`
	OutputFormat string `json:"output_format"`
	SampleInput  string `json:"sample_input"`
	SampleOutput string `json:"sample_output"`
	Difficulty   string `json:"difficulty"`
}

// ProblemList response type
type ProblemList struct {
	Problems []Problem `json:"problems"`
}

// Scores response type
type Scores struct {
	Player1 int `json:"player1_score"`
	Player2 int `json:"player2_score"`
}

// SubmitResult response type
type SubmitResult struct {
	IsCorrect       bool   `json:"is_correct"`
	AlreadyAnswered bool   `json:"already_answered"`
	Result          string `json:"result"`
	Message         string `json:"message"`
	Analysis        string `json:"analysis,omitempty"`
}

// Submission response type
type Submission struct {
	ID              string    `json:"id"`
	Result          string    `json:"result"`
	Analysis        string    `json:"analysis,omitempty"`
	ExecutionTimeMs int       `json:"execution_time_ms"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

// ProblemResult response type
type ProblemResult struct {
	Problem         Problem     `json:"problem"`
	MySubmission    *Submission `json:"my_submission,omitempty"`
	Correct         bool        `json:"correct"`
	OpponentCorrect bool        `json:"opponent_correct"`
}

// MatchResult response type
type MatchResult struct {
	Match          Match           `json:"match"`
	Player1Name    string          `json:"player1_name"`
	Player2Name    string          `json:"player2_name"`
	Player1Correct int             `json:"player1_correct"`
	Player2Correct int             `json:"player2_correct"`
	WinnerName     string          `json:"winner_name,omitempty"`
	IsDraw         bool            `json:"is_draw"`
	Problems       []ProblemResult `json:"problems"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printUser(u User) {
	guestStr := "no"
	if u.IsGuest {
		guestStr = "yes"
	}
	fmt.Printf("User: %s (%s)\n", u.DisplayName, u.ID)
	fmt.Printf("Guest: %s\n", guestStr)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printUser(a.User)
	fmt.Printf("Token: %s\n", a.SessionToken)
}

func (o *Output) printMatch(m Match) {
	fmt.Printf("Match: %s\n", m.ID)
	fmt.Printf("Status: %s\n", m.Status)
	fmt.Printf("Mode: %s (%s)\n", m.Mode, m.Language)
	fmt.Printf("Player 1: %s\n", m.Player1)
	if m.Player2 != "" {
		fmt.Printf("Player 2: %s\n", m.Player2)
	} else {
		fmt.Println("Player 2: (waiting for opponent)")
	}
	if m.StartedAt != nil {
		fmt.Printf("Started: %s\n", m.StartedAt.Format(time.RFC3339))
	}
}

func (o *Output) printProblem(p Problem) {
	fmt.Printf("Problem %d: %s [%s]\n", p.Order, p.Title, p.Difficulty)
	if p.Tag != "" {
		fmt.Printf("Tag: %s\n", p.Tag)
	}
	fmt.Printf("\n%s\n", p.Description)
	if p.InputFormat != "" {
		fmt.Printf("\nInput:\n%s\n", p.InputFormat)
	}
	if p.OutputFormat != "" {
		fmt.Printf("\nOutput:\n%s\n", p.OutputFormat)
	}
	if p.SampleInput != "" {
		fmt.Printf("\nSample Input:\n%s\n", p.SampleInput)
	}
	if p.SampleOutput != "" {
		fmt.Printf("\nSample Output:\n%s\n", p.SampleOutput)
	}
}

func (o *Output) printProblemList(l ProblemList) {
	fmt.Printf("Problems (%d):\n", len(l.Problems))
	for _, p := range l.Problems {
		fmt.Printf("  %d. %s [%s] (%s)\n", p.Order, p.Title, p.Difficulty, p.ID)
	}
}

func (o *Output) printScores(s Scores) {
	fmt.Printf("Player 1: %d\n", s.Player1)
	fmt.Printf("Player 2: %d\n", s.Player2)
}

func (o *Output) printSubmitResult(r SubmitResult) {
	if r.AlreadyAnswered {
		fmt.Println("Already answered correctly")
		return
	}
	fmt.Printf("Result: %s\n", r.Result)
	if r.Message != "" {
		fmt.Println(r.Message)
	}
	if r.Analysis != "" {
		fmt.Printf("\nAnalysis:\n%s\n", r.Analysis)
	}
}

func (o *Output) printMatchResult(r MatchResult) {
	fmt.Printf("Match: %s (%s)\n", r.Match.ID, r.Match.Status)
	fmt.Printf("%s: %d correct\n", r.Player1Name, r.Player1Correct)
	fmt.Printf("%s: %d correct\n", r.Player2Name, r.Player2Correct)
	if r.IsDraw {
		fmt.Println("Result: draw")
	} else if r.WinnerName != "" {
		fmt.Printf("Winner: %s\n", r.WinnerName)
	}

	if len(r.Problems) > 0 {
		fmt.Println("\nProblems:")
		for _, pr := range r.Problems {
			marks := []string{}
			if pr.Correct {
				marks = append(marks, "you")
			}
			if pr.OpponentCorrect {
				marks = append(marks, "opponent")
			}
			solved := "unsolved"
			if len(marks) > 0 {
				solved = "solved by " + strings.Join(marks, " and ")
			}
			fmt.Printf("  %d. %s - %s\n", pr.Problem.Order, pr.Problem.Title, solved)
		}
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
