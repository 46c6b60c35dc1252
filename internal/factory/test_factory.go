package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/mcoot/battlecode-go/internal/dependencies/clock"
	"github.com/mcoot/battlecode-go/internal/dependencies/mocks"
	"github.com/mcoot/battlecode-go/internal/dependencies/random"
	"github.com/mcoot/battlecode-go/internal/model"
	"github.com/mcoot/battlecode-go/internal/services/auth"
	"github.com/mcoot/battlecode-go/internal/services/judge"
	"github.com/mcoot/battlecode-go/internal/services/problems"
	"github.com/mcoot/battlecode-go/internal/services/progression"
	"github.com/mcoot/battlecode-go/internal/storage/memory"
	"github.com/mcoot/battlecode-go/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Generator  *StubGenerator
	Judge      *StubJudge
}

// NewTestApp creates an App configured for testing with mocked
// dependencies. The countdown delay is zero so problem progression
// broadcasts synchronously.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	generator := &StubGenerator{}
	stubJudge := &StubJudge{}

	app := newWithDependencies(deps{
		store:          store,
		clock:          mockClock,
		random:         mockRandom,
		authCfg:        auth.DefaultConfig(),
		generator:      generator,
		judge:          stubJudge,
		countdownDelay: 0,
		logger:         testutil.NopLogger(),
	})

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Generator:  generator,
		Judge:      stubJudge,
	}
}

// NewStubbedApp wires the production clock, random, and memory storage
// with the given AI stand-ins. End-to-end tests use it to run a real
// server without an AI backend.
func NewStubbedApp(generator problems.Generator, judgeSvc judge.Judge) *App {
	return newWithDependencies(deps{
		store:          memory.New(),
		clock:          clock.New(),
		random:         random.New(),
		authCfg:        auth.DefaultConfig(),
		generator:      generator,
		judge:          judgeSvc,
		countdownDelay: progression.DefaultCountdownDelay,
		logger:         testutil.NopLogger(),
	})
}

// StubGenerator produces deterministic problem drafts without calling
// an AI backend.
type StubGenerator struct {
	Err error
}

// Generate returns count drafts titled Problem 1..count.
func (g *StubGenerator) Generate(_ context.Context, count int, difficulty, _ string) ([]model.ProblemDraft, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	drafts := make([]model.ProblemDraft, count)
	for i := range drafts {
		drafts[i] = model.ProblemDraft{
			Title:       fmt.Sprintf("Problem %d", i+1),
			Description: fmt.Sprintf("Solve problem %d.", i+1),
			Difficulty:  difficulty,
		}
	}
	return drafts, nil
}

// StubJudge replays a scripted sequence of verdicts. An exhausted
// script returns Wrong.
type StubJudge struct {
	verdicts []judge.Verdict
}

// Judge pops the next scripted verdict.
func (j *StubJudge) Judge(_ context.Context, _ string, _ *model.Problem, _ string) judge.Verdict {
	if len(j.verdicts) == 0 {
		return judge.Verdict{IsCorrect: false, Result: string(model.ResultWrong)}
	}
	v := j.verdicts[0]
	j.verdicts = j.verdicts[1:]
	return v
}

// Queue appends a verdict to the script.
func (j *StubJudge) Queue(correct bool) {
	result := model.ResultWrong
	if correct {
		result = model.ResultCorrect
	}
	j.verdicts = append(j.verdicts, judge.Verdict{IsCorrect: correct, Result: string(result)})
}
