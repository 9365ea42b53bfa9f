// Package scenario runs reset-survival diagnostics against a target
// through a probe session: establish a baseline debug connection, apply
// a configuration under test, request a system reset, then check
// whether the debug interface is still answering.
package scenario

import (
	"time"

	"github.com/kmoriarty/airprobe/internal/logging"
	"github.com/kmoriarty/airprobe/internal/metrics"
)

// Phase names the stage of a run a failure is attributed to.
type Phase string

const (
	PhaseConnect  Phase = "connect"
	PhaseSetup    Phase = "pre-reset setup"
	PhaseScenario Phase = "scenario steps"
	PhaseReset    Phase = "reset issuance"
	PhaseProbe    Phase = "post-reset probe"
)

// Outcome classifies a completed run.
type Outcome string

const (
	// OutcomePassed means the debug interface answered after the reset.
	OutcomePassed Outcome = "PASSED"
	// OutcomeFailed means the interface was lost after the reset - the
	// result this diagnostic exists to catch.
	OutcomeFailed Outcome = "FAILED"
	// OutcomeAborted means the run never reached the reset; nothing can
	// be said about survival.
	OutcomeAborted Outcome = "ABORTED"
)

// Params carries the run context a scenario needs beyond its definition.
type Params struct {
	Host     string
	Port     int
	Logger   *logging.Logger
	Sink     *metrics.Sink
	SpeedKHz int

	// OnStep, when set, is called after each executed step. It runs on
	// the scenario goroutine; receivers must not block.
	OnStep func(StepResult)
}

// StepResult records one executed step.
type StepResult struct {
	Label    string
	Phase    Phase
	Err      error
	Duration time.Duration
}

// Result is the outcome of one reset-survival run.
type Result struct {
	Scenario    string
	Outcome     Outcome
	FailedPhase Phase
	Err         error
	IDCode      uint32
	DHCSR       uint32 // post-reset read-back when the probe succeeded
	Steps       []StepResult
	Duration    time.Duration
}
