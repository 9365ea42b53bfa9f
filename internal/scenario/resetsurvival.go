package scenario

// The reset-survival procedure itself

import (
	"context"
	"fmt"
	"time"

	"github.com/kmoriarty/airprobe/internal/config"
	"github.com/kmoriarty/airprobe/internal/dap"
	"github.com/kmoriarty/airprobe/internal/probe"
	"github.com/kmoriarty/airprobe/internal/swd"
)

// Run executes one reset-survival scenario over the given client. The
// client must be disconnected; Run owns its session for the duration
// and guarantees the disconnect sequence on every exit path.
//
// A run that never reaches the reset is ABORTED, not FAILED: only the
// post-reset probe distinguishes a surviving interface from a wedged
// one, and that distinction is the whole point of the exercise.
func Run(ctx context.Context, client probe.Client, def config.ScenarioDef, params Params) (*Result, error) {
	start := time.Now()
	result := &Result{Scenario: def.Name, Outcome: OutcomeAborted}

	params.Logger.Info("Starting scenario %q against %s:%d", def.Name, params.Host, params.Port)

	if err := client.Connect(ctx, params.Host, params.Port); err != nil {
		result.FailedPhase = PhaseConnect
		result.Err = err
		result.Duration = time.Since(start)
		return result, err
	}
	defer client.Disconnect(ctx)

	seq := dap.NewSequencer(client)
	r := &runner{client: client, seq: seq, params: params, result: result, scenario: def.Name}

	if params.SpeedKHz > 0 {
		speed := probe.SpeedFromKHz(params.SpeedKHz)
		if err := r.step(ctx, PhaseSetup, fmt.Sprintf("set speed %dkHz", speed.KHz()), func() error {
			return client.SetSpeed(ctx, speed)
		}); err != nil {
			return r.abort(start, PhaseSetup, err)
		}
	}

	if err := r.baseline(ctx); err != nil {
		return r.abort(start, PhaseSetup, err)
	}

	for _, s := range def.Steps {
		s := s
		err := r.step(ctx, PhaseScenario, s.Label(), func() error {
			if s.Op == config.StepRead {
				value, err := seq.ReadWord(ctx, s.Addr)
				if err != nil {
					return err
				}
				params.Logger.Verbose("  0x%08X -> 0x%08X", s.Addr, value)
				return nil
			}
			return seq.WriteWord(ctx, s.Addr, s.Value)
		})
		if err != nil {
			return r.abort(start, PhaseScenario, err)
		}
	}

	if err := r.step(ctx, PhaseReset, "AIRCR SYSRESETREQ", func() error {
		return seq.WriteWord(ctx, swd.AIRCRAddr, swd.AIRCRSysResetReq)
	}); err != nil {
		return r.abort(start, PhaseReset, err)
	}

	// The verdict: select DHCSR and read it back. A target whose debug
	// interface wedged during the reset fails the TAR write already.
	probeErr := r.step(ctx, PhaseProbe, "post-reset DHCSR probe", func() error {
		value, err := seq.ReadWord(ctx, swd.DHCSRAddr)
		if err != nil {
			return err
		}
		result.DHCSR = value
		return nil
	})

	result.Duration = time.Since(start)
	if probeErr != nil {
		result.Outcome = OutcomeFailed
		result.FailedPhase = PhaseProbe
		result.Err = probeErr
		params.Logger.Error("Scenario %q FAILED: debug interface lost after reset: %v", def.Name, probeErr)
		return result, nil
	}

	result.Outcome = OutcomePassed
	params.Logger.Info("Scenario %q PASSED: interface survived reset (DHCSR=0x%08X)", def.Name, result.DHCSR)
	return result, nil
}

type runner struct {
	client   probe.Client
	seq      *dap.Sequencer
	params   Params
	result   *Result
	scenario string
}

// baseline brings the link to a known-good state before anything else:
// line reset, IDCODE read, sticky fault clear, RDBUFF drain, power-up
// with read-back, CSW configuration.
func (r *runner) baseline(ctx context.Context) error {
	steps := []struct {
		label string
		fn    func() error
	}{
		{"line reset", func() error { return r.client.LineReset(ctx) }},
		{"DP read IDCODE", func() error {
			id, err := r.client.DPRead(ctx, swd.DPIDCode)
			if err != nil {
				return err
			}
			r.result.IDCode = id
			r.params.Logger.Verbose("  IDCODE 0x%08X", id)
			return nil
		}},
		{"clear sticky faults", func() error { return r.seq.ClearStickyFaults(ctx) }},
		{"DP read RDBUFF", func() error {
			_, err := r.client.DPRead(ctx, swd.DPRdBuff)
			return err
		}},
		{"power up debug domain", func() error { return r.seq.PowerUpDebugDomain(ctx) }},
		{"configure CSW", func() error { return r.seq.ConfigureCSW(ctx) }},
	}

	for _, s := range steps {
		if err := r.step(ctx, PhaseSetup, s.label, s.fn); err != nil {
			return err
		}
	}
	return nil
}

// step runs one labelled action, logging and recording a metric.
func (r *runner) step(ctx context.Context, phase Phase, label string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	res := StepResult{
		Label:    label,
		Phase:    phase,
		Err:      err,
		Duration: elapsed,
	}
	r.result.Steps = append(r.result.Steps, res)
	if r.params.Sink != nil {
		r.params.Sink.Record(r.scenario, label, start, err)
	}
	if r.params.OnStep != nil {
		r.params.OnStep(res)
	}

	if err != nil {
		r.params.Logger.Error("  %s: %s: %v", phase, label, err)
		return err
	}
	r.params.Logger.Verbose("  %s: %s ok (%.1fms)", phase, label, float64(elapsed.Microseconds())/1000.0)
	return nil
}

func (r *runner) abort(start time.Time, phase Phase, err error) (*Result, error) {
	r.result.Outcome = OutcomeAborted
	r.result.FailedPhase = phase
	r.result.Err = err
	r.result.Duration = time.Since(start)
	r.params.Logger.Error("Scenario %q aborted during %s: %v", r.scenario, phase, err)
	return r.result, fmt.Errorf("%s: %w", phase, err)
}
