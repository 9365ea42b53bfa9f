package scenario

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kmoriarty/airprobe/internal/config"
	"github.com/kmoriarty/airprobe/internal/logging"
	"github.com/kmoriarty/airprobe/internal/metrics"
	"github.com/kmoriarty/airprobe/internal/swd"
)

func testParams(t *testing.T) Params {
	t.Helper()
	logger, err := logging.New(logging.LevelSilent, "")
	if err != nil {
		t.Fatalf("logging.New() error = %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return Params{Host: "probe.local", Port: 4146, Logger: logger, Sink: metrics.NewSink()}
}

func vectorCatchDef() config.ScenarioDef {
	return config.ScenarioDef{
		Name: "vector-catch",
		Steps: []config.Step{
			{Op: config.StepWrite, Addr: swd.DEMCRAddr, Value: swd.DEMCRVCCoreReset, Name: "DEMCR VC_CORERESET"},
			{Op: config.StepWrite, Addr: swd.DHCSRAddr, Value: swd.DHCSRDebugEn, Name: "DHCSR C_DEBUGEN"},
		},
	}
}

func TestRunPassed(t *testing.T) {
	client := NewMockClient()
	client.SetReadValue("dp_read 0x00", 0x2BB11477)
	client.SetReadValue("ap_read 0x0C", 0x01010001)

	result, err := Run(context.Background(), client, vectorCatchDef(), testParams(t))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Outcome != OutcomePassed {
		t.Fatalf("Outcome = %v, want PASSED", result.Outcome)
	}
	if result.IDCode != 0x2BB11477 {
		t.Errorf("IDCode = 0x%08X, want 0x2BB11477", result.IDCode)
	}
	if result.DHCSR != 0x01010001 {
		t.Errorf("DHCSR = 0x%08X, want 0x01010001", result.DHCSR)
	}

	// The session must be released regardless of outcome.
	if client.Calls[len(client.Calls)-1] != "disconnect" {
		t.Errorf("last call = %q, want disconnect", client.Calls[len(client.Calls)-1])
	}
}

func TestRunBaselineOrder(t *testing.T) {
	client := NewMockClient()
	result, err := Run(context.Background(), client, config.ScenarioDef{Name: "basic"}, testParams(t))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Outcome != OutcomePassed {
		t.Fatalf("Outcome = %v, want PASSED", result.Outcome)
	}

	want := []string{
		"line_reset",
		"dp_read 0x00",                 // IDCODE
		"dp_write 0x00=0x0000001E",     // ABORT clear
		"dp_read 0x0C",                 // RDBUFF drain
		"dp_write 0x04=0x50000000",     // CTRL/STAT power-up
		"dp_read 0x0C",                 // power-up read-back
		"ap_write 0x00=0x23000052",     // CSW
		"ap_write 0x04=0xE000ED0C",     // TAR = AIRCR
		"ap_write 0x0C=0x05FA0004",     // DRW = SYSRESETREQ
		"ap_write 0x04=0xE000EDF0",     // TAR = DHCSR
		"ap_read 0x0C",                 // post-reset probe
		"disconnect",
	}
	if len(client.Calls) != len(want) {
		t.Fatalf("calls = %v\nwant   %v", client.Calls, want)
	}
	for i := range want {
		if client.Calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, client.Calls[i], want[i])
		}
	}
}

func TestRunFailedWhenPostResetProbeDies(t *testing.T) {
	client := NewMockClient()
	// Fail the TAR write that selects DHCSR; the AIRCR access before it
	// stages a different address and is untouched.
	client.FailOn("ap_write 0x04=0xE000EDF0", errors.New("swd fault"))

	result, err := Run(context.Background(), client, config.ScenarioDef{Name: "basic"}, testParams(t))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Outcome != OutcomeFailed {
		t.Fatalf("Outcome = %v, want FAILED", result.Outcome)
	}
	if result.FailedPhase != PhaseProbe {
		t.Errorf("FailedPhase = %v, want post-reset probe", result.FailedPhase)
	}
	if result.Err == nil {
		t.Error("Err is nil on a failed run")
	}
	if client.Calls[len(client.Calls)-1] != "disconnect" {
		t.Error("session not released after failure")
	}
}

func TestRunAbortedWhenBaselineFails(t *testing.T) {
	client := NewMockClient()
	client.FailOn("line_reset", errors.New("probe rejected"))

	result, err := Run(context.Background(), client, vectorCatchDef(), testParams(t))
	if err == nil {
		t.Fatal("expected error from aborted run")
	}
	if result.Outcome != OutcomeAborted {
		t.Fatalf("Outcome = %v, want ABORTED", result.Outcome)
	}
	if result.FailedPhase != PhaseSetup {
		t.Errorf("FailedPhase = %v, want pre-reset setup", result.FailedPhase)
	}

	// No scenario step and no reset may run after the baseline fails.
	for _, call := range client.Calls {
		if call == "ap_write 0x0C=0x05FA0004" {
			t.Error("reset was issued after baseline failure")
		}
	}
	if client.Calls[len(client.Calls)-1] != "disconnect" {
		t.Error("session not released after abort")
	}
}

func TestRunAbortedWhenScenarioStepFails(t *testing.T) {
	client := NewMockClient()
	client.FailOn("ap_write 0x0C=0x00000001", errors.New("swd fault")) // DEMCR value

	result, _ := Run(context.Background(), client, vectorCatchDef(), testParams(t))
	if result.Outcome != OutcomeAborted {
		t.Fatalf("Outcome = %v, want ABORTED", result.Outcome)
	}
	if result.FailedPhase != PhaseScenario {
		t.Errorf("FailedPhase = %v, want scenario steps", result.FailedPhase)
	}
}

func TestRunAbortedWhenConnectFails(t *testing.T) {
	client := NewMockClient()
	client.FailConnect(errors.New("connection refused"))

	result, err := Run(context.Background(), client, vectorCatchDef(), testParams(t))
	if err == nil {
		t.Fatal("expected error")
	}
	if result.Outcome != OutcomeAborted || result.FailedPhase != PhaseConnect {
		t.Errorf("result = %+v, want aborted at connect", result)
	}
	if len(client.Calls) != 0 {
		t.Errorf("calls after failed connect: %v", client.Calls)
	}
}

func TestRunAppliesSpeed(t *testing.T) {
	client := NewMockClient()
	params := testParams(t)
	params.SpeedKHz = 500

	if _, err := Run(context.Background(), client, config.ScenarioDef{Name: "basic"}, params); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if client.Calls[0] != "set_speed 3" {
		t.Errorf("first call = %q, want set_speed 3", client.Calls[0])
	}
}

func TestRunRecordsMetrics(t *testing.T) {
	client := NewMockClient()
	params := testParams(t)

	if _, err := Run(context.Background(), client, config.ScenarioDef{Name: "basic"}, params); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	ms := params.Sink.Metrics()
	if len(ms) == 0 {
		t.Fatal("no metrics recorded")
	}
	for _, m := range ms {
		if m.Scenario != "basic" {
			t.Errorf("metric scenario = %q, want basic", m.Scenario)
		}
	}
}

func TestRunCancelledContext(t *testing.T) {
	client := NewMockClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Run(ctx, client, vectorCatchDef(), testParams(t))
	if err == nil {
		t.Fatal("expected error")
	}
	if result.Outcome != OutcomeAborted {
		t.Errorf("Outcome = %v, want ABORTED", result.Outcome)
	}
}

func TestRunOnStepCallback(t *testing.T) {
	client := NewMockClient()
	params := testParams(t)
	var labels []string
	params.OnStep = func(s StepResult) { labels = append(labels, s.Label) }

	result, err := Run(context.Background(), client, config.ScenarioDef{Name: "basic"}, params)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(labels) != len(result.Steps) {
		t.Errorf("OnStep saw %d steps, result has %d", len(labels), len(result.Steps))
	}
	if labels[len(labels)-1] != "post-reset DHCSR probe" {
		t.Errorf("last step = %q", labels[len(labels)-1])
	}
}

func TestStepLabels(t *testing.T) {
	s := config.Step{Op: config.StepWrite, Addr: 0xE000EDFC, Value: 1}
	if got, want := s.Label(), fmt.Sprintf("write 0x%08X=0x%08X", uint32(0xE000EDFC), uint32(1)); got != want {
		t.Errorf("Label() = %q, want %q", got, want)
	}
}
