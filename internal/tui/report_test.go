package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kmoriarty/airprobe/internal/scenario"
)

func sampleResult() *scenario.Result {
	return &scenario.Result{
		Scenario: "vector-catch",
		Outcome:  scenario.OutcomePassed,
		IDCode:   0x2BB11477,
		DHCSR:    0x01010001,
		Duration: 1234 * time.Millisecond,
		Steps: []scenario.StepResult{
			{Label: "line reset", Phase: scenario.PhaseSetup, Duration: 2 * time.Millisecond},
			{Label: "DEMCR VC_CORERESET", Phase: scenario.PhaseScenario, Duration: time.Millisecond},
			{Label: "post-reset DHCSR probe", Phase: scenario.PhaseProbe, Duration: 3 * time.Millisecond},
		},
	}
}

func TestPlainReportPassed(t *testing.T) {
	out := PlainReport(sampleResult())

	for _, want := range []string{
		"Scenario: vector-catch",
		"Outcome:  PASSED",
		"IDCODE:   0x2BB11477",
		"DHCSR:    0x01010001",
		"DEMCR VC_CORERESET: ok",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestPlainReportFailed(t *testing.T) {
	res := sampleResult()
	res.Outcome = scenario.OutcomeFailed
	res.Err = errors.New("connection closed by peer")
	res.Steps[2].Err = res.Err

	out := PlainReport(res)
	if !strings.Contains(out, "Outcome:  FAILED") {
		t.Errorf("report:\n%s", out)
	}
	if strings.Contains(out, "DHCSR:") {
		t.Error("failed run must not report a DHCSR read-back")
	}
	if !strings.Contains(out, "post-reset DHCSR probe: FAILED: connection closed by peer") {
		t.Errorf("report missing failed step:\n%s", out)
	}
}

func TestRenderReportContainsOutcome(t *testing.T) {
	out := RenderReport(sampleResult())
	if !strings.Contains(out, "PASSED") {
		t.Errorf("styled report missing outcome:\n%s", out)
	}
	if !strings.Contains(out, "vector-catch") {
		t.Errorf("styled report missing scenario name:\n%s", out)
	}
}
