package config

import "github.com/kmoriarty/airprobe/internal/swd"

// BuiltinScenarios is the reset-survival sweep: each scenario applies
// one candidate pre-reset configuration so a failing run isolates which
// register setup wedges the debug interface after a system reset.
func BuiltinScenarios() []ScenarioDef {
	return []ScenarioDef{
		{
			Name:        "basic",
			Description: "Baseline setup only, no extra configuration; expected to survive reset",
		},
		{
			Name:        "dhcsr-halt",
			Description: "Enable halting debug, then halt the core before reset",
			Steps: []Step{
				{Op: StepWrite, Addr: swd.DHCSRAddr, Value: swd.DHCSRDebugEn, Name: "DHCSR C_DEBUGEN"},
				{Op: StepWrite, Addr: swd.DHCSRAddr, Value: swd.DHCSRHalt, Name: "DHCSR C_HALT|C_DEBUGEN"},
			},
		},
		{
			Name:        "vector-catch",
			Description: "Arm DEMCR vector catch on core reset, the configuration suspected of locking the interface",
			Steps: []Step{
				{Op: StepWrite, Addr: swd.DEMCRAddr, Value: swd.DEMCRVCCoreReset, Name: "DEMCR VC_CORERESET"},
				{Op: StepWrite, Addr: swd.DHCSRAddr, Value: swd.DHCSRDebugEn, Name: "DHCSR C_DEBUGEN"},
			},
		},
		{
			Name:        "flash-regs",
			Description: "Touch STM32F4 flash interface registers before reset",
			Steps: []Step{
				{Op: StepWrite, Addr: swd.FlashCRAddr, Value: 0x00000007, Name: "flash CR"},
				{Op: StepRead, Addr: swd.FlashOptAddr, Name: "flash option bytes"},
			},
		},
		{
			Name:        "handler-priority",
			Description: "Raise system exception handler priorities before reset",
			Steps: []Step{
				{Op: StepWrite, Addr: swd.SHPRAddr, Value: 0x0000001F, Name: "SHPR"},
			},
		},
		{
			Name:        "dhcsr-complex",
			Description: "The full DHCSR manipulation sequence from the failing trace",
			Steps: []Step{
				{Op: StepWrite, Addr: swd.DHCSRAddr, Value: swd.DHCSRDebugEn, Name: "DHCSR C_DEBUGEN"},
				{Op: StepWrite, Addr: swd.DHCSRAddr, Value: swd.DHCSRHalt, Name: "DHCSR C_HALT"},
				{Op: StepWrite, Addr: swd.DHCSRAddr, Value: swd.DHCSRStep, Name: "DHCSR C_STEP"},
				{Op: StepWrite, Addr: swd.DHCSRAddr, Value: swd.DHCSRMaskInts, Name: "DHCSR C_MASKINTS"},
				{Op: StepWrite, Addr: swd.DHCSRAddr, Value: swd.DHCSRStepMaskInt, Name: "DHCSR C_STEP|C_MASKINTS"},
			},
		},
	}
}
