// Package swd holds the register addresses and magic values used when
// driving an ARM Cortex-M debug access port through a remote probe.
package swd

// Debug Port (DP) register selects. The select byte is the register's
// A[3:2] address as seen on the wire. Several selects are direction
// dependent: 0x00 reads IDCODE but writes ABORT.
const (
	DPIDCode   uint8 = 0x00 // read
	DPAbort    uint8 = 0x00 // write
	DPCtrlStat uint8 = 0x04
	DPSelect   uint8 = 0x08
	DPRdBuff   uint8 = 0x0C // read
)

// Access Port (AP) register selects, bank 0 of a MEM-AP. IDR lives in
// bank 0xF and needs DP SELECT staged first.
const (
	APCSW uint8 = 0x00
	APTAR uint8 = 0x04
	APDRW uint8 = 0x0C
	APIDR uint8 = 0xFC
)

// DP ABORT write mask clearing every sticky fault latch:
// STKCMPCLR | STKERRCLR | WDERRCLR | ORUNERRCLR.
const AbortClearMask uint32 = 0x0000001E

// DP CTRL/STAT value requesting debug and system domain power-up
// (CDBGPWRUPREQ | CSYSPWRUPREQ).
const CtrlStatPowerUp uint32 = 0x50000000

// MEM-AP CSW value for 32-bit transfers with single auto-increment,
// master-debug and the required HPROT bit set.
const CSWWord32AutoInc uint32 = 0x23000052

// Cortex-M System Control Space registers reached through the MEM-AP.
const (
	AIRCRAddr uint32 = 0xE000ED0C // Application Interrupt and Reset Control
	SHPRAddr  uint32 = 0xE000ED30 // System Handler Priority
	DHCSRAddr uint32 = 0xE000EDF0 // Debug Halting Control and Status
	DEMCRAddr uint32 = 0xE000EDFC // Debug Exception and Monitor Control
)

// AIRCR write requesting a system reset: VECTKEY 0x05FA in the top half,
// SYSRESETREQ in bit 2. Resets the core and peripherals but not the
// debug interface itself.
const AIRCRSysResetReq uint32 = 0x05FA0004

// DHCSR writes. The top half must carry DBGKEY 0xA05F or the write is
// ignored by the core.
const (
	DHCSRDebugEn     uint32 = 0xA05F0001 // C_DEBUGEN
	DHCSRHalt        uint32 = 0xA05F0003 // C_HALT | C_DEBUGEN
	DHCSRStep        uint32 = 0xA05F0007 // C_STEP | C_HALT | C_DEBUGEN
	DHCSRMaskInts    uint32 = 0xA05F000B
	DHCSRStepMaskInt uint32 = 0xA05F000D
)

// DEMCR vector catch on core reset. With this set, a system reset halts
// the core before the first instruction - the configuration known to
// wedge some targets' SWD interfaces.
const DEMCRVCCoreReset uint32 = 0x00000001

// STM32F4 flash interface registers, used by the diagnostic sweep.
const (
	FlashCRAddr  uint32 = 0xE0042004
	FlashOptAddr uint32 = 0xE0002000
)
