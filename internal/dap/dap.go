// Package dap composes the ordered multi-frame transactions the MEM-AP
// register model requires: every data access stages its target address
// into TAR before touching DRW, and a latched sticky fault blocks the
// whole port until an ABORT write clears it.
package dap

import (
	"context"
	"fmt"

	"github.com/kmoriarty/airprobe/internal/probe"
	"github.com/kmoriarty/airprobe/internal/swd"
)

// SequenceError reports a multi-step transaction that stopped before
// completing. Steps after the failing one were never sent.
type SequenceError struct {
	Op   string
	Step string
	Err  error
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("%s aborted at %s: %v", e.Op, e.Step, e.Err)
}

func (e *SequenceError) Unwrap() error { return e.Err }

// Sequencer builds MEM-AP transactions on top of a connected client.
// It never retries and never clears faults on its own: a failed step is
// surfaced so the caller can see exactly which access broke.
type Sequencer struct {
	client probe.Client
}

// NewSequencer wraps a client. The client's session is owned by the
// caller; the sequencer only issues commands on it.
func NewSequencer(client probe.Client) *Sequencer {
	return &Sequencer{client: client}
}

// WriteWord writes a 32-bit word at a memory-mapped address: AP write
// TAR with the address, then AP write DRW with the value. If the TAR
// write fails, DRW is never touched.
func (s *Sequencer) WriteWord(ctx context.Context, addr, value uint32) error {
	op := fmt.Sprintf("write word 0x%08X", addr)
	if err := s.client.APWrite(ctx, swd.APTAR, addr); err != nil {
		return &SequenceError{Op: op, Step: "TAR write", Err: err}
	}
	if err := s.client.APWrite(ctx, swd.APDRW, value); err != nil {
		return &SequenceError{Op: op, Step: "DRW write", Err: err}
	}
	return nil
}

// ReadWord reads a 32-bit word at a memory-mapped address: AP write TAR,
// then AP read DRW. Same all-or-nothing contract as WriteWord.
func (s *Sequencer) ReadWord(ctx context.Context, addr uint32) (uint32, error) {
	op := fmt.Sprintf("read word 0x%08X", addr)
	if err := s.client.APWrite(ctx, swd.APTAR, addr); err != nil {
		return 0, &SequenceError{Op: op, Step: "TAR write", Err: err}
	}
	value, err := s.client.APRead(ctx, swd.APDRW)
	if err != nil {
		return 0, &SequenceError{Op: op, Step: "DRW read", Err: err}
	}
	return value, nil
}

// ReadBlock reads count consecutive words starting at addr using the
// probe's bulk transfer, relying on CSW auto-increment.
func (s *Sequencer) ReadBlock(ctx context.Context, addr uint32, count uint16) ([]uint32, error) {
	op := fmt.Sprintf("read block 0x%08X x%d", addr, count)
	if err := s.client.APWrite(ctx, swd.APTAR, addr); err != nil {
		return nil, &SequenceError{Op: op, Step: "TAR write", Err: err}
	}
	words, err := s.client.APBulkRead(ctx, swd.APDRW, count)
	if err != nil {
		return nil, &SequenceError{Op: op, Step: "bulk DRW read", Err: err}
	}
	return words, nil
}

// WriteBlock writes consecutive words starting at addr using the
// probe's bulk transfer.
func (s *Sequencer) WriteBlock(ctx context.Context, addr uint32, words []uint32) error {
	op := fmt.Sprintf("write block 0x%08X x%d", addr, len(words))
	if err := s.client.APWrite(ctx, swd.APTAR, addr); err != nil {
		return &SequenceError{Op: op, Step: "TAR write", Err: err}
	}
	if err := s.client.APBulkWrite(ctx, swd.APDRW, words); err != nil {
		return &SequenceError{Op: op, Step: "bulk DRW write", Err: err}
	}
	return nil
}

// ClearStickyFaults writes the ABORT register with the full clear mask.
// Required after any transaction reports a fault; harmless when no
// fault is latched.
func (s *Sequencer) ClearStickyFaults(ctx context.Context) error {
	if err := s.client.DPWrite(ctx, swd.DPAbort, swd.AbortClearMask); err != nil {
		return fmt.Errorf("clear sticky faults: %w", err)
	}
	return nil
}

// PowerUpDebugDomain requests debug and system power through CTRL/STAT
// and confirms with an RDBUFF read-back. AP transactions against a
// powered-down domain fail, so this must precede any AP access.
func (s *Sequencer) PowerUpDebugDomain(ctx context.Context) error {
	if err := s.client.DPWrite(ctx, swd.DPCtrlStat, swd.CtrlStatPowerUp); err != nil {
		return fmt.Errorf("power up debug domain: %w", err)
	}
	if _, err := s.client.DPRead(ctx, swd.DPRdBuff); err != nil {
		return fmt.Errorf("power up debug domain: read back: %w", err)
	}
	return nil
}

// ConfigureCSW sets the MEM-AP up for 32-bit auto-incrementing
// transfers, the mode every word and block access here assumes.
func (s *Sequencer) ConfigureCSW(ctx context.Context) error {
	if err := s.client.APWrite(ctx, swd.APCSW, swd.CSWWord32AutoInc); err != nil {
		return fmt.Errorf("configure CSW: %w", err)
	}
	return nil
}
