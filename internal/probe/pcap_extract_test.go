package probe

import (
	"testing"
)

func TestDecodeConversation(t *testing.T) {
	toProbe := []byte{
		0x01,                   // version echo
		0x00, 0x00,             // DP read IDCODE
		0x03, 0x04, 0x0C, 0xED, 0x00, 0xE0, // AP write TAR = 0xE000ED0C
		0xFF, // disconnect
	}
	fromProbe := []byte{
		0x01,                         // version
		0x00, 0x77, 0x14, 0xB1, 0x2B, // OK + IDCODE word
		0x00, // OK for the write
		0x00, // disconnect ack
	}

	events, err := DecodeConversation(toProbe, fromProbe)
	if err != nil {
		t.Fatalf("DecodeConversation() error = %v", err)
	}
	if len(events) != 8 {
		t.Fatalf("got %d events, want 8", len(events))
	}

	if !events[0].Handshake || events[0].Dir != FromProbe {
		t.Errorf("event 0 = %+v, want server handshake", events[0])
	}
	if !events[1].Handshake || events[1].Dir != ToProbe {
		t.Errorf("event 1 = %+v, want client echo", events[1])
	}

	read := events[2]
	if read.Op != CmdDPRead || read.Reg != 0x00 || read.Dir != ToProbe {
		t.Errorf("event 2 = %+v, want DP read IDCODE", read)
	}
	readResp := events[3]
	if readResp.Status != StatusOK || len(readResp.Words) != 1 || readResp.Words[0] != 0x2BB11477 {
		t.Errorf("event 3 = %+v, want OK with word 0x2BB11477", readResp)
	}

	write := events[4]
	if write.Op != CmdAPWrite || write.Reg != 0x04 || write.Words[0] != 0xE000ED0C {
		t.Errorf("event 4 = %+v, want AP write TAR", write)
	}

	if events[6].Op != CmdDisconnect {
		t.Errorf("event 6 = %+v, want disconnect", events[6])
	}
}

func TestDecodeConversationErrorStatus(t *testing.T) {
	toProbe := []byte{
		0x01,
		0x02, 0x0C, // AP read DRW
	}
	fromProbe := []byte{
		0x01,
		0x82, // SWD error - no data word follows
	}

	events, err := DecodeConversation(toProbe, fromProbe)
	if err != nil {
		t.Fatalf("DecodeConversation() error = %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	resp := events[3]
	if resp.Status != StatusErrSWD || len(resp.Words) != 0 {
		t.Errorf("response = %+v, want SWD error with no data", resp)
	}
}

func TestDecodeConversationBulk(t *testing.T) {
	toProbe := []byte{
		0x01,
		0x12, 0x0C, 0x02, 0x00, // bulk read 2 words
	}
	fromProbe := []byte{
		0x01,
		0x00, 0x02, 0x00,
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
	}

	events, err := DecodeConversation(toProbe, fromProbe)
	if err != nil {
		t.Fatalf("DecodeConversation() error = %v", err)
	}
	resp := events[3]
	if len(resp.Words) != 2 || resp.Words[0] != 1 || resp.Words[1] != 2 {
		t.Errorf("bulk response words = %v, want [1 2]", resp.Words)
	}
}

func TestDecodeConversationTruncated(t *testing.T) {
	toProbe := []byte{
		0x01,
		0x00, 0x00, // DP read
		0x03, 0x04, // truncated AP write
	}
	fromProbe := []byte{
		0x01,
		0x00, 0x77, 0x14, 0xB1, 0x2B,
	}

	events, err := DecodeConversation(toProbe, fromProbe)
	if err != nil {
		t.Fatalf("DecodeConversation() error = %v", err)
	}
	// Handshake pair, then the complete read exchange; the partial
	// write frame ends the transcript quietly.
	if len(events) != 4 {
		t.Errorf("got %d events, want 4", len(events))
	}
}

func TestDecodeConversationUnknownOpcode(t *testing.T) {
	toProbe := []byte{0x01, 0x42}
	fromProbe := []byte{0x01}

	if _, err := DecodeConversation(toProbe, fromProbe); err == nil {
		t.Error("expected error for unframeable opcode")
	}
}

func TestFormatEvent(t *testing.T) {
	ev := Event{Dir: ToProbe, Op: CmdAPWrite, Reg: 0x04, Words: []uint32{0xE000ED0C}, Note: CmdName(CmdAPWrite)}
	got := FormatEvent(ev)
	want := "-> AP write reg 0x04 = 0xE000ED0C"
	if got != want {
		t.Errorf("FormatEvent() = %q, want %q", got, want)
	}
}
