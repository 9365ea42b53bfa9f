package probe

// Offline decoding of captured probe API conversations

import (
	"encoding/binary"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// Direction tells which side of the conversation sent an event.
type Direction int

const (
	ToProbe Direction = iota
	FromProbe
)

func (d Direction) String() string {
	if d == ToProbe {
		return "->"
	}
	return "<-"
}

// Event is one decoded frame of a conversation transcript. Responses
// carry the opcode of the request they answer.
type Event struct {
	Dir       Direction
	Handshake bool
	Op        byte
	Status    byte     // responses only
	Reg       uint8    // register commands only
	Words     []uint32 // operands or returned data
	Note      string
}

// Conversation is one TCP connection's decoded transcript.
type Conversation struct {
	Client string
	Server string
	Events []Event
}

// CmdName returns a display name for an opcode.
func CmdName(op byte) string {
	switch op {
	case CmdDPRead:
		return "DP read"
	case CmdDPWrite:
		return "DP write"
	case CmdAPRead:
		return "AP read"
	case CmdAPWrite:
		return "AP write"
	case CmdAPBulkRead:
		return "AP bulk read"
	case CmdAPBulkWrite:
		return "AP bulk write"
	case CmdMultiRegWrite:
		return "multi-reg write"
	case CmdPing:
		return "ping"
	case CmdLineReset:
		return "line reset"
	case CmdSetSpeed:
		return "set speed"
	case CmdDisconnect:
		return "disconnect"
	default:
		return fmt.Sprintf("unknown 0x%02X", op)
	}
}

// ExtractConversations reads a capture file and decodes every TCP
// conversation on the given port into a transcript. Pass 0 for the
// default probe port.
func ExtractConversations(pcapFile string, port int) ([]Conversation, error) {
	if port == 0 {
		port = DefaultPort
	}

	handle, err := pcap.OpenOffline(pcapFile)
	if err != nil {
		return nil, fmt.Errorf("open pcap file: %w", err)
	}
	defer handle.Close()

	type stream struct {
		client, server   string
		toProbe, fromPrb []byte
	}
	streams := make(map[string]*stream)
	var order []string

	source := gopacket.NewPacketSource(handle, handle.LinkType())
	for packet := range source.Packets() {
		tcpLayer := packet.Layer(layers.LayerTypeTCP)
		if tcpLayer == nil {
			continue
		}
		tcp, _ := tcpLayer.(*layers.TCP)
		if int(tcp.SrcPort) != port && int(tcp.DstPort) != port {
			continue
		}
		if len(tcp.Payload) == 0 {
			continue
		}
		netLayer := packet.NetworkLayer()
		if netLayer == nil {
			continue
		}

		src := fmt.Sprintf("%s:%d", netLayer.NetworkFlow().Src(), tcp.SrcPort)
		dst := fmt.Sprintf("%s:%d", netLayer.NetworkFlow().Dst(), tcp.DstPort)

		toServer := int(tcp.DstPort) == port
		var client, server string
		if toServer {
			client, server = src, dst
		} else {
			client, server = dst, src
		}

		key := client + "|" + server
		st, ok := streams[key]
		if !ok {
			st = &stream{client: client, server: server}
			streams[key] = st
			order = append(order, key)
		}
		if toServer {
			st.toProbe = append(st.toProbe, tcp.Payload...)
		} else {
			st.fromPrb = append(st.fromPrb, tcp.Payload...)
		}
	}

	conversations := make([]Conversation, 0, len(order))
	for _, key := range order {
		st := streams[key]
		events, err := DecodeConversation(st.toProbe, st.fromPrb)
		if err != nil {
			return nil, fmt.Errorf("conversation %s -> %s: %w", st.client, st.server, err)
		}
		conversations = append(conversations, Conversation{
			Client: st.client,
			Server: st.server,
			Events: events,
		})
	}
	return conversations, nil
}

// DecodeConversation pairs the two directions of one connection into an
// ordered transcript. The server speaks first (version byte), the
// client echoes it, then strict request/response alternation follows.
// A truncated capture ends the transcript without error; garbage that
// cannot be framed does not.
func DecodeConversation(toProbe, fromProbe []byte) ([]Event, error) {
	var events []Event

	if len(fromProbe) == 0 && len(toProbe) == 0 {
		return nil, nil
	}
	if len(fromProbe) > 0 {
		events = append(events, Event{Dir: FromProbe, Handshake: true, Note: fmt.Sprintf("version 0x%02X", fromProbe[0])})
		fromProbe = fromProbe[1:]
	}
	if len(toProbe) > 0 {
		events = append(events, Event{Dir: ToProbe, Handshake: true, Note: fmt.Sprintf("version echo 0x%02X", toProbe[0])})
		toProbe = toProbe[1:]
	}

	for len(toProbe) > 0 {
		req, rest, err := decodeRequest(toProbe)
		if err != nil {
			return events, err
		}
		if req == nil {
			break // truncated request
		}
		toProbe = rest
		events = append(events, *req)

		resp, rest, err := decodeResponse(fromProbe, req.Op)
		if err != nil {
			return events, err
		}
		if resp == nil {
			break // capture ends before the response
		}
		fromProbe = rest
		events = append(events, *resp)
	}
	return events, nil
}

// decodeRequest consumes one client frame. A nil event with nil error
// means the buffer holds only a partial frame.
func decodeRequest(buf []byte) (*Event, []byte, error) {
	op := buf[0]
	fixed, err := FrameLen(op)
	if err != nil {
		return nil, nil, err
	}
	if len(buf) < fixed {
		return nil, nil, nil
	}

	ev := &Event{Dir: ToProbe, Op: op, Note: CmdName(op)}
	switch op {
	case CmdDPRead, CmdAPRead:
		ev.Reg = buf[1]
	case CmdDPWrite, CmdAPWrite:
		ev.Reg = buf[1]
		ev.Words = []uint32{binary.LittleEndian.Uint32(buf[2:6])}
	case CmdSetSpeed:
		ev.Words = []uint32{uint32(buf[1])}
	case CmdAPBulkRead:
		ev.Reg = buf[1]
		ev.Words = []uint32{uint32(binary.LittleEndian.Uint16(buf[2:4]))}
	case CmdAPBulkWrite:
		ev.Reg = buf[1]
		count := int(binary.LittleEndian.Uint16(buf[2:4]))
		total := fixed + 4*count
		if len(buf) < total {
			return nil, nil, nil
		}
		ev.Words = make([]uint32, count)
		for i := range ev.Words {
			ev.Words[i] = binary.LittleEndian.Uint32(buf[fixed+4*i:])
		}
		return ev, buf[total:], nil
	case CmdMultiRegWrite:
		count := int(binary.LittleEndian.Uint16(buf[1:3]))
		total := fixed + 6*count
		if len(buf) < total {
			return nil, nil, nil
		}
		ev.Words = make([]uint32, 0, 3*count)
		for i := 0; i < count; i++ {
			entry := buf[fixed+6*i:]
			ev.Words = append(ev.Words,
				uint32(entry[0]), uint32(entry[1]),
				binary.LittleEndian.Uint32(entry[2:6]))
		}
		return ev, buf[total:], nil
	}
	return ev, buf[fixed:], nil
}

// decodeResponse consumes one server frame answering op. A nil event
// with nil error means the capture is truncated mid-response.
func decodeResponse(buf []byte, op byte) (*Event, []byte, error) {
	if len(buf) == 0 {
		return nil, nil, nil
	}
	status := buf[0]
	ev := &Event{Dir: FromProbe, Op: op, Status: status, Note: StatusName(status)}
	if status != StatusOK {
		return ev, buf[1:], nil
	}

	switch op {
	case CmdDPRead, CmdAPRead:
		if len(buf) < 5 {
			return nil, nil, nil
		}
		ev.Words = []uint32{binary.LittleEndian.Uint32(buf[1:5])}
		return ev, buf[5:], nil
	case CmdAPBulkRead:
		if len(buf) < 3 {
			return nil, nil, nil
		}
		count := int(binary.LittleEndian.Uint16(buf[1:3]))
		if count > MaxBulkWords {
			return nil, nil, fmt.Errorf("bulk read response claims %d words, max %d", count, MaxBulkWords)
		}
		total := 3 + 4*count
		if len(buf) < total {
			return nil, nil, nil
		}
		ev.Words = make([]uint32, count)
		for i := range ev.Words {
			ev.Words[i] = binary.LittleEndian.Uint32(buf[3+4*i:])
		}
		return ev, buf[total:], nil
	}
	return ev, buf[1:], nil
}

// FormatEvent renders one transcript event for display.
func FormatEvent(ev Event) string {
	switch {
	case ev.Handshake:
		return fmt.Sprintf("%s %s", ev.Dir, ev.Note)
	case ev.Dir == ToProbe:
		switch ev.Op {
		case CmdDPRead, CmdAPRead, CmdAPBulkRead:
			return fmt.Sprintf("%s %s reg 0x%02X", ev.Dir, CmdName(ev.Op), ev.Reg)
		case CmdDPWrite, CmdAPWrite:
			return fmt.Sprintf("%s %s reg 0x%02X = 0x%08X", ev.Dir, CmdName(ev.Op), ev.Reg, ev.Words[0])
		default:
			return fmt.Sprintf("%s %s", ev.Dir, ev.Note)
		}
	default:
		if len(ev.Words) == 1 {
			return fmt.Sprintf("%s %s [%s] 0x%08X", ev.Dir, CmdName(ev.Op), ev.Note, ev.Words[0])
		}
		if len(ev.Words) > 1 {
			return fmt.Sprintf("%s %s [%s] %d words", ev.Dir, CmdName(ev.Op), ev.Note, len(ev.Words))
		}
		return fmt.Sprintf("%s %s [%s]", ev.Dir, CmdName(ev.Op), ev.Note)
	}
}
