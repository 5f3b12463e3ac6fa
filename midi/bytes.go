package midi

import (
	"encoding/binary"
	"fmt"
	"math"

	gomidi "gitlab.com/gomidi/midi/v2"

	"pipelined.dev/render/fault"
)

// MarshalEvents encodes events as a sequence of big-endian 4-byte
// timestamp, 2-byte size and message data.
func MarshalEvents(events []Event) ([]byte, error) {
	var data []byte
	for _, e := range events {
		if e.Timestamp > math.MaxInt32 || e.Timestamp < math.MinInt32 {
			return nil, fmt.Errorf("timestamp %d overflows: %w", e.Timestamp, fault.ErrInvalidArgument)
		}
		if len(e.Message) > math.MaxUint16 {
			return nil, fmt.Errorf("message size %d overflows: %w", len(e.Message), fault.ErrInvalidArgument)
		}
		data = binary.BigEndian.AppendUint32(data, uint32(int32(e.Timestamp)))
		data = binary.BigEndian.AppendUint16(data, uint16(len(e.Message)))
		data = append(data, e.Message...)
	}
	return data, nil
}

// UnmarshalEvents decodes events encoded with MarshalEvents.
func UnmarshalEvents(data []byte) ([]Event, error) {
	var events []Event
	for len(data) > 0 {
		if len(data) < 6 {
			return nil, fmt.Errorf("truncated event header: %w", fault.ErrInvalidArgument)
		}
		timestamp := int32(binary.BigEndian.Uint32(data))
		size := int(binary.BigEndian.Uint16(data[4:]))
		data = data[6:]
		if len(data) < size {
			return nil, fmt.Errorf("truncated event data: %w", fault.ErrInvalidArgument)
		}
		events = append(events, Event{
			Message:   append(gomidi.Message(nil), data[:size]...),
			Timestamp: int64(timestamp),
		})
		data = data[size:]
	}
	return events, nil
}
