package main

import (
	"encoding/binary"
	"fmt"
)

const (
	ripCommand = 2
	ripVersion = 2
	ripAFI     = 2

	headerSize = 4
	entrySize  = 20

	// maxEntriesPerFrame is the largest number of table entries (not
	// counting the appended direct-link entry) that fit in one frame.
	maxEntriesPerFrame = 25
)

// Entry is one decoded or to-be-encoded RIP response entry.
type Entry struct {
	Dest    RouterID
	NextHop RouterID
	Metric  Metric
}

func (e Entry) String() string {
	return fmt.Sprintf("AFI: %d    Dest: %d    Next hop: %d    Metric: %d", ripAFI, e.Dest, e.NextHop, e.Metric)
}

// Frame is a full RIP response message: a 4-byte header plus 1..26 entries
// of 20 bytes each.
type Frame struct {
	SendingRouterID RouterID
	Entries         []Entry
}

// DecodeError reports a whole-frame rejection: a malformed header, or an
// entry whose address-family identifier is invalid.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed frame: %s", e.Reason)
}

// Encode serialises f into its wire representation. It returns an error if
// f carries more than maxEntriesPerFrame+1 entries; callers are expected to
// chunk the table themselves (see NeighborLink.Send).
func (f *Frame) Encode() ([]byte, error) {
	if len(f.Entries) == 0 {
		return nil, fmt.Errorf("encode frame: no entries")
	}
	if len(f.Entries) > maxEntriesPerFrame+1 {
		return nil, fmt.Errorf("encode frame: %d entries exceeds per-datagram limit", len(f.Entries))
	}

	buf := make([]byte, headerSize+entrySize*len(f.Entries))
	buf[0] = ripCommand
	buf[1] = ripVersion
	binary.LittleEndian.PutUint16(buf[2:4], uint16(f.SendingRouterID))

	off := headerSize
	for _, e := range f.Entries {
		binary.LittleEndian.PutUint16(buf[off:off+2], uint16(ripAFI))
		// bytes 2-3 (must-be-zero) already zero
		binary.LittleEndian.PutUint16(buf[off+4:off+6], uint16(e.Dest))
		// bytes 6-11 (must-be-zero / subnet mask) already zero
		binary.LittleEndian.PutUint16(buf[off+12:off+14], uint16(e.NextHop))
		// bytes 14-15 already zero
		buf[off+16] = byte(e.Metric)
		off += entrySize
	}
	return buf, nil
}

// DecodeFrame parses data into a Frame. A malformed header (wrong command,
// wrong version, invalid sending router id) or an entry with an invalid
// address-family identifier causes the whole frame to be rejected. An
// individual entry with an otherwise-invalid field (bad destination id,
// bad next-hop id, metric out of range) is skipped rather than failing the
// whole frame; skipped is the count of such entries.
func DecodeFrame(data []byte) (frame *Frame, skipped int, err error) {
	if len(data) < headerSize+entrySize || (len(data)-headerSize)%entrySize != 0 {
		return nil, 0, &DecodeError{Reason: fmt.Sprintf("bad length %d", len(data))}
	}

	if data[0] != ripCommand {
		return nil, 0, &DecodeError{Reason: fmt.Sprintf("wrong command %d", data[0])}
	}
	if data[1] != ripVersion {
		return nil, 0, &DecodeError{Reason: fmt.Sprintf("wrong version %d", data[1])}
	}

	sendingID := RouterID(binary.LittleEndian.Uint16(data[2:4]))
	if !validRouterID(sendingID) {
		return nil, 0, &DecodeError{Reason: fmt.Sprintf("wrong sending router id %d", sendingID)}
	}

	f := &Frame{SendingRouterID: sendingID}

	entryCount := (len(data) - headerSize) / entrySize
	for i := 0; i < entryCount; i++ {
		off := headerSize + i*entrySize

		afi := binary.LittleEndian.Uint16(data[off : off+2])
		if afi != ripAFI {
			return nil, 0, &DecodeError{Reason: fmt.Sprintf("wrong AFI %d", afi)}
		}

		dest := RouterID(binary.LittleEndian.Uint16(data[off+4 : off+6]))
		nextHop := RouterID(binary.LittleEndian.Uint16(data[off+12 : off+14]))
		metric := Metric(data[off+16])

		if !validRouterID(dest) || !validRouterID(nextHop) || metric > Infinity || metric < 1 {
			skipped++
			continue
		}

		f.Entries = append(f.Entries, Entry{Dest: dest, NextHop: nextHop, Metric: metric})
	}

	return f, skipped, nil
}
