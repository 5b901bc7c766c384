package main

import (
	"reflect"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	frame := &Frame{
		SendingRouterID: 5,
		Entries: []Entry{
			{Dest: 1, NextHop: 5, Metric: 3},
			{Dest: 2, NextHop: 5, Metric: Infinity},
		},
	}

	data, err := frame.Encode()
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if len(data) != headerSize+2*entrySize {
		t.Fatalf("len(data) = %d, want %d", len(data), headerSize+2*entrySize)
	}

	got, skipped, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame() error: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("skipped = %d, want 0", skipped)
	}
	if got.SendingRouterID != frame.SendingRouterID {
		t.Errorf("SendingRouterID = %d, want %d", got.SendingRouterID, frame.SendingRouterID)
	}
	if !reflect.DeepEqual(got.Entries, frame.Entries) {
		t.Errorf("Entries = %+v, want %+v", got.Entries, frame.Entries)
	}
}

func TestEncodeRejectsEmptyOrOversizedFrames(t *testing.T) {
	if _, err := (&Frame{SendingRouterID: 1}).Encode(); err == nil {
		t.Error("Encode() with no entries: error = nil, want error")
	}

	entries := make([]Entry, maxEntriesPerFrame+2)
	for i := range entries {
		entries[i] = Entry{Dest: 1, NextHop: 2, Metric: 1}
	}
	if _, err := (&Frame{SendingRouterID: 1, Entries: entries}).Encode(); err == nil {
		t.Error("Encode() over the per-datagram limit: error = nil, want error")
	}
}

func TestDecodeFrameRejectsMalformedHeader(t *testing.T) {
	valid, err := (&Frame{SendingRouterID: 1, Entries: []Entry{{Dest: 2, NextHop: 1, Metric: 1}}}).Encode()
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func([]byte) []byte
		wantErr bool
	}{
		{"too short", func(b []byte) []byte { return b[:headerSize+entrySize-1] }, true},
		{"misaligned length", func(b []byte) []byte { return append(b, 0) }, true},
		{"wrong command", func(b []byte) []byte { b[0] = 9; return b }, true},
		{"wrong version", func(b []byte) []byte { b[1] = 1; return b }, true},
		{"invalid sending router id", func(b []byte) []byte { b[2], b[3] = 0, 0; return b }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := append([]byte(nil), valid...)
			data = tt.mutate(data)

			_, _, err := DecodeFrame(data)
			if (err != nil) != tt.wantErr {
				t.Errorf("DecodeFrame() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeFrameRejectsWholeFrameOnBadAFI(t *testing.T) {
	data, err := (&Frame{SendingRouterID: 1, Entries: []Entry{
		{Dest: 2, NextHop: 1, Metric: 1},
		{Dest: 3, NextHop: 1, Metric: 1},
	}}).Encode()
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	// Corrupt the AFI field of the second entry.
	data[headerSize+entrySize] = 9

	if _, _, err := DecodeFrame(data); err == nil {
		t.Error("DecodeFrame() with bad AFI: error = nil, want error")
	}
}

func TestDecodeFrameSkipsInvalidEntriesIndividually(t *testing.T) {
	data, err := (&Frame{SendingRouterID: 1, Entries: []Entry{
		{Dest: 2, NextHop: 1, Metric: 1},
		{Dest: 3, NextHop: 1, Metric: 1},
	}}).Encode()
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	// Corrupt the metric of the second entry to an out-of-range value.
	data[headerSize+entrySize+16] = 17

	frame, skipped, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame() error: %v", err)
	}
	if skipped != 1 {
		t.Fatalf("skipped = %d, want 1", skipped)
	}
	if len(frame.Entries) != 1 || frame.Entries[0].Dest != 2 {
		t.Errorf("Entries = %+v, want only the valid first entry", frame.Entries)
	}
}
