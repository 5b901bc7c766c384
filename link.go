package main

import (
	"fmt"
	"net"
)

// recvBufSize is the bounded datagram buffer used for every receive.
const recvBufSize = 1024

// NeighborLink owns the two UDP endpoints that connect this router to one
// configured neighbor: a receive endpoint bound to an input port, and a
// send endpoint that writes to the neighbor's input port.
type NeighborLink struct {
	InputPort  int
	OutputPort int
	LinkMetric Metric
	NeighborID RouterID

	self RouterID

	in  *net.UDPConn
	out *net.UDPConn
}

// NewNeighborLink binds the input endpoint on loopback and prepares the
// (unbound) output endpoint used only for sending to the neighbor.
func NewNeighborLink(self RouterID, inputPort int, o OutputLink) (*NeighborLink, error) {
	inAddr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: inputPort}
	in, err := net.ListenUDP("udp", inAddr)
	if err != nil {
		return nil, fmt.Errorf("bind input port %d: %w", inputPort, err)
	}

	outAddr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: o.Port}
	out, err := net.DialUDP("udp", nil, outAddr)
	if err != nil {
		in.Close()
		return nil, fmt.Errorf("dial output port %d: %w", o.Port, err)
	}

	return &NeighborLink{
		InputPort:  inputPort,
		OutputPort: o.Port,
		LinkMetric: o.Metric,
		NeighborID: o.Neighbor,
		self:       self,
		in:         in,
		out:        out,
	}, nil
}

// Close releases both sockets.
func (l *NeighborLink) Close() error {
	inErr := l.in.Close()
	outErr := l.out.Close()
	if inErr != nil {
		return inErr
	}
	return outErr
}

// inboundFrame is one decoded datagram, stamped with diagnostics about
// entries the decoder had to drop.
type inboundFrame struct {
	src     RouterID
	entries []Entry
	skipped int
}

// Receive blocks for a single datagram on the input endpoint and decodes
// it. A malformed frame (bad header or AFI) is reported via err; the
// caller is expected to log and continue, per the decoder's discard
// policy.
func (l *NeighborLink) Receive() (inboundFrame, error) {
	buf := make([]byte, recvBufSize)
	n, err := l.in.Read(buf)
	if err != nil {
		return inboundFrame{}, err
	}

	frame, skipped, err := DecodeFrame(buf[:n])
	if err != nil {
		return inboundFrame{}, err
	}

	return inboundFrame{src: frame.SendingRouterID, entries: frame.Entries, skipped: skipped}, nil
}

// Send serialises table (a snapshot of every route, in any order) into one
// or more Response datagrams and transmits them to the neighbor, applying
// split horizon with poisoned reverse and appending the direct-link entry
// to every chunk.
func (l *NeighborLink) Send(table []Route) error {
	chunks := chunkRoutes(table, maxEntriesPerFrame)
	if len(chunks) == 0 {
		chunks = [][]Route{nil}
	}

	for _, chunk := range chunks {
		frame := &Frame{SendingRouterID: l.self, Entries: splitHorizonEntries(chunk, l.NeighborID, l.LinkMetric)}
		data, err := frame.Encode()
		if err != nil {
			return err
		}
		if _, err := l.out.Write(data); err != nil {
			return err
		}
	}
	return nil
}

// splitHorizonEntries converts chunk into wire entries from neighborID's
// point of view: routes learned via neighborID are advertised back to it
// as unreachable (split horizon with poisoned reverse), except the route
// whose destination is neighborID itself, which keeps its table metric.
// A direct-link entry for neighborID with linkMetric is always appended last.
func splitHorizonEntries(chunk []Route, neighborID RouterID, linkMetric Metric) []Entry {
	entries := make([]Entry, 0, len(chunk)+1)
	for _, r := range chunk {
		metric := r.Metric
		if r.Via == neighborID && r.Dest != neighborID {
			metric = Infinity
		}
		entries = append(entries, Entry{Dest: r.Dest, NextHop: r.Via, Metric: metric})
	}

	entries = append(entries, Entry{Dest: neighborID, NextHop: neighborID, Metric: linkMetric})
	return entries
}

func chunkRoutes(routes []Route, size int) [][]Route {
	var chunks [][]Route
	for size < len(routes) {
		routes, chunks = routes[size:], append(chunks, routes[:size:size])
	}
	if len(routes) > 0 {
		chunks = append(chunks, routes)
	}
	return chunks
}
