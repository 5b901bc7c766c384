package main

import (
	"fmt"
	"time"
)

// RouterID identifies a router participating in the protocol. Valid values
// are in [1, 64000].
type RouterID uint16

func (r RouterID) String() string {
	return fmt.Sprintf("%d", uint16(r))
}

// Metric is a RIP cost. Valid values are in [1, 16]; 16 is Infinity.
type Metric uint8

// Infinity is the sentinel metric meaning "unreachable".
const Infinity Metric = 16

func (m Metric) valid() bool {
	return m >= 1 && m <= Infinity
}

func validRouterID(id RouterID) bool {
	return id >= 1 && id <= 64000
}

// Route is one routing-table entry: the least-cost path this router
// currently believes leads to dest, plus the per-route timeout timer that
// ages it out when its advertising neighbor goes quiet.
type Route struct {
	// Src is this router's own id, the producer of the table view.
	Src RouterID

	// Dest is the advertised destination router.
	Dest RouterID

	// Via is the next-hop router id; always a configured neighbor.
	Via RouterID

	// Metric is the total cost to reach Dest via Via.
	Metric Metric

	// timer is the route's timeout timer. nil once the route has been
	// poisoned and handed to garbage collection.
	timer *time.Timer
}

func (r *Route) String() string {
	return fmt.Sprintf("{ \"src\": %d, \"dest\": %d, \"via\": %d, \"metric\": %d }",
		r.Src, r.Dest, r.Via, r.Metric)
}

func (r *Route) poisoned() bool {
	return r.Metric == Infinity
}

// gcKey identifies a route currently being garbage collected: a
// GarbageEntry is represented in the daemon's gc table iff a route with
// this (via, dest) is awaiting deletion.
type gcKey struct {
	Via  RouterID
	Dest RouterID
}

func (k gcKey) String() string {
	return fmt.Sprintf("via=%d dest=%d", k.Via, k.Dest)
}
