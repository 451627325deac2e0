// Package metrics holds lightweight atomic counters for the watchdog scans
// and MQTT traffic. It is adapted from the teacher engine's metrics
// package (lock-free counters incremented from concurrent goroutines and
// read back through a Snapshot), scaled down from "per-session request
// counts across a worker fleet" to the handful of bridge-wide totals an
// operator watching one panel needs.
package metrics

import "sync/atomic"

// Counters aggregates bridge-wide totals. All fields are accessed through
// atomic operations so the fast scan, the controller scan, and the MQTT
// command router can all record concurrently without a lock.
type Counters struct {
	fastScanOK        int64
	fastScanFailed    int64
	controllerScanOK  int64
	controllerFailed  int64
	publishedFields   int64
	publishFailed     int64
	commandsOK        int64
	commandsFailed    int64
}

// New returns a zeroed Counters.
func New() *Counters { return &Counters{} }

// IncFastScan records the outcome of one fast-scan tick.
func (c *Counters) IncFastScan(ok bool) { incBool(&c.fastScanOK, &c.fastScanFailed, ok) }

// IncControllerScan records the outcome of one controller-scan tick.
func (c *Counters) IncControllerScan(ok bool) { incBool(&c.controllerScanOK, &c.controllerFailed, ok) }

// IncPublish records the outcome of one MQTT field publish.
func (c *Counters) IncPublish(ok bool) { incBool(&c.publishedFields, &c.publishFailed, ok) }

// IncCommand records the outcome of one dispatched MQTT command.
func (c *Counters) IncCommand(ok bool) { incBool(&c.commandsOK, &c.commandsFailed, ok) }

func incBool(okCounter, failCounter *int64, ok bool) {
	if ok {
		atomic.AddInt64(okCounter, 1)
	} else {
		atomic.AddInt64(failCounter, 1)
	}
}

// Snapshot is a point-in-time copy of every counter, safe to log or expose
// without racing further increments.
type Snapshot struct {
	FastScanOK       int64
	FastScanFailed   int64
	ControllerScanOK int64
	ControllerFailed int64
	PublishedFields  int64
	PublishFailed    int64
	CommandsOK       int64
	CommandsFailed   int64
}

// Snapshot reads every counter atomically and returns a copy.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		FastScanOK:       atomic.LoadInt64(&c.fastScanOK),
		FastScanFailed:   atomic.LoadInt64(&c.fastScanFailed),
		ControllerScanOK: atomic.LoadInt64(&c.controllerScanOK),
		ControllerFailed: atomic.LoadInt64(&c.controllerFailed),
		PublishedFields:  atomic.LoadInt64(&c.publishedFields),
		PublishFailed:    atomic.LoadInt64(&c.publishFailed),
		CommandsOK:       atomic.LoadInt64(&c.commandsOK),
		CommandsFailed:   atomic.LoadInt64(&c.commandsFailed),
	}
}
