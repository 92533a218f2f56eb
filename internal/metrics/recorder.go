// Package metrics exposes daemon counters and timings.
package metrics

import "time"

// Recorder defines observability hooks used across the daemon. Components
// receive a NoopRecorder when metrics are not configured.
type Recorder interface {
	ObservePollCycle(d time.Duration, outcome string) // outcome: ok|unavailable
	SetDevices(paired, reachable int)
	IncTransition(kind string)
	IncWatcherSignal(outcome string) // outcome: accepted|filtered|debounced
	IncWatcherResubscribe()
	IncIPCRequest(requestType string, ok bool)
	IncNotification(sender string, ok bool)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObservePollCycle(time.Duration, string) {}
func (NoopRecorder) SetDevices(int, int)                    {}
func (NoopRecorder) IncTransition(string)                   {}
func (NoopRecorder) IncWatcherSignal(string)                {}
func (NoopRecorder) IncWatcherResubscribe()                 {}
func (NoopRecorder) IncIPCRequest(string, bool)             {}
func (NoopRecorder) IncNotification(string, bool)           {}
