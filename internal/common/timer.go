// Package common provides shared timing utilities.
package common

import (
	"fmt"
	"strings"
	"time"
)

// Timer measures a single named stage.
type Timer struct {
	start    time.Time
	name     string
	duration time.Duration
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// NewNamedTimer creates a new timer with the given name.
func NewNamedTimer(name string) *Timer {
	return &Timer{
		name:  name,
		start: time.Now(),
	}
}

// Stop stops the timer and returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	t.duration = time.Since(t.start)
	return t.duration
}

// Duration returns the recorded duration (only valid after Stop()).
func (t *Timer) Duration() time.Duration {
	return t.duration
}

// Name returns the timer name (empty string if unnamed).
func (t *Timer) Name() string {
	return t.name
}

// String returns a formatted string representation of the timer.
func (t *Timer) String() string {
	if t.name != "" {
		return fmt.Sprintf("%s: %v", t.name, t.duration)
	}
	return fmt.Sprintf("%v", t.duration)
}

// Stages accumulates the durations of named stages in first-seen order.
// The zero value is ready to use.
type Stages struct {
	order []string
	d     map[string]time.Duration
}

// Start begins timing the named stage; stop it with Stages.Stop.
func (s *Stages) Start(name string) *Timer {
	return NewNamedTimer(name)
}

// Stop stops t and adds its duration to the stage it was started for.
func (s *Stages) Stop(t *Timer) time.Duration {
	d := t.Stop()
	s.Add(t.Name(), d)
	return d
}

// Add records d against name.
func (s *Stages) Add(name string, d time.Duration) {
	if s.d == nil {
		s.d = make(map[string]time.Duration)
	}
	if _, ok := s.d[name]; !ok {
		s.order = append(s.order, name)
	}
	s.d[name] += d
}

// Get returns the accumulated duration of name.
func (s *Stages) Get(name string) time.Duration {
	return s.d[name]
}

// Names returns the recorded stage names in first-seen order.
func (s *Stages) Names() []string {
	return append([]string(nil), s.order...)
}

// Total sums all stages.
func (s *Stages) Total() time.Duration {
	var total time.Duration
	for _, d := range s.d {
		total += d
	}
	return total
}

// String renders the stages as "name=duration" pairs.
func (s *Stages) String() string {
	parts := make([]string, 0, len(s.order))
	for _, n := range s.order {
		parts = append(parts, fmt.Sprintf("%s=%v", n, s.d[n].Round(time.Microsecond)))
	}
	return strings.Join(parts, " ")
}
