package messaging

import (
	"time"

	"github.com/boristopalov/automata/pkg/core"
)

// EventType names what happened in a run
type EventType string

const (
	TrialCompleted EventType = "trial.completed"
	SweepCompleted EventType = "sweep.completed"
	RunCompleted   EventType = "run.completed"
)

// Event reports progress of an experiment run to subscribers
type Event struct {
	Type      EventType
	RunID     string
	StepIndex int
	StepSize  float64
	Trial     int // trial index, only set for TrialCompleted
	Result    *core.TrialResult
	Summary   *core.ExperimentResult // set for SweepCompleted
	Timestamp time.Time
}

// Broker routes events from a run to its subscribers
type Broker interface {
	// Publish delivers an event to every subscriber
	Publish(ev Event) error
	// Subscribe registers a channel to receive events
	Subscribe(id string, ch chan<- Event) error
	// Unsubscribe removes a subscription
	Unsubscribe(id string) error
}
