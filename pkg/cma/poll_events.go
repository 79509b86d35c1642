package cma

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/cma/internal/constants"
)

// PollState is a state of a single PollUntilTerminal call.
type PollState string

const (
	PollStateWaitingInitial PollState = "waiting_initial"
	PollStateChecking       PollState = "checking"
	PollStateWaitingRetry   PollState = "waiting_retry"
	PollStateSucceeded      PollState = "succeeded"
	PollStateFailed         PollState = "failed"
	PollStateTimedOut       PollState = "timed_out"
)

// Terminal reports whether the call ends in this state.
func (s PollState) Terminal() bool {
	return s == PollStateSucceeded || s == PollStateFailed || s == PollStateTimedOut
}

// PollEvent describes one state transition of a poll call.
type PollEvent struct {
	PollID  string    `json:"poll_id"`
	State   PollState `json:"state"`
	Attempt int       `json:"attempt"`
	JobKind string    `json:"job_kind,omitempty"`
	JobID   string    `json:"job_id,omitempty"`
	Status  string    `json:"status,omitempty"`
	Time    time.Time `json:"time"`
	Err     error     `json:"-"`
}

// MarshalJSON adds the error message to the encoded event.
func (e PollEvent) MarshalJSON() ([]byte, error) {
	type alias PollEvent

	out := struct {
		alias

		Error string `json:"error,omitempty"`
	}{alias: alias(e)}

	if e.Err != nil {
		out.Error = e.Err.Error()
	}

	return json.Marshal(out)
}

// PollObserver receives state transitions. Calls happen on the polling
// goroutine and must not block for long.
type PollObserver interface {
	OnPollEvent(ctx context.Context, event PollEvent)
}

// PollObserverFunc adapts a function to PollObserver.
type PollObserverFunc func(ctx context.Context, event PollEvent)

// OnPollEvent implements PollObserver.
func (f PollObserverFunc) OnPollEvent(ctx context.Context, event PollEvent) {
	f(ctx, event)
}

// Publisher is the subset of *nats.Conn used by NATSObserver.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSConfig configures the NATS connection of NATSObserver.
type NATSConfig struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222").
	URL string
	// SubjectPrefix prefixes every subject. Defaults to "cma.jobs".
	SubjectPrefix string
	// Name is the connection name reported to the server.
	Name string
}

// NATSObserver publishes terminal poll events as JSON to
// "<prefix>.<job kind>.<state>", e.g. "cma.jobs.BulkAction.succeeded".
// Intermediate states are not published.
type NATSObserver struct {
	publisher Publisher
	prefix    string
	logger    Logger

	mu   sync.Mutex
	conn *nats.Conn
}

// NewNATSObserver creates an observer over an existing publisher.
func NewNATSObserver(publisher Publisher, subjectPrefix string, logger Logger) *NATSObserver {
	if subjectPrefix == "" {
		subjectPrefix = constants.DefaultEventSubjectPrefix
	}

	if logger == nil {
		logger = NoopLogger{}
	}

	return &NATSObserver{
		publisher: publisher,
		prefix:    strings.TrimSuffix(subjectPrefix, "."),
		logger:    logger,
	}
}

// ConnectNATSObserver dials NATS and returns an observer owning the
// connection. Close drains it.
func ConnectNATSObserver(config *NATSConfig, logger Logger) (*NATSObserver, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(constants.NATSReconnectWait),
		nats.Timeout(constants.NATSConnectTimeout),
	}

	if config.Name != "" {
		opts = append(opts, nats.Name(config.Name))
	}

	conn, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	observer := NewNATSObserver(conn, config.SubjectPrefix, logger)
	observer.conn = conn

	return observer, nil
}

// Subject returns the subject an event is published to.
func (o *NATSObserver) Subject(event PollEvent) string {
	kind := event.JobKind
	if kind == "" {
		kind = "job"
	}

	return fmt.Sprintf("%s.%s.%s", o.prefix, kind, event.State)
}

// OnPollEvent implements PollObserver. Publish failures are logged and
// never affect the poll outcome.
func (o *NATSObserver) OnPollEvent(_ context.Context, event PollEvent) {
	if !event.State.Terminal() {
		return
	}

	subject := o.Subject(event)

	data, err := json.Marshal(event)
	if err != nil {
		o.logger.Error("Encoding poll event failed", map[string]interface{}{"error": err.Error()})

		return
	}

	err = o.publisher.Publish(subject, data)
	if err != nil {
		o.logger.Warn("Publishing poll event failed", map[string]interface{}{
			"subject": subject,
			"error":   err.Error(),
		})
	}
}

// Close drains the connection if the observer owns one.
func (o *NATSObserver) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.conn == nil {
		return nil
	}

	err := o.conn.Drain()
	o.conn = nil

	if err != nil {
		return fmt.Errorf("draining NATS connection: %w", err)
	}

	return nil
}
