// Package events publishes verification completion events over NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/farhan-ahmed1/seedcheck/internal/logger"
	"github.com/farhan-ahmed1/seedcheck/internal/task"
)

// Completion describes a finished verification. It carries no seed material.
type Completion struct {
	TaskID      string         `json:"task_id"`
	Success     bool           `json:"success"`
	Kind        task.ErrorKind `json:"kind,omitempty"`
	Error       string         `json:"error,omitempty"`
	Duration    time.Duration  `json:"duration"`
	CompletedAt time.Time      `json:"completed_at"`
}

// FromResult builds a Completion from a result
func FromResult(r *task.Result) Completion {
	return Completion{
		TaskID:      r.TaskID,
		Success:     r.OK(),
		Kind:        r.Kind,
		Error:       r.Error,
		Duration:    r.Duration,
		CompletedAt: r.CompletedAt,
	}
}

// Publisher delivers completion events
type Publisher interface {
	Publish(ctx context.Context, c Completion) error
	Close() error
}

// CompletedSubject returns the subject completions are published on
func CompletedSubject(prefix string) string {
	return prefix + ".completed"
}

// Conn is the subset of *nats.Conn the publisher needs
type Conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes completions as JSON
type NATSPublisher struct {
	conn    Conn
	subject string
}

// NewNATSPublisher wraps an existing connection
func NewNATSPublisher(conn Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{
		conn:    conn,
		subject: CompletedSubject(prefix),
	}
}

// DialNATS connects to url and returns a publisher owning the connection
func DialNATS(url, prefix string, log *logger.Logger) (*NATSPublisher, error) {
	if log == nil {
		log = logger.Discard()
	}
	log = log.WithComponent("events")

	nc, err := nats.Connect(
		url,
		nats.Name("seedcheck"),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("nats disconnected", logger.Fields{"error": err})
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", logger.Fields{"url": nc.ConnectedUrl()})
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Debug("nats connection closed")
		}),
		nats.PingInterval(20*time.Second),
		nats.MaxPingsOutstanding(5),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	return NewNATSPublisher(nc, prefix), nil
}

// Subject returns the subject this publisher writes to
func (p *NATSPublisher) Subject() string {
	return p.subject
}

// Publish sends c and waits for the server to acknowledge the flush
func (p *NATSPublisher) Publish(ctx context.Context, c Completion) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal completion: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish completion: %w", err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush completion: %w", err)
	}
	return nil
}

// Close closes the underlying connection
func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}
