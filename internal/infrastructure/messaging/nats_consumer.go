package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"proofdrop-scorer/internal/domain/entity"
	"proofdrop-scorer/internal/infrastructure/blockchain"
	"proofdrop-scorer/internal/infrastructure/config"
	"proofdrop-scorer/internal/infrastructure/logger"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

var (
	ErrNotConnected   = errors.New("nats consumer not connected")
	ErrMissingAddress = errors.New("address is required")
	ErrBusy           = errors.New("scorer busy, retry later")
)

// ScoreJob is one decoded score request waiting for a worker
type ScoreJob struct {
	Request    entity.ScoreRequest
	ReplyTo    string
	ReceivedAt time.Time
}

// ErrorReply is the payload returned for requests that cannot be scored
type ErrorReply struct {
	Error string `json:"error"`
}

// NATSConsumer receives score requests over a core NATS queue subscription
type NATSConsumer struct {
	mu        sync.RWMutex
	conn      *nats.Conn
	sub       *nats.Subscription
	config    *config.NATSConfig
	logger    *logger.Logger
	jobs      chan ScoreJob
	isRunning bool
	closeOnce sync.Once
}

// NewNATSConsumer creates a new NATS consumer
func NewNATSConsumer(cfg *config.NATSConfig, logger *logger.Logger) *NATSConsumer {
	return &NATSConsumer{
		config: cfg,
		logger: logger.WithComponent("nats-consumer"),
		jobs:   make(chan ScoreJob, cfg.MaxPendingMessages),
	}
}

// RequestSubject returns the subject score requests arrive on
func (n *NATSConsumer) RequestSubject() string {
	return fmt.Sprintf("%s.requests", n.config.SubjectPrefix)
}

// ReportSubject returns the subject finished reports are broadcast on
func (n *NATSConsumer) ReportSubject() string {
	return fmt.Sprintf("%s.scored", n.config.SubjectPrefix)
}

// Connect connects to NATS server and subscribes to score requests
func (n *NATSConsumer) Connect(ctx context.Context) error {
	if !n.config.Enabled {
		n.logger.Info("NATS is disabled, skipping connection")
		return nil
	}

	n.logger.Info("Connecting to NATS server", zap.String("url", n.config.URL))

	opts := []nats.Option{
		nats.Name("proofdrop-scorer"),
		nats.Timeout(n.config.ConnectTimeout),
		nats.ReconnectWait(n.config.ReconnectDelay),
		nats.MaxReconnects(n.config.ReconnectAttempts),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			n.logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(n.config.URL, opts...)
	if err != nil {
		n.logger.Error("Failed to connect to NATS", zap.Error(err))
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	subject := n.RequestSubject()
	queueGroup := n.config.ConsumerGroup

	sub, err := conn.QueueSubscribe(subject, queueGroup, n.handleMessage)
	if err != nil {
		conn.Close()
		n.logger.Error("Failed to subscribe to subject", zap.Error(err))
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	n.mu.Lock()
	n.conn = conn
	n.sub = sub
	n.isRunning = true
	n.mu.Unlock()

	n.logger.Info("Subscribed to score requests",
		zap.String("subject", subject),
		zap.String("queue_group", queueGroup))

	return nil
}

// handleMessage decodes one request and hands it to the worker pool
func (n *NATSConsumer) handleMessage(msg *nats.Msg) {
	req, err := decodeScoreRequest(msg.Data)
	if err != nil {
		n.logger.Warn("Rejecting score request", zap.Error(err))
		n.respondError(msg.Reply, err)
		return
	}

	job := ScoreJob{
		Request:    req,
		ReplyTo:    msg.Reply,
		ReceivedAt: time.Now(),
	}

	// The read lock keeps Disconnect from closing the channel mid-send
	n.mu.RLock()
	running := n.isRunning
	queued := false
	if running {
		select {
		case n.jobs <- job:
			queued = true
		default:
		}
	}
	n.mu.RUnlock()

	switch {
	case !running:
		return
	case queued:
		n.logger.Debug("Queued score request", zap.String("address", req.Address))
	default:
		n.logger.Warn("Job channel is full, dropping request", zap.String("address", req.Address))
		n.respondError(msg.Reply, ErrBusy)
	}
}

// decodeScoreRequest parses the envelope and normalizes its address
func decodeScoreRequest(data []byte) (entity.ScoreRequest, error) {
	var req entity.ScoreRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return entity.ScoreRequest{}, fmt.Errorf("malformed score request: %w", err)
	}
	if req.Address == "" {
		return entity.ScoreRequest{}, ErrMissingAddress
	}

	address, err := blockchain.NormalizeAddress(req.Address)
	if err != nil {
		return entity.ScoreRequest{}, err
	}
	req.Address = address

	return req, nil
}

func (n *NATSConsumer) respondError(reply string, cause error) {
	if reply == "" {
		return
	}
	payload, err := json.Marshal(ErrorReply{Error: cause.Error()})
	if err != nil {
		return
	}
	if err := n.publish(reply, payload); err != nil {
		n.logger.Warn("Failed to send error reply", zap.Error(err))
	}
}

// Reply answers the requester of job, if it asked for a reply
func (n *NATSConsumer) Reply(job ScoreJob, payload []byte) error {
	if job.ReplyTo == "" {
		return nil
	}
	return n.publish(job.ReplyTo, payload)
}

// ReplyError answers the requester of job with an error payload
func (n *NATSConsumer) ReplyError(job ScoreJob, cause error) {
	n.respondError(job.ReplyTo, cause)
}

// PublishReport broadcasts a finished report for downstream consumers
func (n *NATSConsumer) PublishReport(report *entity.Report) ([]byte, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := n.publish(n.ReportSubject(), payload); err != nil {
		return payload, err
	}
	return payload, nil
}

func (n *NATSConsumer) publish(subject string, payload []byte) error {
	n.mu.RLock()
	conn := n.conn
	n.mu.RUnlock()

	if conn == nil {
		return ErrNotConnected
	}
	if err := conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Disconnect unsubscribes, closes the connection and then the job channel
func (n *NATSConsumer) Disconnect() error {
	n.mu.Lock()
	n.isRunning = false
	sub := n.sub
	conn := n.conn
	n.sub = nil
	n.conn = nil
	n.mu.Unlock()

	if sub != nil {
		if err := sub.Unsubscribe(); err != nil {
			n.logger.Warn("Failed to unsubscribe", zap.Error(err))
		}
	}
	if conn != nil {
		conn.Close()
	}

	n.closeOnce.Do(func() { close(n.jobs) })
	n.logger.Info("Disconnected from NATS")
	return nil
}

// IsConnected checks if connected to NATS
func (n *NATSConsumer) IsConnected() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.isRunning && n.conn != nil && n.conn.IsConnected()
}

// Jobs returns the channel of decoded score requests
func (n *NATSConsumer) Jobs() <-chan ScoreJob {
	return n.jobs
}
