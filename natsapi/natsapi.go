// Package natsapi exposes the content operation over NATS request/reply.
//
// Each request message carries the same JSON body the HTTP POST /content
// endpoint accepts, and the reply carries the same JSON response, with
// failures encoded as the standard error object. The facade is optional
// and runs only when a NATS URL is configured.
package natsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/c360studio/pagefetch/server"
)

// queueGroup lets multiple instances share a subject without answering
// the same request twice.
const queueGroup = "pagefetch"

// Service answers content requests arriving on a NATS subject. Requests
// run concurrently; retrievals can take tens of seconds and must not
// queue behind each other.
type Service struct {
	conn     *nats.Conn
	subject  string
	executor *server.ContentExecutor
	logger   *slog.Logger

	mu       sync.Mutex
	sub      *nats.Subscription
	baseCtx  context.Context
	stopping bool
	wg       sync.WaitGroup
}

// New creates a Service that answers on subject using executor. The
// connection is owned by the caller and is not closed on Stop.
func New(conn *nats.Conn, subject string, executor *server.ContentExecutor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		conn:     conn,
		subject:  subject,
		executor: executor,
		logger:   logger,
	}
}

// Start subscribes to the subject as part of the shared queue group. ctx
// becomes the base context for in-flight requests, so cancelling it
// aborts their fetches.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sub != nil {
		return fmt.Errorf("already subscribed to %s", s.subject)
	}
	s.baseCtx = ctx

	sub, err := s.conn.QueueSubscribe(s.subject, queueGroup, s.handle)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.subject, err)
	}
	s.sub = sub

	s.logger.Info("NATS facade listening", "subject", s.subject, "queue", queueGroup)
	return nil
}

// Stop drains the subscription and waits for in-flight requests to
// finish. Messages still queued when Stop begins get no reply; their
// requesters see a timeout and can retry against another instance.
func (s *Service) Stop() error {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.stopping = true
	s.mu.Unlock()

	if sub == nil {
		return nil
	}
	err := sub.Drain()
	s.wg.Wait()
	if err != nil {
		return fmt.Errorf("drain %s: %w", s.subject, err)
	}
	return nil
}

// handle dispatches one message to its own goroutine. The stopping check
// and wg.Add share the mutex with Stop, so no request can start once
// Stop has begun waiting.
func (s *Service) handle(msg *nats.Msg) {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	ctx := s.baseCtx
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		if msg.Reply == "" {
			s.logger.Warn("Dropping content request without reply subject", "subject", msg.Subject)
			return
		}
		if err := msg.Respond(Handle(ctx, s.executor, msg.Data)); err != nil {
			s.logger.Error("Failed to publish content reply", "subject", msg.Subject, "error", err)
		}
	}()
}

// Handle runs one wire-format content request and returns the
// wire-format reply. Malformed JSON and pipeline failures both come back
// as the standard error object, so every request gets an answer.
func Handle(ctx context.Context, executor *server.ContentExecutor, data []byte) []byte {
	var req server.ContentRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errorReply("invalid_json", "Failed to parse request: "+err.Error())
	}

	resp, apiErr := executor.Execute(ctx, req)
	if apiErr != nil {
		return errorReply(apiErr.Code, apiErr.Message)
	}

	out, err := json.Marshal(resp)
	if err != nil {
		return errorReply("internal_error", "Failed to encode reply")
	}
	return out
}

func errorReply(code, message string) []byte {
	out, err := json.Marshal(server.ErrorResponse{Error: code, Message: message})
	if err != nil {
		return []byte(`{"error":"internal_error","message":"failed to encode reply"}`)
	}
	return out
}
