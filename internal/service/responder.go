// Package service is the mock backend behind the submit and verification
// boundaries. A Responder answers requests on an in-process NATS server; a
// Client implements wizard.Submitter and verify.CodeService on top of it.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/stepguard/internal/logger"
	"github.com/mark3labs/stepguard/internal/model"
	snats "github.com/mark3labs/stepguard/internal/nats"
	"github.com/mark3labs/stepguard/internal/verify"
	"github.com/mark3labs/stepguard/internal/wizard"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Record is one accepted submission as stored in the receipts stream.
type Record struct {
	Flow         string         `json:"flow"`
	SubmissionID string         `json:"submission_id"`
	Receipt      wizard.Receipt `json:"receipt"`
}

type submitReply struct {
	Receipt *wizard.Receipt  `json:"receipt,omitempty"`
	Error   *model.FlowError `json:"error,omitempty"`
}

type sendReply struct {
	Error string `json:"error,omitempty"`
}

type checkReply struct {
	Accepted bool   `json:"accepted"`
	Error    string `json:"error,omitempty"`
}

// ResponderOptions configures the mock backend.
type ResponderOptions struct {
	// RejectCode is the one verification code the backend rejects. Empty
	// accepts every well-formed code.
	RejectCode string
	// FailFlows maps a flow id to the error its submissions fail with.
	FailFlows map[string]string
	// JetStream records accepted submissions when set.
	JetStream jetstream.JetStream
}

// Responder answers submit and verification requests.
type Responder struct {
	nc   *nats.Conn
	opts ResponderOptions
	log  *logger.Logger

	mu   sync.Mutex
	subs []*nats.Subscription
	sent map[string]int // deliveries per open verification session
}

// NewResponder creates a responder on nc. Call Start to subscribe.
func NewResponder(nc *nats.Conn, opts ResponderOptions) *Responder {
	return &Responder{
		nc:   nc,
		opts: opts,
		log:  logger.Default.Named("backend"),
		sent: make(map[string]int),
	}
}

// Start subscribes to the submit and verification subjects.
func (r *Responder) Start() error {
	handlers := map[string]nats.MsgHandler{
		snats.SubjectAllSubmits:  r.handleSubmit,
		snats.SubjectVerifySend:  r.handleSend,
		snats.SubjectVerifyCheck: r.handleCheck,
	}
	for subject, h := range handlers {
		sub, err := r.nc.Subscribe(subject, h)
		if err != nil {
			r.Stop()
			return fmt.Errorf("subscribing to %s: %w", subject, err)
		}
		r.mu.Lock()
		r.subs = append(r.subs, sub)
		r.mu.Unlock()
	}
	if err := r.nc.Flush(); err != nil {
		r.Stop()
		return fmt.Errorf("flushing subscriptions: %w", err)
	}
	r.log.Debug("responder listening")
	return nil
}

// Stop unsubscribes. Safe to call more than once.
func (r *Responder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.subs {
		_ = sub.Unsubscribe()
	}
	r.subs = nil
}

// Sent returns how many codes were delivered for a session.
func (r *Responder) Sent(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[sessionID]
}

func (r *Responder) handleSubmit(msg *nats.Msg) {
	flow := strings.TrimPrefix(msg.Subject, "stepguard.submit.")

	var sub wizard.Submission
	if err := json.Unmarshal(msg.Data, &sub); err != nil {
		r.reply(msg, submitReply{Error: model.Errorf(model.ErrSubmitFailed, "malformed submission: %v", err)})
		return
	}
	if reason, ok := r.opts.FailFlows[flow]; ok {
		r.log.Warn("submission %s for %s rejected: %s", sub.ID, flow, reason)
		r.reply(msg, submitReply{Error: model.NewError(model.ErrSubmitFailed, reason)})
		return
	}

	receipt := wizard.Receipt{
		ID:          sub.ID,
		Reference:   reference(),
		SubmittedAt: time.Now().UTC(),
	}
	if err := r.record(Record{Flow: flow, SubmissionID: sub.ID, Receipt: receipt}); err != nil {
		r.log.Error("recording submission %s: %v", sub.ID, err)
		r.reply(msg, submitReply{Error: model.Errorf(model.ErrSubmitFailed, "could not record submission")})
		return
	}

	r.log.Info("accepted %s submission %s as %s", flow, sub.ID, receipt.Reference)
	r.reply(msg, submitReply{Receipt: &receipt})
}

func (r *Responder) record(rec Record) error {
	if r.opts.JetStream == nil {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = r.opts.JetStream.Publish(ctx, snats.SubjectForReceipt(rec.Flow), data)
	return err
}

func (r *Responder) handleSend(msg *nats.Msg) {
	var req verify.SendRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		r.reply(msg, sendReply{Error: fmt.Sprintf("malformed request: %v", err)})
		return
	}
	if _, err := verify.ParseMethod(string(req.Method)); err != nil {
		r.reply(msg, sendReply{Error: err.Error()})
		return
	}

	r.mu.Lock()
	r.sent[req.SessionID]++
	n := r.sent[req.SessionID]
	r.mu.Unlock()

	r.log.Debug("delivered code #%d via %s for session %s", n, req.Method, req.SessionID)
	r.reply(msg, sendReply{})
}

func (r *Responder) handleCheck(msg *nats.Msg) {
	var req verify.CheckRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		r.reply(msg, checkReply{Error: fmt.Sprintf("malformed request: %v", err)})
		return
	}

	r.mu.Lock()
	delivered := r.sent[req.SessionID] > 0
	accepted := delivered && verify.ValidCode(req.Code) && req.Code != r.opts.RejectCode
	if accepted {
		// An accepted session is finished; a later check must send again.
		delete(r.sent, req.SessionID)
	}
	r.mu.Unlock()

	r.log.Debug("code check for session %s: accepted=%t", req.SessionID, accepted)
	r.reply(msg, checkReply{Accepted: accepted})
}

func (r *Responder) reply(msg *nats.Msg, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		r.log.Error("encoding reply: %v", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		r.log.Error("sending reply on %s: %v", msg.Subject, err)
	}
}

// reference derives a short human-facing reference from a fresh uuid.
func reference() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "SG-" + strings.ToUpper(id[:8])
}
