// Package verify implements the send-code / countdown / verify-code sub-flow
// that parent flows embed in steps such as bank-account authentication and
// card activation. A Session knows nothing about the flow that opened it.
package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/stepguard/internal/logger"
	"github.com/mark3labs/stepguard/internal/model"
	"github.com/mark3labs/stepguard/internal/ticker"
)

// CodeLength is the number of digits in a verification code.
const CodeLength = 6

// DefaultCooldown is the wait before a code can be re-sent.
const DefaultCooldown = 45 * time.Second

// State is the position of a session in the sub-flow.
type State int

const (
	StateChoosingMethod State = iota
	StateCodeSent
	StateVerifying
	StateAccepted
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateChoosingMethod:
		return "choosing_method"
	case StateCodeSent:
		return "code_sent"
	case StateVerifying:
		return "verifying"
	case StateAccepted:
		return "accepted"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Options configures a Session.
type Options struct {
	Scheduler   ticker.Scheduler // Required; drives the countdown
	Service     CodeService      // Defaults to AcceptAll
	Cooldown    time.Duration    // Defaults to DefaultCooldown
	MaxAttempts int              // 0 means no limit
	// Destinations holds masked delivery targets per method for display,
	// e.g. "(•••) •••-4321".
	Destinations map[Method]string
}

// Session is one verification attempt. It is owned by a single dialog and
// must be closed when that dialog goes away.
type Session struct {
	id        string
	opts      Options
	state     State
	method    Method
	code      string
	remaining int
	attempted bool
	attempts  int
	lastErr   error
	task      ticker.Task
	log       *logger.Logger
}

// NewSession creates a session in StateChoosingMethod.
func NewSession(opts Options) *Session {
	if opts.Service == nil {
		opts.Service = AcceptAll{}
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	s := &Session{
		id:    uuid.NewString(),
		opts:  opts,
		state: StateChoosingMethod,
		log:   logger.Default.Named("verify"),
	}
	s.log.Debug("session %s opened", s.id)
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State { return s.state }

// Method returns the selected delivery method.
func (s *Session) Method() Method { return s.method }

// Destination returns the masked destination for the selected method.
func (s *Session) Destination() string { return s.opts.Destinations[s.method] }

// DestinationFor returns the masked destination offered for m.
func (s *Session) DestinationFor(m Method) string { return s.opts.Destinations[m] }

// Cooldown returns the wait between sends.
func (s *Session) Cooldown() time.Duration { return s.opts.Cooldown }

// Code returns the code entered so far.
func (s *Session) Code() string { return s.code }

// Remaining returns the seconds left before a resend is allowed.
func (s *Session) Remaining() int { return s.remaining }

// Attempted reports whether a code has been submitted in this session.
func (s *Session) Attempted() bool { return s.attempted }

// Attempts returns the number of rejected submissions since the last send.
func (s *Session) Attempts() int { return s.attempts }

// LastError returns the error of the most recent rejected submission.
func (s *Session) LastError() error { return s.lastErr }

// CountdownActive reports whether a countdown task is live.
func (s *Session) CountdownActive() bool {
	return s.task != nil && s.task.Active()
}

// SelectMethod chooses a delivery method. Only valid while choosing.
func (s *Session) SelectMethod(m Method) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.state != StateChoosingMethod {
		return model.Errorf(model.ErrMethodRequired, "method can only be changed via \"use a different method\"")
	}
	if _, err := ParseMethod(string(m)); err != nil {
		return model.NewError(model.ErrMethodRequired, err.Error())
	}
	s.method = m
	return nil
}

// CanSend reports whether the send action is enabled.
func (s *Session) CanSend() bool {
	return s.state == StateChoosingMethod && s.method != ""
}

// Send delivers a code with the selected method and starts the countdown.
func (s *Session) Send(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.state != StateChoosingMethod {
		return model.NewError(model.ErrResendUnavailable, "a code was already sent; use resend")
	}
	if s.method == "" {
		return model.NewError(model.ErrMethodRequired, "choose how to receive your code")
	}

	if err := s.deliver(ctx); err != nil {
		return err
	}
	s.state = StateCodeSent
	return nil
}

// SetCode records the code typed so far.
func (s *Session) SetCode(code string) {
	if s.state != StateCodeSent {
		return
	}
	s.code = code
}

// Exhausted reports whether the attempt limit has been reached.
func (s *Session) Exhausted() bool {
	return s.opts.MaxAttempts > 0 && s.attempts >= s.opts.MaxAttempts
}

// CanSubmit reports whether the submit action is enabled: a code was sent,
// the entry is exactly six digits and attempts remain.
func (s *Session) CanSubmit() bool {
	return s.state == StateCodeSent && ValidCode(s.code) && !s.Exhausted()
}

// BeginSubmit moves to StateVerifying and returns the request to evaluate.
// Hosts that check codes off their event loop call FinishSubmit with the
// result; Submit does both for synchronous callers.
func (s *Session) BeginSubmit() (CheckRequest, error) {
	if err := s.checkOpen(); err != nil {
		return CheckRequest{}, err
	}
	if s.state != StateCodeSent {
		return CheckRequest{}, model.NewInvalidCodeFormatError()
	}
	if s.Exhausted() {
		return CheckRequest{}, model.Errorf(model.ErrAttemptsExhausted,
			"too many incorrect codes; request a new code")
	}
	if !ValidCode(s.code) {
		return CheckRequest{}, model.NewInvalidCodeFormatError()
	}

	s.attempted = true
	s.state = StateVerifying
	s.log.Debug("session %s verifying code", s.id)
	return CheckRequest{SessionID: s.id, Method: s.method, Code: s.code}, nil
}

// FinishSubmit applies the result of a code check started by BeginSubmit.
func (s *Session) FinishSubmit(accepted bool, checkErr error) error {
	if s.state == StateClosed {
		return model.NewError(model.ErrSessionClosed, "verification session is closed")
	}
	if s.state != StateVerifying {
		return fmt.Errorf("no verification in progress (state %s)", s.state)
	}

	if checkErr != nil {
		s.state = StateCodeSent
		s.log.Warn("session %s code check failed: %v", s.id, checkErr)
		return fmt.Errorf("checking code: %w", checkErr)
	}

	if !accepted {
		s.attempts++
		s.code = ""
		s.state = StateCodeSent
		s.lastErr = model.NewInvalidCodeError(s.attempts)
		s.log.Info("session %s code rejected (attempt %d)", s.id, s.attempts)
		return s.lastErr
	}

	s.stopCountdown()
	s.state = StateAccepted
	s.lastErr = nil
	s.log.Info("session %s accepted", s.id)
	return nil
}

// Submit evaluates the entered code with the service.
func (s *Session) Submit(ctx context.Context) error {
	req, err := s.BeginSubmit()
	if err != nil {
		return err
	}
	ok, checkErr := s.opts.Service.CheckCode(ctx, req)
	return s.FinishSubmit(ok, checkErr)
}

// CanResend reports whether the resend action is enabled. It is only
// enabled once the countdown has reached zero.
func (s *Session) CanResend() bool {
	return s.state == StateCodeSent && s.remaining == 0
}

// Resend re-delivers a code and restarts the countdown.
func (s *Session) Resend(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if !s.CanResend() {
		return model.Errorf(model.ErrResendUnavailable,
			"resend available in %d seconds", s.remaining)
	}
	if err := s.deliver(ctx); err != nil {
		return err
	}
	s.code = ""
	s.attempts = 0
	s.lastErr = nil
	return nil
}

// UseDifferentMethod returns to method selection, discarding the entered
// code and cancelling the countdown.
func (s *Session) UseDifferentMethod() {
	if s.state == StateClosed || s.state == StateAccepted {
		return
	}
	s.stopCountdown()
	s.state = StateChoosingMethod
	s.method = ""
	s.code = ""
	s.remaining = 0
	s.attempts = 0
	s.lastErr = nil
}

// Close destroys the session and stops its countdown. Safe to call twice.
func (s *Session) Close() {
	if s.state == StateClosed {
		return
	}
	s.stopCountdown()
	s.state = StateClosed
	s.code = ""
	s.remaining = 0
	s.log.Debug("session %s closed", s.id)
}

// deliver sends a code and (re)starts the countdown. Any prior countdown is
// cancelled before the new one starts.
func (s *Session) deliver(ctx context.Context) error {
	req := SendRequest{SessionID: s.id, Method: s.method, Destination: s.Destination()}
	if err := s.opts.Service.SendCode(ctx, req); err != nil {
		s.log.Error("session %s send via %s failed: %v", s.id, s.method, err)
		return fmt.Errorf("sending code: %w", err)
	}

	s.stopCountdown()
	s.remaining = int(s.opts.Cooldown / time.Second)
	s.task = s.opts.Scheduler.Every(time.Second, s.tick)
	s.log.Debug("session %s code sent via %s, resend in %ds", s.id, s.method, s.remaining)
	return nil
}

func (s *Session) tick() {
	if s.state == StateClosed || s.remaining <= 0 {
		s.stopCountdown()
		return
	}
	s.remaining--
	if s.remaining == 0 {
		s.stopCountdown()
	}
}

func (s *Session) stopCountdown() {
	if s.task != nil {
		s.task.Cancel()
		s.task = nil
	}
}

func (s *Session) checkOpen() error {
	if s.state == StateClosed {
		return model.NewError(model.ErrSessionClosed, "verification session is closed")
	}
	return nil
}

// ValidCode reports whether code is exactly CodeLength ASCII digits.
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
