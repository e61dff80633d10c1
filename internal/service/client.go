package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/stepguard/internal/logger"
	snats "github.com/mark3labs/stepguard/internal/nats"
	"github.com/mark3labs/stepguard/internal/verify"
	"github.com/mark3labs/stepguard/internal/wizard"
	"github.com/nats-io/nats.go"
)

// Client talks to the backend over NATS request/reply.
type Client struct {
	nc      *nats.Conn
	timeout time.Duration
	log     *logger.Logger
}

var (
	_ wizard.Submitter   = (*Client)(nil)
	_ verify.CodeService = (*Client)(nil)
)

// NewClient creates a client whose requests time out after timeout unless
// the caller's context has an earlier deadline.
func NewClient(nc *nats.Conn, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{nc: nc, timeout: timeout, log: logger.Default.Named("client")}
}

// Submit implements wizard.Submitter.
func (c *Client) Submit(ctx context.Context, s wizard.Submission) (wizard.Receipt, error) {
	var reply submitReply
	if err := c.request(ctx, snats.SubjectForSubmit(s.FlowID), s, &reply); err != nil {
		return wizard.Receipt{}, err
	}
	if reply.Error != nil {
		return wizard.Receipt{}, reply.Error
	}
	if reply.Receipt == nil {
		return wizard.Receipt{}, errors.New("backend returned no receipt")
	}
	return *reply.Receipt, nil
}

// SendCode implements verify.CodeService.
func (c *Client) SendCode(ctx context.Context, req verify.SendRequest) error {
	var reply sendReply
	if err := c.request(ctx, snats.SubjectVerifySend, req, &reply); err != nil {
		return err
	}
	if reply.Error != "" {
		return errors.New(reply.Error)
	}
	return nil
}

// CheckCode implements verify.CodeService.
func (c *Client) CheckCode(ctx context.Context, req verify.CheckRequest) (bool, error) {
	var reply checkReply
	if err := c.request(ctx, snats.SubjectVerifyCheck, req, &reply); err != nil {
		return false, err
	}
	if reply.Error != "" {
		return false, errors.New(reply.Error)
	}
	return reply.Accepted, nil
}

func (c *Client) request(ctx context.Context, subject string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", subject, err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	msg, err := c.nc.RequestWithContext(ctx, subject, data)
	if err != nil {
		c.log.Warn("request on %s failed: %v", subject, err)
		return fmt.Errorf("request %s: %w", subject, err)
	}
	if err := json.Unmarshal(msg.Data, out); err != nil {
		return fmt.Errorf("decoding %s reply: %w", subject, err)
	}
	return nil
}
