package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/stepguard/internal/logger"
)

// Method is how a verification code is delivered.
type Method string

const (
	MethodText  Method = "text"
	MethodEmail Method = "email"
)

// Methods lists the supported delivery methods in display order.
var Methods = []Method{MethodText, MethodEmail}

// ParseMethod validates a method name.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodText:
		return MethodText, nil
	case MethodEmail:
		return MethodEmail, nil
	default:
		return "", fmt.Errorf("unknown verification method: %q", s)
	}
}

// Label returns the user-facing name of the method.
func (m Method) Label() string {
	switch m {
	case MethodText:
		return "Text message"
	case MethodEmail:
		return "Email"
	default:
		return string(m)
	}
}

// SendRequest asks the service to deliver a fresh code.
type SendRequest struct {
	SessionID   string `json:"session_id"`
	Method      Method `json:"method"`
	Destination string `json:"destination,omitempty"`
}

// CheckRequest asks the service to evaluate an entered code.
type CheckRequest struct {
	SessionID string `json:"session_id"`
	Method    Method `json:"method"`
	Code      string `json:"code"`
}

// CodeService is the boundary to whatever delivers and checks codes.
type CodeService interface {
	SendCode(ctx context.Context, req SendRequest) error
	// CheckCode reports whether the code is accepted. A rejected code is
	// (false, nil); err is reserved for transport failures.
	CheckCode(ctx context.Context, req CheckRequest) (bool, error)
}

// AcceptAll is the simulated service: delivery always succeeds and every
// well-formed code is accepted.
type AcceptAll struct{}

func (AcceptAll) SendCode(_ context.Context, req SendRequest) error {
	logger.Debug("Simulated send of verification code via %s for session %s", req.Method, req.SessionID)
	return nil
}

func (AcceptAll) CheckCode(_ context.Context, req CheckRequest) (bool, error) {
	return true, nil
}
