package cerr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime"

	"buf.build/gen/go/bufbuild/protovalidate/protocolbuffers/go/buf/validate"
	"connectrpc.com/connect"
	"google.golang.org/protobuf/proto"

	"github.com/kev1903/skrobakios/pkg/clog"
)

type Error struct {
	Code    Code
	Msg     string          // returned to the caller together with Code
	Err     error           // logged, never returned
	Stack   string          // captured for error-level codes
	Details []proto.Message // returned to the caller
}

func NewError(code Code, msg string, underlying error) *Error {
	err := &Error{
		Code: code,
		Msg:  msg,
		Err:  underlying,
	}
	if clog.ConnectCodeToLevel(code.ConnectCode()) == clog.LevelError {
		stackTrace := make([]byte, 2048)
		n := runtime.Stack(stackTrace, false)
		err.Stack = string(stackTrace[0:n])
	}
	return err
}

func NewErrorWithDetails(code Code, msg string, underlying error, details []proto.Message) *Error {
	err := NewError(code, msg, underlying)
	err.Details = details
	return err
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Msg, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) AddDetailMessage(msg string) *Error {
	e.Details = append(e.Details, &validate.Violation{Message: &msg})
	return e
}

// AddViolation attaches a rule violation. ruleID names the rule, field the
// input it concerns (may be empty).
func (e *Error) AddViolation(ruleID, field, msg string) *Error {
	v := &validate.Violation{
		RuleId:  &ruleID,
		Message: &msg,
	}
	if field != "" {
		v.Field = &validate.FieldPath{
			Elements: []*validate.FieldPathElement{{FieldName: &field}},
		}
	}
	e.Details = append(e.Details, v)
	return e
}

// Violations returns the violation details attached to e.
func (e *Error) Violations() []*validate.Violation {
	var out []*validate.Violation
	for _, d := range e.Details {
		if v, ok := d.(*validate.Violation); ok {
			out = append(out, v)
		}
	}
	return out
}

func (e *Error) ConnectError() *connect.Error {
	connectErr := connect.NewError(e.Code.ConnectCode(), errors.New(e.Msg))
	for _, detailMsg := range e.Details {
		detail, err := connect.NewErrorDetail(detailMsg)
		if err != nil {
			continue
		}
		connectErr.AddDetail(detail)
	}
	return connectErr
}

// normalize turns any error into an *Error, recording it on the request log
// context. Client disconnects become Canceled.
func normalize(ctx context.Context, err error) *Error {
	if errors.Is(err, context.Canceled) {
		return NewError(Canceled, "connection closed", err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.Err == "operation was canceled" {
		return NewError(Canceled, "connection closed", err)
	}

	clog.AddError(ctx, err)
	var cErr *Error
	if errors.As(err, &cErr) {
		if cErr.Stack != "" {
			clog.AddStack(ctx, cErr.Stack)
		}
		return cErr
	}
	return NewError(Unknown, "unknown error", err)
}

func ExtractConnectError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return normalize(ctx, err).ConnectError()
}

func IsCode(err error, code Code) bool {
	var cErr *Error
	if errors.As(err, &cErr) {
		return cErr.Code == code
	}
	return false
}
