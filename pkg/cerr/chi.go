package cerr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kev1903/skrobakios/pkg/clog"
)

type responseReceiverKey struct{}

type responseReceiver struct {
	status   int
	response any
	err      error
}

func contextWithResponseReceiver(ctx context.Context, rr *responseReceiver) context.Context {
	return context.WithValue(ctx, responseReceiverKey{}, rr)
}

func responseReceiverFromContext(ctx context.Context) *responseReceiver {
	if rr, ok := ctx.Value(responseReceiverKey{}).(*responseReceiver); ok {
		return rr
	}
	return nil
}

func SetJSONResponse(ctx context.Context, response any) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.response = response
	}
}

// SetJSONResponseStatus is SetJSONResponse with a status other than 200.
func SetJSONResponseStatus(ctx context.Context, status int, response any) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.status = status
		rr.response = response
	}
}

func SetJSONError(ctx context.Context, err error) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.err = err
	}
}

func SetNewJSONError(ctx context.Context, code Code, msg string, err error) {
	SetJSONError(ctx, NewError(code, msg, err))
}

// NewJSONResponseChiMiddleware lets handlers report their result through
// SetJSONResponse / SetJSONError and writes it once the handler returns.
// Handlers that write to the ResponseWriter themselves (streams) must not
// set either.
func NewJSONResponseChiMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rr := &responseReceiver{}
			ctx := contextWithResponseReceiver(r.Context(), rr)
			next.ServeHTTP(rw, r.WithContext(ctx))
			writeResponse(ctx, rw, rr)
		})
	}
}

type httpErrorDetail struct {
	Rule    string `json:"rule,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type httpError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details []httpErrorDetail `json:"details,omitempty"`
}

func writeResponse(ctx context.Context, rw http.ResponseWriter, rr *responseReceiver) {
	switch {
	case rr.err != nil:
		writeJSONError(ctx, rw, normalize(ctx, rr.err))
	case rr.response != nil:
		status := rr.status
		if status == 0 {
			status = http.StatusOK
		}
		writeJSON(ctx, rw, status, rr.response)
	}
}

func encode(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(ctx context.Context, rw http.ResponseWriter, status int, response any) {
	body, err := encode(response)
	if err != nil {
		writeJSONError(ctx, rw, NewError(Internal, "server error", err))
		return
	}
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(status)
	if _, err := rw.Write(body); err != nil {
		clog.AddError(ctx, NewError(Internal, "server error", err))
	}
}

func writeJSONError(ctx context.Context, rw http.ResponseWriter, origErr *Error) {
	resp := httpError{Code: origErr.Code.String(), Message: origErr.Msg}
	for _, v := range origErr.Violations() {
		d := httpErrorDetail{Rule: v.GetRuleId(), Message: v.GetMessage()}
		if els := v.GetField().GetElements(); len(els) > 0 {
			d.Field = els[0].GetFieldName()
		}
		resp.Details = append(resp.Details, d)
	}
	body, err := encode(resp)
	if err != nil {
		body = []byte(`{"code":"internal","message":"server error"}`)
		origErr.Err = errors.Join(origErr.Err, err)
		clog.AddError(ctx, origErr)
	}
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(origErr.Code.HTTPCode())
	if _, err := rw.Write(body); err != nil {
		origErr.Err = errors.Join(origErr.Err, err)
		clog.AddError(ctx, origErr)
	}
}
