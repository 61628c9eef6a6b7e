package clog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/proto"
)

type connectConfig struct {
	Filter func(spec connect.Spec) bool
}

type ConnectOption func(*connectConfig)

func WithConnectFilter(filter func(connect.Spec) bool) ConnectOption {
	return func(cfg *connectConfig) {
		cfg.Filter = filter
	}
}

// DefaultConnectHealthCheckFilter keeps health probes out of the log.
func DefaultConnectHealthCheckFilter(spec connect.Spec) bool {
	return spec.Procedure != "/grpc.health.v1.Health/Check"
}

type slogConnectInterceptor struct {
	cfg connectConfig
}

// NewSlogConnectInterceptor logs one line per connect call, unary or
// streaming, with the call's code and duration.
func NewSlogConnectInterceptor(opts ...ConnectOption) connect.Interceptor {
	cfg := connectConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &slogConnectInterceptor{cfg: cfg}
}

func (s *slogConnectInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		startTime := time.Now()
		ctx = ContextWithSlog(ctx)
		AddAttributes(ctx, map[string]any{
			"method":      req.HTTPMethod(),
			"procedure":   req.Spec().Procedure,
			"stream_type": req.Spec().StreamType.String(),
		})
		resp, err := next(ctx, req)
		s.finish(ctx, req.Spec(), startTime, err)
		return resp, err
	}
}

func (s *slogConnectInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (s *slogConnectInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		startTime := time.Now()
		ctx = ContextWithSlog(ctx)
		AddAttributes(ctx, map[string]any{
			"procedure":   conn.Spec().Procedure,
			"stream_type": conn.Spec().StreamType.String(),
		})
		slog.InfoContext(ctx, "Connected")
		err := next(ctx, conn)
		s.finish(ctx, conn.Spec(), startTime, err)
		return err
	}
}

func (s *slogConnectInterceptor) finish(ctx context.Context, spec connect.Spec, startTime time.Time, err error) {
	if s.cfg.Filter != nil && !s.cfg.Filter(spec) {
		return
	}
	if err == nil {
		AddAttributes(ctx, map[string]any{"code": "ok", "duration": time.Since(startTime)})
		slog.InfoContext(ctx, "Finished")
		return
	}
	var cerr *connect.Error
	if !errors.As(err, &cerr) {
		cerr = connect.NewError(connect.CodeUnknown, err)
	}
	AddAttributes(ctx, map[string]any{"code": cerr.Code().String(), "duration": time.Since(startTime)})
	if errDetails := cerr.Details(); len(errDetails) > 0 {
		details := make([]proto.Message, 0, len(errDetails))
		for _, detail := range errDetails {
			val, err := detail.Value()
			if err != nil {
				slog.ErrorContext(ctx, "failed to convert detail value", ErrorAttributeKey, err)
				continue
			}
			details = append(details, val)
		}
		AddAttribute(ctx, "err_details", details)
	}
	slog.Log(ctx, ConnectCodeToLevel(cerr.Code()).Slog(), cerr.Message())
}
