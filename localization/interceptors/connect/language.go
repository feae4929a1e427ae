package connect

import (
	"context"

	"connectrpc.com/connect"

	"github.com/pitabwire/telereso/localization"
)

// LanguageInterceptor implements connect.Interceptor for ensuring language is available in the context.
type LanguageInterceptor struct{}

var _ connect.Interceptor = (*LanguageInterceptor)(nil)

// NewLanguageInterceptor creates a language interceptor.
func NewLanguageInterceptor() *LanguageInterceptor {
	return &LanguageInterceptor{}
}

// WrapUnary reads Accept-Language from unary request headers.
func (l *LanguageInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			return next(ctx, req)
		}
		if lang := localization.ExtractLanguageFromHTTPHeader(req.Header()); len(lang) > 0 {
			ctx = localization.ToContext(ctx, lang)
		}

		return next(ctx, req)
	}
}

// WrapStreamingClient is a pass-through.
func (l *LanguageInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

// WrapStreamingHandler reads Accept-Language from the stream's request headers.
func (l *LanguageInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		if lang := localization.ExtractLanguageFromHTTPHeader(conn.RequestHeader()); len(lang) > 0 {
			ctx = localization.ToContext(ctx, lang)
		}

		return next(ctx, conn)
	}
}
