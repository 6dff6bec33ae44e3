package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"
	"tahaworld/config"
	"tahaworld/infras/otel"
	"tahaworld/shared/cache"
	"tahaworld/shared/constant"
	"tahaworld/shared/failure"
	"tahaworld/transport/http/response"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

const (
	otelHTTPScopeName = "http"
)

type AppMiddleware interface {
	Tracing(next http.Handler) http.Handler
	Recover(next http.Handler) http.Handler
	RateLimit() func(http.Handler) http.Handler
	AuthLimit() func(http.Handler) http.Handler
}

type appMiddleware struct {
	otel   otel.Otel
	config *config.Config
	cache  cache.RedisCache

	mu       sync.Mutex
	visitors map[string]*visitor
}

func NewAppMiddleware(otel otel.Otel, config *config.Config, cache cache.RedisCache) AppMiddleware {
	return &appMiddleware{
		otel:     otel,
		config:   config,
		cache:    cache,
		visitors: make(map[string]*visitor),
	}
}

func (a *appMiddleware) Tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		spanName := fmt.Sprintf("%s %s", request.Method, request.URL.Path)

		ctx, scope := a.otel.NewScope(request.Context(), otelHTTPScopeName, spanName)
		defer scope.End()

		ww := chiMiddleware.NewWrapResponseWriter(writer, request.ProtoMajor)

		next.ServeHTTP(ww, request.WithContext(ctx))

		scope.SetAttributes(map[string]any{
			"app.name":         a.config.App.Name,
			"http.path":        request.URL.Path,
			"http.route":       routePattern(request),
			"http.method":      request.Method,
			"http.user_agent":  a.getUA(request),
			"http.host":        request.Host,
			"http.source":      a.getClientIP(request),
			"http.request_id":  chiMiddleware.GetReqID(ctx),
			"http.status_code": ww.Status(),
		})

		if ww.Status() >= http.StatusInternalServerError {
			scope.TraceError(fmt.Errorf("http status %d", ww.Status()))
		}
	})
}

// Recover turns a panic into a plain 500 response and logs the stack.
func (a *appMiddleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			if rec == http.ErrAbortHandler { //nolint:errorlint
				panic(rec)
			}

			log.Error().
				Interface("panic", rec).
				Str("path", request.URL.Path).
				Str(constant.RequestHeaderRequestID, chiMiddleware.GetReqID(request.Context())).
				Bytes("stack", debug.Stack()).
				Msg("recovered from panic")

			response.WithError(writer, failure.InternalError(fmt.Errorf("panic: %v", rec)))
		}()

		next.ServeHTTP(writer, request)
	})
}
