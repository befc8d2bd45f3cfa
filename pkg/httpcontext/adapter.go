// Package httpcontext bridges fasthttp requests to stdlib contexts carrying
// a per-request deadline and identifier.
package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/tasknest/backend/pkg/logger"
)

// Key identifies request metadata stored on the derived context.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
)

// Adapter derives a deadline-bound context.Context from a fasthttp request.
type Adapter struct {
	timeout time.Duration
}

func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{timeout: timeout}
}

// Attach returns a context carrying the request ID, remote address, and user
// agent. The request ID is echoed back on the response so clients can
// correlate logs. Callers must invoke the cancel function.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	id := requestID(ctx)
	stdCtx = logger.ContextWithRequestID(stdCtx, id)
	ctx.Response.Header.Set("X-Request-ID", id)

	if addr := ctx.RemoteAddr(); addr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, addr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}

	return stdCtx, cancel
}

// requestID honors a client-supplied X-Request-ID and mints one otherwise.
func requestID(ctx *fasthttp.RequestCtx) string {
	if ctx != nil {
		if id := strings.TrimSpace(string(ctx.Request.Header.Peek("X-Request-ID"))); id != "" {
			return id
		}
	}
	return uuid.NewString()
}
