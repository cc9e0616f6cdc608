// Package stubapp provides a minimal stand-in for the web application when
// developing the harness itself: it serves the same surface the readiness
// poller probes (200 on "/" once ready) without requiring the real stack.
package stubapp

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
)

// App is a tiny web app that becomes ready after a configurable delay.
// Before the delay elapses it answers 503, which is exactly what a Django
// container behind a warming proxy does during startup.
type App struct {
	echo    *echo.Echo
	started time.Time
	delay   time.Duration
	server  *http.Server
}

// New creates a stub app that reports ready after delay. Zero means
// ready immediately.
func New(delay time.Duration) *App {
	a := &App{
		echo:    echo.New(),
		started: time.Now(),
		delay:   delay,
	}

	a.echo.GET("/", a.index)
	a.echo.GET("/health", a.health)

	return a
}

func (a *App) ready() bool {
	return time.Since(a.started) >= a.delay
}

func (a *App) index(c *echo.Context) error {
	if !a.ready() {
		return c.String(http.StatusServiceUnavailable, "starting\n")
	}
	return c.HTML(http.StatusOK, "<!doctype html><html><body><h1>webharness stub</h1></body></html>\n")
}

func (a *App) health(c *echo.Context) error {
	status := http.StatusOK
	state := "healthy"
	if !a.ready() {
		status = http.StatusServiceUnavailable
		state = "starting"
	}
	return c.JSON(status, map[string]string{"status": state})
}

// ServeHTTP implements http.Handler so the app works with httptest.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.echo.ServeHTTP(w, r)
}

// Start serves on addr until Shutdown is called.
func (a *App) Start(addr string) error {
	a.server = &http.Server{Addr: addr, Handler: a}
	err := a.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops a running app.
func (a *App) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}
