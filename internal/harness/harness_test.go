package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"webharness/config"
	"webharness/internal/compose"
	"webharness/internal/docker"
	"webharness/internal/health"
)

// fakeCompose records lifecycle calls without touching docker.
type fakeCompose struct {
	upCalls    int
	downCalls  int
	logCalls   int
	psCalls    int
	upErr      error
	downErr    error
	logged     []string
	downCtxErr error
}

func (f *fakeCompose) Up(ctx context.Context) error {
	f.upCalls++
	return f.upErr
}

func (f *fakeCompose) Down(ctx context.Context) error {
	f.downCalls++
	f.downCtxErr = ctx.Err()
	return f.downErr
}

func (f *fakeCompose) Logs(ctx context.Context, services ...string) (string, error) {
	f.logCalls++
	f.logged = services
	return "web | Booting worker", nil
}

func (f *fakeCompose) Ps(ctx context.Context) ([]compose.ServiceState, error) {
	f.psCalls++
	return []compose.ServiceState{{Service: "web", State: "restarting"}}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastChecker() *health.Checker {
	return &health.Checker{Interval: 10 * time.Millisecond, Timeout: 100 * time.Millisecond, Logger: quietLogger()}
}

func TestStart_HealthyStack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	fake := &fakeCompose{}
	h := &Harness{Compose: fake, Checker: fastChecker(), PageURL: srv.URL, Logger: quietLogger()}

	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if fake.upCalls != 1 {
		t.Errorf("expected 1 up call, got %d", fake.upCalls)
	}
	if fake.downCalls != 0 {
		t.Errorf("expected no down call on healthy start, got %d", fake.downCalls)
	}

	if err := h.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if fake.downCalls != 1 {
		t.Errorf("expected 1 down call after Stop, got %d", fake.downCalls)
	}
}

func TestStart_UnhealthyStackTearsDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	fake := &fakeCompose{}
	h := &Harness{
		Compose:    fake,
		Checker:    fastChecker(),
		PageURL:    srv.URL,
		LogService: "web",
		Logger:     quietLogger(),
	}

	err := h.Start(context.Background())
	if !errors.Is(err, health.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if fake.logCalls != 1 {
		t.Errorf("expected log dump on failure, got %d calls", fake.logCalls)
	}
	if len(fake.logged) != 1 || fake.logged[0] != "web" {
		t.Errorf("expected logs for web service, got %v", fake.logged)
	}
	if fake.downCalls != 1 {
		t.Errorf("expected forced teardown, got %d down calls", fake.downCalls)
	}
	if fake.psCalls != 1 {
		t.Errorf("expected container state dump, got %d ps calls", fake.psCalls)
	}

	// Start already tore down; Stop must not tear down again.
	if err := h.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if fake.downCalls != 1 {
		t.Errorf("expected no second down call, got %d", fake.downCalls)
	}
}

func TestStart_CanceledDuringWaitStillTearsDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	fake := &fakeCompose{}
	h := &Harness{
		Compose: fake,
		Checker: &health.Checker{Interval: 10 * time.Millisecond, Timeout: 10 * time.Second, Logger: quietLogger()},
		PageURL: srv.URL,
		Logger:  quietLogger(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	err := h.Start(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
	if fake.downCalls != 1 {
		t.Fatalf("expected forced teardown after cancellation, got %d down calls", fake.downCalls)
	}
	// A compose down started with a dead context is killed before it can
	// remove anything, leaving containers behind.
	if fake.downCtxErr != nil {
		t.Errorf("teardown ran with a dead context: %v", fake.downCtxErr)
	}
}

// fakeLister records engine-level container queries.
type fakeLister struct {
	calls   int
	project string
}

func (f *fakeLister) ProjectContainers(ctx context.Context, project string) ([]docker.ContainerInfo, error) {
	f.calls++
	f.project = project
	return []docker.ContainerInfo{{Name: "template-test-web-1", Service: "web", State: "restarting", Status: "Restarting (1) 2 seconds ago"}}, nil
}

func TestStart_FailureDumpsEngineContainers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	fake := &fakeCompose{}
	lister := &fakeLister{}
	h := &Harness{
		Compose:     fake,
		Checker:     fastChecker(),
		PageURL:     srv.URL,
		Containers:  lister,
		ProjectName: "template-test",
		Logger:      quietLogger(),
	}

	if err := h.Start(context.Background()); err == nil {
		t.Fatal("expected health check failure")
	}
	if lister.calls != 1 {
		t.Errorf("expected engine container dump on failure, got %d calls", lister.calls)
	}
	if lister.project != "template-test" {
		t.Errorf("expected lookup by project name, got %q", lister.project)
	}
}

func TestNew_UniqueProjectName(t *testing.T) {
	cfg := &config.Config{
		Compose: config.ComposeConfig{
			File:        "docker-compose.yml",
			ProjectName: "template-test",
			UniqueName:  true,
		},
		Health:   config.HealthConfig{Timeout: time.Minute, Interval: time.Second},
		HostPort: "50080",
	}

	h := New(cfg)
	project, ok := h.Compose.(compose.Project)
	if !ok {
		t.Fatalf("expected compose.Project, got %T", h.Compose)
	}
	if !strings.HasPrefix(project.Name, "template-test-") {
		t.Errorf("expected suffixed project name, got %q", project.Name)
	}
	if project.Name == "template-test-" {
		t.Error("expected a non-empty suffix")
	}
	if h.ProjectName != project.Name {
		t.Errorf("expected harness to report the suffixed name, got %q", h.ProjectName)
	}
}

func TestStart_UpFailure(t *testing.T) {
	fake := &fakeCompose{upErr: fmt.Errorf("no such file docker-compose.yml")}
	h := &Harness{Compose: fake, Checker: fastChecker(), PageURL: "http://localhost:1/", Logger: quietLogger()}

	if err := h.Start(context.Background()); err == nil {
		t.Fatal("expected error when compose up fails")
	}
	if fake.downCalls != 0 {
		t.Errorf("expected no teardown when up never succeeded, got %d", fake.downCalls)
	}
}

func TestStart_PreflightFailure(t *testing.T) {
	fake := &fakeCompose{}
	h := &Harness{
		Compose: fake,
		Checker: fastChecker(),
		PageURL: "http://localhost:1/",
		Logger:  quietLogger(),
		Preflight: func(ctx context.Context) error {
			return fmt.Errorf("docker daemon is not responding")
		},
	}

	if err := h.Start(context.Background()); err == nil {
		t.Fatal("expected preflight error")
	}
	if fake.upCalls != 0 {
		t.Errorf("expected no up call after failed preflight, got %d", fake.upCalls)
	}
}

func TestRun_TearsDownOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	fake := &fakeCompose{}
	h := &Harness{Compose: fake, Checker: fastChecker(), PageURL: srv.URL, Logger: quietLogger()}

	wantErr := fmt.Errorf("test session failed")
	err := h.Run(context.Background(), func(ctx context.Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected session error, got %v", err)
	}
	if fake.downCalls != 1 {
		t.Errorf("expected teardown after failed session, got %d down calls", fake.downCalls)
	}
}

func TestRun_TearsDownOnPanic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	fake := &fakeCompose{}
	h := &Harness{Compose: fake, Checker: fastChecker(), PageURL: srv.URL, Logger: quietLogger()}

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic to propagate")
			}
		}()
		_ = h.Run(context.Background(), func(ctx context.Context) error {
			panic("boom")
		})
	}()

	if fake.downCalls != 1 {
		t.Errorf("expected teardown after panic, got %d down calls", fake.downCalls)
	}
}

func TestStop_WithoutStart(t *testing.T) {
	fake := &fakeCompose{}
	h := &Harness{Compose: fake, Logger: quietLogger()}

	if err := h.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if fake.downCalls != 0 {
		t.Errorf("expected no down call without start, got %d", fake.downCalls)
	}
}
