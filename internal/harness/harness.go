// Package harness orchestrates the application stack lifecycle around a
// test session: start the compose stack, wait for it to answer healthy,
// hand control to the tests, and tear everything down on every exit path.
package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"webharness/config"
	"webharness/internal/compose"
	"webharness/internal/docker"
	"webharness/internal/health"
)

// Composer is the compose surface the harness drives. *compose.Project
// implements it; tests substitute a fake.
type Composer interface {
	Up(ctx context.Context) error
	Down(ctx context.Context) error
	Logs(ctx context.Context, services ...string) (string, error)
	Ps(ctx context.Context) ([]compose.ServiceState, error)
}

// ContainerLister reports the engine-level view of a compose project's
// containers. *docker.Client implements it; tests substitute a fake.
type ContainerLister interface {
	ProjectContainers(ctx context.Context, project string) ([]docker.ContainerInfo, error)
}

// Harness manages one end-to-end test session.
type Harness struct {
	// Compose drives the stack lifecycle. Required.
	Compose Composer

	// Checker polls PageURL for readiness. Nil means defaults.
	Checker *health.Checker

	// PageURL is the URL that must answer 200 before tests run.
	PageURL string

	// LogService is the service whose logs are dumped when the stack
	// fails to become healthy. Empty dumps all services.
	LogService string

	// Containers supplies the engine's view of the project containers
	// for the failure-state dump. Nil skips that part of the dump.
	Containers ContainerLister

	// ProjectName is the compose project the containers belong to.
	ProjectName string

	// Preflight runs before anything is started. Nil skips it; the
	// default harness verifies the Docker daemon is reachable.
	Preflight func(ctx context.Context) error

	// Logger for lifecycle events. Nil means slog.Default().
	Logger *slog.Logger

	started bool
}

// New builds a harness from configuration. The compose file is consulted
// for the service to dump logs from; a missing or unparsable file falls
// back to dumping everything.
func New(cfg *config.Config) *Harness {
	project := compose.Project{
		File:    cfg.Compose.File,
		Name:    cfg.Compose.ProjectName,
		EnvFile: cfg.Compose.EnvFile,
		Sudo:    cfg.Compose.Sudo,
		Output:  os.Stderr,
	}
	if cfg.Compose.UniqueName {
		project = project.WithUniqueName()
	}

	logService := ""
	if f, err := compose.ParseFile(cfg.Compose.File); err == nil {
		logService = f.WebService()
	}

	return &Harness{
		Compose: project,
		Checker: &health.Checker{
			Interval: cfg.Health.Interval,
			Timeout:  cfg.Health.Timeout,
		},
		PageURL:     cfg.PageURL(),
		LogService:  logService,
		Containers:  engineLister{},
		ProjectName: project.Name,
		Preflight:   dockerPreflight,
	}
}

// engineLister dials the daemon per call so harness construction never
// fails just because docker is down; preflight reports that case.
type engineLister struct{}

func (engineLister) ProjectContainers(ctx context.Context, project string) ([]docker.ContainerInfo, error) {
	cli, err := docker.NewClient()
	if err != nil {
		return nil, err
	}
	defer cli.Close()
	return cli.ProjectContainers(ctx, project)
}

// dockerPreflight verifies the daemon answers before any compose command
// is attempted, turning a confusing compose failure into a clear error.
func dockerPreflight(ctx context.Context) error {
	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer cli.Close()
	return cli.Ping(ctx)
}

func (h *Harness) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Start brings the stack up and waits for it to become healthy. If the
// health check fails, service logs are dumped and the stack is torn down
// before the error is returned, so no containers linger.
func (h *Harness) Start(ctx context.Context) error {
	log := h.logger()

	if h.Preflight != nil {
		if err := h.Preflight(ctx); err != nil {
			return fmt.Errorf("preflight failed: %w", err)
		}
	}

	log.Info("starting e2e services")
	if err := h.Compose.Up(ctx); err != nil {
		return fmt.Errorf("failed to start services: %w", err)
	}
	h.started = true

	checker := h.Checker
	if checker == nil {
		checker = &health.Checker{}
	}
	if err := checker.Wait(ctx, h.PageURL); err != nil {
		// The wait may have ended because the caller was canceled
		// (SIGINT); teardown still has to run with a live context or
		// its compose invocation is killed before doing anything.
		cleanupCtx := context.WithoutCancel(ctx)
		h.dumpState(cleanupCtx)
		log.Info("stopping e2e services after failed health check")
		if downErr := h.Compose.Down(cleanupCtx); downErr != nil {
			log.Error("teardown after failed health check also failed", "error", downErr)
		}
		h.started = false
		return fmt.Errorf("application did not become healthy: %w", err)
	}

	return nil
}

// Stop tears the stack down. Safe to call when Start failed or never ran.
func (h *Harness) Stop(ctx context.Context) error {
	if !h.started {
		return nil
	}
	h.logger().Info("stopping e2e services")
	h.started = false
	if err := h.Compose.Down(ctx); err != nil {
		return fmt.Errorf("failed to stop services: %w", err)
	}
	return nil
}

// Run wraps fn in a full stack lifecycle. Teardown happens on success,
// failure, and panic alike.
func (h *Harness) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := h.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx := context.WithoutCancel(ctx)
		if err := h.Stop(stopCtx); err != nil {
			h.logger().Error("failed to stop services", "error", err)
		}
	}()

	return fn(ctx)
}

// RunMain runs a test binary's suites inside the stack lifecycle. Intended
// for TestMain:
//
//	func TestMain(m *testing.M) {
//		os.Exit(harness.New(cfg).RunMain(m))
//	}
func (h *Harness) RunMain(m *testing.M) int {
	ctx := context.Background()

	if err := h.Start(ctx); err != nil {
		h.logger().Error("failed to start test stack", "error", err)
		return 1
	}

	code := m.Run()

	if err := h.Stop(ctx); err != nil {
		h.logger().Error("failed to stop test stack", "error", err)
		if code == 0 {
			code = 1
		}
	}
	return code
}

// dumpState logs container status and service logs to aid debugging a
// failed startup.
func (h *Harness) dumpState(ctx context.Context) {
	log := h.logger()

	if states, err := h.Compose.Ps(ctx); err == nil {
		for _, s := range states {
			log.Error("service state", "service", s.Service, "state", s.State, "health", s.Health)
		}
	}

	// The engine's view catches containers compose no longer reports,
	// such as ones that exited and were renamed during a restart loop.
	if h.Containers != nil && h.ProjectName != "" {
		if infos, err := h.Containers.ProjectContainers(ctx, h.ProjectName); err == nil {
			for _, ci := range infos {
				log.Error("container state", "container", ci.Name, "service", ci.Service, "state", ci.State, "status", ci.Status)
			}
		}
	}

	services := []string{}
	if h.LogService != "" {
		services = append(services, h.LogService)
	}
	logs, err := h.Compose.Logs(ctx, services...)
	if err != nil {
		log.Error("failed to collect service logs", "error", err)
		return
	}
	// Raw logs go to stderr untouched; wrapping them in slog attrs would
	// destroy multi-line formatting.
	fmt.Fprintln(os.Stderr, logs)
}
