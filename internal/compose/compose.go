// Package compose wraps the docker compose CLI for stack lifecycle
// management during end-to-end test runs.
//
// The harness deliberately shells out to `docker compose` rather than
// re-implementing compose semantics against the Engine API: the stack under
// test is defined by a compose file, and the CLI is the one interpreter of
// that file developers already trust.
package compose

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// ExecFunc builds the command for one docker invocation. Tests substitute
// a fake to capture argument vectors without a docker binary present.
type ExecFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Project describes one compose project managed by the harness.
type Project struct {
	// File is the compose file path passed via -f.
	File string

	// Name is the compose project name passed via --project-name.
	Name string

	// EnvFile is passed via --env-file when non-empty.
	EnvFile string

	// Sudo prefixes docker invocations with sudo.
	Sudo bool

	// Output receives the streamed stdout/stderr of up/down invocations.
	// Nil discards the output.
	Output io.Writer

	// Exec overrides command construction. Nil means exec.CommandContext.
	Exec ExecFunc
}

// ServiceState is one row of `docker compose ps`.
type ServiceState struct {
	Name    string
	Service string
	State   string
	Health  string
}

// WithUniqueName returns a copy of the project whose name carries a random
// suffix, so parallel CI jobs on a shared runner never share containers.
func (p Project) WithUniqueName() Project {
	p.Name = fmt.Sprintf("%s-%s", p.Name, uuid.NewString()[:8])
	return p
}

// Up starts the stack detached, building images as needed.
func (p Project) Up(ctx context.Context) error {
	return p.run(ctx, "up", "-d", "--build")
}

// Down stops the stack and removes containers, networks, and orphans.
func (p Project) Down(ctx context.Context) error {
	return p.run(ctx, "down", "--remove-orphans")
}

// Logs returns the captured log output of the given services, or of the
// whole stack when none are named.
func (p Project) Logs(ctx context.Context, services ...string) (string, error) {
	args := append([]string{"logs", "--no-color"}, services...)
	out, err := p.output(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("docker compose logs failed: %w", err)
	}
	return out, nil
}

// Ps reports the state of every service container in the project.
func (p Project) Ps(ctx context.Context) ([]ServiceState, error) {
	out, err := p.output(ctx, "ps", "--all", "--format", "json")
	if err != nil {
		return nil, fmt.Errorf("docker compose ps failed: %w", err)
	}
	return parsePs(out), nil
}

// Args returns the full argument vector (including the binary) for the
// given compose subcommand and arguments.
func (p Project) Args(sub ...string) []string {
	argv := []string{}
	if p.Sudo {
		argv = append(argv, "sudo")
	}
	argv = append(argv, "docker", "compose")
	if p.File != "" {
		argv = append(argv, "-f", p.File)
	}
	if p.EnvFile != "" {
		argv = append(argv, "--env-file", p.EnvFile)
	}
	argv = append(argv, "--project-name", p.Name)
	return append(argv, sub...)
}

func (p Project) command(ctx context.Context, sub ...string) *exec.Cmd {
	argv := p.Args(sub...)
	execFn := p.Exec
	if execFn == nil {
		execFn = exec.CommandContext
	}
	return execFn(ctx, argv[0], argv[1:]...)
}

// run executes a compose subcommand streaming output to p.Output.
func (p Project) run(ctx context.Context, sub ...string) error {
	cmd := p.command(ctx, sub...)
	if p.Output != nil {
		cmd.Stdout = p.Output
		cmd.Stderr = p.Output
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker compose %s failed: %w", sub[0], err)
	}
	return nil
}

// output executes a compose subcommand and captures combined output.
func (p Project) output(ctx context.Context, sub ...string) (string, error) {
	cmd := p.command(ctx, sub...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.String(), err
}

// parsePs parses `docker compose ps --format json` output. Compose v2
// emits one JSON object per line; older releases emit a single array.
// gjson handles both shapes without a schema struct.
func parsePs(out string) []ServiceState {
	var states []ServiceState

	appendState := func(v gjson.Result) {
		states = append(states, ServiceState{
			Name:    v.Get("Name").String(),
			Service: v.Get("Service").String(),
			State:   v.Get("State").String(),
			Health:  v.Get("Health").String(),
		})
	}

	trimmed := strings.TrimSpace(out)
	if strings.HasPrefix(trimmed, "[") {
		gjson.Parse(trimmed).ForEach(func(_, v gjson.Result) bool {
			appendState(v)
			return true
		})
		return states
	}

	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !gjson.Valid(line) {
			continue
		}
		appendState(gjson.Parse(line))
	}
	return states
}
