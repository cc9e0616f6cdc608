// Package docker provides a thin wrapper around the Docker Engine SDK for
// daemon preflight checks and compose container status reporting.
package docker

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
)

// composeProjectLabel is set by docker compose on every container it creates.
const composeProjectLabel = "com.docker.compose.project"

// pingTimeout bounds the daemon reachability probe. Docker Desktop can be
// slow to answer the first request after waking.
const pingTimeout = 5 * time.Second

// ContainerInfo is the harness view of one container.
type ContainerInfo struct {
	Name    string
	Service string
	State   string
	Status  string
}

// Client wraps the Docker SDK client.
type Client struct {
	inner *client.Client
}

// NewClient creates a Docker client, honoring DOCKER_HOST when set and
// falling back to the platform default socket otherwise.
func NewClient() (*Client, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}

	if host := os.Getenv("DOCKER_HOST"); host != "" {
		opts = append(opts, client.WithHost(host))
	} else if host, err := defaultHost(); err == nil {
		opts = append(opts, client.WithHost(host))
	}

	c, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Client{inner: c}, nil
}

// defaultHost probes known socket locations for the current platform.
func defaultHost() (string, error) {
	var paths []string
	switch runtime.GOOS {
	case "linux":
		paths = []string{"/var/run/docker.sock"}
	case "darwin":
		paths = []string{"/var/run/docker.sock"}
		if home, err := os.UserHomeDir(); err == nil {
			paths = append(paths, home+"/.docker/run/docker.sock")
		}
	default:
		return "", fmt.Errorf("no default docker socket for %s", runtime.GOOS)
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return "unix://" + p, nil
		}
	}
	return "", fmt.Errorf("docker socket not found at any of %v", paths)
}

// Ping verifies the daemon is reachable. A failure here means compose
// commands would fail too, so the harness checks before starting anything.
func (c *Client) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.inner.Ping(pingCtx); err != nil {
		return fmt.Errorf("docker daemon is not responding: %w", err)
	}
	return nil
}

// ProjectContainers lists all containers (running or not) belonging to the
// given compose project.
func (c *Client) ProjectContainers(ctx context.Context, project string) ([]ContainerInfo, error) {
	containers, err := c.inner.ContainerList(ctx, container.ListOptions{
		All: true,
		Filters: filters.NewArgs(
			filters.Arg("label", composeProjectLabel+"="+project),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers for project %s: %w", project, err)
	}

	infos := make([]ContainerInfo, 0, len(containers))
	for _, ctr := range containers {
		name := ""
		if len(ctr.Names) > 0 {
			name = strings.TrimPrefix(ctr.Names[0], "/")
		}
		infos = append(infos, ContainerInfo{
			Name:    name,
			Service: ctr.Labels["com.docker.compose.service"],
			State:   ctr.State,
			Status:  ctr.Status,
		})
	}
	return infos, nil
}

// Close releases the SDK client resources.
func (c *Client) Close() error {
	return c.inner.Close()
}
