package compose

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the subset of a compose file the harness cares about: which
// services exist and which host ports they publish.
type File struct {
	Services map[string]Service `yaml:"services"`
}

// Service is one compose service definition.
type Service struct {
	Image string   `yaml:"image"`
	Ports []string `yaml:"ports"`
}

// ParseFile reads and parses a compose file. Port mappings may reference
// environment variables (`${HOST_PORT:-50080}:8000`); they are expanded
// against the current environment before parsing.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read compose file: %w", err)
	}
	return Parse(data)
}

// Parse parses compose file content.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse compose file: %w", err)
	}
	return &f, nil
}

// ServiceNames returns the service names in sorted order.
func (f *File) ServiceNames() []string {
	names := make([]string, 0, len(f.Services))
	for name := range f.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WebService guesses which service fronts the stack: a service named
// "web" wins, otherwise the first service (sorted) that publishes a port.
// Returns "" when nothing is published.
func (f *File) WebService() string {
	if _, ok := f.Services["web"]; ok {
		return "web"
	}
	for _, name := range f.ServiceNames() {
		if len(f.Services[name].Ports) > 0 {
			return name
		}
	}
	return ""
}

// HostPort returns the first published host port of the named service,
// with `${VAR}` / `${VAR:-default}` references resolved from the
// environment. Returns "" when the service publishes nothing.
func (f *File) HostPort(service string) string {
	svc, ok := f.Services[service]
	if !ok {
		return ""
	}
	for _, mapping := range svc.Ports {
		if host := hostPart(ExpandEnv(mapping)); host != "" {
			return host
		}
	}
	return ""
}

// hostPart extracts the host port from a short-syntax mapping such as
// "50080:8000", "127.0.0.1:50080:8000", or "50080:8000/tcp".
func hostPart(mapping string) string {
	mapping = strings.TrimSuffix(mapping, "/tcp")
	mapping = strings.TrimSuffix(mapping, "/udp")
	parts := strings.Split(mapping, ":")
	switch len(parts) {
	case 2:
		return parts[0]
	case 3:
		return parts[1]
	default:
		return ""
	}
}

// ExpandEnv resolves `${VAR}` and `${VAR:-default}` references the way the
// compose CLI does. Unset variables without a default expand to "".
func ExpandEnv(s string) string {
	return os.Expand(s, func(ref string) string {
		name, def, hasDef := strings.Cut(ref, ":-")
		if v, ok := os.LookupEnv(name); ok && v != "" {
			return v
		}
		if hasDef {
			return def
		}
		return ""
	})
}
