// Package docker provides Docker container lifecycle management using the Docker CLI.
package docker

import (
	"bytes"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"
)

// ContainerConfig describes the backing database container.
type ContainerConfig struct {
	Name  string
	Image string
	// Ports maps host ports to container ports.
	Ports map[string]string
	Env   map[string]string
	// ReadyMarker is a log line fragment printed once the database accepts
	// connections.
	ReadyMarker string
}

// Neo4jContainer returns the container for a Neo4j backend.
func Neo4jContainer(name, image, username, password string) *ContainerConfig {
	return &ContainerConfig{
		Name:  name,
		Image: image,
		Ports: map[string]string{"7687": "7687", "7474": "7474"},
		Env: map[string]string{
			"NEO4J_AUTH": fmt.Sprintf("%s/%s", username, password),
		},
		ReadyMarker: "Started.",
	}
}

// PostgresContainer returns the container for a PostgreSQL backend.
func PostgresContainer(name, image, password string) *ContainerConfig {
	return &ContainerConfig{
		Name:  name,
		Image: image,
		Ports: map[string]string{"5432": "5432"},
		Env: map[string]string{
			"POSTGRES_USER":     "gameplan",
			"POSTGRES_PASSWORD": password,
			"POSTGRES_DB":       "gameplan",
		},
		ReadyMarker: "database system is ready to accept connections",
	}
}

// Validate checks that all required fields are set.
func (c *ContainerConfig) Validate() error {
	var missing []string

	if c.Name == "" {
		missing = append(missing, "Name")
	}
	if c.Image == "" {
		missing = append(missing, "Image")
	}
	for k, v := range c.Env {
		// NEO4J_AUTH is "user/password"; an empty side is as bad as no value
		if v == "" || strings.HasPrefix(v, "/") || strings.HasSuffix(v, "/") {
			missing = append(missing, "Env."+k)
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	return nil
}

// RunArgs returns the docker arguments that create the container.
func (c *ContainerConfig) RunArgs() []string {
	args := []string{"run", "-d", "--name", c.Name}

	hostPorts := make([]string, 0, len(c.Ports))
	for h := range c.Ports {
		hostPorts = append(hostPorts, h)
	}
	sort.Strings(hostPorts)
	for _, h := range hostPorts {
		args = append(args, "-p", h+":"+c.Ports[h])
	}

	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", k+"="+c.Env[k])
	}

	return append(args, c.Image)
}

// IsDockerAvailable checks if Docker is installed and accessible.
func IsDockerAvailable() bool {
	cmd := exec.Command("docker", "version")
	return cmd.Run() == nil
}

// ContainerExists checks if a container with the given name exists.
func ContainerExists(name string) (bool, error) {
	cmd := exec.Command("docker", "ps", "-a", "--filter", fmt.Sprintf("name=^%s$", name), "--format", "{{.Names}}")
	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("failed to check container existence: %w", err)
	}

	return strings.TrimSpace(string(output)) == name, nil
}

// IsContainerRunning checks if a container is currently running.
func IsContainerRunning(name string) (bool, error) {
	cmd := exec.Command("docker", "ps", "--filter", fmt.Sprintf("name=^%s$", name), "--format", "{{.Names}}")
	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("failed to check container status: %w", err)
	}

	return strings.TrimSpace(string(output)) == name, nil
}

func runDocker(action string, args ...string) error {
	cmd := exec.Command("docker", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to %s container: %w (stderr: %s)", action, err, stderr.String())
	}
	return nil
}

// CreateContainer creates a new container with the specified configuration.
func CreateContainer(config *ContainerConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid container config: %w", err)
	}
	return runDocker("create", config.RunArgs()...)
}

// StartContainer starts an existing container.
func StartContainer(name string) error {
	return runDocker("start", "start", name)
}

// StopContainer stops a running container.
func StopContainer(name string) error {
	return runDocker("stop", "stop", name)
}

// RemoveContainer removes a container (must be stopped first).
func RemoveContainer(name string) error {
	return runDocker("remove", "rm", name)
}

// EnsureContainer ensures that the container is running.
// If the container doesn't exist, it creates it.
// If the container exists but is stopped, it starts it.
// Returns true if the container was created, false if it already existed.
func EnsureContainer(config *ContainerConfig) (created bool, err error) {
	if !IsDockerAvailable() {
		return false, fmt.Errorf("Docker is not available. Please install Docker and ensure it is running")
	}

	if err := config.Validate(); err != nil {
		return false, fmt.Errorf("invalid container config: %w", err)
	}

	exists, err := ContainerExists(config.Name)
	if err != nil {
		return false, err
	}

	if !exists {
		if err := CreateContainer(config); err != nil {
			return false, err
		}
		time.Sleep(2 * time.Second)
		return true, nil
	}

	running, err := IsContainerRunning(config.Name)
	if err != nil {
		return false, err
	}

	if !running {
		if err := StartContainer(config.Name); err != nil {
			return false, err
		}
		time.Sleep(2 * time.Second)
	}

	return false, nil
}

// WaitForContainer waits until the container logs contain its ready marker.
func WaitForContainer(config *ContainerConfig, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		running, err := IsContainerRunning(config.Name)
		if err != nil {
			return err
		}

		if !running {
			return fmt.Errorf("container %s is not running", config.Name)
		}

		// postgres logs to stderr
		cmd := exec.Command("docker", "logs", config.Name)
		output, err := cmd.CombinedOutput()
		if err == nil && strings.Contains(string(output), config.ReadyMarker) {
			return nil
		}

		time.Sleep(1 * time.Second)
	}

	return fmt.Errorf("timeout waiting for container %s to be ready", config.Name)
}
