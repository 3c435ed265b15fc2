package primitive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// SubprocessResult is the raw outcome of a subprocess primitive run.
type SubprocessResult struct {
	Success    bool
	Stdout     string
	Stderr     string
	ReturnCode int
	DurationMs int64
}

// SubprocessConfig is the merged chain config consumed by the subprocess
// primitive.
type SubprocessConfig struct {
	Command       string
	Args          []string
	Env           map[string]string
	Cwd           string
	TimeoutS      int
	CaptureOutput bool
	InputData     string
}

// SubprocessConfigFromMap decodes a merged config map into a SubprocessConfig,
// applying defaults (timeout_s=300, capture_output=true).
func SubprocessConfigFromMap(m map[string]interface{}) (*SubprocessConfig, error) {
	c := &SubprocessConfig{TimeoutS: 300, CaptureOutput: true}

	command, _ := m["command"].(string)
	if command == "" {
		return nil, errors.New("command is required in config")
	}
	c.Command = command

	if rawArgs, ok := m["args"].([]interface{}); ok {
		for _, a := range rawArgs {
			c.Args = append(c.Args, fmt.Sprint(a))
		}
	}
	if rawEnv, ok := m["env"].(map[string]interface{}); ok {
		c.Env = make(map[string]string, len(rawEnv))
		for k, v := range rawEnv {
			c.Env[k] = fmt.Sprint(v)
		}
	}
	if cwd, ok := m["cwd"].(string); ok {
		c.Cwd = cwd
	}
	if timeout, ok := m["timeout_s"].(float64); ok {
		c.TimeoutS = int(timeout)
	}
	if capture, ok := m["capture_output"].(bool); ok {
		c.CaptureOutput = capture
	}
	if input, ok := m["input_data"].(string); ok {
		c.InputData = input
	}
	return c, nil
}

// SubprocessPrimitive runs a resolved terminal subprocess tool.
type SubprocessPrimitive struct{}

// Execute spawns command/args outside a shell, streaming input_data into
// stdin if present, killing the process if it runs past timeout_s.
func (SubprocessPrimitive) Execute(ctx context.Context, config *SubprocessConfig) SubprocessResult {
	start := time.Now()

	command := resolveEnvVar(config.Command)
	args := make([]string, len(config.Args))
	for i, a := range config.Args {
		args[i] = resolveEnvVar(a)
	}

	timeout := time.Duration(config.TimeoutS) * time.Second
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, command, args...)
	cmd.Env = os.Environ()
	for k, v := range config.Env {
		cmd.Env = append(cmd.Env, k+"="+resolveEnvVar(v))
	}
	if config.Cwd != "" {
		cmd.Dir = resolveEnvVar(config.Cwd)
	}

	var stdout, stderr bytes.Buffer
	if config.CaptureOutput {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}
	if config.InputData != "" {
		cmd.Stdin = bytes.NewBufferString(config.InputData)
	}

	err := cmd.Run()
	duration := time.Since(start).Milliseconds()

	if runCtx.Err() == context.DeadlineExceeded {
		return SubprocessResult{
			Success:    false,
			Stderr:     fmt.Sprintf("Command timed out after %d seconds", config.TimeoutS),
			ReturnCode: -1,
			DurationMs: duration,
		}
	}

	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return SubprocessResult{
				Success:    false,
				Stderr:     fmt.Sprintf("Command not found: %s", err),
				ReturnCode: -1,
				DurationMs: duration,
			}
		}
		if os.IsPermission(err) {
			return SubprocessResult{
				Success:    false,
				Stderr:     fmt.Sprintf("Permission denied: %s", err),
				ReturnCode: -1,
				DurationMs: duration,
			}
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return SubprocessResult{
				Success:    false,
				Stdout:     stdout.String(),
				Stderr:     stderr.String(),
				ReturnCode: exitErr.ExitCode(),
				DurationMs: duration,
			}
		}
		return SubprocessResult{
			Success:    false,
			Stderr:     fmt.Sprintf("Unexpected error: %s", err),
			ReturnCode: -1,
			DurationMs: duration,
		}
	}

	return SubprocessResult{
		Success:    true,
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		ReturnCode: 0,
		DurationMs: duration,
	}
}
