package mcpscan

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"
)

// DefaultTimeout bounds how long a scan waits for a single handshake.
const DefaultTimeout = 10 * time.Second

// engine is a stdio JSON-RPC client talking to one spawned MCP process.
// Tool discovery needs a persistent request/response session, unlike
// internal/primitive's Subprocess primitive which runs a command to
// completion and captures its full output, so this dials the process
// directly rather than going through that primitive.
type engine struct {
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	stderr    io.ReadCloser
	requestID int
	mu        sync.Mutex
}

func newEngine() *engine {
	return &engine{}
}

func (e *engine) connect(ctx context.Context, command string, args []string, env []string) error {
	e.cmd = exec.CommandContext(ctx, command, args...)
	if len(env) > 0 {
		e.cmd.Env = env
	}

	var err error
	e.stdin, err = e.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	stdout, err := e.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	e.stdout = bufio.NewReader(stdout)

	e.stderr, err = e.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := e.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start mcp server: %w", err)
	}
	return nil
}

func (e *engine) initialize(ctx context.Context) (*serverInfo, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      e.nextID(),
		Method:  "initialize",
		Params: initializeParams{
			ProtocolVersion: protocolVersion,
			Capabilities:    map[string]interface{}{},
			ClientInfo:      clientInfo{Name: "kiwimcp", Version: "1.0.0"},
		},
	}

	var resp initializeResponse
	if err := e.sendRequest(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("initialize request failed: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("mcp error: %s (code %d)", resp.Error.Message, resp.Error.Code)
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("empty initialize response")
	}

	if err := e.sendNotification(rpcNotification{JSONRPC: "2.0", Method: "notifications/initialized"}); err != nil {
		return nil, fmt.Errorf("failed to send initialized notification: %w", err)
	}

	return &resp.Result.ServerInfo, nil
}

func (e *engine) listTools(ctx context.Context) ([]mcpTool, error) {
	req := rpcRequest{JSONRPC: "2.0", ID: e.nextID(), Method: "tools/list"}

	var resp toolsListResponse
	if err := e.sendRequest(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("tools/list request failed: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("mcp error: %s (code %d)", resp.Error.Message, resp.Error.Code)
	}
	if resp.Result == nil {
		return nil, nil
	}
	return resp.Result.Tools, nil
}

func (e *engine) close() error {
	if e.stdin != nil {
		e.stdin.Close()
	}
	if e.stderr != nil {
		e.stderr.Close()
	}
	if e.cmd != nil && e.cmd.Process != nil {
		done := make(chan error, 1)
		go func() { done <- e.cmd.Wait() }()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			if err := e.cmd.Process.Kill(); err != nil {
				return fmt.Errorf("failed to kill process: %w", err)
			}
		}
	}
	return nil
}

func (e *engine) sendRequest(ctx context.Context, req interface{}, resp interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	if _, err := e.stdin.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write request: %w", err)
	}

	responseChan := make(chan []byte, 1)
	errorChan := make(chan error, 1)
	go func() {
		line, err := e.stdout.ReadBytes('\n')
		if err != nil {
			errorChan <- err
			return
		}
		responseChan <- line
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errorChan:
		return fmt.Errorf("failed to read response: %w", err)
	case line := <-responseChan:
		if err := json.Unmarshal(line, resp); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
		return nil
	}
}

func (e *engine) sendNotification(n rpcNotification) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if _, err := e.stdin.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}
	return nil
}

func (e *engine) nextID() int {
	e.requestID++
	return e.requestID
}
