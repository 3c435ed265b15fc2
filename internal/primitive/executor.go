package primitive

import (
	"context"
	"fmt"
	"time"

	"github.com/kiwimcp/kiwimcp/internal/chain"
	"github.com/kiwimcp/kiwimcp/internal/kerrors"
	"github.com/kiwimcp/kiwimcp/internal/models"
	"github.com/kiwimcp/kiwimcp/internal/verify"
)

// Executor resolves a tool's chain, re-verifies every link's integrity
// hash, merges configs, and dispatches to the terminal primitive (spec
// §4.12).
type Executor struct {
	Resolver   *chain.Resolver
	Verifier   *verify.Verifier
	Subprocess SubprocessPrimitive
	HTTP       *HTTPClientPrimitive
}

// NewExecutor wires a fresh chain resolver and verifier around loader.
func NewExecutor(loader chain.Loader, maxChainDepth int) *Executor {
	return &Executor{
		Resolver: chain.New(loader, maxChainDepth),
		Verifier: verify.New(),
		HTTP:     NewHTTPClientPrimitive(),
	}
}

// Execute runs toolID with params, returning a uniform ExecutionResult.
func (e *Executor) Execute(ctx context.Context, toolID string, params map[string]interface{}) models.ExecutionResult {
	start := time.Now()

	resolvedChain, err := e.Resolver.Resolve(toolID)
	if err != nil {
		return failResult(err, start)
	}
	if len(resolvedChain) == 0 {
		return failResult(kerrors.New(kerrors.ChainError, fmt.Sprintf("tool '%s' not found or has no executor chain", toolID)), start)
	}

	if idx, failedID, verr := e.verifyChain(resolvedChain); verr != nil {
		return failResult(kerrors.Wrap(kerrors.IntegrityMismatch, fmt.Sprintf("chain verification failed at index %d (tool '%s')", idx, failedID), verr), start)
	}

	terminal := resolvedChain.Terminal()
	if terminal.ToolType != models.ToolTypePrimitive {
		return failResult(kerrors.New(kerrors.ChainError, fmt.Sprintf("invalid tool chain: terminal tool '%s' is not a primitive", terminal.ID)), start)
	}

	mergedConfig := chain.MergeConfigs(resolvedChain)

	var result models.ExecutionResult
	switch terminal.ID {
	case "subprocess":
		cfg, err := SubprocessConfigFromMap(mergedConfig)
		if err != nil {
			return failResult(kerrors.Wrap(kerrors.ConfigValidation, "invalid subprocess config", err), start)
		}
		result = convertSubprocessResult(e.Subprocess.Execute(ctx, cfg))
	case "http_client":
		cfg, err := HTTPConfigFromMap(mergedConfig)
		if err != nil {
			return failResult(kerrors.Wrap(kerrors.ConfigValidation, "invalid http_client config", err), start)
		}
		result = convertHTTPResult(e.HTTP.Execute(ctx, cfg, params))
	default:
		return failResult(kerrors.New(kerrors.ChainError, fmt.Sprintf("unknown primitive type: %s", terminal.ID)), start)
	}

	if result.Metadata == nil {
		result.Metadata = map[string]interface{}{}
	}
	result.Metadata["chain_length"] = len(resolvedChain)
	result.Metadata["integrity_verified"] = true
	return result
}

// verifyChain checks every link's stored content hash, returning the index
// and tool id of the first failure.
func (e *Executor) verifyChain(c models.Chain) (int, string, error) {
	for i, link := range c {
		if err := e.Verifier.VerifySingle(models.KindTool, link.ID, link.Version, link.FilePath, link.ContentHash); err != nil {
			return i, link.ID, err
		}
	}
	return -1, "", nil
}

func failResult(err error, start time.Time) models.ExecutionResult {
	return models.ExecutionResult{
		Success:    false,
		DurationMs: time.Since(start).Milliseconds(),
		Error:      err.Error(),
	}
}

func convertSubprocessResult(r SubprocessResult) models.ExecutionResult {
	var errMsg string
	if !r.Success {
		errMsg = r.Stderr
	}
	return models.ExecutionResult{
		Success:    r.Success,
		Data:       map[string]interface{}{"stdout": r.Stdout, "stderr": r.Stderr, "return_code": r.ReturnCode},
		DurationMs: r.DurationMs,
		Error:      errMsg,
		Metadata:   map[string]interface{}{"type": "subprocess", "return_code": r.ReturnCode},
	}
}

func convertHTTPResult(r HTTPResult) models.ExecutionResult {
	return models.ExecutionResult{
		Success:    r.Success,
		Data:       r.Body,
		DurationMs: r.DurationMs,
		Error:      r.Error,
		Metadata:   map[string]interface{}{"type": "http_client", "status_code": r.StatusCode, "headers": r.Headers},
	}
}
