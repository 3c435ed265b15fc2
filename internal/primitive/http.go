package primitive

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// HTTPResult is the raw outcome of an HTTP primitive run, sync or stream.
type HTTPResult struct {
	Success            bool
	StatusCode         int
	Body               interface{}
	Headers            map[string]string
	DurationMs         int64
	Error              string
	StreamEventsCount  int
	StreamDestinations []string
}

// HTTPConfig is the merged chain config consumed by the HTTP primitive.
type HTTPConfig struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    interface{}
	TimeoutS int
	Retry   RetryConfig
	Auth    AuthConfig
}

// RetryConfig controls the sync-mode retry policy.
type RetryConfig struct {
	MaxAttempts int
	Backoff     string // "exponential" | "fixed"
}

// AuthConfig describes bearer or api_key auth.
type AuthConfig struct {
	Type   string // "bearer" | "api_key"
	Token  string
	Key    string
	Header string // api_key header name, default X-API-Key
}

// HTTPConfigFromMap decodes a merged config map into an HTTPConfig.
func HTTPConfigFromMap(m map[string]interface{}) (*HTTPConfig, error) {
	c := &HTTPConfig{Method: "GET", TimeoutS: 30, Retry: RetryConfig{MaxAttempts: 1, Backoff: "exponential"}}

	if method, ok := m["method"].(string); ok && method != "" {
		c.Method = strings.ToUpper(method)
	}
	url, _ := m["url"].(string)
	if url == "" {
		return nil, fmt.Errorf("url is required in config")
	}
	c.URL = url

	if h, ok := m["headers"].(map[string]interface{}); ok {
		c.Headers = make(map[string]string, len(h))
		for k, v := range h {
			c.Headers[k] = fmt.Sprint(v)
		}
	}
	c.Body = m["body"]

	if timeout, ok := m["timeout_s"].(float64); ok {
		c.TimeoutS = int(timeout)
	}

	if retry, ok := m["retry"].(map[string]interface{}); ok {
		if ma, ok := retry["max_attempts"].(float64); ok {
			c.Retry.MaxAttempts = int(ma)
		}
		if b, ok := retry["backoff"].(string); ok {
			c.Retry.Backoff = b
		}
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 1
	}

	if auth, ok := m["auth"].(map[string]interface{}); ok {
		c.Auth.Type, _ = auth["type"].(string)
		c.Auth.Token, _ = auth["token"].(string)
		c.Auth.Key, _ = auth["key"].(string)
		c.Auth.Header, _ = auth["header"].(string)
		if c.Auth.Header == "" {
			c.Auth.Header = "X-API-Key"
		}
	}
	return c, nil
}

// HTTPClientPrimitive makes HTTP requests with retry logic and optional SSE
// streaming fan-out to sinks.
type HTTPClientPrimitive struct {
	Client *http.Client
}

// NewHTTPClientPrimitive builds a primitive backed by a pooled http.Client.
func NewHTTPClientPrimitive() *HTTPClientPrimitive {
	return &HTTPClientPrimitive{Client: &http.Client{}}
}

var singlePlaceholderRe = regexp.MustCompile(`^\{(\w+)\}$`)
var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

// templateURL performs plain {param} substitution, always yielding a string.
func templateURL(url string, params map[string]interface{}) (string, error) {
	var outerErr error
	result := placeholderRe.ReplaceAllStringFunc(url, func(match string) string {
		name := match[1 : len(match)-1]
		v, ok := params[name]
		if !ok {
			outerErr = fmt.Errorf("missing parameter for template: %s", name)
			return match
		}
		return fmt.Sprint(v)
	})
	if outerErr != nil {
		return "", outerErr
	}
	return result, nil
}

// templateBody recursively substitutes {param} placeholders into body. A
// string consisting solely of a single placeholder preserves the param's
// original type; any other string is formatted with fmt.Sprint per
// placeholder occurrence.
func templateBody(body interface{}, params map[string]interface{}) (interface{}, error) {
	switch v := body.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			tv, err := templateBody(val, params)
			if err != nil {
				return nil, err
			}
			out[k] = tv
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			tv, err := templateBody(item, params)
			if err != nil {
				return nil, err
			}
			out[i] = tv
		}
		return out, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if m := singlePlaceholderRe.FindStringSubmatch(trimmed); m != nil {
			val, ok := params[m[1]]
			if !ok {
				return nil, fmt.Errorf("missing parameter for template: %s", m[1])
			}
			return val, nil
		}
		return templateURL(v, params)
	default:
		return body, nil
	}
}

// Execute dispatches to sync or stream mode based on params["mode"] (default
// "sync").
func (p *HTTPClientPrimitive) Execute(ctx context.Context, config *HTTPConfig, params map[string]interface{}) HTTPResult {
	mode, _ := params["mode"].(string)
	if mode == "" {
		mode = "sync"
	}
	switch mode {
	case "sync":
		return p.executeSync(ctx, config, params)
	case "stream":
		return p.executeStream(ctx, config, params)
	default:
		return HTTPResult{Error: fmt.Sprintf("unknown mode: %s, must be 'sync' or 'stream'", mode)}
	}
}

func (p *HTTPClientPrimitive) prepareRequest(config *HTTPConfig, params map[string]interface{}) (string, map[string]string, error) {
	url, err := templateURL(resolveEnvVar(config.URL), params)
	if err != nil {
		return "", nil, err
	}

	headers := make(map[string]string, len(config.Headers))
	for k, v := range config.Headers {
		headers[k] = resolveEnvVar(v)
	}

	switch config.Auth.Type {
	case "bearer":
		headers["Authorization"] = "Bearer " + resolveEnvVar(config.Auth.Token)
	case "api_key":
		headers[config.Auth.Header] = resolveEnvVar(config.Auth.Key)
	}

	return url, headers, nil
}

func (p *HTTPClientPrimitive) executeSync(ctx context.Context, config *HTTPConfig, params map[string]interface{}) HTTPResult {
	start := time.Now()

	url, headers, err := p.prepareRequest(config, params)
	if err != nil {
		return HTTPResult{Error: err.Error(), DurationMs: time.Since(start).Milliseconds()}
	}

	var bodyBytes []byte
	if config.Body != nil && (config.Method == "POST" || config.Method == "PUT" || config.Method == "PATCH") {
		templated, err := templateBody(config.Body, params)
		if err != nil {
			return HTTPResult{Error: err.Error(), DurationMs: time.Since(start).Milliseconds()}
		}
		bodyBytes, err = json.Marshal(templated)
		if err != nil {
			return HTTPResult{Error: err.Error(), DurationMs: time.Since(start).Milliseconds()}
		}
	}

	timeout := time.Duration(config.TimeoutS) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var lastErr error
	for attempt := 0; attempt < config.Retry.MaxAttempts; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		req, err := http.NewRequestWithContext(reqCtx, config.Method, url, bytes.NewReader(bodyBytes))
		if err != nil {
			cancel()
			return HTTPResult{Error: err.Error(), DurationMs: time.Since(start).Milliseconds()}
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := p.Client.Do(req)
		if err != nil {
			cancel()
			lastErr = err
			if attempt == config.Retry.MaxAttempts-1 {
				break
			}
			time.Sleep(backoffDelay(config.Retry.Backoff, attempt))
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()
		if readErr != nil {
			lastErr = readErr
			if attempt == config.Retry.MaxAttempts-1 {
				break
			}
			time.Sleep(backoffDelay(config.Retry.Backoff, attempt))
			continue
		}

		var parsedBody interface{}
		if jsonErr := json.Unmarshal(respBody, &parsedBody); jsonErr != nil {
			parsedBody = string(respBody)
		}

		respHeaders := map[string]string{}
		for k := range resp.Header {
			respHeaders[k] = resp.Header.Get(k)
		}

		success := resp.StatusCode >= 200 && resp.StatusCode < 400
		var errMsg string
		if !success {
			errMsg = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}

		return HTTPResult{
			Success:    success,
			StatusCode: resp.StatusCode,
			Body:       parsedBody,
			Headers:    respHeaders,
			DurationMs: time.Since(start).Milliseconds(),
			Error:      errMsg,
		}
	}

	return HTTPResult{
		Success:    false,
		DurationMs: time.Since(start).Milliseconds(),
		Error:      fmt.Sprintf("request failed after %d attempts: %v", config.Retry.MaxAttempts, lastErr),
	}
}

func backoffDelay(backoff string, attempt int) time.Duration {
	if backoff == "fixed" {
		return time.Second
	}
	return time.Duration(1<<uint(attempt)) * time.Second
}

// executeStream opens a streaming response and fans out SSE "data:" lines to
// the sinks passed in params["__sinks"].
func (p *HTTPClientPrimitive) executeStream(ctx context.Context, config *HTTPConfig, params map[string]interface{}) HTTPResult {
	start := time.Now()

	sinks, _ := params["__sinks"].([]Sink)
	delete(params, "__sinks")

	var returnSink *ReturnSink
	for _, s := range sinks {
		if rs, ok := s.(*ReturnSink); ok {
			returnSink = rs
			break
		}
	}

	url, headers, err := p.prepareRequest(config, params)
	if err != nil {
		closeSinks(sinks)
		return HTTPResult{Error: err.Error(), DurationMs: time.Since(start).Milliseconds()}
	}

	var bodyBytes []byte
	if config.Body != nil && (config.Method == "POST" || config.Method == "PUT" || config.Method == "PATCH") {
		templated, err := templateBody(config.Body, params)
		if err != nil {
			closeSinks(sinks)
			return HTTPResult{Error: err.Error(), DurationMs: time.Since(start).Milliseconds()}
		}
		bodyBytes, err = json.Marshal(templated)
		if err != nil {
			closeSinks(sinks)
			return HTTPResult{Error: err.Error(), DurationMs: time.Since(start).Milliseconds()}
		}
	}

	timeout := time.Duration(config.TimeoutS) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, config.Method, url, bytes.NewReader(bodyBytes))
	if err != nil {
		closeSinks(sinks)
		return HTTPResult{Error: err.Error(), DurationMs: time.Since(start).Milliseconds()}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		closeSinks(sinks)
		return HTTPResult{Error: err.Error(), DurationMs: time.Since(start).Milliseconds()}
	}
	defer resp.Body.Close()

	eventCount := 0
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		eventData := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if eventData == "" {
			continue
		}
		eventCount++
		for _, s := range sinks {
			_ = s.Write(eventData)
		}
	}
	closeSinks(sinks)

	var respBody interface{}
	if returnSink != nil {
		respBody = returnSink.Events()
	}

	destinations := make([]string, len(sinks))
	for i, s := range sinks {
		destinations[i] = fmt.Sprintf("%T", s)
	}

	success := resp.StatusCode >= 200 && resp.StatusCode < 400
	var errMsg string
	if !success {
		errMsg = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return HTTPResult{
		Success:            success,
		StatusCode:         resp.StatusCode,
		Body:               respBody,
		DurationMs:         time.Since(start).Milliseconds(),
		Error:              errMsg,
		StreamEventsCount:  eventCount,
		StreamDestinations: destinations,
	}
}

func closeSinks(sinks []Sink) {
	for _, s := range sinks {
		_ = s.Close()
	}
}
