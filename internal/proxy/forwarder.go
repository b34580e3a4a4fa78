// Package proxy relays caller requests to the upstream auth/session and
// data APIs, preserving caller credentials and relaying responses verbatim.
package proxy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/errors"
	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/httputil"
	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/logging"
	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/metrics"
)

// PathHeader names the header carrying the upstream target path.
const PathHeader = "X-Supabase-Path"

// The two variants deliberately carry distinct allowlists: session calls
// need x-client-info, data calls need prefer.
var (
	sessionAllowlist = httputil.Allowlist("authorization", "apikey", "content-type", "accept", "x-client-info")
	dataAllowlist    = httputil.Allowlist("authorization", "apikey", "content-type", "accept", "prefer")
)

const maxInboundBodyBytes = 8 << 20 // 8 MiB

// Forwarder relays requests to one upstream API.
type Forwarder struct {
	target     string // label for logs and metrics
	baseURL    string
	allowlist  map[string]struct{}
	anonKey    string // injected when the caller sent no credentials; session only
	formAware  bool   // session bodies may need JSON -> form re-encoding
	httpClient *http.Client
	logger     *logging.Logger
	metrics    *metrics.Metrics
}

// Options carries the shared forwarder collaborators.
type Options struct {
	HTTPClient *http.Client
	Logger     *logging.Logger
	Metrics    *metrics.Metrics
}

// NewSessionForwarder relays to the upstream identity/session API, injecting
// the anonymous key when the caller supplied no credentials.
func NewSessionForwarder(backendURL, anonKey string, opts Options) *Forwarder {
	f := newForwarder("session", backendURL, "/auth/v1", sessionAllowlist, opts)
	f.anonKey = anonKey
	f.formAware = true
	return f
}

// NewDataForwarder relays to the upstream data API. Caller credentials pass
// through untouched and nothing is injected.
func NewDataForwarder(backendURL string, opts Options) *Forwarder {
	return newForwarder("data", backendURL, "/rest/v1", dataAllowlist, opts)
}

func newForwarder(target, backendURL, apiPrefix string, allowlist map[string]struct{}, opts Options) *Forwarder {
	base := NormalizeBaseURL(backendURL)
	if base != "" {
		base += apiPrefix
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Forwarder{
		target:     target,
		baseURL:    base,
		allowlist:  allowlist,
		httpClient: httpClient,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

// NormalizeBaseURL trims whitespace, keeps an existing http(s) scheme,
// prefixes https:// otherwise, and strips one trailing slash.
func NormalizeBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return ""
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return strings.TrimSuffix(base, "/")
}

// Forward executes one relay round trip. Returned errors follow the gateway
// taxonomy; on success the upstream status, content type, and raw body have
// already been written to w.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request) error {
	if f.baseURL == "" {
		return errors.BadRequest("backend URL not configured")
	}

	path := r.Header.Get(PathHeader)
	if path == "" {
		return errors.BadRequest("missing " + strings.ToLower(PathHeader) + " header")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	body, contentType, err := f.outboundBody(r)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, f.baseURL+path, body)
	if err != nil {
		return errors.BadRequest("invalid proxy target")
	}

	req.Header = httputil.FilterHeaders(r.Header, f.allowlist)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if f.anonKey != "" {
		if req.Header.Get("apikey") == "" {
			req.Header.Set("apikey", f.anonKey)
		}
		if req.Header.Get("Authorization") == "" {
			req.Header.Set("Authorization", "Bearer "+f.anonKey)
		}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return errors.Dependency(fmt.Errorf("%s proxy: %w", f.target, err))
	}
	defer resp.Body.Close()

	f.relay(w, resp)
	return nil
}

// outboundBody prepares the forwarded body. GET and HEAD requests never
// carry one, whatever the caller sent.
func (f *Forwarder) outboundBody(r *http.Request) (io.Reader, string, error) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Body == nil {
		return nil, "", nil
	}

	raw, err := httputil.ReadAllStrict(r.Body, maxInboundBodyBytes)
	if err != nil {
		return nil, "", errors.BadRequest("unreadable request body")
	}
	if len(raw) == 0 {
		return nil, "", nil
	}

	contentType := r.Header.Get("Content-Type")

	// Session callers sometimes declare form encoding while handing over a
	// parsed JSON object; rebuild the form body they meant to send. Data
	// bodies are opaque bytes and are never touched.
	if f.formAware && strings.Contains(contentType, "application/x-www-form-urlencoded") && looksLikeJSONObject(raw) {
		var fields map[string]interface{}
		if err := json.Unmarshal(raw, &fields); err == nil {
			form := url.Values{}
			for k, v := range fields {
				form.Set(k, fmt.Sprintf("%v", v))
			}
			return strings.NewReader(form.Encode()), contentType, nil
		}
	}

	return bytes.NewReader(raw), contentType, nil
}

func looksLikeJSONObject(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// relay copies the upstream response through unmodified. The body may be
// binary or non-JSON; it is never parsed or re-encoded.
func (f *Forwarder) relay(w http.ResponseWriter, resp *http.Response) {
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil && f.logger != nil {
		f.logger.WithError(err).Warn("proxy response relay interrupted")
	}

	if f.metrics != nil {
		f.metrics.RecordProxyResponse(f.target, strconv.Itoa(resp.StatusCode))
	}
}
