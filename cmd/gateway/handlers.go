package main

import (
	"net/http"
	"time"

	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/auth"
	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/config"
	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/errors"
	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/eventbus"
	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/httputil"
	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/logging"
	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/prooftoken"
	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/proxy"
	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/tenant"
)

// gateway bundles the per-endpoint handlers with their collaborators. All
// services are constructed once at start and injected; no package-level
// state.
type gateway struct {
	cfg       *config.Config
	logger    *logging.Logger
	validator *auth.Validator
	tenants   *tenant.Resolver
	issuer    *prooftoken.Issuer
	session   *proxy.Forwarder
	data      *proxy.Forwarder
	bus       *eventbus.Bus[eventbus.RequestEvent]
}

// requireGet rejects every method but GET on the authenticated endpoints.
func (g *gateway) requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

// requireBackendConfig checks the configuration an authenticated endpoint
// depends on. Nothing else is attempted when it is incomplete.
func (g *gateway) requireBackendConfig(w http.ResponseWriter, r *http.Request, endpoint string) bool {
	if g.cfg.SupabaseURL == "" || g.cfg.ServiceKey == "" || g.cfg.AnonKey == "" {
		g.fail(w, r, endpoint, "", errors.Fatal("backend configuration missing"))
		return false
	}
	return true
}

// authenticate resolves the caller's bearer token to a principal.
func (g *gateway) authenticate(w http.ResponseWriter, r *http.Request, endpoint string) (auth.Principal, bool) {
	principal, err := g.validator.Authenticate(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		g.fail(w, r, endpoint, "", err)
		return auth.Principal{}, false
	}
	return principal, true
}

// handleIsOwner reports whether the caller owns its company.
func (g *gateway) handleIsOwner(w http.ResponseWriter, r *http.Request) {
	const endpoint = "is-owner"
	start := time.Now()

	if !g.requireGet(w, r) || !g.requireBackendConfig(w, r, endpoint) {
		return
	}
	principal, ok := g.authenticate(w, r, endpoint)
	if !ok {
		return
	}

	isOwner, err := g.tenants.IsOwner(r.Context(), principal.ID)
	if err != nil {
		g.fail(w, r, endpoint, principal.ID, err)
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]bool{"is_owner": isOwner})
	g.audit(r, endpoint, principal.ID, http.StatusOK, start)
}

// handleProfiles lists every profile in the caller's company.
func (g *gateway) handleProfiles(w http.ResponseWriter, r *http.Request) {
	const endpoint = "profiles"
	start := time.Now()

	if !g.requireGet(w, r) || !g.requireBackendConfig(w, r, endpoint) {
		return
	}
	principal, ok := g.authenticate(w, r, endpoint)
	if !ok {
		return
	}

	profiles, err := g.tenants.Profiles(r.Context(), principal.ID)
	if err != nil {
		g.fail(w, r, endpoint, principal.ID, err)
		return
	}
	if profiles == nil {
		profiles = []tenant.Profile{}
	}

	httputil.WriteData(w, http.StatusOK, profiles)
	g.audit(r, endpoint, principal.ID, http.StatusOK, start)
}

// handleMe returns the authenticated principal.
func (g *gateway) handleMe(w http.ResponseWriter, r *http.Request) {
	const endpoint = "me"
	start := time.Now()

	if !g.requireGet(w, r) || !g.requireBackendConfig(w, r, endpoint) {
		return
	}
	principal, ok := g.authenticate(w, r, endpoint)
	if !ok {
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]auth.Principal{"user": principal})
	g.audit(r, endpoint, principal.ID, http.StatusOK, start)
}

// handleProofToken issues the day-scoped signed credential for the caller.
func (g *gateway) handleProofToken(w http.ResponseWriter, r *http.Request) {
	const endpoint = "proof-token"
	start := time.Now()

	if !g.requireGet(w, r) {
		return
	}
	if g.cfg.ProofTokenSecret == "" {
		g.fail(w, r, endpoint, "", errors.Fatal("signing secret missing"))
		return
	}
	if !g.requireBackendConfig(w, r, endpoint) {
		return
	}
	principal, ok := g.authenticate(w, r, endpoint)
	if !ok {
		return
	}

	issued, err := g.issuer.Issue(r.Context(), principal)
	if err != nil {
		g.fail(w, r, endpoint, principal.ID, err)
		return
	}

	httputil.WriteData(w, http.StatusOK, issued)
	g.audit(r, endpoint, principal.ID, http.StatusOK, start)
}

// handleSessionProxy relays auth/session calls with caller credentials.
func (g *gateway) handleSessionProxy(w http.ResponseWriter, r *http.Request) {
	const endpoint = "session-proxy"
	start := time.Now()

	if g.cfg.AnonKey == "" {
		g.fail(w, r, endpoint, "", errors.Fatal("anonymous credential missing"))
		return
	}
	if err := g.session.Forward(w, r); err != nil {
		g.fail(w, r, endpoint, "", err)
		return
	}
	g.audit(r, endpoint, "", http.StatusOK, start)
}

// handleDataProxy relays data-API calls without touching credentials.
func (g *gateway) handleDataProxy(w http.ResponseWriter, r *http.Request) {
	const endpoint = "data-proxy"
	start := time.Now()

	if err := g.data.Forward(w, r); err != nil {
		g.fail(w, r, endpoint, "", err)
		return
	}
	g.audit(r, endpoint, "", http.StatusOK, start)
}

// handleHealth reports process liveness.
func (g *gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "gateway",
	})
}

// fail converts err to its envelope response. Dependency and fatal details
// are logged verbatim but never surface to the caller.
func (g *gateway) fail(w http.ResponseWriter, r *http.Request, endpoint, principalID string, err error) {
	svcErr := errors.FromError(err)

	entry := g.logger.WithContext(r.Context()).WithFields(map[string]interface{}{
		"endpoint": endpoint,
		"code":     string(svcErr.Code),
		"status":   svcErr.HTTPStatus,
	})
	if svcErr.Err != nil {
		entry = entry.WithError(svcErr.Err)
	}
	entry.Warn("request failed")

	httputil.WriteServiceError(w, svcErr)
	g.audit(r, endpoint, principalID, svcErr.HTTPStatus, time.Now())
}

// audit publishes a request event; subscribers can never block a response.
func (g *gateway) audit(r *http.Request, endpoint, principalID string, status int, start time.Time) {
	if g.bus == nil {
		return
	}
	g.bus.Publish(eventbus.RequestEvent{
		Endpoint:    endpoint,
		Method:      r.Method,
		PrincipalID: principalID,
		Status:      status,
		Duration:    time.Since(start),
		At:          time.Now(),
	})
}
