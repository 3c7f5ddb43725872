package gate_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-works/atelier/internal/audit"
	"github.com/atelier-works/atelier/internal/authz"
	"github.com/atelier-works/atelier/internal/gate"
	"github.com/atelier-works/atelier/internal/principal"
	"github.com/atelier-works/atelier/internal/token"
)

type spyResolver struct {
	calls      int
	principals map[int64]*principal.Principal
	err        error
	panics     bool
}

func (s *spyResolver) Resolve(ctx context.Context, userID int64) (*principal.Principal, error) {
	s.calls++
	if s.panics {
		panic("resolver exploded")
	}
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.principals[userID]
	if !ok {
		return nil, principal.ErrNotFound
	}
	return p.Clone(), nil
}

type recordingSink struct {
	events []audit.Event
}

func (s *recordingSink) Record(ctx context.Context, ev audit.Event) {
	s.events = append(s.events, ev)
}

type gateFixture struct {
	gate     gate.Gate
	verifier *token.Verifier
	resolver *spyResolver
	sink     *recordingSink
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	verifier := token.NewVerifier("gate-secret", "atelier-test", time.Hour)
	resolver := &spyResolver{principals: map[int64]*principal.Principal{
		1: {ID: 1, Email: "admin@atelier.local", Role: authz.RoleAdministrator},
		2: {ID: 2, Email: "tech@atelier.local", Role: authz.RoleTechnician},
		3: {ID: 3, Email: "sec@atelier.local", Role: authz.RoleSecretary},
	}}
	sink := &recordingSink{}
	return &gateFixture{
		gate: gate.Gate{
			Verifier: verifier,
			Resolver: resolver,
			Engine:   authz.NewEngine(authz.DefaultRegistry()),
			Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
			Audit:    sink,
		},
		verifier: verifier,
		resolver: resolver,
		sink:     sink,
	}
}

func (f *gateFixture) request(t *testing.T, userID int64) *http.Request {
	return f.requestFor(t, userID, http.MethodGet, "/protected")
}

func (f *gateFixture) requestFor(t *testing.T, userID int64, method, path string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	raw, _, err := f.verifier.Issue(token.Identity{UserID: userID})
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+raw)
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

func decodeReason(t *testing.T, res *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Reason string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	return body.Reason
}

func okHandler(invoked *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if invoked != nil {
			*invoked = true
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAdmittedRoleEquals(t *testing.T) {
	// Scenario: administrator on an administrator-only route.
	f := newGateFixture(t)
	var invoked bool
	h := f.gate.Authenticate(f.gate.RequireRole(authz.RoleAdministrator)(okHandler(&invoked)))

	res := serve(h, f.request(t, 1))
	assert.Equal(t, http.StatusOK, res.Code)
	assert.True(t, invoked)
	assert.Empty(t, f.sink.events)
}

func TestForbiddenRoleMismatch(t *testing.T) {
	// Scenario: technician on an administrator-only route.
	f := newGateFixture(t)
	var invoked bool
	h := f.gate.Authenticate(f.gate.RequireRole(authz.RoleAdministrator)(okHandler(&invoked)))

	res := serve(h, f.request(t, 2))
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "forbidden", decodeReason(t, res))
	assert.False(t, invoked)

	require.Len(t, f.sink.events, 1)
	assert.Equal(t, audit.KindRejection, f.sink.events[0].Kind)
	assert.Equal(t, int64(2), f.sink.events[0].ActorID)
}

func TestExpiredTokenRejectsBeforeResolution(t *testing.T) {
	// Scenario: expired token on a route requiring only authentication.
	f := newGateFixture(t)
	var invoked bool
	h := f.gate.Authenticate(okHandler(&invoked))

	raw, _, err := f.verifier.IssueWithTTL(token.Identity{UserID: 1}, -time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+raw)

	res := serve(h, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, gate.ReasonTokenExpired, decodeReason(t, res))
	assert.False(t, invoked)
	assert.Equal(t, 0, f.resolver.calls, "resolver must not run for a failed token")
}

func TestMissingToken(t *testing.T) {
	f := newGateFixture(t)
	h := f.gate.Authenticate(okHandler(nil))

	res := serve(h, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, gate.ReasonTokenMissing, decodeReason(t, res))
}

func TestInvalidTokenNeverReachesAuthorization(t *testing.T) {
	f := newGateFixture(t)
	var invoked bool
	h := f.gate.Authenticate(f.gate.RequirePermission(authz.PermClientsView)(okHandler(&invoked)))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")

	res := serve(h, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, gate.ReasonTokenMalformed, decodeReason(t, res))
	assert.False(t, invoked)
	assert.Equal(t, 0, f.resolver.calls)
}

func TestSecretaryLacksInvoiceEdit(t *testing.T) {
	// Scenario: secretary holds invoices.view and invoices.create but
	// the route requires invoices.edit.
	f := newGateFixture(t)
	var invoked bool
	h := f.gate.Authenticate(f.gate.RequirePermission(authz.PermInvoicesEdit)(okHandler(&invoked)))

	res := serve(h, f.request(t, 3))
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.False(t, invoked)
}

func TestDeletedPrincipalRejectsAsUnauthenticated(t *testing.T) {
	// Scenario: identity removed from the store after token issuance.
	f := newGateFixture(t)
	h := f.gate.Authenticate(okHandler(nil))

	res := serve(h, f.request(t, 99))
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, gate.ReasonPrincipalNotFound, decodeReason(t, res))
}

func TestResolverTimeoutRejectsAsUnauthenticated(t *testing.T) {
	f := newGateFixture(t)
	f.resolver.err = principal.ErrTimeout
	h := f.gate.Authenticate(okHandler(nil))

	res := serve(h, f.request(t, 1))
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, gate.ReasonAuthError, decodeReason(t, res))
}

func TestResolverPanicNormalizedToUnauthenticated(t *testing.T) {
	f := newGateFixture(t)
	f.resolver.panics = true
	var invoked bool
	h := f.gate.Authenticate(okHandler(&invoked))

	res := serve(h, f.request(t, 1))
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, gate.ReasonAuthError, decodeReason(t, res))
	assert.False(t, invoked)
}

func TestRequireWithoutAuthenticationRejects(t *testing.T) {
	// A permission gate composed without the authentication step must
	// reject rather than evaluate an unverified identity.
	f := newGateFixture(t)
	var invoked bool
	h := f.gate.RequirePermission(authz.PermClientsView)(okHandler(&invoked))

	res := serve(h, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.False(t, invoked)
}

func TestPrincipalAttachedToContext(t *testing.T) {
	f := newGateFixture(t)
	var got *principal.Principal
	h := f.gate.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = gate.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	res := serve(h, f.request(t, 2))
	require.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.ID)
	assert.Equal(t, authz.RoleTechnician, got.Role)
}

func TestGateComposesUnderChi(t *testing.T) {
	f := newGateFixture(t)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(f.gate.Authenticate)
		r.With(f.gate.RequirePermission(authz.PermRepairsManage)).
			Post("/repairs", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusCreated)
			})
	})

	res := serve(r, f.requestFor(t, 2, http.MethodPost, "/repairs"))
	assert.Equal(t, http.StatusCreated, res.Code)

	res = serve(r, f.requestFor(t, 3, http.MethodPost, "/repairs"))
	assert.Equal(t, http.StatusForbidden, res.Code)
}
