package api

import (
	"fmt"
	"log"
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/warp/project-engine/ledger"
)

// rbacModel matches (role, path, method). Paths use keyMatch2 patterns
// ("/api/projects/:id"); "*" as action allows every method.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// memberRole is the group every authenticated role belongs to.
const memberRole = "member"

// routePolicies lists who may call what. The service layer still checks
// ownership; these rules only decide whether a role may reach a route.
var routePolicies = [][]string{
	// Everyone
	{memberRole, "/api/users/:id", "GET"},
	{memberRole, "/api/users/:id/earnings", "GET"},
	{memberRole, "/api/projects", "GET"},
	{memberRole, "/api/projects/:id", "GET"},
	{memberRole, "/api/assignments/mine", "GET"},
	{memberRole, "/api/assignments/:id", "GET"},
	{memberRole, "/api/payments", "GET"},
	{memberRole, "/api/payments/:id", "GET"},
	{memberRole, "/api/notifications", "GET"},
	{memberRole, "/api/notifications/*", "*"},
	{memberRole, "/api/scenarios", "GET"},

	// Employees
	{string(ledger.RoleEmployee), "/api/assignments/:id/accept", "POST"},
	{string(ledger.RoleEmployee), "/api/assignments/:id/reject", "POST"},
	{string(ledger.RoleEmployee), "/api/assignments/:id/submit", "POST"},
	{string(ledger.RoleEmployee), "/api/assignments/:id/payment-request", "POST"},
	{string(ledger.RoleEmployee), "/api/payments/:id/confirm", "POST"},

	// Managers
	{string(ledger.RoleManager), "/api/users", "GET"},
	{string(ledger.RoleManager), "/api/projects", "POST"},
	{string(ledger.RoleManager), "/api/projects/:id/tracking", "PUT"},
	{string(ledger.RoleManager), "/api/projects/:id/assignments", "*"},
	{string(ledger.RoleManager), "/api/projects/:id/payments", "GET"},
	{string(ledger.RoleManager), "/api/assignments/:id", "DELETE"},
	{string(ledger.RoleManager), "/api/assignments/:id/verify", "POST"},
	{string(ledger.RoleManager), "/api/assignments/:id/reject-work", "POST"},
	{string(ledger.RoleManager), "/api/assignments/:id/revision", "POST"},
	{string(ledger.RoleManager), "/api/assignments/:id/tracking", "PUT"},
	{string(ledger.RoleManager), "/api/payments", "POST"},
	{string(ledger.RoleManager), "/api/payments/:id/approve", "POST"},
	{string(ledger.RoleManager), "/api/payments/:id/reject", "POST"},
	{string(ledger.RoleManager), "/api/payments/:id/mark-paid", "POST"},
	{string(ledger.RoleManager), "/api/finance/*", "GET"},

	// Admins (also inherit manager)
	{string(ledger.RoleAdmin), "/api/users", "POST"},
	{string(ledger.RoleAdmin), "/api/scenarios/load", "POST"},
}

var roleGroups = [][]string{
	{string(ledger.RoleEmployee), memberRole},
	{string(ledger.RoleManager), memberRole},
	{string(ledger.RoleAdmin), string(ledger.RoleManager)},
}

// Authorizer decides route access by role.
type Authorizer struct {
	enforcer *casbin.Enforcer
}

// NewAuthorizer builds the enforcer from the built-in model and policies.
func NewAuthorizer() (*Authorizer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("authz model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz enforcer: %w", err)
	}
	for _, p := range routePolicies {
		if _, err := e.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, fmt.Errorf("authz policy %v: %w", p, err)
		}
	}
	for _, g := range roleGroups {
		if _, err := e.AddGroupingPolicy(g[0], g[1]); err != nil {
			return nil, fmt.Errorf("authz group %v: %w", g, err)
		}
	}
	return &Authorizer{enforcer: e}, nil
}

// Allowed reports whether role may call method on path.
func (a *Authorizer) Allowed(role ledger.Role, path, method string) (bool, error) {
	return a.enforcer.Enforce(string(role), path, method)
}

// Middleware answers 403 for routes the actor's role cannot reach.
// It must run after Sessions.Authenticate.
func (a *Authorizer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok {
			writeFailure(w, http.StatusUnauthorized, "Authentication required", nil)
			return
		}
		method := r.Method
		if method == http.MethodHead {
			method = http.MethodGet
		}
		allowed, err := a.Allowed(actor.Role, r.URL.Path, method)
		if err != nil {
			log.Printf("[Authz] Enforce failed for %s %s: %v", method, r.URL.Path, err)
			writeFailure(w, http.StatusInternalServerError, "Authorization failed", err)
			return
		}
		if !allowed {
			writeFailure(w, http.StatusForbidden, "You do not have permission to perform this action", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
