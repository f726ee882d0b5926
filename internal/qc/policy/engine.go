package policy

import (
	"fmt"
	"sort"

	"qcportal/internal/qc/model"
)

// Engine is the central policy engine for permission checking
type Engine struct {
	rolePerms map[string]map[string]bool
	routes    map[string]*RoutePolicy
}

// NewEngine creates a new policy Engine from the embedded policy files
func NewEngine() (*Engine, error) {
	loader := NewLoader()

	rolePerms, err := loader.LoadRolePermissions()
	if err != nil {
		return nil, fmt.Errorf("failed to load role permissions: %w", err)
	}

	routes, err := loader.LoadRoutePolicies()
	if err != nil {
		return nil, fmt.Errorf("failed to load route policies: %w", err)
	}

	engine := &Engine{
		rolePerms: make(map[string]map[string]bool, len(rolePerms)),
		routes:    routes,
	}
	for role, perms := range rolePerms {
		if !model.AllowedRoles[role] {
			return nil, fmt.Errorf("unknown role in policy: %s", role)
		}
		set := make(map[string]bool, len(perms))
		for _, p := range perms {
			set[p] = true
		}
		engine.rolePerms[role] = set
	}

	return engine, nil
}

// HasPermission reports whether role grants permission
func (e *Engine) HasPermission(role, permission string) bool {
	return e.rolePerms[role][permission]
}

// Route returns the guard for "METHOD:path", if one is declared
func (e *Engine) Route(method, path string) (*RoutePolicy, bool) {
	r, ok := e.routes[method+":"+path]
	return r, ok
}

// Routes returns every declared route key, sorted
func (e *Engine) Routes() []string {
	keys := make([]string, 0, len(e.routes))
	for k := range e.routes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetRolesWithPermission returns roles that have the given permission
func (e *Engine) GetRolesWithPermission(permission string) []string {
	var roles []string
	for role, perms := range e.rolePerms {
		if perms[permission] {
			roles = append(roles, role)
		}
	}
	sort.Strings(roles)
	return roles
}
