package policy

// Access defines how a route is guarded
type Access string

const (
	AccessPublic        Access = "public"        // No credential needed
	AccessAuthenticated Access = "authenticated" // Any valid bearer token
	AccessPermission    Access = "permission"    // Bearer token whose role grants Permission
)

// RoutePolicy guards one registered route
type RoutePolicy struct {
	Route      string `yaml:"route"` // "METHOD:path"
	Access     Access `yaml:"access"`
	Permission string `yaml:"permission,omitempty"`
}

type routesFile struct {
	Routes []*RoutePolicy `yaml:"routes"`
}

// RolePermissions maps role names to their permissions
type RolePermissions map[string][]string

type rolesFile struct {
	Roles RolePermissions `yaml:"roles"`
}
