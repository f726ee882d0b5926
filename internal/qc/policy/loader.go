package policy

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed policies/*.yaml
var policiesFS embed.FS

// Loader loads policy configurations from embedded YAML files
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

// LoadRolePermissions loads the role grant table
func (l *Loader) LoadRolePermissions() (RolePermissions, error) {
	data, err := policiesFS.ReadFile("policies/roles.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read roles.yaml: %w", err)
	}

	var file rolesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse roles.yaml: %w", err)
	}
	return file.Roles, nil
}

// LoadRoutePolicies loads route guards keyed by "METHOD:path"
func (l *Loader) LoadRoutePolicies() (map[string]*RoutePolicy, error) {
	data, err := policiesFS.ReadFile("policies/routes.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read routes.yaml: %w", err)
	}

	var file routesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse routes.yaml: %w", err)
	}

	routes := make(map[string]*RoutePolicy, len(file.Routes))
	for _, r := range file.Routes {
		switch r.Access {
		case AccessPublic, AccessAuthenticated:
		case AccessPermission:
			if r.Permission == "" {
				return nil, fmt.Errorf("route %s: permission access without a permission", r.Route)
			}
		default:
			return nil, fmt.Errorf("route %s: unknown access %q", r.Route, r.Access)
		}
		if _, dup := routes[r.Route]; dup {
			return nil, fmt.Errorf("route %s declared twice", r.Route)
		}
		routes[r.Route] = r
	}
	return routes, nil
}
