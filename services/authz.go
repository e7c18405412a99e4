package services

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"retentionflow-backend/models"
)

const (
	ResourceClients      = "clients"
	ResourceFollowups    = "followups"
	ResourceServiceRules = "service_rules"
	ResourceReports      = "reports"
	ResourceTeam         = "team"

	ActionRead   = "read"
	ActionWrite  = "write"
	ActionManage = "manage"
)

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
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// Authorizer decides what a role may do. Owners inherit every stylist
// permission.
type Authorizer struct {
	enforcer *casbin.Enforcer
}

func NewAuthorizer() (*Authorizer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load RBAC model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize RBAC enforcer: %w", err)
	}

	stylist := string(models.RoleStylist)
	owner := string(models.RoleOwner)
	policies := [][]string{
		{stylist, ResourceClients, ActionRead},
		{stylist, ResourceClients, ActionWrite},
		{stylist, ResourceFollowups, ActionRead},
		{stylist, ResourceFollowups, ActionWrite},
		{stylist, ResourceServiceRules, ActionRead},
		{stylist, ResourceReports, ActionRead},
		{stylist, ResourceTeam, ActionRead},
		{owner, ResourceServiceRules, ActionWrite},
		{owner, ResourceTeam, ActionManage},
	}
	if _, err := enforcer.AddPolicies(policies); err != nil {
		return nil, fmt.Errorf("failed to seed RBAC policies: %w", err)
	}
	if _, err := enforcer.AddGroupingPolicy(owner, stylist); err != nil {
		return nil, fmt.Errorf("failed to seed RBAC roles: %w", err)
	}
	return &Authorizer{enforcer: enforcer}, nil
}

// Allow returns ErrForbidden when role may not perform action on resource.
func (a *Authorizer) Allow(role models.Role, resource, action string) error {
	ok, err := a.enforcer.Enforce(string(role), resource, action)
	if err != nil {
		return fmt.Errorf("RBAC permission check failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s cannot %s %s", ErrForbidden, role, action, resource)
	}
	return nil
}
