package domain

import "encoding/json"

// RoleClaimMap maps role -> organization id -> granted.
type RoleClaimMap map[string]map[string]bool

// Requirement is what a privileged operation demands of the caller.
type Requirement struct {
	Role           string
	OrganizationID string
}

// Authorize reports whether claims grant req. Missing roles, missing
// organizations and nil maps all deny.
func Authorize(claims RoleClaimMap, req Requirement) bool {
	if claims == nil {
		return false
	}
	orgs, ok := claims[req.Role]
	if !ok || orgs == nil {
		return false
	}
	return orgs[req.OrganizationID]
}

// ParseRoleClaims converts the provider's role claim into a RoleClaimMap.
//
// The provider emits {"<role>": {"<orgId>": <value>}} where value is usually
// the organization's domain. A value grants the role when it is truthy. Any
// entry that does not have this shape is dropped.
func ParseRoleClaims(raw json.RawMessage) RoleClaimMap {
	out := RoleClaimMap{}
	if len(raw) == 0 {
		return out
	}

	var roles map[string]json.RawMessage
	if err := json.Unmarshal(raw, &roles); err != nil {
		return out
	}

	for role, rawOrgs := range roles {
		var orgs map[string]any
		if err := json.Unmarshal(rawOrgs, &orgs); err != nil || orgs == nil {
			continue
		}
		granted := make(map[string]bool, len(orgs))
		for org, v := range orgs {
			granted[org] = truthy(v)
		}
		out[role] = granted
	}
	return out
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case map[string]any, []any:
		return true
	default:
		return false
	}
}
