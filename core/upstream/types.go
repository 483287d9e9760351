package upstream

import (
	"errors"
	"fmt"
)

var (
	// ErrCredentialInvalid means the upstream rejected the credential.
	ErrCredentialInvalid = errors.New("upstream credential invalid")
	// ErrMalformedResponse means the upstream answered with an undecodable body.
	ErrMalformedResponse = errors.New("upstream response malformed")
)

// RoleSummary is one entry of the account roster.
type RoleSummary struct {
	RoleID         int    `json:"roleId"`
	RoleName       string `json:"roleName"`
	Level          int    `json:"level"`
	ChainUnlockNum *int   `json:"chainUnlockNum"`
}

// RoleList is the account roster.
type RoleList struct {
	RoleList []RoleSummary `json:"roleList"`
	// ShowRoleIDList is the public showcase, visible to non-owner credentials.
	ShowRoleIDList []int `json:"showRoleIdList"`
}

// Roster returns every role id the list mentions, roster first then showcase,
// without duplicates.
func (r *RoleList) Roster() []string {
	out := make([]string, 0, len(r.RoleList)+len(r.ShowRoleIDList))
	seen := make(map[string]struct{}, cap(out))
	add := func(id int) {
		key := fmt.Sprint(id)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	for _, role := range r.RoleList {
		add(role.RoleID)
	}
	for _, id := range r.ShowRoleIDList {
		add(id)
	}
	return out
}

// ChainUnlocks maps role id to the account-reported chain unlock count.
// Roles without a reported count are omitted.
func (r *RoleList) ChainUnlocks() map[string]int {
	out := make(map[string]int, len(r.RoleList))
	for _, role := range r.RoleList {
		if role.ChainUnlockNum != nil {
			out[fmt.Sprint(role.RoleID)] = *role.ChainUnlockNum
		}
	}
	return out
}

// Failure is a typed upstream error.
type Failure struct {
	Code    int
	Message string
	// RoleID is set for per-character failures.
	RoleID string
	invalid bool
}

func (f *Failure) Error() string {
	if f.RoleID != "" {
		return fmt.Sprintf("upstream failure for role %s: code=%d msg=%s", f.RoleID, f.Code, f.Message)
	}
	return fmt.Sprintf("upstream failure: code=%d msg=%s", f.Code, f.Message)
}

// Unwrap lets errors.Is match ErrCredentialInvalid.
func (f *Failure) Unwrap() error {
	if f.invalid {
		return ErrCredentialInvalid
	}
	return nil
}
