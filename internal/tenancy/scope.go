// Package tenancy centralises the branch scoping every repository applies.
// A Scope is derived from the request principal each time; authorization
// decisions are never cached across requests.
package tenancy

import (
	"fmt"

	"github.com/academica-erp/academica/internal/shared"
)

// Scope constrains queries and writes to the caller's branch. Super admins
// carry an unrestricted scope, optionally narrowed to an explicit branch.
type Scope struct {
	branchID int64
	all      bool
}

// For derives the scope for a principal.
func For(p *shared.Principal) Scope {
	if p.IsSuperAdmin() {
		return Scope{all: true}
	}
	return Scope{branchID: p.BranchID}
}

// ForBranch pins a scope to one branch outside any request, for workers
// and fan-out paths that act on a record's own branch attribution.
func ForBranch(branchID int64) Scope {
	return Scope{branchID: branchID}
}

// WithBranchFilter narrows an unrestricted scope to one branch. For scoped
// principals the caller-supplied filter is ignored; their own branch always
// wins.
func (s Scope) WithBranchFilter(branchID int64) Scope {
	if s.all && branchID > 0 {
		return Scope{branchID: branchID}
	}
	return s
}

// Unrestricted reports whether the scope spans all branches.
func (s Scope) Unrestricted() bool {
	return s.all
}

// BranchID returns the branch the scope is pinned to, zero when unrestricted.
func (s Scope) BranchID() int64 {
	return s.branchID
}

// Apply appends the branch predicate for column to a WHERE clause under
// construction. Unrestricted scopes add nothing.
func (s Scope) Apply(column string, where []string, args []any) ([]string, []any) {
	if s.all && s.branchID == 0 {
		return where, args
	}
	args = append(args, s.branchID)
	return append(where, fmt.Sprintf("%s = $%d", column, len(args))), args
}

// Allows reports whether a record attributed to branchID is visible.
func (s Scope) Allows(branchID int64) bool {
	if s.all && s.branchID == 0 {
		return true
	}
	return s.branchID == branchID
}

// BranchForCreate resolves the branch a new record is stamped with. Scoped
// creators always get their own branch, regardless of what the client sent;
// unrestricted creators must name one explicitly.
func (s Scope) BranchForCreate(requested int64) (int64, error) {
	if !s.all {
		return s.branchID, nil
	}
	if s.branchID != 0 {
		return s.branchID, nil
	}
	if requested <= 0 {
		return 0, shared.ValidationError("branch_id is required")
	}
	return requested, nil
}
