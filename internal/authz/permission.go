// Package authz defines the permission vocabulary and grant-checking rules
// shared by the server and the client session cache.
package authz

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Action is the verb half of a permission.
type Action string

// Subject is the noun half of a permission.
type Subject string

// Known actions.
const (
	ActionCreate  Action = "create"
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionManage  Action = "manage"
	ActionPublish Action = "publish"
	ActionView    Action = "view"
)

// Known subjects.
const (
	SubjectService      Subject = "service"
	SubjectNews         Subject = "news"
	SubjectJob          Subject = "job"
	SubjectUser         Subject = "user"
	SubjectRole         Subject = "role"
	SubjectContainer    Subject = "container"
	SubjectSettings     Subject = "settings"
	SubjectSystemConfig Subject = "system-config"
	SubjectDashboard    Subject = "dashboard"
	SubjectAll          Subject = "all"
)

// ReservedRoleName is the administrator role. It always resolves to the
// wildcard permission and cannot be edited or deleted.
const ReservedRoleName = "admin"

// ErrInvalidPermission indicates a string that does not parse as
// "action:subject".
var ErrInvalidPermission = errors.New("authz: invalid permission")

// Permission is an immutable (action, subject) pair. Identity is the pair
// itself, never a surrogate key.
type Permission struct {
	Action  Action
	Subject Subject
}

// ManageAll is the global wildcard: every action on every subject.
var ManageAll = Permission{Action: ActionManage, Subject: SubjectAll}

// String renders the external "action:subject" form.
func (p Permission) String() string {
	return string(p.Action) + ":" + string(p.Subject)
}

// Parse converts the external "action:subject" form back into a Permission.
// Round-trips losslessly with String.
func Parse(s string) (Permission, error) {
	action, subject, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || action == "" || subject == "" {
		return Permission{}, fmt.Errorf("%w: %q", ErrInvalidPermission, s)
	}
	return Permission{Action: Action(action), Subject: Subject(subject)}, nil
}

// MustParse is Parse for compile-time constants in tests and route tables.
func MustParse(s string) Permission {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Mode selects how a multi-permission requirement is evaluated.
type Mode int

const (
	// ModeAny grants when at least one required permission is held.
	ModeAny Mode = iota
	// ModeAll grants only when every required permission is held.
	ModeAll
)

// Set is a held permission set. The zero value is an empty set that grants
// nothing.
type Set map[Permission]struct{}

// NewSet builds a Set from individual permissions.
func NewSet(perms ...Permission) Set {
	s := make(Set, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// SetFromStrings parses external permission strings into a Set.
func SetFromStrings(strs []string) (Set, error) {
	s := make(Set, len(strs))
	for _, raw := range strs {
		p, err := Parse(raw)
		if err != nil {
			return nil, err
		}
		s[p] = struct{}{}
	}
	return s, nil
}

// Has reports whether p is granted: either the global wildcard is held or
// the exact pair is present. There is no partial-wildcard matching;
// (manage, service) does not imply (read, service).
func (s Set) Has(p Permission) bool {
	if _, ok := s[ManageAll]; ok {
		return true
	}
	_, ok := s[p]
	return ok
}

// HasAny reports whether at least one of the required permissions is granted.
func (s Set) HasAny(required ...Permission) bool {
	for _, p := range required {
		if s.Has(p) {
			return true
		}
	}
	return false
}

// HasAll reports whether every required permission is granted.
func (s Set) HasAll(required ...Permission) bool {
	for _, p := range required {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

// Check evaluates a composite requirement under the given mode. An empty
// requirement is vacuously granted.
func (s Set) Check(required []Permission, mode Mode) bool {
	if len(required) == 0 {
		return true
	}
	if mode == ModeAll {
		return s.HasAll(required...)
	}
	return s.HasAny(required...)
}

// Strings returns the sorted external form of the set, for API payloads.
func (s Set) Strings() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p.String())
	}
	sort.Strings(out)
	return out
}

// Record is the resolved authorization snapshot derived from a valid token:
// identity, role, and the flattened permission set. It is a cache, never the
// source of truth; it can go stale relative to server-side role edits until
// the next resolution.
type Record struct {
	UserID      int64
	Username    string
	RoleID      int64
	RoleName    string
	Permissions Set
}
