// Package visitor describes the identity a transform runs on behalf of. The identity is
// passed explicitly into every transform context; nothing reads it from global state.
package visitor

import (
	"sort"
	"strconv"
	"strings"
)

// Visitor is the read-only caller identity
type Visitor interface {
	// UserID returns the visitor's user id, 0 for guests
	UserID() int64

	// IsIgnoring reports whether the visitor ignores the given user
	IsIgnoring(userID int64) bool

	// HasPermission reports whether the visitor holds a permission such as
	// "conversation.uploadAttachment"
	HasPermission(permission string) bool

	// Fingerprint returns a canonical string covering everything above, equal for
	// visitors that answer every question the same way
	Fingerprint() string
}

// User is a signed-in or guest visitor
type User struct {
	id          int64
	ignored     map[int64]bool
	permissions map[string]bool
}

// Option configures a User
type Option func(*User)

// WithIgnored marks users as ignored by the visitor
func WithIgnored(userIDs ...int64) Option {
	return func(u *User) {
		for _, id := range userIDs {
			u.ignored[id] = true
		}
	}
}

// WithPermissions grants permissions to the visitor
func WithPermissions(permissions ...string) Option {
	return func(u *User) {
		for _, p := range permissions {
			u.permissions[p] = true
		}
	}
}

// New creates a visitor for the given user id
func New(userID int64, opts ...Option) *User {
	u := &User{
		id:          userID,
		ignored:     make(map[int64]bool),
		permissions: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Guest returns a visitor with no identity and no permissions
func Guest() *User {
	return New(0)
}

// UserID implements Visitor
func (u *User) UserID() int64 {
	return u.id
}

// IsGuest reports whether the visitor is signed out
func (u *User) IsGuest() bool {
	return u.id == 0
}

// IsIgnoring implements Visitor
func (u *User) IsIgnoring(userID int64) bool {
	return userID != 0 && u.ignored[userID]
}

// HasPermission implements Visitor
func (u *User) HasPermission(permission string) bool {
	return u.permissions[permission]
}

// Fingerprint implements Visitor
func (u *User) Fingerprint() string {
	ignored := make([]int64, 0, len(u.ignored))
	for id, on := range u.ignored {
		if on && id != 0 {
			ignored = append(ignored, id)
		}
	}
	sort.Slice(ignored, func(i, j int) bool { return ignored[i] < ignored[j] })

	ids := make([]string, len(ignored))
	for i, id := range ignored {
		ids[i] = strconv.FormatInt(id, 10)
	}

	permissions := make([]string, 0, len(u.permissions))
	for p, on := range u.permissions {
		if on {
			permissions = append(permissions, p)
		}
	}
	sort.Strings(permissions)

	return strconv.FormatInt(u.id, 10) +
		";ignored=" + strings.Join(ids, ",") +
		";permissions=" + strings.Join(permissions, ",")
}
