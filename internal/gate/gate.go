// Package gate classifies request paths and decides whether a request may
// proceed, must sign in first, or lacks the role it needs.
package gate

import (
	"context"
	"net/url"
	pathpkg "path"
	"strings"
)

type Class string

const (
	ClassExcluded  Class = "excluded"
	ClassAdmin     Class = "admin"
	ClassProtected Class = "protected"
	ClassAuth      Class = "auth"
	ClassPublic    Class = "public"
	ClassDefault   Class = "default"
)

type Outcome string

const (
	Allow         Outcome = "allow"
	RedirectLogin Outcome = "redirect_login"
	RedirectHome  Outcome = "redirect_home"
)

const (
	LoginPath = "/login"
	HomePath  = "/"

	adminRole = "admin"
)

// Table lists the path prefixes of each route class. Prefixes match whole
// segments: "/admin" covers "/admin" and "/admin/x" but not "/administrator".
// The root "/" only matches exactly.
type Table struct {
	Admin     []string
	Protected []string
	Auth      []string
	Public    []string
	Excluded  []string
}

func DefaultTable() Table {
	return Table{
		Admin:     []string{"/admin"},
		Protected: []string{"/account", "/checkout"},
		Auth:      []string{"/login", "/signup", "/forgot-password", "/update-password"},
		Public:    []string{"/", "/products"},
		Excluded:  []string{"/api", "/auth", "/assets", "/uploads", "/favicon.ico"},
	}
}

// Decision is what the gate tells the caller to do. Location is set for
// redirects only.
type Decision struct {
	Class    Class
	Outcome  Outcome
	Location string
}

// RoleResolver returns the role of the current session. An empty role
// means no profile could be resolved.
type RoleResolver func(ctx context.Context) (string, error)

// Classify returns the route class of path. Admin wins over protected,
// protected over auth, auth over public.
func (t Table) Classify(path string) Class {
	if path == "" {
		path = "/"
	}
	switch {
	case t.excluded(path):
		return ClassExcluded
	case matchAny(t.Admin, path):
		return ClassAdmin
	case matchAny(t.Protected, path):
		return ClassProtected
	case matchAny(t.Auth, path):
		return ClassAuth
	case matchAny(t.Public, path):
		return ClassPublic
	}
	return ClassDefault
}

// Decide evaluates path for a caller with or without a session. resolve is
// called at most once, and only for admin routes when a session exists.
// A resolver error or an empty role is treated as not being an admin.
func (t Table) Decide(ctx context.Context, path string, hasSession bool, resolve RoleResolver) Decision {
	class := t.Classify(path)
	d := Decision{Class: class, Outcome: Allow}

	switch class {
	case ClassAdmin:
		if !hasSession {
			return toLogin(d, path)
		}
		if resolve == nil {
			return toHome(d)
		}
		role, err := resolve(ctx)
		if err != nil || role != adminRole {
			return toHome(d)
		}
	case ClassProtected:
		if !hasSession {
			return toLogin(d, path)
		}
	case ClassAuth:
		if hasSession {
			return toHome(d)
		}
	}
	return d
}

func toLogin(d Decision, path string) Decision {
	d.Outcome = RedirectLogin
	d.Location = LoginRedirect(path)
	return d
}

func toHome(d Decision) Decision {
	d.Outcome = RedirectHome
	d.Location = HomePath
	return d
}

// LoginRedirect builds the login URL that returns to path after sign-in.
// Slashes stay readable: /login?redirect_to=/admin/products.
func LoginRedirect(path string) string {
	v := strings.ReplaceAll(url.QueryEscape(path), "%2F", "/")
	return LoginPath + "?redirect_to=" + v
}

// staticExt lists the file extensions served without a session check.
var staticExt = map[string]bool{
	".css": true, ".js": true, ".map": true, ".ico": true, ".png": true,
	".jpg": true, ".jpeg": true, ".gif": true, ".svg": true, ".webp": true,
	".woff": true, ".woff2": true, ".ttf": true, ".txt": true, ".xml": true,
}

// excluded reports whether path bypasses the gate. Asset files are skipped
// by extension, except under admin and protected prefixes.
func (t Table) excluded(path string) bool {
	if matchAny(t.Excluded, path) {
		return true
	}
	if !staticExt[strings.ToLower(pathpkg.Ext(path))] {
		return false
	}
	return !matchAny(t.Admin, path) && !matchAny(t.Protected, path)
}

func matchAny(prefixes []string, path string) bool {
	for _, p := range prefixes {
		if matchPrefix(p, path) {
			return true
		}
	}
	return false
}

func matchPrefix(prefix, path string) bool {
	if prefix == "/" {
		return path == "/"
	}
	prefix = strings.TrimSuffix(prefix, "/")
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
