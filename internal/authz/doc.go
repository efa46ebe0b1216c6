// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

/*
Package authz gates HTTP route families by role using Casbin.

It answers one question: may a role reach this family of routes at all?
Whether an actor may read a particular folder is decided afterwards by
internal/permission, which knows about creators, public folders and
grants.

# Model

The embedded model is plain RBAC with keyMatch on the object:

	p = sub, obj, act
	g = _, _
	m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && (p.act == "*" || r.act == p.act)

Subjects are the role names returned by models.Role.AuthzRole ("admin" or
"user"). The admin role inherits the user role, and additionally owns the
"admin/*" objects.

# Usage

	enf, err := authz.NewEnforcer(nil)
	mw := authz.NewMiddleware(enf, deny)

	r.With(mw.Require("admin/users", authz.ActionWrite)).Post("/admin/users", h.CreateUser)

A policy file can replace the embedded policy through EnforcerConfig.PolicyPath.
*/
package authz
