// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

/*
Package auth verifies credentials and identifies the acting user of a request.

Key Components:

  - Gate: password check with the consecutive-failure lockout state machine
  - JWTManager: HS256 session tokens carrying sub, username and role
  - Middleware: resolves the bearer token into a models.Actor on the request context
  - HashPassword / VerifyPassword: bcrypt helpers shared by user and share passwords

Lockout:

Each failed password check increments the user's failure counter. Reaching the
threshold (3 by default) sets the status to Locked and stamps the lock time.
Inside the lockout window (10 minutes by default) a login is rejected with
models.ErrLockedAccount without looking at the password. Once the window has
passed the attempt is evaluated normally, and a correct password resets the
counter and reactivates the account.

Usage Example:

	gate := auth.NewGate(db, cfg.Security, bus)
	user, err := gate.CheckCredentials(ctx, username, password, auth.ClientMeta{IP: ip})
	if errors.Is(err, models.ErrLockedAccount) {
	    // 423
	}
	token, expires, err := jwtManager.GenerateToken(user)
*/
package auth
