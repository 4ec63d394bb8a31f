// Package auth signs storefront users in against the identity provider and
// keeps the current session.
//
// IdentityClient speaks the Identity Toolkit REST API (password sign-in,
// sign-up and token refresh). Sessions are persisted as TOML next to the
// other stall files with owner-only permissions. A Watcher holds the
// signed-in user for the running program and notifies subscribers on
// sign-in and sign-out; RequireSession guards the screens that post or
// manage listings.
package auth
