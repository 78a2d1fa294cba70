// Package auth mints and verifies database auth tokens.
//
// The realtime database accepts a signed JWT through the auth query
// parameter; its payload carries the authenticated identity under the
// "d" claim, which security rules evaluate. A Minter signs such tokens
// with the database secret; TokenProvider abstracts where a client
// gets its token from (a static secret, a minter, or elsewhere).
package auth
