// Package auth implements the identity, session, and single-use-token core
// of the platform: registration and password authentication, signed bearer
// tokens, opaque stored sessions, password-reset and email-verification
// tokens, and a static role/permission matrix.
//
// Account lifecycle:
//   - Users carry a UserStatus persisted via Bun. Registration creates
//     pending, unverified accounts; the transition graph in lifecycle.go
//     governs activation, suspension, and bans. is_email_verified moves
//     false -> true exactly once, only through verification token
//     consumption.
//
// Single-use tokens:
//   - Reset and verification tokens live in one table and are spent through
//     a conditional delete inside a transaction, so concurrent consumption
//     attempts on the same token admit exactly one winner. Reading a token
//     and checking expiry in application code before deleting it would
//     reintroduce the double-spend race and is never done here.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by the managers to
//     describe registration, login, password, and verification events.
//     Sinks run best-effort (errors are logged) so you can forward to a
//     database or queue without blocking authentication.
package auth
