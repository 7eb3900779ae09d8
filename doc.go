// Package accounts implements a user-account service core: registration,
// credential verification, and session continuity via short-lived JWT
// access tokens paired with long-lived rotating refresh tokens.
//
// The package is designed for concurrent server workloads: Service methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// accounts is the public surface. It exposes [Service], [Builder],
// [Config], the [UserProvider] and [FileStorage] integration interfaces,
// and value types. The user-record store and the object store are external
// collaborators reached only through those interfaces; HTTP routing and
// request parsing live with the caller (see examples/http-minimal).
//
// # Session model
//
// A user holds at most one live refresh token. Login overwrites it,
// Refresh rotates it, Logout clears it. A presented refresh token must
// exactly match the stored one — anything else is treated as reuse and
// rejected. Concurrent refreshes for one user are resolved by the store's
// last-write-wins semantics; no in-process locks exist anywhere in this
// package.
package accounts
