// Package identity implements sampleapp's credential store and authenticator.
//
// It owns the User entity, field validation, the salted password digest,
// the Store persistence boundary (Postgres and in-memory), and the
// Authenticator used by the session layer.
package identity
