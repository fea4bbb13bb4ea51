// Package token provides the digest and key primitives shared by sampleapp.
//
// - SHA-256 hex digests back the salted password scheme in package identity.
// - HMAC-SHA256 hex digests are available for keyed fingerprints.
// - DeriveKey expands the session secret into purpose-bound subkeys (HKDF-SHA256),
//   so the remember-token signer never uses the raw secret directly.
//
// Environment:
// - SAMPLEAPP_SESSION_SECRET: the master secret for cookie signing.
package token
