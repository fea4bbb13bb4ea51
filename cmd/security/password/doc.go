// Package password holds the password policy for sampleapp accounts.
//
// Hashing lives in package identity (salted SHA-256, fixed by the stored
// data format); this package only decides whether a submitted password and
// its confirmation are acceptable.
package password
