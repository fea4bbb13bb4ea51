// Package session implements sampleapp's cookie session.
//
// A signed-in browser carries one durable cookie, remember_token, whose
// payload is the user's (id, salt) pair signed as an HS256 JWT. On each
// request the current identity is resolved lazily, at most once, by
// re-authenticating that pair against the credential store. SignIn and
// SignOut set the request's identity directly.
//
// There is no server-side session state. Changing a user's salt is the only
// way to invalidate outstanding cookies, and salts never change.
package session
