// Package session keeps the user's calendar tokens in an encrypted cookie.
//
// The cookie value is the JSON session data sealed with AES-256-GCM under a
// key derived from the configured session secret with HKDF-SHA256, encoded
// as unpadded base64url. A cookie that fails to decode or authenticate is
// treated as an empty, logged-out session.
package session
