// Package server provides the calendar assistant's HTTP API.
//
// # Routes
//
// Calendar routes under /api/calendar list appointments, change event
// colors and run the OAuth code exchange for API clients. The assistant
// routes (chat, suggest-categories, categorize-events) forward to the
// chat and categories packages and answer 503 when no model is configured.
// Browser clients log in through /auth/login and /auth/callback, which keep
// the provider tokens in a sealed session cookie.
//
// Every route resolves its provider from ?provider or the
// X-Calendar-Provider header, and its access token from the Authorization
// header or, failing that, the session cookie.
//
// # Middleware
//
// Requests pass through request id assignment, panic recovery, access
// logging with metrics, security headers, CORS and the optional API key
// check. /api/ routes are additionally rate limited per client IP.
//
// Errors are rendered as {"success": false, "error": ..., "details": ...}
// by APIError.
package server
