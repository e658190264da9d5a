// Package google builds the OAuth2 configuration used to authorize access to a
// user's Google Calendar and provides token sources for callers that hold a
// refresh token, such as the stdio MCP server.
package google
