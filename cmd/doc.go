// Package cmd implements the command-line interface for calhighlight.
//
// This package provides the following commands:
//   - serve: Start the calendar assistant HTTP API
//   - mcp: Serve the calendar tools over MCP stdio
//   - generate-docs: Generate markdown documentation for the MCP tools
//   - version: Display version information
//
// A .env file in the working directory is loaded before any command runs.
package cmd
