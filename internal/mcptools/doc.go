// Package mcptools exposes the calendar as Model Context Protocol tools.
package mcptools
