package calendar

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/teemow/calhighlight/internal/instrumentation"
)

// Provider names.
const (
	ProviderGoogle  = "google"
	ProviderOutlook = "outlook"
	ProviderApple   = "apple"

	DefaultProvider = ProviderGoogle
)

// CalendarProvider is implemented by every calendar backend.
type CalendarProvider interface {
	// Name returns the registry key, e.g. "google".
	Name() string

	// AuthURL returns the authorization URL the user is sent to.
	AuthURL(state string) string

	// ExchangeCode trades an authorization code for tokens.
	ExchangeCode(ctx context.Context, code string) (TokenSet, error)

	// Refresh mints a new access token from a refresh token.
	Refresh(ctx context.Context, refreshToken string) (TokenSet, error)

	// ListAppointments returns the events overlapping [start, end], with
	// recurring events expanded and ordered by start time.
	ListAppointments(ctx context.Context, start, end time.Time, accessToken string) ([]Appointment, error)

	// UpdateColor sets the color of one event.
	UpdateColor(ctx context.Context, eventID, colorID, accessToken string) (Appointment, error)

	// Colors returns the event color palette.
	Colors(ctx context.Context, accessToken string) (Palette, error)
}

// sessionForgetter is implemented by providers that keep per-session state.
type sessionForgetter interface {
	Forget(accessToken string)
}

// Registry maps provider names to gateways. Names are case-insensitive.
type Registry struct {
	mu       sync.RWMutex
	gateways map[string]*Gateway
	catalog  Catalog
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
}

// NewRegistry creates an empty registry backed by catalog.
func NewRegistry(catalog Catalog, metrics *instrumentation.Metrics, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		gateways: make(map[string]*Gateway),
		catalog:  catalog,
		metrics:  metrics,
		logger:   logger,
	}
}

// Register adds a provider, replacing any previous one with the same name.
func (r *Registry) Register(p CalendarProvider) *Gateway {
	gw := NewGateway(p, r.metrics, r.logger)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.gateways[strings.ToLower(p.Name())] = gw
	return gw
}

// Lookup returns the gateway for name. An empty name selects
// DefaultProvider. Names that are cataloged but not registered yield
// ErrProviderNotImplemented; anything else yields ErrUnknownProvider.
func (r *Registry) Lookup(name string) (*Gateway, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultProvider
	}

	r.mu.RLock()
	gw, ok := r.gateways[key]
	r.mu.RUnlock()
	if ok {
		return gw, nil
	}

	if _, known := r.catalog.Find(key); known {
		return nil, ErrProviderNotImplemented
	}
	return nil, ErrUnknownProvider
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Catalog returns the provider catalog with each entry's Implemented flag
// reflecting what is actually registered.
func (r *Registry) Catalog() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ProviderInfo, 0, len(r.catalog.Providers))
	for _, info := range r.catalog.Providers {
		_, info.Implemented = r.gateways[strings.ToLower(info.Name)]
		out = append(out, info)
	}
	return out
}
