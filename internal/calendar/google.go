package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/calhighlight/internal/google"
	"github.com/teemow/calhighlight/internal/logging"
)

const primaryCalendar = "primary"

// defaultTokenLifetime is assumed when the token endpoint omits expires_in.
const defaultTokenLifetime = time.Hour

// GoogleProvider implements CalendarProvider for Google Calendar.
type GoogleProvider struct {
	oauth      *oauth2.Config
	colors     *ColorCache
	httpClient *http.Client
	endpoint   string
	logger     *slog.Logger
	now        func() time.Time
}

// GoogleOption configures a GoogleProvider.
type GoogleOption func(*GoogleProvider)

// WithColorCache sets the palette cache.
func WithColorCache(c *ColorCache) GoogleOption {
	return func(p *GoogleProvider) { p.colors = c }
}

// WithHTTPClient sets the base HTTP client for API and token requests.
func WithHTTPClient(c *http.Client) GoogleOption {
	return func(p *GoogleProvider) { p.httpClient = c }
}

// WithAPIEndpoint overrides the Calendar API base URL.
func WithAPIEndpoint(url string) GoogleOption {
	return func(p *GoogleProvider) { p.endpoint = url }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) GoogleOption {
	return func(p *GoogleProvider) { p.logger = l }
}

// NewGoogleProvider creates a Google Calendar provider for the OAuth client conf.
func NewGoogleProvider(conf *oauth2.Config, opts ...GoogleOption) *GoogleProvider {
	p := &GoogleProvider{
		oauth:  conf,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.colors == nil {
		p.colors = NewColorCache(DefaultColorTTL)
	}
	if p.httpClient == nil {
		// Force HTTP/1.1 by disabling HTTP/2
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.ForceAttemptHTTP2 = false
		p.httpClient = &http.Client{Transport: transport}
	}
	return p
}

// Name returns "google".
func (p *GoogleProvider) Name() string {
	return ProviderGoogle
}

// AuthURL returns the consent URL with offline access and a forced consent
// prompt, so a refresh token is always issued.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.oauth.AuthCodeURL(state, google.AuthCodeOptions()...)
}

// ExchangeCode trades an authorization code for tokens. Both an access and
// a refresh token are required.
func (p *GoogleProvider) ExchangeCode(ctx context.Context, code string) (TokenSet, error) {
	tok, err := p.oauth.Exchange(google.WithHTTPClient(ctx, p.httpClient), code)
	if err != nil {
		return TokenSet{}, fmt.Errorf("%w: %v", ErrAuthExchange, err)
	}
	if tok.AccessToken == "" {
		return TokenSet{}, fmt.Errorf("%w: no access token received", ErrAuthExchange)
	}
	if tok.RefreshToken == "" {
		return TokenSet{}, fmt.Errorf("%w: no refresh token received", ErrAuthExchange)
	}
	return p.tokenSet(tok), nil
}

// Refresh mints a new access token. The refresh token is carried over when
// Google does not rotate it.
func (p *GoogleProvider) Refresh(ctx context.Context, refreshToken string) (TokenSet, error) {
	if refreshToken == "" {
		return TokenSet{}, fmt.Errorf("%w: no refresh token", ErrAuthRefresh)
	}
	src := p.oauth.TokenSource(google.WithHTTPClient(ctx, p.httpClient), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return TokenSet{}, fmt.Errorf("%w: %v", ErrAuthRefresh, err)
	}
	if tok.AccessToken == "" {
		return TokenSet{}, fmt.Errorf("%w: no access token received", ErrAuthRefresh)
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	return p.tokenSet(tok), nil
}

// ListAppointments lists the primary calendar in [start, end]. A palette
// that cannot be fetched is logged and the appointments are returned
// without colors.
func (p *GoogleProvider) ListAppointments(ctx context.Context, start, end time.Time, accessToken string) ([]Appointment, error) {
	svc, err := p.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	palette, err := p.palette(ctx, svc, accessToken)
	if err != nil {
		p.logger.Warn("failed to fetch color palette",
			logging.Provider(ProviderGoogle),
			logging.Session(accessToken),
			logging.Err(err))
		palette = nil
	}

	call := svc.Events.List(primaryCalendar).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")

	var appts []Appointment
	err = call.Pages(ctx, func(events *calendar.Events) error {
		for _, item := range events.Items {
			appts = append(appts, toAppointment(item, palette))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	if appts == nil {
		appts = []Appointment{}
	}
	return appts, nil
}

// UpdateColor validates colorID against the palette and patches the event.
func (p *GoogleProvider) UpdateColor(ctx context.Context, eventID, colorID, accessToken string) (Appointment, error) {
	svc, err := p.service(ctx, accessToken)
	if err != nil {
		return Appointment{}, err
	}

	palette, err := p.palette(ctx, svc, accessToken)
	if err != nil {
		return Appointment{}, fmt.Errorf("failed to fetch color palette: %w", err)
	}
	if !palette.Has(colorID) {
		return Appointment{}, &InvalidColorError{ID: colorID, Valid: palette.IDs()}
	}

	event, err := svc.Events.Patch(primaryCalendar, eventID, &calendar.Event{ColorId: colorID}).Context(ctx).Do()
	if err != nil {
		return Appointment{}, fmt.Errorf("failed to update event color: %w", err)
	}
	return toAppointment(event, palette), nil
}

// Colors returns the event color palette.
func (p *GoogleProvider) Colors(ctx context.Context, accessToken string) (Palette, error) {
	svc, err := p.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return p.palette(ctx, svc, accessToken)
}

// Forget drops the cached palette for accessToken.
func (p *GoogleProvider) Forget(accessToken string) {
	p.colors.Invalidate(logging.Fingerprint(accessToken))
}

func (p *GoogleProvider) palette(ctx context.Context, svc *calendar.Service, accessToken string) (Palette, error) {
	key := logging.Fingerprint(accessToken)
	if cached, ok := p.colors.Get(key); ok {
		return cached, nil
	}

	colors, err := svc.Colors.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get colors: %w", err)
	}

	palette := make(Palette, len(colors.Event))
	for id, def := range colors.Event {
		palette[id] = Color{ID: id, Background: def.Background, Foreground: def.Foreground}
	}
	p.colors.Put(key, palette)
	return palette, nil
}

func (p *GoogleProvider) service(ctx context.Context, accessToken string) (*calendar.Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	client := oauth2.NewClient(google.WithHTTPClient(ctx, p.httpClient), ts)

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if p.endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.endpoint))
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return svc, nil
}

func (p *GoogleProvider) tokenSet(tok *oauth2.Token) TokenSet {
	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = p.now().Add(defaultTokenLifetime)
	}
	return TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       expiry,
	}
}
