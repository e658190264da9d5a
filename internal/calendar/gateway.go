package calendar

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/calhighlight/internal/instrumentation"
	"github.com/teemow/calhighlight/internal/logging"
)

// Gateway wraps a CalendarProvider with the single-day convenience, spans
// and metrics. It is safe for concurrent use when the provider is.
type Gateway struct {
	provider CalendarProvider
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
}

// NewGateway wraps p. A nil metrics recorder disables metrics.
func NewGateway(p CalendarProvider, metrics *instrumentation.Metrics, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		provider: p,
		metrics:  metrics,
		logger:   logging.WithProvider(logger, p.Name()),
	}
}

// Name returns the wrapped provider's name.
func (g *Gateway) Name() string {
	return g.provider.Name()
}

// AuthURL returns the provider authorization URL.
func (g *Gateway) AuthURL(state string) string {
	return g.provider.AuthURL(state)
}

// ExchangeCode trades an authorization code for tokens.
func (g *Gateway) ExchangeCode(ctx context.Context, code string) (TokenSet, error) {
	ctx, span := instrumentation.StartProviderSpan(ctx, g.Name(), instrumentation.OperationExchange)
	start := time.Now()

	tokens, err := g.provider.ExchangeCode(ctx, code)

	g.record(ctx, instrumentation.OperationExchange, start, err)
	g.metrics.RecordOAuthAuth(ctx, g.Name(), oauthResult(err))
	instrumentation.EndSpan(span, err)
	return tokens, err
}

// Refresh mints a new access token.
func (g *Gateway) Refresh(ctx context.Context, refreshToken string) (TokenSet, error) {
	ctx, span := instrumentation.StartProviderSpan(ctx, g.Name(), instrumentation.OperationRefresh)
	start := time.Now()

	tokens, err := g.provider.Refresh(ctx, refreshToken)

	g.record(ctx, instrumentation.OperationRefresh, start, err)
	g.metrics.RecordOAuthTokenRefresh(ctx, g.Name(), oauthResult(err))
	instrumentation.EndSpan(span, err)
	return tokens, err
}

// ListAppointments returns the appointments in [start, end]. When start and
// end are the same instant the window is widened to that whole local day.
func (g *Gateway) ListAppointments(ctx context.Context, start, end time.Time, accessToken string) ([]Appointment, error) {
	if start.Equal(end) {
		start, end = StartOfDay(start), EndOfDay(start)
	}

	ctx, span := instrumentation.StartProviderSpan(ctx, g.Name(), instrumentation.OperationList)
	began := time.Now()

	appts, err := g.provider.ListAppointments(ctx, start, end, accessToken)

	g.record(ctx, instrumentation.OperationList, began, err)
	span.SetAttributes(attribute.Int(instrumentation.SpanAttrEventCount, len(appts)))
	instrumentation.EndSpan(span, err)

	if err != nil {
		g.logger.Warn("failed to list appointments",
			logging.Operation(instrumentation.OperationList),
			logging.Session(accessToken),
			logging.Err(err))
		return nil, err
	}

	g.logger.Debug("listed appointments",
		logging.Operation(instrumentation.OperationList),
		logging.Session(accessToken),
		slog.Int("count", len(appts)),
		logging.Range(start, end))
	return appts, nil
}

// UpdateColor sets the color of one appointment.
func (g *Gateway) UpdateColor(ctx context.Context, eventID, colorID, accessToken string) (Appointment, error) {
	ctx, span := instrumentation.StartProviderSpan(ctx, g.Name(), instrumentation.OperationUpdateColor,
		attribute.String(instrumentation.SpanAttrEventID, eventID))
	start := time.Now()

	appt, err := g.provider.UpdateColor(ctx, eventID, colorID, accessToken)

	g.record(ctx, instrumentation.OperationUpdateColor, start, err)
	instrumentation.EndSpan(span, err)
	return appt, err
}

// Colors returns the provider's event color palette.
func (g *Gateway) Colors(ctx context.Context, accessToken string) (Palette, error) {
	ctx, span := instrumentation.StartProviderSpan(ctx, g.Name(), instrumentation.OperationColors)
	start := time.Now()

	palette, err := g.provider.Colors(ctx, accessToken)

	g.record(ctx, instrumentation.OperationColors, start, err)
	instrumentation.EndSpan(span, err)
	return palette, err
}

// Forget drops any per-session state the provider keeps for accessToken.
func (g *Gateway) Forget(accessToken string) {
	if f, ok := g.provider.(sessionForgetter); ok {
		f.Forget(accessToken)
	}
}

func (g *Gateway) record(ctx context.Context, operation string, start time.Time, err error) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	g.metrics.RecordProviderOperation(ctx, g.Name(), operation, status, time.Since(start))
}

func oauthResult(err error) string {
	if err != nil {
		return instrumentation.OAuthResultFailure
	}
	return instrumentation.OAuthResultSuccess
}
