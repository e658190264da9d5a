package mcptools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calhighlight/internal/calendar"
	"github.com/teemow/calhighlight/internal/chat"
	"github.com/teemow/calhighlight/internal/instrumentation"
	"github.com/teemow/calhighlight/internal/logging"
)

// Tool names.
const (
	ToolGetAppointments = "calendar_get_appointments"
	ToolUpdateColor     = "calendar_update_color"
	ToolListColors      = "calendar_list_colors"
)

var errToolResult = errors.New("tool returned an error result")

// Calendar is the calendar surface the tools need. *calendar.Gateway
// implements it.
type Calendar interface {
	Name() string
	ListAppointments(ctx context.Context, start, end time.Time, accessToken string) ([]calendar.Appointment, error)
	UpdateColor(ctx context.Context, eventID, colorID, accessToken string) (calendar.Appointment, error)
	Colors(ctx context.Context, accessToken string) (calendar.Palette, error)
}

// TokenSource supplies the access token for each call.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Deps are the collaborators shared by every tool.
type Deps struct {
	Calendar Calendar
	Tokens   TokenSource

	// ReadOnly leaves out tools that modify the calendar.
	ReadOnly bool

	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger
	Logger  *slog.Logger
}

// Tools returns the calendar tools for d.
func Tools(d *Deps) []mcpserver.ServerTool {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	tools := []mcpserver.ServerTool{
		{
			Tool: mcp.NewTool(ToolGetAppointments,
				mcp.WithDescription(chat.AppointmentsToolDescription),
				mcp.WithString("date", mcp.Description(chat.DateArgDescription)),
				mcp.WithString("startDate", mcp.Description(chat.StartDateArgDescription)),
				mcp.WithString("endDate", mcp.Description(chat.EndDateArgDescription)),
			),
			Handler: d.instrumented(ToolGetAppointments, instrumentation.OperationList, d.getAppointments),
		},
		{
			Tool: mcp.NewTool(ToolListColors,
				mcp.WithDescription("List the event color palette with the id of each color"),
			),
			Handler: d.instrumented(ToolListColors, instrumentation.OperationColors, d.listColors),
		},
	}

	if !d.ReadOnly {
		tools = append(tools, mcpserver.ServerTool{
			Tool: mcp.NewTool(ToolUpdateColor,
				mcp.WithDescription("Change the color of one calendar event"),
				mcp.WithString("eventId", mcp.Required(), mcp.Description("ID of the event to recolor")),
				mcp.WithString("colorId", mcp.Required(), mcp.Description("Color ID from calendar_list_colors, 1-11 for Google Calendar")),
			),
			Handler: d.instrumented(ToolUpdateColor, instrumentation.OperationUpdateColor, d.updateColor),
		})
	}
	return tools
}

// Register adds the calendar tools to s.
func Register(s *mcpserver.MCPServer, d *Deps) {
	tools := Tools(d)
	s.AddTools(tools...)
	d.Logger.Info("registered MCP tools", slog.Int("count", len(tools)), slog.Bool("read_only", d.ReadOnly))
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

func (d *Deps) getAppointments(ctx context.Context, token string, args map[string]any) (*mcp.CallToolResult, error) {
	rangeArgs := chat.RangeArgs{
		Date:      stringArg(args, "date"),
		StartDate: stringArg(args, "startDate"),
		EndDate:   stringArg(args, "endDate"),
	}
	text, err := chat.FetchAppointments(ctx, d.Calendar, token, rangeArgs)
	if err != nil {
		d.Logger.Debug("appointment tool failed", logging.Tool(ToolGetAppointments), logging.Err(err))
		return mcp.NewToolResultError(text), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (d *Deps) updateColor(ctx context.Context, token string, args map[string]any) (*mcp.CallToolResult, error) {
	eventID := stringArg(args, "eventId")
	if eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}
	colorID := stringArg(args, "colorId")
	if colorID == "" {
		return mcp.NewToolResultError("colorId is required"), nil
	}

	appt, err := d.Calendar.UpdateColor(ctx, eventID, colorID, token)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update appointment color: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Updated %q (%s) to color %s", appt.Summary, appt.ID, colorID)), nil
}

func (d *Deps) listColors(ctx context.Context, token string, _ map[string]any) (*mcp.CallToolResult, error) {
	palette, err := d.Calendar.Colors(ctx, token)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch colors: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d color(s):\n\n", len(palette))
	for _, c := range palette.Colors() {
		fmt.Fprintf(&b, "- %s: background %s, foreground %s\n", c.ID, c.Background, c.Foreground)
	}
	return mcp.NewToolResultText(b.String()), nil
}
