package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("FitForge", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("FitForge training server. Fatigue is a percentage of each muscle's baseline capacity and recovers linearly over time. "+
			"Check recovery before suggesting exercises, and forecast a planned workout before recommending it. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetRecoveryTimeline, Handler: h.getRecoveryTimeline},
		server.ServerTool{Tool: toolGetMuscleStates, Handler: h.getMuscleStates},
		server.ServerTool{Tool: toolRecommendExercises, Handler: h.recommendExercises},
		server.ServerTool{Tool: toolForecastWorkout, Handler: h.forecastWorkout},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolGetWorkouts, Handler: h.getWorkouts},
		server.ServerTool{Tool: toolGetTrainingSummary, Handler: h.getTrainingSummary},
		server.ServerTool{Tool: toolGetBaselines, Handler: h.getBaselines},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resRecovery, Handler: h.recovery},
		server.ServerResource{Resource: resExerciseCatalog, Handler: h.exerciseCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resRecovery = mcp.NewResource(
	"fitforge://recovery",
	"Recovery",
	mcp.WithResourceDescription("Current fatigue of all 13 muscles with 24/48/72h recovery projections"),
	mcp.WithMIMEType("application/json"),
)

var resExerciseCatalog = mcp.NewResource(
	"fitforge://exercise_catalog",
	"Exercise Catalog",
	mcp.WithResourceDescription("Every exercise in the library with equipment and calibrated muscle engagements"),
	mcp.WithMIMEType("application/json"),
)
