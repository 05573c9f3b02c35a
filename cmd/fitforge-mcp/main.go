// Command fitforge-mcp serves the FitForge MCP tools over stdio, backed by a
// remote FitForge server's REST API.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/fitforge/internal/client"
	fitmcp "github.com/claude/fitforge/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	baseURL := flag.String("url", envOr("FITFORGE_URL", "http://fitforge"), "FitForge server base URL")
	apiKey := flag.String("api-key", os.Getenv("FITFORGE_API_KEY"), "API key, if the server requires one")
	flag.Parse()

	// stdout carries the protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("FitForge MCP starting", "version", Version, "url", *baseURL)

	s := fitmcp.New(client.New(*baseURL, *apiKey), Version, log)
	if err := server.ServeStdio(s); err != nil {
		log.Error("stdio server failed", "error", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
