package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"armonic/internal/forecast"
	"armonic/internal/planner"
)

// Server exposes the planner as MCP tools.
type Server struct {
	planner        *planner.Planner
	historyFile    string
	pricesFile     string
	defaultHorizon forecast.Horizon
	version        string
}

// Options are the defaults a tool call falls back to.
type Options struct {
	HistoryFile    string
	PricesFile     string
	DefaultHorizon forecast.Horizon
	Version        string
}

// NewServer creates a new MCP server around p.
func NewServer(p *planner.Planner, opts Options) *Server {
	if !opts.DefaultHorizon.Valid() {
		opts.DefaultHorizon = forecast.TwoWeeks
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	return &Server{
		planner:        p,
		historyFile:    opts.HistoryFile,
		pricesFile:     opts.PricesFile,
		defaultHorizon: opts.DefaultHorizon,
		version:        opts.Version,
	}
}

// MCP builds the protocol server with every tool registered.
func (s *Server) MCP() *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{Name: "armonic", Version: s.version}, nil)
	s.registerTools(server)
	return server
}

// Serve runs the MCP server over stdio until the client disconnects or ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	log.Info().Str("version", s.version).Msg("MCP server listening on stdio")
	return s.MCP().Run(ctx, &mcpsdk.StdioTransport{})
}
