// Package app wires the engines, the MCP server and the HTTP surface from a
// resolved configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/kokistudios/thinker/internal/config"
	"github.com/kokistudios/thinker/internal/httpapi"
	"github.com/kokistudios/thinker/internal/mcp"
	"github.com/kokistudios/thinker/internal/observability"
	"github.com/kokistudios/thinker/internal/process"
	"github.com/kokistudios/thinker/internal/session"
	"github.com/kokistudios/thinker/internal/thought"
	"github.com/kokistudios/thinker/internal/ui"
)

const metricsNamespace = "thinker"

type App struct {
	Config    config.Config
	Sessions  *session.Registry
	Thoughts  *thought.Engine
	Processes *process.Engine
	Metrics   *observability.Metrics
	MCP       *mcp.Server
	HTTP      *httpapi.Server
}

// Build assembles an App. cfg must already be validated.
func Build(cfg config.Config, version string) *App {
	reg := session.NewRegistry()
	metrics := observability.NewMetrics(metricsNamespace)
	metrics.TrackSessions(metricsNamespace, reg)

	var observers []thought.EngineOption
	if cfg.Logging.ThoughtLog {
		observers = append(observers, thought.WithObserver(printThought))
	}
	thoughts := thought.NewEngine(reg, cfg.ThoughtOptions(), observers...)
	processes := process.NewEngine(reg, cfg.ProcessOptions())

	server := mcp.NewServer(thoughts, processes, metrics, version)
	return &App{
		Config:    cfg,
		Sessions:  reg,
		Thoughts:  thoughts,
		Processes: processes,
		Metrics:   metrics,
		MCP:       server,
		HTTP:      httpapi.New(server.HTTPHandler(), reg, metrics, version),
	}
}

func printThought(_ string, n thought.Node) {
	header := ui.ThoughtHeader(n.SequenceNumber, n.EstimatedTotalThoughts, n.BranchID,
		n.RevisesSequenceNumber, n.BranchesFromSequenceNumber)
	ui.PrintThought(header, n.Content)
}

// Serve runs the configured transport until ctx is cancelled or the client
// disconnects.
func (a *App) Serve(ctx context.Context) error {
	switch a.Config.Server.Transport {
	case "stdio":
		ui.Logger.Info("serving MCP over stdio", "tools", len(a.MCP.Tools()))
		defer a.Sessions.Close()
		return a.MCP.Run(ctx)
	case "http":
		ln, err := net.Listen("tcp", a.Config.Server.HTTPAddr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", a.Config.Server.HTTPAddr, err)
		}
		return a.ServeHTTP(ctx, ln)
	default:
		return fmt.Errorf("unknown transport %q", a.Config.Server.Transport)
	}
}

// ServeHTTP serves the HTTP surface on ln and shuts down gracefully once ctx
// is done.
func (a *App) ServeHTTP(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.HTTP.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	ui.Logger.Info("serving MCP over HTTP", "addr", ln.Addr().String(), "endpoint", "/mcp")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.HTTP.Drain()
	ui.Logger.Info("shutting down", "timeout", a.Config.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.Sessions.Close()
	return nil
}
