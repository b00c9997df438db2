package commands

import (
	"context"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/umi/am"
	"github.com/teranos/umi/errors"
	"github.com/teranos/umi/history"
	"github.com/teranos/umi/logger"
	"github.com/teranos/umi/server"
	"github.com/teranos/umi/vocab"
)

// ServeCmd starts the HTTP/WebSocket server
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Serve prompt generation over HTTP and WebSocket",
	Long: `Start the umi server.

Endpoints:
  POST /api/generate         expand a template
  GET  /api/files            loaded sources and stats
  GET  /api/tags?tag=..      tags, or entries matching a tag query
  GET  /api/entries/{title}  one structured entry
  POST /api/refresh          rescan the wildcards directory
  GET  /api/ratios           aspect presets
  GET  /api/history          stored generations (history.enabled)
  GET  /ws                   live channel: generate requests, reload events`,
	RunE: runServe,
}

// MCPCmd serves MCP tools over stdio
var MCPCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve umi as MCP tools over stdio",
	Long:  "Expose umi_generate, umi_tags and umi_files to an MCP client over stdin/stdout.",
	RunE:  runMCP,
}

var servePort int

// shutdownTimeout bounds graceful shutdown
const shutdownTimeout = 5 * time.Second

func init() {
	ServeCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (default from config)")
}

// buildServer wires config, vocabulary, generator and history into a server.
// The returned cleanup closes the history database.
func buildServer(cmd *cobra.Command) (*server.Server, *am.Config, string, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, "", nil, err
	}
	dir := wildcardsDir(cmd, cfg)
	store, err := openStore(cfg, dir)
	if err != nil {
		return nil, nil, "", nil, err
	}
	gen := newGenerator(cfg, store)

	cleanup := func() {}
	var hist *history.Store
	if cfg.History.Enabled {
		h, conn, err := openHistory(cfg)
		if err != nil {
			return nil, nil, "", nil, err
		}
		hist = h
		cleanup = func() { conn.Close() }
	}

	srv := server.New(gen, hist, serverConfig(cfg), logger.ComponentLogger("server"))
	return srv, cfg, dir, cleanup, nil
}

func serverConfig(cfg *am.Config) server.Config {
	return server.Config{
		AllowedOrigins: cfg.GetServerAllowedOrigins(),
		RatePerSecond:  cfg.Server.RatePerSecond,
		RateBurst:      cfg.Server.RateBurst,
		Defaults:       baseOptions(cfg),
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	srv, cfg, dir, cleanup, err := buildServer(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Wildcards.Watch {
		debounce := time.Duration(cfg.Wildcards.DebounceMS) * time.Millisecond
		watcher, err := vocab.NewWatcher(srv.Store(), dir, debounce, logger.ComponentLogger("vocab.watcher"))
		if err != nil {
			logger.Logger.Warnw("Live reload disabled", logger.FieldError, err)
		} else {
			watcher.OnReload(srv.NotifyReload)
			watcher.Start()
			defer watcher.Stop()
		}
	}

	if files := am.ConfigFilesUsed(); len(files) > 0 {
		cw, err := am.NewConfigWatcher(files[len(files)-1], cfg)
		if err != nil {
			logger.Logger.Warnw("Config reload disabled", logger.FieldError, err)
		} else {
			cw.OnReload(func(prev, next *am.Config) error {
				if prev == nil || prev.Server.RatePerSecond != next.Server.RatePerSecond || prev.Server.RateBurst != next.Server.RateBurst {
					srv.SetRateLimit(next.Server.RatePerSecond, next.Server.RateBurst)
				}
				if prev != nil && !reflect.DeepEqual(prev.Wildcards, next.Wildcards) {
					logger.Logger.Warnw("Wildcards settings changed; restart umi serve to apply them")
				}
				return nil
			})
			cw.Start()
			defer cw.Stop()
		}
	}

	port := cfg.GetServerPort()
	if servePort != 0 {
		port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(port) }()

	pterm.Success.Printfln("umi serving %s on port %d", dir, port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown failed")
	}
	return nil
}

func runMCP(cmd *cobra.Command, args []string) error {
	srv, _, _, cleanup, err := buildServer(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	return server.NewMCPServer(srv).ServeStdio()
}
