package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/matsen/pdbkg/internal/config"
	"github.com/matsen/pdbkg/internal/server"
)

var (
	serveAddr        string
	serveSessionTTL  time.Duration
	serveMaxSessions int
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, "+config.DefaultAddr+")")
	serveCmd.Flags().DurationVar(&serveSessionTTL, "session-ttl", server.DefaultSessionTTL, "Drop sessions idle for longer than this")
	serveCmd.Flags().IntVar(&serveMaxSessions, "max-sessions", server.DefaultMaxSessions, "Maximum live sessions; the least recently used is dropped beyond it")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the knowledge graph over HTTP",
	Long: `Serve the selected backend as a JSON REST API, with an interactive
neighborhood viewer at /viz?seed=kind:id&seed=....

Stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	bs := resolveBackend()
	addr := serveAddr
	if addr == "" {
		addr = bs.global.Addr
	}

	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = logWriter
	gin.DefaultErrorWriter = logWriter

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	src, closeSrc := mustOpenSource(ctx, bs)
	defer closeSrc()

	srv := server.New(src,
		server.WithLogger(logger),
		server.WithMaxHops(bs.maxHops),
		server.WithBackendName(bs.name),
		server.WithSessionLimits(serveSessionTTL, serveMaxSessions),
	)
	if err := srv.Run(ctx, addr); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	return nil
}
