package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/watch"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/mcp"
	"github.com/custodia-labs/ragchat/internal/logger"
)

var (
	serveAddr    string
	serveMCP     bool
	serveNoWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat API over HTTP",
	Long: `Serve the chat API over HTTP.

Routes:
  POST /chat                  {"query", "session_id"?, "user_id"?} -> {"answer", "session_id"}
  GET  /history/:session_id   every exchange of a session
  GET  /index                 the last build record
  GET  /healthz               liveness

With --mcp the MCP streamable transport is also served under /mcp.
The index file is watched and reloaded when 'ragchat index build' replaces it.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.addr)")
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "also serve MCP under /mcp")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "do not reload the index when it changes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger.SetTimestamps(true)
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	answer, err := ensureChat(cmd.Context(), settings)
	if err != nil {
		return err
	}

	api, err := httpapi.NewServer(&httpapi.Ports{
		Answer:  answer,
		History: historyService,
		Index:   ensureIndexInspector(settings),
	})
	if err != nil {
		return err
	}

	if serveMCP {
		mcpServer, err := mcp.NewServer(&mcp.Ports{
			Answer:    answer,
			Retriever: retrieverService,
			History:   historyService,
			Index:     indexInspector,
		})
		if err != nil {
			return err
		}
		api.Mount("/mcp", mcpServer.Handler())
	}

	addr := settings.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	var newWatcher func() (*watch.FileWatcher, error)
	if !serveNoWatch && reloadIndex != nil {
		newWatcher = func() (*watch.FileWatcher, error) {
			return watch.NewFileWatcher(settings.Paths.IndexPath, func(ctx context.Context) {
				if err := reloadIndex(ctx); err != nil {
					logger.Error("index reload failed, keeping the previous index: %v", err)
					return
				}
				logger.Info("Reloaded index from %s", settings.Paths.IndexPath)
			})
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, api, addr, newWatcher)
}

// apiRunner is the part of httpapi.Server that serve drives.
type apiRunner interface {
	Run(ctx context.Context, addr string) error
}

// serve runs the API and, when newWatcher is set, the index watcher until
// ctx is done or one of them fails. The watcher is created before anything
// starts so a failure there leaves nothing running.
func serve(ctx context.Context, api apiRunner, addr string, newWatcher func() (*watch.FileWatcher, error)) error {
	var watcher *watch.FileWatcher
	if newWatcher != nil {
		var err error
		if watcher, err = newWatcher(); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.Run(ctx, addr)
	})
	if watcher != nil {
		g.Go(func() error {
			return watcher.Run(ctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
