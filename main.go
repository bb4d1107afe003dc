// Command sliding-block-game starts the sliding block puzzle server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags (each also read from the environment) control host/port, the level and
// session directories, the solved notification delay, debug logging, and
// optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/sliding-block-game/api"
	"github.com/wricardo/sliding-block-game/game/engine"
	"github.com/wricardo/sliding-block-game/game/levels"
	"github.com/wricardo/sliding-block-game/game/service"
	"github.com/wricardo/sliding-block-game/game/session"
	"github.com/wricardo/sliding-block-game/transport/mcp"
	"github.com/wricardo/sliding-block-game/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Sliding Block Game Server"
)

// Modes
const (
	ModeServer   = "server"
	ModeStdioMCP = "stdio-mcp"
)

// Config holds everything the server needs to start
type Config struct {
	Host        string
	Port        int
	LevelsDir   string
	SessionsDir string
	SolveDelay  time.Duration
	Debug       bool
	Ngrok       bool
	NgrokAuth   string
	NgrokDomain string
}

// Addr returns the listen address
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// runFunc starts a mode with a parsed configuration
type runFunc func(ctx context.Context, mode string, cfg Config) error

// newApp builds the command line. run is called with the selected mode.
func newApp(run runFunc) *cli.Command {
	action := func(mode string) cli.ActionFunc {
		return func(ctx context.Context, cmd *cli.Command) error {
			cfg := configFromCommand(cmd)
			setupLogging(cfg.Debug)
			return run(ctx, mode, cfg)
		}
	}

	return &cli.Command{
		Name:    "sliding-block-game",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "levels-dir",
				Value:   "levels",
				Usage:   "Directory containing level files (.json, .yaml, .yml)",
				Sources: cli.EnvVars("LEVELS_DIR"),
			},
			&cli.StringFlag{
				Name:    "sessions-dir",
				Value:   "sessions",
				Usage:   "Directory session files are persisted to",
				Sources: cli.EnvVars("SESSIONS_DIR"),
			},
			&cli.DurationFlag{
				Name:    "solve-delay",
				Value:   engine.DefaultSolveDelay,
				Usage:   "Delay between solving a level and the solved notification",
				Sources: cli.EnvVars("SOLVE_DELAY"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: action(ModeServer),
		Commands: []*cli.Command{
			{
				Name:    ModeServer,
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  action(ModeServer),
			},
			{
				Name:    ModeStdioMCP,
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  action(ModeStdioMCP),
			},
		},
	}
}

func configFromCommand(cmd *cli.Command) Config {
	return Config{
		Host:        cmd.String("host"),
		Port:        int(cmd.Int("port")),
		LevelsDir:   cmd.String("levels-dir"),
		SessionsDir: cmd.String("sessions-dir"),
		SolveDelay:  cmd.Duration("solve-delay"),
		Debug:       cmd.Bool("debug"),
		Ngrok:       cmd.Bool("ngrok"),
		NgrokAuth:   cmd.String("ngrok-auth"),
		NgrokDomain: cmd.String("ngrok-domain"),
	}
}

func setupLogging(debug bool) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	// stdout belongs to the MCP stdio transport
	logrus.SetOutput(os.Stderr)
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.SetReportCaller(true)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// main loads .env, parses flags and starts the selected mode.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			logrus.WithError(err).Warn("error loading .env file")
		}
	} else {
		logrus.Info("loaded environment variables from .env file")
	}

	if err := newApp(run).Run(context.Background(), os.Args); err != nil {
		logrus.WithError(err).Fatal("server failed")
	}
}

func run(ctx context.Context, mode string, cfg Config) error {
	logrus.WithFields(logrus.Fields{
		"version": Version,
		"mode":    mode,
	}).Infof("starting %s", AppName)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	gameService, sessions, err := initializeServices(ctx, cfg, hub)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if err := sessions.SaveAllSessions(); err != nil {
			logrus.WithError(err).Warn("failed to save sessions on shutdown")
		}
	}()

	switch mode {
	case ModeStdioMCP:
		return runStdioMCPWithInternalServer(cfg, gameService, hub)
	default:
		return runHTTPServer(ctx, cfg, gameService, hub)
	}
}

// initializeServices wires the level and session managers into the game
// service. It also starts the level watcher and the session maintenance
// routines, which stop with ctx.
func initializeServices(ctx context.Context, cfg Config, hub *websocket.Hub) (service.GameService, *session.Manager, error) {
	levelManager, err := levels.NewManager(cfg.LevelsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create level manager: %w", err)
	}
	if err := levelManager.Watch(ctx, nil); err != nil {
		logrus.WithError(err).Warn("level hot reload disabled")
	}

	persistence, err := session.NewFilePersistence(cfg.SessionsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)

	// Load persisted sessions on startup
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		logrus.WithError(err).Warn("failed to load persisted sessions")
	}

	gameService := service.NewGameService(sessionManager, levelManager,
		service.WithNotifier(hub),
		service.WithSolveDelay(cfg.SolveDelay),
	)
	hub.SetInputHandler(gameService)

	go sessionCleanupRoutine(ctx, sessionManager)
	go filesystemSyncRoutine(ctx, sessionManager, persistence)

	return gameService, sessionManager, nil
}

// newMainHandler mounts the REST API and the /mcp endpoint on one mux
func newMainHandler(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()

	// Mount API server at root
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, cfg Config, gameService service.GameService, hub *websocket.Hub) error {
	addr := cfg.Addr()
	apiServer := api.NewServer(gameService, hub)
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	handler := newMainHandler(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logrus.WithFields(logrus.Fields{
			"rest":      fmt.Sprintf("http://%s/api", addr),
			"websocket": fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp":       fmt.Sprintf("http://%s/mcp", addr),
		}).Infof("HTTP server listening on %s", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	if cfg.Ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, cfg, handler)
		}()
	}

	select {
	case sig := <-stop:
		logrus.WithField("signal", sig.String()).Info("shutting down")
	case err := <-serveErr:
		cancel()
		wg.Wait()
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP server shutdown error")
	}

	wg.Wait()
	logrus.Info("server stopped")
	return nil
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, cfg Config, handler http.Handler) {
	if cfg.NgrokAuth == "" {
		logrus.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	logrus.Info("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
		logrus.WithField("domain", cfg.NgrokDomain).Info("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx,
		tunnel,
		ngrok.WithAuthtoken(cfg.NgrokAuth),
	)
	if err != nil {
		logrus.WithError(err).Error("failed to start ngrok tunnel")
		return
	}

	// http.Serve returns once the tunnel is closed
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	logrus.WithFields(logrus.Fields{
		"rest":      ngrokURL + "/api",
		"websocket": ngrokURL + "/ws?session=<session_id>",
		"mcp":       ngrokURL + "/mcp",
	}).Infof("ngrok tunnel established: %s", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		logrus.WithError(err).Warn("ngrok server error")
	}
	logrus.Info("ngrok tunnel closed")
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the retention window.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(24 * time.Hour); removed > 0 {
				logrus.WithField("removed", removed).Info("cleaned up expired sessions")
			}
		}
	}
}

// filesystemSyncRoutine drops sessions from memory once their files are deleted.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pruned := 0
		for _, sess := range manager.List() {
			if persistence.Exists(sess.ID) {
				continue
			}
			if err := manager.DeleteFromMemory(sess.ID); err == nil {
				pruned++
				logrus.WithField("session", sess.ID).Info("pruned session from memory (file deleted)")
			}
		}

		if pruned > 0 {
			logrus.WithField("pruned", pruned).Info("filesystem sync removed orphaned sessions")
		}
	}
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It reuses an API server already listening on the configured address; if
// none answers, it starts an internal HTTP API on a random loopback port.
func runStdioMCPWithInternalServer(cfg Config, gameService service.GameService, hub *websocket.Hub) error {
	externalURL := fmt.Sprintf("http://%s", cfg.Addr())
	baseURL := externalURL
	logrus.WithField("url", externalURL).Info("checking for external API server")

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		logrus.WithField("url", externalURL).Info("external API server found, using it for MCP")
	} else {
		logrus.Info("no external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		internalAddr := listener.Addr().String()
		httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}

		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				logrus.WithError(err).Error("internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
		logrus.WithField("addr", internalAddr).Info("internal HTTP server started for MCP stdio")
	}

	mcpClient := mcp.NewClient(baseURL)
	logrus.WithField("api", baseURL).Info("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
