// Command webterm-serve bridges presentation layers to the interpreter.
// It listens on a Unix domain socket, and optionally on a WebSocket
// endpoint for browsers; each connection is one terminal session speaking
// JSON frames.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Paranoid-AF/webterm"
	"github.com/Paranoid-AF/webterm/interp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	var (
		verbose    bool
		socketPath string
		listenAddr string
	)

	rootCmd := &cobra.Command{
		Use:     "webterm-serve",
		Short:   "Serve webterm sessions over a Unix domain socket",
		Version: Version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(verbose)
			if socketPath == "" {
				socketPath = resolveSocketPath()
			}
			return run(socketPath, listenAddr)
		},
	}
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "log every request and response")
	rootCmd.Flags().StringVar(&socketPath, "socket", "", "socket path (default $WEBTERM_SOCKET or the runtime dir)")
	rootCmd.Flags().StringVar(&listenAddr, "listen", "", "also serve WebSocket sessions on this address at /ws")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func run(socketPath, listenAddr string) error {
	cfg, err := webterm.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	opts, err := interp.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}

	slog.Info("starting", "socket", socketPath, "base_url", webterm.ResolveBaseURL(cfg))

	srv, err := NewServer(socketPath, InterpreterFactory(opts))
	if err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	defer srv.Close()

	var httpSrv *http.Server
	if listenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/ws", srv)
		httpSrv = &http.Server{Addr: listenAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			slog.Info("websocket listening", "addr", listenAddr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("websocket listener failed", "error", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		if httpSrv != nil {
			httpSrv.Close()
		}
		srv.Close()
	}()

	slog.Info("ready")
	if err := srv.Serve(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func resolveSocketPath() string {
	if path := os.Getenv("WEBTERM_SOCKET"); path != "" {
		return path
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir + "/webterm.sock"
	}
	return fmt.Sprintf("/tmp/webterm-%d.sock", os.Getuid())
}
