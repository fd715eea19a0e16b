package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/verisci/internal/api"
)

var serveEvalTimeout time.Duration

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the evaluation API over HTTP",
	Long: `Serve exposes the pipeline:

  POST /v1/claims       {"claim": "..."} -> verdict
  GET  /v1/claims/:id   stored verdict
  GET  /healthz         liveness
  GET  /metrics         Prometheus metrics

Concurrent requests for the same claim share one evaluation.

Example:
  verisci serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default: server.addr from config)")
	serveCmd.Flags().DurationVar(&serveEvalTimeout, "eval-timeout", 2*time.Minute, "timeout for one evaluation")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	p, err := openPipeline()
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	handlers := api.NewHandlers(p, serveEvalTimeout, version, nil)
	srv := api.NewServer(handlers, nil)

	fmt.Fprintf(os.Stderr, "VeriSci API on %s (store: %s, ledger: %s)\n", cfg.Server.Addr, cfg.Store.Backend, cfg.Ledger.Mode)
	return srv.Run(ctx, cfg.Server.Addr)
}
