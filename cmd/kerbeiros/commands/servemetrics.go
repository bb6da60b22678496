package commands

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/himmelblau-idm/kerbeiros-sub001/internal/metrics"
	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/config"
)

var serveMetricsCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Run the Prometheus /metrics and /healthz HTTP server",
	RunE:  runServeMetrics,
}

func runServeMetrics(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	metrics.InitRegistry()

	addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving metrics on %s\n", addr)
	return http.ListenAndServe(addr, metrics.NewRouter())
}
