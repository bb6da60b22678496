package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/himmelblau-idm/kerbeiros-sub001/internal/cli/output"
	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/ccache"
	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/config"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List credentials in the configured ccache file",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.CCachePath == "" {
		return fmt.Errorf("no ccache_path configured")
	}

	data, err := os.ReadFile(cfg.CCachePath)
	if err != nil {
		return fmt.Errorf("read ccache file: %w", err)
	}
	cc, err := ccache.Load(data)
	if err != nil {
		return fmt.Errorf("parse ccache file: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Default principal: %s\n\n", cc.DefaultPrincipal.String())
	for _, cr := range cc.Credentials {
		output.SimpleTable(w, [][2]string{
			{"Client", cr.Client.String()},
			{"Server", cr.Server.String()},
			{"Auth time", cr.Times.AuthTime.String()},
			{"End time", cr.Times.EndTime.String()},
		})
		fmt.Fprintln(w)
	}
	return nil
}
