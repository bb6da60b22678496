package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/config"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the configuration file's JSON Schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := config.SchemaJSON()
		if err != nil {
			return fmt.Errorf("render schema: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}
