package commands

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/himmelblau-idm/kerbeiros-sub001/internal/cli/output"
	"github.com/himmelblau-idm/kerbeiros-sub001/internal/cli/prompt"
	"github.com/himmelblau-idm/kerbeiros-sub001/internal/logger"
	"github.com/himmelblau-idm/kerbeiros-sub001/internal/metrics"
	"github.com/himmelblau-idm/kerbeiros-sub001/internal/telemetry"
	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/ccache"
	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/client"
	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/config"
	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/credential"
)

var getTGTCmd = &cobra.Command{
	Use:   "get-tgt",
	Short: "Perform the AS-exchange and cache the resulting TGT",
	RunE:  runGetTGT,
}

func runGetTGT(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	ctx := cmd.Context()
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init(ctx, telemetry.Config{
			Enabled:        true,
			ServiceName:    "kerbeiros",
			ServiceVersion: Version,
			Endpoint:       cfg.Telemetry.Endpoint,
			Insecure:       cfg.Telemetry.Insecure,
			SampleRate:     cfg.Telemetry.SampleRate,
		})
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		defer func() { _ = shutdown(ctx) }()
	}

	cred, err := resolveCredential(cfg.Credential)
	if err != nil {
		return err
	}

	requester := client.NewTgtRequester(client.Config{
		KDCHost:   cfg.KDC.Host,
		KDCPort:   cfg.KDC.Port,
		Timeout:   cfg.KDC.Timeout,
		PreferUDP: cfg.KDC.PreferUDP,
	})

	cr, err := requester.RequestTGT(ctx, cfg.Realm, cfg.Principal, cred)
	if err != nil {
		return fmt.Errorf("AS-exchange failed: %w", err)
	}

	if cfg.CCachePath != "" {
		cc := ccache.New(cr.Client, []credential.Credential{cr})
		if err := os.WriteFile(cfg.CCachePath, cc.Save(), 0o600); err != nil {
			return fmt.Errorf("write ccache file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Ticket cached at %s\n\n", cfg.CCachePath)
	}

	printCredential(cmd, cr)
	return nil
}

func resolveCredential(cc config.CredentialConfig) (client.Credential, error) {
	switch cc.Kind {
	case "password":
		password := cc.Password
		if password == "" {
			var err error
			password, err = prompt.Password("Password", 1)
			if err != nil {
				return client.Credential{}, fmt.Errorf("read password: %w", err)
			}
		}
		return client.NewPasswordCredential(password), nil
	case "rc4", "aes128", "aes256":
		key, err := hex.DecodeString(cc.KeyHex)
		if err != nil {
			return client.Credential{}, fmt.Errorf("decode key_hex: %w", err)
		}
		switch cc.Kind {
		case "rc4":
			return client.NewRc4KeyCredential(key), nil
		case "aes128":
			return client.NewAes128KeyCredential(key), nil
		default:
			return client.NewAes256KeyCredential(key), nil
		}
	default:
		return client.Credential{}, fmt.Errorf("unknown credential kind %q", cc.Kind)
	}
}

func printCredential(cmd *cobra.Command, cr credential.Credential) {
	w := cmd.OutOrStdout()
	output.SimpleTable(w, [][2]string{
		{"Client", cr.Client.String()},
		{"Server", cr.Server.String()},
		{"Key type", fmt.Sprintf("%d", cr.Key.Etype)},
		{"Auth time", cr.Times.AuthTime.Format(time.RFC3339)},
		{"End time", cr.Times.EndTime.Format(time.RFC3339)},
		{"Forwardable", fmt.Sprintf("%t", cr.IsForwardable())},
		{"Renewable", fmt.Sprintf("%t", cr.IsRenewable())},
	})
}
