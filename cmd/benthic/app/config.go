package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/benthic/benthic/internal/config"
)

type configInitOptions struct {
	*rootOptions
	baseURL string
	mode    string
	force   bool
}

func newConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(root))
	cmd.AddCommand(newConfigShowCmd(root))
	return cmd
}

func newConfigInitCmd(root *rootOptions) *cobra.Command {
	opts := &configInitOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file for a remote site",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.configFile
			if path == "" {
				path = config.DefaultConfigFile()
			}
			if _, err := os.Stat(path); err == nil && !opts.force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to check %s: %w", path, err)
			}

			cfg := config.DefaultConfig()
			cfg.Server.BaseURL = opts.baseURL
			if opts.mode != "" {
				cfg.Sync.Mode = config.SyncMode(opts.mode)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := config.SaveConfig(cfg, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Remote site base URL")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "Sync mode (manual_only, on_startup, wifi_only)")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Overwrite an existing file")
	_ = cmd.MarkFlagRequired("base-url")
	return cmd
}

func newConfigShowCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(root.v, root.configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			out, err := yaml.Marshal(configView(cfg))
			if err != nil {
				return fmt.Errorf("failed to format config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

// configView mirrors the file layout so `config show` output can be pasted
// back into a config file
func configView(cfg *config.Config) map[string]any {
	return map[string]any{
		"server": map[string]any{
			"base_url":                 cfg.Server.BaseURL,
			"stream_list_path":         cfg.Server.StreamListPath,
			"stream_detail_path":       cfg.Server.StreamDetailPath,
			"invertebrate_list_path":   cfg.Server.InvertebrateListPath,
			"invertebrate_detail_path": cfg.Server.InvertebrateDetailPath,
			"image_list_path":          cfg.Server.ImageListPath,
			"about_path":               cfg.Server.AboutPath,
		},
		"sync": map[string]any{
			"mode":       string(cfg.Sync.Mode),
			"batch_size": cfg.Sync.BatchSize,
			"timeout":    cfg.Sync.Timeout.String(),
		},
		"storage": map[string]any{
			"data_dir":  cfg.Storage.DataDir,
			"image_dir": cfg.Storage.ImageDir,
		},
		"logging": map[string]any{
			"file":  cfg.Logging.File,
			"level": cfg.Logging.Level,
		},
	}
}
