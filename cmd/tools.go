package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"renthunt-state/internal/services"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [namespace]",
	Short: "Print a stored namespace snapshot as JSON, or list namespaces",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := openApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		if len(args) == 0 {
			names, err := a.repo.Namespaces(ctx)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		}

		raw, err := a.repo.Raw(ctx, args[0])
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return fmt.Errorf("failed to format snapshot: %w", err)
		}
		fmt.Fprintln(out, buf.String())
		return nil
	},
}

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the first catalog page into the apartments store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		if seedFile != "" {
			cfg.Catalog.Path = seedFile
		}
		if cfg.Catalog.Path == "" {
			return fmt.Errorf("no catalog file: pass --file or set catalog.path")
		}

		ctx := cmd.Context()
		a, err := openApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		return seed(ctx, a.apartments, cfg.Catalog.Path, cfg.Catalog.PageSize)
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "catalog JSON file (defaults to catalog.path)")
}

// seed replaces the inventory with the first catalog page
func seed(ctx context.Context, apartments *services.ApartmentService, path string, pageSize int) error {
	catalog, err := services.LoadCatalog(path, pageSize)
	if err != nil {
		return err
	}

	page, _, err := catalog.Page(ctx, 0)
	if err != nil {
		return err
	}
	if err := apartments.SetApartments(ctx, page); err != nil {
		return fmt.Errorf("failed to seed apartments: %w", err)
	}

	log.Info().Str("path", path).Int("apartments", len(page)).Int("catalog", catalog.Len()).Msg("Apartments seeded")
	return nil
}
