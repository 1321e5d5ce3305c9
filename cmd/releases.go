package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/ctr-titledb/pkg/jsondb"
)

// newRegionsCmd lists the JSON feed partitions and their endpoints.
func newRegionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List the known regions and their JSON endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			client := appInstance.GetJSON()
			for _, region := range jsondb.Regions() {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", region, client.Endpoint(region)); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
			}
			return nil
		},
	}
}

// newReleasesCmd fetches one region, or every region when --region is unset.
func newReleasesCmd() *cobra.Command {
	var regionCode string

	cmd := &cobra.Command{
		Use:   "releases",
		Short: "Fetch releases from the region-partitioned JSON feed",
		Long: `Fetches the JSON title list for a single region, or for every region
concurrently when --region is not given. All-region output is ordered
GB, JP, KR, TW, US regardless of which request finishes first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			client := appInstance.GetJSON()

			var releases []jsondb.Release
			if regionCode == "" {
				releases, err = client.AllReleases(cmd.Context())
			} else {
				region, perr := jsondb.ParseRegion(regionCode)
				if perr != nil {
					return perr
				}
				releases, err = client.Releases(cmd.Context(), region)
			}
			if err != nil {
				return fmt.Errorf("fetch releases: %w", err)
			}

			appInstance.GetLogger().Debug("releases fetched", zap.Int("records", len(releases)))
			return writeJSON(cmd.OutOrStdout(), releases)
		},
	}
	cmd.Flags().StringVarP(&regionCode, "region", "r", "", "region code (GB, JP, KR, TW, US); all regions when empty")
	return cmd
}

// newCatalogCmd fetches the XML catalog.
func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Fetch releases from the XML catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			releases, err := appInstance.GetXML().Releases(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch catalog: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), releases)
		},
	}
}
