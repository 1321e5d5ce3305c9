package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/ctr-titledb/pkg/index"
	"github.com/JakeFAU/ctr-titledb/pkg/jsondb"
)

const (
	sourceJSON = "json"
	sourceXML  = "xml"
)

// newLookupCmd finds a single title by its title ID.
func newLookupCmd() *cobra.Command {
	var (
		source     string
		regionCode string
	)

	cmd := &cobra.Command{
		Use:   "lookup TITLEID",
		Short: "Look up one title by title ID",
		Long: `Fetches a source, indexes it by title ID, and prints the matching record.
When several records share a title ID the last one in feed order wins.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			titleID := strings.ToUpper(strings.TrimSpace(args[0]))

			switch strings.ToLower(source) {
			case sourceJSON:
				var releases []jsondb.Release
				if regionCode == "" {
					releases, err = appInstance.GetJSON().AllReleases(cmd.Context())
				} else {
					region, perr := jsondb.ParseRegion(regionCode)
					if perr != nil {
						return perr
					}
					releases, err = appInstance.GetJSON().Releases(cmd.Context(), region)
				}
				if err != nil {
					return fmt.Errorf("fetch releases: %w", err)
				}
				release, ok := index.ByTitleID(releases)[titleID]
				if !ok {
					return fmt.Errorf("title %s not found in %s source", titleID, sourceJSON)
				}
				return writeJSON(cmd.OutOrStdout(), release)
			case sourceXML:
				if regionCode != "" {
					return fmt.Errorf("--region only applies to the %s source", sourceJSON)
				}
				byID, err := appInstance.GetXML().ReleasesMap(cmd.Context())
				if err != nil {
					return fmt.Errorf("fetch catalog: %w", err)
				}
				release, ok := byID[titleID]
				if !ok {
					return fmt.Errorf("title %s not found in %s source", titleID, sourceXML)
				}
				return writeJSON(cmd.OutOrStdout(), release)
			default:
				return fmt.Errorf("unknown source %q (want %s or %s)", source, sourceJSON, sourceXML)
			}
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", sourceJSON, "data source: json or xml")
	cmd.Flags().StringVarP(&regionCode, "region", "r", "", "restrict the json source to one region")
	return cmd
}
