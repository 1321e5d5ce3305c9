package cmd

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/ctr-titledb/internal/snapshot"
	"github.com/JakeFAU/ctr-titledb/internal/storage"
	"github.com/JakeFAU/ctr-titledb/internal/storage/memory"
	"github.com/JakeFAU/ctr-titledb/pkg/jsondb"
	"github.com/JakeFAU/ctr-titledb/pkg/xmldb"
)

// newExportCmd writes decoded snapshots of both sources to disk.
func newExportCmd() *cobra.Command {
	var (
		dir    string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write JSON snapshots of both sources to a directory",
		Long: `Fetches every JSON region and the XML catalog concurrently and writes
json/<REGION>.json, xml/catalog.json and manifest.json under the export
directory. Nothing is written unless every fetch succeeds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			return runExport(cmd.Context(), appInstance, cmd.OutOrStdout(), func() (storage.BlobStore, error) {
				if dryRun {
					return memory.NewBlobStore(), nil
				}
				return appInstance.GetSnapshotStore(dir)
			})
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "output directory (default export.dir from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "fetch and encode everything but keep it in memory")
	return cmd
}

func runExport(ctx context.Context, appInstance App, out io.Writer, openStore func() (storage.BlobStore, error)) error {
	logger := appInstance.GetLogger()

	regions := jsondb.Regions()
	pending := make([]<-chan jsondb.Result, len(regions))
	for i, region := range regions {
		pending[i] = appInstance.GetJSON().ReleasesAsync(ctx, region)
	}
	catalog := appInstance.GetXML().ReleasesAsync(ctx)

	// Drain every channel before deciding, so no fetch is left running.
	results := make([]jsondb.Result, len(regions))
	var firstErr error
	for i, ch := range pending {
		results[i] = <-ch
		if results[i].Err != nil && firstErr == nil {
			firstErr = results[i].Err
		}
	}
	xmlResult := <-catalog
	if xmlResult.Err != nil && firstErr == nil {
		firstErr = xmlResult.Err
	}
	if firstErr != nil {
		return fmt.Errorf("export: %w", firstErr)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	writer := snapshot.NewWriter(store, appInstance.GetClock(), appInstance.GetRunID())

	for _, res := range results {
		entry, err := writer.Put(ctx, jsondb.Source, path.Join(jsondb.Source, res.Region.String()+".json"),
			res.Releases, len(res.Releases))
		if err != nil {
			return fmt.Errorf("export region %s: %w", res.Region, err)
		}
		logger.Info("snapshot written", zap.Stringer("region", res.Region), zap.String("uri", entry.URI),
			zap.Int("records", entry.Records))
		if _, err := fmt.Fprintln(out, entry.URI); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	entry, err := writer.Put(ctx, xmldb.Source, path.Join(xmldb.Source, "catalog.json"),
		xmlResult.Releases, len(xmlResult.Releases))
	if err != nil {
		return fmt.Errorf("export catalog: %w", err)
	}
	logger.Info("snapshot written", zap.String("source", xmldb.Source), zap.String("uri", entry.URI),
		zap.Int("records", entry.Records))
	if _, err := fmt.Fprintln(out, entry.URI); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	uri, manifest, err := writer.Finish(ctx)
	if err != nil {
		return fmt.Errorf("export manifest: %w", err)
	}
	logger.Info("export complete", zap.String("manifest", uri), zap.Int("snapshots", len(manifest.Entries)))
	if _, err := fmt.Fprintln(out, uri); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
