package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/JakeFAU/ctr-titledb/internal/app"
	"github.com/JakeFAU/ctr-titledb/internal/config"
	"github.com/JakeFAU/ctr-titledb/internal/snapshot"
	"github.com/JakeFAU/ctr-titledb/pkg/jsondb"
	"github.com/JakeFAU/ctr-titledb/pkg/transport"
	"github.com/JakeFAU/ctr-titledb/pkg/xmldb"
)

const (
	testJSONBase = "http://json.test/jsons"
	testXMLURL   = "http://xml.test/xml.php"
)

const catalogBody = `<releases>
  <release id="1" name="Kid Icarus: Uprising" publisher="Nintendo" region="USA" languages="en" group="CONTRAST"
           imagesize="8192" serial="CTR-AKDE" titleid="0004000000030200" imgcrc="ABCDEF01" filename="ctr-kiu"
           releasename="Kid_Icarus_Uprising_USA_3DS-CONTRAST" trimmedsize="1844330496" firmware="4.0.0" type="1" card="1"/>
</releases>`

func regionRecord(region jsondb.Region) string {
	return fmt.Sprintf(
		`{"Name":"%s game","UID":"uid-%s","TitleID":"000400000000%s00","Version":"1.0","Size":"1 MB","Product Code":"CTR-%s","Publisher":"Pub"}`,
		region, region, region, region,
	)
}

// feedGetter serves one record per region and a one-entry catalog.
// Any URL in failures returns that error.
func feedGetter(failures map[string]error) transport.Getter {
	return transport.GetterFunc(func(_ context.Context, url string) ([]byte, error) {
		if err := failures[url]; err != nil {
			return nil, err
		}
		if url == testXMLURL {
			return []byte(catalogBody), nil
		}
		for _, region := range jsondb.Regions() {
			if strings.HasSuffix(url, "/list_"+region.String()+".json") {
				return []byte("[" + regionRecord(region) + "]"), nil
			}
		}
		return nil, errors.New("unexpected url " + url)
	})
}

// useTestApp swaps the app factory for one backed by getter.
func useTestApp(t *testing.T, getter transport.Getter, exportDir string) {
	t.Helper()
	original := newApp
	t.Cleanup(func() { newApp = original })

	newApp = func(_ context.Context, _ string) (App, error) {
		cfg := config.Config{
			JSON:   config.JSONConfig{BaseURL: testJSONBase},
			XML:    config.XMLConfig{URL: testXMLURL},
			HTTP:   config.HTTPConfig{TimeoutSeconds: 5},
			Export: config.ExportConfig{Dir: exportDir},
		}
		return app.New(cfg, zaptest.NewLogger(t), getter)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRegionsCommand(t *testing.T) {
	useTestApp(t, feedGetter(nil), t.TempDir())

	out, err := run(t, "regions")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "GB\t"+testJSONBase+"/list_GB.json", lines[0])
	assert.Equal(t, "US\t"+testJSONBase+"/list_US.json", lines[4])
}

func TestReleasesCommandSingleRegion(t *testing.T) {
	useTestApp(t, feedGetter(nil), t.TempDir())

	out, err := run(t, "releases", "--region", "jp")
	require.NoError(t, err)

	var releases []jsondb.Release
	require.NoError(t, json.Unmarshal([]byte(out), &releases))
	require.Len(t, releases, 1)
	assert.Equal(t, "JP game", releases[0].Name)
}

func TestReleasesCommandAllRegionsInOrder(t *testing.T) {
	useTestApp(t, feedGetter(nil), t.TempDir())

	out, err := run(t, "releases")
	require.NoError(t, err)

	var releases []jsondb.Release
	require.NoError(t, json.Unmarshal([]byte(out), &releases))
	require.Len(t, releases, 5)
	for i, region := range jsondb.Regions() {
		assert.Equal(t, region.String()+" game", releases[i].Name)
	}
}

func TestReleasesCommandRejectsUnknownRegion(t *testing.T) {
	useTestApp(t, feedGetter(nil), t.TempDir())

	_, err := run(t, "releases", "--region", "EU")
	require.ErrorIs(t, err, jsondb.ErrUnknownRegion)
}

func TestCatalogCommand(t *testing.T) {
	useTestApp(t, feedGetter(nil), t.TempDir())

	out, err := run(t, "catalog")
	require.NoError(t, err)

	var releases []xmldb.Release
	require.NoError(t, json.Unmarshal([]byte(out), &releases))
	require.Len(t, releases, 1)
	assert.Equal(t, "CONTRAST", releases[0].Group)
}

func TestLookupCommand(t *testing.T) {
	useTestApp(t, feedGetter(nil), t.TempDir())

	t.Run("json all regions", func(t *testing.T) {
		out, err := run(t, "lookup", "000400000000kr00")
		require.NoError(t, err)
		var release jsondb.Release
		require.NoError(t, json.Unmarshal([]byte(out), &release))
		assert.Equal(t, "KR game", release.Name)
	})

	t.Run("json one region misses other regions", func(t *testing.T) {
		_, err := run(t, "lookup", "000400000000KR00", "--region", "US")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("xml", func(t *testing.T) {
		out, err := run(t, "lookup", "0004000000030200", "--source", "xml")
		require.NoError(t, err)
		var release xmldb.Release
		require.NoError(t, json.Unmarshal([]byte(out), &release))
		assert.Equal(t, uint64(1844330496), release.TrimmedSize)
	})

	t.Run("xml rejects region", func(t *testing.T) {
		_, err := run(t, "lookup", "0004000000030200", "--source", "xml", "--region", "US")
		require.Error(t, err)
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := run(t, "lookup", "0004000000030200", "--source", "csv")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown source")
	})

	t.Run("missing argument", func(t *testing.T) {
		_, err := run(t, "lookup")
		require.Error(t, err)
	})
}

func TestExportCommandWritesSnapshots(t *testing.T) {
	dir := t.TempDir()
	useTestApp(t, feedGetter(nil), filepath.Join(dir, "default"))

	target := filepath.Join(dir, "out")
	out, err := run(t, "export", "--dir", target)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 7)
	assert.True(t, strings.HasSuffix(lines[6], "manifest.json"))

	for _, region := range jsondb.Regions() {
		raw, err := os.ReadFile(filepath.Join(target, "json", region.String()+".json"))
		require.NoError(t, err)
		var releases []jsondb.Release
		require.NoError(t, json.Unmarshal(raw, &releases))
		require.Len(t, releases, 1)
		assert.Equal(t, region.String()+" game", releases[0].Name)
	}

	raw, err := os.ReadFile(filepath.Join(target, "xml", "catalog.json"))
	require.NoError(t, err)
	var catalog []xmldb.Release
	require.NoError(t, json.Unmarshal(raw, &catalog))
	require.Len(t, catalog, 1)

	raw, err = os.ReadFile(filepath.Join(target, "manifest.json"))
	require.NoError(t, err)
	var manifest snapshot.Manifest
	require.NoError(t, json.Unmarshal(raw, &manifest))
	assert.NotEmpty(t, manifest.RunID)
	assert.False(t, manifest.GeneratedAt.IsZero())
	require.Len(t, manifest.Entries, 6)
	assert.Equal(t, "json/GB.json", manifest.Entries[0].Path)
	assert.Equal(t, "xml/catalog.json", manifest.Entries[5].Path)
	assert.Len(t, manifest.Entries[0].SHA256, 64)

	_, err = os.Stat(filepath.Join(dir, "default"))
	assert.True(t, os.IsNotExist(err))
}

func TestExportCommandDryRun(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out")
	useTestApp(t, feedGetter(nil), target)

	out, err := run(t, "export", "--dry-run")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "memory://json/GB.json", lines[0])
	assert.Equal(t, "memory://manifest.json", lines[6])

	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExportCommandWritesNothingOnFailure(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out")
	useTestApp(t, feedGetter(map[string]error{
		testJSONBase + "/list_TW.json": errors.New("connection refused"),
	}), target)

	_, err := run(t, "export")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExportCommandCatalogFailure(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out")
	useTestApp(t, feedGetter(map[string]error{
		testXMLURL: errors.New("timeout"),
	}), target)

	_, err := run(t, "export")
	require.Error(t, err)

	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr))
}

func TestResolveAppWithoutApp(t *testing.T) {
	_, err := resolveApp(context.Background())
	require.Error(t, err)
}
