package xmldb

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/ctr-titledb/pkg/fetcherr"
)

var expectedFirstRelease = Release{
	ID:          "1",
	Name:        "Tom Clancys Ghost Recon: Shadow Wars",
	Publisher:   "Ubisoft",
	Region:      "EUR",
	Languages:   "en,fr,de,it,es",
	Group:       "Legacy",
	ImageSize:   2048,
	Serial:      "CTR-AGRP",
	TitleID:     "0004000000037500",
	ImgCRC:      "5BD0B123",
	Filename:    "lgc-grsw",
	ReleaseName: "Tom_Clancys_Ghost_Recon_Shadow_Wars_EUR_3DS-LGC",
	TrimmedSize: 229750272,
	Firmware:    "1.0.0E",
	Type:        "1",
	Card:        "1",
}

func loadFixture(t *testing.T) []byte {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("testdata", "catalog.xml"))
	require.NoError(t, err)
	return body
}

func TestDecodeFixture(t *testing.T) {
	t.Parallel()

	releases, err := Decode(loadFixture(t))
	require.NoError(t, err)
	require.Len(t, releases, 2)
	assert.Equal(t, expectedFirstRelease, releases[0])
	assert.Equal(t, "Kid Icarus: Uprising", releases[1].Name)
	assert.Equal(t, uint64(1844330496), releases[1].TrimmedSize)
}

func TestDecodeAttributesAndCanonicalNames(t *testing.T) {
	t.Parallel()

	body := []byte(`<releases>
  <release id="7" name="Attr Title" publisher="P" region="USA" languages="en" group="G"
           image_size="4096" serial="CTR-XXXE" title_id="0004000000099900" img_crc="00000000"
           filename="f" release_name="Attr_Title_USA" trimmed_size="12" firmware="9.0.0" _type="2" card="1"/>
</releases>`)

	releases, err := Decode(body)
	require.NoError(t, err)
	require.Len(t, releases, 1)
	got := releases[0]
	assert.Equal(t, "7", got.ID)
	assert.Equal(t, uint64(4096), got.ImageSize)
	assert.Equal(t, "0004000000099900", got.TitleID)
	assert.Equal(t, "Attr_Title_USA", got.ReleaseName)
	assert.Equal(t, "2", got.Type)
}

func TestDecodeEmptyRoot(t *testing.T) {
	t.Parallel()

	releases, err := Decode([]byte(`<?xml version="1.0"?><releases>
</releases>`))
	require.NoError(t, err)
	assert.NotNil(t, releases)
	assert.Empty(t, releases)
}

func TestDecodeMalformed(t *testing.T) {
	t.Parallel()

	full := string(loadFixture(t))
	testCases := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"truncated", full[:len(full)/2]},
		{"plain text", "no markup here"},
		{"json body", `[{"Name":"x"}]`},
		{"missing field", `<releases><release><id>1</id><name>x</name></release></releases>`},
		{"non numeric size", strings.Replace(full, "<imagesize>2048</imagesize>", "<imagesize>big</imagesize>", 1)},
		{"negative size", strings.Replace(full, "<trimmedsize>229750272</trimmedsize>", "<trimmedsize>-1</trimmedsize>", 1)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			releases, err := Decode([]byte(tc.body))
			require.Error(t, err)
			assert.Nil(t, releases)
			assert.True(t, fetcherr.IsDecode(err), "expected decode error, got %v", err)
		})
	}
}

func TestFieldsAliasTable(t *testing.T) {
	t.Parallel()

	aliases := map[string]string{}
	for _, f := range Fields() {
		if f.Name != f.Alias {
			aliases[f.Name] = f.Alias
		}
	}
	assert.Equal(t, map[string]string{
		"image_size":   "imagesize",
		"title_id":     "titleid",
		"img_crc":      "imgcrc",
		"release_name": "releasename",
		"trimmed_size": "trimmedsize",
		"_type":        "type",
	}, aliases)
	assert.Len(t, Fields(), 16)
}

func TestLanguageList(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"en", "fr", "de"}, Release{Languages: "en, fr,,de"}.LanguageList())
	assert.Nil(t, Release{}.LanguageList())
}
