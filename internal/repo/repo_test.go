package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionName(t *testing.T) {
	tests := []struct {
		owner, name string
		want        string
	}{
		{"owner", "name", "owner_name"},
		{"Octo-Cat", "Hello.World", "octo_cat_hello_world"},
		{"acme", "repo_2", "acme_repo_2"},
		{"ümlaut", "x", "_mlaut_x"},
	}
	for _, tt := range tests {
		t.Run(tt.owner+"/"+tt.name, func(t *testing.T) {
			c := Coordinate{Owner: tt.owner, Name: tt.name}
			assert.Equal(t, tt.want, c.CollectionName())
		})
	}
}

func TestParseCoordinate(t *testing.T) {
	c, err := ParseCoordinate(" golang/go ")
	require.NoError(t, err)
	assert.Equal(t, Coordinate{Owner: "golang", Name: "go"}, c)
	assert.Equal(t, "golang/go", c.String())

	for _, bad := range []string{"", "noslash", "/name", "owner/", "a/b/c"} {
		_, err := ParseCoordinate(bad)
		assert.Error(t, err, bad)
	}
}

func TestExtensionAndFileType(t *testing.T) {
	assert.Equal(t, ".go", Extension("main.GO"))
	assert.Equal(t, ".gz", Extension("archive.tar.gz"))
	assert.Equal(t, "", Extension("Makefile"))
	assert.Equal(t, ".env", Extension(".env"))

	assert.Equal(t, "ts", FileType("index.ts"))
	assert.Equal(t, "Makefile", FileType("Makefile"))
}
