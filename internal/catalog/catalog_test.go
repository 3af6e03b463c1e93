package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tiltup/internal/model"
)

func TestLoadBuiltinOnly(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)

	movies, err := c.Get("movies")
	require.NoError(t, err)
	assert.Equal(t, "Movies", movies.Name)
	assert.Len(t, movies.WordList, 13)
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	catalogBody := `
[[category]]
name = "Animals"
words = ["Cat", "Dog", " cat "]

[[category]]
name = "Film Remix"
slug = "movies"
words = ["Heat"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.toml"), []byte(catalogBody), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "board_games.txt"), []byte("Chess\nGo\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0o644))

	c, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"movies", "board-games", "animals"}, c.Slugs())

	animals, err := c.Get("Animals")
	require.NoError(t, err)
	assert.Equal(t, []string{"Cat", "Dog"}, animals.WordList)

	movies, err := c.Get("movies")
	require.NoError(t, err)
	assert.Equal(t, []string{"Heat"}, movies.WordList)

	games, err := c.Get("board-games")
	require.NoError(t, err)
	assert.Equal(t, "Board Games", games.Name)
}

func TestGetUnknown(t *testing.T) {
	c, err := New(Movies)
	require.NoError(t, err)

	_, err = c.Get("sports")
	require.ErrorIs(t, err, ErrUnknownCategory)
	assert.Contains(t, err.Error(), "movies")
}

func TestEmptyCategoryRejected(t *testing.T) {
	_, err := New(model.Category{Name: "Nothing"})
	require.ErrorIs(t, err, ErrEmptyCategory)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "bill-ted-s", Slugify("Bill & Ted's"))
	assert.Equal(t, "", Slugify("  !! "))
}
