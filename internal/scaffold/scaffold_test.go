package scaffold

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ogstub/internal/posts"
)

func TestCreateNewSite(t *testing.T) {
	fs := afero.NewMemMapFs()

	created, err := CreateNewSite(fs, "mysite")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("mysite", "site.yaml"),
		filepath.Join("mysite", "archetypes", "post.md"),
		filepath.Join("mysite", "content", "blog", "hello-world.md"),
	}, created)

	descriptors, err := posts.Load(fs, filepath.Join("mysite", "content", "blog"))
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "hello-world", descriptors[0].Slug)
	assert.Contains(t, descriptors[0].Excerpt, "This is the first post.")

	exists, err := afero.DirExists(fs, filepath.Join("mysite", "static"))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateNewSiteKeepsExistingFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "mysite/site.yaml", []byte("custom"), 0644))

	created, err := CreateNewSite(fs, "mysite")
	require.NoError(t, err)
	assert.Len(t, created, 2)

	data, err := afero.ReadFile(fs, "mysite/site.yaml")
	require.NoError(t, err)
	assert.Equal(t, "custom", string(data))
}

func TestCreateNewPost(t *testing.T) {
	fs := afero.NewMemMapFs()
	now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = time.Now })

	path, err := CreateNewPost(fs, ".", "content/blog", "Hello & World")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("content", "blog", "hello-world.md"), path)

	raw, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	d, _, err := posts.Parse(raw, "fallback")
	require.NoError(t, err)
	assert.Equal(t, "Hello & World", d.Title)
	assert.Equal(t, "hello-world", d.Slug)
	assert.Equal(t, "2024-05-01", d.Date)
	assert.True(t, d.Draft)

	_, err = CreateNewPost(fs, ".", "content/blog", "Hello World")
	assert.ErrorIs(t, err, ErrExists)
}

func TestCreateNewPostQuotesTitle(t *testing.T) {
	titles := []string{
		`Say "Hi" to YAML`,
		`"Quoted" from the start`,
		"Colons: a #hash and 'single' quotes",
		"- looks like a list",
	}

	for _, title := range titles {
		t.Run(title, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			path, err := CreateNewPost(fs, ".", "content/blog", title)
			require.NoError(t, err)

			raw, err := afero.ReadFile(fs, path)
			require.NoError(t, err)
			d, _, err := posts.Parse(raw, "fallback")
			require.NoError(t, err)
			assert.Equal(t, title, d.Title)
		})
	}
}

func TestCreateNewPostUsesSiteArchetype(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "site/archetypes/post.md", []byte("---\ntitle: {{ .Title }}\n---\ncustom\n"), 0644))

	path, err := CreateNewPost(fs, "site", "content/blog", "Custom Post")
	require.NoError(t, err)

	raw, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: Custom Post\n---\ncustom\n", string(raw))
}

func TestCreateNewPostRejectsEmptySlug(t *testing.T) {
	_, err := CreateNewPost(afero.NewMemMapFs(), ".", "content/blog", "!!!")
	assert.Error(t, err)
}
