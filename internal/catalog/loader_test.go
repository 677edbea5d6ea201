package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queryforge/queryforge/internal/catalog"
)

const sampleSchemaJSON = `{
  "models": [
    {
      "name": "User",
      "table": "users",
      "fields": [
        {"name": "id", "column": "id", "type": "Int"},
        {"name": "name", "column": "name", "type": "String"}
      ],
      "relations": [
        {"name": "posts", "kind": "OneToMany", "fromModel": "User", "toModel": "Post", "localKey": "id", "referencedKey": "authorId", "inverse": "author"}
      ]
    },
    {
      "name": "Post",
      "table": "posts",
      "fields": [
        {"name": "id", "column": "id", "type": "Int"},
        {"name": "authorId", "column": "author_id", "type": "Int"}
      ],
      "relations": [
        {"name": "author", "kind": "ManyToOne", "fromModel": "Post", "toModel": "User", "localKey": "authorId", "referencedKey": "id", "inverse": "posts"}
      ]
    }
  ]
}`

func TestLoadJSONBuildsValidatedCatalog(t *testing.T) {
	cat, err := catalog.LoadJSON([]byte(sampleSchemaJSON))
	require.NoError(t, err)

	user, err := cat.Model("User")
	require.NoError(t, err)
	rel, ok := user.Relation("posts")
	require.True(t, ok)
	assert.Equal(t, catalog.OneToMany, rel.Kind)
}

func TestLoadJSONRejectsInconsistentSchema(t *testing.T) {
	_, err := catalog.LoadJSON([]byte(`{"models":[{"name":"User","table":"users","fields":[],"relations":[{"name":"posts","kind":"OneToMany","fromModel":"User","toModel":"Ghost","inverse":"author"}]}]}`))
	require.Error(t, err)
}

func TestLoadJSONRejectsMalformedJSON(t *testing.T) {
	_, err := catalog.LoadJSON([]byte(`not json`))
	require.Error(t, err)
}
