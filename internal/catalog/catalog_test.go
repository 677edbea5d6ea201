package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queryforge/queryforge/internal/catalog"
)

func sampleModels() []catalog.Model {
	return []catalog.Model{
		{
			Name:  "User",
			Table: "users",
			Fields: []catalog.Field{
				{Name: "id", Column: "id", Type: catalog.Int},
				{Name: "name", Column: "name", Type: catalog.String},
			},
			Relations: []catalog.Relation{
				{Name: "posts", Kind: catalog.OneToMany, FromModel: "User", ToModel: "Post", LocalKey: "id", ReferencedKey: "authorId", Inverse: "author"},
			},
		},
		{
			Name:  "Post",
			Table: "posts",
			Fields: []catalog.Field{
				{Name: "id", Column: "id", Type: catalog.Int},
				{Name: "authorId", Column: "author_id", Type: catalog.Int},
				{Name: "title", Column: "title", Type: catalog.String},
			},
			Relations: []catalog.Relation{
				{Name: "author", Kind: catalog.ManyToOne, FromModel: "Post", ToModel: "User", LocalKey: "authorId", ReferencedKey: "id", Inverse: "posts"},
			},
		},
	}
}

func TestCatalogModelAndFieldLookup(t *testing.T) {
	cat := catalog.New(sampleModels())

	user, err := cat.Model("User")
	require.NoError(t, err)
	assert.Equal(t, "users", user.Table)

	field, ok := user.Field("name")
	require.True(t, ok)
	assert.Equal(t, catalog.String, field.Type)

	_, ok = user.Field("nonexistent")
	assert.False(t, ok)

	_, err = cat.Model("Nonexistent")
	assert.Error(t, err)
}

func TestCatalogRelationLookup(t *testing.T) {
	cat := catalog.New(sampleModels())
	user, err := cat.Model("User")
	require.NoError(t, err)

	rel, ok := user.Relation("posts")
	require.True(t, ok)
	assert.Equal(t, catalog.OneToMany, rel.Kind)
	assert.Equal(t, "author", rel.Inverse)
}

func TestCatalogValidateSucceedsOnConsistentInverses(t *testing.T) {
	cat := catalog.New(sampleModels())
	assert.NoError(t, cat.Validate())
}

func TestCatalogValidateFailsOnMissingInverse(t *testing.T) {
	models := sampleModels()
	models[0].Relations[0].Inverse = ""
	cat := catalog.New(models)
	assert.Error(t, cat.Validate())
}

func TestCatalogValidateFailsOnCardinalityMismatch(t *testing.T) {
	models := sampleModels()
	models[1].Relations[0].Kind = catalog.OneToMany
	cat := catalog.New(models)
	assert.Error(t, cat.Validate())
}

func TestCatalogValidateFailsOnDanglingTargetModel(t *testing.T) {
	models := sampleModels()
	models[0].Relations[0].ToModel = "Ghost"
	cat := catalog.New(models)
	assert.Error(t, cat.Validate())
}

func TestCatalogModelsPreservesDeclarationOrder(t *testing.T) {
	cat := catalog.New(sampleModels())
	names := make([]string, 0, 2)
	for _, m := range cat.Models() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"User", "Post"}, names)
}
