package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/artisan/internal/catalog"
	"github.com/charlesng35/artisan/internal/database/testutil"
	"github.com/charlesng35/artisan/internal/models"
)

func newTestCatalogStore(t *testing.T) (*CatalogStore, *gorm.DB) {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store, err := NewCatalogStore(db)
	require.NoError(t, err)
	return store, db
}

func mustCreateCategory(t *testing.T, store *CatalogStore, name string) *models.Category {
	t.Helper()
	category, err := store.CreateCategory(context.Background(), catalog.CategoryInput{Name: name})
	require.NoError(t, err)
	return category
}

func productInput(name, categoryID string) catalog.ProductInput {
	return catalog.ProductInput{
		Name:       name,
		Price:      49.5,
		Image:      "https://cdn.example.com/" + name + ".jpg",
		CategoryID: categoryID,
		Stock:      3,
	}
}

func TestNewCatalogStoreRequiresDB(t *testing.T) {
	_, err := NewCatalogStore(nil)
	require.Error(t, err)
}

func TestCatalogStoreListCategoriesByName(t *testing.T) {
	store, _ := newTestCatalogStore(t)
	for _, name := range []string{"Lighting", "Textiles", "Decor"} {
		mustCreateCategory(t, store, name)
	}

	categories, err := store.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 3)
	require.Equal(t, "Decor", categories[0].Name)
	require.Equal(t, "Lighting", categories[1].Name)
	require.Equal(t, "Textiles", categories[2].Name)
}

func TestCatalogStoreListProductsNewestFirstWithCategory(t *testing.T) {
	store, db := newTestCatalogStore(t)
	ctx := context.Background()
	decor := mustCreateCategory(t, store, "Decor")

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"Vase", "Mirror", "Clock"} {
		product, err := store.CreateProduct(ctx, productInput(name, decor.ID))
		require.NoError(t, err)
		require.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).
			UpdateColumn("created_at", base.Add(time.Duration(i)*time.Hour)).Error)
	}

	products, err := store.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	require.Equal(t, "Clock", products[0].Name)
	require.Equal(t, "Mirror", products[1].Name)
	require.Equal(t, "Vase", products[2].Name)
	require.NotNil(t, products[0].Category)
	require.Equal(t, "Decor", products[0].Category.Name)
}

func TestCatalogStoreListEmpty(t *testing.T) {
	store, _ := newTestCatalogStore(t)

	products, err := store.ListProducts(context.Background())
	require.NoError(t, err)
	require.Empty(t, products)
}

func TestCatalogStoreCreateProductSlug(t *testing.T) {
	store, _ := newTestCatalogStore(t)
	ctx := context.Background()
	lighting := mustCreateCategory(t, store, "Lighting")

	first, err := store.CreateProduct(ctx, productInput("Brass Table Lamp", lighting.ID))
	require.NoError(t, err)
	require.Equal(t, "brass-table-lamp", first.Slug)
	require.NotEmpty(t, first.ID)
	require.Equal(t, "Lighting", first.Category.Name)

	second, err := store.CreateProduct(ctx, productInput("Brass  Table Lamp!", lighting.ID))
	require.NoError(t, err)
	require.Equal(t, "brass-table-lamp-2", second.Slug)
}

func TestCatalogStoreCreateProductValidation(t *testing.T) {
	store, _ := newTestCatalogStore(t)
	ctx := context.Background()
	decor := mustCreateCategory(t, store, "Decor")

	cases := map[string]catalog.ProductInput{
		"blank name":       productInput("   ", decor.ID),
		"zero price":       {Name: "Vase", Image: "v.jpg", CategoryID: decor.ID},
		"missing image":    {Name: "Vase", Price: 10, CategoryID: decor.ID},
		"unknown category": productInput("Vase", "missing"),
		"symbols only":     productInput("!!!", decor.ID),
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := store.CreateProduct(ctx, input)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCatalogStoreGetProductByIDOrSlug(t *testing.T) {
	store, _ := newTestCatalogStore(t)
	ctx := context.Background()
	textiles := mustCreateCategory(t, store, "Textiles")
	created, err := store.CreateProduct(ctx, productInput("Wool Throw", textiles.ID))
	require.NoError(t, err)

	byID, err := store.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Wool Throw", byID.Name)

	bySlug, err := store.GetProduct(ctx, "wool-throw")
	require.NoError(t, err)
	require.Equal(t, created.ID, bySlug.ID)
	require.Equal(t, "Textiles", bySlug.Category.Name)

	_, err = store.GetProduct(ctx, "no-such-product")
	require.ErrorIs(t, err, ErrProductNotFound)
	_, err = store.GetProduct(ctx, " ")
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestCatalogStoreUpdateProduct(t *testing.T) {
	store, _ := newTestCatalogStore(t)
	ctx := context.Background()
	decor := mustCreateCategory(t, store, "Decor")
	lighting := mustCreateCategory(t, store, "Lighting")
	created, err := store.CreateProduct(ctx, productInput("Lantern", decor.ID))
	require.NoError(t, err)

	tag := "Sale"
	input := productInput("Paper Lantern", lighting.ID)
	input.Stock = 0
	input.Tag = &tag
	updated, err := store.UpdateProduct(ctx, created.ID, input)
	require.NoError(t, err)
	require.Equal(t, "Paper Lantern", updated.Name)
	require.Equal(t, "lantern", updated.Slug)
	require.Equal(t, 0, updated.Stock)
	require.Equal(t, "Sale", *updated.Tag)
	require.Equal(t, "Lighting", updated.Category.Name)
	require.Equal(t, created.CreatedAt.Unix(), updated.CreatedAt.Unix())

	_, err = store.UpdateProduct(ctx, "missing", input)
	require.ErrorIs(t, err, ErrProductNotFound)

	_, err = store.UpdateProduct(ctx, created.ID, productInput("Lantern", "missing"))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCatalogStoreDeleteProduct(t *testing.T) {
	store, _ := newTestCatalogStore(t)
	ctx := context.Background()
	decor := mustCreateCategory(t, store, "Decor")
	created, err := store.CreateProduct(ctx, productInput("Bowl", decor.ID))
	require.NoError(t, err)

	require.NoError(t, store.DeleteProduct(ctx, created.ID))
	require.ErrorIs(t, store.DeleteProduct(ctx, created.ID), ErrProductNotFound)

	products, err := store.ListProducts(ctx)
	require.NoError(t, err)
	require.Empty(t, products)
}

func TestCatalogStoreCategoryLifecycle(t *testing.T) {
	store, _ := newTestCatalogStore(t)
	ctx := context.Background()

	decor := mustCreateCategory(t, store, "Decor")
	_, err := store.CreateCategory(ctx, catalog.CategoryInput{Name: "Decor"})
	require.ErrorIs(t, err, ErrCategoryExists)

	_, err = store.CreateCategory(ctx, catalog.CategoryInput{Name: "  "})
	require.ErrorIs(t, err, ErrInvalidInput)

	image := " https://cdn.example.com/decor.jpg "
	renamed, err := store.UpdateCategory(ctx, decor.ID, catalog.CategoryInput{Name: "Home Decor", Image: &image})
	require.NoError(t, err)
	require.Equal(t, "Home Decor", renamed.Name)
	require.Equal(t, "https://cdn.example.com/decor.jpg", *renamed.Image)

	_, err = store.UpdateCategory(ctx, "missing", catalog.CategoryInput{Name: "X"})
	require.ErrorIs(t, err, ErrCategoryNotFound)

	require.NoError(t, store.DeleteCategory(ctx, decor.ID))
	require.ErrorIs(t, store.DeleteCategory(ctx, decor.ID), ErrCategoryNotFound)
}

func TestCatalogStoreDeleteCategoryInUse(t *testing.T) {
	store, _ := newTestCatalogStore(t)
	ctx := context.Background()
	decor := mustCreateCategory(t, store, "Decor")
	_, err := store.CreateProduct(ctx, productInput("Candle", decor.ID))
	require.NoError(t, err)

	err = store.DeleteCategory(ctx, decor.ID)
	require.ErrorIs(t, err, ErrCategoryInUse)
}

func TestTranslateWriteError(t *testing.T) {
	require.NoError(t, translateWriteError("create product", nil))
	require.ErrorIs(t, translateWriteError("create category", errors.New("UNIQUE constraint failed: categories.name")), ErrCategoryExists)
	require.ErrorIs(t, translateWriteError("delete category", errors.New("FOREIGN KEY constraint failed")), ErrCategoryInUse)
	require.ErrorIs(t, translateWriteError("create product", errors.New("FOREIGN KEY constraint failed")), ErrInvalidInput)

	wrapped := translateWriteError("create product", errors.New("disk full"))
	require.ErrorContains(t, wrapped, "catalog store: create product: disk full")
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "Brass Table Lamp", want: "brass-table-lamp"},
		{in: "  Café au Lait  ", want: "cafe-au-lait"},
		{in: "Rug -- 2x3 (Wool)", want: "rug-2x3-wool"},
		{in: "Linen_Throw/Blue", want: "linen-throw-blue"},
		{in: "!!!", want: ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Slugify(tc.in), tc.in)
	}
}
