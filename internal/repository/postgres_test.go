package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/promo-catalog/internal/domain/catalog"
	"github.com/xenking/promo-catalog/internal/domain/discount"
	"github.com/xenking/promo-catalog/internal/domain/query"
	"github.com/xenking/promo-catalog/internal/domain/usage"
	"github.com/xenking/promo-catalog/internal/domain/user"
)

// testPool connects to the database named by PROMO_TEST_DATABASE_URL and
// resets all tables. Tests are skipped when the variable is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("PROMO_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("PROMO_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool))

	_, err = pool.Exec(ctx, `
		TRUNCATE discount_usages, discount_history, discount_products,
			discount_categories, discounts, product_history, products,
			product_categories, api_keys, user_profiles, users
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return pool
}

func seedCatalogRow(t *testing.T, pool *pgxpool.Pool, sku, price string) (*catalog.Category, *catalog.Product) {
	t.Helper()
	ctx := context.Background()

	c := &catalog.Category{Name: "Beverages", Description: "Drinks"}
	require.NoError(t, NewCategoryRepository(pool).Create(ctx, c))

	p := &catalog.Product{
		Name:       "Cold Brew",
		SKU:        sku,
		CategoryID: c.ID,
		Price:      decimal.RequireFromString(price),
	}
	require.NoError(t, NewProductRepository(pool).Create(ctx, p))
	return c, p
}

func TestCategoryRepositoryRoundTrip(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewCategoryRepository(pool)

	c := &catalog.Category{Name: "Beverages", Description: "Drinks"}
	require.NoError(t, repo.Create(ctx, c))
	require.NotZero(t, c.ID)

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Beverages", got.Name)

	c.Name = "Drinks"
	require.NoError(t, repo.Update(ctx, c))
	got, err = repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Drinks", got.Name)

	require.NoError(t, repo.Delete(ctx, c.ID))
	_, err = repo.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, catalog.ErrCategoryNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, c.ID), catalog.ErrCategoryNotFound)
}

func TestCategoryRepositoryListSearch(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewCategoryRepository(pool)

	for _, name := range []string{"Beverages", "Snacks", "Green Tea"} {
		require.NoError(t, repo.Create(ctx, &catalog.Category{Name: name}))
	}

	res, err := repo.List(ctx, query.Params{Search: "tea"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Green Tea", res.Items[0].Name)
}

func TestProductRepositoryDuplicateSKU(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	c, _ := seedCatalogRow(t, pool, "BEV-001", "4.50")

	err := NewProductRepository(pool).Create(ctx, &catalog.Product{
		Name:       "Another",
		SKU:        "BEV-001",
		CategoryID: c.ID,
		Price:      decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, catalog.ErrDuplicateSKU)
}

func TestProductRepositoryUpdateWritesHistory(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	_, p := seedCatalogRow(t, pool, "BEV-001", "4.50")
	repo := NewProductRepository(pool)

	p.Price = decimal.RequireFromString("5.00")
	require.NoError(t, repo.Update(ctx, p, "price adjustment"))

	revs, err := repo.History(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, "price adjustment", revs[0].ChangeReason)
	assert.Equal(t, "4.5", revs[0].Price.String())

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "5", got.Price.String())
}

func TestDiscountRepositoryRoundTrip(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	c, p := seedCatalogRow(t, pool, "BEV-001", "4.50")
	repo := NewDiscountRepository(pool)

	d := &discount.Discount{
		Name:        "Summer sale",
		Type:        discount.TypePercentage,
		Value:       decimal.NewFromInt(20),
		ProductIDs:  []int64{p.ID},
		CategoryIDs: []int64{c.ID},
		StartDate:   time.Now().AddDate(0, 0, -1),
		EndDate:     time.Now().AddDate(0, 0, 1),
		Status:      discount.StatusUpcoming,
		MinQuantity: 1,
	}
	require.NoError(t, repo.Create(ctx, d))
	require.NotZero(t, d.ID)

	// Window contains now, so the stored status is resolved to active.
	got, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, discount.StatusActive, got.Status)
	assert.Equal(t, []int64{p.ID}, got.ProductIDs)
	assert.Equal(t, []int64{c.ID}, got.CategoryIDs)

	got.Name = "Renamed sale"
	require.NoError(t, repo.Update(ctx, got, "rename"))

	revs, err := repo.History(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, "Summer sale", revs[0].Name)
	assert.Equal(t, "rename", revs[0].ChangeReason)

	require.NoError(t, repo.Delete(ctx, d.ID))
	_, err = repo.GetByID(ctx, d.ID)
	assert.ErrorIs(t, err, discount.ErrNotFound)
}

func TestDiscountRepositoryStatusBatch(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	_, p := seedCatalogRow(t, pool, "BEV-001", "4.50")
	repo := NewDiscountRepository(pool)

	mk := func(name string, status discount.Status, from, to time.Time) *discount.Discount {
		d := &discount.Discount{
			Name:        name,
			Type:        discount.TypeFixed,
			Value:       decimal.NewFromInt(1),
			ProductIDs:  []int64{p.ID},
			StartDate:   from,
			EndDate:     to,
			Status:      status,
			MinQuantity: 1,
		}
		require.NoError(t, repo.Create(ctx, d))
		return d
	}

	now := time.Now()
	active := mk("active", discount.StatusActive, now.AddDate(0, 0, -1), now.AddDate(0, 0, 1))
	cancelled := mk("cancelled", discount.StatusCancelled, now.AddDate(0, 0, -1), now.AddDate(0, 0, 1))

	list, err := repo.ListNonCancelled(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, active.ID, list[0].ID)

	require.NoError(t, repo.UpdateStatus(ctx, active.ID, discount.StatusExpired))
	got, err := repo.GetByID(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, discount.StatusExpired, got.Status)

	got, err = repo.GetByID(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, discount.StatusCancelled, got.Status)
}

func TestDiscountRepositoryActiveForProduct(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	c, p := seedCatalogRow(t, pool, "BEV-001", "4.50")
	repo := NewDiscountRepository(pool)

	now := time.Now()
	byCategory := &discount.Discount{
		Name:        "Category sale",
		Type:        discount.TypePercentage,
		Value:       decimal.NewFromInt(10),
		CategoryIDs: []int64{c.ID},
		StartDate:   now.AddDate(0, 0, -1),
		EndDate:     now.AddDate(0, 0, 1),
		MinQuantity: 1,
	}
	require.NoError(t, repo.Create(ctx, byCategory))

	future := &discount.Discount{
		Name:        "Future sale",
		Type:        discount.TypePercentage,
		Value:       decimal.NewFromInt(10),
		ProductIDs:  []int64{p.ID},
		StartDate:   now.AddDate(0, 0, 5),
		EndDate:     now.AddDate(0, 0, 10),
		MinQuantity: 1,
	}
	require.NoError(t, repo.Create(ctx, future))

	list, err := repo.ActiveForProduct(ctx, p.ID, now)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, byCategory.ID, list[0].ID)
}

func TestUsageRepositoryRoundTrip(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	_, p := seedCatalogRow(t, pool, "BEV-001", "100.00")
	discounts := NewDiscountRepository(pool)
	repo := NewUsageRepository(pool)

	d := &discount.Discount{
		Name:        "Sale",
		Type:        discount.TypePercentage,
		Value:       decimal.NewFromInt(20),
		ProductIDs:  []int64{p.ID},
		StartDate:   time.Now().AddDate(0, 0, -1),
		EndDate:     time.Now().AddDate(0, 0, 1),
		MinQuantity: 1,
	}
	require.NoError(t, discounts.Create(ctx, d))

	used := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	u := &usage.Usage{
		ID:            uuid.New(),
		DiscountID:    d.ID,
		ProductID:     p.ID,
		OriginalPrice: decimal.NewFromInt(100),
		FinalPrice:    decimal.NewFromInt(80),
		Quantity:      2,
		UsedAt:        used,
	}
	require.NoError(t, repo.Create(ctx, u))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "20", got.SavedAmount().String())
	assert.Nil(t, got.UserID)

	after := used.Add(-time.Hour)
	before := used.Add(time.Hour)
	res, err := repo.List(ctx, query.Params{}, usage.ListFilter{UsedAfter: &after, UsedBefore: &before})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)

	outside := used.Add(24 * time.Hour)
	res, err = repo.List(ctx, query.Params{}, usage.ListFilter{UsedAfter: &outside})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, usage.ErrNotFound)
}

func TestUserRepositoryProfileLifecycle(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewUserRepository(pool)

	u := &user.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, repo.Create(ctx, u))
	require.NotZero(t, u.ID)

	p, err := repo.GetOrCreateProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, p.Phone)

	p.Phone = "555-0101"
	p.Company = "Acme"
	require.NoError(t, repo.UpdateProfile(ctx, p))

	p, err = repo.GetOrCreateProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "555-0101", p.Phone)

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	_, err = repo.GetByID(ctx, 999999)
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestListPagination(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewCategoryRepository(pool)

	for i := range 7 {
		require.NoError(t, repo.Create(ctx, &catalog.Category{
			Name: "Category " + string(rune('A'+i)),
		}))
	}

	res, err := repo.List(ctx, query.Params{Page: 2, PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, 7, res.Count)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, 2, res.TotalPages(5))
}
