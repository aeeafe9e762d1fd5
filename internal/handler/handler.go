// Package handler exposes the catalog and promotions REST API over
// net/http, mapping domain errors to the API's error taxonomy.
package handler

import (
	"net/http"

	"github.com/xenking/promo-catalog/internal/domain/catalog"
	"github.com/xenking/promo-catalog/internal/domain/discount"
	"github.com/xenking/promo-catalog/internal/domain/usage"
	"github.com/xenking/promo-catalog/internal/domain/user"
)

// Handler serves the REST API, delegating business logic to the domain
// services and repositories.
type Handler struct {
	categories catalog.CategoryRepository
	products   catalog.ProductRepository
	discounts  discount.Repository
	usages     usage.Repository
	users      user.Repository
	pricer     *discount.Pricer
	recorder   *usage.Recorder
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	categories catalog.CategoryRepository,
	products catalog.ProductRepository,
	discounts discount.Repository,
	usages usage.Repository,
	users user.Repository,
	pricer *discount.Pricer,
	recorder *usage.Recorder,
) *Handler {
	return &Handler{
		categories: categories,
		products:   products,
		discounts:  discounts,
		usages:     usages,
		users:      users,
		pricer:     pricer,
		recorder:   recorder,
	}
}

// Routes registers every API endpoint on a new mux. Paths are rooted at
// /api; the caller mounts the mux and wraps it in middleware.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/categories", h.ListCategories)
	mux.HandleFunc("POST /api/categories", h.CreateCategory)
	mux.HandleFunc("GET /api/categories/{id}", h.GetCategory)
	mux.HandleFunc("PUT /api/categories/{id}", h.UpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", h.DeleteCategory)

	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("POST /api/products", h.CreateProduct)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("PUT /api/products/{id}", h.UpdateProduct)
	mux.HandleFunc("DELETE /api/products/{id}", h.DeleteProduct)
	mux.HandleFunc("GET /api/products/{id}/history", h.ProductHistory)

	mux.HandleFunc("GET /api/discounts", h.ListDiscounts)
	mux.HandleFunc("POST /api/discounts", h.CreateDiscount)
	mux.HandleFunc("GET /api/discounts/{id}", h.GetDiscount)
	mux.HandleFunc("PUT /api/discounts/{id}", h.UpdateDiscount)
	mux.HandleFunc("DELETE /api/discounts/{id}", h.DeleteDiscount)
	mux.HandleFunc("GET /api/discounts/{id}/history", h.DiscountHistory)
	mux.HandleFunc("POST /api/discounts/{id}/apply_to_cart", h.ApplyToCart)

	mux.HandleFunc("GET /api/discount-usages", h.ListUsages)
	mux.HandleFunc("POST /api/discount-usages", h.CreateUsage)
	mux.HandleFunc("GET /api/discount-usages/{id}", h.GetUsage)

	mux.HandleFunc("GET /api/profile", h.GetProfile)
	mux.HandleFunc("PUT /api/profile", h.UpdateProfile)

	return mux
}
