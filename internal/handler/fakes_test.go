package handler

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/xenking/promo-catalog/internal/domain/auth"
	"github.com/xenking/promo-catalog/internal/domain/catalog"
	"github.com/xenking/promo-catalog/internal/domain/discount"
	"github.com/xenking/promo-catalog/internal/domain/query"
	"github.com/xenking/promo-catalog/internal/domain/usage"
	"github.com/xenking/promo-catalog/internal/domain/user"
)

// In-memory repositories backing handler tests. They reproduce the store
// contracts the handlers rely on: not-found errors, duplicate SKU
// detection, status resolution on discount writes, and page slicing.

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

func paginate[T any](items []T, p query.Params) query.Result[T] {
	p = p.Normalize()
	res := query.Result[T]{Count: len(items)}
	start := p.Offset()
	if start >= len(items) {
		return res
	}
	end := start + p.PageSize
	if end > len(items) {
		end = len(items)
	}
	res.Items = items[start:end]
	return res
}

type fakeCategories struct {
	nextID int64
	items  map[int64]catalog.Category
}

var _ catalog.CategoryRepository = (*fakeCategories)(nil)

func newFakeCategories() *fakeCategories {
	return &fakeCategories{items: make(map[int64]catalog.Category)}
}

func (f *fakeCategories) Create(_ context.Context, c *catalog.Category) error {
	f.nextID++
	c.ID = f.nextID
	f.items[c.ID] = *c
	return nil
}

func (f *fakeCategories) GetByID(_ context.Context, id int64) (*catalog.Category, error) {
	c, ok := f.items[id]
	if !ok {
		return nil, catalog.ErrCategoryNotFound
	}
	return &c, nil
}

func (f *fakeCategories) GetByIDs(_ context.Context, ids []int64) ([]catalog.Category, error) {
	var out []catalog.Category
	for _, id := range ids {
		if c, ok := f.items[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCategories) Update(_ context.Context, c *catalog.Category) error {
	if _, ok := f.items[c.ID]; !ok {
		return catalog.ErrCategoryNotFound
	}
	f.items[c.ID] = *c
	return nil
}

func (f *fakeCategories) Delete(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return catalog.ErrCategoryNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeCategories) List(_ context.Context, p query.Params) (query.Result[catalog.Category], error) {
	return paginate(f.sorted(), p), nil
}

func (f *fakeCategories) sorted() []catalog.Category {
	out := make([]catalog.Category, 0, len(f.items))
	for _, c := range f.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type fakeProducts struct {
	nextID  int64
	items   map[int64]catalog.Product
	history map[int64][]catalog.ProductRevision
}

var _ catalog.ProductRepository = (*fakeProducts)(nil)

func newFakeProducts() *fakeProducts {
	return &fakeProducts{
		items:   make(map[int64]catalog.Product),
		history: make(map[int64][]catalog.ProductRevision),
	}
}

func (f *fakeProducts) Create(_ context.Context, p *catalog.Product) error {
	for _, existing := range f.items {
		if existing.SKU == p.SKU {
			return catalog.ErrDuplicateSKU
		}
	}
	f.nextID++
	p.ID = f.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	f.items[p.ID] = *p
	return nil
}

func (f *fakeProducts) GetByID(_ context.Context, id int64) (*catalog.Product, error) {
	p, ok := f.items[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return &p, nil
}

func (f *fakeProducts) GetByIDs(_ context.Context, ids []int64) ([]catalog.Product, error) {
	var out []catalog.Product
	seen := make(map[int64]bool)
	for _, id := range ids {
		if p, ok := f.items[id]; ok && !seen[id] {
			out = append(out, p)
			seen[id] = true
		}
	}
	return out, nil
}

func (f *fakeProducts) Update(_ context.Context, p *catalog.Product, changeReason string) error {
	prev, ok := f.items[p.ID]
	if !ok {
		return catalog.ErrProductNotFound
	}
	f.history[p.ID] = append([]catalog.ProductRevision{{
		ProductID:    prev.ID,
		Name:         prev.Name,
		SKU:          prev.SKU,
		CategoryID:   prev.CategoryID,
		Price:        prev.Price,
		Description:  prev.Description,
		ChangeReason: changeReason,
		RecordedAt:   time.Now(),
	}}, f.history[p.ID]...)
	p.UpdatedAt = time.Now()
	f.items[p.ID] = *p
	return nil
}

func (f *fakeProducts) Delete(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return catalog.ErrProductNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeProducts) List(_ context.Context, p query.Params) (query.Result[catalog.Product], error) {
	all := make([]catalog.Product, 0, len(f.items))
	for _, prod := range f.items {
		if v, ok := p.Filters["category"]; ok && v != "" {
			if catID := prod.CategoryID; idString(catID) != v {
				continue
			}
		}
		all = append(all, prod)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, p), nil
}

func (f *fakeProducts) History(_ context.Context, productID int64) ([]catalog.ProductRevision, error) {
	return f.history[productID], nil
}

type fakeDiscounts struct {
	nextID  int64
	items   map[int64]discount.Discount
	history map[int64][]discount.Revision
	now     func() time.Time
}

var _ discount.Repository = (*fakeDiscounts)(nil)

func newFakeDiscounts() *fakeDiscounts {
	return &fakeDiscounts{
		items:   make(map[int64]discount.Discount),
		history: make(map[int64][]discount.Revision),
		now:     time.Now,
	}
}

func (f *fakeDiscounts) Create(_ context.Context, d *discount.Discount) error {
	f.nextID++
	d.ID = f.nextID
	d.Status = discount.ResolveStatus(d.StartDate, d.EndDate, d.Status, f.now())
	d.CreatedAt = f.now()
	d.UpdatedAt = d.CreatedAt
	f.items[d.ID] = *d
	return nil
}

func (f *fakeDiscounts) GetByID(_ context.Context, id int64) (*discount.Discount, error) {
	d, ok := f.items[id]
	if !ok {
		return nil, discount.ErrNotFound
	}
	return &d, nil
}

func (f *fakeDiscounts) Update(_ context.Context, d *discount.Discount, changeReason string) error {
	prev, ok := f.items[d.ID]
	if !ok {
		return discount.ErrNotFound
	}
	f.history[d.ID] = append([]discount.Revision{{
		DiscountID:   prev.ID,
		Name:         prev.Name,
		Type:         prev.Type,
		Value:        prev.Value,
		StartDate:    prev.StartDate,
		EndDate:      prev.EndDate,
		Status:       prev.Status,
		MinQuantity:  prev.MinQuantity,
		ChangeReason: changeReason,
		RecordedAt:   f.now(),
	}}, f.history[d.ID]...)
	d.Status = discount.ResolveStatus(d.StartDate, d.EndDate, d.Status, f.now())
	d.UpdatedAt = f.now()
	f.items[d.ID] = *d
	return nil
}

func (f *fakeDiscounts) Delete(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return discount.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeDiscounts) List(_ context.Context, p query.Params) (query.Result[discount.Discount], error) {
	all := make([]discount.Discount, 0, len(f.items))
	for _, d := range f.items {
		if v, ok := p.Filters["status"]; ok && v != "" && string(d.Status) != v {
			continue
		}
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, p), nil
}

func (f *fakeDiscounts) History(_ context.Context, discountID int64) ([]discount.Revision, error) {
	return f.history[discountID], nil
}

func (f *fakeDiscounts) ListNonCancelled(_ context.Context) ([]discount.Discount, error) {
	var out []discount.Discount
	for _, d := range f.items {
		if d.Status != discount.StatusCancelled {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDiscounts) UpdateStatus(_ context.Context, id int64, status discount.Status) error {
	d, ok := f.items[id]
	if !ok {
		return discount.ErrNotFound
	}
	d.Status = status
	f.items[id] = d
	return nil
}

func (f *fakeDiscounts) ListForExport(context.Context, time.Time, time.Time) ([]discount.ExportRow, error) {
	return nil, nil
}

func (f *fakeDiscounts) ActiveForProduct(_ context.Context, productID int64, now time.Time) ([]discount.Discount, error) {
	var out []discount.Discount
	for _, d := range f.items {
		if d.IsActiveAt(now) && d.Eligible(productID, 0) {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeUsages struct {
	items map[uuid.UUID]usage.Usage
	order []uuid.UUID
}

var _ usage.Repository = (*fakeUsages)(nil)

func newFakeUsages() *fakeUsages {
	return &fakeUsages{items: make(map[uuid.UUID]usage.Usage)}
}

func (f *fakeUsages) Create(_ context.Context, u *usage.Usage) error {
	f.items[u.ID] = *u
	f.order = append(f.order, u.ID)
	return nil
}

func (f *fakeUsages) GetByID(_ context.Context, id uuid.UUID) (*usage.Usage, error) {
	u, ok := f.items[id]
	if !ok {
		return nil, usage.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUsages) List(_ context.Context, p query.Params, filter usage.ListFilter) (query.Result[usage.Usage], error) {
	var all []usage.Usage
	for _, id := range f.order {
		u := f.items[id]
		if filter.UsedAfter != nil && u.UsedAt.Before(*filter.UsedAfter) {
			continue
		}
		if filter.UsedBefore != nil && u.UsedAt.After(*filter.UsedBefore) {
			continue
		}
		if v, ok := p.Filters["discount"]; ok && v != "" && idString(u.DiscountID) != v {
			continue
		}
		all = append(all, u)
	}
	return paginate(all, p), nil
}

type fakeUsers struct {
	users    map[int64]user.User
	profiles map[int64]user.Profile
}

var _ user.Repository = (*fakeUsers)(nil)

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		users:    make(map[int64]user.User),
		profiles: make(map[int64]user.Profile),
	}
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*user.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (f *fakeUsers) Create(_ context.Context, u *user.User) error {
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUsers) GetOrCreateProfile(_ context.Context, userID int64) (*user.Profile, error) {
	if p, ok := f.profiles[userID]; ok {
		return &p, nil
	}
	p := user.Profile{UserID: userID}
	f.profiles[userID] = p
	return &p, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, p *user.Profile) error {
	f.profiles[p.UserID] = *p
	return nil
}

type fakeAPIKeys struct {
	byHash map[string]auth.APIKeyInfo
}

var _ auth.Repository = (*fakeAPIKeys)(nil)

func (f *fakeAPIKeys) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	info, ok := f.byHash[hash]
	if !ok {
		return nil, auth.ErrKeyNotFound
	}
	return &info, nil
}
