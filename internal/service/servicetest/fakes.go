// Package servicetest provides in-memory implementations of the service
// dependencies for tests.
package servicetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/payment"
	"marketplace-service/internal/repository"
)

type UserRepo struct {
	Users  map[int64]*entity.User
	NextID int64
	Err    error
}

func NewUserRepo() *UserRepo {
	return &UserRepo{Users: map[int64]*entity.User{}, NextID: 1}
}

func (r *UserRepo) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	if u, ok := r.Users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepo) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range r.Users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepo) GetUserByUsername(_ context.Context, username string) (*entity.User, error) {
	for _, u := range r.Users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepo) CreateUser(_ context.Context, user *entity.User) (*entity.User, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	user.ID = r.NextID
	r.NextID++
	r.Users[user.ID] = user
	return user, nil
}

// Blacklist mimics SETNX. Delay is slept before the claim to widen races
// between concurrent callers.
type Blacklist struct {
	mu      sync.Mutex
	Entries map[string]time.Duration
	Delay   time.Duration
}

func NewBlacklist() *Blacklist {
	return &Blacklist{Entries: map[string]time.Duration{}}
}

func (b *Blacklist) Claim(_ context.Context, jti string, ttl time.Duration) (bool, error) {
	if b.Delay > 0 {
		time.Sleep(b.Delay)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.Entries[jti]; ok {
		return false, nil
	}
	b.Entries[jti] = ttl
	return true, nil
}

type SellerRepo struct {
	Profiles map[int64]*entity.SellerProfile
}

func (r *SellerRepo) GetByID(_ context.Context, id int64) (*entity.SellerProfile, error) {
	if p, ok := r.Profiles[id]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (r *SellerRepo) GetByUserID(_ context.Context, userID int64) (*entity.SellerProfile, error) {
	for _, p := range r.Profiles {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *SellerRepo) List(_ context.Context, approved *bool) ([]*entity.SellerProfile, error) {
	var out []*entity.SellerProfile
	for _, p := range r.Profiles {
		if approved == nil || p.IsApproved == *approved {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *SellerRepo) UpdateProfile(_ context.Context, profile *entity.SellerProfile) (*entity.SellerProfile, error) {
	r.Profiles[profile.ID] = profile
	return profile, nil
}

func (r *SellerRepo) SetApproval(_ context.Context, id int64, approved bool) (*entity.SellerProfile, error) {
	p, ok := r.Profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p.IsApproved = approved
	return p, nil
}

type CategoryRepo struct {
	Categories map[int64]*entity.Category
	NextID     int64
}

func NewCategoryRepo(cats ...*entity.Category) *CategoryRepo {
	r := &CategoryRepo{Categories: map[int64]*entity.Category{}, NextID: 1}
	for _, c := range cats {
		r.Categories[c.ID] = c
		if c.ID >= r.NextID {
			r.NextID = c.ID + 1
		}
	}
	return r
}

func (r *CategoryRepo) GetCategories(_ context.Context) ([]*entity.Category, error) {
	var out []*entity.Category
	for _, c := range r.Categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *CategoryRepo) GetCategoryByID(_ context.Context, id int64) (*entity.Category, error) {
	if c, ok := r.Categories[id]; ok {
		return c, nil
	}
	return nil, repository.ErrNotFound
}

func (r *CategoryRepo) CreateCategory(_ context.Context, category *entity.Category) (*entity.Category, error) {
	for _, c := range r.Categories {
		if c.Slug == category.Slug {
			return nil, fmt.Errorf("%w: slug", repository.ErrDuplicate)
		}
	}
	category.ID = r.NextID
	r.NextID++
	r.Categories[category.ID] = category
	return category, nil
}

type ProductRepo struct {
	Products map[int64]*entity.Product
	NextID   int64
	BySlug   int
}

func NewProductRepo(products ...*entity.Product) *ProductRepo {
	r := &ProductRepo{Products: map[int64]*entity.Product{}, NextID: 1}
	for _, p := range products {
		r.Products[p.ID] = p
		if p.ID >= r.NextID {
			r.NextID = p.ID + 1
		}
	}
	return r
}

func (r *ProductRepo) sorted(keep func(*entity.Product) bool) []*entity.Product {
	out := []*entity.Product{}
	for _, p := range r.Products {
		if keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *ProductRepo) GetAvailableProducts(_ context.Context, _ repository.ProductFilter) ([]*entity.Product, error) {
	return r.sorted(func(p *entity.Product) bool { return p.Available }), nil
}

func (r *ProductRepo) GetAvailableProductBySlug(_ context.Context, slug string) (*entity.Product, error) {
	r.BySlug++
	for _, p := range r.Products {
		if p.Slug == slug && p.Available {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *ProductRepo) GetSellerProducts(_ context.Context, sellerID int64) ([]*entity.Product, error) {
	return r.sorted(func(p *entity.Product) bool { return p.SellerID == sellerID }), nil
}

func (r *ProductRepo) GetSellerProductBySlug(_ context.Context, sellerID int64, slug string) (*entity.Product, error) {
	for _, p := range r.Products {
		if p.Slug == slug && p.SellerID == sellerID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *ProductRepo) slugTaken(slug string, exceptID int64) bool {
	for _, p := range r.Products {
		if p.Slug == slug && p.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *ProductRepo) CreateProduct(_ context.Context, product *entity.Product) (*entity.Product, error) {
	if r.slugTaken(product.Slug, 0) {
		return nil, fmt.Errorf("%w: slug", repository.ErrDuplicate)
	}
	product.ID = r.NextID
	r.NextID++
	cp := *product
	r.Products[product.ID] = &cp
	return product, nil
}

func (r *ProductRepo) UpdateProduct(_ context.Context, product *entity.Product) (*entity.Product, error) {
	if r.slugTaken(product.Slug, product.ID) {
		return nil, fmt.Errorf("%w: slug", repository.ErrDuplicate)
	}
	cp := *product
	r.Products[product.ID] = &cp
	return product, nil
}

func (r *ProductRepo) DeleteProduct(_ context.Context, id int64) error {
	delete(r.Products, id)
	return nil
}

type ProductCache struct {
	Entries map[string]*entity.Product
	Deleted []string
	Err     error
}

func NewProductCache() *ProductCache {
	return &ProductCache{Entries: map[string]*entity.Product{}}
}

func (c *ProductCache) Get(_ context.Context, slug string) (*entity.Product, bool, error) {
	if c.Err != nil {
		return nil, false, c.Err
	}
	p, ok := c.Entries[slug]
	return p, ok, nil
}

func (c *ProductCache) Set(_ context.Context, product *entity.Product) error {
	if c.Err != nil {
		return c.Err
	}
	c.Entries[product.Slug] = product
	return nil
}

func (c *ProductCache) Delete(_ context.Context, slugs ...string) error {
	for _, s := range slugs {
		delete(c.Entries, s)
		c.Deleted = append(c.Deleted, s)
	}
	return nil
}

// OrderRepo fills created orders' items from Catalog when a line's product
// is listed there.
type OrderRepo struct {
	Orders    map[int64]*entity.Order
	Catalog   map[int64]*entity.Product
	CreateErr error
	Created   []entity.LineRequest
	NextID    int64
}

func NewOrderRepo(orders ...*entity.Order) *OrderRepo {
	r := &OrderRepo{Orders: map[int64]*entity.Order{}, NextID: 1}
	for _, o := range orders {
		r.Orders[o.ID] = o
		if o.ID >= r.NextID {
			r.NextID = o.ID + 1
		}
	}
	return r
}

func (r *OrderRepo) CreateOrder(_ context.Context, order *entity.Order, lines []entity.LineRequest) (*entity.Order, error) {
	if r.CreateErr != nil {
		return nil, r.CreateErr
	}
	r.Created = lines
	for _, line := range lines {
		p, ok := r.Catalog[line.ProductID]
		if !ok {
			continue
		}
		p.Stock -= line.Quantity
		productID := p.ID
		order.Items = append(order.Items, entity.OrderItem{
			ProductID: &productID,
			Product:   p,
			Price:     p.Price,
			Quantity:  line.Quantity,
		})
	}
	order.ID = r.NextID
	r.NextID++
	r.Orders[order.ID] = order
	return order, nil
}

func (r *OrderRepo) GetCustomerOrder(_ context.Context, customerID, id int64) (*entity.Order, error) {
	o, ok := r.Orders[id]
	if !ok || o.CustomerID == nil || *o.CustomerID != customerID {
		return nil, repository.ErrNotFound
	}
	return o, nil
}

func (r *OrderRepo) GetCustomerOrders(_ context.Context, customerID int64) ([]*entity.Order, error) {
	out := []*entity.Order{}
	for _, o := range r.Orders {
		if o.CustomerID != nil && *o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *OrderRepo) GetOrderByRazorpayID(_ context.Context, razorpayOrderID string) (*entity.Order, error) {
	for _, o := range r.Orders {
		if o.RazorpayOrderID != nil && *o.RazorpayOrderID == razorpayOrderID {
			return o, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *OrderRepo) SetRazorpayOrderID(_ context.Context, id int64, razorpayOrderID string) error {
	if o, ok := r.Orders[id]; ok && !o.Paid {
		o.RazorpayOrderID = &razorpayOrderID
	}
	return nil
}

func (r *OrderRepo) MarkPaid(_ context.Context, razorpayOrderID, paymentID, signature string) (bool, error) {
	for _, o := range r.Orders {
		if o.RazorpayOrderID != nil && *o.RazorpayOrderID == razorpayOrderID && !o.Paid {
			o.Paid = true
			o.RazorpayPaymentID = &paymentID
			o.RazorpaySignature = &signature
			return true, nil
		}
	}
	return false, nil
}

type Idempotency struct {
	Keys     map[string]bool
	Released []string
}

func NewIdempotency() *Idempotency {
	return &Idempotency{Keys: map[string]bool{}}
}

func (f *Idempotency) Claim(_ context.Context, key string) (bool, error) {
	if f.Keys[key] {
		return false, nil
	}
	f.Keys[key] = true
	return true, nil
}

func (f *Idempotency) Release(_ context.Context, key string) error {
	delete(f.Keys, key)
	f.Released = append(f.Released, key)
	return nil
}

type Writer struct {
	mu       sync.Mutex
	Messages []kafka.Message
	Err      error
}

func (w *Writer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.Err != nil {
		return w.Err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Messages = append(w.Messages, msgs...)
	return nil
}

func (w *Writer) Keys() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.Messages))
	for i, m := range w.Messages {
		out[i] = string(m.Key)
	}
	return out
}

type Gateway struct {
	Requests []payment.OrderRequest
	Err      error
}

func (g *Gateway) CreateOrder(_ context.Context, req payment.OrderRequest) (*payment.Order, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	g.Requests = append(g.Requests, req)
	return &payment.Order{
		ID:       fmt.Sprintf("order_rzp_%d", len(g.Requests)),
		Entity:   "order",
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "Created",
	}, nil
}

func (g *Gateway) KeyID() string {
	return "rzp_test_key"
}
