package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"katalog/internal/models"
	"katalog/internal/repositories"
	"katalog/pkg/cache"
)

// ErrProductNotFound is returned when the requested product is absent or
// soft-deleted.
var ErrProductNotFound = errors.New("product not found")

// Cache TTLs per query type. Search results churn more, so they expire first.
const (
	singleProductTTL = 30 * time.Minute
	listingTTL       = 15 * time.Minute
	searchTTL        = 10 * time.Minute
)

// Pagination defaults. MaxPageSize bounds the in-memory sort/scan a single
// request can trigger.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// EventPublisher publishes catalog events. Implemented by rabbitmq.Client.
type EventPublisher interface {
	Publish(event string, body []byte) error
}

// ProductService orchestrates the product repository and the cache: reads go
// through the cache, writes hit the repository first and invalidate the
// affected cache entries afterwards. The cache is never the source of truth.
type ProductService struct {
	repo   repositories.Repository[models.Product]
	cache  cache.Cache
	events EventPublisher
	log    *logrus.Logger
}

// NewProductService creates a new ProductService. events may be nil; catalog
// events are then skipped.
func NewProductService(repo repositories.Repository[models.Product], c cache.Cache, events EventPublisher, log *logrus.Logger) *ProductService {
	return &ProductService{repo: repo, cache: c, events: events, log: log}
}

// GetProductByID returns one product, read-through cached for 30 minutes.
func (s *ProductService) GetProductByID(ctx context.Context, id uint) (*ProductResponse, error) {
	key := fmt.Sprintf("product:%d", id)

	var cached ProductResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	product, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	resp := toProductResponse(product)
	s.cache.Set(ctx, key, resp, singleProductTTL)
	return resp, nil
}

// GetAllProducts returns the filtered, sorted, paginated listing. A nil
// filter means the full active catalog. The cache key is computed from every
// filter field, so each distinct query caches independently.
func (s *ProductService) GetAllProducts(ctx context.Context, filter *ProductFilter) ([]ProductResponse, error) {
	key := "products:all"
	if filter != nil {
		filter.normalize()
		key = filter.cacheKey()
	}

	var cached []ProductResponse
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	resp := toProductResponses(applyFilter(products, filter))
	s.cache.Set(ctx, key, resp, listingTTL)
	return resp, nil
}

// GetProductsByCategory returns the active products in one category.
func (s *ProductService) GetProductsByCategory(ctx context.Context, category string) ([]ProductResponse, error) {
	key := "products:category:" + category

	var cached []ProductResponse
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	products, err := s.repo.GetWhere(ctx, func(p *models.Product) bool {
		return p.Category == category && p.IsActive
	})
	if err != nil {
		return nil, err
	}

	resp := toProductResponses(products)
	s.cache.Set(ctx, key, resp, listingTTL)
	return resp, nil
}

// SearchProducts matches the term case-insensitively against name,
// description, brand and category of active products.
func (s *ProductService) SearchProducts(ctx context.Context, term string) ([]ProductResponse, error) {
	key := "products:search:" + term

	var cached []ProductResponse
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	products, err := s.repo.GetWhere(ctx, func(p *models.Product) bool {
		return p.IsActive && (containsFold(p.Name, term) ||
			containsFold(p.Description, term) ||
			containsFold(p.Brand, term) ||
			containsFold(p.Category, term))
	})
	if err != nil {
		return nil, err
	}

	resp := toProductResponses(products)
	s.cache.Set(ctx, key, resp, searchTTL)
	return resp, nil
}

// CreateProduct persists a new active product, then invalidates the listing
// caches. Invalidation happens only after the write commits, so the cache can
// never hold data that was never stored.
func (s *ProductService) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductResponse, error) {
	product := &models.Product{
		Name:          input.Name,
		Description:   input.Description,
		Price:         input.Price,
		StockQuantity: input.StockQuantity,
		ImageURL:      input.ImageURL,
		Category:      input.Category,
		Brand:         input.Brand,
		IsActive:      true,
	}

	created, err := s.repo.Add(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.cache.RemoveByPattern(ctx, "products:*")

	resp := toProductResponse(created)
	s.publishEvent("product.created", resp)
	return resp, nil
}

// UpdateProduct replaces the product's state, then invalidates the listing
// caches and the product's own cache entry.
func (s *ProductService) UpdateProduct(ctx context.Context, id uint, input UpdateProductInput) (*ProductResponse, error) {
	product, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Price = input.Price
	product.StockQuantity = input.StockQuantity
	product.Category = input.Category
	product.Brand = input.Brand
	product.IsActive = input.IsActive
	if input.ImageURL != "" {
		product.ImageURL = input.ImageURL
	}

	updated, err := s.repo.Update(ctx, product)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}

	s.cache.RemoveByPattern(ctx, "products:*")
	s.cache.Remove(ctx, fmt.Sprintf("product:%d", id))

	resp := toProductResponse(updated)
	s.publishEvent("product.updated", resp)
	return resp, nil
}

// DeleteProduct soft-deletes the product and invalidates its cache entries.
// The stored image identifier is returned so the caller can clean up the
// binary; the catalog itself never touches image files.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) (string, error) {
	product, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return "", ErrProductNotFound
	}
	if err != nil {
		return "", err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	if !deleted {
		return "", ErrProductNotFound
	}

	s.cache.RemoveByPattern(ctx, "products:*")
	s.cache.Remove(ctx, fmt.Sprintf("product:%d", id))

	s.publishEvent("product.deleted", map[string]uint{"id": id})
	return product.ImageURL, nil
}

// publishEvent sends a catalog event, tolerating a missing or failing broker
// the same way cache failures are tolerated: the write already committed.
func (s *ProductService) publishEvent(event string, payload any) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		s.log.WithError(err).WithField("event", event).Warn("failed to marshal catalog event")
		return
	}
	if err := s.events.Publish(event, body); err != nil {
		s.log.WithError(err).WithField("event", event).Warn("failed to publish catalog event")
	}
}

// normalize applies pagination defaults and the page size cap.
func (f *ProductFilter) normalize() {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
}

// cacheKey concatenates every filter field into a deterministic key under the
// products: prefix, so write invalidation can clear all listings at once.
func (f *ProductFilter) cacheKey() string {
	minPrice, maxPrice, active := "", "", ""
	if f.MinPrice != nil {
		minPrice = fmt.Sprintf("%g", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		maxPrice = fmt.Sprintf("%g", *f.MaxPrice)
	}
	if f.IsActive != nil {
		active = fmt.Sprintf("%t", *f.IsActive)
	}
	return fmt.Sprintf("products:filtered:%s:%s:%s:%s:%s:%s:%s:%d:%d",
		f.SearchTerm, f.Category, f.Brand, minPrice, maxPrice, active, f.SortBy, f.Page, f.PageSize)
}

// applyFilter runs the in-memory listing pipeline: visibility, text search,
// exact matches, price bounds, sort, pagination. A nil filter yields the
// active catalog unpaginated.
func applyFilter(products []models.Product, f *ProductFilter) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if f != nil && f.IsActive != nil {
			if p.IsActive != *f.IsActive {
				continue
			}
		} else if !p.IsActive {
			continue
		}
		if f == nil {
			out = append(out, p)
			continue
		}
		if f.SearchTerm != "" && !containsFold(p.Name, f.SearchTerm) && !containsFold(p.Description, f.SearchTerm) {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Brand != "" && p.Brand != f.Brand {
			continue
		}
		if f.MinPrice != nil && p.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && p.Price > *f.MaxPrice {
			continue
		}
		out = append(out, p)
	}
	if f == nil {
		return out
	}

	switch f.SortBy {
	case "price_asc":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case "price_desc":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	case "name_asc":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	case "name_desc":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	default:
		// any other value keeps insertion order
	}

	skip := (f.Page - 1) * f.PageSize
	if skip >= len(out) {
		return []models.Product{}
	}
	end := skip + f.PageSize
	if end > len(out) {
		end = len(out)
	}
	return out[skip:end]
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
