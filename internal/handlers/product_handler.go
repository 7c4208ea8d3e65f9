package handlers

import (
	"errors"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"katalog/internal/middleware"
	"katalog/internal/services"
	"katalog/pkg/imagestore"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	service  *services.ProductService
	images   *imagestore.DiskStore
	validate *validator.Validate
	log      *logrus.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, images *imagestore.DiskStore, log *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		service:  service,
		images:   images,
		validate: validator.New(),
		log:      log,
	}
}

// RegisterRoutes registers the product routes with the Fiber app. Mutating
// routes require a valid bearer token.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, authService *services.AuthService) {
	products := router.Group("/products")
	products.Get("/", h.HandleList)
	products.Get("/search", h.HandleSearch)
	products.Get("/category/:category", h.HandleGetByCategory)
	products.Get("/image/:id", h.HandleGetImage)
	products.Get("/:id", h.HandleGetByID)

	auth := middleware.AuthRequired(authService)
	products.Post("/", auth, h.HandleCreate)
	products.Put("/:id", auth, h.HandleUpdate)
	products.Delete("/:id", auth, h.HandleDelete)
}

// HandleList returns the filtered product listing. Without query parameters
// the full active catalog is returned.
func (h *ProductHandler) HandleList(c *fiber.Ctx) error {
	var filter *services.ProductFilter
	if len(c.Queries()) > 0 {
		filter = new(services.ProductFilter)
		if err := c.QueryParser(filter); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid query parameters",
				"error":   err.Error(),
			})
		}
	}

	products, err := h.service.GetAllProducts(c.UserContext(), filter)
	if err != nil {
		h.log.WithError(err).Error("failed to list products")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
		})
	}
	return c.JSON(products)
}

// HandleSearch returns active products matching the search term.
func (h *ProductHandler) HandleSearch(c *fiber.Ctx) error {
	term := c.Query("q")
	if term == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Query parameter 'q' is required",
		})
	}

	products, err := h.service.SearchProducts(c.UserContext(), term)
	if err != nil {
		h.log.WithError(err).Error("product search failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not search products",
		})
	}
	return c.JSON(products)
}

// HandleGetByCategory returns the active products in one category.
func (h *ProductHandler) HandleGetByCategory(c *fiber.Ctx) error {
	products, err := h.service.GetProductsByCategory(c.UserContext(), c.Params("category"))
	if err != nil {
		h.log.WithError(err).Error("failed to list products by category")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
		})
	}
	return c.JSON(products)
}

// HandleGetByID returns a single product.
func (h *ProductHandler) HandleGetByID(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid product ID",
		})
	}

	product, err := h.service.GetProductByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product not found",
			})
		}
		h.log.WithError(err).Error("failed to get product")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve product",
		})
	}
	return c.JSON(product)
}

// HandleGetImage serves a stored product image by its opaque identifier.
func (h *ProductHandler) HandleGetImage(c *fiber.Ctx) error {
	path, err := h.images.Path(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Image not found",
		})
	}
	return c.SendFile(path)
}

// HandleCreate creates a product from multipart form data, storing an
// attached image first so the new row can reference it.
func (h *ProductHandler) HandleCreate(c *fiber.Ctx) error {
	input := services.CreateProductInput{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Category:    c.FormValue("category"),
		Brand:       c.FormValue("brand"),
	}
	var err error
	if input.Price, err = parsePrice(c.FormValue("price")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid price",
		})
	}
	if input.StockQuantity, err = parseStock(c.FormValue("stock_quantity")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid stock quantity",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationMessages(err),
		})
	}

	imageID, err := h.storeUploadedImage(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	}
	input.ImageURL = imageID

	product, err := h.service.CreateProduct(c.UserContext(), input)
	if err != nil {
		h.log.WithError(err).Error("failed to create product")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create product",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdate replaces a product's state from multipart form data. A new
// image replaces the stored reference; without one the reference is kept.
func (h *ProductHandler) HandleUpdate(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid product ID",
		})
	}

	input := services.UpdateProductInput{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Category:    c.FormValue("category"),
		Brand:       c.FormValue("brand"),
		IsActive:    true,
	}
	if input.Price, err = parsePrice(c.FormValue("price")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid price",
		})
	}
	if input.StockQuantity, err = parseStock(c.FormValue("stock_quantity")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid stock quantity",
		})
	}
	if raw := c.FormValue("is_active"); raw != "" {
		if input.IsActive, err = strconv.ParseBool(raw); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid is_active value",
			})
		}
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationMessages(err),
		})
	}

	imageID, err := h.storeUploadedImage(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	}
	input.ImageURL = imageID

	product, err := h.service.UpdateProduct(c.UserContext(), id, input)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product not found",
			})
		}
		h.log.WithError(err).Error("failed to update product")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update product",
		})
	}
	return c.JSON(product)
}

// HandleDelete soft-deletes a product and removes its stored image, if any.
func (h *ProductHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid product ID",
		})
	}

	imageRef, err := h.service.DeleteProduct(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product not found",
			})
		}
		h.log.WithError(err).Error("failed to delete product")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete product",
		})
	}

	// Best effort: a leftover file is preferable to failing the delete.
	if imageRef != "" {
		if err := h.images.Remove(imageRef); err != nil {
			h.log.WithError(err).WithField("image", imageRef).Warn("failed to remove product image")
		}
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// storeUploadedImage persists the "image" form file if present and returns
// its identifier. Non-image uploads are rejected.
func (h *ProductHandler) storeUploadedImage(c *fiber.Ctx) (string, error) {
	header, err := c.FormFile("image")
	if err != nil {
		return "", nil // no file attached
	}
	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		return "", errors.New("only image files can be uploaded")
	}

	file, err := header.Open()
	if err != nil {
		return "", errors.New("could not read uploaded file")
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	id, err := h.images.Save(file, header.Filename)
	if err != nil {
		h.log.WithError(err).Error("failed to store uploaded image")
		return "", errors.New("could not store uploaded file")
	}
	return id, nil
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

func parsePrice(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func parseStock(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
