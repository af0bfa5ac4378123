package handlers

import (
	"errors"
	"fmt"
	"strings"

	"stockroom/internal/models"
	"stockroom/internal/services"
	"stockroom/pkg/logging"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ProductHandler serves the inventory routes.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
	log      *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: models.NewValidator(),
		log:      logging.OrNop(logger),
	}
}

// RegisterRoutes registers the inventory routes. guards run before every
// mutating route only.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, guards ...fiber.Handler) {
	stock := router.Group("/estoque")
	stock.Get("/", h.HandleList)
	stock.Get("/vendas", h.HandleSales)
	// registered after /vendas so the literal route wins
	stock.Get("/:codigo", h.HandleGet)

	stock.Post("/cadastro", chain(guards, h.HandleUpsert)...)
	stock.Put("/editar", chain(guards, h.HandleUpdate)...)
	stock.Post("/venda", chain(guards, h.HandleSell)...)
	stock.Post("/saida", chain(guards, h.HandleSell)...)
	stock.Delete("/excluir", chain(guards, h.HandleDelete)...)
}

func chain(guards []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	handlers := make([]fiber.Handler, 0, len(guards)+1)
	handlers = append(handlers, guards...)
	return append(handlers, handler)
}

// HandleList returns every product.
func (h *ProductHandler) HandleList(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		h.log.Error("list_products_failed", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Could not retrieve stock")
	}
	return c.JSON(products)
}

// HandleGet returns one product by code.
func (h *ProductHandler) HandleGet(c *fiber.Ctx) error {
	code := models.NormalizeCode(c.Params("codigo"))
	product, err := h.service.GetProduct(code)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			return fail(c, fiber.StatusNotFound, "Code not found.")
		}
		h.log.Error("get_product_failed", zap.String("code", code), zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Could not retrieve product")
	}
	return c.JSON(product)
}

// HandleUpsert creates a product or replaces the one with the same code.
func (h *ProductHandler) HandleUpsert(c *fiber.Ctx) error {
	product, ok, err := h.parseProduct(c)
	if !ok {
		return err
	}

	created, err := h.service.UpsertProduct(product)
	if err != nil {
		h.log.Error("upsert_product_failed", zap.String("code", product.Code), zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Could not save product")
	}

	message := "Product updated successfully!"
	if created {
		message = "Product added successfully!"
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"mensagem": message,
		"produto":  product,
	})
}

// HandleUpdate edits an existing product.
func (h *ProductHandler) HandleUpdate(c *fiber.Ctx) error {
	product, ok, err := h.parseProduct(c)
	if !ok {
		return err
	}

	if err := h.service.UpdateProduct(product); err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			return fail(c, fiber.StatusNotFound, "Code not found.")
		}
		h.log.Error("update_product_failed", zap.String("code", product.Code), zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Could not update product")
	}
	return c.JSON(fiber.Map{
		"mensagem": "Product updated successfully!",
		"produto":  product,
	})
}

// HandleSell registers the sale of one or more units.
func (h *ProductHandler) HandleSell(c *fiber.Ctx) error {
	var req models.SellRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Code) == "" {
		return fail(c, fiber.StatusBadRequest, "Code not provided")
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	product, _, err := h.service.SellProduct(req.Code, quantity)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidQuantity):
			return fail(c, fiber.StatusBadRequest, "Quantity must be greater than zero.")
		case errors.Is(err, models.ErrProductNotFound):
			return fail(c, fiber.StatusNotFound, "Code not found.")
		case errors.Is(err, models.ErrInsufficientStock):
			return fail(c, fiber.StatusConflict, insufficientMessage(err))
		}
		h.log.Error("sell_product_failed", zap.String("code", req.Code), zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Could not register sale")
	}

	return c.JSON(fiber.Map{
		"mensagem": services.SaleMessage(product, quantity),
		"item":     product,
	})
}

// HandleDelete removes a product.
func (h *ProductHandler) HandleDelete(c *fiber.Ctx) error {
	var req models.DeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	code := models.NormalizeCode(req.Code)
	if code == "" {
		return fail(c, fiber.StatusBadRequest, "Code not provided")
	}

	if err := h.service.DeleteProduct(code); err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			return fail(c, fiber.StatusNotFound, "Code not found.")
		}
		h.log.Error("delete_product_failed", zap.String("code", code), zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Could not delete product")
	}
	return c.JSON(fiber.Map{
		"mensagem": fmt.Sprintf("Product %s deleted.", code),
	})
}

// HandleSales returns the sales ledger.
func (h *ProductHandler) HandleSales(c *fiber.Ctx) error {
	sales, err := h.service.GetSales()
	if err != nil {
		h.log.Error("list_sales_failed", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Could not retrieve sales")
	}
	return c.JSON(sales)
}

// parseProduct binds and validates a product body. When ok is false the
// error response has already been written and err is its write result.
func (h *ProductHandler) parseProduct(c *fiber.Ctx) (product *models.Product, ok bool, err error) {
	var req models.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, false, fail(c, fiber.StatusBadRequest, "Invalid price or quantity")
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, false, invalid(c, models.ValidationMessages(err))
	}
	p := req.Product()
	if err := h.validate.Struct(p); err != nil {
		return nil, false, invalid(c, models.ValidationMessages(err))
	}
	return &p, true, nil
}

func insufficientMessage(err error) string {
	var stockErr *models.InsufficientStockError
	if errors.As(err, &stockErr) {
		return fmt.Sprintf("Insufficient stock. Only %d units left.", stockErr.Available)
	}
	return "Insufficient stock."
}
