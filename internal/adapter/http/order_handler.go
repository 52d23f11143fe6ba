package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	domain "github.com/tiendamx/shop-api/internal/entity"
	"github.com/tiendamx/shop-api/internal/logging"
	"github.com/tiendamx/shop-api/internal/payment"
	"github.com/tiendamx/shop-api/internal/usecase"
)

type OrderHandler struct {
	create *usecase.CreateOrder
	admin  *usecase.AdminOrders
}

func NewOrderHandler(create *usecase.CreateOrder, admin *usecase.AdminOrders) *OrderHandler {
	return &OrderHandler{create: create, admin: admin}
}

type createOrderReq struct {
	Customer struct {
		Name    string `json:"name" binding:"required"`
		Email   string `json:"email" binding:"required,email"`
		Phone   string `json:"phone"`
		ZipCode string `json:"zipCode"`
	} `json:"customer" binding:"required"`

	Items []struct {
		ProductID string `json:"productId" binding:"required"`
		Size      string `json:"size" binding:"required"`
		Quantity  int    `json:"quantity" binding:"required,gt=0"`
	} `json:"items" binding:"required,dive"`

	ShippingAddress *domain.ShippingAddress `json:"shippingAddress"`
	CustomerNotes   string                  `json:"customerNotes"`
	PaymentMethod   string                  `json:"paymentMethod"`
}

// CreateOrder handler: guest checkout submission.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	in := usecase.CreateOrderInput{
		Customer: domain.Customer{
			Name:    req.Customer.Name,
			Email:   req.Customer.Email,
			Phone:   req.Customer.Phone,
			ZipCode: req.Customer.ZipCode,
		},
		ShippingAddress: req.ShippingAddress,
		Notes:           req.CustomerNotes,
		PaymentMethod:   req.PaymentMethod,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, usecase.ItemInput{ProductID: it.ProductID, Size: it.Size, Quantity: it.Quantity})
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	out, err := h.create.Execute(ctx, in)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order": gin.H{
			"id":           out.Order.ID,
			"order_number": out.Order.OrderNumber,
			"total_cents":  out.Order.TotalCents,
			"status":       out.Order.Status,
		},
		"checkout": out.Checkout,
	})
}

// OrderStatus is the public polling endpoint the storefront hits while the
// customer waits on the provider redirect.
func (h *OrderHandler) OrderStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status, err := h.admin.Status(ctx, c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "status": status})
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	order, err := h.admin.Get(ctx, c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	h.list(c, false)
}

// ListArchived serves archived orders as a separate listing.
func (h *OrderHandler) ListArchived(c *gin.Context) {
	h.list(c, true)
}

func (h *OrderHandler) list(c *gin.Context, archived bool) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	f := usecase.OrderFilter{
		Status:        filterParam(c, "status"),
		PaymentMethod: filterParam(c, "paymentMethod"),
		PaymentStatus: filterParam(c, "paymentStatus"),
		Archived:      archived,
		Page:          page,
		Limit:         limit,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	res, err := h.admin.List(ctx, f)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

type updateStatusReq struct {
	Status string `json:"status" binding:"required"`
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	order, err := h.admin.UpdateStatus(ctx, c.Param("id"), domain.Status(req.Status))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, order)
}

type archiveReq struct {
	Reason string `json:"reason"`
}

func (h *OrderHandler) Archive(c *gin.Context) {
	var req archiveReq
	_ = c.ShouldBindJSON(&req)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.admin.Archive(ctx, c.Param("id"), req.Reason); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"archived": true})
}

func (h *OrderHandler) Restore(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.admin.Restore(ctx, c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"archived": false})
}

// Delete archives; only DeletePermanently destroys the row.
func (h *OrderHandler) Delete(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.admin.Delete(ctx, c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *OrderHandler) DeletePermanently(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.admin.PermanentDelete(ctx, c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	logging.From(c).Info("order permanently deleted", "order_id", c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"deleted": true, "permanent": true})
}

// filterParam treats "all" and "" as no filter, matching the admin UI contract.
func filterParam(c *gin.Context, name string) string {
	v := c.Query(name)
	if v == "all" {
		return ""
	}
	return v
}

// statusFor maps the core's error vocabulary onto HTTP classes: client-input
// validation → 4xx, upstream provider failures → 5xx.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrCustomerIncomplete),
		errors.Is(err, domain.ErrEmptyOrder),
		errors.Is(err, domain.ErrSizeUnavailable),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, payment.ErrUnsupportedProvider),
		errors.Is(err, payment.ErrProviderDisabled):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, usecase.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrProviderFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
