package controller

import (
	"context"
	"errors"
	"log"
	"net/http"
	"slices"

	"order-fulfillment-service/internal/dto"
	"order-fulfillment-service/internal/middleware"
	"order-fulfillment-service/internal/model"
	"order-fulfillment-service/internal/service"
	"order-fulfillment-service/internal/validator"

	"github.com/gin-gonic/gin"
)

// OrderService is the slice of the service layer the controller consumes.
type OrderService interface {
	CreateOrder(ctx context.Context, userID string, req *dto.CreateOrderRequest) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error)
	GetOrderByID(ctx context.Context, orderID string) (*model.Order, error)
	GetOrdersByUserID(ctx context.Context, userID string) ([]*model.Order, error)
	GetAllOrders(ctx context.Context) ([]*model.Order, error)
	GetOrdersByStatus(ctx context.Context, status model.OrderStatus) ([]*model.Order, error)
}

type OrderController struct {
	Service OrderService
}

func NewOrderController(s OrderService) *OrderController {
	return &OrderController{Service: s}
}

// RegisterRoutes mounts every order route behind the auth middleware.
// Status updates and the listing endpoints additionally require admin.
func (ctl *OrderController) RegisterRoutes(r *gin.Engine, authMW gin.HandlerFunc) {
	auth := r.Group("/")
	auth.Use(authMW)

	auth.POST("/orders", ctl.CreateOrder)
	auth.GET("/orders/mine", ctl.GetMyOrders)
	auth.GET("/orders/:id", ctl.GetOrderByID)
	auth.GET("/orders/:id/tracking", ctl.GetOrderTracking)
	auth.PUT("/orders/:id/status", middleware.AdminOnly(), ctl.UpdateStatus)

	admin := auth.Group("/admin")
	admin.Use(middleware.AdminOnly())
	admin.GET("/orders", ctl.GetAllOrders)
	admin.GET("/orders/status/:status", ctl.GetOrdersByStatus)
}

// POST /orders
func (ctl *OrderController) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Fail("invalid request body"))
		return
	}

	if ok, fieldErrs := validator.ValidateCreateOrder(&req); !ok {
		c.JSON(http.StatusBadRequest, dto.FailWithDetails("validation failed", fieldErrs))
		return
	}

	// The caller's identity wins over anything in the body.
	userID := c.GetString("userID")

	order, err := ctl.Service.CreateOrder(c.Request.Context(), userID, &req)
	if err != nil {
		ctl.respondError(c, "create order", err)
		return
	}

	c.JSON(http.StatusCreated, dto.OK(order))
}

// GET /orders/:id — owner or admin
func (ctl *OrderController) GetOrderByID(c *gin.Context) {
	order, ok := ctl.fetchAuthorized(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.OK(order))
}

// GET /orders/:id/tracking — owner or admin
func (ctl *OrderController) GetOrderTracking(c *gin.Context) {
	order, ok := ctl.fetchAuthorized(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.OK(service.ProjectTracking(order)))
}

// PUT /orders/:id/status — admin only (route middleware)
func (ctl *OrderController) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Fail("invalid request body"))
		return
	}

	order, err := ctl.Service.UpdateOrderStatus(c.Request.Context(), c.Param("id"), model.OrderStatus(req.Status))
	if err != nil {
		ctl.respondError(c, "update order status", err)
		return
	}

	c.JSON(http.StatusOK, dto.OK(order))
}

// GET /orders/mine
func (ctl *OrderController) GetMyOrders(c *gin.Context) {
	orders, err := ctl.Service.GetOrdersByUserID(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		ctl.respondError(c, "list own orders", err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(orders))
}

// GET /admin/orders
func (ctl *OrderController) GetAllOrders(c *gin.Context) {
	orders, err := ctl.Service.GetAllOrders(c.Request.Context())
	if err != nil {
		ctl.respondError(c, "list all orders", err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(orders))
}

// GET /admin/orders/status/:status
func (ctl *OrderController) GetOrdersByStatus(c *gin.Context) {
	orders, err := ctl.Service.GetOrdersByStatus(c.Request.Context(), model.OrderStatus(c.Param("status")))
	if err != nil {
		ctl.respondError(c, "list orders by status", err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(orders))
}

// fetchAuthorized loads the order and enforces the owner-or-admin rule.
// On failure it has already written the response.
func (ctl *OrderController) fetchAuthorized(c *gin.Context) (*model.Order, bool) {
	order, err := ctl.Service.GetOrderByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		ctl.respondError(c, "get order", err)
		return nil, false
	}

	actorID := c.GetString("userID")
	perms := c.GetStringSlice("userPermissions")
	isAdmin := slices.Contains(perms, "admin")

	if !isAdmin && order.UserID != actorID {
		c.JSON(http.StatusForbidden, dto.Fail("you cannot view another user's order"))
		return nil, false
	}

	return order, true
}

// respondError translates service errors into HTTP responses. Anything
// unexpected is logged and answered with a generic message.
func (ctl *OrderController) respondError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, dto.Fail(err.Error()))
	case errors.Is(err, service.ErrProductUnavailable),
		errors.Is(err, service.ErrInsufficientInventory),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, dto.Fail(err.Error()))
	default:
		log.Printf("%s failed (order %s): %v", op, c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, dto.Fail("internal server error"))
	}
}
