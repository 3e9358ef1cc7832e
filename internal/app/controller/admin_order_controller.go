package controller

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/zorvex/zorvex-backend/internal/app/model"
	"github.com/zorvex/zorvex-backend/internal/app/service"
	apperrors "github.com/zorvex/zorvex-backend/internal/errors"
	"github.com/zorvex/zorvex-backend/internal/middleware"
	ws "github.com/zorvex/zorvex-backend/internal/websocket"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AdminOrderController struct {
	orderService     service.OrderService
	dashboardService service.DashboardService
	hub              *ws.Hub
	upgrader         websocket.Upgrader
}

// NewAdminOrderController accepts feed connections from allowedOrigins; "*"
// allows any origin.
func NewAdminOrderController(
	orderService service.OrderService,
	dashboardService service.DashboardService,
	hub *ws.Hub,
	allowedOrigins []string,
) *AdminOrderController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[strings.TrimSuffix(o, "/")] = true
	}

	return &AdminOrderController{
		orderService:     orderService,
		dashboardService: dashboardService,
		hub:              hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins["*"] || origins[origin]
			},
		},
	}
}

type ChangeStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required,oneof=pending processing delivered cancelled"`
}

func orderQuery(c *gin.Context) service.OrderQuery {
	page, limit := pageQuery(c)
	return service.OrderQuery{
		Page:   page,
		Limit:  limit,
		Status: model.OrderStatus(c.Query("status")),
		Search: strings.TrimSpace(c.Query("search")),
	}
}

// Dashboard returns the back-office totals
// GET /admin
func (ctrl *AdminOrderController) Dashboard(c *gin.Context) {
	stats, err := ctrl.dashboardService.Stats()
	if err != nil {
		respondError(c, err, "dashboard")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"page":  "dashboard",
		"stats": stats,
	})
}

// ListOrders GET /admin/orders?status=&search=&page=&limit=
func (ctrl *AdminOrderController) ListOrders(c *gin.Context) {
	query := orderQuery(c)
	if query.Status != "" && !model.ValidOrderStatus(query.Status) {
		respondError(c, service.ErrInvalidOrderStatus, "list orders")
		return
	}
	result, err := ctrl.orderService.List(query)
	if err != nil {
		respondError(c, err, "list orders")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetOrder GET /admin/orders/:id
func (ctrl *AdminOrderController) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	order, err := ctrl.orderService.GetByID(id)
	if err != nil {
		respondError(c, err, "get order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// ChangeStatus moves an order to another status
// PATCH /admin/orders/:id/status
func (ctrl *AdminOrderController) ChangeStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ChangeStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := ctrl.orderService.ChangeStatus(id, req.Status)
	if err != nil {
		respondError(c, err, "update order")
		return
	}

	log.Info("Order status changed", map[string]interface{}{
		"order_id": id,
		"status":   req.Status,
	})
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// ExportOrders downloads the filtered orders as a spreadsheet
// GET /admin/orders/export?status=&search=
func (ctrl *AdminOrderController) ExportOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orders, err := ctrl.orderService.Export(orderQuery(c))
	if err != nil {
		respondError(c, err, "export orders")
		return
	}

	var buf bytes.Buffer
	if err := service.WriteOrdersWorkbook(&buf, orders); err != nil {
		log.Error("Failed to build order workbook", err, map[string]interface{}{
			"orders": len(orders),
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.OrderExportFailed, "Could not export orders")
		return
	}

	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())

	log.Info("Orders exported", map[string]interface{}{
		"orders": len(orders),
	})
}

// Feed streams order events to the back office
// GET /api/v1/admin/orders/feed
func (ctrl *AdminOrderController) Feed(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, userID)
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("Order feed connection established", map[string]interface{}{
		"user_id": userID,
	})
}
