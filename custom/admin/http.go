package admin

import (
	"net/http"

	"github.com/romana/rlog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"invite_shop/constants"
	"invite_shop/custom/status"
	"invite_shop/custom/util"
	"invite_shop/model"
)

// Operator actions over orders. Authorization happens at the boundary: every
// route here is mounted behind the admin principal check, the handlers do
// not re-derive identity.
type HandlerContext struct {
	db *gorm.DB
}

type OrderActionRequest struct {
	OrderId uint `json:"order_id"`
}

type OrderActionResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

type QueryOrderRequest struct {
	OrderId uint `json:"order_id"`
}

type SummaryResponse struct {
	OrderCount int64           `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

func (ctx *HandlerContext) InitialHandlerContext(db *gorm.DB) {
	ctx.db = db
}

// ApproveOrder PAYMENT_REVIEW -> APPROVED
func (ctx *HandlerContext) ApproveOrder(w http.ResponseWriter, r *http.Request) {
	ctx.transitionOrder(w, r, status.EVENT_APPROVE, constants.PAYMENT_STATUS_APPROVED)
}

// RejectOrder PAYMENT_REVIEW -> PENDING_PAYMENT, customer must re-upload
func (ctx *HandlerContext) RejectOrder(w http.ResponseWriter, r *http.Request) {
	ctx.transitionOrder(w, r, status.EVENT_REJECT, constants.PAYMENT_STATUS_REJECTED)
}

// StartPrinting APPROVED -> PRINTING
func (ctx *HandlerContext) StartPrinting(w http.ResponseWriter, r *http.Request) {
	ctx.transitionOrder(w, r, status.EVENT_START_PRINTING, "")
}

// ShipOrder PRINTING -> SHIPPED
func (ctx *HandlerContext) ShipOrder(w http.ResponseWriter, r *http.Request) {
	ctx.transitionOrder(w, r, status.EVENT_SHIP, "")
}

// CompleteOrder APPROVED or SHIPPED -> COMPLETED
func (ctx *HandlerContext) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx.transitionOrder(w, r, status.EVENT_COMPLETE, "")
}

// DeleteOrder tombstones an order. It disappears from listings and
// aggregates but stays fetchable by id.
func (ctx *HandlerContext) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx.transitionOrder(w, r, status.EVENT_DELETE, "")
}

// transitionOrder runs one guarded action: fetch, check the transition table
// against the current status, then update with the source status in the
// WHERE clause so a stale double-submission matches no row instead of
// corrupting state.
func (ctx *HandlerContext) transitionOrder(w http.ResponseWriter, r *http.Request, event string, paymentStatus string) {
	// Validate http method
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}

	req := OrderActionRequest{}
	err := util.FetchReqObject(r, &req)
	if err != nil {
		util.WriteJson(w, http.StatusBadRequest, OrderActionResponse{Message: err.Error()})
		return
	}
	if req.OrderId == 0 {
		util.WriteJson(w, http.StatusBadRequest, OrderActionResponse{Message: "Order id is required"})
		return
	}

	// Fetch order
	orderInfo := model.Order{}
	errDb := ctx.db.Where("id = ?", req.OrderId).First(&orderInfo).Error
	if errDb != nil {
		util.WriteJson(w, http.StatusNotFound, OrderActionResponse{Message: constants.ORDER_NOT_FOUND})
		return
	}

	// Validate order state
	nextState, err := status.Next(orderInfo.Status, event)
	if err != nil {
		util.WriteJson(w, http.StatusConflict, OrderActionResponse{Message: constants.INVALID_TRANSITION})
		return
	}

	updates := map[string]interface{}{"status": nextState}
	if paymentStatus != "" {
		updates["payment_status"] = paymentStatus
	}
	result := ctx.db.Model(&model.Order{}).
		Where("id = ? AND status = ?", orderInfo.ID, orderInfo.Status).
		Updates(updates)
	if result.Error != nil {
		rlog.Error(result.Error.Error())
		util.WriteJson(w, http.StatusInternalServerError, OrderActionResponse{Message: "update order failed"})
		return
	}
	if result.RowsAffected == 0 {
		// Someone else moved the order first
		util.WriteJson(w, http.StatusConflict, OrderActionResponse{Message: constants.INVALID_TRANSITION})
		return
	}

	rlog.Infof("Order %d %s -> %s (%s)", orderInfo.ID, orderInfo.Status, nextState, status.StatusToLabel(nextState))
	util.WriteJson(w, http.StatusOK, OrderActionResponse{Success: true, Status: nextState})
}

// QueryOrder Fetch one order with its items. Tombstoned orders stay
// individually fetchable for audit.
func (ctx *HandlerContext) QueryOrder(w http.ResponseWriter, r *http.Request) {
	// Validate http method
	if !util.IsAllowHttpMethod([]string{http.MethodGet}, w, r) {
		return
	}

	req := QueryOrderRequest{}
	err := util.FetchReqObject(r, &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.OrderId == 0 {
		http.Error(w, "Order id is required", http.StatusBadRequest)
		return
	}

	orderInfo := model.Order{}
	errDb := ctx.db.Preload("Items").Where("id = ?", req.OrderId).First(&orderInfo).Error
	if errDb != nil {
		rlog.Error(errDb.Error())
		http.Error(w, constants.ORDER_NOT_FOUND, http.StatusNotFound)
		return
	}
	util.WriteJson(w, http.StatusOK, orderInfo)
}

// ListOrders All orders except tombstones, newest first
func (ctx *HandlerContext) ListOrders(w http.ResponseWriter, r *http.Request) {
	// Validate http method
	if !util.IsAllowHttpMethod([]string{http.MethodGet}, w, r) {
		return
	}

	orders := make([]model.Order, 0)
	errDb := ctx.db.Where("status <> ?", status.ORDER_STATUS_DELETED).Order("id DESC").Find(&orders).Error
	if errDb != nil {
		rlog.Error(errDb.Error())
		http.Error(w, "query orders failed", http.StatusInternalServerError)
		return
	}
	util.WriteJson(w, http.StatusOK, orders)
}

// Summary Order count and revenue, tombstones excluded
func (ctx *HandlerContext) Summary(w http.ResponseWriter, r *http.Request) {
	// Validate http method
	if !util.IsAllowHttpMethod([]string{http.MethodGet}, w, r) {
		return
	}

	var orderCount int64
	errDb := ctx.db.Model(&model.Order{}).
		Where("status <> ?", status.ORDER_STATUS_DELETED).
		Count(&orderCount).Error
	if errDb != nil {
		rlog.Error(errDb.Error())
		http.Error(w, "query summary failed", http.StatusInternalServerError)
		return
	}

	revenue := decimal.Zero
	row := ctx.db.Model(&model.Order{}).
		Where("status <> ?", status.ORDER_STATUS_DELETED).
		Select("COALESCE(SUM(total_amount), 0)").Row()
	if err := row.Scan(&revenue); err != nil {
		rlog.Error(err.Error())
		http.Error(w, "query summary failed", http.StatusInternalServerError)
		return
	}

	util.WriteJson(w, http.StatusOK, SummaryResponse{OrderCount: orderCount, Revenue: revenue})
}
