package tracking

import (
	"net/http"

	"github.com/romana/rlog"
	"gorm.io/gorm"

	"invite_shop/constants"
	"invite_shop/custom/status"
	"invite_shop/custom/util"
	"invite_shop/model"
)

// Read-only projections for customers: the order progress indicator and the
// order history behind a guest-materialized account.
type HandlerContext struct {
	db *gorm.DB
}

type TrackOrderRequest struct {
	OrderId uint `json:"order_id"`
}

type TrackOrderResponse struct {
	OrderId uint     `json:"orderId"`
	Status  string   `json:"status"`
	Label   string   `json:"label"`
	Step    int      `json:"step"`
	Steps   []string `json:"steps"`
}

type OrderHistoryRequest struct {
	Email string `json:"email"`
}

func (ctx *HandlerContext) InitialHandlerContext(db *gorm.DB) {
	ctx.db = db
}

// TrackOrder Map an order's status onto the progress steps
func (ctx *HandlerContext) TrackOrder(w http.ResponseWriter, r *http.Request) {
	// Validate http method
	if !util.IsAllowHttpMethod([]string{http.MethodGet}, w, r) {
		return
	}

	req := TrackOrderRequest{}
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
	errDb := ctx.db.Where("id = ?", req.OrderId).First(&orderInfo).Error
	if errDb != nil {
		http.Error(w, constants.ORDER_NOT_FOUND, http.StatusNotFound)
		return
	}

	util.WriteJson(w, http.StatusOK, TrackOrderResponse{
		OrderId: orderInfo.ID,
		Status:  orderInfo.Status,
		Label:   status.StatusToLabel(orderInfo.Status),
		Step:    status.TrackingStep(orderInfo.Status),
		Steps:   status.TRACKING_STEPS,
	})
}

// OrderHistory Orders owned by the account behind an email, tombstones
// excluded. Works for guest accounts materialized at checkout.
func (ctx *HandlerContext) OrderHistory(w http.ResponseWriter, r *http.Request) {
	// Validate http method
	if !util.IsAllowHttpMethod([]string{http.MethodGet}, w, r) {
		return
	}

	req := OrderHistoryRequest{}
	err := util.FetchReqObject(r, &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	email, err := util.NormalizeEmail(req.Email)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	userInfo := model.User{}
	errDb := ctx.db.Where("email = ?", email).First(&userInfo).Error
	if errDb != nil {
		http.Error(w, constants.USER_NOT_FOUND, http.StatusNotFound)
		return
	}

	orders := make([]model.Order, 0)
	errDb = ctx.db.Where("user_id = ? AND status <> ?", userInfo.ID, status.ORDER_STATUS_DELETED).
		Order("id DESC").Find(&orders).Error
	if errDb != nil {
		rlog.Error(errDb.Error())
		http.Error(w, "query orders failed", http.StatusInternalServerError)
		return
	}
	util.WriteJson(w, http.StatusOK, orders)
}
