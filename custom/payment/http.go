package payment

import (
	"io"
	"net/http"
	"strconv"

	"github.com/romana/rlog"
	"gorm.io/gorm"

	"invite_shop/constants"
	"invite_shop/custom/assets"
	"invite_shop/custom/status"
	"invite_shop/custom/util"
	"invite_shop/model"
)

// Slips larger than this are rejected before touching the asset store.
const maxSlipBytes = 10 << 20

type HandlerContext struct {
	db         *gorm.DB
	assetStore assets.Store
}

type UploadSlipResponse struct {
	Success bool   `json:"success"`
	Url     string `json:"url,omitempty"`
	Message string `json:"message,omitempty"`
}

func (ctx *HandlerContext) InitialHandlerContext(db *gorm.DB, assetStore assets.Store) {
	ctx.db = db
	ctx.assetStore = assetStore
}

// UploadSlip attaches a proof-of-transfer image to a PENDING_PAYMENT order
// and moves it into PAYMENT_REVIEW. The asset is stored only after the state
// guard passes, and the order is only updated after the asset is stored, so
// a storage failure leaves the order unmodified and the upload safe to
// retry.
func (ctx *HandlerContext) UploadSlip(w http.ResponseWriter, r *http.Request) {
	// Validate http method
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}

	if err := r.ParseMultipartForm(maxSlipBytes); err != nil {
		util.WriteJson(w, http.StatusBadRequest, UploadSlipResponse{Message: "invalid multipart payload"})
		return
	}
	orderId, err := strconv.ParseUint(r.FormValue("orderId"), 10, 64)
	if err != nil || orderId == 0 {
		util.WriteJson(w, http.StatusBadRequest, UploadSlipResponse{Message: "orderId is required"})
		return
	}
	file, header, err := r.FormFile("slip")
	if err != nil {
		util.WriteJson(w, http.StatusBadRequest, UploadSlipResponse{Message: "slip file is required"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxSlipBytes+1))
	if err != nil || len(data) == 0 || len(data) > maxSlipBytes {
		util.WriteJson(w, http.StatusBadRequest, UploadSlipResponse{Message: "slip file is invalid"})
		return
	}

	// Fetch order
	orderInfo := model.Order{}
	errDb := ctx.db.Where("id = ?", orderId).First(&orderInfo).Error
	if errDb != nil {
		util.WriteJson(w, http.StatusNotFound, UploadSlipResponse{Message: constants.ORDER_NOT_FOUND})
		return
	}

	// Validate order state before storing anything
	nextState, err := status.Next(orderInfo.Status, status.EVENT_UPLOAD_SLIP)
	if err != nil {
		util.WriteJson(w, http.StatusConflict, UploadSlipResponse{Message: constants.INVALID_TRANSITION})
		return
	}

	slipUrl, err := ctx.assetStore.Store(data, header.Header.Get("Content-Type"))
	if err != nil {
		rlog.Error(constants.ASSET_STORE_FAILURE, ": ", err.Error())
		util.WriteJson(w, http.StatusInternalServerError, UploadSlipResponse{Message: constants.ASSET_STORE_FAILURE})
		return
	}

	// Guarded update, rechecking the source status against racing uploads
	result := ctx.db.Model(&model.Order{}).
		Where("id = ? AND status = ?", orderInfo.ID, orderInfo.Status).
		Updates(map[string]interface{}{
			"status":           nextState,
			"payment_status":   constants.PAYMENT_STATUS_REVIEW,
			"payment_slip_url": slipUrl,
		})
	if result.Error != nil {
		rlog.Error(result.Error.Error())
		util.WriteJson(w, http.StatusInternalServerError, UploadSlipResponse{Message: "update order failed"})
		return
	}
	if result.RowsAffected == 0 {
		util.WriteJson(w, http.StatusConflict, UploadSlipResponse{Message: constants.INVALID_TRANSITION})
		return
	}

	rlog.Infof("Order %d moved to %s with slip %s", orderInfo.ID, nextState, slipUrl)
	util.WriteJson(w, http.StatusOK, UploadSlipResponse{Success: true, Url: slipUrl})
}
