package checkout

import (
	"errors"
	"net/http"

	"github.com/romana/rlog"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"invite_shop/constants"
	"invite_shop/custom/catalog"
	"invite_shop/custom/customer"
	"invite_shop/custom/status"
	"invite_shop/custom/util"
	"invite_shop/model"
)

type HandlerContext struct {
	db *gorm.DB
}

type CartItem struct {
	Product struct {
		ID uint `json:"id"`
	} `json:"product"`
	Quantity      int               `json:"quantity"`
	Customization datatypes.JSONMap `json:"customization,omitempty"`
}

type ShippingInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type PlaceOrderRequest struct {
	CartItems []CartItem   `json:"cartItems"`
	Shipping  ShippingInfo `json:"shipping"`
}

type PlaceOrderResponse struct {
	Success     bool            `json:"success"`
	OrderId     uint            `json:"orderId,omitempty"`
	TotalAmount decimal.Decimal `json:"totalAmount,omitempty"`
	Message     string          `json:"message,omitempty"`
}

func (ctx *HandlerContext) InitialHandlerContext(db *gorm.DB) {
	ctx.db = db
}

// PlaceOrder turns a cart into an order in one all-or-nothing transaction:
// every line is priced from the store and its stock conditionally
// decremented, the customer is resolved or materialized by email, and the
// order plus its items are inserted together. Any failure rolls the whole
// unit back, so stock is never decremented without an order nor the other
// way around.
func (ctx *HandlerContext) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	// Validate http method
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}

	req := PlaceOrderRequest{}
	err := util.FetchReqObject(r, &req)
	if err != nil {
		util.WriteJson(w, http.StatusBadRequest, PlaceOrderResponse{Message: err.Error()})
		return
	}

	// Validate payload
	if len(req.CartItems) == 0 {
		util.WriteJson(w, http.StatusBadRequest, PlaceOrderResponse{Message: "cart is empty"})
		return
	}
	for i, line := range req.CartItems {
		if line.Product.ID == 0 || line.Quantity <= 0 {
			rlog.Infof("Rejecting malformed cart line %d", i+1)
			util.WriteJson(w, http.StatusBadRequest, PlaceOrderResponse{Message: "cart line is invalid"})
			return
		}
	}
	fullName := util.SanitizeText(req.Shipping.FullName)
	address := util.SanitizeText(req.Shipping.Address)
	phone := util.SanitizePhone(req.Shipping.Phone)
	email, err := util.NormalizeEmail(req.Shipping.Email)
	if err != nil {
		util.WriteJson(w, http.StatusBadRequest, PlaceOrderResponse{Message: err.Error()})
		return
	}
	if fullName == "" || address == "" {
		util.WriteJson(w, http.StatusBadRequest, PlaceOrderResponse{Message: "full name and address are required"})
		return
	}

	newOrder := model.Order{}
	errDb := ctx.db.Transaction(func(tx *gorm.DB) error {
		totalAmount := decimal.Zero
		items := make([]model.OrderItem, 0, len(req.CartItems))
		for _, line := range req.CartItems {
			product, errTx := catalog.FindActiveProduct(tx, line.Product.ID)
			if errTx != nil {
				if errors.Is(errTx, gorm.ErrRecordNotFound) {
					return errors.New(constants.PRODUCT_UNAVAILABLE)
				}
				rlog.Error(errTx.Error())
				return errors.New(constants.CREATE_ORDER_FAILED)
			}
			applied, errTx := catalog.DecrementStockIfSufficient(tx, product.ID, line.Quantity)
			if errTx != nil {
				rlog.Error(errTx.Error())
				return errors.New(constants.CREATE_ORDER_FAILED)
			}
			if !applied {
				return errors.New(constants.INSUFFICIENT_STOCK)
			}
			// Always the store's price, never a client-supplied one.
			totalAmount = totalAmount.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
			items = append(items, model.OrderItem{
				ProductID:     product.ID,
				Quantity:      line.Quantity,
				Customization: line.Customization,
			})
		}

		buyer, errTx := customer.ResolveOrCreate(tx, email, fullName)
		if errTx != nil {
			rlog.Error(errTx.Error())
			return errors.New(constants.CREATE_ORDER_FAILED)
		}

		newOrder = model.Order{
			UserID:        buyer.ID,
			TotalAmount:   totalAmount,
			FullName:      fullName,
			Email:         email,
			Phone:         phone,
			Address:       address,
			Status:        status.ORDER_STATUS_PENDING_PAYMENT,
			PaymentStatus: constants.PAYMENT_STATUS_PENDING,
			Items:         items,
		}
		if errTx := tx.Create(&newOrder).Error; errTx != nil {
			rlog.Error(errTx.Error())
			return errors.New(constants.CREATE_ORDER_FAILED)
		}
		return nil
	})

	if errDb != nil {
		switch errDb.Error() {
		case constants.PRODUCT_UNAVAILABLE, constants.INSUFFICIENT_STOCK:
			util.WriteJson(w, http.StatusConflict, PlaceOrderResponse{Message: errDb.Error()})
		default:
			util.WriteJson(w, http.StatusInternalServerError, PlaceOrderResponse{Message: constants.CREATE_ORDER_FAILED})
		}
		return
	}

	rlog.Infof("Order %d was created with total %s as %s", newOrder.ID, newOrder.TotalAmount.String(), newOrder.Status)
	util.WriteJson(w, http.StatusOK, PlaceOrderResponse{
		Success:     true,
		OrderId:     newOrder.ID,
		TotalAmount: newOrder.TotalAmount,
	})
}
