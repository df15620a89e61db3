package checkout

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gopkg.in/DATA-DOG/go-sqlmock.v1"
	"gorm.io/gorm"

	"invite_shop/constants"
	"invite_shop/custom/util"
	"invite_shop/model"
)

var (
	testProduct = model.Product{
		ID:     3,
		Name:   "Classic Invitation Set",
		Price:  decimal.NewFromFloat(5.00),
		Stock:  3,
		Status: constants.PRODUCT_STATUS_ACTIVE,
	}
	testUser = model.User{
		ID:    7,
		Email: "jane.doe@example.com",
		Name:  "Jane Doe",
		Role:  constants.ROLE_USER,
	}
)

const selectProductSQL = `^SELECT \* FROM "products" WHERE id = .+`
const updateProductSQL = `UPDATE "products" SET .+`
const selectUserSQL = `^SELECT \* FROM "users" WHERE email = .+`
const insertUserSQL = `INSERT INTO "users" .+ VALUES .+`
const insertOrderSQL = `INSERT INTO "orders" .+ VALUES .+`
const insertItemsSQL = `INSERT INTO "order_items" .+ VALUES .+`

func placeOrderBody(quantity int) *bytes.Buffer {
	req := PlaceOrderRequest{
		Shipping: ShippingInfo{
			FullName: "Jane Doe",
			Email:    "Jane.Doe@Example.com",
			Phone:    "081-234-5678",
			Address:  "42 Main St",
		},
	}
	line := CartItem{Quantity: quantity}
	line.Product.ID = testProduct.ID
	req.CartItems = []CartItem{line}
	reqBody, _ := json.Marshal(req)
	return bytes.NewBuffer(reqBody)
}

func TestPlaceOrderSuccess(t *testing.T) {
	sqlDB, gormDB, mock := util.DbMock(t)
	defer sqlDB.Close()
	handlerCtx := HandlerContext{}
	handlerCtx.InitialHandlerContext(gormDB)

	productRows, _ := util.ObjectToRows(testProduct)
	userRows, _ := util.ObjectToRows(testUser)
	mock.ExpectBegin()
	mock.ExpectQuery(selectProductSQL).WillReturnRows(productRows)
	mock.ExpectExec(updateProductSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectUserSQL).WillReturnRows(userRows)
	mock.ExpectQuery(insertOrderSQL).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectQuery(insertItemsSQL).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "http://localhosts", placeOrderBody(2))
	handlerCtx.PlaceOrder(w, r)

	actualResp := PlaceOrderResponse{}
	json.Unmarshal(w.Body.Bytes(), &actualResp)

	assert.Nil(t, mock.ExpectationsWereMet())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, actualResp.Success)
	assert.Equal(t, uint(11), actualResp.OrderId)
	// 2 x 5.00 priced from the store, not the client
	assert.True(t, actualResp.TotalAmount.Equal(decimal.NewFromInt(10)), actualResp.TotalAmount.String())
}

func TestPlaceOrderCreatesGuestUser(t *testing.T) {
	sqlDB, gormDB, mock := util.DbMock(t)
	defer sqlDB.Close()
	handlerCtx := HandlerContext{}
	handlerCtx.InitialHandlerContext(gormDB)

	productRows, _ := util.ObjectToRows(testProduct)
	mock.ExpectBegin()
	mock.ExpectQuery(selectProductSQL).WillReturnRows(productRows)
	mock.ExpectExec(updateProductSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectUserSQL).WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectQuery(insertUserSQL).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
	mock.ExpectQuery(insertOrderSQL).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
	mock.ExpectQuery(insertItemsSQL).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(22))
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "http://localhosts", placeOrderBody(1))
	handlerCtx.PlaceOrder(w, r)

	actualResp := PlaceOrderResponse{}
	json.Unmarshal(w.Body.Bytes(), &actualResp)

	assert.Nil(t, mock.ExpectationsWereMet())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, actualResp.Success)
	assert.Equal(t, uint(12), actualResp.OrderId)
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	sqlDB, gormDB, mock := util.DbMock(t)
	defer sqlDB.Close()
	handlerCtx := HandlerContext{}
	handlerCtx.InitialHandlerContext(gormDB)

	// The conditional decrement lost the race: no row matched, so the
	// whole placement rolls back and nothing persists.
	productRows, _ := util.ObjectToRows(testProduct)
	mock.ExpectBegin()
	mock.ExpectQuery(selectProductSQL).WillReturnRows(productRows)
	mock.ExpectExec(updateProductSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "http://localhosts", placeOrderBody(2))
	handlerCtx.PlaceOrder(w, r)

	actualResp := PlaceOrderResponse{}
	json.Unmarshal(w.Body.Bytes(), &actualResp)

	assert.Nil(t, mock.ExpectationsWereMet())
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, actualResp.Success)
	assert.Equal(t, constants.INSUFFICIENT_STOCK, actualResp.Message)
}

func TestPlaceOrderProductUnavailable(t *testing.T) {
	sqlDB, gormDB, mock := util.DbMock(t)
	defer sqlDB.Close()
	handlerCtx := HandlerContext{}
	handlerCtx.InitialHandlerContext(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(selectProductSQL).WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectRollback()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "http://localhosts", placeOrderBody(1))
	handlerCtx.PlaceOrder(w, r)

	actualResp := PlaceOrderResponse{}
	json.Unmarshal(w.Body.Bytes(), &actualResp)

	assert.Nil(t, mock.ExpectationsWereMet())
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, constants.PRODUCT_UNAVAILABLE, actualResp.Message)
}

func TestPlaceOrderInsertFailureRollsBack(t *testing.T) {
	sqlDB, gormDB, mock := util.DbMock(t)
	defer sqlDB.Close()
	handlerCtx := HandlerContext{}
	handlerCtx.InitialHandlerContext(gormDB)

	productRows, _ := util.ObjectToRows(testProduct)
	userRows, _ := util.ObjectToRows(testUser)
	mock.ExpectBegin()
	mock.ExpectQuery(selectProductSQL).WillReturnRows(productRows)
	mock.ExpectExec(updateProductSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectUserSQL).WillReturnRows(userRows)
	mock.ExpectQuery(insertOrderSQL).WillReturnError(gorm.ErrInvalidDB)
	mock.ExpectRollback()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "http://localhosts", placeOrderBody(1))
	handlerCtx.PlaceOrder(w, r)

	actualResp := PlaceOrderResponse{}
	json.Unmarshal(w.Body.Bytes(), &actualResp)

	assert.Nil(t, mock.ExpectationsWereMet())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, constants.CREATE_ORDER_FAILED, actualResp.Message)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	sqlDB, gormDB, _ := util.DbMock(t)
	defer sqlDB.Close()
	handlerCtx := HandlerContext{}
	handlerCtx.InitialHandlerContext(gormDB)

	reqBody, _ := json.Marshal(PlaceOrderRequest{
		Shipping: ShippingInfo{FullName: "Jane", Email: "a@b.com", Address: "x"},
	})
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "http://localhosts", bytes.NewBuffer(reqBody))
	handlerCtx.PlaceOrder(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlaceOrderZeroQuantity(t *testing.T) {
	sqlDB, gormDB, _ := util.DbMock(t)
	defer sqlDB.Close()
	handlerCtx := HandlerContext{}
	handlerCtx.InitialHandlerContext(gormDB)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "http://localhosts", placeOrderBody(0))
	handlerCtx.PlaceOrder(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlaceOrderBadEmail(t *testing.T) {
	sqlDB, gormDB, _ := util.DbMock(t)
	defer sqlDB.Close()
	handlerCtx := HandlerContext{}
	handlerCtx.InitialHandlerContext(gormDB)

	req := PlaceOrderRequest{
		Shipping: ShippingInfo{FullName: "Jane", Email: "not-an-email", Address: "x"},
	}
	line := CartItem{Quantity: 1}
	line.Product.ID = testProduct.ID
	req.CartItems = []CartItem{line}
	reqBody, _ := json.Marshal(req)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "http://localhosts", bytes.NewBuffer(reqBody))
	handlerCtx.PlaceOrder(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlaceOrderBadHttpMethod(t *testing.T) {
	sqlDB, gormDB, _ := util.DbMock(t)
	defer sqlDB.Close()
	handlerCtx := HandlerContext{}
	handlerCtx.InitialHandlerContext(gormDB)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "http://localhosts", placeOrderBody(1))
	handlerCtx.PlaceOrder(w, r)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
