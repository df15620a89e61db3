package catalog

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/romana/rlog"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"invite_shop/constants"
	"invite_shop/custom/util"
	"invite_shop/model"
)

type HandlerContext struct {
	db *gorm.DB
}

type CreateProductsRequest struct {
	Products *[]model.Product `json:"products"`
}

type QueryProductRequest struct {
	ProductId uint `json:"product_id"`
}

type RemoveProductRequest struct {
	ProductId uint `json:"product_id"`
	Hard      bool `json:"hard"`
}

type UpdateProductRequest struct {
	ProductId   uint                         `json:"product_id"`
	Name        *string                      `json:"name,omitempty"`
	Description *string                      `json:"description,omitempty"`
	Price       *decimal.Decimal             `json:"price,omitempty"`
	Category    *string                      `json:"category,omitempty"`
	Images      *datatypes.JSONSlice[string] `json:"images,omitempty"`
}

func (ctx *HandlerContext) InitialHandlerContext(db *gorm.DB) {
	ctx.db = db
}

// FindActiveProduct returns a product only while it is ACTIVE. Archived and
// unknown ids both read as unavailable to the checkout path.
func FindActiveProduct(tx *gorm.DB, id uint) (*model.Product, error) {
	product := model.Product{}
	err := tx.Where("id = ? AND status = ?", id, constants.PRODUCT_STATUS_ACTIVE).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// DecrementStockIfSufficient decrements stock by quantity only when the
// current stock covers it, as a single conditional UPDATE. Concurrent
// checkouts racing for the last units serialize on this statement, so stock
// can never go negative. Returns whether the decrement applied.
func DecrementStockIfSufficient(tx *gorm.DB, id uint, quantity int) (bool, error) {
	result := tx.Model(&model.Product{}).
		Where("id = ? AND status = ? AND stock >= ?", id, constants.PRODUCT_STATUS_ACTIVE, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ArchiveOrDelete retires a product. A product with order history is only
// ever archived; the explicit hard-delete path is refused for it so order
// items keep a resolvable product reference.
func (ctx *HandlerContext) ArchiveOrDelete(id uint, hard bool) error {
	var itemCount int64
	err := ctx.db.Model(&model.OrderItem{}).Where("product_id = ?", id).Count(&itemCount).Error
	if err != nil {
		return err
	}
	if itemCount > 0 {
		if hard {
			return errors.New(constants.HAS_ORDER_HISTORY)
		}
		return ctx.archive(id)
	}
	if hard {
		result := ctx.db.Where("id = ?", id).Delete(&model.Product{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		rlog.Infof("Product %d was hard deleted", id)
		return nil
	}
	return ctx.archive(id)
}

func (ctx *HandlerContext) archive(id uint) error {
	result := ctx.db.Model(&model.Product{}).
		Where("id = ?", id).
		Update("status", constants.PRODUCT_STATUS_ARCHIVED)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	rlog.Infof("Product %d was archived", id)
	return nil
}

// CreateProducts Create new products (admin)
func (ctx *HandlerContext) CreateProducts(w http.ResponseWriter, r *http.Request) {
	// Validate http method
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}

	req := CreateProductsRequest{}
	err := util.FetchReqObject(r, &req)
	if err != nil || req.Products == nil {
		http.Error(w, "products are required", http.StatusBadRequest)
		return
	}

	// Validate payload
	validationErr := ""
	for i := range *req.Products {
		product := &(*req.Products)[i]
		if product.Name == "" {
			validationErr += fmt.Sprintf("The %d product name is required.", i+1)
		}
		if product.Price.IsNegative() {
			validationErr += fmt.Sprintf("The %d product price must not be negative.", i+1)
		}
		if product.Stock < 0 {
			validationErr += fmt.Sprintf("The %d product stock must not be negative.", i+1)
		}
		product.Status = constants.PRODUCT_STATUS_ACTIVE
	}
	if validationErr != "" {
		http.Error(w, validationErr, http.StatusBadRequest)
		return
	}

	createdProducts := make([]model.Product, 0)
	err = ctx.db.Transaction(func(tx *gorm.DB) error {
		for _, product := range *req.Products {
			if errCreate := tx.Create(&product).Error; errCreate != nil {
				rlog.Error(constants.CREATE_PRODUCT_FAILED, ": ", errCreate.Error())
				return errors.New(product.Name + ": " + constants.CREATE_PRODUCT_FAILED)
			}
			createdProducts = append(createdProducts, product)
		}
		return nil
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	util.WriteJson(w, http.StatusOK, createdProducts)
}

// QueryProduct Fetch a single product by id
func (ctx *HandlerContext) QueryProduct(w http.ResponseWriter, r *http.Request) {
	// Validate http method
	if !util.IsAllowHttpMethod([]string{http.MethodGet}, w, r) {
		return
	}

	req := QueryProductRequest{}
	err := util.FetchReqObject(r, &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Validate payload
	if req.ProductId == 0 {
		http.Error(w, "Product ID is required", http.StatusBadRequest)
		return
	}

	productInfo := model.Product{}
	errDb := ctx.db.Where("id = ?", req.ProductId).First(&productInfo).Error
	if errDb != nil {
		http.Error(w, errDb.Error(), http.StatusNotFound)
		return
	}
	util.WriteJson(w, http.StatusOK, productInfo)
}

// ListCatalog List products customers can still order
func (ctx *HandlerContext) ListCatalog(w http.ResponseWriter, r *http.Request) {
	// Validate http method
	if !util.IsAllowHttpMethod([]string{http.MethodGet}, w, r) {
		return
	}

	products := make([]model.Product, 0)
	errDb := ctx.db.Where("status = ?", constants.PRODUCT_STATUS_ACTIVE).Order("id").Find(&products).Error
	if errDb != nil {
		rlog.Error(errDb.Error())
		http.Error(w, "query catalog failed", http.StatusInternalServerError)
		return
	}
	util.WriteJson(w, http.StatusOK, products)
}

// UpdateProduct Edit listing fields of a product (admin). Stock is not
// editable here, it only moves through the checkout decrement, and price
// changes never touch totals of already placed orders.
func (ctx *HandlerContext) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	// Validate http method
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}

	req := UpdateProductRequest{}
	err := util.FetchReqObject(r, &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ProductId == 0 {
		http.Error(w, "Product ID is required", http.StatusBadRequest)
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		if *req.Name == "" {
			http.Error(w, "Product name is required", http.StatusBadRequest)
			return
		}
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			http.Error(w, "Product price must not be negative", http.StatusBadRequest)
			return
		}
		updates["price"] = *req.Price
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Images != nil {
		updates["images"] = *req.Images
	}
	if len(updates) == 0 {
		http.Error(w, "Nothing to update", http.StatusBadRequest)
		return
	}

	result := ctx.db.Model(&model.Product{}).Where("id = ?", req.ProductId).Updates(updates)
	if result.Error != nil {
		rlog.Error(result.Error.Error())
		http.Error(w, "update product failed", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Update product success."))
}

// RemoveProduct Archive or hard-delete a product (admin)
func (ctx *HandlerContext) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	// Validate http method
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}

	req := RemoveProductRequest{}
	err := util.FetchReqObject(r, &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ProductId == 0 {
		http.Error(w, "Product ID is required", http.StatusBadRequest)
		return
	}

	err = ctx.ArchiveOrDelete(req.ProductId, req.Hard)
	if err != nil {
		if err.Error() == constants.HAS_ORDER_HISTORY {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		rlog.Error(err.Error())
		http.Error(w, "remove product failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Remove product success."))
}
