package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/romana/rlog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"invite_shop/constants"
	"invite_shop/custom/admin"
	"invite_shop/custom/assets"
	"invite_shop/custom/catalog"
	"invite_shop/custom/checkout"
	"invite_shop/custom/customer"
	"invite_shop/custom/payment"
	"invite_shop/custom/tracking"
	"invite_shop/custom/util"
	"invite_shop/model"
)

func main() {
	serverConfig := util.ServerConfig{}
	serverConfig.GetConf("./config/config.yaml")
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		serverConfig.Postgres.Host, serverConfig.Postgres.Port, serverConfig.Postgres.Username, serverConfig.Postgres.Password, serverConfig.Postgres.Database)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		panic("failed to connect database" + err.Error())
	}
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	// Route catalog/tracking reads through a replica when one is configured
	if serverConfig.Replica_dsn != "" {
		err = db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: []gorm.Dialector{postgres.Open(serverConfig.Replica_dsn)},
		}))
		if err != nil {
			panic("failed to register read replica" + err.Error())
		}
	}

	// Auto migrate table schemas
	err = db.AutoMigrate(model.ALL_SHOP_TABLES...)
	if err != nil {
		panic("failed to migrate database" + err.Error())
	}

	if err := seedAdminUser(db, &serverConfig); err != nil {
		panic("failed to seed admin user" + err.Error())
	}

	// Initialize handler contexts
	catalogCtx := catalog.HandlerContext{}
	catalogCtx.InitialHandlerContext(db)
	customerCtx := customer.HandlerContext{}
	customerCtx.InitialHandlerContext(db)
	checkoutCtx := checkout.HandlerContext{}
	checkoutCtx.InitialHandlerContext(db)
	paymentCtx := payment.HandlerContext{}
	paymentCtx.InitialHandlerContext(db, assets.NewLocalStore(serverConfig.Upload_dir, serverConfig.Upload_base_url))
	adminCtx := admin.HandlerContext{}
	adminCtx.InitialHandlerContext(db)
	trackingCtx := tracking.HandlerContext{}
	trackingCtx.InitialHandlerContext(db)

	// Start REST APIs. The /admin routes are expected to sit behind the
	// boundary that authenticates an ADMIN principal.
	http.HandleFunc("/shop/catalog", catalogCtx.ListCatalog)
	http.HandleFunc("/shop/query_product", catalogCtx.QueryProduct)
	http.HandleFunc("/shop/signup", customerCtx.Signup)
	http.HandleFunc("/shop/place_order", checkoutCtx.PlaceOrder)
	http.HandleFunc("/shop/upload_slip", paymentCtx.UploadSlip)
	http.HandleFunc("/shop/track_order", trackingCtx.TrackOrder)
	http.HandleFunc("/shop/order_history", trackingCtx.OrderHistory)

	http.HandleFunc("/admin/create_product", catalogCtx.CreateProducts)
	http.HandleFunc("/admin/update_product", catalogCtx.UpdateProduct)
	http.HandleFunc("/admin/remove_product", catalogCtx.RemoveProduct)
	http.HandleFunc("/admin/query_user", customerCtx.QueryUser)
	http.HandleFunc("/admin/orders", adminCtx.ListOrders)
	http.HandleFunc("/admin/query_order", adminCtx.QueryOrder)
	http.HandleFunc("/admin/approve_order", adminCtx.ApproveOrder)
	http.HandleFunc("/admin/reject_order", adminCtx.RejectOrder)
	http.HandleFunc("/admin/start_printing", adminCtx.StartPrinting)
	http.HandleFunc("/admin/ship_order", adminCtx.ShipOrder)
	http.HandleFunc("/admin/complete_order", adminCtx.CompleteOrder)
	http.HandleFunc("/admin/delete_order", adminCtx.DeleteOrder)
	http.HandleFunc("/admin/summary", adminCtx.Summary)

	fileServer := http.FileServer(http.Dir(serverConfig.Upload_dir))
	http.Handle("/uploads/", http.StripPrefix("/uploads/", fileServer))

	log.Fatal(http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", serverConfig.Shop_port), nil))
}

// seedAdminUser makes sure the operator account from config exists, so the
// review workflow is reachable on a fresh database.
func seedAdminUser(db *gorm.DB, serverConfig *util.ServerConfig) error {
	if serverConfig.Admin_email == "" || serverConfig.Admin_password == "" {
		rlog.Info("No admin account configured, skipping seed")
		return nil
	}
	email, err := util.NormalizeEmail(serverConfig.Admin_email)
	if err != nil {
		return err
	}

	existing := model.User{}
	err = db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(serverConfig.Admin_password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	adminUser := model.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         "Administrator",
		Role:         constants.ROLE_ADMIN,
	}
	if err := db.Create(&adminUser).Error; err != nil {
		return err
	}
	rlog.Infof("Seeded admin user %s", email)
	return nil
}
