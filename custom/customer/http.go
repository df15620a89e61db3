package customer

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/romana/rlog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"invite_shop/constants"
	"invite_shop/custom/util"
	"invite_shop/model"
)

type HandlerContext struct {
	db *gorm.DB
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type QueryUserRequest struct {
	Email string `json:"email"`
}

func (ctx *HandlerContext) InitialHandlerContext(db *gorm.DB) {
	ctx.db = db
}

// ResolveOrCreate finds the user owning email or materializes a guest user
// for it. Guest users carry a hash of a random secret, so the account exists
// for order history but cannot authenticate until signup sets a real
// password. Runs inside the caller's transaction.
func ResolveOrCreate(tx *gorm.DB, email string, name string) (*model.User, error) {
	user := model.User{}
	err := tx.Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	placeholder, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user = model.User{
		Email:        email,
		PasswordHash: string(placeholder),
		Name:         name,
		Role:         constants.ROLE_USER,
		IsGuest:      true,
	}
	if err := tx.Create(&user).Error; err != nil {
		return nil, err
	}
	rlog.Infof("Materialized guest user %d for %s", user.ID, user.Email)
	return &user, nil
}

// Signup Create a user account, or upgrade a guest account created during
// checkout with the same email.
func (ctx *HandlerContext) Signup(w http.ResponseWriter, r *http.Request) {
	// Validate http method
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}

	req := SignupRequest{}
	err := util.FetchReqObject(r, &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Validate payload
	email, err := util.NormalizeEmail(req.Email)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Password) < 8 {
		http.Error(w, "password must be at least 8 characters", http.StatusBadRequest)
		return
	}
	name := util.SanitizeText(req.Name)

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		rlog.Error(err)
		http.Error(w, "signup failed", http.StatusInternalServerError)
		return
	}

	errDb := ctx.db.Transaction(func(tx *gorm.DB) error {
		user := model.User{}
		errTx := tx.Where("email = ?", email).First(&user).Error
		if errTx == nil {
			if !user.IsGuest {
				return errors.New(constants.EMAIL_ALREADY_REGISTERED)
			}
			// Guest checkout happened first, attach a real credential to
			// the same row so the order history stays with the account.
			return tx.Model(&model.User{}).Where("id = ?", user.ID).
				Updates(map[string]interface{}{
					"password_hash": string(hash),
					"name":          name,
					"is_guest":      false,
				}).Error
		}
		if !errors.Is(errTx, gorm.ErrRecordNotFound) {
			return errTx
		}
		newUser := model.User{
			Email:        email,
			PasswordHash: string(hash),
			Name:         name,
			Role:         constants.ROLE_USER,
		}
		return tx.Create(&newUser).Error
	})
	if errDb != nil {
		if errDb.Error() == constants.EMAIL_ALREADY_REGISTERED {
			http.Error(w, errDb.Error(), http.StatusConflict)
			return
		}
		rlog.Error(errDb.Error())
		http.Error(w, "signup failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Signup success."))
}

// QueryUser Fetch a user by email (admin)
func (ctx *HandlerContext) QueryUser(w http.ResponseWriter, r *http.Request) {
	// Validate http method
	if !util.IsAllowHttpMethod([]string{http.MethodGet}, w, r) {
		return
	}

	req := QueryUserRequest{}
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

	user := model.User{}
	errDb := ctx.db.Where("email = ?", email).First(&user).Error
	if errDb != nil {
		http.Error(w, constants.USER_NOT_FOUND, http.StatusNotFound)
		return
	}
	util.WriteJson(w, http.StatusOK, user)
}
