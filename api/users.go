package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bidhouse/market"
	"bidhouse/models"
)

type registerRequest struct {
	Username     string `json:"username" binding:"required,max=150"`
	Password     string `json:"password" binding:"required,min=8,max=128"`
	Email        string `json:"email" binding:"omitempty,email,max=254"`
	FirstName    string `json:"first_name" binding:"max=150"`
	LastName     string `json:"last_name" binding:"max=150"`
	BirthDate    string `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
	Locality     string `json:"locality" binding:"max=100"`
	Municipality string `json:"municipality" binding:"max=100"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

type patchMeRequest struct {
	Password     *string `json:"password" binding:"omitempty,min=8,max=128"`
	Email        *string `json:"email" binding:"omitempty,email,max=254"`
	FirstName    *string `json:"first_name" binding:"omitempty,max=150"`
	LastName     *string `json:"last_name" binding:"omitempty,max=150"`
	BirthDate    *string `json:"birth_date"`
	Locality     *string `json:"locality" binding:"omitempty,max=100"`
	Municipality *string `json:"municipality" binding:"omitempty,max=100"`
}

// parseBirthDate accepts YYYY-MM-DD; an empty string clears the date.
func parseBirthDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, market.NewValidationError("birth_date", "use the format YYYY-MM-DD")
	}
	return &date, nil
}

func (impl *ServerImpl) register(c *gin.Context) {
	const op = "Register"
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		impl.fail(c, op, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		impl.fail(c, op, market.NewValidationError("username", "this field is required"))
		return
	}
	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		impl.fail(c, op, err)
		return
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		BirthDate:    birthDate,
		Locality:     req.Locality,
		Municipality: req.Municipality,
	}
	err = impl.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
			return fmt.Errorf("fail to check username, err=%w", err)
		}
		if count > 0 {
			return market.NewValidationError("username", "a user with that username already exists")
		}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return market.NewValidationError("username", "a user with that username already exists")
			}
			return fmt.Errorf("fail to create user, err=%w", err)
		}
		return nil
	})
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	c.JSON(http.StatusCreated, newUserResponse(&user))
}

func (impl *ServerImpl) login(c *gin.Context) {
	const op = "Login"
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		impl.fail(c, op, err)
		return
	}
	var user models.User
	err := impl.db.WithContext(c.Request.Context()).Where("username = ?", req.Username).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		impl.fail(c, op, fmt.Errorf("fail to load user, err=%w", err))
		return
	}
	if err != nil || !checkPassword(user.PasswordHash, req.Password) {
		impl.fail(c, op, fmt.Errorf("%w: invalid username or password", errUnauthorized))
		return
	}
	token, claims, err := impl.issueToken(&user)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	impl.setTokenCookie(c, token, int(impl.config.Auth.ExpireDuration.Seconds()))
	c.JSON(http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      newUserResponse(&user),
	})
}

func (impl *ServerImpl) logout(c *gin.Context) {
	const op = "Logout"
	claims := c.MustGet("claims").(*Claims)
	if err := impl.revoke(c, claims); err != nil {
		impl.fail(c, op, err)
		return
	}
	impl.setTokenCookie(c, "", -1)
	c.Status(http.StatusNoContent)
}

func (impl *ServerImpl) getMe(c *gin.Context) {
	const op = "GetMe"
	var user models.User
	if err := impl.db.WithContext(c.Request.Context()).First(&user, actorOf(c).UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = market.ErrUserNotFound
		}
		impl.fail(c, op, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(&user))
}

func (impl *ServerImpl) patchMe(c *gin.Context) {
	const op = "PatchMe"
	var req patchMeRequest
	if err := bindJSON(c, &req); err != nil {
		impl.fail(c, op, err)
		return
	}

	updates := map[string]any{}
	if req.Password != nil {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			impl.fail(c, op, err)
			return
		}
		updates["password_hash"] = hash
	}
	if req.BirthDate != nil {
		birthDate, err := parseBirthDate(*req.BirthDate)
		if err != nil {
			impl.fail(c, op, err)
			return
		}
		updates["birth_date"] = birthDate
	}
	for column, value := range map[string]*string{
		"email":        req.Email,
		"first_name":   req.FirstName,
		"last_name":    req.LastName,
		"locality":     req.Locality,
		"municipality": req.Municipality,
	} {
		if value != nil {
			updates[column] = *value
		}
	}

	actor := actorOf(c)
	db := impl.db.WithContext(c.Request.Context())
	if len(updates) > 0 {
		if err := db.Model(&models.User{ID: actor.UserID}).Updates(updates).Error; err != nil {
			impl.fail(c, op, fmt.Errorf("fail to update user, err=%w", err))
			return
		}
	}
	var user models.User
	if err := db.First(&user, actor.UserID).Error; err != nil {
		impl.fail(c, op, fmt.Errorf("fail to reload user, err=%w", err))
		return
	}
	c.JSON(http.StatusOK, newUserResponse(&user))
}
