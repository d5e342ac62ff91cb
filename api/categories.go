package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"bidhouse/market"
	"bidhouse/models"
)

type categoryRequest struct {
	Name string `json:"name" binding:"required,max=50"`
}

func errDuplicateCategory() error {
	return market.NewValidationError("name", "a category with this name already exists")
}

func (impl *ServerImpl) listCategories(c *gin.Context) {
	const op = "ListCategories"
	var categories []models.Category
	if err := impl.db.WithContext(c.Request.Context()).Order("name").Find(&categories).Error; err != nil {
		impl.fail(c, op, fmt.Errorf("fail to list categories, err=%w", err))
		return
	}
	c.JSON(http.StatusOK, lo.Map(categories, func(category models.Category, _ int) CategoryResponse {
		return newCategoryResponse(category)
	}))
}

func (impl *ServerImpl) findCategory(c *gin.Context) (*models.Category, error) {
	id, err := pathID(c, "id", market.ErrCategoryNotFound)
	if err != nil {
		return nil, err
	}
	var category models.Category
	if err := impl.db.WithContext(c.Request.Context()).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, market.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("fail to find category %d, err=%w", id, err)
	}
	return &category, nil
}

func (impl *ServerImpl) getCategory(c *gin.Context) {
	const op = "GetCategory"
	category, err := impl.findCategory(c)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	c.JSON(http.StatusOK, newCategoryResponse(*category))
}

// saveCategory writes category unless another category already uses its name.
func (impl *ServerImpl) saveCategory(c *gin.Context, category *models.Category) error {
	return impl.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Category{}).Where("name = ? AND id <> ?", category.Name, category.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("fail to check category name, err=%w", err)
		}
		if count > 0 {
			return errDuplicateCategory()
		}
		if err := tx.Save(category).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errDuplicateCategory()
			}
			return fmt.Errorf("fail to save category, err=%w", err)
		}
		return nil
	})
}

func (impl *ServerImpl) createCategory(c *gin.Context) {
	const op = "CreateCategory"
	if !actorOf(c).IsAdmin {
		impl.fail(c, op, market.ErrNotAdmin)
		return
	}
	var req categoryRequest
	if err := bindJSON(c, &req); err != nil {
		impl.fail(c, op, err)
		return
	}
	category := models.Category{Name: strings.TrimSpace(req.Name)}
	if err := impl.saveCategory(c, &category); err != nil {
		impl.fail(c, op, err)
		return
	}
	c.JSON(http.StatusCreated, newCategoryResponse(category))
}

func (impl *ServerImpl) updateCategory(c *gin.Context) {
	const op = "UpdateCategory"
	if !actorOf(c).IsAdmin {
		impl.fail(c, op, market.ErrNotAdmin)
		return
	}
	category, err := impl.findCategory(c)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	var req categoryRequest
	if err := bindJSON(c, &req); err != nil {
		impl.fail(c, op, err)
		return
	}
	category.Name = strings.TrimSpace(req.Name)
	if err := impl.saveCategory(c, category); err != nil {
		impl.fail(c, op, err)
		return
	}
	c.JSON(http.StatusOK, newCategoryResponse(*category))
}

func (impl *ServerImpl) deleteCategory(c *gin.Context) {
	const op = "DeleteCategory"
	id, err := pathID(c, "id", market.ErrCategoryNotFound)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	if err := impl.market.DeleteCategory(c.Request.Context(), actorOf(c), id); err != nil {
		impl.fail(c, op, err)
		return
	}
	c.Status(http.StatusNoContent)
}
