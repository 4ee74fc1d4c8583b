package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront-go/storefront/internal/domain/category"
)

type categoryRequest struct {
	Name        string
	Description string
}

// CreateCategory adds a product category.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCategoryRequest(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Failed create category", "invalid request body")
		return
	}
	if req.Name == "" {
		writeFieldErrors(w, r, "Failed create category", map[string]string{"name": "name is required"})
		return
	}

	c := &category.Category{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
	}
	if err := h.categories.Create(r.Context(), c); err != nil {
		zctx.From(r.Context()).Error("Create category", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "Failed create category", err.Error())
		return
	}

	writeJSON(w, r, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("message")
		e.Str("Success create category")
		e.FieldStart("data")
		encodeCategory(e, c)
		e.ObjEnd()
	})
}

// ListCategories returns a page of categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)

	categories, total, err := h.categories.List(r.Context(), page, limit)
	if err != nil {
		zctx.From(r.Context()).Error("List categories", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "Failed get all categories", err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("message")
		e.Str("Success get all categories")
		e.FieldStart("page")
		e.Int(page)
		e.FieldStart("limit")
		e.Int(limit)
		e.FieldStart("total")
		e.Int(total)
		e.FieldStart("totalPages")
		e.Int(totalPages(total, limit))
		e.FieldStart("data")
		e.ArrStart()
		for i := range categories {
			encodeCategory(e, &categories[i])
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

// GetCategory returns a single category.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.categories.GetByID(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, category.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Failed get category", "category not found")
		return
	case err != nil:
		zctx.From(r.Context()).Error("Get category", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "Failed get category", err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("message")
		e.Str("Success get category")
		e.FieldStart("data")
		encodeCategory(e, c)
		e.ObjEnd()
	})
}

// UpdateCategory replaces a category's fields.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCategoryRequest(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Failed update category", "invalid request body")
		return
	}
	if req.Name == "" {
		writeFieldErrors(w, r, "Failed update category", map[string]string{"name": "name is required"})
		return
	}

	c := &category.Category{
		ID:          r.PathValue("id"),
		Name:        req.Name,
		Description: req.Description,
	}
	err = h.categories.Update(r.Context(), c)
	switch {
	case errors.Is(err, category.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Failed update category", "category not found")
		return
	case err != nil:
		zctx.From(r.Context()).Error("Update category", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "Failed update category", err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("message")
		e.Str("Success update category")
		e.FieldStart("data")
		encodeCategory(e, c)
		e.ObjEnd()
	})
}

// DeleteCategory removes a category.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	err := h.categories.Delete(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, category.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Failed delete category", "category not found")
		return
	case err != nil:
		zctx.From(r.Context()).Error("Delete category", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "Failed delete category", err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("message")
		e.Str("Success delete category")
		e.ObjEnd()
	})
}

func decodeCategoryRequest(r *http.Request) (categoryRequest, error) {
	var req categoryRequest

	d, err := readBody(r)
	if err != nil {
		return req, err
	}

	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			v, err := d.Str()
			req.Name = v
			return err
		case "description":
			v, err := d.Str()
			req.Description = v
			return err
		default:
			return d.Skip()
		}
	})
	return req, err
}

func encodeCategory(e *jx.Encoder, c *category.Category) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(c.ID)
	e.FieldStart("name")
	e.Str(c.Name)
	e.FieldStart("description")
	e.Str(c.Description)
	e.FieldStart("createdAt")
	encodeTime(e, c.CreatedAt)
	e.ObjEnd()
}
