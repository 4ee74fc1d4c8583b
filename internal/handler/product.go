package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storefront-go/storefront/internal/domain/category"
	"github.com/storefront-go/storefront/internal/domain/product"
)

type productRequest struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
	CategoryID  string
}

// validate applies the catalog field rules, returning per-field messages.
func (req *productRequest) validate() map[string]string {
	errs := map[string]string{}
	if req.Name == "" {
		errs["name"] = "name is required"
	}
	if req.Price.IsNegative() {
		errs["price"] = "price cannot be negative"
	}
	if req.Quantity < 0 {
		errs["qty"] = "qty cannot be negative"
	}
	if req.CategoryID == "" {
		errs["category"] = "category id field cannot be empty"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// CreateProduct adds a catalog item after checking its category exists.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	req, err := decodeProductRequest(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Failed create product", "invalid request body")
		return
	}
	if errs := req.validate(); errs != nil {
		writeFieldErrors(w, r, "Failed create product", errs)
		return
	}

	if _, err := h.categories.GetByID(r.Context(), req.CategoryID); err != nil {
		if errors.Is(err, category.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "Failed create product",
				"category not found with the given category id")
			return
		}
		zctx.From(r.Context()).Error("Create product", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "Failed create product", err.Error())
		return
	}

	p := &product.Product{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		CategoryID:  req.CategoryID,
	}
	if err := h.products.Create(r.Context(), p); err != nil {
		zctx.From(r.Context()).Error("Create product", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "Failed create product", err.Error())
		return
	}

	writeJSON(w, r, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("message")
		e.Str("Success create product")
		e.FieldStart("data")
		encodeProduct(e, p)
		e.ObjEnd()
	})
}

// ListProducts returns a page of the catalog, optionally filtered by a name
// search term.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	products, total, err := h.products.List(r.Context(), product.ListParams{
		Search: search,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		zctx.From(r.Context()).Error("List products", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "Failed get all products", err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("message")
		e.Str("Success get all products")
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
		for i := range products {
			encodeProduct(e, &products[i])
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

// GetProduct returns a single catalog item.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, product.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Failed get product", "product not found")
		return
	case err != nil:
		zctx.From(r.Context()).Error("Get product", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "Failed get product", err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("message")
		e.Str("Success get product")
		e.FieldStart("data")
		encodeProduct(e, p)
		e.ObjEnd()
	})
}

// UpdateProduct replaces a catalog item's mutable fields.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	req, err := decodeProductRequest(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Failed update product", "invalid request body")
		return
	}
	if errs := req.validate(); errs != nil {
		writeFieldErrors(w, r, "Failed update product", errs)
		return
	}

	p := &product.Product{
		ID:          r.PathValue("id"),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		CategoryID:  req.CategoryID,
	}
	err = h.products.Update(r.Context(), p)
	switch {
	case errors.Is(err, product.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Failed update product", "product not found")
		return
	case err != nil:
		zctx.From(r.Context()).Error("Update product", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "Failed update product", err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("message")
		e.Str("Success update product")
		e.FieldStart("data")
		encodeProduct(e, p)
		e.ObjEnd()
	})
}

// DeleteProduct removes a catalog item.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	err := h.products.Delete(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, product.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Failed delete product", "product not found")
		return
	case err != nil:
		zctx.From(r.Context()).Error("Delete product", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "Failed delete product", err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("message")
		e.Str("Success delete product")
		e.ObjEnd()
	})
}

func decodeProductRequest(r *http.Request) (productRequest, error) {
	var req productRequest

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
		case "price":
			return decodeDecimal(d, &req.Price)
		case "qty":
			v, err := d.Int()
			req.Quantity = v
			return err
		case "category":
			v, err := d.Str()
			req.CategoryID = v
			return err
		default:
			return d.Skip()
		}
	})
	return req, err
}

func decodeDecimal(d *jx.Decoder, out *decimal.Decimal) error {
	n, err := d.Num()
	if err != nil {
		return err
	}
	v, err := decimal.NewFromString(strings.Trim(n.String(), `"`))
	if err != nil {
		return err
	}
	*out = v
	return nil
}

func encodeProduct(e *jx.Encoder, p *product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("price")
	encodeDecimal(e, p.Price)
	e.FieldStart("qty")
	e.Int(p.Quantity)
	e.FieldStart("category")
	e.Str(p.CategoryID)
	e.FieldStart("createdAt")
	encodeTime(e, p.CreatedAt)
	e.ObjEnd()
}
