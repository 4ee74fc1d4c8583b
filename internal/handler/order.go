package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/storefront-go/storefront/internal/domain/order"
)

// CreateOrder places a new order for the authenticated caller. The whole
// placement runs in one transaction inside the order service; this handler
// only maps the outcome onto the HTTP error taxonomy.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "Unauthorized", "missing session")
		return
	}

	req, err := decodeCreateOrderRequest(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Fail create order", "invalid request body")
		return
	}
	req.CreatedBy = id.UserID

	o, err := h.orders.PlaceOrder(r.Context(), req)
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("message")
		e.Str("Success create order")
		e.FieldStart("data")
		encodeOrder(e, o)
		e.ObjEnd()
	})
}

// writeOrderError maps the placement failure taxonomy onto responses: stock
// and validation failures are 400-class with human-readable detail, anything
// else is a 500 whose transaction has already been rolled back.
func (h *Handler) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		stockErr    *order.InsufficientStockError
		notFoundErr *order.ProductNotFoundError
		fieldErrs   order.FieldErrors
	)
	switch {
	case errors.As(err, &stockErr):
		writeError(w, r, http.StatusBadRequest, "Failed add order items", stockErr.Error())
	case errors.As(err, &notFoundErr):
		writeError(w, r, http.StatusBadRequest, "Fail create order", notFoundErr.Error())
	case errors.As(err, &fieldErrs):
		writeFieldErrors(w, r, "Fail create order", fieldErrs)
	default:
		zctx.From(r.Context()).Error("Create order", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "Fail create order", err.Error())
	}
}

// ListOrders returns the caller's order history, newest first, optionally
// filtered by status.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "Unauthorized", "missing session")
		return
	}

	page, limit := pagination(r)

	var filter order.Filter
	if s := r.URL.Query().Get("status"); s != "" {
		status, err := order.ParseStatus(s)
		if err != nil {
			writeError(w, r, http.StatusNotFound, "Failed to get user's order history", err.Error())
			return
		}
		filter.Status = status
	}

	orders, total, err := h.orders.ListByOwner(r.Context(), id.UserID, filter, page, limit)
	if err != nil {
		zctx.From(r.Context()).Error("List orders", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "Failed to get user's order history", err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("page")
		e.Int(page)
		e.FieldStart("limit")
		e.Int(limit)
		e.FieldStart("total")
		e.Int(total)
		e.FieldStart("totalPages")
		e.Int(totalPages(total, limit))
		e.FieldStart("orders")
		e.ArrStart()
		for i := range orders {
			encodeOrder(e, &orders[i])
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

// GetOrder returns one of the caller's orders by id.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "Unauthorized", "missing session")
		return
	}

	o, err := h.orders.GetByID(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, order.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Failed to get order", "order not found")
		return
	case err != nil:
		zctx.From(r.Context()).Error("Get order", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "Failed to get order", err.Error())
		return
	}

	// Orders are scoped to their owner; leak nothing about other users'.
	if o.CreatedBy != id.UserID {
		writeError(w, r, http.StatusNotFound, "Failed to get order", "order not found")
		return
	}

	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("message")
		e.Str("Success get order")
		e.FieldStart("data")
		encodeOrder(e, o)
		e.ObjEnd()
	})
}

func decodeCreateOrderRequest(r *http.Request) (order.CreateOrderRequest, error) {
	var req order.CreateOrderRequest

	d, err := readBody(r)
	if err != nil {
		return req, err
	}

	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "orderItems":
			return d.Arr(func(d *jx.Decoder) error {
				var item order.RequestedItem
				if err := d.Obj(func(d *jx.Decoder, key string) error {
					switch key {
					case "productId":
						v, err := d.Str()
						item.ProductID = v
						return err
					case "quantity":
						v, err := d.Int()
						item.Quantity = v
						return err
					default:
						return d.Skip()
					}
				}); err != nil {
					return err
				}
				req.Items = append(req.Items, item)
				return nil
			})
		case "status":
			v, err := d.Str()
			req.Status = order.Status(v)
			return err
		default:
			return d.Skip()
		}
	})
	return req, err
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("createdBy")
	e.Str(o.CreatedBy)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("grandTotal")
	encodeDecimal(e, o.GrandTotal)
	e.FieldStart("orderItems")
	e.ArrStart()
	for _, li := range o.Items {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(li.ProductID)
		e.FieldStart("name")
		e.Str(li.Name)
		e.FieldStart("price")
		encodeDecimal(e, li.Price)
		e.FieldStart("quantity")
		e.Int(li.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("createdAt")
	encodeTime(e, o.CreatedAt)
	e.ObjEnd()
}
