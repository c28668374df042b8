package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/smartmenu/order-intake/internal/domain/order"
)

const (
	contentTypeJSON    = "application/json; charset=utf-8"
	contentTypeProblem = "application/problem+json; charset=utf-8"
)

// SubmitOrder handles POST /api/orders. Field violations are answered with
// 422 and a field to messages map; any other failure is logged and answered
// with a generic 500.
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	lg := zctx.From(r.Context())

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		lg.Info("Read order body", zap.Error(err))
		writeJSON(w, r, contentTypeJSON, http.StatusBadRequest, encodeMessage(MsgInvalidBody, false))
		return
	}
	sub, err := DecodeSubmission(data)
	if err != nil {
		lg.Info("Decode order body", zap.Error(err))
		writeJSON(w, r, contentTypeJSON, http.StatusBadRequest, encodeMessage(MsgInvalidBody, false))
		return
	}

	o, err := h.orders.Submit(r.Context(), sub)
	if err != nil {
		if fields := order.FieldMessages(err); fields != nil {
			writeJSON(w, r, contentTypeProblem, http.StatusUnprocessableEntity, encodeValidationProblem(fields))
			return
		}
		lg.Error("Submit order", zap.Error(err))
		writeJSON(w, r, contentTypeJSON, http.StatusInternalServerError, encodeMessage(MsgSaveFailed, false))
		return
	}

	lg.Info("Order created", zap.Int64("order_id", o.ID), zap.Int("items", len(o.Items)))
	writeJSON(w, r, contentTypeJSON, http.StatusOK, encodeCreated(o.ID, MsgOrderReceived))
}

// ListOrders handles GET /api/orders.
//
// Storage failures are logged and answered with 200 and an empty array.
// This endpoint never reports an error status.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("List orders", zap.Error(err))
		orders = nil
	}
	writeJSON(w, r, contentTypeJSON, http.StatusOK, encodeOrders(orders))
}

// GetOrder handles GET /api/orders/{id}. Unknown or malformed ids yield 404;
// storage failures yield 500.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, r, contentTypeJSON, http.StatusNotFound, encodeMessage(MsgOrderNotFound, true))
		return
	}

	o, err := h.orders.Get(r.Context(), id)
	switch {
	case errors.Is(err, order.ErrNotFound):
		writeJSON(w, r, contentTypeJSON, http.StatusNotFound, encodeMessage(MsgOrderNotFound, true))
		return
	case err != nil:
		zctx.From(r.Context()).Error("Get order", zap.Int64("order_id", id), zap.Error(err))
		writeJSON(w, r, contentTypeJSON, http.StatusInternalServerError, encodeMessage(MsgGenericError, true))
		return
	}

	var e jx.Encoder
	encodeOrder(&e, *o)
	writeJSON(w, r, contentTypeJSON, http.StatusOK, e.Bytes())
}
