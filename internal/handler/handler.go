// Package handler implements the order intake HTTP API.
package handler

import (
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/smartmenu/order-intake/internal/domain/order"
)

// User-facing response messages.
const (
	MsgOrderReceived = "تم استلام طلبك بنجاح!"
	MsgSaveFailed    = "حدث خطأ أثناء حفظ الطلب"
	MsgOrderNotFound = "الطلب غير موجود"
	MsgGenericError  = "حدث خطأ"
	MsgInvalidBody   = "طلب غير صالح"
)

const maxBodyBytes = 1 << 20

// Handler serves the /api/orders endpoints, delegating business logic to the
// order service.
type Handler struct {
	orders *order.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(orders *order.Service) *Handler {
	return &Handler{orders: orders}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/orders", h.SubmitOrder)
	mux.HandleFunc("GET /api/orders", h.ListOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.GetOrder)
	mux.HandleFunc("GET /{$}", h.Root)
}

// Root answers a plain-text banner so the service can be probed by hand.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Smart Menu API is running!"))
}

func writeJSON(w http.ResponseWriter, r *http.Request, contentType string, status int, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		zctx.From(r.Context()).Debug("Write response", zap.Error(err))
	}
}
