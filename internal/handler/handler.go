package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/honeynil/content-checkout/internal/infrastructure/auth"
	service "github.com/honeynil/content-checkout/internal/services"
	pkgerrors "github.com/honeynil/content-checkout/pkg/errors"
)

// maxWebhookBody caps what we read from the processor before signature checking.
const maxWebhookBody = 64 << 10

const signatureHeader = "Stripe-Signature"

type Handler struct {
	purchases service.PurchaseService
	webhooks  *service.WebhookRouter
}

func NewHandler(purchases service.PurchaseService, webhooks *service.WebhookRouter) *Handler {
	return &Handler{purchases: purchases, webhooks: webhooks}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (h *Handler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/webhooks/payment", h.PaymentWebhook).Methods("POST")
	r.HandleFunc("/healthz", h.Health).Methods("GET")
}

func (h *Handler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/checkout", h.Checkout).Methods("POST")
	r.HandleFunc("/purchases/access/{contentId}", h.Access).Methods("GET")
}

type checkoutRequest struct {
	ContentID string `json:"contentId"`
}

type checkoutResponse struct {
	CheckoutURL string `json:"checkoutUrl,omitempty"`
	SessionID   string `json:"sessionId,omitempty"`
	Granted     bool   `json:"granted,omitempty"`
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity.CustomerID == "" || identity.OrganizationID == "" {
		h.writeError(w, http.StatusUnauthorized, errors.New("customer not authenticated"))
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	req.ContentID = strings.TrimSpace(req.ContentID)
	if req.ContentID == "" {
		h.writeError(w, http.StatusBadRequest, errors.New("contentId is required"))
		return
	}

	result, err := h.purchases.CreateCheckout(r.Context(), identity.CustomerID, req.ContentID, identity.OrganizationID)
	if err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrContentUnavailable):
			h.writeError(w, http.StatusNotFound, pkgerrors.ErrContentUnavailable)
		case errors.Is(err, pkgerrors.ErrDuplicatePurchase):
			h.writeError(w, http.StatusConflict, pkgerrors.ErrDuplicatePurchase)
		default:
			slog.Error("checkout failed",
				"customer_id", identity.CustomerID,
				"content_id", req.ContentID,
				"error", err)
			h.writeError(w, http.StatusInternalServerError, errors.New("checkout failed"))
		}
		return
	}

	if result.FreeGrant {
		h.writeJSON(w, http.StatusCreated, checkoutResponse{Granted: true})
		return
	}
	h.writeJSON(w, http.StatusCreated, checkoutResponse{CheckoutURL: result.CheckoutURL, SessionID: result.SessionID})
}

func (h *Handler) Access(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity.CustomerID == "" {
		h.writeError(w, http.StatusUnauthorized, errors.New("customer not authenticated"))
		return
	}

	contentID := mux.Vars(r)["contentId"]
	hasAccess, err := h.purchases.HasAccess(r.Context(), identity.CustomerID, contentID)
	if err != nil {
		slog.Error("access check failed", "customer_id", identity.CustomerID, "content_id", contentID, "error", err)
		h.writeError(w, http.StatusInternalServerError, errors.New("access check failed"))
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"hasAccess": hasAccess})
}

// PaymentWebhook answers with the status the processor's retry logic expects:
// only 5xx gets redelivered.
func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		slog.Warn("failed to read webhook body", "error", err)
		h.writeError(w, http.StatusBadRequest, errors.New("unreadable payload"))
		return
	}

	outcome := h.webhooks.Handle(r.Context(), payload, r.Header.Get(signatureHeader))
	h.writeJSON(w, outcome.HTTPStatus(), map[string]string{"status": outcome.String()})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
