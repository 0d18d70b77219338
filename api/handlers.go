/*
handlers.go - HTTP API handlers for the kitchen

PURPOSE:
  Exposes the kitchen session via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the restaurant session.

ENDPOINTS:
  Ingredients:
    GET    /api/ingredients            List stock levels
    POST   /api/ingredients            Restock (upsert) an ingredient
    GET    /api/ingredients/{name}     Get one ingredient
    DELETE /api/ingredients/{name}     Remove an ingredient

  Menus:
    GET    /api/menus                  List menus
    POST   /api/menus                  Create or replace a menu
    POST   /api/menus/import           Create or replace a JSON array of menus
    GET    /api/menus/preparable       Which menus can be prepared now
    GET    /api/menus/{name}           Get one menu
    DELETE /api/menus/{name}           Remove a menu

  Orders:
    POST   /api/orders/evaluate        Check an order without committing
    POST   /api/orders                 Commit an order (all or nothing)
    GET    /api/orders                 Order history
    GET    /api/orders/{id}            Get one order
    DELETE /api/orders/{id}            Remove an order from history

  Customers:
    GET    /api/customers              List customers
    POST   /api/customers              Register a customer
    GET    /api/customers/{id}         Get one customer
    PUT    /api/customers/{id}         Update name and/or email
    DELETE /api/customers/{id}         Remove a customer with no orders

  Reports:
    GET    /api/reports?limit=N        Sales and stock summaries
    GET    /api/alerts                 Latest stock monitor check

  Scenarios:
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/load         Load a demo scenario

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call the session
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (duplicate email, customer with orders, stock shortage)
  - 500: Internal errors, including stock ledger inconsistencies

  A shortage on POST /api/orders is a 409 whose body lists the shortages.

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/warp/kitchen-engine/menu"
	"github.com/warp/kitchen-engine/restaurant"
	"github.com/warp/kitchen-engine/stock"
	"go.uber.org/zap"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Session *restaurant.Session
	Monitor *StockMonitor
	Logger  *zap.Logger

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler for the given session.
func NewHandler(session *restaurant.Session, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Session: session, Logger: logger}
}

// =============================================================================
// INGREDIENT HANDLERS
// =============================================================================

// ListIngredients returns every ingredient in ledger order.
func (h *Handler) ListIngredients(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toIngredientDTOs(h.Session.Ingredients()))
}

// UpsertIngredient adds the requested quantity to an ingredient, creating it
// if needed.
func (h *Handler) UpsertIngredient(w http.ResponseWriter, r *http.Request) {
	var req UpsertIngredientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	quantity, err := stock.ParseQuantity(req.QuantityText())
	if err != nil {
		h.fail(w, "Invalid quantity", err)
		return
	}

	ing, err := h.Session.Restock(r.Context(), req.Name, req.Unit, quantity)
	if err != nil {
		h.fail(w, "Failed to restock ingredient", err)
		return
	}
	writeJSON(w, http.StatusOK, toIngredientDTO(ing))
}

// GetIngredient returns one ingredient.
func (h *Handler) GetIngredient(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	ing, ok := h.Session.Ingredient(name)
	if !ok {
		writeError(w, http.StatusNotFound, "Ingredient not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toIngredientDTO(ing))
}

// DeleteIngredient removes an ingredient from the ledger.
func (h *Handler) DeleteIngredient(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.RemoveIngredient(r.Context(), pathParam(r, "name")); err != nil {
		h.fail(w, "Failed to remove ingredient", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// MENU HANDLERS
// =============================================================================

// ListMenus returns every menu sorted by name.
func (h *Handler) ListMenus(w http.ResponseWriter, r *http.Request) {
	menus := h.Session.Menus()
	dtos := make([]MenuDTO, len(menus))
	for i, m := range menus {
		dtos[i] = menu.ToJSON(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveMenu creates or replaces one menu.
func (h *Handler) SaveMenu(w http.ResponseWriter, r *http.Request) {
	var req MenuDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	m := req.Menu()
	if err := h.Session.SaveMenu(r.Context(), m); err != nil {
		h.fail(w, "Failed to save menu", err)
		return
	}
	saved, _ := h.Session.Menu(strings.TrimSpace(m.Name))
	writeJSON(w, http.StatusCreated, menu.ToJSON(saved))
}

// ImportMenus creates or replaces every menu of a JSON array in one store
// transaction. Either all menus are saved or none is.
func (h *Handler) ImportMenus(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	menus, err := menu.ParseMenus(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid menus", err)
		return
	}

	if err := h.Session.SaveMenus(r.Context(), menus); err != nil {
		h.fail(w, "Failed to import menus", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": len(menus)})
}

// GetMenu returns one menu.
func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	m, ok := h.Session.Menu(pathParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, "Menu not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, menu.ToJSON(m))
}

// DeleteMenu removes a menu.
func (h *Handler) DeleteMenu(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.RemoveMenu(r.Context(), pathParam(r, "name")); err != nil {
		h.fail(w, "Failed to remove menu", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPreparable reports, per menu, whether one unit can be prepared now.
func (h *Handler) ListPreparable(w http.ResponseWriter, r *http.Request) {
	avail, err := h.Session.Preparable(r.Context())
	if err != nil {
		h.fail(w, "Failed to check menus", err)
		return
	}

	dtos := make([]AvailabilityDTO, len(avail))
	for i, a := range avail {
		dtos[i] = AvailabilityDTO{
			Menu:      a.Menu,
			Price:     a.Price,
			Available: a.OK,
			Shortages: toShortageDTOs(a.Shortages),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ORDER HANDLERS
// =============================================================================

// EvaluateOrder checks an order against current stock without changing it.
func (h *Handler) EvaluateOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.decodeOrder(w, r, nil)
	if !ok {
		return
	}

	res, err := h.Session.Evaluate(r.Context(), order)
	if err != nil {
		h.fail(w, "Failed to evaluate order", err)
		return
	}
	writeJSON(w, http.StatusOK, EvaluationDTO{
		OK:        res.OK,
		Shortages: toShortageDTOs(res.Shortages),
		Demand:    toDemandDTOs(res.Demand),
		Quote:     toQuoteDTO(h.Session.Quote(order)),
	})
}

// PlaceOrder commits an order. Either every ingredient is deducted and the
// order is recorded (201), or nothing changes and the shortages are
// returned (409).
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	order, ok := h.decodeOrder(w, r, &req)
	if !ok {
		return
	}

	p, err := h.Session.PlaceOrder(r.Context(), strings.TrimSpace(req.CustomerID), order)
	if err != nil {
		h.fail(w, "Failed to place order", err)
		return
	}
	if p.Order == nil {
		writeJSON(w, http.StatusConflict, PlaceOrderResponse{
			OK:        false,
			Shortages: toShortageDTOs(p.Result.Shortages),
		})
		return
	}

	dto := toOrderDTO(*p.Order)
	writeJSON(w, http.StatusCreated, PlaceOrderResponse{OK: true, Order: &dto})
}

// ListOrders returns the order history, oldest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Session.Orders(r.Context())
	if err != nil {
		h.fail(w, "Failed to list orders", err)
		return
	}

	dtos := make([]OrderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = toOrderDTO(o)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetOrder returns one order.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Session.Order(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to get order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(*o))
}

// DeleteOrder removes an order from history. Stock is not returned.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.DeleteOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "Failed to delete order", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeOrder reads an OrderRequest into req (which may be nil) and builds
// the order. Every line must name a known menu with a positive count. On
// failure the error response has been written.
func (h *Handler) decodeOrder(w http.ResponseWriter, r *http.Request, req *OrderRequest) (stock.Order, bool) {
	if req == nil {
		req = &OrderRequest{}
	}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return stock.Order{}, false
	}
	if len(req.Lines) == 0 {
		writeError(w, http.StatusBadRequest, "Order has no lines", restaurant.ErrEmptyOrder)
		return stock.Order{}, false
	}

	var order stock.Order
	for i, l := range req.Lines {
		name := strings.TrimSpace(l.Menu)
		if l.Count <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Line %d: count must be positive", i), nil)
			return stock.Order{}, false
		}
		if _, ok := h.Session.Menu(name); !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Line %d: unknown menu %q", i, name), menu.ErrMenuNotFound)
			return stock.Order{}, false
		}
		order.Add(name, l.Count)
	}
	return order, true
}

// =============================================================================
// CUSTOMER HANDLERS
// =============================================================================

// ListCustomers returns all customers.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Session.Customers(r.Context())
	if err != nil {
		h.fail(w, "Failed to list customers", err)
		return
	}

	dtos := make([]CustomerDTO, len(customers))
	for i, c := range customers {
		dtos[i] = toCustomerDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCustomer registers a customer. An already registered email returns
// the existing customer with 200 instead of 201.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	c, created, err := h.Session.CreateCustomer(r.Context(), req.Name, req.Email)
	if err != nil {
		h.fail(w, "Failed to create customer", err)
		return
	}
	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	writeJSON(w, status, toCustomerDTO(c))
}

// GetCustomer returns one customer.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.Session.Customer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to get customer", err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerDTO(*c))
}

// UpdateCustomer changes a customer's name and/or email.
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var req UpdateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	c, err := h.Session.UpdateCustomer(r.Context(), chi.URLParam(r, "id"), req.Name, req.Email)
	if err != nil {
		h.fail(w, "Failed to update customer", err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerDTO(c))
}

// DeleteCustomer removes a customer with no orders.
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.DeleteCustomer(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "Failed to delete customer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetReport returns sales and stock summaries.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	rep, err := h.Session.Report(r.Context(), limit)
	if err != nil {
		h.fail(w, "Failed to build report", err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(rep))
}

// GetAlerts returns the latest stock monitor check, running one if none has
// happened yet.
func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	if h.Monitor == nil {
		writeError(w, http.StatusNotFound, "Stock monitor not configured", nil)
		return
	}

	alerts, ok := h.Monitor.Latest()
	if !ok {
		var err error
		if alerts, err = h.Monitor.Check(r.Context()); err != nil {
			h.fail(w, "Failed to check stock", err)
			return
		}
	}

	checkedAt := alerts.CheckedAt
	writeJSON(w, http.StatusOK, AlertsDTO{
		CheckedAt:   &checkedAt,
		Threshold:   alerts.Threshold,
		LowStock:    toIngredientDTOs(alerts.LowStock),
		Unavailable: append([]string{}, alerts.Unavailable...),
	})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.Reset(r.Context()); err != nil {
		h.fail(w, "Failed to reset database", err)
		return
	}
	h.setScenario("")

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// fail writes err with the status its kind maps to. Server errors are logged.
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error(message, zap.Error(err))
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, stock.ErrInconsistent):
		return http.StatusInternalServerError
	case stock.IsClientError(err),
		errors.Is(err, menu.ErrInvalidMenu),
		errors.Is(err, restaurant.ErrInvalidCustomer),
		errors.Is(err, restaurant.ErrEmptyOrder):
		return http.StatusBadRequest
	case stock.IsNotFound(err),
		errors.Is(err, menu.ErrMenuNotFound),
		errors.Is(err, restaurant.ErrCustomerNotFound),
		errors.Is(err, restaurant.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, restaurant.ErrDuplicateEmail),
		errors.Is(err, restaurant.ErrCustomerHasOrders):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// pathParam returns a decoded URL parameter. Menu and ingredient names may
// contain spaces.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if s, err := url.PathUnescape(raw); err == nil {
		return s
	}
	return raw
}

func (h *Handler) setScenario(id string) {
	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()
}

func (h *Handler) scenario() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentScenario
}
