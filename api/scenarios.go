/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the kitchen with realistic
	data for testing and demos. Each scenario seeds menus and stock and
	optionally customers and orders that demonstrate specific features.

AVAILABLE SCENARIOS:

	house-menu:    The eight house menus, 100 of every ingredient
	short-stock:   House menus with papas and pollo nearly gone
	busy-day:      House menus, three customers and a day of orders
	empty-kitchen: Nothing at all

HOW SCENARIOS WORK:
 1. Reset the session (clear all data)
 2. Seed menus and opening stock in one transaction
 3. Optionally register customers
 4. Optionally place orders through the normal commit path

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "short-stock"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add it to 'loaders'

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ResetDatabase
  - menu/factory.go: House menu JSON
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/warp/kitchen-engine/menu"
	"github.com/warp/kitchen-engine/stock"
	"go.uber.org/zap"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "house-menu",
		Name:        "House Menu",
		Description: "Eight house menus with 100 units of every ingredient",
	},
	{
		ID:          "short-stock",
		Name:        "Short Stock",
		Description: "House menus with papas and presa de pollo almost gone",
	},
	{
		ID:          "busy-day",
		Name:        "Busy Day",
		Description: "House menus, three customers and a day of placed orders",
	},
	{
		ID:          "empty-kitchen",
		Name:        "Empty Kitchen",
		Description: "No menus, no stock, no customers",
	},
}

func (h *Handler) loaders() map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		"house-menu":    h.loadHouseMenuScenario,
		"short-stock":   h.loadShortStockScenario,
		"busy-day":      h.loadBusyDayScenario,
		"empty-kitchen": func(context.Context) error { return nil },
	}
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	current := h.scenario()
	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the kitchen and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	load, ok := h.loaders()[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	if err := h.Session.Reset(ctx); err != nil {
		h.fail(w, "Failed to reset database", err)
		return
	}
	h.setScenario("")

	if err := load(ctx); err != nil {
		h.fail(w, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.setScenario(req.ScenarioID)
	h.Logger.Info("scenario loaded", zap.String("scenario", req.ScenarioID))

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadHouseMenuScenario(ctx context.Context) error {
	menus := menu.HouseMenus()
	return h.Session.Seed(ctx, menus, menu.HouseStock(menus))
}

func (h *Handler) loadShortStockScenario(ctx context.Context) error {
	menus := menu.HouseMenus()
	ings := menu.HouseStock(menus)
	for i := range ings {
		switch ings[i].Name {
		case "papas":
			// one portion needs 1.5
			ings[i].Quantity = decimal.NewFromInt(1)
		case "presa de pollo":
			// one portion only
			ings[i].Quantity = decimal.NewFromInt(3)
		}
	}
	return h.Session.Seed(ctx, menus, ings)
}

func (h *Handler) loadBusyDayScenario(ctx context.Context) error {
	if err := h.loadHouseMenuScenario(ctx); err != nil {
		return err
	}

	people := []struct{ name, email string }{
		{"Camila Rojas", "camila@example.com"},
		{"Diego Soto", "diego@example.com"},
		{"Valentina Muñoz", "valentina@example.com"},
	}
	ids := make([]string, len(people))
	for i, p := range people {
		c, _, err := h.Session.CreateCustomer(ctx, p.name, p.email)
		if err != nil {
			return fmt.Errorf("create customer %s: %w", p.email, err)
		}
		ids[i] = c.ID
	}

	orders := []struct {
		customer string
		lines    []stock.OrderLine
	}{
		{ids[0], []stock.OrderLine{{Menu: "Hamburguesa", Count: 2}, {Menu: "Coca Cola", Count: 2}}},
		{ids[1], []stock.OrderLine{{Menu: "Completo", Count: 3}, {Menu: "Papas Fritas", Count: 1}}},
		{ids[2], []stock.OrderLine{{Menu: "Ensalada Mixta", Count: 1}, {Menu: "Pepsi", Count: 1}}},
		{"", []stock.OrderLine{{Menu: "Pollo Frito", Count: 4}, {Menu: "Papas Fritas", Count: 4}}},
		{ids[0], []stock.OrderLine{{Menu: "Panqueques", Count: 2}}},
	}
	for i, o := range orders {
		p, err := h.Session.PlaceOrder(ctx, o.customer, stock.NewOrder(o.lines...))
		if err != nil {
			return fmt.Errorf("order %d: %w", i, err)
		}
		if p.Order == nil {
			return fmt.Errorf("order %d: short of stock", i)
		}
	}
	return nil
}
