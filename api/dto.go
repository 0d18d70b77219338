/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

DECIMALS:
  Quantities and money are decimal.Decimal, which marshals as a JSON
  string ("0.1") and unmarshals from either a string or a number.
  The restock quantity is kept raw and parsed by stock.ParseQuantity, so
  bad input is reported as an invalid argument.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - menu/factory.go: MenuJSON type
*/
package api

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/kitchen-engine/menu"
	"github.com/warp/kitchen-engine/restaurant"
	"github.com/warp/kitchen-engine/stock"
)

// =============================================================================
// INGREDIENTS
// =============================================================================

// IngredientDTO represents a ledger entry.
type IngredientDTO struct {
	Name     string          `json:"name"`
	Unit     string          `json:"unit"`
	Quantity decimal.Decimal `json:"quantity"`
}

// UpsertIngredientRequest tops up (or, with a negative quantity, corrects)
// an ingredient. Quantity may be a JSON number or a string.
type UpsertIngredientRequest struct {
	Name     string          `json:"name"`
	Unit     string          `json:"unit"`
	Quantity json.RawMessage `json:"quantity"`
}

// QuantityText returns the quantity as the client wrote it, unquoted.
func (r UpsertIngredientRequest) QuantityText() string {
	var s string
	if err := json.Unmarshal(r.Quantity, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(r.Quantity))
}

func toIngredientDTO(ing stock.Ingredient) IngredientDTO {
	return IngredientDTO{Name: ing.Name.String(), Unit: ing.Unit, Quantity: ing.Quantity}
}

func toIngredientDTOs(ings []stock.Ingredient) []IngredientDTO {
	out := make([]IngredientDTO, len(ings))
	for i, ing := range ings {
		out[i] = toIngredientDTO(ing)
	}
	return out
}

// =============================================================================
// MENUS
// =============================================================================

// MenuDTO wraps menu.MenuJSON.
type MenuDTO = menu.MenuJSON

// AvailabilityDTO says whether one unit of a menu can be prepared now.
type AvailabilityDTO struct {
	Menu      string          `json:"menu"`
	Price     decimal.Decimal `json:"price"`
	Available bool            `json:"available"`
	Shortages []ShortageDTO   `json:"shortages"`
}

// =============================================================================
// ORDERS
// =============================================================================

// OrderLineDTO is one line of an order request.
type OrderLineDTO struct {
	Menu  string `json:"menu"`
	Count int    `json:"count"`
}

// OrderRequest is the body of evaluate and place-order calls.
type OrderRequest struct {
	CustomerID string         `json:"customer_id,omitempty"`
	Lines      []OrderLineDTO `json:"lines"`
}

// ShortageDTO reports one under-stocked ingredient.
type ShortageDTO struct {
	Ingredient string          `json:"ingredient"`
	Required   decimal.Decimal `json:"required"`
	Available  decimal.Decimal `json:"available"`
	Missing    decimal.Decimal `json:"missing"`
}

// DemandDTO is the total quantity of one ingredient an order needs.
type DemandDTO struct {
	Ingredient string          `json:"ingredient"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// EvaluationDTO is the result of a read-only availability check, with the
// price the order would have.
type EvaluationDTO struct {
	OK        bool          `json:"ok"`
	Shortages []ShortageDTO `json:"shortages"`
	Demand    []DemandDTO   `json:"demand"`
	Quote     ReceiptDTO    `json:"quote"`
}

// ReceiptLineDTO is one priced line.
type ReceiptLineDTO struct {
	Menu      string          `json:"menu"`
	Count     int             `json:"count"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

// ReceiptDTO is a priced order summary.
type ReceiptDTO struct {
	Lines    []ReceiptLineDTO `json:"lines"`
	Subtotal decimal.Decimal  `json:"subtotal"`
	VAT      decimal.Decimal  `json:"vat"`
	Total    decimal.Decimal  `json:"total"`
}

// OrderDTO is a placed order.
type OrderDTO struct {
	ID            string           `json:"id"`
	CustomerID    string           `json:"customer_id,omitempty"`
	ReservationID string           `json:"reservation_id"`
	CreatedAt     time.Time        `json:"created_at"`
	Lines         []ReceiptLineDTO `json:"lines"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	VAT           decimal.Decimal  `json:"vat"`
	Total         decimal.Decimal  `json:"total"`
}

// PlaceOrderResponse is returned by POST /api/orders. Order is set on
// success; Shortages on a 409.
type PlaceOrderResponse struct {
	OK        bool          `json:"ok"`
	Order     *OrderDTO     `json:"order,omitempty"`
	Shortages []ShortageDTO `json:"shortages,omitempty"`
}

func toShortageDTOs(ss []stock.Shortage) []ShortageDTO {
	out := make([]ShortageDTO, len(ss))
	for i, s := range ss {
		out[i] = ShortageDTO{
			Ingredient: s.Ingredient.String(),
			Required:   s.Required,
			Available:  s.Available,
			Missing:    s.Missing(),
		}
	}
	return out
}

func toDemandDTOs(d stock.Demand) []DemandDTO {
	out := make([]DemandDTO, 0, d.Len())
	for _, k := range d.Keys() {
		out = append(out, DemandDTO{Ingredient: k.String(), Quantity: d.Quantity(k)})
	}
	return out
}

func toReceiptLineDTOs(lines []menu.Line) []ReceiptLineDTO {
	out := make([]ReceiptLineDTO, len(lines))
	for i, l := range lines {
		out[i] = ReceiptLineDTO{Menu: l.Menu, Count: l.Count, UnitPrice: l.UnitPrice, Amount: l.Amount}
	}
	return out
}

func toQuoteDTO(r menu.Receipt) ReceiptDTO {
	return ReceiptDTO{
		Lines:    toReceiptLineDTOs(r.Lines),
		Subtotal: r.Subtotal,
		VAT:      r.VAT,
		Total:    r.Total,
	}
}

func toOrderDTO(o restaurant.OrderRecord) OrderDTO {
	return OrderDTO{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		ReservationID: o.ReservationID,
		CreatedAt:     o.CreatedAt,
		Lines:         toReceiptLineDTOs(o.Lines),
		Subtotal:      o.Subtotal,
		VAT:           o.VAT,
		Total:         o.Total,
	}
}

// =============================================================================
// CUSTOMERS
// =============================================================================

// CustomerDTO represents a customer in API responses.
type CustomerDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCustomerRequest is the request body for creating a customer.
type CreateCustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateCustomerRequest changes name and/or email. Empty fields are kept.
type UpdateCustomerRequest struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func toCustomerDTO(c restaurant.Customer) CustomerDTO {
	return CustomerDTO{ID: c.ID, Name: c.Name, Email: c.Email, CreatedAt: c.CreatedAt}
}

// =============================================================================
// REPORTS & ALERTS
// =============================================================================

// ReportDTO mirrors restaurant.Report.
type ReportDTO struct {
	LowStock        []IngredientDTO `json:"low_stock"`
	TopMenus        []MenuSalesDTO  `json:"top_menus"`
	RevenueByDay    []RevenueDTO    `json:"revenue_by_day"`
	RevenueByMonth  []RevenueDTO    `json:"revenue_by_month"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	IngredientUsage []DemandDTO     `json:"ingredient_usage"`
}

// MenuSalesDTO is units sold of one menu.
type MenuSalesDTO struct {
	Menu  string `json:"menu"`
	Units int    `json:"units"`
}

// RevenueDTO is the revenue of one period.
type RevenueDTO struct {
	Period string          `json:"period"`
	Orders int             `json:"orders"`
	Total  decimal.Decimal `json:"total"`
}

func toReportDTO(r restaurant.Report) ReportDTO {
	dto := ReportDTO{
		LowStock:        toIngredientDTOs(r.LowStock),
		TopMenus:        make([]MenuSalesDTO, len(r.TopMenus)),
		RevenueByDay:    toRevenueDTOs(r.RevenueByDay),
		RevenueByMonth:  toRevenueDTOs(r.RevenueByMonth),
		TotalRevenue:    r.TotalRevenue,
		IngredientUsage: make([]DemandDTO, len(r.IngredientUsage)),
	}
	for i, m := range r.TopMenus {
		dto.TopMenus[i] = MenuSalesDTO{Menu: m.Menu, Units: m.Units}
	}
	for i, u := range r.IngredientUsage {
		dto.IngredientUsage[i] = DemandDTO{Ingredient: u.Ingredient.String(), Quantity: u.Quantity}
	}
	return dto
}

func toRevenueDTOs(rs []restaurant.Revenue) []RevenueDTO {
	out := make([]RevenueDTO, len(rs))
	for i, r := range rs {
		out[i] = RevenueDTO{Period: r.Period, Orders: r.Orders, Total: r.Total}
	}
	return out
}

// AlertsDTO is the latest stock monitor check.
type AlertsDTO struct {
	CheckedAt   *time.Time      `json:"checked_at,omitempty"`
	Threshold   decimal.Decimal `json:"threshold"`
	LowStock    []IngredientDTO `json:"low_stock"`
	Unavailable []string        `json:"unavailable_menus"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request body for loading a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
