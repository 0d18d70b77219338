/*
scheduler.go - Periodic low-stock monitor

PURPOSE:
  Periodically checks the ingredient ledger for ingredients at or below a
  threshold and for menus that can no longer be prepared, logs a warning
  for each, and keeps the latest check for GET /api/alerts.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Checks once immediately on Start
  - Read-only: never changes stock

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 minute)
  - Threshold: Quantity at or below which an ingredient is low (default: 5)
  - Enabled: Whether the monitor is active (default: true)

USAGE:
  monitor := NewStockMonitor(session, logger)
  monitor.Start()
  // ... later
  monitor.Stop()

SEE ALSO:
  - handlers.go: GetAlerts endpoint
  - restaurant/report.go: LowStock ordering
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/kitchen-engine/restaurant"
	"github.com/warp/kitchen-engine/stock"
	"go.uber.org/zap"
)

// DefaultLowStockThreshold is the default monitor threshold.
var DefaultLowStockThreshold = decimal.NewFromInt(5)

// Alerts is the outcome of one monitor check.
type Alerts struct {
	CheckedAt   time.Time
	Threshold   decimal.Decimal
	LowStock    []stock.Ingredient
	Unavailable []string
}

// StockMonitor watches stock levels of a session.
type StockMonitor struct {
	Session       *restaurant.Session
	Logger        *zap.Logger
	CheckInterval time.Duration
	Threshold     decimal.Decimal
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	lastMu sync.RWMutex
	last   *Alerts
}

// NewStockMonitor creates a monitor with default settings.
func NewStockMonitor(session *restaurant.Session, logger *zap.Logger) *StockMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockMonitor{
		Session:       session,
		Logger:        logger,
		CheckInterval: time.Minute,
		Threshold:     DefaultLowStockThreshold,
		Enabled:       true,
	}
}

// Start begins the monitor.
func (m *StockMonitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.Enabled {
		m.Logger.Info("stock monitor disabled")
		return
	}
	if m.ticker != nil {
		return
	}

	m.ticker = time.NewTicker(m.CheckInterval)
	m.stop = make(chan struct{})
	m.wg.Add(1)

	go m.run()

	m.Logger.Info("stock monitor started",
		zap.Duration("interval", m.CheckInterval),
		zap.String("threshold", m.Threshold.String()),
	)
}

// Stop stops the monitor and waits for a running check to finish.
func (m *StockMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ticker == nil {
		return
	}
	m.ticker.Stop()
	close(m.stop)
	m.wg.Wait()
	m.ticker = nil
	m.Logger.Info("stock monitor stopped")
}

func (m *StockMonitor) run() {
	defer m.wg.Done()

	m.check()

	for {
		select {
		case <-m.ticker.C:
			m.check()
		case <-m.stop:
			return
		}
	}
}

func (m *StockMonitor) check() {
	ctx, cancel := context.WithTimeout(context.Background(), m.CheckInterval)
	defer cancel()
	if _, err := m.Check(ctx); err != nil {
		m.Logger.Error("stock check failed", zap.Error(err))
	}
}

// Check runs one check now, stores it as the latest and logs its findings.
func (m *StockMonitor) Check(ctx context.Context) (Alerts, error) {
	var low []stock.Ingredient
	for _, ing := range m.Session.Ingredients() {
		if ing.Quantity.LessThanOrEqual(m.Threshold) {
			low = append(low, ing)
		}
	}
	low = restaurant.LowStock(low, 0)

	avail, err := m.Session.Preparable(ctx)
	if err != nil {
		return Alerts{}, err
	}
	var unavailable []string
	for _, a := range avail {
		if !a.OK {
			unavailable = append(unavailable, a.Menu)
		}
	}

	alerts := Alerts{
		CheckedAt:   time.Now().UTC(),
		Threshold:   m.Threshold,
		LowStock:    low,
		Unavailable: unavailable,
	}

	for _, ing := range low {
		m.Logger.Warn("low stock",
			zap.String("ingredient", ing.Name.String()),
			zap.String("quantity", ing.Quantity.String()),
		)
	}
	if len(unavailable) > 0 {
		m.Logger.Warn("menus unavailable", zap.Strings("menus", unavailable))
	}

	m.lastMu.Lock()
	m.last = &alerts
	m.lastMu.Unlock()
	return alerts, nil
}

// Latest returns the most recent check, if any.
func (m *StockMonitor) Latest() (Alerts, bool) {
	m.lastMu.RLock()
	defer m.lastMu.RUnlock()
	if m.last == nil {
		return Alerts{}, false
	}
	return *m.last, true
}
