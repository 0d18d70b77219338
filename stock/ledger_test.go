package stock_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/kitchen-engine/stock"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func qty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertQty(t *testing.T, ledger *stock.IngredientLedger, name, want string) {
	t.Helper()
	got := ledger.QuantityOf(name)
	assert.Truef(t, got.Equal(qty(want)), "%s: want %s, got %s", name, want, got)
}

func newLedger(t *testing.T, entries ...stock.Ingredient) *stock.IngredientLedger {
	t.Helper()
	ledger := stock.NewIngredientLedger()
	for _, e := range entries {
		_, err := ledger.Upsert(string(e.Name), e.Unit, e.Quantity)
		require.NoError(t, err)
	}
	return ledger
}

func ing(name, unit, q string) stock.Ingredient {
	return stock.Ingredient{Name: stock.Key(name), Unit: unit, Quantity: qty(q)}
}

// =============================================================================
// UPSERT
// =============================================================================

func TestLedger_Upsert_CreatesEntry(t *testing.T) {
	ledger := stock.NewIngredientLedger()

	got, err := ledger.Upsert("  Tomato ", "kg", qty("5"))
	require.NoError(t, err)

	assert.Equal(t, stock.Key("tomato"), got.Name)
	assert.Equal(t, "kg", got.Unit)
	assertQty(t, ledger, "tomato", "5")
	assertQty(t, ledger, "TOMATO", "5")
}

func TestLedger_Upsert_TopUpKeepsUnit(t *testing.T) {
	// GIVEN: tomato stored in kg
	// WHEN: topping up with a different unit
	// THEN: quantity adds, unit stays kg

	ledger := newLedger(t, ing("tomato", "kg", "5"))

	got, err := ledger.Upsert("Tomato", "unid", qty("2.5"))
	require.NoError(t, err)

	assert.Equal(t, "kg", got.Unit)
	assertQty(t, ledger, "tomato", "7.5")
	assert.Equal(t, 1, ledger.Len())
}

func TestLedger_Upsert_EmptyNameRejected(t *testing.T) {
	ledger := stock.NewIngredientLedger()

	_, err := ledger.Upsert("   ", "kg", qty("1"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, stock.ErrInvalidArgument))
	assert.True(t, stock.IsClientError(err))
	var argErr *stock.InvalidArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "ingredient name", argErr.Field)
	assert.Equal(t, 0, ledger.Len())
}

func TestLedger_Upsert_NegativeCorrection(t *testing.T) {
	ledger := newLedger(t, ing("bun", "unid", "10"))

	_, err := ledger.Upsert("bun", "unid", qty("-4"))
	require.NoError(t, err)
	assertQty(t, ledger, "bun", "6")

	_, err = ledger.Upsert("bun", "unid", qty("-7"))
	assert.ErrorIs(t, err, stock.ErrInvalidArgument)
	assertQty(t, ledger, "bun", "6")

	_, err = ledger.Upsert("flour", "kg", qty("-1"))
	assert.ErrorIs(t, err, stock.ErrInvalidArgument)
	assert.False(t, ledger.Contains("flour"))
}

func TestParseQuantity(t *testing.T) {
	d, err := stock.ParseQuantity("0.25")
	require.NoError(t, err)
	assert.True(t, d.Equal(qty("0.25")))

	d, err = stock.ParseQuantity(" -1.5 ")
	require.NoError(t, err)
	assert.True(t, d.Equal(qty("-1.5")))

	_, err = stock.ParseQuantity("two")
	assert.ErrorIs(t, err, stock.ErrInvalidArgument)
	assert.True(t, stock.IsClientError(err))
	_, err = stock.ParseQuantity("")
	assert.True(t, stock.IsClientError(err))
}

// =============================================================================
// REMOVE / LOOKUP / LIST
// =============================================================================

func TestLedger_Remove(t *testing.T) {
	ledger := newLedger(t, ing("bun", "unid", "10"), ing("tomato", "kg", "5"))

	ledger.Remove(" BUN")
	ledger.Remove("nonexistent")

	assert.False(t, ledger.Contains("bun"))
	assert.Equal(t, 1, ledger.Len())
	assertQty(t, ledger, "bun", "0")
}

func TestLedger_QuantityOf_UnknownIsZero(t *testing.T) {
	ledger := stock.NewIngredientLedger()
	assert.True(t, ledger.QuantityOf("nonexistent").IsZero())
}

func TestLedger_All_InsertionOrderAndRestartable(t *testing.T) {
	ledger := newLedger(t,
		ing("tomato", "kg", "5"),
		ing("bun", "unid", "10"),
		ing("lettuce", "unid", "3"),
	)

	var first, second []stock.Key
	for e := range ledger.All() {
		first = append(first, e.Name)
	}
	for e := range ledger.All() {
		second = append(second, e.Name)
	}

	want := []stock.Key{"tomato", "bun", "lettuce"}
	assert.Equal(t, want, first)
	assert.Equal(t, want, second)
}

func TestLedger_All_BodyMayMutate(t *testing.T) {
	ledger := newLedger(t, ing("tomato", "kg", "5"), ing("bun", "unid", "10"))

	for e := range ledger.All() {
		ledger.Remove(string(e.Name))
		break
	}

	assert.Equal(t, 1, ledger.Len())
}

func TestLedger_Load_ReplacesQuantity(t *testing.T) {
	ledger := newLedger(t, ing("bun", "unid", "10"))

	require.NoError(t, ledger.Load(ing("Bun", "pcs", "4")))

	got, ok := ledger.Get("bun")
	require.True(t, ok)
	assert.Equal(t, "pcs", got.Unit)
	assertQty(t, ledger, "bun", "4")
	assert.Error(t, ledger.Load(ing("x", "kg", "-1")))
}

// =============================================================================
// DECREMENT / TRANSACT
// =============================================================================

func TestLedger_Decrement(t *testing.T) {
	ledger := newLedger(t, ing("bun", "unid", "10"))

	require.NoError(t, ledger.Decrement("bun", qty("3")))
	assertQty(t, ledger, "bun", "7")

	err := ledger.Decrement("nonexistent", qty("1"))
	require.Error(t, err)
	assert.True(t, stock.IsNotFound(err))
	var nf *stock.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, stock.Key("nonexistent"), nf.Ingredient)
}

func TestLedger_Transact_RollsBackOnError(t *testing.T) {
	// GIVEN: bun 10, tomato 5
	// WHEN: a transaction decrements bun then fails
	// THEN: bun is back to 10

	ledger := newLedger(t, ing("bun", "unid", "10"), ing("tomato", "kg", "5"))
	boom := errors.New("boom")

	err := ledger.Transact(func(tx stock.LedgerTx) error {
		require.NoError(t, tx.Decrement("bun", qty("3")))
		assert.True(t, tx.QuantityOf("bun").Equal(qty("7")))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assertQty(t, ledger, "bun", "10")
	assertQty(t, ledger, "tomato", "5")
}

func TestLedger_View_IsReadOnly(t *testing.T) {
	// GIVEN: bun 10
	// WHEN: reading through View
	// THEN: the reader sees the stock but offers no way to change it

	ledger := newLedger(t, ing("bun", "unid", "10"))

	err := ledger.View(func(r stock.LedgerReader) error {
		_, writable := r.(stock.LedgerTx)
		assert.False(t, writable)
		assert.True(t, r.Contains("BUN"))
		assert.True(t, r.QuantityOf("bun").Equal(qty("10")))
		return nil
	})

	require.NoError(t, err)
	assertQty(t, ledger, "bun", "10")
}

func TestLedger_Snapshot(t *testing.T) {
	ledger := newLedger(t, ing("bun", "unid", "10"), ing("tomato", "kg", "5"))

	snap := ledger.Snapshot("tomato", "ghost")
	require.Len(t, snap, 1)
	assert.Equal(t, stock.Key("tomato"), snap[0].Name)

	assert.Len(t, ledger.Snapshot(), 2)
}
