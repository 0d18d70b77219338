package stock

// OrderLine is one menu item and how many of it were requested.
type OrderLine struct {
	Menu  string
	Count int
}

// Order is a caller-owned list of menu items. Lines keep the order in which
// menus were first added; a line whose count drops to zero or below is
// removed. An Order is not safe for concurrent use.
type Order struct {
	lines []OrderLine
}

// NewOrder builds an order from lines, summing duplicates and dropping
// non-positive counts.
func NewOrder(lines ...OrderLine) Order {
	var o Order
	for _, l := range lines {
		o.Add(l.Menu, l.Count)
	}
	return o
}

// Add increases the count of menu. Non-positive counts are ignored.
func (o *Order) Add(menu string, count int) {
	if count <= 0 || menu == "" {
		return
	}
	for i := range o.lines {
		if o.lines[i].Menu == menu {
			o.lines[i].Count += count
			return
		}
	}
	o.lines = append(o.lines, OrderLine{Menu: menu, Count: count})
}

// Remove decreases the count of menu and drops the line at zero.
func (o *Order) Remove(menu string, count int) {
	for i := range o.lines {
		if o.lines[i].Menu != menu {
			continue
		}
		o.lines[i].Count -= count
		if o.lines[i].Count <= 0 {
			o.lines = append(o.lines[:i], o.lines[i+1:]...)
		}
		return
	}
}

// Clear empties the order.
func (o *Order) Clear() { o.lines = nil }

// Count returns how many of menu are in the order.
func (o Order) Count(menu string) int {
	for _, l := range o.lines {
		if l.Menu == menu {
			return l.Count
		}
	}
	return 0
}

// Lines returns a copy of the order lines.
func (o Order) Lines() []OrderLine {
	out := make([]OrderLine, len(o.lines))
	copy(out, o.lines)
	return out
}

// Len returns the number of distinct menus.
func (o Order) Len() int { return len(o.lines) }

// IsEmpty reports whether the order has no lines.
func (o Order) IsEmpty() bool { return len(o.lines) == 0 }

// Clone returns an independent copy.
func (o Order) Clone() Order {
	return Order{lines: o.Lines()}
}
