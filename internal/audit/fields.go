package audit

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"inventory-service/internal/model"

	"github.com/shopspring/decimal"
)

// Change is one tracked field whose value differs between snapshots.
type Change struct {
	Field string
	Old   string
	New   string
}

func (c Change) String() string {
	return fmt.Sprintf("%s: %s → %s", c.Field, c.Old, c.New)
}

// Field describes how one tracked column is read, compared and printed.
type Field[T any] struct {
	Name    string
	Extract func(*T) any
	Equal   func(a, b any) bool
	Format  func(v any) string
}

// Table is the fixed set of tracked fields for one record type.
type Table[T any] struct {
	fields []Field[T]
}

// NewTable builds a table from fields; order is preserved in diffs.
func NewTable[T any](fields ...Field[T]) Table[T] {
	return Table[T]{fields: fields}
}

// Names lists the tracked field names in order.
func (t Table[T]) Names() []string {
	names := make([]string, len(t.fields))
	for i, f := range t.fields {
		names[i] = f.Name
	}
	return names
}

// Only narrows the table to the named fields. Unknown names are an error so a
// misspelled configuration value does not silently stop tracking a field.
func (t Table[T]) Only(names ...string) (Table[T], error) {
	if len(names) == 0 {
		return t, nil
	}
	byName := make(map[string]Field[T], len(t.fields))
	for _, f := range t.fields {
		byName[f.Name] = f
	}
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if _, ok := byName[n]; !ok {
			return Table[T]{}, fmt.Errorf("unknown tracked field %q (known: %s)", n, strings.Join(t.Names(), ", "))
		}
		keep[n] = true
	}
	var out []Field[T]
	for _, f := range t.fields {
		if keep[f.Name] {
			out = append(out, f)
		}
	}
	return Table[T]{fields: out}, nil
}

// Diff walks the table once and returns the fields whose values differ.
func (t Table[T]) Diff(before, after *T) []Change {
	var changes []Change
	for _, f := range t.fields {
		oldV, newV := f.Extract(before), f.Extract(after)
		if f.Equal(oldV, newV) {
			continue
		}
		changes = append(changes, Change{Field: f.Name, Old: f.Format(oldV), New: f.Format(newV)})
	}
	return changes
}

// diff adapts Diff to the untyped registry kept by Logger.
func (t Table[T]) diff(before, after Subject) ([]Change, error) {
	b, ok := any(before).(*T)
	if !ok {
		return nil, fmt.Errorf("audit table for %T cannot diff %T", new(T), before)
	}
	a, ok := any(after).(*T)
	if !ok {
		return nil, fmt.Errorf("audit table for %T cannot diff %T", new(T), after)
	}
	return t.Diff(b, a), nil
}

type differ interface {
	diff(before, after Subject) ([]Change, error)
}

const none = "none"

// TextField tracks a string column.
func TextField[T any](name string, get func(*T) string) Field[T] {
	return Field[T]{
		Name:    name,
		Extract: func(v *T) any { return get(v) },
		Equal:   func(a, b any) bool { return a.(string) == b.(string) },
		Format: func(v any) string {
			if s := v.(string); s != "" {
				return s
			}
			return none
		},
	}
}

// IntField tracks an integer column.
func IntField[T any](name string, get func(*T) int) Field[T] {
	return Field[T]{
		Name:    name,
		Extract: func(v *T) any { return get(v) },
		Equal:   func(a, b any) bool { return a.(int) == b.(int) },
		Format:  func(v any) string { return strconv.Itoa(v.(int)) },
	}
}

// MoneyField tracks a decimal amount compared numerically and printed in pesos.
func MoneyField[T any](name string, get func(*T) decimal.Decimal) Field[T] {
	return Field[T]{
		Name:    name,
		Extract: func(v *T) any { return get(v) },
		Equal:   func(a, b any) bool { return a.(decimal.Decimal).Equal(b.(decimal.Decimal)) },
		Format:  func(v any) string { return "₱" + v.(decimal.Decimal).String() },
	}
}

// DateField tracks an optional date compared as a calendar day.
func DateField[T any](name string, get func(*T) *time.Time) Field[T] {
	return Field[T]{
		Name:    name,
		Extract: func(v *T) any { return get(v) },
		Equal: func(a, b any) bool {
			ta, tb := a.(*time.Time), b.(*time.Time)
			if ta == nil || tb == nil {
				return ta == nil && tb == nil
			}
			return sameDay(*ta, *tb)
		},
		Format: func(v any) string {
			if t := v.(*time.Time); t != nil {
				return t.UTC().Format(time.DateOnly)
			}
			return none
		},
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// ProductTable tracks the editable product columns.
var ProductTable = NewTable(
	TextField("name", func(p *model.Product) string { return p.Name }),
	TextField("description", func(p *model.Product) string { return p.Description }),
	MoneyField("retail price", func(p *model.Product) decimal.Decimal { return p.RetailPrice }),
	MoneyField("buying price", func(p *model.Product) decimal.Decimal { return p.BuyingPrice }),
	IntField("stock", func(p *model.Product) int { return p.Stock }),
	TextField("category", func(p *model.Product) string { return p.Category }),
	DateField("expiry date", func(p *model.Product) *time.Time { return p.ExpiryDate }),
)

// PackageTable tracks the editable package columns.
var PackageTable = NewTable(
	TextField("package name", func(p *model.Package) string { return p.PackageName }),
	TextField("buyer name", func(p *model.Package) string { return p.BuyerName }),
	DateField("drop-off date", func(p *model.Package) *time.Time { return &p.DropOffDate }),
	TextField("size", func(p *model.Package) string { return string(p.Size) }),
	MoneyField("price", func(p *model.Package) decimal.Decimal { return p.Price }),
	MoneyField("handling fee", func(p *model.Package) decimal.Decimal { return p.HandlingFee }),
	TextField("payment status", func(p *model.Package) string { return string(p.PaymentStatus) }),
	TextField("payment method", func(p *model.Package) string { return string(p.PaymentMethod) }),
	TextField("claim status", func(p *model.Package) string { return string(p.ClaimStatus) }),
)
