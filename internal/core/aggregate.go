package core

import "sort"

type GroupBy int

const (
	GroupByDate GroupBy = iota
	GroupByDateProduct
)

// GroupTotals is one aggregation bucket: a calendar day, optionally split
// by product, with summed figures over the member sales.
type GroupTotals struct {
	Day         Date
	ProductName string // empty when grouping by date only
	Sales       int
	Quantity    int64
	SaleTotals
}

// Aggregate folds sale rows into per-group totals. Groups are ordered by
// day ascending, then product name ascending. Empty input yields an empty
// slice, never an error.
func Aggregate(rows []SaleRow, groupBy GroupBy) []GroupTotals {
	type key struct {
		day     string
		product string
	}
	buckets := make(map[key]*GroupTotals)
	for _, r := range rows {
		k := key{day: r.Day.String()}
		if groupBy == GroupByDateProduct {
			k.product = r.ProductName
		}
		g, ok := buckets[k]
		if !ok {
			g = &GroupTotals{Day: r.Day, ProductName: k.product}
			buckets[k] = g
		}
		g.Sales++
		g.Quantity += r.Quantity
		g.SaleTotals = g.SaleTotals.Add(r.Totals())
	}

	out := make([]GroupTotals, 0, len(buckets))
	for _, g := range buckets {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Day.Equal(out[j].Day.Time) {
			return out[i].Day.Before(out[j].Day.Time)
		}
		return out[i].ProductName < out[j].ProductName
	})
	return out
}

// ProductSales is one product's share of a period.
type ProductSales struct {
	ProductName string
	Sales       int
	Quantity    int64
	SaleTotals
}

// ProductRanking folds sale rows into per-product totals, ordered by
// quantity descending, gross revenue descending, then name ascending.
// The first entry is the period's top product.
func ProductRanking(rows []SaleRow) []ProductSales {
	buckets := make(map[string]*ProductSales)
	for _, r := range rows {
		p, ok := buckets[r.ProductName]
		if !ok {
			p = &ProductSales{ProductName: r.ProductName}
			buckets[r.ProductName] = p
		}
		p.Sales++
		p.Quantity += r.Quantity
		p.SaleTotals = p.SaleTotals.Add(r.Totals())
	}

	out := make([]ProductSales, 0, len(buckets))
	for _, p := range buckets {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		if !out[i].GrossRevenue.Equal(out[j].GrossRevenue) {
			return out[i].GrossRevenue.GreaterThan(out[j].GrossRevenue)
		}
		return out[i].ProductName < out[j].ProductName
	})
	return out
}
