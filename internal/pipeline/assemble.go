package pipeline

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/sells-group/estate-cli/internal/model"
)

// NoCityMessage is the context used when the query names no supported city.
const NoCityMessage = "No city data found in query. Please specify a city (Mumbai, Bangalore, or Delhi)."

// NoDataMessage is the context used when a city has no readable table.
func NoDataMessage(city string) string {
	return fmt.Sprintf("No data available for %s.", city)
}

// AssembleOptions bounds the rendered context.
type AssembleOptions struct {
	MaxRecords     int
	Seed           uint64
	MaxBytes       int
	MaxTrendMonths int
}

// DefaultAssembleOptions returns the stock limits.
func DefaultAssembleOptions() AssembleOptions {
	return AssembleOptions{
		MaxRecords:     50,
		Seed:           42,
		MaxBytes:       16384,
		MaxTrendMonths: 24,
	}
}

func (o AssembleOptions) withDefaults() AssembleOptions {
	d := DefaultAssembleOptions()
	if o.MaxRecords <= 0 {
		o.MaxRecords = d.MaxRecords
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = d.MaxBytes
	}
	if o.MaxTrendMonths <= 0 {
		o.MaxTrendMonths = d.MaxTrendMonths
	}
	return o
}

// tableColumns are rendered in this order; source is left out.
var tableColumns = model.Columns[:8]

// Assemble renders the working set as the plain-text context handed to the
// model. Statistics and trends describe the whole working set; only the table
// is sampled and trimmed.
func Assemble(city string, working []model.PropertyRecord, f model.Filters, opts AssembleOptions) string {
	if len(working) == 0 {
		return NoDataMessage(city)
	}
	opts = opts.withDefaults()

	var head strings.Builder
	head.WriteString("Real estate data for " + city)
	if f.Locality != "" {
		head.WriteString(", locality: " + f.Locality)
	}
	if f.PropertyType != "" {
		head.WriteString(", property type: " + f.PropertyType)
	}
	if f.Bedrooms > 0 {
		fmt.Fprintf(&head, ", %d BHK", f.Bedrooms)
	}
	head.WriteString(":\n\n")

	tail := "\n\n" + summary(working) + trend(working, opts.MaxTrendMonths)

	lines := tableLines(Sample(working, opts.MaxRecords, opts.Seed))
	budget := opts.MaxBytes - head.Len() - len(tail)

	var table strings.Builder
	table.WriteString(lines[0])
	rows := lines[1:]
	kept := 0
	for i, row := range rows {
		need := table.Len() + 1 + len(row)
		if i < len(rows)-1 {
			// Room for the omission marker.
			need += omittedReserve
		}
		if need > budget {
			break
		}
		table.WriteString("\n" + row)
		kept++
	}
	if dropped := len(rows) - kept; dropped > 0 {
		fmt.Fprintf(&table, "\n... (%d more rows omitted)", dropped)
	}

	return head.String() + table.String() + tail
}

const omittedReserve = 32

// Sample returns at most k rows of recs chosen uniformly without replacement.
// The same input and seed always yield the same rows, kept in table order.
func Sample(recs []model.PropertyRecord, k int, seed uint64) []model.PropertyRecord {
	if k <= 0 || len(recs) <= k {
		return recs
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	idx := rng.Perm(len(recs))[:k]
	sort.Ints(idx)

	out := make([]model.PropertyRecord, k)
	for i, j := range idx {
		out[i] = recs[j]
	}
	return out
}

// tableLines renders recs as a right-aligned fixed-width table. The first
// line is the column header.
func tableLines(recs []model.PropertyRecord) []string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintln(tw, strings.Join(tableColumns, "\t")+"\t")
	for _, r := range recs {
		fmt.Fprintln(tw, strings.Join([]string{
			r.City,
			r.Locality,
			r.PropertyType,
			strconv.Itoa(r.Bedrooms),
			num(r.AreaSqft),
			num(r.PricePerSqft),
			num(r.PriceTotal),
			r.TransactionDate.Format(model.DateLayout),
		}, "\t")+"\t")
	}
	_ = tw.Flush()

	return strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func summary(recs []model.PropertyRecord) string {
	var ppsf, total, area float64
	lo, hi := recs[0].PriceTotal, recs[0].PriceTotal
	for _, r := range recs {
		ppsf += r.PricePerSqft
		total += r.PriceTotal
		area += r.AreaSqft
		lo = min(lo, r.PriceTotal)
		hi = max(hi, r.PriceTotal)
	}
	n := float64(len(recs))

	var b strings.Builder
	b.WriteString("Summary Statistics:\n")
	fmt.Fprintf(&b, "Average price per sq.ft: ₹%.2f\n", ppsf/n)
	fmt.Fprintf(&b, "Average total price: ₹%.2f lakhs\n", total/n)
	fmt.Fprintf(&b, "Price range: ₹%.2f - ₹%.2f lakhs\n", lo, hi)
	fmt.Fprintf(&b, "Average area: %.2f sq.ft\n", area/n)
	return b.String()
}

// trend renders monthly average price per sq.ft, oldest first, keeping the
// most recent maxMonths. It is empty unless at least two months are present.
func trend(recs []model.PropertyRecord, maxMonths int) string {
	type acc struct {
		sum float64
		n   int
	}
	byMonth := make(map[string]*acc)
	for _, r := range recs {
		if r.TransactionDate.IsZero() {
			continue
		}
		m := r.Month()
		a, ok := byMonth[m]
		if !ok {
			a = &acc{}
			byMonth[m] = a
		}
		a.sum += r.PricePerSqft
		a.n++
	}
	if len(byMonth) < 2 {
		return ""
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)
	if len(months) > maxMonths {
		months = months[len(months)-maxMonths:]
	}

	var b strings.Builder
	b.WriteString("\nMonthly Price Trends (per sq.ft):\n")
	for _, m := range months {
		a := byMonth[m]
		fmt.Fprintf(&b, "%s: ₹%.2f\n", m, a.sum/float64(a.n))
	}
	return b.String()
}
