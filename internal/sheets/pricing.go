package sheets

import (
	"strings"

	"github.com/Spok95/cowork-booking/internal/domain/catalog"
	"github.com/Spok95/cowork-booking/internal/domain/locpricing"
	"github.com/Spok95/cowork-booking/internal/domain/pricing"
)

var pricingHeader = []any{"location_id", "location_name", "plan_type", "daily", "weekly", "monthly", "annual"}

// ExportPricing writes one row per location and plan tier. Cells are the
// override amounts in rupees; blank means no override for that field.
func ExportPricing(locations []catalog.Location, overrides []locpricing.Override) ([]byte, error) {
	snap := locpricing.NewSnapshot(overrides)
	var rows [][]any
	for _, l := range locations {
		o, _ := snap.Override(l.ID)
		name := l.Name
		if o.Name != "" {
			name = o.Name
		}
		for _, t := range pricing.PlanTypes {
			p := o.Prices[t]
			rows = append(rows, []any{l.ID, name, string(t), rupees(p.Daily), rupees(p.Weekly), rupees(p.Monthly), rupees(p.Annual)})
		}
	}
	return writeTable("pricing", pricingHeader, rows)
}

// ParsePricing reads a file produced by ExportPricing. Empty amount cells
// come back as zero, which leaves the stored value untouched on import.
func ParsePricing(data []byte) ([]locpricing.ImportRow, error) {
	rows, err := readRows(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || len(rows[0]) < len(pricingHeader) || !strings.EqualFold(cell(rows[0], 0), "location_id") {
		return nil, ErrBadSheet
	}

	var out []locpricing.ImportRow
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		locationID := cell(row, 0)
		if locationID == "" {
			continue
		}
		t := pricing.PlanType(cell(row, 2))
		if !t.Valid() {
			return nil, &RowError{Row: i + 1, Column: "plan_type", Value: cell(row, 2)}
		}

		var table pricing.PriceTable
		fields := []*int64{&table.Daily, &table.Weekly, &table.Monthly, &table.Annual}
		for j, dst := range fields {
			v, ok := parsePaisa(cell(row, 3+j))
			if !ok {
				return nil, &RowError{Row: i + 1, Column: pricingHeader[3+j].(string), Value: cell(row, 3+j)}
			}
			*dst = v
		}
		out = append(out, locpricing.ImportRow{LocationID: locationID, Name: cell(row, 1), PlanType: t, Prices: table})
	}
	return out, nil
}
