package pricing

// Calculator turns a plan's price table plus extras into a Breakdown.
// It holds only configuration; Calculate has no side effects.
type Calculator struct {
	rates Rates
}

func NewCalculator(r Rates) Calculator {
	return Calculator{rates: r}
}

func (c Calculator) Rates() Rates { return c.rates }

// BasePrice picks the price point used for the plan: daily for day passes,
// otherwise monthly, weekly, annual in that order.
func BasePrice(p PriceTable, t PlanType) int64 {
	if t == PlanDayPass {
		return p.Daily
	}
	switch {
	case p.Monthly != 0:
		return p.Monthly
	case p.Weekly != 0:
		return p.Weekly
	default:
		return p.Annual
	}
}

func (c Calculator) Calculate(in Input) Breakdown {
	var b Breakdown
	b.BasePrice = BasePrice(in.Pricing, in.PlanType)

	seen := make(map[string]struct{}, len(in.AddOns))
	for _, a := range in.AddOns {
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}
		b.AddOnsPrice += a.Price
	}

	b.MeetingRoomHoursPrice = int64(clampCount(in.MeetingRoomHours)) * c.rates.MeetingRoomHour
	b.GuestPassesPrice = int64(clampCount(in.GuestPasses)) * c.rates.GuestPass

	b.Subtotal = b.BasePrice + b.AddOnsPrice + b.MeetingRoomHoursPrice + b.GuestPassesPrice
	if in.Channel != ChannelManual {
		b.DiscountAmount = percentOf(b.Subtotal, c.rates.OnlineDiscountPercent)
	}
	b.Total = b.Subtotal - b.DiscountAmount
	return b
}

// percentOf rounds half up, matching round(amount*pct/100) for non-negative amounts.
func percentOf(amount, pct int64) int64 {
	if amount <= 0 || pct <= 0 {
		return 0
	}
	return (amount*pct + 50) / 100
}

// clampCount keeps a counter within [0, MaxExtraCount].
func clampCount(n int) int {
	switch {
	case n < 0:
		return 0
	case n > MaxExtraCount:
		return MaxExtraCount
	}
	return n
}
