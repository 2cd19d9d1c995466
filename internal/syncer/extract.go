package syncer

import "github.com/DynastyTech/fusion-aura-sub001/internal/domain"

// countStrategy extracts an item count from a cart payload, reporting
// whether it applied.
type countStrategy func(domain.CartPayload) (int, bool)

// countStrategies is the ordered fallback chain for deriving a count from a
// remote payload: the server's explicit count, then the sum of per-item
// quantities, then the raw number of line items. The order is a wire
// compatibility contract; servers that predate itemCount and malformed
// items both resolve through the later tiers.
var countStrategies = []countStrategy{
	explicitCount,
	quantitySum,
	lineItemCount,
}

func deriveCount(payload domain.CartPayload) int {
	for _, strategy := range countStrategies {
		if n, ok := strategy(payload); ok {
			return n
		}
	}
	return 0
}

func explicitCount(payload domain.CartPayload) (int, bool) {
	if payload.ItemCount == nil {
		return 0, false
	}
	return *payload.ItemCount, true
}

func quantitySum(payload domain.CartPayload) (int, bool) {
	sum := 0
	for _, item := range payload.Items {
		sum += item.Quantity
	}
	// A zero sum over present items means the quantities are missing or
	// junk; let the line-item tier answer instead.
	return sum, sum > 0
}

func lineItemCount(payload domain.CartPayload) (int, bool) {
	return len(payload.Items), true
}
