package reservation

import (
	"math"

	"bodima/models"
)

// QuoteTotal computes the total charge for a draft: nights at the snapshot
// nightly rate plus the one-off cleaning and service fees. Rates come from
// the feature snapshot taken at flow start, so the quote cannot drift while
// the user edits dates.
func QuoteTotal(draft *models.PendingReservation) float64 {
	nights := draft.Nights()
	if nights < 0 {
		nights = 0
	}
	total := float64(nights)*draft.Features.NightlyPrice + draft.Features.CleaningFee + draft.Features.ServiceFee
	return math.Round(total*100) / 100
}
