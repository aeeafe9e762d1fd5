package discount

import "time"

// ResolveStatus maps a discount's time window and stored status to the
// status it should carry at the given instant.
//
// Cancellation is a terminal override: once cancelled, a discount is never
// moved back to a time-derived status. Every write path uses this single
// function, so the save path and the maintenance sweep cannot disagree.
func ResolveStatus(startDate, endDate time.Time, current Status, now time.Time) Status {
	if current == StatusCancelled {
		return StatusCancelled
	}
	switch {
	case now.After(endDate):
		return StatusExpired
	case !now.Before(startDate): // startDate <= now <= endDate
		return StatusActive
	default:
		return StatusUpcoming
	}
}

// IsActiveAt reports whether the discount can be applied at the given
// instant. The stored status is authoritative: a discount whose window
// spans now but whose status was never recomputed is not active.
func (d *Discount) IsActiveAt(now time.Time) bool {
	return d.Status == StatusActive &&
		!now.Before(d.StartDate) && !now.After(d.EndDate)
}
