package services

import (
	"time"

	"github.com/fildor/atelier-api/models"
)

// DefaultLateWindowDays is how many days before delivery an unfinished order is flagged
const DefaultLateWindowDays = 3

// Today returns the calendar day of now in loc
func Today(now time.Time, loc *time.Location) models.Date {
	if loc == nil {
		loc = time.UTC
	}
	return models.DateOf(now.In(loc))
}

// IsLate reports whether the order is due within window days (today included)
// and the garment has not reached fitting yet. Past-due orders are overdue, not late.
func IsLate(order *models.Order, today models.Date, window int) bool {
	days := order.DeliveryDate.DaysUntil(today)
	return days >= 0 && days <= window && order.Status.InProgress()
}

// IsOverdue reports whether the delivery date has passed on an unfinished order
func IsOverdue(order *models.Order, today models.Date) bool {
	return order.DeliveryDate.DaysUntil(today) < 0 && order.Status != models.StatusCompleted
}
