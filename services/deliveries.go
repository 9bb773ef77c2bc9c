package services

import (
	"sort"
	"time"

	"github.com/fildor/atelier-api/models"
)

// DeliveryTimeline groups unfinished orders by due date relative to today.
// The week runs Monday to Sunday.
type DeliveryTimeline struct {
	Today    models.Date     `json:"today"`
	Overdue  []*models.Order `json:"overdue"`
	DueToday []*models.Order `json:"due_today"`
	Tomorrow []*models.Order `json:"tomorrow"`
	ThisWeek []*models.Order `json:"this_week"`
	Later    []*models.Order `json:"later"`
}

// Count returns the number of orders on the timeline
func (t *DeliveryTimeline) Count() int {
	return len(t.Overdue) + len(t.DueToday) + len(t.Tomorrow) + len(t.ThisWeek) + len(t.Later)
}

// BucketDeliveries sorts orders into the timeline. Completed orders are skipped.
// Within a bucket orders are sorted by delivery date, then by creation time.
func BucketDeliveries(orders []*models.Order, today models.Date) *DeliveryTimeline {
	timeline := &DeliveryTimeline{
		Today:    today,
		Overdue:  []*models.Order{},
		DueToday: []*models.Order{},
		Tomorrow: []*models.Order{},
		ThisWeek: []*models.Order{},
		Later:    []*models.Order{},
	}
	weekEnd := endOfWeek(today)

	for _, o := range orders {
		if o.Status == models.StatusCompleted {
			continue
		}
		due := o.DeliveryDate
		switch days := due.DaysUntil(today); {
		case days < 0:
			timeline.Overdue = append(timeline.Overdue, o)
		case days == 0:
			timeline.DueToday = append(timeline.DueToday, o)
		case days == 1:
			timeline.Tomorrow = append(timeline.Tomorrow, o)
		case !weekEnd.Before(due):
			timeline.ThisWeek = append(timeline.ThisWeek, o)
		default:
			timeline.Later = append(timeline.Later, o)
		}
	}

	for _, bucket := range [][]*models.Order{
		timeline.Overdue, timeline.DueToday, timeline.Tomorrow, timeline.ThisWeek, timeline.Later,
	} {
		sortByDelivery(bucket)
	}
	return timeline
}

// endOfWeek returns the Sunday closing the Monday-start week containing d
func endOfWeek(d models.Date) models.Date {
	offset := (int(time.Sunday) - int(d.Weekday()) + 7) % 7
	return d.AddDays(offset)
}

func sortByDelivery(orders []*models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].DeliveryDate.Equal(orders[j].DeliveryDate.Time) {
			return orders[i].DeliveryDate.Before(orders[j].DeliveryDate)
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
}
