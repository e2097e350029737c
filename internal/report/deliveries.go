package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Simplici0/jewelbook/internal/billing"
	"github.com/Simplici0/jewelbook/internal/store"
)

// PendingDelivery is an open custom order that is late or due soon.
type PendingDelivery struct {
	BillID       string           `json:"bill_id"`
	CustomerName string           `json:"customer_name"`
	DeliveryDate time.Time        `json:"delivery_date"`
	DaysLeft     int              `json:"days_left"`
	Status       billing.Delivery `json:"status"`
}

// PendingDeliveries lists initial custom orders whose delivery date is overdue
// or within the warning window, most urgent first.
func (s *Service) PendingDeliveries(ctx context.Context, now time.Time) ([]PendingDelivery, error) {
	bills, err := s.src.ListBills(ctx, store.BillFilter{BillType: billing.BillCustomInitial})
	if err != nil {
		return nil, fmt.Errorf("load open custom orders: %w", err)
	}

	pending := make([]PendingDelivery, 0)
	for _, b := range bills {
		if b.DeliveryDate == nil {
			continue
		}
		status := billing.DeliveryStatus(*b.DeliveryDate, now)
		if status == billing.DeliveryOnTrack {
			continue
		}
		pending = append(pending, PendingDelivery{
			BillID:       b.ID,
			CustomerName: b.CustomerName,
			DeliveryDate: *b.DeliveryDate,
			DaysLeft:     billing.DaysUntil(*b.DeliveryDate, now),
			Status:       status,
		})
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].DeliveryDate.Before(pending[j].DeliveryDate)
	})
	return pending, nil
}
