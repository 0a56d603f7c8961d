package service

import (
	"time"

	"order-fulfillment-service/internal/model"
)

const (
	processingDelay = 24 * time.Hour
	shippingDelay   = 48 * time.Hour
)

// ProjectTracking maps an order's status and timestamps to a synthetic
// delivery timeline. It is a pure function: the same order always yields
// the same view.
func ProjectTracking(o *model.Order) *model.TrackingView {
	view := &model.TrackingView{
		OrderID: o.OrderID,
		Status:  o.Status,
	}

	switch o.Status {
	case model.StatusPending, model.StatusProcessing:
		estimated := o.CreatedAt.Add(shippingDelay)
		view.EstimatedShipping = &estimated

	case model.StatusShipped, model.StatusDelivered:
		view.TrackingAvailable = true
		view.Carrier = o.ShippingInfo.Carrier
		view.TrackingNumber = o.ShippingInfo.TrackingNumber
		view.Events = []model.TrackingEvent{
			{Label: "Order Placed", Timestamp: o.CreatedAt},
			{Label: "Processing", Timestamp: o.CreatedAt.Add(processingDelay)},
			{Label: "Shipped", Timestamp: o.CreatedAt.Add(shippingDelay)},
		}
		if o.Status == model.StatusDelivered && o.CompletedAt != nil {
			view.Events = append(view.Events, model.TrackingEvent{
				Label:     "Delivered",
				Timestamp: *o.CompletedAt,
			})
		}

	case model.StatusCancelled, model.StatusRefunded:
		// No timeline for dead orders.
	}

	return view
}
