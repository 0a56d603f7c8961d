package validator

import (
	"fmt"

	"order-fulfillment-service/internal/dto"
)

// FieldError describes a single structural violation in a request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var paymentMethods = map[string]bool{
	"credit_card": true,
	"debit_card":  true,
	"paypal":      true,
	"apple_pay":   true,
}

var paymentStatuses = map[string]bool{
	"pending":   true,
	"completed": true,
	"failed":    true,
	"refunded":  true,
}

var shippingMethods = map[string]bool{
	"standard":  true,
	"express":   true,
	"overnight": true,
}

// ValidateCreateOrder checks the structural shape of an order request.
// It collects every violation in one pass so the caller can report them all
// at once. Business rules (stock, product existence) are not checked here.
func ValidateCreateOrder(req *dto.CreateOrderRequest) (bool, []FieldError) {
	var errs []FieldError

	if len(req.Items) == 0 {
		errs = append(errs, FieldError{Field: "items", Message: "items must be a non-empty list"})
	}
	for i, item := range req.Items {
		if item.ProductID == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("items[%d].productId", i),
				Message: "productId is required",
			})
		}
		if item.Quantity < 1 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("items[%d].quantity", i),
				Message: "quantity must be an integer >= 1",
			})
		}
	}

	errs = append(errs, validateShipping(&req.ShippingInfo)...)
	errs = append(errs, validatePayment(&req.PaymentDetails)...)

	if req.ShippingCost != nil && *req.ShippingCost < 0 {
		errs = append(errs, FieldError{Field: "shippingCost", Message: "shippingCost must not be negative"})
	}

	return len(errs) == 0, errs
}

func validateShipping(s *dto.ShippingInfoDTO) []FieldError {
	var errs []FieldError

	required := []struct {
		field string
		value string
	}{
		{"shippingInfo.addressLine1", s.AddressLine1},
		{"shippingInfo.city", s.City},
		{"shippingInfo.postalCode", s.PostalCode},
		{"shippingInfo.country", s.Country},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, FieldError{Field: r.field, Message: "field is required"})
		}
	}

	if s.Method == "" {
		errs = append(errs, FieldError{Field: "shippingInfo.method", Message: "shipping method is required"})
	} else if !shippingMethods[s.Method] {
		errs = append(errs, FieldError{
			Field:   "shippingInfo.method",
			Message: "shipping method must be one of: standard, express, overnight",
		})
	}

	return errs
}

func validatePayment(p *dto.PaymentDetailsDTO) []FieldError {
	var errs []FieldError

	if p.Method == "" {
		errs = append(errs, FieldError{Field: "paymentDetails.method", Message: "payment method is required"})
	} else if !paymentMethods[p.Method] {
		errs = append(errs, FieldError{
			Field:   "paymentDetails.method",
			Message: "payment method must be one of: credit_card, debit_card, paypal, apple_pay",
		})
	}

	if p.TransactionID == "" {
		errs = append(errs, FieldError{Field: "paymentDetails.transactionId", Message: "transactionId is required"})
	}

	if p.Status == "" {
		errs = append(errs, FieldError{Field: "paymentDetails.status", Message: "payment status is required"})
	} else if !paymentStatuses[p.Status] {
		errs = append(errs, FieldError{
			Field:   "paymentDetails.status",
			Message: "payment status must be one of: pending, completed, failed, refunded",
		})
	}

	return errs
}
