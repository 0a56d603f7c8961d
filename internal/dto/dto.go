// dto.go
package dto

// CreateOrderRequest is the body of POST /orders. UserID always comes from
// the authenticated caller, never from the body.
type CreateOrderRequest struct {
	Items          []OrderItemRequest `json:"items"`
	ShippingInfo   ShippingInfoDTO    `json:"shippingInfo"`
	PaymentDetails PaymentDetailsDTO  `json:"paymentDetails"`
	ShippingCost   *float64           `json:"shippingCost,omitempty"`
	IdempotencyKey string             `json:"idempotencyKey,omitempty"`
}

type OrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type ShippingInfoDTO struct {
	AddressLine1   string `json:"addressLine1"`
	City           string `json:"city"`
	PostalCode     string `json:"postalCode"`
	Province       string `json:"province"`
	Country        string `json:"country"`
	Method         string `json:"method"`
	Carrier        string `json:"carrier,omitempty"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
}

type PaymentDetailsDTO struct {
	Method        string `json:"method"`
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

func OK(data any) Response {
	return Response{Success: true, Data: data}
}

func Fail(msg string) Response {
	return Response{Success: false, Error: msg}
}

func FailWithDetails(msg string, details any) Response {
	return Response{Success: false, Error: msg, Details: details}
}
