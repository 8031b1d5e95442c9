package payloads

import "github.com/google/uuid"

// VendorSplit is one vendor's share of an order, in integer cents.
type VendorSplit struct {
	VendorID        uuid.UUID `json:"vendorId"`
	VendorName      string    `json:"vendorName"`
	SubtotalCents   int64     `json:"subtotalCents"`
	CommissionCents int64     `json:"commissionCents"`
	PayoutCents     int64     `json:"payoutCents"`
	ItemCount       int       `json:"itemCount"`
}

type OrderCreatedEvent struct {
	OrderID    uuid.UUID     `json:"orderId"`
	BuyerID    string        `json:"buyerId"`
	Currency   string        `json:"currency"`
	TotalCents int64         `json:"totalCents"`
	Vendors    []VendorSplit `json:"vendors"`
}

type OrderStatusChangedEvent struct {
	OrderID   uuid.UUID   `json:"orderId"`
	From      string      `json:"from"`
	To        string      `json:"to"`
	ChangedBy string      `json:"changedBy"`
	VendorIDs []uuid.UUID `json:"vendorIds"`
}

type VendorActivatedEvent struct {
	VendorID    uuid.UUID `json:"vendorId"`
	OwnerUserID string    `json:"ownerUserId"`
	DisplayName string    `json:"displayName"`
}

type ProductReviewedEvent struct {
	ProductID     uuid.UUID `json:"productId"`
	VendorID      uuid.UUID `json:"vendorId"`
	Rating        int       `json:"rating"`
	ReviewCount   int       `json:"reviewCount"`
	RatingAverage float64   `json:"ratingAverage"`
}
