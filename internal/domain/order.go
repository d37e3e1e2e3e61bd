package domain

import "time"

// LineItem is one product line on a customer order.
type LineItem struct {
	ProductID      string `json:"product_id"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// Order is a customer purchase recorded against a campaign. ProfileID is
// denormalized from the campaign so profile-scoped order listings don't need
// a join.
type Order struct {
	ID            string     `json:"id"`
	CampaignID    string     `json:"campaign_id"`
	ProfileID     string     `json:"profile_id"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email,omitempty"`
	CustomerPhone string     `json:"customer_phone,omitempty"`
	LineItems     []LineItem `json:"line_items"`
	TotalCents    int64      `json:"total_cents"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ComputeTotal sums quantity times unit price across all line items.
func (o *Order) ComputeTotal() int64 {
	var total int64
	for _, li := range o.LineItems {
		total += int64(li.Quantity) * li.UnitPriceCents
	}
	return total
}
