package domain

import (
	"strings"
	"time"
)

// Collection names, one per record kind.
const (
	CollectionClient     = "client"
	CollectionCommission = "commission"
	CollectionNote       = "note"
)

// Statuses is the commission pipeline vocabulary used by clients of the API.
// It is informal: the data layer accepts any string.
var Statuses = []string{"New", "Sketch", "In Progress", "Review", "Delivered", "On Hold"}

// ValidationError reports a request body that fails a schema constraint.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

// Client is a person or studio that commissions work.
type Client struct {
	DisplayName string  `json:"display_name"`
	Email       *string `json:"email,omitempty"`
	Socials     *string `json:"socials,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

func (c Client) Validate() error {
	if strings.TrimSpace(c.DisplayName) == "" {
		return &ValidationError{Field: "display_name", Reason: "is required"}
	}
	return nil
}

// Document returns the storable form of the client. Optional fields that were
// not provided are omitted rather than stored as nulls.
func (c Client) Document() map[string]any {
	doc := map[string]any{"display_name": c.DisplayName}
	putString(doc, "email", c.Email)
	putString(doc, "socials", c.Socials)
	putString(doc, "notes", c.Notes)
	return doc
}

// Commission is one piece of commissioned work.
type Commission struct {
	Title    string     `json:"title"`
	ClientID *string    `json:"client_id,omitempty"`
	Status   string     `json:"status"`
	DueDate  *time.Time `json:"due_date,omitempty"`
	Price    *float64   `json:"price,omitempty"`
	Currency string     `json:"currency"`
	Tags     []string   `json:"tags"`
	Brief    *string    `json:"brief,omitempty"`
}

func (c Commission) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if c.Price != nil && *c.Price < 0 {
		return &ValidationError{Field: "price", Reason: "must be >= 0"}
	}
	return nil
}

func (c Commission) Document() map[string]any {
	status := c.Status
	if status == "" {
		status = "New"
	}
	currency := c.Currency
	if currency == "" {
		currency = "EUR"
	}
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}

	doc := map[string]any{
		"title":    c.Title,
		"status":   status,
		"currency": currency,
		"tags":     tags,
	}
	putString(doc, "client_id", c.ClientID)
	putString(doc, "brief", c.Brief)
	if c.DueDate != nil {
		doc["due_date"] = *c.DueDate
	}
	if c.Price != nil {
		doc["price"] = *c.Price
	}
	return doc
}

// Note is a free-form remark attached to a commission. The commission_id
// reference is not checked against the commission collection; dangling
// references are allowed.
type Note struct {
	CommissionID string  `json:"commission_id"`
	Content      string  `json:"content"`
	Mood         *string `json:"mood,omitempty"`
}

func (n Note) Validate() error {
	if strings.TrimSpace(n.CommissionID) == "" {
		return &ValidationError{Field: "commission_id", Reason: "is required"}
	}
	if strings.TrimSpace(n.Content) == "" {
		return &ValidationError{Field: "content", Reason: "is required"}
	}
	return nil
}

func (n Note) Document() map[string]any {
	doc := map[string]any{
		"commission_id": n.CommissionID,
		"content":       n.Content,
	}
	putString(doc, "mood", n.Mood)
	return doc
}

func putString(doc map[string]any, key string, val *string) {
	if val != nil {
		doc[key] = *val
	}
}
