package messages

import (
	"fmt"
	"time"

	"github.com/aurora-hq/aurora/internal/domain"
)

// message is the upstream wire format for one member message.
type message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// listResponse is the upstream wire format for the message listing.
type listResponse struct {
	Total int       `json:"total"`
	Items []message `json:"items"`
}

// toRecord converts a wire message into a domain record. The RFC3339
// timestamp is kept verbatim and additionally rendered as a human date,
// which the enricher prefixes for retrieval.
func toRecord(m message) (domain.Record, error) {
	if m.ID == "" {
		return domain.Record{}, fmt.Errorf("message without id")
	}
	return domain.Record{
		ID:   m.ID,
		Text: m.Message,
		Metadata: map[string]string{
			"user_id":   m.UserID,
			"user_name": m.UserName,
			"timestamp": m.Timestamp.Format(time.RFC3339),
			"date":      m.Timestamp.Format("January 2, 2006"),
		},
	}, nil
}
