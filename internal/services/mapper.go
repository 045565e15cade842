package services

import (
	"encoding/json"
	"strings"

	"bookeosync/internal/bookeo"
	"bookeosync/internal/domain/models"
	"bookeosync/internal/utils"
)

// MapBooking flattens one provider booking into a destination row. It is a
// pure function and never fails: unknown or missing fields become defaults
// and the entire payload is retained in RawJSON. String values are truncated
// to their destination column widths.
func MapBooking(b bookeo.Booking) models.BookingRow {
	row := models.BookingRow{
		BookingNumber: utils.Truncate(strings.TrimSpace(b.BookingNumber), 50),

		EventID:     utils.Truncate(b.EventID, 100),
		ProductID:   utils.Truncate(b.ProductID, 50),
		ProductName: utils.Truncate(b.ProductName, 500),

		StartTime: strings.TrimSpace(b.StartTime),
		EndTime:   strings.TrimSpace(b.EndTime),

		CustomerID: utils.Truncate(b.CustomerID, 50),
		Title:      utils.Truncate(b.Title, 255),

		Canceled:     b.Canceled,
		Accepted:     b.IsAccepted(),
		NoShow:       b.NoShow,
		PrivateEvent: b.PrivateEvent,

		SourceIP:        utils.Truncate(b.SourceIP, 45),
		CancelationTime: strings.TrimSpace(b.CancelationTime),
		CreationTime:    strings.TrimSpace(b.CreationTime),
		LastChangeTime:  strings.TrimSpace(b.LastChangeTime),
		LastChangeAgent: utils.Truncate(b.LastChangeAgent, 255),

		TotalParticipants: totalParticipants(b.Participants),
		TotalGross:        utils.Truncate(amountString(priceOf(b).TotalGross), 20),
		TotalNet:          utils.Truncate(amountString(priceOf(b).TotalNet), 20),
		TotalPaid:         utils.Truncate(amountString(priceOf(b).TotalPaid), 20),
		Currency:          utils.Truncate(currencyOf(priceOf(b)), 10),

		RawJSON: rawPayload(b),
	}
	return row
}

func priceOf(b bookeo.Booking) bookeo.Price {
	if b.Price == nil {
		return bookeo.Price{}
	}
	return *b.Price
}

func amountString(m *bookeo.Money) string {
	if m == nil {
		return ""
	}
	return m.Amount.String()
}

func currencyOf(p bookeo.Price) string {
	for _, m := range []*bookeo.Money{p.TotalGross, p.TotalNet, p.TotalPaid} {
		if m != nil && m.Currency != "" {
			return m.Currency
		}
	}
	return ""
}

func totalParticipants(p bookeo.Participants) int {
	total := 0
	for _, n := range p.Numbers {
		total += n.Number
	}
	return total
}

func rawPayload(b bookeo.Booking) string {
	if len(b.Raw) > 0 {
		return string(b.Raw)
	}
	// Webhook items arrive already decoded; re-encode so auditability holds.
	data, err := json.Marshal(b)
	if err != nil {
		return ""
	}
	return string(data)
}
