package services

import (
	"encoding/json"
	"testing"

	"bookeosync/internal/bookeo"
)

const sampleBookingJSON = `{
	"bookingNumber": "B-100",
	"eventId": "ev-1",
	"productId": "prod-1",
	"productName": "Candle Workshop",
	"startTime": "2026-03-14T18:00:00-07:00",
	"endTime": "2026-03-14T20:00:00-07:00",
	"customerId": "cust-9",
	"title": "Ms Jones party",
	"canceled": false,
	"noShow": false,
	"privateEvent": true,
	"sourceIp": "203.0.113.9",
	"creationTime": "2026-02-01T10:00:00Z",
	"lastChangeTime": "2026-02-02T11:30:00Z",
	"lastChangeAgent": "owner",
	"participants": {"numbers": [{"number": 2}, {"number": 3}]},
	"price": {
		"totalGross": {"amount": "125.50", "currency": "USD"},
		"totalNet": {"amount": "100.40", "currency": "USD"},
		"totalPaid": {"amount": "50.00", "currency": "USD"}
	}
}`

func decodeBooking(t *testing.T, raw string) bookeo.Booking {
	t.Helper()
	var b bookeo.Booking
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		t.Fatalf("unmarshal booking: %v", err)
	}
	b.Raw = []byte(raw)
	return b
}

func TestMapBookingFullPayload(t *testing.T) {
	row := MapBooking(decodeBooking(t, sampleBookingJSON))

	if row.BookingNumber != "B-100" {
		t.Fatalf("booking number = %q", row.BookingNumber)
	}
	if row.StartTime != "2026-03-14T18:00:00-07:00" {
		t.Fatalf("start time offset lost: %q", row.StartTime)
	}
	if !row.PrivateEvent || row.Canceled || row.NoShow {
		t.Fatalf("status flags wrong: %+v", row)
	}
	// accepted absent in payload defaults to true
	if !row.Accepted {
		t.Fatal("accepted should default to true")
	}
	if row.TotalParticipants != 5 {
		t.Fatalf("total participants = %d, want 5", row.TotalParticipants)
	}
	if row.TotalGross != "125.50" || row.TotalNet != "100.40" || row.TotalPaid != "50.00" {
		t.Fatalf("money fields must stay exact decimal strings: %q %q %q",
			row.TotalGross, row.TotalNet, row.TotalPaid)
	}
	if row.Currency != "USD" {
		t.Fatalf("currency = %q", row.Currency)
	}
	if row.RawJSON != sampleBookingJSON {
		t.Fatal("raw payload must be retained verbatim")
	}
}

func TestMapBookingNumericAmounts(t *testing.T) {
	// Some provider responses encode amounts as JSON numbers.
	row := MapBooking(decodeBooking(t, `{
		"bookingNumber": "B-2",
		"price": {"totalGross": {"amount": 99.90, "currency": "EUR"}}
	}`))
	if row.TotalGross != "99.90" {
		t.Fatalf("numeric amount not preserved: %q", row.TotalGross)
	}
	if row.Currency != "EUR" {
		t.Fatalf("currency = %q", row.Currency)
	}
}

func TestMapBookingMinimalPayloadNeverFails(t *testing.T) {
	row := MapBooking(decodeBooking(t, `{"bookingNumber":"B-3"}`))

	if row.BookingNumber != "B-3" {
		t.Fatalf("booking number = %q", row.BookingNumber)
	}
	if row.EventID != "" || row.TotalGross != "" || row.Currency != "" {
		t.Fatalf("missing fields must map to defaults: %+v", row)
	}
	if !row.Accepted {
		t.Fatal("accepted should default to true")
	}
	if row.TotalParticipants != 0 {
		t.Fatalf("participants = %d, want 0", row.TotalParticipants)
	}
}

func TestMapBookingExplicitAcceptedFalse(t *testing.T) {
	row := MapBooking(decodeBooking(t, `{"bookingNumber":"B-4","accepted":false,"canceled":true}`))
	if row.Accepted {
		t.Fatal("accepted=false must survive mapping")
	}
	if !row.Canceled {
		t.Fatal("canceled=true must survive mapping")
	}
}

func TestMapBookingWithoutRawReencodes(t *testing.T) {
	b := bookeo.Booking{BookingNumber: "B-5"}
	row := MapBooking(b)
	if row.RawJSON == "" {
		t.Fatal("raw payload must be reconstructed when missing")
	}
	var round bookeo.Booking
	if err := json.Unmarshal([]byte(row.RawJSON), &round); err != nil {
		t.Fatalf("reencoded payload not valid JSON: %v", err)
	}
	if round.BookingNumber != "B-5" {
		t.Fatalf("reencoded payload lost data: %q", round.BookingNumber)
	}
}

func TestMapBookingTruncatesOversizedFields(t *testing.T) {
	long := make([]byte, 600)
	for i := range long {
		long[i] = 'x'
	}
	b := bookeo.Booking{BookingNumber: "B-6", ProductName: string(long), Title: string(long)}
	row := MapBooking(b)
	if len(row.ProductName) != 500 {
		t.Fatalf("product_name not truncated to column width: %d", len(row.ProductName))
	}
	if len(row.Title) != 255 {
		t.Fatalf("title not truncated to column width: %d", len(row.Title))
	}
}
