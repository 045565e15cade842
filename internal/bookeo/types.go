package bookeo

import "encoding/json"

// Wire types for the provider's bookings API.
// Reference: https://www.bookeo.com/apiref/#tag/Bookings

// Money keeps the provider's decimal amount verbatim. json.Number tolerates
// both string and numeric encodings without ever touching float64.
type Money struct {
	Amount   json.Number `json:"amount"`
	Currency string      `json:"currency"`
}

type Price struct {
	TotalGross *Money `json:"totalGross"`
	TotalNet   *Money `json:"totalNet"`
	TotalPaid  *Money `json:"totalPaid"`
}

type ParticipantNumber struct {
	Number int `json:"number"`
}

type Participants struct {
	Numbers []ParticipantNumber `json:"numbers"`
}

type PhoneNumber struct {
	Number string `json:"number"`
	Type   string `json:"type"`
}

type Customer struct {
	ID           string        `json:"id"`
	FirstName    string        `json:"firstName"`
	MiddleName   string        `json:"middleName"`
	LastName     string        `json:"lastName"`
	EmailAddress string        `json:"emailAddress"`
	PhoneNumbers []PhoneNumber `json:"phoneNumbers"`
}

type Resource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Option struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Booking is one reservation as reported by the provider. Accepted defaults
// to true when the field is absent, so it is a pointer here.
type Booking struct {
	BookingNumber string `json:"bookingNumber"`
	EventID       string `json:"eventId"`
	ProductID     string `json:"productId"`
	ProductName   string `json:"productName"`

	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`

	CustomerID string    `json:"customerId"`
	Customer   *Customer `json:"customer"`
	Title      string    `json:"title"`

	Canceled     bool  `json:"canceled"`
	Accepted     *bool `json:"accepted"`
	NoShow       bool  `json:"noShow"`
	PrivateEvent bool  `json:"privateEvent"`

	SourceIP        string `json:"sourceIp"`
	Source          string `json:"source"`
	ExternalRef     string `json:"externalRef"`
	CancelationTime string `json:"cancelationTime"`
	CreationTime    string `json:"creationTime"`
	CreationAgent   string `json:"creationAgent"`
	LastChangeTime  string `json:"lastChangeTime"`
	LastChangeAgent string `json:"lastChangeAgent"`

	Participants Participants `json:"participants"`
	Price        *Price       `json:"price"`
	Resources    []Resource   `json:"resources"`
	Options      []Option     `json:"options"`

	// Raw is the verbatim payload this booking was decoded from.
	Raw json.RawMessage `json:"-"`
}

// IsAccepted applies the provider's default for a missing accepted flag.
func (b Booking) IsAccepted() bool {
	if b.Accepted == nil {
		return true
	}
	return *b.Accepted
}

type pageInfo struct {
	TotalItems          int    `json:"totalItems"`
	CurrentPage         int    `json:"currentPage"`
	TotalPages          int    `json:"totalPages"`
	ItemsPerPage        int    `json:"itemsPerPage"`
	PageNavigationToken string `json:"pageNavigationToken"`
}

type bookingsPage struct {
	Info pageInfo          `json:"info"`
	Data []json.RawMessage `json:"data"`
}

// apiError is the provider's error envelope.
type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
