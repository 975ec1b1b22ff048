package payment

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Receipt is a fabricated payment record. There is no settlement behind
// it; the processor exists so the booking flow has a payment step to
// call and always succeeds.
type Receipt struct {
	ID            uuid.UUID `json:"id"`
	AppointmentID uuid.UUID `json:"appointmentId"`
	Amount        float64   `json:"amount"`
	Method        string    `json:"method"`
	PaidAt        time.Time `json:"paidAt"`
	ReceiptNumber string    `json:"receiptNumber"`
}

type Processor struct {
	now func() time.Time
}

func NewProcessor() *Processor {
	return &Processor{now: time.Now}
}

// Process fabricates a receipt for the appointment.
func (p *Processor) Process(appointmentID uuid.UUID, amount float64) Receipt {
	paidAt := p.now()
	return Receipt{
		ID:            uuid.New(),
		AppointmentID: appointmentID,
		Amount:        amount,
		Method:        "card",
		PaidAt:        paidAt,
		ReceiptNumber: receiptNumber(paidAt),
	}
}

func receiptNumber(t time.Time) string {
	return "RCP-" + strings.ToUpper(strconv.FormatInt(t.UnixMilli(), 36))
}
