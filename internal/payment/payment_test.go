package payment

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestProcessFabricatesReceipt(t *testing.T) {
	p := NewProcessor()
	fixed := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	apptID := uuid.New()
	r := p.Process(apptID, 120.50)

	if r.AppointmentID != apptID {
		t.Errorf("appointment id = %s", r.AppointmentID)
	}
	if r.Amount != 120.50 {
		t.Errorf("amount = %v", r.Amount)
	}
	if r.Method != "card" {
		t.Errorf("method = %q", r.Method)
	}
	if !r.PaidAt.Equal(fixed) {
		t.Errorf("paidAt = %s", r.PaidAt)
	}
	if !strings.HasPrefix(r.ReceiptNumber, "RCP-") {
		t.Errorf("receipt number = %q", r.ReceiptNumber)
	}
	if r.ReceiptNumber != strings.ToUpper(r.ReceiptNumber) {
		t.Errorf("receipt number not upper-cased: %q", r.ReceiptNumber)
	}
}

func TestProcessAlwaysSucceedsWithUniqueIDs(t *testing.T) {
	p := NewProcessor()

	a := p.Process(uuid.New(), 10)
	b := p.Process(uuid.New(), 10)
	if a.ID == b.ID {
		t.Fatal("receipt ids should be unique")
	}
}
