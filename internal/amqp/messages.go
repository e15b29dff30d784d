package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event kinds carried by LedgerEventMessage.
const (
	KindPosted   = "posted"
	KindReversed = "reversed"
)

// LedgerEventMessage is a lightweight notification that a transaction was
// posted or reversed. It carries only identifiers; the worker fetches the
// full transaction from the database.
type LedgerEventMessage struct {
	EventID       string    `json:"event_id"`
	UserID        int64     `json:"user_id"`
	TransactionID int64     `json:"transaction_id"`
	Kind          string    `json:"kind"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(userID, transactionID int64, kind string) *LedgerEventMessage {
	return &LedgerEventMessage{
		EventID:       uuid.NewString(),
		UserID:        userID,
		TransactionID: transactionID,
		Kind:          kind,
		Timestamp:     time.Now(),
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// BillReminderMessage announces a bill that is due soon or overdue for
// the current period.
type BillReminderMessage struct {
	EventID  string    `json:"event_id"`
	UserID   int64     `json:"user_id"`
	BillID   int64     `json:"bill_id"`
	BillName string    `json:"bill_name"`
	DueDate  time.Time `json:"due_date"`
	Overdue  bool      `json:"overdue"`
	SentAt   time.Time `json:"sent_at"`
}

func NewBillReminderMessage(userID, billID int64, name string, dueDate time.Time, overdue bool) *BillReminderMessage {
	return &BillReminderMessage{
		EventID:  uuid.NewString(),
		UserID:   userID,
		BillID:   billID,
		BillName: name,
		DueDate:  dueDate,
		Overdue:  overdue,
		SentAt:   time.Now(),
	}
}

func (m *BillReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BillReminderMessageFromJSON(data []byte) (*BillReminderMessage, error) {
	var msg BillReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
