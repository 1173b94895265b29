package model

// JournalType classifies accounting journals.
type JournalType string

const (
	JournalPurchases JournalType = "purchases"
	JournalSales     JournalType = "sales"
	JournalBank      JournalType = "bank"
	JournalCash      JournalType = "cash"
	JournalMisc      JournalType = "misc" // opérations diverses
)

// Journal groups entries by nature (achats, banque, caisse...).
type Journal struct {
	ID   int64       `json:"id"`
	Code string      `json:"code"` // "AC", "BQ", "OD"
	Name string      `json:"name"`
	Type JournalType `json:"type"`
}
