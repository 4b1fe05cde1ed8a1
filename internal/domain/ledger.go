package domain

import "time"

// Shift is a worked time record. Shifts derived from an accepted crew
// assignment carry its ID and disappear with it.
type Shift struct {
	ID               int64     `json:"id"`
	WorkerID         *int64    `json:"workerID"`
	WorkerName       string    `json:"workerName"`
	EventID          int64     `json:"eventID"`
	ShowName         string    `json:"showName"`
	ShowNumber       int64     `json:"showNumber"`
	AccountManager   string    `json:"accountManager"`
	CrewAssignmentID *int64    `json:"crewAssignmentID"`
	Role             string    `json:"role"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	Location         string    `json:"location"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (s *Shift) Hours() float64 {
	return s.End.Sub(s.Start).Hours()
}

type Expense struct {
	ID              int64     `json:"id"`
	ReceiptNumber   string    `json:"receiptNumber"`
	Date            time.Time `json:"date"`
	EventID         int64     `json:"eventID"`
	ShowName        string    `json:"showName"`
	ShowNumber      int64     `json:"showNumber"`
	AccountManager  string    `json:"accountManager"`
	Location        string    `json:"location"`
	Details         string    `json:"details"`
	Net             float64   `json:"net"`
	HST             float64   `json:"hst"`
	ReceiptFilename string    `json:"receiptFilename"`
	StoredName      string    `json:"-"`
	WorkerID        *int64    `json:"workerID"`
	WorkerName      string    `json:"workerName"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (e *Expense) Total() float64 {
	return e.Net + e.HST
}

// LedgerScope restricts shift and expense listings to what a viewer may see.
type LedgerScope struct {
	All              bool  // admins
	AccountManagerID int64 // events managed by this worker
	WorkerID         int64 // the worker's own records
}

func ScopeFor(w *Worker) LedgerScope {
	switch {
	case w.IsAdmin:
		return LedgerScope{All: true}
	case w.IsAccountManager:
		return LedgerScope{AccountManagerID: w.ID}
	default:
		return LedgerScope{WorkerID: w.ID}
	}
}
