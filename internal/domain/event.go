package domain

import "time"

type Event struct {
	ID                 int64     `json:"id"`
	ShowName           string    `json:"showName"`
	ShowNumber         int64     `json:"showNumber"`
	AccountManagerID   *int64    `json:"accountManagerID"`
	AccountManagerName string    `json:"accountManagerName"`
	Location           string    `json:"location"`
	Active             bool      `json:"active"`
	SharepointLink     string    `json:"sharepointLink"`
	CreatedAt          time.Time `json:"createdAt"`
	Version            int32     `json:"-"`
}

// ManagedBy reports whether w may modify the event.
func (e *Event) ManagedBy(w *Worker) bool {
	if w.IsAdmin {
		return true
	}
	return w.IsAccountManager && e.AccountManagerID != nil && *e.AccountManagerID == w.ID
}

type Note struct {
	ID                      int64     `json:"id"`
	EventID                 int64     `json:"eventID"`
	WorkerID                int64     `json:"workerID"`
	AuthorName              string    `json:"authorName"`
	Content                 string    `json:"content"`
	AccountManagerOnly      bool      `json:"accountManagerOnly"`
	AccountManagerAndTDOnly bool      `json:"accountManagerAndTDOnly"`
	CreatedAt               time.Time `json:"createdAt"`
}

// VisibleTo decides whether viewer can read the note. isTD tells whether the
// viewer holds an accepted TD assignment on the note's event.
func (n *Note) VisibleTo(viewer *Worker, isTD bool) bool {
	if viewer.IsAdmin || viewer.IsAccountManager || viewer.ID == n.WorkerID {
		return true
	}
	if n.AccountManagerOnly {
		return false
	}
	if n.AccountManagerAndTDOnly {
		return isTD
	}
	return true
}

type Document struct {
	ID         int64     `json:"id"`
	EventID    int64     `json:"eventID"`
	Filename   string    `json:"filename"`
	StoredName string    `json:"-"`
	UploadedBy *int64    `json:"uploadedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

type HelpPost struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
