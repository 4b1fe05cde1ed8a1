package scheduler

// Suggestion proposes a worker for one open slot of a crew.
type Suggestion struct {
	Role       string `json:"role"`
	WorkerID   int64  `json:"workerID"`
	WorkerName string `json:"workerName"`
}

// candidate is a worker eligible for the crew, with the load used for ranking.
type candidate struct {
	id    int64
	name  string
	roles []string
	hours float64
}
