package handler

type ContextKey string

var (
	RoleCtxKey    ContextKey = "role"
	SubCtxKey     ContextKey = "sub"
	MyInfoCtx     ContextKey = "myInfo"
	WorkerInfoCtx ContextKey = "workerInfo"
	EventCtx      ContextKey = "event"
	CrewCtx       ContextKey = "crew"
	AssignmentCtx ContextKey = "assignment"
	ShiftCtx      ContextKey = "shift"
	ExpenseCtx    ContextKey = "expense"
	DocumentCtx   ContextKey = "document"
)
