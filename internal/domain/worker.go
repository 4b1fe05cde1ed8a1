package domain

import (
	"errors"
	"slices"
	"time"
)

var (
	ErrWorkerInactive   = errors.New("worker is deactivated")
	ErrWorkerCannotFill = errors.New("worker cannot fill this role")
)

type Role string

const (
	RoleWorker         Role = "worker"
	RoleAccountManager Role = "account_manager"
	RoleAdmin          Role = "admin"
)

// Event roles a worker can be capable of and a crew can request.
const (
	EventRoleTD        = "TD"
	EventRoleAudio     = "Audio"
	EventRoleLighting  = "Lighting"
	EventRoleVideo     = "Video"
	EventRoleStagehand = "Stagehand"
	EventRoleLiftOp    = "Lift Op"
	EventRoleRigger    = "Rigger"
)

var EventRoles = []string{
	EventRoleTD,
	EventRoleAudio,
	EventRoleLighting,
	EventRoleVideo,
	EventRoleStagehand,
	EventRoleLiftOp,
	EventRoleRigger,
}

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

type Worker struct {
	ID               int64     `json:"id"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Email            string    `json:"email"`
	PhoneNumber      string    `json:"phoneNumber"`
	PasswordHash     string    `json:"-"`
	PasswordIsTemp   bool      `json:"passwordIsTemp"`
	IsAdmin          bool      `json:"isAdmin"`
	IsAccountManager bool      `json:"isAccountManager"`
	IsActive         bool      `json:"isActive"`
	Theme            string    `json:"theme"`
	Roles            []string  `json:"roles"` // event roles the worker can fill
	CreatedAt        time.Time `json:"createdAt"`
	Version          int32     `json:"-"`
}

func (w *Worker) FullName() string {
	return w.FirstName + " " + w.LastName
}

// Role is the highest access level granted by the worker's flags.
func (w *Worker) Role() Role {
	switch {
	case w.IsAdmin:
		return RoleAdmin
	case w.IsAccountManager:
		return RoleAccountManager
	default:
		return RoleWorker
	}
}

func (w *Worker) CanFill(role string) bool {
	return slices.Contains(w.Roles, role)
}

// CheckAssignable reports why the worker may not be offered role, if anything.
func (w *Worker) CheckAssignable(role string) error {
	if !w.IsActive {
		return ErrWorkerInactive
	}
	if !w.CanFill(role) {
		return ErrWorkerCannotFill
	}
	return nil
}

// ViewMode lets admins and account managers browse the site with a reduced role.
type ViewMode struct {
	ViewAsEmployee bool `json:"viewAsEmployee"`
	ViewAsManager  bool `json:"viewAsManager"`
}
