package models

import "time"

// Built-in role names.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleCashier = "cashier"
	RoleUser    = "user"
)

// Permission names checked by the HTTP layer and seeded with the built-in roles.
const (
	PermissionUsersRead     = "users.read"
	PermissionUsersWrite    = "users.write"
	PermissionClientsManage = "clients.manage"
	PermissionFleetManage   = "fleet.manage"
	PermissionRoutesManage  = "routes.manage"
	PermissionTicketsSell   = "tickets.sell"
	PermissionTicketsRefund = "tickets.refund"
	PermissionReportsView   = "reports.view"
	PermissionProfileRead   = "profile.read"
)

// Role is a named bundle of permissions. Priority orders roles by authority;
// the highest-priority role assigned to a user is that user's primary role.
// ID doubles as the legacy numeric role id exposed in tokens.
type Role struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"uniqueIndex;not null"`
	Description string
	Priority    int  `gorm:"not null;default:0;index"`
	IsSystem    bool `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Permission struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"uniqueIndex;not null"`
	Description string
	CreatedAt   time.Time
}

// UserRole and RolePermission are plain id pairs. Users, roles and permissions
// never embed each other; lookups go through these join rows.
type UserRole struct {
	UserID    string `gorm:"primaryKey;type:varchar(36)"`
	RoleID    int64  `gorm:"primaryKey"`
	CreatedAt time.Time
}

type RolePermission struct {
	RoleID       int64 `gorm:"primaryKey"`
	PermissionID int64 `gorm:"primaryKey"`
	CreatedAt    time.Time
}

// PrimaryRole returns the role with the highest priority. Equal priorities are
// broken by the lower id so the choice never depends on input order.
func PrimaryRole(roles []Role) (Role, bool) {
	if len(roles) == 0 {
		return Role{}, false
	}
	best := roles[0]
	for _, r := range roles[1:] {
		if r.Priority > best.Priority || (r.Priority == best.Priority && r.ID < best.ID) {
			best = r
		}
	}
	return best, true
}
