package user

import "time"

type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// Status drives automatic convocation: mensalistas are called up for every
// game created with the auto-convoke flag, avulsos join on their own.
type Status string

const (
	StatusMensalista Status = "mensalista"
	StatusAvulso     Status = "avulso"
)

type User struct {
	ID                    int64
	Name                  string
	Email                 string
	PasswordHash          string
	Role                  Role
	Status                Status
	IsActive              bool
	ConfirmationToken     *string
	LastConfirmationToken *string
	ResetToken            *string
	ResetTokenExpiresAt   *time.Time
	PreferredPosition     *string
	GroupID               *int64
	CreatedAt             time.Time
}

// IsAdmin reports whether the user carries group-admin privileges.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperadmin
}

// Principal is the resolved caller identity attached to authorized requests.
type Principal struct {
	UserID  int64
	Role    Role
	GroupID *int64
}
