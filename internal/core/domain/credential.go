package domain

import "time"

// Role is the closed set of roles a credential can carry.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Credential is the durable identity record. The password is stored only as
// a one-way bcrypt hash; the plaintext never touches persistence.
type Credential struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// PublicView is the subset of a Credential safe to return to callers.
type PublicView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Public strips the credential down to its caller-visible fields.
func (c *Credential) Public() PublicView {
	return PublicView{ID: c.ID, Username: c.Username, Email: c.Email}
}

// Session is the triple cached under a session id for the session's TTL.
type Session struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}
