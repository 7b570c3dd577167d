package models

import "strconv"

// Actor is the authenticated caller of a request.
type Actor struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// CanManage reports whether the actor is the notice author or an administrator.
func (a *Actor) CanManage(n *Notice) bool {
	return a != nil && (a.IsAdmin() || n.IsAuthor(a.ID))
}

// RollbarPerson identifies the actor in error reports.
func (a *Actor) RollbarPerson() (id, username, email string) {
	return strconv.FormatUint(uint64(a.ID), 10), a.Email, a.Email
}
