package services

import "github.com/fildor/atelier-api/models"

// Actor is the staff member on whose behalf an operation runs
type Actor struct {
	ID   uint   `json:"id"`
	Role string `json:"role"`
}

// ActorFromUser builds the actor for a stored user
func ActorFromUser(user *models.User) Actor {
	return Actor{ID: user.ID, Role: user.Role}
}

// IsPrivileged reports whether the actor may grant discounts, edit prices and delete orders
func (a Actor) IsPrivileged() bool {
	return models.IsPrivilegedRole(a.Role)
}

func (a Actor) idPtr() *uint {
	if a.ID == 0 {
		return nil
	}
	id := a.ID
	return &id
}
