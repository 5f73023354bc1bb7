package auth

import "strings"

// Claims es la identidad del usuario dueño de las medicaciones y tomas.
// UserID es el único campo obligatorio; Email y TenantID viajan si el
// verificador los conoce.
type Claims struct {
	UserID   string
	Email    string
	TenantID string
}

// Subject devuelve el UserID normalizado ("" = sin identidad).
func (c Claims) Subject() string {
	return strings.TrimSpace(c.UserID)
}
