package dto

// AdminUser is one row of the admin user listing.
type AdminUser struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone"`
	Document  *string `json:"document"`
	UserType  string  `json:"userType"`
	Active    *bool   `json:"active"`
	CreatedAt *string `json:"createdAt"`
}

// MapAdminUser normalizes a backend user.
func MapAdminUser(raw Raw) AdminUser {
	return AdminUser{
		ID:        toString(raw["id"]),
		Name:      toString(raw["name"]),
		Email:     toString(raw["email"]),
		Phone:     toStringPtr(raw["phone"]),
		Document:  toDocument(pick(raw, "document", "cpf")),
		UserType:  toString(pick(raw, "userType", "role")),
		Active:    toBool(raw["active"]),
		CreatedAt: toDate(raw["createdAt"]),
	}
}

// CurrentUser is the authenticated caller as seen by the gateway.
type CurrentUser struct {
	ID    string   `json:"id"`
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles"`
}

// IsAdmin reports whether the user carries the ADMIN role.
func (u CurrentUser) IsAdmin() bool {
	for _, role := range u.Roles {
		if role == "ADMIN" {
			return true
		}
	}
	return false
}
