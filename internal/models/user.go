package models

// RoleAdmin is the role that unlocks catalog, cart and order administration.
const RoleAdmin = "Admin"

// User is an account as listed by the admin users view.
type User struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Name  string `json:"name,omitempty"`
}

// Session is what survives between CLI invocations under the "user" key.
type Session struct {
	Email string `json:"email"`
	Token string `json:"token"`
	Role  string `json:"role,omitempty"`
}

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is the register form.
type Registration struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginResponse is the body of auth/login.
type LoginResponse struct {
	Email string `json:"email"`
	Token string `json:"token"`
	Role  string `json:"role,omitempty"`
}
