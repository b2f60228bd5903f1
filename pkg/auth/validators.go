package auth

// RegisterPayload represents the registration request body.
type RegisterPayload struct {
	Username string `json:"username" mod:"trim" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginPayload represents the login request body.
type LoginPayload struct {
	Username string `json:"username" mod:"trim" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// MeResponse represents the current user response.
type MeResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}
