package types

// LoginRequest represents the admin login request.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued admin token.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// Validate validates the LoginRequest using the validator.
func (r *LoginRequest) Validate() error {
	return toValidationError(validate.Struct(r))
}
