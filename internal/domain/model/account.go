package model

// RegisterInput is the account registration payload.
type RegisterInput struct {
	Email      string `json:"email"                validate:"required,email"`
	Username   string `json:"username"             validate:"required,max=150"`
	Password   string `json:"password"             validate:"required,min=8"`
	RePassword string `json:"re_password"          validate:"required,eqfield=Password"`
	FirstName  string `json:"first_name,omitempty" validate:"max=150"`
	LastName   string `json:"last_name,omitempty"  validate:"max=150"`
}

// LoginInput carries credentials for the token exchange.
type LoginInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileInput is the editable profile subset. Nil fields are left untouched on PATCH.
type ProfileInput struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name,omitempty"  validate:"omitempty,max=150"`
	Username  *string `json:"username,omitempty"   validate:"omitempty,min=1,max=150"`
	Phone     *string `json:"phone,omitempty"      validate:"omitempty,phone"`
}
