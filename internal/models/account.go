package models

// Registration is a regular user sign-up.
type Registration struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
}

// BusinessRegistration signs up a business user and creates its business
// profile of the chosen type.
type BusinessRegistration struct {
	BusinessName   string `json:"business_name" validate:"required,max=200"`
	BusinessEmail  string `json:"business_email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6,max=72"`
	BusinessTypeID ID     `json:"business_type_id" validate:"required"`
}

// SignUpMetadata is stored as user_metadata on the remote account.
func (r Registration) SignUpMetadata() map[string]any {
	return map[string]any{
		"user_type":   UserTypeRegular,
		"is_business": false,
		"first_name":  r.FirstName,
		"last_name":   r.LastName,
	}
}

func (r BusinessRegistration) SignUpMetadata() map[string]any {
	return map[string]any{
		"user_type":   RoleBusiness,
		"is_business": true,
	}
}
