package domain

// User types reported in account limit errors.
const (
	UserTypeRegular   = "Regular"
	UserTypeCorporate = "Corporate"
)

// User holds user data.
type User struct {
	Meta
	Username    string `json:"username"`
	Email       string `json:"email"`
	IsCorporate bool   `json:"is_corporate"`
}

// Type returns the tier name of the user.
func (u User) Type() string {
	if u.IsCorporate {
		return UserTypeCorporate
	}

	return UserTypeRegular
}

// CreateUserParams is the input data to create a user.
type CreateUserParams struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	IsCorporate bool   `json:"is_corporate"`
}

// UpdateUserParams is the replacement data for an existing user.
type UpdateUserParams struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	IsCorporate bool   `json:"is_corporate"`
}
