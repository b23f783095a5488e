package models

// User is the identity returned by POST /auth/login.
type User struct {
	ID         ID     `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Department string `json:"department"`
}

// Session is the authenticated identity held for the duration of client use.
// Only the auth service writes it; everything else reads it.
type Session struct {
	Token          string `json:"token"`
	UserID         ID     `json:"user_id"`
	UserName       string `json:"user_name"`
	UserDepartment string `json:"user_department"`
}

// Valid reports whether the session carries a token.
func (s *Session) Valid() bool {
	return s != nil && s.Token != ""
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the success body of POST /auth/login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Password   string `json:"password"`
}
