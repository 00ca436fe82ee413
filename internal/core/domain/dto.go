package domain

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned on successful register or login.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Profile is the body of GET /auth/me.
type Profile struct {
	User        User         `json:"user"`
	Completions []Completion `json:"completions"`
	Ratings     []Rating     `json:"ratings"`
}

// CompleteRequest is the body of POST /courses/complete.
type CompleteRequest struct {
	CourseID string `json:"course_id"`
}

// CompleteResult reports the outcome of a completion request.
type CompleteResult struct {
	Awarded       bool `json:"awarded"`
	PointsAwarded int  `json:"points_awarded"`
	User          User `json:"user"`
}

// RateRequest is the body of POST /courses/rate.
type RateRequest struct {
	CourseID string `json:"course_id"`
	Rating   int    `json:"rating"`
}
