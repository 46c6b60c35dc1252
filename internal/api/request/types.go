package request

// CreateGuestRequest is the request body for creating a guest user
type CreateGuestRequest struct {
	DisplayName string `json:"display_name"`
}

// RegisterRequest is the request body for registering a user
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// StartMatchRequest is the request body for the mode-flow match start
type StartMatchRequest struct {
	Difficulty string `json:"difficulty"`
	Language   string `json:"language"`
}

// SubmitCodeRequest is the request body for submitting code to a problem
type SubmitCodeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}
