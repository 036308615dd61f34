package objects

// ErrorResponse is the uniform error envelope for every HTTP error,
// deliberately uninformative for authorization failures: a scope
// violation and a true miss produce the same body.
type ErrorResponse struct {
	Error Error `json:"error"`
}

// Error carries the status text and a human-readable reason.
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
