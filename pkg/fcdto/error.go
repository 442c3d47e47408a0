package fcdto

// DomainError is the wire shape of a game-service failure. Retryable tells
// the client whether resubmitting the same request can succeed.
type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "footchess service error"
}
