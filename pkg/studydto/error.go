package studydto

// ReplayError is the serializable form of a failed replay.
type ReplayError struct {
	Index   int    `json:"index"`
	Token   string `json:"token"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e ReplayError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "replay failed at " + e.Token
}
