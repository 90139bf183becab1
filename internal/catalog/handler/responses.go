package handler

// DeleteResponse acknowledges a deletion.
type DeleteResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}
