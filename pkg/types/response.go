package types

// MessageBody acknowledges a mutation that has no other payload.
type MessageBody struct {
	Message string `json:"message"`
}
