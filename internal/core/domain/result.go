package domain

// Result is the envelope every ledger operation answers with. Data is only
// set when Success is true; Code is "00" on success and "400", "401" or
// "500" otherwise.
type Result[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"errorCode"`
	Data    *T     `json:"data"`
}

// OK builds a successful result.
func OK[T any](message string, data *T) Result[T] {
	return Result[T]{Success: true, Message: message, Code: "00", Data: data}
}

// Fail builds a failed result with no data.
func Fail[T any](code, message string) Result[T] {
	return Result[T]{Success: false, Message: message, Code: code}
}
