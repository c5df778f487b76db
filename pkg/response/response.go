package response

import (
	"net/http"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// Envelope is the uniform response body of the gateway.
type Envelope = domain.Result[any]

// Write sends a ledger result. Successful results use successStatus, failed
// ones the HTTP status matching their result code.
func Write[T any](c *gin.Context, successStatus int, result domain.Result[T]) {
	status := successStatus
	if !result.Success {
		status = apperror.StatusForCode(result.Code)
	}
	setRequestIDHeader(c)
	c.JSON(status, result)
}

// OK sends a 200 response with data.
func OK(c *gin.Context, message string, data any) {
	setRequestIDHeader(c)
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Message: message,
		Code:    apperror.CodeSuccess,
		Data:    &data,
	})
}

// Error sends an error envelope. Errors that are not an *apperror.AppError
// are reported as internal errors.
func Error(c *gin.Context, err error) {
	appErr := apperror.From(err)
	setRequestIDHeader(c)
	c.JSON(appErr.HTTPStatus, Envelope{
		Success: false,
		Message: appErr.Message,
		Code:    appErr.Code,
	})
}

// RequestID retrieves the request id from context, or generates one.
func RequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		if s, ok := id.(string); ok && s != "" {
			return s
		}
	}
	id := uuid.New().String()
	c.Set(RequestIDKey, id)
	return id
}

func setRequestIDHeader(c *gin.Context) {
	c.Header("X-Request-ID", RequestID(c))
}
