// Package callable implements the request and response envelope used by
// the mobile client's callable functions.
//
//	request:  {"data": {...}}
//	success:  {"result": {...}}
//	failure:  {"error": {"status": "INVALID_ARGUMENT", "message": "...", "details": {"field": "username"}}}
package callable

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"

	"github.com/tripzi/tripzi-backend/internal/core"
)

// maxBodyBytes bounds a callable request body.
const maxBodyBytes = 64 << 10

type requestEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type resultEnvelope struct {
	Result interface{} `json:"result"`
}

// ErrorBody is the "error" member of a failure envelope.
type ErrorBody struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

var statusNames = map[codes.Code]string{
	codes.Unauthenticated:    "UNAUTHENTICATED",
	codes.InvalidArgument:    "INVALID_ARGUMENT",
	codes.FailedPrecondition: "FAILED_PRECONDITION",
	codes.AlreadyExists:      "ALREADY_EXISTS",
	codes.ResourceExhausted:  "RESOURCE_EXHAUSTED",
	codes.Internal:           "INTERNAL",
}

var httpStatuses = map[codes.Code]int{
	codes.Unauthenticated:    http.StatusUnauthorized,
	codes.InvalidArgument:    http.StatusBadRequest,
	codes.FailedPrecondition: http.StatusBadRequest,
	codes.AlreadyExists:      http.StatusConflict,
	codes.ResourceExhausted:  http.StatusTooManyRequests,
	codes.Internal:           http.StatusInternalServerError,
}

// StatusName returns the wire name of code, INTERNAL for unknown codes.
func StatusName(code codes.Code) string {
	if name, ok := statusNames[code]; ok {
		return name
	}
	return statusNames[codes.Internal]
}

// HTTPStatus returns the HTTP status for code, 500 for unknown codes.
func HTTPStatus(code codes.Code) int {
	if s, ok := httpStatuses[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Bind decodes the "data" member of the request body into dst. Unknown
// fields and wrong JSON types fail with INVALID_ARGUMENT.
func Bind(c *gin.Context, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
	if err != nil {
		return core.ErrInvalidArgument("data", "request body could not be read.")
	}
	if len(body) > maxBodyBytes {
		return core.ErrInvalidArgument("data", "request body is too large.")
	}

	var env requestEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return core.ErrInvalidArgument("data", "request body must be a JSON object with a data field.")
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		env.Data = []byte("{}")
	}

	dec := json.NewDecoder(bytes.NewReader(env.Data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return core.ErrInvalidArgument(typeErr.Field, typeErr.Field+" has the wrong type.")
		}
		return core.ErrInvalidArgument("data", "data does not match the expected request shape.")
	}
	return nil
}

// WriteResult answers 200 with {"result": result}.
func WriteResult(c *gin.Context, result interface{}) {
	c.JSON(http.StatusOK, resultEnvelope{Result: result})
}

// WriteError answers with the failure envelope for err. Anything that is
// not a *core.Error is reported as INTERNAL with a generic message.
func WriteError(c *gin.Context, err error) {
	ce := core.AsError(err)
	c.AbortWithStatusJSON(HTTPStatus(ce.Code), errorEnvelope{Error: bodyFor(ce.Code, ce.Message, ce.Field)})
}

// WriteStatus answers with a failure envelope that did not come from core.
func WriteStatus(c *gin.Context, code codes.Code, message string) {
	c.AbortWithStatusJSON(HTTPStatus(code), errorEnvelope{Error: bodyFor(code, message, "")})
}

func bodyFor(code codes.Code, message, field string) ErrorBody {
	body := ErrorBody{Status: StatusName(code), Message: message}
	if field != "" {
		body.Details = map[string]string{"field": field}
	}
	return body
}
