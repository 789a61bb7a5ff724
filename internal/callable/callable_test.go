package callable

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"

	"github.com/tripzi/tripzi-backend/internal/core"
	"github.com/tripzi/tripzi-backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/x", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func TestBind(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantErr   bool
		wantField string
		wantUser  string
	}{
		{name: "valid", body: `{"data":{"username":"alice","excludeUid":"u1"}}`, wantUser: "alice"},
		{name: "missing data", body: `{}`},
		{name: "null data", body: `{"data":null}`},
		{name: "not json", body: `username=alice`, wantErr: true, wantField: "data"},
		{name: "wrong type", body: `{"data":{"username":42}}`, wantErr: true, wantField: "username"},
		{name: "unknown field", body: `{"data":{"username":"a","admin":true}}`, wantErr: true, wantField: "data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newContext(tt.body)
			var req models.CheckUsernameAvailabilityRequest
			err := Bind(c, &req)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Bind: %v", err)
				}
				if req.Username != tt.wantUser {
					t.Errorf("Username = %q, want %q", req.Username, tt.wantUser)
				}
				return
			}
			ce := core.AsError(err)
			if ce == nil || ce.Code != codes.InvalidArgument {
				t.Fatalf("Bind error = %v, want INVALID_ARGUMENT", err)
			}
			if ce.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ce.Field, tt.wantField)
			}
		})
	}
}

func TestWriteErrorEnvelope(t *testing.T) {
	tests := []struct {
		err        error
		wantHTTP   int
		wantStatus string
		wantField  string
	}{
		{core.ErrUnauthenticated(), http.StatusUnauthorized, "UNAUTHENTICATED", ""},
		{core.ErrInvalidArgument("gender", "gender must be either male or female."), http.StatusBadRequest, "INVALID_ARGUMENT", "gender"},
		{core.ErrFailedPrecondition("too young"), http.StatusBadRequest, "FAILED_PRECONDITION", ""},
		{core.ErrAlreadyExists("taken"), http.StatusConflict, "ALREADY_EXISTS", ""},
		{errors.New("firestore: deadline exceeded"), http.StatusInternalServerError, "INTERNAL", ""},
	}
	for _, tt := range tests {
		t.Run(tt.wantStatus, func(t *testing.T) {
			c, w := newContext("")
			WriteError(c, tt.err)

			if w.Code != tt.wantHTTP {
				t.Errorf("HTTP status = %d, want %d", w.Code, tt.wantHTTP)
			}
			var env errorEnvelope
			if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", env.Error.Status, tt.wantStatus)
			}
			if got := env.Error.Details["field"]; got != tt.wantField {
				t.Errorf("details.field = %q, want %q", got, tt.wantField)
			}
			if strings.Contains(env.Error.Message, "firestore") {
				t.Errorf("internal detail leaked: %q", env.Error.Message)
			}
		})
	}
}

func TestWriteStatusRateLimited(t *testing.T) {
	c, w := newContext("")
	WriteStatus(c, codes.ResourceExhausted, "slow down")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("HTTP status = %d, want 429", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"RESOURCE_EXHAUSTED"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestWriteResult(t *testing.T) {
	c, w := newContext("")
	WriteResult(c, models.UsernameAvailability{Available: true})
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"result":{"available":true}}` {
		t.Errorf("got %d %s", w.Code, w.Body.String())
	}
}
