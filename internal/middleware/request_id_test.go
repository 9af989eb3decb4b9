//go:build !integration

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		wantKept bool
	}{
		{name: "generates an ID when none is sent", header: ""},
		{name: "keeps a well-formed client ID", header: "edge-7f3a:42", wantKept: true},
		{name: "replaces an ID with spaces", header: "drop table"},
		{name: "replaces an ID with a newline", header: "abc\nlevel=error"},
		{name: "replaces an overlong ID", header: strings.Repeat("a", 129)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(RequestID())
			router.GET("/patchwork", func(c *gin.Context) {
				assert.Equal(t, GetRequestID(c), RequestIDFromContext(c.Request.Context()))
				c.String(http.StatusOK, GetRequestID(c))
			})

			req := httptest.NewRequest(http.MethodGet, "/patchwork", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			id := w.Body.String()
			assert.Equal(t, id, w.Header().Get(RequestIDHeader))
			if tt.wantKept {
				assert.Equal(t, tt.header, id)
				return
			}
			_, err := uuid.Parse(id)
			assert.NoError(t, err)
		})
	}
}

func TestRequestID_Lookups(t *testing.T) {
	t.Run("gin context without ID", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		assert.Empty(t, GetRequestID(c))
	})

	t.Run("gin context with ID", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(string(RequestIDKey), "req-9")
		assert.Equal(t, "req-9", GetRequestID(c))
	})

	t.Run("request context without ID", func(t *testing.T) {
		assert.Empty(t, RequestIDFromContext(context.Background()))
	})

	t.Run("request context keeps the ID after WithoutCancel", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), RequestIDKey, "req-10")
		assert.Equal(t, "req-10", RequestIDFromContext(context.WithoutCancel(ctx)))
	})
}
