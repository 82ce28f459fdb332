package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestServerSecurity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := CreateServer([]string{"http://localhost:3000", "https://workshop.example.com"})
	r.GET("/testroute", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "success")
	})

	tests := []struct {
		name     string
		path     string
		origin   string
		wantCode int
		wantBody string
	}{
		{"health needs no origin", "/health", "", http.StatusOK, "healthy"},
		{"missing origin", "/testroute", "", http.StatusForbidden, "forbidden origin"},
		{"unknown origin", "/testroute", "http://evil.com", http.StatusForbidden, "forbidden origin"},
		{"allowed origin", "/testroute", "https://workshop.example.com", http.StatusOK, "success"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.origin != "" {
				req.Header.Add("Origin", tt.origin)
			}
			res := httptest.NewRecorder()

			r.ServeHTTP(res, req)

			assert.Equal(t, tt.wantCode, res.Code)
			assert.Equal(t, tt.wantBody, res.Body.String())
		})
	}
}

func TestServerCorsHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := CreateServer([]string{"http://localhost:3000"})
	r.GET("/testroute", func(ctx *gin.Context) { ctx.String(http.StatusOK, "success") })

	req := httptest.NewRequest(http.MethodGet, "/testroute", nil)
	req.Header.Add("Origin", "http://localhost:3000")
	res := httptest.NewRecorder()

	r.ServeHTTP(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "http://localhost:3000", res.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", res.Header().Get("Access-Control-Allow-Credentials"))
}
