package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupSubscriptionRouter(opts *webpush.Options) *gin.Engine {
	r := gin.New()
	handler := NewHandler(Deps{WebPush: opts})
	r.PUT("/subscriptions", handler.PutSubscription)
	r.DELETE("/subscriptions", handler.DeleteSubscription)
	r.GET("/subscriptions", handler.GetSubscription)
	r.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	return r
}

func TestSubscriptionHandlers_BadRequests(t *testing.T) {
	router := setupSubscriptionRouter(nil)

	testCases := []struct {
		name   string
		method string
		target string
		want   string
	}{
		{"put without body", http.MethodPut, "/subscriptions", `{"error":"invalid request"}`},
		{"delete without body", http.MethodDelete, "/subscriptions", `{"error":"invalid request"}`},
		{"get without endpoint", http.MethodGet, "/subscriptions", `{"error":"endpoint is required"}`},
		{"get with empty endpoint", http.MethodGet, "/subscriptions?endpoint=", `{"error":"endpoint is required"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(tc.method, tc.target, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, tc.want, w.Body.String())
		})
	}
}

func TestGetVAPIDPublicKey(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/vapid_public_key", nil)
	setupSubscriptionRouter(nil).ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	setupSubscriptionRouter(&webpush.Options{VAPIDPublicKey: "BPub"}).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"public_key":"BPub"}`, w.Body.String())
}

func TestRawQueryParam(t *testing.T) {
	raw := "endpoint=https%3A%2F%2Fpush.example.com%2Fabc&x=1"

	v, ok := rawQueryParam(raw, "endpoint")
	assert.True(t, ok)
	assert.Equal(t, "https%3A%2F%2Fpush.example.com%2Fabc", v, "values are not decoded")

	_, ok = rawQueryParam(raw, "missing")
	assert.False(t, ok)
}
