package controllers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"backend/services"

	"github.com/gin-gonic/gin"
)

func TestRespondErrStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err  error
		want int
	}{
		{services.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", services.ErrNotFound), http.StatusNotFound},
		{services.ErrValidation, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", services.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		respondErr(c, tc.err)

		if w.Code != tc.want {
			t.Errorf("%v: expected status %d, got %d", tc.err, tc.want, w.Code)
		}
	}
}

func TestUserIDFromCtx(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	if _, ok := userIDFromCtx(c); ok {
		t.Error("missing userID should not resolve")
	}

	c.Set("userID", uint(42))
	id, ok := userIDFromCtx(c)
	if !ok || id != 42 {
		t.Errorf("expected 42, got %d (ok=%v)", id, ok)
	}

	c.Set("userID", "not-a-number")
	if _, ok := userIDFromCtx(c); ok {
		t.Error("non-numeric userID should not resolve")
	}
}
