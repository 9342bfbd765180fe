package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) JSONResponse {
	t.Helper()
	var resp JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestFailMapsAppErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   int
	}{
		{NotFound(40401, "post not found"), http.StatusNotFound, 40401},
		{Forbidden(""), http.StatusForbidden, ForbiddenCode},
		{Validation(40001, "title is required"), http.StatusBadRequest, 40001},
		{Unauthorized(40101, "login required"), http.StatusUnauthorized, 40101},
		{Conflict(40901, "username already exists"), http.StatusConflict, 40901},
		{fmt.Errorf("load post: %w", NotFound(40402, "gone")), http.StatusNotFound, 40402},
		{errors.New("db down"), http.StatusInternalServerError, 50000},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		Fail(ctx, tc.err)

		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.Equal(t, tc.code, decode(t, w).Code)
		assert.True(t, ctx.IsAborted())
	}
}

func TestInternalErrorsHideDetails(t *testing.T) {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	Fail(ctx, errors.New("dial tcp 10.0.0.1: secret"))
	assert.Equal(t, "internal server error", decode(t, w).Message)
}

func TestErrorsIsByKind(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NotFound(40401, "post not found"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, Forbidden("x"), ErrForbidden)

	cause := errors.New("cause")
	assert.ErrorIs(t, Internal(50001, "failed", cause), cause)
}

func TestEnvelopeHelpers(t *testing.T) {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	SuccessMsg(ctx, "post #1 updated", Item(gin.H{"id": 1}))

	resp := decode(t, w)
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, "post #1 updated", resp.Message)
	data := resp.Data.(map[string]interface{})
	assert.Contains(t, data, "item")

	assert.Contains(t, Items([]int{1}), "items")
}
