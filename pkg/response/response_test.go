package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	appErrors "github.com/charlesng35/artisan/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSuccessWritesBareArray(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	Success(ctx, http.StatusOK, []gin.H{{"id": "a"}, {"id": "b"}})

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[{"id":"a"},{"id":"b"}]`, rec.Body.String())
}

func TestSuccessCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	Success(ctx, http.StatusCreated, gin.H{"name": "Textiles"})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"name":"Textiles"}`, rec.Body.String())
}

func TestMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	Message(ctx, http.StatusOK, "Product deleted successfully")

	require.JSONEq(t, `{"message":"Product deleted successfully"}`, rec.Body.String())
}

func TestErrorWithAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	Error(ctx, appErrors.ErrProductNotFound)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Product not found", body.Error)
	require.Equal(t, appErrors.ErrProductNotFound.Code, body.Code)
}

func TestErrorWithGenericError(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	Error(ctx, errors.New("boom"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, appErrors.ErrInternalServer.Message, body.Error)
	require.NotContains(t, rec.Body.String(), "boom")
}
