package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-ordering-api/models"
	"food-ordering-api/services"
	"food-ordering-api/statemachine"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: items must not be empty", services.ErrValidation), http.StatusBadRequest},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("%w: order", services.ErrNotFound), http.StatusNotFound},
		{services.ErrEmailTaken, http.StatusConflict},
		{fmt.Errorf("%w: changed concurrently", services.ErrConflict), http.StatusConflict},
		{errors.New("pq: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondError(c, "TEST", tc.err)
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, "TEST", errors.New("pq: relation \"orders\" does not exist"))
	assert.NotContains(t, w.Body.String(), "pq:")
}

func TestRespondErrorTransitionBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	err := statemachine.CanTransition(models.StatusConfirmed, models.StatusDelivered)
	respondError(c, "TEST", fmt.Errorf("advance: %w", err))

	require.Equal(t, http.StatusConflict, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "confirmed", body["current_status"])
	assert.Equal(t, []interface{}{"preparing"}, body["valid_next_states"])
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	part, err := mw.CreateFormFile("profile_picture", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["profile_picture"][0]
}

func TestUploadStore(t *testing.T) {
	dir := t.TempDir()
	store := NewUploadStore(dir, 8)

	stored, err := store.Save(fileHeader(t, "Avatar.JPG", []byte("img")))
	require.NoError(t, err)
	assert.Equal(t, UploadPrefix, filepath.Dir(stored))
	assert.Equal(t, ".jpg", filepath.Ext(stored))
	assert.FileExists(t, filepath.Join(dir, filepath.Base(stored)))

	_, err = store.Save(fileHeader(t, "notes.txt", []byte("x")))
	assert.ErrorIs(t, err, errBadUpload)

	_, err = store.Save(fileHeader(t, "big.png", []byte("way too large")))
	assert.ErrorIs(t, err, errBadUpload)

	outside := filepath.Join(t.TempDir(), "keep.png")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))
	store.Remove("../" + filepath.Base(filepath.Dir(outside)) + "/keep.png")
	assert.FileExists(t, outside)

	store.Remove(stored)
	assert.NoFileExists(t, filepath.Join(dir, filepath.Base(stored)))
	store.Remove(stored)
}
