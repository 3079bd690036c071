package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microtask/microtask_backend/middleware"
	"github.com/microtask/microtask_backend/models"
	"github.com/microtask/microtask_backend/services"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{services.ErrAlreadyProcessed, http.StatusConflict},
		{services.ErrInsufficientFunds, http.StatusConflict},
		{&services.Error{Kind: services.KindValidation, Message: "bad"}, http.StatusBadRequest},
		{&services.Error{Kind: services.KindUnauthorized, Message: "who"}, http.StatusUnauthorized},
		{&services.Error{Kind: services.KindForbidden, Message: "no"}, http.StatusForbidden},
		{&services.Error{Kind: services.KindNotFound, Message: "gone"}, http.StatusNotFound},
		{errors.New("mongo exploded"), http.StatusInternalServerError},
	}

	e := echo.New()
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, respondError(c, quietLogger().WithField("test", true), tc.err))
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())

		var body models.Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, tc.status, body.Status)
		if tc.status == http.StatusInternalServerError {
			assert.NotContains(t, body.Message, "mongo")
		}
	}
}

type memoryUploader struct {
	names []string
}

func (m *memoryUploader) Upload(_ context.Context, name, _ string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	m.names = append(m.names, name)
	return "https://cdn.test/" + name, nil
}

func multipartImage(t *testing.T, field, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 4, 4))))

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func TestUploadImage(t *testing.T) {
	uploader := &memoryUploader{}
	uc := NewUploadController(services.NewUploadService(uploader, quietLogger()), quietLogger())
	e := echo.New()

	body, contentType := multipartImage(t, "file", "shot.png")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	middleware.SetIdentity(c, models.Identity{Email: "w@x.io", Role: models.RoleWorker})

	require.NoError(t, uc.UploadImage(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, uploader.names, 1)
	assert.Contains(t, rec.Body.String(), "https://cdn.test/"+uploader.names[0])
}

func TestUploadImageMissingField(t *testing.T) {
	uc := NewUploadController(services.NewUploadService(&memoryUploader{}, quietLogger()), quietLogger())
	e := echo.New()

	body, contentType := multipartImage(t, "image", "shot.png")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()

	require.NoError(t, uc.UploadImage(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
