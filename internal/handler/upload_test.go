package handler_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type uploadPart struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func doMultipartRequest(t *testing.T, r *gin.Engine, path, token string, parts []uploadPart) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, part := range parts {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition",
			`form-data; name="`+part.field+`"; filename="`+part.filename+`"`)
		header.Set("Content-Type", part.contentType)
		dst, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = dst.Write(part.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadImageRoundtrip(t *testing.T) {
	r := setupServer(t)
	token, _ := registerUser(t, r, "Alice", "alice@example.com")

	payload := []byte("fake png bytes")
	w := doMultipartRequest(t, r, "/api/uploads", token, []uploadPart{
		{field: "image", filename: "photo.png", contentType: "image/png", data: payload},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result struct {
		FilePath     string `json:"filePath"`
		Filename     string `json:"filename"`
		OriginalName string `json:"originalname"`
		Size         int64  `json:"size"`
	}
	decodeBody(t, w, &result)
	require.True(t, strings.HasPrefix(result.Filename, "puzzle-"))
	require.True(t, strings.HasSuffix(result.Filename, ".png"))
	require.Equal(t, "/api/uploads/"+result.Filename, result.FilePath)
	require.Equal(t, "photo.png", result.OriginalName)
	require.Equal(t, int64(len(payload)), result.Size)

	// Retrieval is public, no token needed.
	w = doRequest(t, r, http.MethodGet, result.FilePath, nil, requestOptions{})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/png", w.Header().Get("Content-Type"))
	require.Equal(t, payload, w.Body.Bytes())
}

func TestUploadMultipleImages(t *testing.T) {
	r := setupServer(t)
	token, _ := registerUser(t, r, "Alice", "alice@example.com")

	w := doMultipartRequest(t, r, "/api/uploads/multiple", token, []uploadPart{
		{field: "images", filename: "a.jpg", contentType: "image/jpeg", data: []byte("aaa")},
		{field: "images", filename: "b.webp", contentType: "image/webp", data: []byte("bbbb")},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Uploads []struct {
			Filename string `json:"filename"`
			Size     int64  `json:"size"`
		} `json:"uploads"`
	}
	decodeBody(t, w, &resp)
	require.Len(t, resp.Uploads, 2)
	require.Equal(t, int64(3), resp.Uploads[0].Size)
	require.True(t, strings.HasSuffix(resp.Uploads[1].Filename, ".webp"))
}

func TestUploadRejectsNonImages(t *testing.T) {
	r := setupServer(t)
	token, _ := registerUser(t, r, "Alice", "alice@example.com")

	w := doMultipartRequest(t, r, "/api/uploads", token, []uploadPart{
		{field: "image", filename: "notes.txt", contentType: "text/plain", data: []byte("hello")},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Only image files")
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	r := setupServer(t)
	token, _ := registerUser(t, r, "Alice", "alice@example.com")

	w := doMultipartRequest(t, r, "/api/uploads", token, []uploadPart{
		{field: "image", filename: "big.jpg", contentType: "image/jpeg", data: make([]byte, 5<<20+1)},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "5MB")
}

func TestUploadRequiresToken(t *testing.T) {
	r := setupServer(t)

	w := doMultipartRequest(t, r, "/api/uploads", "", []uploadPart{
		{field: "image", filename: "a.jpg", contentType: "image/jpeg", data: []byte("aaa")},
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDeleteUpload(t *testing.T) {
	r := setupServer(t)
	token, _ := registerUser(t, r, "Alice", "alice@example.com")

	w := doMultipartRequest(t, r, "/api/uploads", token, []uploadPart{
		{field: "image", filename: "gone.gif", contentType: "image/gif", data: []byte("gif")},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Filename string `json:"filename"`
	}
	decodeBody(t, w, &result)

	w = doRequest(t, r, http.MethodDelete, "/api/uploads/"+result.Filename, nil, requestOptions{token: token})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, r, http.MethodGet, "/api/uploads/"+result.Filename, nil, requestOptions{})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, r, http.MethodDelete, "/api/uploads/"+result.Filename, nil, requestOptions{token: token})
	require.Equal(t, http.StatusNotFound, w.Code)
}
