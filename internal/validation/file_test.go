package validation

import (
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(10<<20))
	return req.MultipartForm.File["avatar"][0]
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestFileAcceptsPNG(t *testing.T) {
	header := makeFileHeader(t, "me.png", pngBytes(t))
	assert.NoError(t, File(header, ImageConstraints))
}

func TestFileRejectsForgedExtension(t *testing.T) {
	// Text content dressed up with an image extension.
	header := makeFileHeader(t, "me.png", []byte("definitely not an image"))
	assert.Error(t, File(header, ImageConstraints))
}

func TestFileRejectsWrongExtension(t *testing.T) {
	header := makeFileHeader(t, "me.pdf", pngBytes(t))
	assert.Error(t, File(header, ImageConstraints))
}

func TestFileRejectsOversize(t *testing.T) {
	constraints := ImageConstraints
	constraints.MaxSize = 10
	header := makeFileHeader(t, "me.png", pngBytes(t))
	assert.Error(t, File(header, constraints))
}
