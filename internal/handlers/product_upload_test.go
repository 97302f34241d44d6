package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
)

func uploadRequest(t *testing.T, path, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func uploadRouter(products ProductStore, bus Publisher, root string) *gin.Engine {
	r := newEngine()
	r.POST("/api/admin/products/:id/images", UploadProductImage(products, bus, root))
	r.DELETE("/api/admin/products/:id/images", RemoveProductImage(products, bus, root))
	return r
}

func TestUploadAndRemoveProductImage(t *testing.T) {
	root := t.TempDir()
	products := newMemProducts(models.Product{Title: "Lamp", Category: "Home", IsActive: true, Images: models.StringList{"https://cdn.example.com/lamp.jpg"}})
	id := products.order[0]
	bus := &recordingPublisher{}
	r := uploadRouter(products, bus, root)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/admin/products/"+id.Hex()+"/images", "Photo.PNG", []byte("fake-png")))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	images := products.items[id].Images
	require.Len(t, images, 2)
	saved := images[1]
	assert.True(t, strings.HasPrefix(saved, "/uploads/products/"), saved)
	assert.True(t, strings.HasSuffix(saved, ".png"), saved)

	onDisk := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(saved, "/")))
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, "fake-png", string(data))

	w = doJSON(t, r, http.MethodDelete, "/api/admin/products/"+id.Hex()+"/images?path="+saved, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StringList{"https://cdn.example.com/lamp.jpg"}, products.items[id].Images)
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	w = doJSON(t, r, http.MethodDelete, "/api/admin/products/"+id.Hex()+"/images?path="+saved, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Len(t, bus.types(), 2)
}

func TestUploadProductImageRejectsUnsupportedType(t *testing.T) {
	root := t.TempDir()
	products := newMemProducts(models.Product{Title: "Lamp", Category: "Home", IsActive: true})
	id := products.order[0]
	r := uploadRouter(products, &recordingPublisher{}, root)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/admin/products/"+id.Hex()+"/images", "anim.gif", []byte("GIF89a")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, products.items[id].Images)

	entries, _ := os.ReadDir(filepath.Join(root, "uploads", "products"))
	assert.Empty(t, entries)

	w = doJSON(t, r, http.MethodPost, "/api/admin/products/"+id.Hex()+"/images", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSafeDeleteUpload(t *testing.T) {
	root := t.TempDir()

	assert.NoError(t, safeDeleteUpload(root, ""))
	assert.NoError(t, safeDeleteUpload(root, "/uploads/products/missing.png"))
	assert.Error(t, safeDeleteUpload(root, "/uploads/products/../../secrets.txt"))
	assert.Error(t, safeDeleteUpload(root, "/etc/passwd"))

	dir := filepath.Join(root, "uploads", "products")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	target := filepath.Join(dir, "x.webp")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	require.NoError(t, safeDeleteUpload(root, "uploads/products/x.webp"))
	_, err := os.Stat(target)
	assert.True(t, os.IsNotExist(err))
}
