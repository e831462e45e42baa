package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/ingest"
	"github.com/phrazzld/studyquest/internal/mocks"
	"github.com/phrazzld/studyquest/internal/platform/logger"
	"github.com/phrazzld/studyquest/internal/preview"
	"github.com/phrazzld/studyquest/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fileFixture struct {
	router   chi.Router
	ingest   *ingest.Store
	meta     *mocks.MockFileRecordStore
	previews *preview.Registry
}

func newFileFixture(t *testing.T, maxUpload int64) *fileFixture {
	t.Helper()
	log, _ := logger.NewTestLogger()
	meta := mocks.NewMockFileRecordStore("test", nil)
	previews := preview.NewRegistry(log)
	files := ingest.NewStore(meta, previews, ingest.Config{SessionID: "test", MaxUploadBytes: maxUpload}, log)

	h := NewFileHandler(files, previews, maxUpload, log)
	r := chi.NewRouter()
	r.Post("/api/files", h.Upload)
	r.Get("/api/files", h.List)
	r.Delete("/api/files/{id}", h.Delete)
	r.Post("/api/files/{id}/previews", h.CreatePreview)
	r.Get("/api/previews/{token}", h.GetPreview)

	return &fileFixture{router: r, ingest: files, meta: meta, previews: previews}
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (f *fileFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestFileHandler_Upload(t *testing.T) {
	t.Run("creates records", func(t *testing.T) {
		f := newFileFixture(t, 0)
		body, contentType := multipartBody(t, map[string]string{"notes.txt": "Cells divide by mitosis."})
		req := httptest.NewRequest(http.MethodPost, "/api/files", body)
		req.Header.Set("Content-Type", contentType)

		rec := f.do(req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var result ingest.IngestResult
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
		require.Len(t, result.Records, 1)
		assert.Equal(t, "notes.txt", result.Records[0].Name)
		assert.True(t, result.Records[0].IsTextFile)
		assert.Empty(t, result.Warning)
		assert.Len(t, f.ingest.Records(), 1)
	})

	t.Run("no files", func(t *testing.T) {
		f := newFileFixture(t, 0)
		body, contentType := multipartBody(t, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/files", body)
		req.Header.Set("Content-Type", contentType)

		rec := f.do(req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "No files were uploaded")
	})

	t.Run("not multipart", func(t *testing.T) {
		f := newFileFixture(t, 0)
		req := httptest.NewRequest(http.MethodPost, "/api/files", bytes.NewBufferString("{}"))
		req.Header.Set("Content-Type", "application/json")

		rec := f.do(req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("too large", func(t *testing.T) {
		f := newFileFixture(t, 4)
		body, contentType := multipartBody(t, map[string]string{"big.txt": "more than four bytes"})
		req := httptest.NewRequest(http.MethodPost, "/api/files", body)
		req.Header.Set("Content-Type", contentType)

		rec := f.do(req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Empty(t, f.ingest.Records())
	})

	t.Run("quota exceeded keeps records and warns", func(t *testing.T) {
		f := newFileFixture(t, 0)
		f.meta.SaveFn = func(ctx context.Context, sessionID string, records []domain.FileRecord) error {
			return store.NewStoreError("file_record", "save", "disk full", store.ErrStorageQuotaExceeded)
		}
		body, contentType := multipartBody(t, map[string]string{"notes.txt": "text"})
		req := httptest.NewRequest(http.MethodPost, "/api/files", body)
		req.Header.Set("Content-Type", contentType)

		rec := f.do(req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var result ingest.IngestResult
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
		assert.Contains(t, result.Warning, "Storage is full")
		assert.Len(t, f.ingest.Records(), 1)
	})
}

func TestFileHandler_ListAndDelete(t *testing.T) {
	f := newFileFixture(t, 0)
	added, err := f.ingest.Ingest(context.Background(), []ingest.Upload{
		{Name: "a.txt", Data: []byte("a")},
		{Name: "b.pdf", Data: []byte("%PDF")},
	})
	require.NoError(t, err)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/files", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list FileListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list.Files, 2)
	assert.Equal(t, "a.txt", list.Files[0].Name)
	assert.Equal(t, "b.pdf", list.Files[1].Name)

	rec = f.do(httptest.NewRequest(http.MethodDelete, "/api/files/"+added.Records[0].ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, f.ingest.Records(), 1)
	assert.Equal(t, "b.pdf", f.ingest.Records()[0].Name)

	rec = f.do(httptest.NewRequest(http.MethodDelete, "/api/files/"+added.Records[0].ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code, "deleting twice succeeds")
}

func TestFileHandler_ListSearchAndCategory(t *testing.T) {
	f := newFileFixture(t, 0)
	_, err := f.ingest.Ingest(context.Background(), []ingest.Upload{
		{Name: "Cell Biology.pdf", Data: []byte("%PDF")},
		{Name: "mitosis.png", Data: []byte{0x89}},
		{Name: "biome-notes.txt", Data: []byte("tundra")},
	})
	require.NoError(t, err)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/files?q=BIO", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list FileListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list.Files, 2)
	assert.Equal(t, "Cell Biology.pdf", list.Files[0].Name)
	assert.Equal(t, domain.CategoryDocuments, list.Files[0].Category)
	assert.Equal(t, "biome-notes.txt", list.Files[1].Name)
	assert.Equal(t, domain.CategoryOthers, list.Files[1].Category)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/files?q=chemistry", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"files":[]}`, rec.Body.String())

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/files", nil))
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list.Files, 3)
	assert.Equal(t, domain.CategoryImages, list.Files[1].Category)
}

func TestFileHandler_Previews(t *testing.T) {
	f := newFileFixture(t, 0)
	added, err := f.ingest.Ingest(context.Background(), []ingest.Upload{
		{Name: "notes.txt", MediaType: "text/plain", Data: []byte("photosynthesis")},
	})
	require.NoError(t, err)
	id := added.Records[0].ID

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/files/"+id+"/previews", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created PreviewResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.NotEmpty(t, created.Token)
	assert.Equal(t, "/api/previews/"+created.Token, created.URL)

	rec = f.do(httptest.NewRequest(http.MethodGet, created.URL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "photosynthesis", rec.Body.String())

	rec = f.do(httptest.NewRequest(http.MethodDelete, "/api/files/"+id, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, created.URL, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "deleting the file releases its previews")

	rec = f.do(httptest.NewRequest(http.MethodPost, "/api/files/"+id+"/previews", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFileHandler_PreviewOfClosedSessionIsGone(t *testing.T) {
	f := newFileFixture(t, 0)
	added, err := f.ingest.Ingest(context.Background(), []ingest.Upload{{Name: "notes.txt", Data: []byte("x")}})
	require.NoError(t, err)
	f.ingest.Close(context.Background())

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/files/"+added.Records[0].ID+"/previews", nil))
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Zero(t, f.previews.Len())
}

// racingFiles starts a Delete of the same file just before every preview
// request reaches the store.
type racingFiles struct {
	*ingest.Store
	deletes sync.WaitGroup
}

func (r *racingFiles) CreatePreview(ctx context.Context, id string) (preview.Handle, error) {
	r.deletes.Add(1)
	go func() {
		defer r.deletes.Done()
		_, _ = r.Store.Delete(ctx, id)
	}()
	return r.Store.CreatePreview(ctx, id)
}

func TestFileHandler_PreviewRacingDeleteLeavesNoLiveHandle(t *testing.T) {
	log, _ := logger.NewTestLogger()
	previews := preview.NewRegistry(log)

	for i := 0; i < 20; i++ {
		files := &racingFiles{Store: ingest.NewStore(mocks.NewMockFileRecordStore("test", nil), previews, ingest.Config{SessionID: "test"}, log)}
		h := NewFileHandler(files, previews, 0, log)
		r := chi.NewRouter()
		r.Post("/api/files/{id}/previews", h.CreatePreview)
		r.Get("/api/previews/{token}", h.GetPreview)

		added, err := files.Ingest(context.Background(), []ingest.Upload{{Name: "cell.txt", Data: []byte("nucleus")}})
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/files/"+added.Records[0].ID+"/previews", nil))
		files.deletes.Wait()

		_, exists := files.Record(added.Records[0].ID)
		require.False(t, exists)
		assert.Zero(t, previews.Len(), "no handle may outlive its file")

		switch rec.Code {
		case http.StatusCreated:
			var created PreviewResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
			get := httptest.NewRecorder()
			r.ServeHTTP(get, httptest.NewRequest(http.MethodGet, created.URL, nil))
			assert.Equal(t, http.StatusNotFound, get.Code)
		case http.StatusNotFound:
		default:
			t.Fatalf("unexpected status %d", rec.Code)
		}
	}
}
