package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type object struct {
	contentType string
	data        []byte
}

// MemoryStore keeps uploads in process and serves them back over HTTP.
// Mount it with the prefix stripped; URLs are baseURL + "/media/" + PublicID.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	folder  string
	objects map[string]object
}

func NewMemoryStore(baseURL, folder string) *MemoryStore {
	if folder == "" {
		folder = DefaultFolder
	}
	return &MemoryStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		folder:  folder,
		objects: make(map[string]object),
	}
}

func (m *MemoryStore) Upload(ctx context.Context, u Upload) (*Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if u.Body == nil {
		return nil, fmt.Errorf("upload body is required")
	}
	data, err := io.ReadAll(u.Body)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("upload is empty")
	}
	contentType := u.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	id := path.Join(m.folder, uuid.NewString()+extension(contentType))
	m.mu.Lock()
	m.objects[id] = object{contentType: contentType, data: data}
	m.mu.Unlock()

	return &Asset{URL: m.baseURL + "/media/" + id, PublicID: id}, nil
}

// Len reports how many objects are held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

func (m *MemoryStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/")

	m.mu.RLock()
	obj, ok := m.objects[id]
	m.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", obj.contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.data)))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = io.Copy(w, bytes.NewReader(obj.data))
}
