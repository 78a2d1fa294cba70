package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	apperrors "github.com/kbukum/firekit/errors"
)

func testConfig(bucket string) Config {
	cfg := Config{Provider: ProviderLocal, Bucket: bucket}
	cfg.ApplyDefaults()
	return cfg
}

func TestRefGsURI(t *testing.T) {
	b := newMemBackend("media")
	r := NewRef(b, testConfig("media"), "/uploads/photo.png")

	if got := r.GsURI(); got != "gs://media/uploads/photo.png" {
		t.Fatalf("GsURI = %q", got)
	}
	if r.Name() != "photo.png" {
		t.Errorf("Name = %q", r.Name())
	}
	if r.Bucket() != "media" {
		t.Errorf("Bucket = %q", r.Bucket())
	}
}

func TestRefNavigation(t *testing.T) {
	b := newMemBackend("media")
	r := NewRef(b, testConfig("media"), "uploads")

	child := r.Child("2024/photo.png")
	if child.Path() != "uploads/2024/photo.png" {
		t.Errorf("Child path = %q", child.Path())
	}
	if child.Parent().Path() != "uploads/2024" {
		t.Errorf("Parent path = %q", child.Parent().Path())
	}
	if NewRef(b, testConfig("media"), "").Parent() != nil {
		t.Error("root ref must have no parent")
	}
}

func TestRefMetadataCachesUntilReset(t *testing.T) {
	b := newMemBackend("media")
	b.data["doc.txt"] = []byte("hello")
	b.types["doc.txt"] = "text/plain"

	r := NewRef(b, testConfig("media"), "doc.txt")

	info, err := r.Metadata(context.Background())
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if info.Size != 5 || info.ContentType != "text/plain" {
		t.Fatalf("info = %+v", info)
	}

	// Second read must come from cache even if the backend fails now.
	b.failOn = "metadata"
	if _, err := r.Metadata(context.Background()); err != nil {
		t.Fatalf("cached Metadata: %v", err)
	}

	r.Reset()
	if _, err := r.Metadata(context.Background()); err == nil {
		t.Fatal("Reset must drop the cache and hit the backend again")
	}
}

func TestRefDownloadURL(t *testing.T) {
	b := newMemBackend("media")
	b.data["doc.txt"] = []byte("hello")

	r := NewRef(b, testConfig("media"), "doc.txt")
	u, err := r.DownloadURL(context.Background())
	if err != nil {
		t.Fatalf("DownloadURL: %v", err)
	}
	if u != "https://storage.example.test/media/doc.txt" {
		t.Fatalf("url = %q", u)
	}
}

func TestRefDownloadURLPrefersSigned(t *testing.T) {
	b := &signedBackend{memBackend: newMemBackend("media")}
	b.data["doc.txt"] = []byte("hello")

	r := NewRef(b, testConfig("media"), "doc.txt")
	u, err := r.DownloadURL(context.Background())
	if err != nil {
		t.Fatalf("DownloadURL: %v", err)
	}
	if !strings.Contains(u, "sig=") {
		t.Fatalf("expected a signed url, got %q", u)
	}
}

func TestRefDownloadURLMissingObject(t *testing.T) {
	b := newMemBackend("media")
	r := NewRef(b, testConfig("media"), "missing.txt")

	_, err := r.DownloadURL(context.Background())
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.ErrCodeObjectNotFound {
		t.Fatalf("err = %v, want OBJECT_NOT_FOUND", err)
	}
}

func TestRefPutStoresObject(t *testing.T) {
	b := newMemBackend("media")
	r := NewRef(b, testConfig("media"), "notes/hello.txt")

	task := r.Put(context.Background(), strings.NewReader("hello world"), 11, "")
	if err := task.Wait(context.Background()); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if task.State() != StateSuccess {
		t.Fatalf("state = %s", task.State())
	}
	if string(b.data["notes/hello.txt"]) != "hello world" {
		t.Fatalf("stored = %q", b.data["notes/hello.txt"])
	}
	// Content type falls back to the extension.
	if ct := b.types["notes/hello.txt"]; !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type = %q", ct)
	}
}

func TestRefPutString(t *testing.T) {
	b := newMemBackend("media")
	r := NewRef(b, testConfig("media"), "greeting.txt")

	task, err := r.PutString(context.Background(), "hi there", FormatRaw, "text/plain")
	if err != nil {
		t.Fatalf("PutString: %v", err)
	}
	if err := task.Wait(context.Background()); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if string(b.data["greeting.txt"]) != "hi there" {
		t.Fatalf("stored = %q", b.data["greeting.txt"])
	}
}

func TestRefPutStringBase64(t *testing.T) {
	b := newMemBackend("media")
	r := NewRef(b, testConfig("media"), "blob.bin")

	task, err := r.PutString(context.Background(), "aGVsbG8=", FormatBase64, "application/octet-stream")
	if err != nil {
		t.Fatalf("PutString: %v", err)
	}
	if err := task.Wait(context.Background()); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if string(b.data["blob.bin"]) != "hello" {
		t.Fatalf("stored = %q", b.data["blob.bin"])
	}

	if _, err := r.PutString(context.Background(), "not base64!!!", FormatBase64, ""); err == nil {
		t.Fatal("invalid base64 must be rejected before upload")
	}
}

func TestRefDelete(t *testing.T) {
	b := newMemBackend("media")
	b.data["doc.txt"] = []byte("hello")

	r := NewRef(b, testConfig("media"), "doc.txt")
	if err := r.Delete(context.Background()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := b.data["doc.txt"]; ok {
		t.Fatal("object still present after delete")
	}

	err := r.Delete(context.Background())
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.ErrCodeObjectNotFound {
		t.Fatalf("deleting a missing object: err = %v, want OBJECT_NOT_FOUND", err)
	}
}

func TestRefDownload(t *testing.T) {
	b := newMemBackend("media")
	b.data["doc.txt"] = []byte("payload")

	r := NewRef(b, testConfig("media"), "doc.txt")
	rc, err := r.Download(context.Background())
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "payload" {
		t.Fatalf("data = %q", data)
	}
}
