package web

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mogaika/hsf_browser/catalog"
	"github.com/mogaika/hsf_browser/hsf"
	"github.com/mogaika/hsf_browser/vfs"
)

// textureScene is file without nodes holding one 16x4 I8 texture "tex"
func textureScene() []byte {
	be := binary.BigEndian
	buf := make([]byte, hsf.HEADER_SIZE)
	copy(buf, hsf.HSF_MAGIC)
	pair := func(id hsf.SectionId, offset, count int) {
		be.PutUint32(buf[8+int(id)*8:], uint32(offset))
		be.PutUint32(buf[12+int(id)*8:], uint32(count))
	}

	pair(hsf.SECTION_TEXTURES, len(buf), 1)
	info := make([]byte, 32)
	info[8], info[9] = 1, 8
	be.PutUint16(info[10:], 16)
	be.PutUint16(info[12:], 4)
	be.PutUint32(info[20:], 0xffffffff)
	buf = append(buf, info...)
	for i := 0; i < 16*4; i++ {
		buf = append(buf, 0x40)
	}

	pair(hsf.SECTION_STRINGTABLE, len(buf), 4)
	return append(buf, "tex\x00"...)
}

func testServer(t *testing.T, cat *catalog.Catalog) (*Server, http.Handler) {
	t.Helper()
	dir := t.TempDir()
	for name, data := range map[string][]byte{
		"w01.hsf":    textureScene(),
		"bad.hsf":    []byte("BROKEN00"),
		"readme.txt": []byte("not a scene"),
	} {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			t.Fatal(err)
		}
	}
	s := NewServer(vfs.NewDirectoryDriver(dir), nil, cat)
	return s, s.Router("")
}

func get(h http.Handler, url string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func TestFiles(t *testing.T) {
	_, h := testServer(t, nil)
	rec := get(h, "/json/files")
	var files []string
	if err := json.Unmarshal(rec.Body.Bytes(), &files); err != nil {
		t.Fatalf("%v: %s", err, rec.Body.String())
	}
	if len(files) != 2 || files[0] != "bad.hsf" || files[1] != "w01.hsf" {
		t.Errorf("files %v; expected [bad.hsf w01.hsf]", files)
	}
}

func TestSceneJson(t *testing.T) {
	s, h := testServer(t, nil)
	rec := get(h, "/json/scene/w01.hsf")
	if rec.Code != http.StatusOK {
		t.Fatalf("code %d: %s", rec.Code, rec.Body.String())
	}
	var summary struct {
		Root     int
		Textures []hsf.TextureSummary
		Summary  string
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Root != -1 || len(summary.Textures) != 1 || summary.Textures[0].Format != "I8" || summary.Summary == "" {
		t.Errorf("summary %+v", summary)
	}
	if len(s.scenes) != 1 {
		t.Errorf("%d cached scenes; expected 1", len(s.scenes))
	}
	// second request is served from cache
	first := s.scenes["w01.hsf"]
	get(h, "/json/scene/w01.hsf")
	if s.scenes["w01.hsf"] != first {
		t.Errorf("scene decoded twice")
	}
}

func TestSceneErrors(t *testing.T) {
	_, h := testServer(t, nil)
	for _, c := range []struct {
		url  string
		code int
	}{
		{"/json/scene/missing.hsf", http.StatusNotFound},
		{"/json/scene/readme.txt", http.StatusNotFound},
		{"/json/scene/bad.hsf", http.StatusInternalServerError},
		{"/texture/w01.hsf/3.png", http.StatusNotFound},
		{"/texture/w01.hsf/0.jpeg", http.StatusNotFound},
		{"/json/catalog", http.StatusNotFound},
		// nothing to export without node tree
		{"/export/w01.hsf.glb", http.StatusInternalServerError},
	} {
		if rec := get(h, c.url); rec.Code != c.code {
			t.Errorf("GET %s=%d; expected %d", c.url, rec.Code, c.code)
		}
	}
}

func TestTextureAndThumbnail(t *testing.T) {
	_, h := testServer(t, nil)
	rec := get(h, "/texture/w01.hsf/0.png")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("texture code %d type %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 4 {
		t.Errorf("texture size %v; expected 16x4", b)
	}
	if r, _, _, a := img.At(3, 2).RGBA(); r>>8 != 0x40 || a>>8 != 0xff {
		t.Errorf("texture pixel %v", img.At(3, 2))
	}

	if rec := get(h, "/texture/w01.hsf/0.webp"); rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/webp" {
		t.Errorf("webp texture code %d type %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	// fits into thumbnail box already
	rec = get(h, "/thumb/w01.hsf/0")
	if img, err := png.Decode(rec.Body); err != nil || img.Bounds().Dx() != 16 {
		t.Errorf("thumbnail %v, %v", img, err)
	}
}

func TestDumpScene(t *testing.T) {
	_, h := testServer(t, nil)
	rec := get(h, "/dump/scene/w01.hsf")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"tex"`) {
		t.Errorf("dump code %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCatalog(t *testing.T) {
	cat, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()
	scene, err := hsf.Decode(textureScene(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := cat.Record(context.Background(), "/data/w01.hsf", 300, scene, nil); err != nil {
		t.Fatal(err)
	}

	_, h := testServer(t, cat)
	var files []catalog.FileEntry
	if err := json.Unmarshal(get(h, "/json/catalog").Body.Bytes(), &files); err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Path != "/data/w01.hsf" || files[0].Textures != 1 {
		t.Errorf("catalog files %+v", files)
	}

	var entry struct {
		Textures []catalog.TextureEntry
	}
	if err := json.Unmarshal(get(h, "/json/catalog/entry?path=/data/w01.hsf").Body.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	if len(entry.Textures) != 1 || entry.Textures[0].Name != "tex" {
		t.Errorf("catalog textures %+v", entry.Textures)
	}
}
