package web

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mogaika/hsf_browser/hsf"
	"github.com/mogaika/hsf_browser/imgexport"
	"github.com/mogaika/hsf_browser/status"
	"github.com/mogaika/hsf_browser/utils"
	"github.com/mogaika/hsf_browser/utils/gltfutils"
	"github.com/mogaika/hsf_browser/vfs"
	"github.com/mogaika/hsf_browser/webutils"
)

const ThumbnailSize = 64

var errNoCatalog = errors.New("catalog is not configured")

// scene returns decoded scene of file, decoding it on first request
func (s *Server) scene(file string) (*hsf.Scene, error) {
	s.lock.Lock()
	scene, ok := s.scenes[file]
	s.lock.Unlock()
	if ok {
		return scene, nil
	}

	if !hsf.IsSceneFile(file) {
		return nil, os.ErrNotExist
	}
	f, err := vfs.DirectoryGetFile(s.dir, file)
	if err != nil {
		return nil, errors.Wrapf(os.ErrNotExist, "%v", err)
	}
	data, err := vfs.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if data, err = hsf.Unpack(data); err != nil {
		return nil, err
	}

	var opts *hsf.Options
	if s.options != nil {
		opts = s.options()
	}
	if scene, err = hsf.Decode(data, opts); err != nil {
		status.Error("%s: %v", file, err)
		return nil, errors.Wrapf(err, "decoding %q", file)
	}
	log.Printf("[web] decoded %s: %s", file, scene.Report.Summary())
	status.Info("%s: %s", file, scene.Report.Summary())

	s.lock.Lock()
	// concurrent request may have decoded it already
	if cached, ok := s.scenes[file]; ok {
		scene = cached
	} else {
		s.scenes[file] = scene
	}
	s.lock.Unlock()
	return scene, nil
}

func writeSceneError(w http.ResponseWriter, err error) {
	if errors.Is(err, os.ErrNotExist) {
		webutils.WriteErrorCode(w, err, http.StatusNotFound)
	} else {
		webutils.WriteError(w, err)
	}
}

func (s *Server) texture(w http.ResponseWriter, r *http.Request) (*hsf.Texture, bool) {
	vars := mux.Vars(r)
	scene, err := s.scene(vars["file"])
	if err != nil {
		writeSceneError(w, err)
		return nil, false
	}
	index, err := strconv.Atoi(vars["index"])
	if err != nil || index < 0 || index >= len(scene.Textures) {
		webutils.WriteErrorCode(w, errors.Errorf("texture %q not found", vars["index"]), http.StatusNotFound)
		return nil, false
	}
	tex := scene.Textures[index]
	if tex.Image == nil {
		webutils.WriteError(w, errors.Errorf("texture %q was not decoded: %s", tex.Name, tex.Error))
		return nil, false
	}
	return tex, true
}

func (s *Server) HandlerAjaxFiles(w http.ResponseWriter, r *http.Request) {
	if files, err := vfs.ListFiltered(s.dir, hsf.IsSceneFile); err != nil {
		webutils.WriteError(w, err)
	} else {
		webutils.WriteJson(w, files)
	}
}

func (s *Server) HandlerAjaxScene(w http.ResponseWriter, r *http.Request) {
	scene, err := s.scene(mux.Vars(r)["file"])
	if err != nil {
		writeSceneError(w, err)
		return
	}
	webutils.WriteJson(w, scene.Marshal())
}

func (s *Server) HandlerTexture(w http.ResponseWriter, r *http.Request) {
	f, err := imgexport.ParseFormat(mux.Vars(r)["ext"])
	if err != nil {
		webutils.WriteErrorCode(w, err, http.StatusNotFound)
		return
	}
	if tex, ok := s.texture(w, r); ok {
		webutils.WriteImage(w, tex.Image, f)
	}
}

func (s *Server) HandlerThumbnail(w http.ResponseWriter, r *http.Request) {
	if tex, ok := s.texture(w, r); ok {
		webutils.WriteImage(w, imgexport.Thumbnail(tex.Image, ThumbnailSize), imgexport.PNG)
	}
}

func (s *Server) HandlerExportGLB(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	scene, err := s.scene(file)
	if err != nil {
		writeSceneError(w, err)
		return
	}
	doc, err := hsf.ExportGLTF(scene)
	if err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "gltf export"))
		return
	}
	var buf bytes.Buffer
	if err := gltfutils.ExportBinary(&buf, doc); err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "glb encode"))
		return
	}
	webutils.WriteFile(w, &buf, file+".glb")
}

func (s *Server) HandlerDumpScene(w http.ResponseWriter, r *http.Request) {
	scene, err := s.scene(mux.Vars(r)["file"])
	if err != nil {
		writeSceneError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	utils.FDump(w, scene.WithoutPixels())
}

func (s *Server) HandlerAjaxCatalog(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		webutils.WriteErrorCode(w, errNoCatalog, http.StatusNotFound)
		return
	}
	if files, err := s.catalog.Files(r.Context()); err != nil {
		webutils.WriteError(w, err)
	} else {
		webutils.WriteJson(w, files)
	}
}

func (s *Server) HandlerAjaxCatalogFile(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		webutils.WriteErrorCode(w, errNoCatalog, http.StatusNotFound)
		return
	}
	result, err := s.catalogFile(r.Context(), mux.Vars(r)["path"])
	if err != nil {
		webutils.WriteError(w, err)
	} else {
		webutils.WriteJson(w, result)
	}
}

func (s *Server) catalogFile(ctx context.Context, file string) (interface{}, error) {
	textures, err := s.catalog.Textures(ctx, file)
	if err != nil {
		return nil, err
	}
	warnings, err := s.catalog.Warnings(ctx, file)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"Textures": textures,
		"Warnings": warnings,
	}, nil
}
