package web

import (
	"log"
	"net/http"
	"os"
	"path"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/mogaika/hsf_browser/catalog"
	"github.com/mogaika/hsf_browser/hsf"
	"github.com/mogaika/hsf_browser/status"
	"github.com/mogaika/hsf_browser/vfs"
)

// Server browses directory of scene files. Decoded scenes are
// kept in memory until process exits.
type Server struct {
	dir     vfs.Directory
	options func() *hsf.Options
	catalog *catalog.Catalog

	lock   sync.Mutex
	scenes map[string]*hsf.Scene
}

// NewServer creates browser of d. options is called once per decode,
// cat is optional.
func NewServer(d vfs.Directory, options func() *hsf.Options, cat *catalog.Catalog) *Server {
	return &Server{
		dir:     d,
		options: options,
		catalog: cat,
		scenes:  make(map[string]*hsf.Scene),
	}
}

func (s *Server) Router(webPath string) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/json/files", s.HandlerAjaxFiles)
	r.HandleFunc("/json/scene/{file}", s.HandlerAjaxScene)
	r.HandleFunc("/json/catalog", s.HandlerAjaxCatalog)
	r.HandleFunc("/json/catalog/entry", s.HandlerAjaxCatalogFile).Queries("path", "{path}")
	r.HandleFunc("/texture/{file}/{index:[0-9]+}.{ext}", s.HandlerTexture)
	r.HandleFunc("/thumb/{file}/{index:[0-9]+}", s.HandlerThumbnail)
	r.HandleFunc("/export/{file:[^/]+}.glb", s.HandlerExportGLB)
	r.HandleFunc("/dump/scene/{file}", s.HandlerDumpScene)
	r.HandleFunc("/ws/status", status.HandlerWebsocket)

	if webPath != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(path.Join(webPath, "data"))))
	}
	return r
}

func StartServer(addr string, s *Server, webPath string) error {
	var h http.Handler = s.Router(webPath)
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
	h = handlers.LoggingHandler(os.Stdout, h)

	log.Printf("[web] Starting server %v", addr)

	return http.ListenAndServe(addr, h)
}
