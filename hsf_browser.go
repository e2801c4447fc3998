package main

import (
	"flag"
	"log"

	"github.com/mogaika/hsf_browser/catalog"
	"github.com/mogaika/hsf_browser/config"
	"github.com/mogaika/hsf_browser/vfs"
	"github.com/mogaika/hsf_browser/web"
)

func main() {
	var settingsPath string
	var flags config.Flags
	flag.StringVar(&settingsPath, "config", "", "Path to yaml settings file (default "+config.DefaultSettingsFile+")")
	flag.StringVar(&flags.Addr, "i", "", "Address of server (default :8000)")
	flag.StringVar(&flags.Dir, "dir", "", "Path to folder with hsf files")
	flag.StringVar(&flags.Encoding, "encoding", "", "String table encoding: utf-8, shift-jis or charmap name")
	flag.StringVar(&flags.Normals, "normals", "", "Normals format: auto, byte or float")
	flag.StringVar(&flags.Catalog, "catalog", "", "Path to sqlite catalog written by hsfexport")
	flag.BoolVar(&flags.Verbose, "v", false, "Trace parser to stderr")
	flag.Parse()

	settings, err := config.Load(settingsPath)
	if err != nil {
		log.Fatal(err)
	}
	if err := settings.Resolve(flags); err != nil {
		log.Fatal(err)
	}

	var cat *catalog.Catalog
	if settings.Catalog != "" {
		if cat, err = catalog.Open(settings.Catalog); err != nil {
			log.Fatal(err)
		}
		defer cat.Close()
	}

	srv := web.NewServer(vfs.NewDirectoryDriver(settings.Dir), settings.DecodeOptions, cat)
	if err := web.StartServer(settings.Addr, srv, "web"); err != nil {
		log.Fatal(err)
	}
}
