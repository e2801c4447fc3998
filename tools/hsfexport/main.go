package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mogaika/hsf_browser/batch"
	"github.com/mogaika/hsf_browser/catalog"
	"github.com/mogaika/hsf_browser/config"
	"github.com/mogaika/hsf_browser/hsf"
	"github.com/mogaika/hsf_browser/utils"
	"github.com/mogaika/hsf_browser/vfs"
)

// inputFiles expands directories to scene files inside them
func inputFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			files = append(files, arg)
			continue
		}
		names, err := vfs.ListFiltered(vfs.NewDirectoryDriver(arg), hsf.IsSceneFile)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			files = append(files, filepath.Join(arg, name))
		}
	}
	return files, nil
}

func main() {
	var settingsPath, formats string
	var dump bool
	var flags config.Flags
	flag.StringVar(&settingsPath, "config", "", "Path to yaml settings file (default "+config.DefaultSettingsFile+")")
	flag.StringVar(&flags.Output, "o", "", "Output directory (default <dir>/export)")
	flag.StringVar(&formats, "formats", "", "Comma separated texture formats: png, webp, tga, bmp, tiff")
	flag.BoolVar(&flags.GLTF, "gltf", false, "Write binary gltf of every scene")
	flag.IntVar(&flags.Workers, "workers", 0, "Files decoded in parallel (default cpu count)")
	flag.StringVar(&flags.Normals, "normals", "", "Normals format: auto, byte or float")
	flag.StringVar(&flags.Encoding, "encoding", "", "String table encoding: utf-8, shift-jis or charmap name")
	flag.StringVar(&flags.Catalog, "catalog", "", "Record results to sqlite catalog")
	flag.BoolVar(&flags.Verbose, "v", false, "Trace parser to stderr")
	flag.BoolVar(&dump, "dump", false, "Print decoded scenes")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] file.hsf|dir...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if formats != "" {
		flags.ImageFormats = strings.Split(formats, ",")
	}

	settings, err := config.Load(settingsPath)
	if err != nil {
		log.Fatal(err)
	}
	if flags.Output == "" && settings.Output == "" && flag.NArg() == 1 {
		if st, err := os.Stat(flag.Arg(0)); err == nil && st.IsDir() {
			flags.Dir = flag.Arg(0)
		}
	}
	if err := settings.Resolve(flags); err != nil {
		log.Fatal(err)
	}
	imageFormats, _ := settings.Formats()

	files, err := inputFiles(flag.Args())
	if err != nil {
		log.Fatal(err)
	}

	cfg := batch.Config{
		OutputDir: settings.Output,
		Formats:   imageFormats,
		GLTF:      settings.GLTF,
		Workers:   settings.Workers,
		Options:   settings.DecodeOptions,
	}
	if settings.Catalog != "" {
		if cfg.Catalog, err = catalog.Open(settings.Catalog); err != nil {
			log.Fatal(err)
		}
		defer cfg.Catalog.Close()
	}
	if dump {
		var lock sync.Mutex
		cfg.Dump = func(file string, s *hsf.Scene) {
			lock.Lock()
			defer lock.Unlock()
			fmt.Printf("==== %s\n%s", file, utils.SDump(s.WithoutPixels()))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results := batch.Run(ctx, cfg, files)

	if err := os.MkdirAll(settings.Output, 0755); err != nil {
		log.Fatal(err)
	}
	if err := batch.WriteManifest(filepath.Join(settings.Output, "manifest.json"), results); err != nil {
		log.Printf("[batch] manifest: %v", err)
	}

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
			fmt.Printf("%s: FAILED %s\n", r.File, r.Error)
			continue
		}
		fmt.Printf("%s: %s\n", r.File, r.Summary)
		for _, w := range r.Warnings {
			fmt.Printf("    %s\n", w)
		}
	}
	fmt.Printf("%d files, %d failed\n", len(results), failed)
	if failed != 0 {
		if cfg.Catalog != nil {
			cfg.Catalog.Close()
		}
		os.Exit(1)
	}
}
