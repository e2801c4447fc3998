package batch

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/mogaika/hsf_browser/catalog"
	"github.com/mogaika/hsf_browser/hsf"
	"github.com/mogaika/hsf_browser/imgexport"
	"github.com/mogaika/hsf_browser/status"
	"github.com/mogaika/hsf_browser/utils"
	"github.com/mogaika/hsf_browser/utils/gltfutils"
)

// Config holds all shared resources for a batch run.
type Config struct {
	OutputDir string
	Formats   []imgexport.Format
	GLTF      bool
	Workers   int
	// Options is called once per file, decoders of string table
	// are not safe to share between goroutines. nil means defaults.
	Options func() *hsf.Options
	// optional
	Catalog *catalog.Catalog
	// Dump is called with decoded scene, used by -dump
	Dump func(file string, s *hsf.Scene)
}

// Result holds the outcome of processing one file.
type Result struct {
	File     string
	Name     string
	Images   []string
	GLB      string
	Summary  string
	Warnings []string
	Success  bool
	Error    string
}

// SceneName is base file name without .hsf or .hsf.lz4 suffix
func SceneName(file string) string {
	base := filepath.Base(file)
	lower := strings.ToLower(base)
	for _, ext := range []string{".hsf.lz4", ".hsf"} {
		if strings.HasSuffix(lower, ext) {
			base = base[:len(base)-len(ext)]
			break
		}
	}
	return utils.SanitizeFileName(base)
}

// SceneNames returns SceneName of every file, inputs sharing base name
// in different directories get counter suffix in order of appearance
func SceneNames(files []string) []string {
	var unique utils.UniqueNames
	names := make([]string, len(files))
	for i, file := range files {
		names[i] = unique.Get(SceneName(file))
	}
	return names
}

// Run processes all files using a worker pool. Files not started
// before ctx is done are returned with error.
func Run(ctx context.Context, cfg Config, files []string) []Result {
	total := len(files)
	results := make([]Result, total)
	names := SceneNames(files)
	var processed, failed atomic.Int64

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	start := time.Now()

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					log.Printf("[batch] %d/%d files (%d failed) %.1f files/sec", p, total, failed.Load(), rate)
				}
			}
		}
	}()

	fileChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range fileChan {
				results[idx] = processFile(ctx, cfg, files[idx], names[idx])
				if !results[idx].Success {
					failed.Add(1)
				}
				p := processed.Add(1)
				status.Progress(float32(p)/float32(total), "exported %s", results[idx].Name)
			}
		}()
	}

	canceled := func(from int) {
		for j := from; j < total; j++ {
			results[j] = Result{File: files[j], Name: names[j], Error: ctx.Err().Error()}
		}
	}
send:
	for i := range files {
		if ctx.Err() != nil {
			canceled(i)
			break
		}
		select {
		case fileChan <- i:
		case <-ctx.Done():
			canceled(i)
			break send
		}
	}
	close(fileChan)

	wg.Wait()
	close(done)

	log.Printf("[batch] %d files done in %v, %d failed", processed.Load(), time.Since(start).Round(time.Millisecond), failed.Load())
	return results
}

func processFile(ctx context.Context, cfg Config, file, name string) Result {
	r := Result{File: file, Name: name}

	var opts *hsf.Options
	if cfg.Options != nil {
		opts = cfg.Options()
	}

	scene, err := hsf.ReadFile(file, opts)
	if cfg.Catalog != nil {
		var size int64
		if st, serr := os.Stat(file); serr == nil {
			size = st.Size()
		}
		if cerr := cfg.Catalog.Record(ctx, file, size, scene, err); cerr != nil {
			log.Printf("[batch] catalog %s: %v", file, cerr)
			r.Warnings = append(r.Warnings, cerr.Error())
		}
	}
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.Summary = scene.Report.Summary()
	r.Warnings = append(r.Warnings, scene.Report.Messages()...)

	if cfg.Dump != nil {
		cfg.Dump(file, scene)
	}

	if err := writeTextures(cfg, &r, scene); err != nil {
		r.Error = err.Error()
		return r
	}
	if cfg.GLTF {
		if err := writeGLB(cfg, &r, scene); err != nil {
			r.Warnings = append(r.Warnings, err.Error())
		}
	}

	r.Success = true
	return r
}

func writeTextures(cfg Config, r *Result, scene *hsf.Scene) error {
	if len(cfg.Formats) == 0 || len(scene.Textures) == 0 {
		return nil
	}
	dir := filepath.Join(cfg.OutputDir, r.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}

	var names utils.UniqueNames
	for _, tex := range scene.Textures {
		name := names.Get(utils.SanitizeFileName(tex.Name))
		if tex.Image == nil {
			r.Warnings = append(r.Warnings, "texture "+tex.Name+": "+tex.Error)
			continue
		}
		for _, f := range cfg.Formats {
			rel := filepath.Join(r.Name, name+f.Extension())
			if err := writeImage(filepath.Join(cfg.OutputDir, rel), tex, f); err != nil {
				return err
			}
			r.Images = append(r.Images, filepath.ToSlash(rel))
		}
	}
	return nil
}

func writeImage(path string, tex *hsf.Texture, f imgexport.Format) error {
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if err := imgexport.Encode(out, tex.Image, f); err != nil {
		out.Close()
		return errors.Wrapf(err, "texture %q", tex.Name)
	}
	return out.Close()
}

func writeGLB(cfg Config, r *Result, scene *hsf.Scene) error {
	doc, err := hsf.ExportGLTF(scene)
	if err != nil {
		return errors.Wrapf(err, "gltf export")
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return errors.Wrapf(err, "creating %s", cfg.OutputDir)
	}
	rel := r.Name + ".glb"
	out, err := os.Create(filepath.Join(cfg.OutputDir, rel))
	if err != nil {
		return errors.Wrapf(err, "creating glb")
	}
	if err := gltfutils.ExportBinary(out, doc); err != nil {
		out.Close()
		return errors.Wrapf(err, "writing glb")
	}
	if err := out.Close(); err != nil {
		return err
	}
	r.GLB = rel
	return nil
}
