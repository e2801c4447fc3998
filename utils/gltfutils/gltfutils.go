package gltfutils

import (
	"io"

	"github.com/qmuntal/gltf"
)

// GLTFCacher keeps already exported objects of document so shared
// textures and materials are written once
type GLTFCacher struct {
	Doc   *gltf.Document
	cache map[interface{}]interface{}
}

func NewCacher() *GLTFCacher {
	return &GLTFCacher{
		Doc:   gltf.NewDocument(),
		cache: make(map[interface{}]interface{}),
	}
}

func (gc *GLTFCacher) AddCache(key interface{}, value interface{}) {
	gc.cache[key] = value
}

func (gc *GLTFCacher) GetCached(key interface{}) (interface{}, bool) {
	v, ok := gc.cache[key]
	return v, ok
}

// ExportBinary writes document as GLB. Scene roots must be set already.
func ExportBinary(w io.Writer, doc *gltf.Document) error {
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}
