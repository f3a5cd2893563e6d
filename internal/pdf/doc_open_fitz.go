package pdf

import (
	"image"

	fitz "github.com/gen2brain/go-fitz"
)

// nativeDPI matches the document's own coordinate space (1pt = 1px).
const nativeDPI = 72.0

// fitzOpener implements Opener using github.com/gen2brain/go-fitz.
type fitzOpener struct{}

func (fitzOpener) Open(path string) (Doc, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return fitzDoc{doc}, nil
}

// Ensure the default opener is the fitz-based implementation.
func init() {
	setDefaultOpener(fitzOpener{})
}

type fitzDoc struct{ *fitz.Document }

func (d fitzDoc) Image(i int) (image.Image, error) {
	return d.Document.ImageDPI(i, nativeDPI)
}
