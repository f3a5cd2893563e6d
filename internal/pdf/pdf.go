package pdf

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/rs/zerolog/log"
)

// ErrDocumentAccess marks failures to open, read or parse the session document.
var ErrDocumentAccess = errors.New("document_access")

func IsDocumentAccess(err error) bool { return errors.Is(err, ErrDocumentAccess) }

// PageMIME is the fixed encoding for rendered pages.
const PageMIME = "image/png"

// PageImage is one losslessly encoded page raster, base64 payload.
type PageImage struct {
	Data string
	MIME string
}

// Doc abstracts an open PDF document for rendering.
type Doc interface {
	NumPage() int
	Image(i int) (image.Image, error)
	Close() error
}

// Opener abstracts opening a PDF path into a Doc.
type Opener interface {
	Open(path string) (Doc, error)
}

var defaultOpener Opener

func setDefaultOpener(o Opener) { defaultOpener = o }

// Extractor renders document pages to encoded images. It holds no state:
// results are cached by the caller, and RenderPages is expected to run at
// most once per document per session.
type Extractor struct {
	opener Opener
}

// NewExtractor returns an Extractor backed by the default (fitz) opener.
func NewExtractor() *Extractor { return &Extractor{opener: defaultOpener} }

// NewExtractorWith returns an Extractor backed by a custom opener.
func NewExtractorWith(o Opener) *Extractor { return &Extractor{opener: o} }

// RenderPages returns one PNG-encoded image per page, in page order, at the
// document's native resolution.
func (e *Extractor) RenderPages(path string) ([]PageImage, error) {
	doc, err := e.opener.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDocumentAccess, path, err)
	}
	defer doc.Close()

	n := doc.NumPage()
	pages := make([]PageImage, 0, n)
	var total int
	for i := 0; i < n; i++ {
		img, err := doc.Image(i)
		if err != nil {
			return nil, fmt.Errorf("%w: render page %d: %v", ErrDocumentAccess, i+1, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("%w: encode page %d: %v", ErrDocumentAccess, i+1, err)
		}
		total += buf.Len()
		pages = append(pages, PageImage{
			Data: base64.StdEncoding.EncodeToString(buf.Bytes()),
			MIME: PageMIME,
		})
	}

	log.Debug().Int("pages", n).Int("bytes", total).Str("file", path).Msg("rendered document pages")
	return pages, nil
}

// ReadAll returns the raw document bytes for the upload path, byte for byte.
func ReadAll(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrDocumentAccess, path, err)
	}
	return data, nil
}
