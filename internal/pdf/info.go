package pdf

import (
	"fmt"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"
)

// Info describes the session document.
type Info struct {
	Pages int
	MIME  string
	Size  int64
}

// Inspect validates the document at path and returns its page count, detected
// MIME type (magic bytes, not filename) and size. Used once at startup and to
// supply the content type for the upload path.
func Inspect(path string) (Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("%w: stat %s: %v", ErrDocumentAccess, path, err)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("%w: detect type of %s: %v", ErrDocumentAccess, path, err)
	}
	if !mtype.Is("application/pdf") {
		return Info{}, fmt.Errorf("%w: %s is %s, not a PDF", ErrDocumentAccess, path, mtype.String())
	}

	n, err := api.PageCountFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("%w: page count of %s: %v", ErrDocumentAccess, path, err)
	}

	log.Info().Str("file", path).Int("pages", n).Int64("bytes", st.Size()).Msg("document validated")
	return Info{Pages: n, MIME: mtype.String(), Size: st.Size()}, nil
}
