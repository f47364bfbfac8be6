package textextract

import "context"

// PageRecognizer turns one page image into text. It is called once per page.
type PageRecognizer interface {
	RecognizePage(ctx context.Context, imagePath string) (string, error)
}

// Rasterizer renders the first maxPages pages of a PDF into image files.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath string, maxPages int) (pages []string, cleanup func(), err error)
}
