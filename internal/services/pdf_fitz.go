package services

import (
	"fmt"
	"io"

	"github.com/gen2brain/go-fitz"
)

// readMuPDF walks pages with MuPDF, which copes better with unusual font
// encodings than the pure Go reader.
func readMuPDF(r io.ReaderAt, size int64, visit pageVisitor) error {
	doc, err := fitz.NewFromReader(io.NewSectionReader(r, 0, size))
	if err != nil {
		return fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	for i := 0; i < doc.NumPage(); i++ {
		content, err := doc.Text(i)
		if err != nil {
			return fmt.Errorf("read page %d: %w", i+1, err)
		}
		if !visit(content) {
			break
		}
	}
	return nil
}
