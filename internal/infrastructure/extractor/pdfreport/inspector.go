package pdfreport

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Inspector verifies that a downloaded report is a readable PDF before it is
// handed to the user.
type Inspector struct{}

func NewInspector() *Inspector {
	return &Inspector{}
}

func (i *Inspector) Inspect(ctx context.Context, data []byte) (pages int, err error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("pdf report is empty")
	}

	// The parser panics on some truncated inputs.
	defer func() {
		if recovered := recover(); recovered != nil {
			pages = 0
			err = fmt.Errorf("parse pdf report: %v", recovered)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("open pdf report: %w", err)
	}
	pages = reader.NumPage()
	if pages <= 0 {
		return 0, fmt.Errorf("pdf report has no pages")
	}
	return pages, nil
}
