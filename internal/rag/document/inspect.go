package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/SecoursTech/internal/domain/commonModels"
	"github.com/dslipak/pdf"
)

const previewLength = 200

// Report summarises a procedure PDF for the catalogue check.
type Report struct {
	Document commonModels.Document
	Pages    int
	Preview  string
	Size     int
	Err      error
}

// Inspect opens raw as a PDF and extracts the first readable page.
func Inspect(raw []byte) (Report, error) {
	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return Report{}, fmt.Errorf("%w: not a readable pdf: %v", ErrEncoding, err)
	}

	rep := Report{Pages: r.NumPage(), Size: len(raw)}
	for i := 1; i <= rep.Pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := protectExtract(page)
		if err != nil || strings.TrimSpace(content) == "" {
			continue
		}
		rep.Preview = truncate(strings.Join(strings.Fields(content), " "), previewLength)
		break
	}
	return rep, nil
}

// Check loads every document from store and inspects it. A missing file is
// reported with ErrNotFound so operators can tell it apart from a bad PDF.
func Check(ctx context.Context, store Store, docs []commonModels.Document) []Report {
	reports := make([]Report, 0, len(docs))
	for _, d := range docs {
		raw, err := store.Open(ctx, Canonicalize(d.Path))
		if err != nil {
			reports = append(reports, Report{Document: d, Err: err})
			continue
		}
		rep, err := Inspect(raw)
		rep.Document = d
		rep.Err = err
		reports = append(reports, rep)
	}
	return reports
}

func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{"", fmt.Errorf("pdf extract panic: %v", r)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(time.Second * 10):
		return "", errors.New("timeout")
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
