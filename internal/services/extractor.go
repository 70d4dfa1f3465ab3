package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

type DocumentKind string

const (
	KindPDF  DocumentKind = "pdf"
	KindDOCX DocumentKind = "docx"
	KindText DocumentKind = "text"
)

// KindFromFilename maps a file name suffix to a DocumentKind. The content is
// never inspected.
func KindFromFilename(name string) (DocumentKind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindPDF, nil
	case ".docx":
		return KindDOCX, nil
	case ".txt":
		return KindText, nil
	}
	return "", &DocumentError{Op: "detect kind", Filename: name, BaseErr: ErrUnsupportedFormat}
}

// ContentType returns the MIME type reported for a document of this kind.
func (k DocumentKind) ContentType() string {
	switch k {
	case KindPDF:
		return "application/pdf"
	case KindDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case KindText:
		return "text/plain"
	}
	return "application/octet-stream"
}

type TextExtractor interface {
	Extract(ctx context.Context, data []byte, kind DocumentKind) (string, error)
}

type textExtractor struct{}

func NewTextExtractor() TextExtractor {
	return &textExtractor{}
}

// Extract implements TextExtractor. The result is NFC-normalized.
func (e *textExtractor) Extract(ctx context.Context, data []byte, kind DocumentKind) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		text string
		err  error
	)
	switch kind {
	case KindPDF:
		text, err = extractPDF(data)
	case KindDOCX:
		text, err = extractDOCX(data)
	case KindText:
		text, err = extractPlain(data)
	default:
		return "", newDocumentError("extract", kind, ErrUnsupportedFormat, nil)
	}
	if err != nil {
		return "", err
	}

	return norm.NFC.String(text), nil
}

// extractPDF joins the plain text of every page in order with no separator.
// Any page failure fails the whole document.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = newDocumentError("extract", KindPDF, ErrExtractionFailed, fmt.Errorf("pdf parser panic: %v", r))
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", newDocumentError("extract", KindPDF, ErrExtractionFailed, err)
	}

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", newDocumentError("extract", KindPDF, ErrExtractionFailed, fmt.Errorf("page %d: %w", pageIndex, err))
		}

		textBuilder.WriteString(pageText)
	}

	return textBuilder.String(), nil
}

const docxBodyPart = "word/document.xml"

// extractDOCX returns the body-level paragraphs joined by newlines. Tables,
// headers, footers and text boxes are skipped.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", newDocumentError("extract", KindDOCX, ErrExtractionFailed, err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == docxBodyPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", newDocumentError("extract", KindDOCX, ErrExtractionFailed, errors.New("missing "+docxBodyPart))
	}

	rc, err := part.Open()
	if err != nil {
		return "", newDocumentError("extract", KindDOCX, ErrExtractionFailed, err)
	}
	defer rc.Close()

	paragraphs, err := bodyParagraphs(rc)
	if err != nil {
		return "", newDocumentError("extract", KindDOCX, ErrExtractionFailed, err)
	}

	return strings.Join(paragraphs, "\n"), nil
}

func bodyParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		stack      []string
		paragraphs []string
		current    strings.Builder
		inPara     bool
		paraDepth  int
		boxDepth   int
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
			switch t.Name.Local {
			case "p":
				// only <w:p> that are direct children of <w:body>
				if !inPara && len(stack) == 3 && stack[1] == "body" {
					inPara = true
					paraDepth = len(stack)
					current.Reset()
				}
			case "txbxContent":
				boxDepth++
			case "tab":
				// tab stops under <w:tabs> share the element name
				if inPara && boxDepth == 0 && parentIs(stack, "r") {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if inPara && boxDepth == 0 && parentIs(stack, "r") {
					current.WriteByte('\n')
				}
			}
		case xml.CharData:
			if inPara && boxDepth == 0 && len(stack) > 0 && stack[len(stack)-1] == "t" {
				current.Write(t)
			}
		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			switch t.Name.Local {
			case "txbxContent":
				boxDepth--
			case "p":
				if inPara && len(stack) == paraDepth {
					paragraphs = append(paragraphs, current.String())
					inPara = false
				}
			}
			stack = stack[:len(stack)-1]
		}
	}

	return paragraphs, nil
}

func parentIs(stack []string, name string) bool {
	return len(stack) >= 2 && stack[len(stack)-2] == name
}

func extractPlain(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", newDocumentError("extract", KindText, ErrDecode, nil)
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}
