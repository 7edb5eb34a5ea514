package docpipe

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

const docxMainPart = "word/document.xml"

// extractDocx returns the text of every top-level body paragraph of a .docx,
// each followed by a newline. Table cells and text boxes are not read.
func extractDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open zip: %w", err)
	}

	xmlData, err := readZipFile(zr, docxMainPart)
	if err != nil {
		return "", err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlData); err != nil {
		return "", fmt.Errorf("parse %s: %w", docxMainPart, err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "document" {
		return "", errors.New("word document root element missing")
	}
	body := root.SelectElement("body")
	if body == nil {
		return "", errors.New("word document body missing")
	}

	var sb strings.Builder
	for _, p := range body.SelectElements("p") {
		writeRunText(&sb, p)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// writeRunText appends the visible text under el: w:t content, w:tab as a
// tab, w:br and w:cr as line breaks. Drawings are skipped.
func writeRunText(sb *strings.Builder, el *etree.Element) {
	for _, c := range el.ChildElements() {
		switch c.Tag {
		case "t":
			sb.WriteString(c.Text())
		case "tab":
			sb.WriteByte('\t')
		case "br", "cr":
			sb.WriteByte('\n')
		case "pPr", "rPr", "drawing", "pict", "AlternateContent":
		default:
			writeRunText(sb, c)
		}
	}
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}
