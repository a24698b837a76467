// Command genmock renders a catalog file back into a JMA-style daily listing
// page. The output feeds fixtures for the extractor and parser tests and lets
// a local mirror stand in for JMA_BASE_URL.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -in data/jma_eq_20251208.csv \
//	  -out mock/20251208.html \
//	  -encoding shift_jis
package main

import (
	"bytes"
	"flag"
	"fmt"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/encoding/japanese"

	"github.com/couchcryptid/quake-catalog/internal/catalog"
	"github.com/couchcryptid/quake-catalog/internal/domain"
)

const listingHeader = "  年  月 日 時分   秒    緯度        経度      深さ  Ｍ   震央地名"

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="{{.Charset}}">
<title>{{.Title}}</title>
</head>
<body>
<h2>{{.Title}}</h2>
<pre>
{{.Header}}
{{range .Lines}}{{.}}
{{end}}</pre>
</body>
</html>
`))

type page struct {
	Charset string
	Title   string
	Header  string
	Lines   []string
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "catalog CSV file (jma_eq_YYYYMMDD.csv)")
	out := flag.String("out", "", "output path for the mock listing page")
	encoding := flag.String("encoding", "utf-8", "page encoding: utf-8 or shift_jis")
	flag.Parse()

	if *in == "" || *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -in, -out")
	}

	store := catalog.NewStore(filepath.Dir(*in))
	rows, err := store.Load(*in)
	if err != nil {
		return err
	}

	lines, skipped := renderLines(rows)
	log.Printf("%s: %d lines rendered, %d rows skipped", *in, len(lines), skipped)

	body, err := renderPage(strings.TrimSuffix(filepath.Base(*in), ".csv"), lines, *encoding)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(*out, body, 0o644); err != nil { //nolint:gosec // fixture output is world readable
		return fmt.Errorf("write page: %w", err)
	}
	log.Printf("wrote mock page: %s (%s)", *out, *encoding)
	return nil
}

// renderLines formats each row as a listing line. Rows without a usable
// date, time or coordinates cannot be expressed in listing notation and are
// skipped.
func renderLines(rows []catalog.Row) ([]string, int) {
	unrenderable := []domain.Field{domain.FieldTimestamp, domain.FieldLatitude, domain.FieldLongitude}

	lines := make([]string, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		rec, missing := row.Coerce()
		if slices.ContainsFunc(missing, func(f domain.Field) bool { return slices.Contains(unrenderable, f) }) {
			skipped++
			continue
		}
		lines = append(lines, domain.FormatLine(rec))
	}
	return lines, skipped
}

func renderPage(title string, lines []string, encoding string) ([]byte, error) {
	p := page{Title: title, Header: listingHeader, Lines: lines}
	switch strings.ToLower(encoding) {
	case "utf-8", "utf8":
		p.Charset = "utf-8"
	case "shift_jis", "sjis":
		p.Charset = "Shift_JIS"
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	if p.Charset == "utf-8" {
		return buf.Bytes(), nil
	}

	encoded, err := japanese.ShiftJIS.NewEncoder().Bytes(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("encode page: %w", err)
	}
	return encoded, nil
}
