package textmodel

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gobwas/glob"
	"github.com/samber/lo"
)

// Document is one labeled text of a corpus.
type Document struct {
	Text  string `json:"text"`
	Label string `json:"klass"`
}

// UnmarshalJSON accepts numeric labels as well as strings.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		Text  string          `json:"text"`
		Label json.RawMessage `json:"klass"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Text = raw.Text
	d.Label = ""

	label := bytes.TrimSpace(raw.Label)
	if len(label) == 0 || bytes.Equal(label, []byte("null")) {
		return nil
	}
	if label[0] == '"' {
		return json.Unmarshal(label, &d.Label)
	}
	var n json.Number
	if err := json.Unmarshal(label, &n); err != nil {
		return fmt.Errorf("klass must be a string or a number: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		d.Label = strconv.FormatInt(i, 10)
	} else {
		d.Label = n.String()
	}
	return nil
}

// sniffLen is how much of a corpus is peeked at to detect its format.
const sniffLen = 3072

// ReadCorpus reads a corpus file. The format follows the extension:
//
//	*.json  one JSON document per line ({"text": ..., "klass": ...})
//	*.xml   TASS tweets (see ReadXMLDocuments)
//
// Gzip input (a .gz suffix or gzip content) is decompressed first. For other
// extensions the content is sniffed: XML is read as TASS, anything else as
// JSON lines after a warning.
func ReadCorpus(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, sniffLen)
	// short files peek less; read errors surface when decoding
	head, _ := br.Peek(sniffLen)

	name := path
	if strings.HasSuffix(name, ".gz") || mimetype.Detect(head).Is("application/gzip") {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open corpus %s: %w", path, err)
		}
		defer gz.Close()
		br = bufio.NewReaderSize(gz, sniffLen)
		head, _ = br.Peek(sniffLen)
		name = strings.TrimSuffix(name, ".gz")
	}

	var docs []Document
	if isXMLCorpus(name, head) {
		docs, err = ReadXMLDocuments(br)
	} else {
		docs, err = ReadDocuments(br)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}

func isXMLCorpus(name string, head []byte) bool {
	switch ext := filepath.Ext(name); ext {
	case ".json":
		return false
	case ".xml":
		return true
	default:
		for mt := mimetype.Detect(head); mt != nil; mt = mt.Parent() {
			if mt.Is("text/xml") {
				return true
			}
		}
		slog.Warn("unknown corpus extension, reading JSON lines",
			slog.String("path", name),
			slog.String("ext", ext))
		return false
	}
}

// ReadCorpora reads every corpus file matching pattern and concatenates their
// documents in lexical path order. A pattern without glob characters names a
// single file.
//
// Example:
//
//	docs, err := ReadCorpora("data/tass/**.xml")
func ReadCorpora(pattern string) ([]Document, error) {
	paths, err := MatchCorpora(pattern)
	if err != nil {
		return nil, err
	}

	var docs []Document
	for _, path := range paths {
		part, err := ReadCorpus(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, part...)
	}
	return docs, nil
}

// MatchCorpora expands a corpus pattern. "*" stays within one directory and
// "**" crosses directories.
func MatchCorpora(pattern string) ([]string, error) {
	if !hasGlobChars(pattern) {
		return []string{pattern}, nil
	}

	pattern = filepath.Clean(pattern)
	g, err := glob.Compile(filepath.ToSlash(pattern), '/')
	if err != nil {
		return nil, fmt.Errorf("corpus pattern %q: %w", pattern, err)
	}

	root := filepath.Dir(pattern[:strings.IndexAny(pattern, globChars)])
	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && g.Match(filepath.ToSlash(path)) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("corpus pattern %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no file matches %q", ErrEmptyCorpus, pattern)
	}
	return paths, nil
}

const globChars = "*?[{"

func hasGlobChars(s string) bool {
	return strings.ContainsAny(s, globChars)
}

// ReadDocuments reads one JSON document per line. Blank lines are skipped.
func ReadDocuments(r io.Reader) ([]Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var docs []Document
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var doc Document
		if err := json.Unmarshal(text, &doc); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line+1, err)
	}
	return docs, nil
}

// xmlTweet is one child of a TASS corpus root.
type xmlTweet struct {
	Content  *string `xml:"content"`
	Polarity []struct {
		Value string `xml:"value"`
	} `xml:"sentiments>polarity"`
}

// ReadXMLDocuments reads a TASS corpus: every child of the root element is a
// document whose text is its <content> and whose label is the first
// <sentiments><polarity><value>.
//
//	<tweets>
//	  <tweet>
//	    <content>que buen dia</content>
//	    <sentiments><polarity><value>P</value></polarity></sentiments>
//	  </tweet>
//	</tweets>
func ReadXMLDocuments(r io.Reader) ([]Document, error) {
	dec := xml.NewDecoder(r)

	var docs []Document
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read xml corpus: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				depth++
				continue
			}
			var tweet xmlTweet
			if err := dec.DecodeElement(&tweet, &el); err != nil {
				return nil, fmt.Errorf("element %d: %w", len(docs)+1, err)
			}
			if tweet.Content == nil {
				return nil, fmt.Errorf("element %d: missing <content>", len(docs)+1)
			}
			if len(tweet.Polarity) == 0 {
				return nil, fmt.Errorf("element %d: missing <sentiments><polarity><value>", len(docs)+1)
			}
			docs = append(docs, Document{
				Text:  strings.TrimSpace(*tweet.Content),
				Label: strings.TrimSpace(tweet.Polarity[0].Value),
			})
		case xml.EndElement:
			depth--
		}
	}
	return docs, nil
}

// Relabel maps every label through mapping. Labels missing from mapping are
// kept.
func Relabel(docs []Document, mapping map[string]string) []Document {
	return lo.Map(docs, func(d Document, _ int) Document {
		if to, ok := mapping[d.Label]; ok {
			d.Label = to
		}
		return d
	})
}

// Texts returns the text of every document.
func Texts(docs []Document) []string {
	return lo.Map(docs, func(d Document, _ int) string { return d.Text })
}

// Labels returns the label of every document.
func Labels(docs []Document) []string {
	return lo.Map(docs, func(d Document, _ int) string { return d.Label })
}
