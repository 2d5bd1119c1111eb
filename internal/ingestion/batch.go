package ingestion

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel extraction in ExtractAll
const DefaultConcurrency = 4

// File is one uploaded document
type File struct {
	Name string
	Data []byte
}

// Document is the extracted text of one File
type Document struct {
	Name     string
	Text     string
	Metadata *Metadata
}

// ExtractAll extracts every file concurrently, preserving input order. The first
// failure cancels the remaining work and is returned.
func ExtractAll(ctx context.Context, ex Extractor, files []File, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	docs := make([]Document, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := ex.ExtractText(f.Name, f.Data)
			if err != nil {
				return err
			}
			docs[i] = Document{Name: f.Name, Text: text, Metadata: NewMetadata(f.Name, f.Data, text)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// Texts returns the text and name of each document, in order
func Texts(docs []Document) (texts, names []string) {
	texts = make([]string, len(docs))
	names = make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
		names[i] = d.Name
	}
	return texts, names
}
