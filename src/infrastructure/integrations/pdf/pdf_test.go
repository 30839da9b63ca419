package pdf_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/src/fsutil"
	"docqa/src/infrastructure/integrations/pdf"
	"docqa/src/infrastructure/integrations/pdf/pdftest"
)

func TestExtractor_ExtractPages(t *testing.T) {
	dir := t.TempDir()
	files := fsutil.NewLocalFileStore()
	extractor := pdf.NewExtractor(files)

	tests := []struct {
		name  string
		pages []string
	}{
		{
			name:  "single page",
			pages: []string{"The capacitor charges through resistor R."},
		},
		{
			name: "pages in order",
			pages: []string{
				"Voltage equals current times resistance (V = IR).",
				"An inductor stores energy in a magnetic field.",
				"Impedance decreases with frequency for a capacitor.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".pdf")
			_, err := files.WriteFile(path, bytes.NewReader(pdftest.Build(tt.pages...)))
			require.NoError(t, err)

			pages, err := extractor.ExtractPages(context.Background(), path)
			require.NoError(t, err)

			got := make([]string, len(pages))
			for i, p := range pages {
				got[i] = strings.TrimSpace(p)
			}
			assert.Equal(t, tt.pages, got)
		})
	}
}

func TestExtractor_RejectsNonPDF(t *testing.T) {
	dir := t.TempDir()
	files := fsutil.NewLocalFileStore()
	extractor := pdf.NewExtractor(files)

	tests := []struct {
		name string
		body string
	}{
		{name: "plain text", body: "The resistor limits current."},
		{name: "truncated header", body: "%PDF"},
		{name: "empty", body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".pdf")
			_, err := files.WriteFile(path, strings.NewReader(tt.body))
			require.NoError(t, err)

			pages, err := extractor.ExtractPages(context.Background(), path)
			assert.Error(t, err)
			assert.Nil(t, pages)
		})
	}
}

func TestExtractor_MissingFile(t *testing.T) {
	extractor := pdf.NewExtractor(fsutil.NewLocalFileStore(), pdf.WithPassword("secret"))

	_, err := extractor.ExtractPages(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.ErrorContains(t, err, "failed to read pdf")
}
