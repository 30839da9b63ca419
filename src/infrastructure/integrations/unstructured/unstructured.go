package unstructured

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"docqa/src/core/docqa"
	"docqa/src/fsutil"
	"docqa/src/log"
)

var _ docqa.TextExtractor = (*UnstructuredService)(nil)

// UnstructuredService extracts document text through an Unstructured API server
type UnstructuredService struct {
	baseURL    string
	files      fsutil.FileStore
	httpClient *http.Client
}

type UnstructuredElement struct {
	Type      string   `json:"type"`
	Text      string   `json:"text"`
	ElementID string   `json:"element_id"`
	Metadata  Metadata `json:"metadata"`
}

type Metadata struct {
	Filename   string `json:"filename,omitempty"`
	Filetype   string `json:"filetype,omitempty"`
	PageNumber int    `json:"page_number,omitempty"`
}

func NewUnstructuredService(baseURL string, files fsutil.FileStore, httpClient *http.Client) *UnstructuredService {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &UnstructuredService{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		files:      files,
		httpClient: httpClient,
	}
}

// ExtractPages partitions the file and joins element texts per page, in the
// order pages first appear.
func (s *UnstructuredService) ExtractPages(ctx context.Context, path string) ([]string, error) {
	content, err := s.files.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	elements, err := s.Partition(ctx, filepath.Base(path), content)
	if err != nil {
		return nil, err
	}

	return GroupByPage(elements), nil
}

// Partition posts the file to the general partition endpoint
func (s *UnstructuredService) Partition(ctx context.Context, filename string, content []byte) ([]UnstructuredElement, error) {
	var requestBody bytes.Buffer
	multipartWriter := multipart.NewWriter(&requestBody)

	fileWriter, err := multipartWriter.CreateFormFile("files", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err = io.Copy(fileWriter, bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to write file content: %w", err)
	}
	if err := multipartWriter.WriteField("output_format", "application/json"); err != nil {
		return nil, fmt.Errorf("failed to write output format: %w", err)
	}
	if err := multipartWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/general/v0/general", &requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", multipartWriter.FormDataContentType())

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Error(fmt.Errorf("unexpected status %s", resp.Status), "unstructured partition failed",
			"filename", filename,
			"response", string(body))
		return nil, fmt.Errorf("conversion service error: %s", resp.Status)
	}

	var elements []UnstructuredElement
	if err := json.NewDecoder(resp.Body).Decode(&elements); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return elements, nil
}

// GroupByPage joins element texts with newlines per page. Elements without a
// page number belong to the page of the preceding element.
func GroupByPage(elements []UnstructuredElement) []string {
	var (
		pages   []*strings.Builder
		index   = make(map[int]int)
		current = -1
	)

	for _, el := range elements {
		if el.Metadata.PageNumber != 0 || current < 0 {
			i, ok := index[el.Metadata.PageNumber]
			if !ok {
				i = len(pages)
				index[el.Metadata.PageNumber] = i
				pages = append(pages, &strings.Builder{})
			}
			current = i
		}
		if el.Text == "" {
			continue
		}
		if pages[current].Len() > 0 {
			pages[current].WriteByte('\n')
		}
		pages[current].WriteString(el.Text)
	}

	out := make([]string, len(pages))
	for i := range pages {
		out[i] = pages[i].String()
	}
	return out
}
