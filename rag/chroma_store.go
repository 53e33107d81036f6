package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChromaConfig configures the Chroma VectorStore implementation.
//
// Notes:
// - Chroma references collections by server-assigned UUID; the store resolves
//   the UUID once from the collection name and caches it.
// - Point IDs are stable UUIDs derived from Document.ID, so re-adding a
//   document upserts instead of duplicating.
// - Chroma metadata values must be scalars; nested values are stored best-effort.
type ChromaConfig struct {
	BaseURL    string        `json:"base_url,omitempty"` // 默认 http://localhost:8000
	APIKey     string        `json:"api_key,omitempty"`
	Collection string        `json:"collection"` // 默认 policy_documents
	Dimension  int           `json:"dimension,omitempty"`
	Timeout    time.Duration `json:"timeout,omitempty"`
}

// ChromaStore implements VectorStore using Chroma's REST API (v1).
type ChromaStore struct {
	cfg ChromaConfig

	baseURL string
	client  *http.Client
	logger  *zap.Logger

	ensureOnce   sync.Once
	ensureErr    error
	collectionID string
}

// NewChromaStore creates a Chroma-backed VectorStore.
func NewChromaStore(cfg ChromaConfig, logger *zap.Logger) *ChromaStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	if cfg.Collection == "" {
		cfg.Collection = "policy_documents"
	}
	if cfg.Dimension == 0 {
		cfg.Dimension = 384
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &ChromaStore{
		cfg:     cfg,
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger.With(zap.String("component", "chroma_store")),
	}
}

var chromaNamespace = uuid.MustParse("b1f3c6e2-8a4d-4f0b-9c55-2e7a91d0f8b3")

func chromaPointID(docID string) string {
	// Stable UUID derived from document ID (supports any string input).
	return uuid.NewSHA1(chromaNamespace, []byte(docID)).String()
}

// chromaDocIDKey is the metadata key holding the original document ID.
const chromaDocIDKey = "doc_id"

type chromaCollection struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type chromaCreateCollectionRequest struct {
	Name        string         `json:"name"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	GetOrCreate bool           `json:"get_or_create"`
}

type chromaUpsertRequest struct {
	IDs        []string         `json:"ids"`
	Embeddings [][]float64      `json:"embeddings"`
	Metadatas  []map[string]any `json:"metadatas"`
	Documents  []string         `json:"documents"`
}

type chromaQueryRequest struct {
	QueryEmbeddings [][]float64 `json:"query_embeddings"`
	NResults        int         `json:"n_results"`
	Include         []string    `json:"include"`
}

type chromaQueryResponse struct {
	IDs       [][]string         `json:"ids"`
	Distances [][]float64        `json:"distances"`
	Documents [][]string         `json:"documents"`
	Metadatas [][]map[string]any `json:"metadatas"`
}

type chromaDeleteRequest struct {
	IDs []string `json:"ids,omitempty"`
}

type chromaGetRequest struct {
	Limit   int      `json:"limit,omitempty"`
	Offset  int      `json:"offset,omitempty"`
	Include []string `json:"include"`
}

type chromaGetResponse struct {
	IDs       []string         `json:"ids"`
	Metadatas []map[string]any `json:"metadatas"`
}

// ensureCollection resolves (or creates) the collection and caches its UUID.
// The hnsw:space metadata pins cosine distance so Score = 1 - Distance holds.
func (s *ChromaStore) ensureCollection(ctx context.Context) error {
	s.ensureOnce.Do(func() {
		body := chromaCreateCollectionRequest{
			Name:        s.cfg.Collection,
			Metadata:    map[string]any{"hnsw:space": "cosine"},
			GetOrCreate: true,
		}

		reqBody, _ := json.Marshal(body)
		endpoint := s.baseURL + "/api/v1/collections"
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
		if err != nil {
			s.ensureErr = err
			return
		}
		s.applyHeaders(req)

		resp, err := s.client.Do(req)
		if err != nil {
			s.ensureErr = err
			return
		}
		defer resp.Body.Close()

		// Older servers answer 409 when the collection exists; resolve by name.
		if resp.StatusCode == http.StatusConflict {
			s.ensureErr = s.resolveCollectionByName(ctx)
			return
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(resp.Body)
			s.ensureErr = fmt.Errorf("chroma create collection failed: status=%d body=%s", resp.StatusCode, string(raw))
			return
		}

		var created chromaCollection
		if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
			s.ensureErr = fmt.Errorf("chroma decode collection: %w", err)
			return
		}
		s.collectionID = created.ID
		s.ensureErr = nil
	})

	return s.ensureErr
}

func (s *ChromaStore) resolveCollectionByName(ctx context.Context) error {
	var col chromaCollection
	path := "/api/v1/collections/" + url.PathEscape(s.cfg.Collection)
	if err := s.doJSON(ctx, http.MethodGet, path, nil, &col); err != nil {
		return err
	}
	s.collectionID = col.ID
	return nil
}

func (s *ChromaStore) applyHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(s.cfg.APIKey) != "" {
		// Chroma token auth convention.
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}
}

func (s *ChromaStore) doJSON(ctx context.Context, method, path string, in any, out any) error {
	endpoint := s.baseURL + path

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	s.applyHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chroma request failed: method=%s path=%s status=%d body=%s", method, path, resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return err
	}
	return nil
}

// AddDocuments upserts documents into the collection.
func (s *ChromaStore) AddDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	// Validate embeddings and determine vector size.
	vectorSize := s.cfg.Dimension
	for i, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("document[%d] has empty id", i)
		}
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("document[%d] has no embedding", i)
		}
		if vectorSize == 0 {
			vectorSize = len(doc.Embedding)
		}
		if len(doc.Embedding) != vectorSize {
			return fmt.Errorf("document[%d] embedding dimension mismatch: got=%d want=%d", i, len(doc.Embedding), vectorSize)
		}
	}

	if err := s.ensureCollection(ctx); err != nil {
		return err
	}

	req := chromaUpsertRequest{
		IDs:        make([]string, 0, len(docs)),
		Embeddings: make([][]float64, 0, len(docs)),
		Metadatas:  make([]map[string]any, 0, len(docs)),
		Documents:  make([]string, 0, len(docs)),
	}
	for _, doc := range docs {
		metadata := map[string]any{chromaDocIDKey: doc.ID}
		for k, v := range doc.Metadata {
			metadata[k] = v
		}
		req.IDs = append(req.IDs, chromaPointID(doc.ID))
		req.Embeddings = append(req.Embeddings, doc.Embedding)
		req.Metadatas = append(req.Metadatas, metadata)
		req.Documents = append(req.Documents, doc.Content)
	}

	path := fmt.Sprintf("/api/v1/collections/%s/upsert", url.PathEscape(s.collectionID))
	if err := s.doJSON(ctx, http.MethodPost, path, req, nil); err != nil {
		return err
	}

	s.logger.Debug("chroma upsert completed", zap.Int("count", len(docs)))
	return nil
}

// Search queries the collection and returns the nearest documents.
// Distance is passed through from Chroma (cosine space); Score = 1 - Distance.
func (s *ChromaStore) Search(ctx context.Context, queryEmbedding []float64, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		return []SearchResult{}, nil
	}
	if len(queryEmbedding) == 0 {
		return nil, fmt.Errorf("query embedding is required")
	}

	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}

	req := chromaQueryRequest{
		QueryEmbeddings: [][]float64{queryEmbedding},
		NResults:        topK,
		Include:         []string{"documents", "metadatas", "distances"},
	}

	var resp chromaQueryResponse
	path := fmt.Sprintf("/api/v1/collections/%s/query", url.PathEscape(s.collectionID))
	if err := s.doJSON(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}

	if len(resp.IDs) == 0 {
		return []SearchResult{}, nil
	}

	// Chroma nests results per query embedding; we always send exactly one.
	ids := resp.IDs[0]
	out := make([]SearchResult, 0, len(ids))
	for i := range ids {
		doc := Document{ID: ids[i]}

		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			doc.Content = resp.Documents[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) && resp.Metadatas[0][i] != nil {
			metadata := resp.Metadatas[0][i]
			if v, ok := metadata[chromaDocIDKey]; ok {
				if origID, ok := v.(string); ok {
					doc.ID = origID
				}
				delete(metadata, chromaDocIDKey)
			}
			doc.Metadata = metadata
		}

		// 上游缺失距离时取 0.5（未知相关度的中值），不能当 0（完全相同）处理
		distance := 0.5
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			distance = resp.Distances[0][i]
		}

		out = append(out, SearchResult{
			Document: doc,
			Score:    1.0 - distance,
			Distance: distance,
		})
	}

	return out, nil
}

// DeleteDocuments removes documents by their original IDs.
func (s *ChromaStore) DeleteDocuments(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := s.ensureCollection(ctx); err != nil {
		return err
	}

	points := make([]string, 0, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			continue
		}
		points = append(points, chromaPointID(id))
	}

	req := chromaDeleteRequest{IDs: points}
	path := fmt.Sprintf("/api/v1/collections/%s/delete", url.PathEscape(s.collectionID))
	return s.doJSON(ctx, http.MethodPost, path, req, nil)
}

// Count returns the number of stored documents.
func (s *ChromaStore) Count(ctx context.Context) (int, error) {
	if err := s.ensureCollection(ctx); err != nil {
		return 0, err
	}

	var count int
	path := fmt.Sprintf("/api/v1/collections/%s/count", url.PathEscape(s.collectionID))
	if err := s.doJSON(ctx, http.MethodGet, path, nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// ClearAll removes every document in the collection.
func (s *ChromaStore) ClearAll(ctx context.Context) error {
	if err := s.ensureCollection(ctx); err != nil {
		return err
	}

	// An empty delete request clears the whole collection.
	path := fmt.Sprintf("/api/v1/collections/%s/delete", url.PathEscape(s.collectionID))
	if err := s.doJSON(ctx, http.MethodPost, path, chromaDeleteRequest{}, nil); err != nil {
		return err
	}

	s.logger.Info("chroma collection cleared", zap.String("collection", s.cfg.Collection))
	return nil
}

// ListDocumentIDs returns a paginated list of original document IDs.
func (s *ChromaStore) ListDocumentIDs(ctx context.Context, limit int, offset int) ([]string, error) {
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}

	req := chromaGetRequest{
		Limit:   limit,
		Offset:  offset,
		Include: []string{"metadatas"},
	}

	var resp chromaGetResponse
	path := fmt.Sprintf("/api/v1/collections/%s/get", url.PathEscape(s.collectionID))
	if err := s.doJSON(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(resp.IDs))
	for i, pointID := range resp.IDs {
		id := pointID
		if i < len(resp.Metadatas) && resp.Metadatas[i] != nil {
			if v, ok := resp.Metadatas[i][chromaDocIDKey]; ok {
				if origID, ok := v.(string); ok {
					id = origID
				}
			}
		}
		ids = append(ids, id)
	}
	return ids, nil
}
