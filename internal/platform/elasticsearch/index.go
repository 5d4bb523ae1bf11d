package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

// ArticlesIndexName is the index holding searchable article documents.
const ArticlesIndexName = "articles"

func articlesMapping() (string, error) {
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"title":           map[string]interface{}{"type": "text"},
				"slug":            map[string]interface{}{"type": "keyword"},
				"content":         map[string]interface{}{"type": "text"},
				"author_id":       map[string]interface{}{"type": "keyword"},
				"author_username": map[string]interface{}{"type": "keyword"},
				"view_count":      map[string]interface{}{"type": "long"},
				"love_count":      map[string]interface{}{"type": "long"},
				"published_at":    map[string]interface{}{"type": "date"},
			},
		},
	}
	b, err := json.Marshal(mapping)
	if err != nil {
		return "", fmt.Errorf("error marshalling articles mapping to JSON: %w", err)
	}
	return string(b), nil
}

// CreateArticlesIndexIfNotExists creates the articles index with its mapping.
func CreateArticlesIndexIfNotExists(ctx context.Context, client *ESClientWrapper, logger *zap.Logger) error {
	log := logger.Named("elasticsearch_index_setup")

	res, err := esapi.IndicesExistsRequest{Index: []string{ArticlesIndexName}}.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("error checking if articles index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		log.Info("Articles index already exists", zap.String("index_name", ArticlesIndexName))
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("error checking if articles index exists: status %s", res.Status())
	}

	mappingJSON, err := articlesMapping()
	if err != nil {
		return err
	}
	createRes, err := esapi.IndicesCreateRequest{
		Index: ArticlesIndexName,
		Body:  strings.NewReader(mappingJSON),
	}.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("error creating articles index: %w", err)
	}
	defer createRes.Body.Close()
	if createRes.IsError() {
		log.Error("Failed to create articles index", zap.String("status", createRes.Status()), zap.String("body", readBody(createRes.Body)))
		return fmt.Errorf("failed to create articles index: status %s", createRes.Status())
	}
	log.Info("Articles index created", zap.String("index_name", ArticlesIndexName))
	return nil
}

// IndexDocument upserts one document.
func IndexDocument(ctx context.Context, client *ESClientWrapper, index, id string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", id, err)
	}
	res, err := esapi.IndexRequest{
		Index:      index,
		DocumentID: id,
		Body:       bytes.NewReader(body),
	}.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("index document %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index document %s: status %s: %s", id, res.Status(), readBody(res.Body))
	}
	return nil
}

// DeleteDocument removes one document; a missing document is not an error.
func DeleteDocument(ctx context.Context, client *ESClientWrapper, index, id string) error {
	res, err := esapi.DeleteRequest{Index: index, DocumentID: id}.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete document %s: status %s", id, res.Status())
	}
	return nil
}

// SearchIDs runs a multi_match query and returns matching document IDs with the total hit count.
func SearchIDs(ctx context.Context, client *ESClientWrapper, index, query string, fields []string, from, size int) ([]string, int64, error) {
	q := map[string]interface{}{
		"from":    from,
		"size":    size,
		"_source": false,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": fields,
			},
		},
		"sort": []interface{}{"_score", map[string]interface{}{"published_at": "desc"}},
	}
	body, err := json.Marshal(q)
	if err != nil {
		return nil, 0, err
	}
	res, err := client.Search(
		client.Search.WithContext(ctx),
		client.Search.WithIndex(index),
		client.Search.WithBody(bytes.NewReader(body)),
		client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("search %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, 0, fmt.Errorf("search %s: status %s", index, res.Status())
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, 0, fmt.Errorf("decode search response: %w", err)
	}
	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, parsed.Hits.Total.Value, nil
}

// BulkItem is one document for BulkIndex.
type BulkItem struct {
	ID  string
	Doc interface{}
}

// BulkIndex indexes a batch and returns how many items succeeded and failed.
func BulkIndex(ctx context.Context, client *ESClientWrapper, index string, items []BulkItem, refresh string, logger *zap.Logger) (int, int, error) {
	var buf strings.Builder
	for _, it := range items {
		doc, err := json.Marshal(it.Doc)
		if err != nil {
			return 0, len(items), fmt.Errorf("marshal %s: %w", it.ID, err)
		}
		fmt.Fprintf(&buf, `{"index":{"_index":%q,"_id":%q}}`+"\n", index, it.ID)
		buf.Write(doc)
		buf.WriteByte('\n')
	}
	if buf.Len() == 0 {
		return 0, 0, nil
	}

	res, err := esapi.BulkRequest{Body: strings.NewReader(buf.String()), Refresh: refresh}.Do(ctx, client.Client)
	if err != nil {
		return 0, len(items), fmt.Errorf("bulk request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, len(items), fmt.Errorf("bulk request: status %s", res.Status())
	}

	var parsed struct {
		Errors bool `json:"errors"`
		Items  []struct {
			Index struct {
				ID     string                 `json:"_id"`
				Status int                    `json:"status"`
				Error  map[string]interface{} `json:"error,omitempty"`
			} `json:"index"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, len(items), fmt.Errorf("decode bulk response: %w", err)
	}
	synced, failed := 0, 0
	for _, item := range parsed.Items {
		if item.Index.Error != nil {
			logger.Error("Failed to index document in bulk batch",
				zap.String("id", item.Index.ID),
				zap.Int("status", item.Index.Status),
				zap.Any("error", item.Index.Error),
			)
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}

func readBody(r io.Reader) string {
	b, err := io.ReadAll(r)
	if err != nil {
		return fmt.Sprintf("failed to read response body: %v", err)
	}
	return string(b)
}
