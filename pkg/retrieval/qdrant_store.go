package retrieval

import (
	"context"

	"github.com/qdrant/go-client/qdrant"

	"github.com/NeoOne601/ventro/pkg/apperrors"
)

// QdrantStore implements IVectorStore against a live qdrant collection,
// following the client construction and point-conversion patterns of
// the pack's qdrant vector store adapter.
type QdrantStore struct {
	client *qdrant.Client
}

func NewQdrantStore(client *qdrant.Client) *QdrantStore {
	return &QdrantStore{client: client}
}

// EnsureCollection creates the collection with the given vector dimension if
// it does not already exist.
func (q *QdrantStore) EnsureCollection(ctx context.Context, collection string, dim int) error {
	exists, err := q.client.CollectionExists(ctx, collection)
	if err != nil {
		return apperrors.Wrap(apperrors.KindTransient, "failed to check qdrant collection existence", err)
	}
	if exists {
		return nil
	}
	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return apperrors.Wrap(apperrors.KindTransient, "failed to create qdrant collection "+collection, err)
	}
	return nil
}

func buildFilter(filters Filters) *qdrant.Filter {
	var must []*qdrant.Condition
	if filters.DocumentID != "" {
		must = append(must, qdrant.NewMatch("document_id", filters.DocumentID))
	}
	if filters.DocumentType != "" {
		must = append(must, qdrant.NewMatch("document_type", filters.DocumentType))
	}
	if filters.SessionID != "" {
		must = append(must, qdrant.NewMatch("session_id", filters.SessionID))
	}
	if filters.HasPage {
		must = append(must, qdrant.NewMatchInt("page", int64(filters.Page)))
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

func (q *QdrantStore) Search(ctx context.Context, vector []float32, collection string, filters Filters, topK int) ([]ScoredChunk, error) {
	if collection == "" {
		return nil, errEmptyCollection
	}
	query := &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          ptrUint64(uint64(topK)),
		ScoreThreshold: ptrFloat32(float32(ScoreThreshold)),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         buildFilter(filters),
	}
	points, err := q.client.Query(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransient, "qdrant search failed", err)
	}
	return scoredChunksFromPoints(points), nil
}

func (q *QdrantStore) HybridSearch(ctx context.Context, vector []float32, text string, collection string, filters Filters, topK int) ([]ScoredChunk, error) {
	// Over-fetch so the keyword boost has enough candidates to re-rank
	// before truncating to topK, per spec.md §4.5.
	dense, err := q.Search(ctx, vector, collection, filters, topK*3)
	if err != nil {
		return nil, err
	}
	return applyHybridBoost(text, dense, topK), nil
}

func (q *QdrantStore) Upsert(ctx context.Context, chunks []Chunk, collection string) error {
	if collection == "" {
		return errEmptyCollection
	}
	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, c := range chunks {
		payload, err := qdrant.TryValueMap(c.Payload)
		if err != nil {
			return apperrors.Wrap(apperrors.KindValidation, "failed to convert chunk payload", err)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(c.ID),
			Vectors: qdrant.NewVectors(c.Vector...),
			Payload: payload,
		})
	}
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
		Wait:           ptrBool(true),
	})
	if err != nil {
		return apperrors.Wrap(apperrors.KindTransient, "qdrant upsert failed", err)
	}
	return nil
}

func (q *QdrantStore) DeleteByDocumentID(ctx context.Context, docID string, collection string) error {
	if collection == "" {
		return errEmptyCollection
	}
	filter := &qdrant.Filter{Must: []*qdrant.Condition{qdrant.NewMatch("document_id", docID)}}
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelectorFilter(filter),
	})
	if err != nil {
		return apperrors.Wrap(apperrors.KindTransient, "qdrant delete failed", err)
	}
	return nil
}

func scoredChunksFromPoints(points []*qdrant.ScoredPoint) []ScoredChunk {
	out := make([]ScoredChunk, 0, len(points))
	for _, p := range points {
		chunk := ScoredChunk{Score: float64(p.GetScore())}
		if id := p.GetId(); id != nil {
			chunk.ID = id.GetUuid()
		}
		payload := p.GetPayload()
		if payload != nil {
			chunk.Payload = make(map[string]any, len(payload))
			for k, v := range payload {
				chunk.Payload[k] = qdrantValueToAny(v)
			}
		}
		out = append(out, chunk)
	}
	return out
}

func qdrantValueToAny(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch k := v.Kind.(type) {
	case *qdrant.Value_DoubleValue:
		return k.DoubleValue
	case *qdrant.Value_IntegerValue:
		return k.IntegerValue
	case *qdrant.Value_StringValue:
		return k.StringValue
	case *qdrant.Value_BoolValue:
		return k.BoolValue
	default:
		return nil
	}
}

func ptrUint64(v uint64) *uint64   { return &v }
func ptrFloat32(v float32) *float32 { return &v }
func ptrBool(v bool) *bool         { return &v }
