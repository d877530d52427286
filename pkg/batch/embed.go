package batch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Embedder is the narrow capability this package needs to turn document
// text into the vectors Match's phase 2 compares; satisfied directly by
// retrieval.IEmbedder and llmrouter's providers without importing either.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbedDocument embeds each of chunks in parallel and returns their
// element-wise average, per spec.md §4.15's "~3-chunk averaged document
// embedding" — one vector representative of the whole document, cheap
// enough to compute per upload without a full re-index.
func EmbedDocument(ctx context.Context, embedder Embedder, chunks []string) ([]float32, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			vec, err := embedder.Embed(gctx, chunk)
			if err != nil {
				return err
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return averageVectors(vectors), nil
}

func averageVectors(vectors [][]float32) []float32 {
	var dim int
	for _, v := range vectors {
		if len(v) > dim {
			dim = len(v)
		}
	}
	if dim == 0 {
		return nil
	}

	avg := make([]float32, dim)
	for _, v := range vectors {
		for i, x := range v {
			avg[i] += x
		}
	}
	n := float32(len(vectors))
	for i := range avg {
		avg[i] /= n
	}
	return avg
}
