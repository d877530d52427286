package extraction

import (
	"strings"

	"github.com/google/uuid"

	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/retrieval"
)

// normalizeForMatch collapses whitespace and folds case so a citation match
// is insensitive to OCR/rendering noise, per spec.md §4.7 step 5.
func normalizeForMatch(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// chunkBbox reconstructs a BoundingBox from a retrieved chunk's payload, if
// the payload carries one. Chunks without location metadata (e.g. a rule-
// based fallback's synthetic chunk) simply yield no citation.
func chunkBbox(payload map[string]any) *domain.BoundingBox {
	x0, ok0 := payload["bbox_x0"].(float64)
	y0, ok1 := payload["bbox_y0"].(float64)
	x1, ok2 := payload["bbox_x1"].(float64)
	y1, ok3 := payload["bbox_y1"].(float64)
	if !ok0 || !ok1 || !ok2 || !ok3 {
		return nil
	}
	page, _ := payload["bbox_page"].(float64)
	return &domain.BoundingBox{X0: x0, Y0: y0, X1: x1, Y1: y1, Page: int(page)}
}

func chunkPage(payload map[string]any) int {
	switch v := payload["page"].(type) {
	case float64:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// attachCitation finds the narrowest retrieved chunk whose text contains the
// normalized line-item description and returns a Citation for it, or nil if
// no chunk matches — citations are never fabricated, per spec.md §4.7 step 5.
func attachCitation(docID string, docType domain.DocumentType, description string, chunks []retrieval.ScoredChunk) *domain.Citation {
	needle := normalizeForMatch(description)
	if needle == "" {
		return nil
	}

	var best *domain.Citation
	var bestArea float64

	for _, c := range chunks {
		text, _ := c.Payload["text"].(string)
		if text == "" {
			continue
		}
		if !strings.Contains(normalizeForMatch(text), needle) {
			continue
		}
		bbox := chunkBbox(c.Payload)
		citation := &domain.Citation{
			ID:           uuid.NewString(),
			DocumentID:   docID,
			DocumentType: docType,
			Page:         chunkPage(c.Payload),
			Bbox:         bbox,
			Text:         text,
			Value:        description,
		}
		area := 1.0 // chunks without a bbox are treated as maximally wide, so any bbox-bearing match wins
		if bbox != nil {
			area = bbox.Area()
		}
		if best == nil || area < bestArea {
			best = citation
			bestArea = area
		}
	}
	return best
}

// attachCitations runs attachCitation for every extracted line item,
// returning only the citations that actually found a match.
func attachCitations(docID string, docType domain.DocumentType, items []domain.LineItem, chunks []retrieval.ScoredChunk) []domain.Citation {
	var out []domain.Citation
	for _, item := range items {
		if c := attachCitation(docID, docType, item.Description, chunks); c != nil {
			out = append(out, *c)
		}
	}
	return out
}
