// Package workpaper implements the workpaper composer (C11): narrative
// synthesis, citation embedding, and signed export of the finished
// reconciliation workpaper.
package workpaper

import (
	"time"

	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/quant"
)

// Document is the composed-but-not-yet-rendered workpaper: every claim in
// Narrative traces back to one of Citations by document_id/page/bbox, per
// spec.md §4.11.
type Document struct {
	SessionID   string
	GeneratedAt time.Time
	Verdict     domain.Verdict
	Report      quant.Report
	SAMR        domain.SAMRMetrics
	Citations   []domain.Citation
	Narrative   string
}

// Compose assembles a Document from the pipeline's accumulated outputs. It
// does not render or sign anything — that's Renderer/Signer's job — so this
// stays pure and independently testable.
func Compose(sessionID string, verdict domain.Verdict, report quant.Report, samr domain.SAMRMetrics, citations []domain.Citation) Document {
	return Document{
		SessionID:   sessionID,
		GeneratedAt: time.Now().UTC(),
		Verdict:     verdict,
		Report:      report,
		SAMR:        samr,
		Citations:   citations,
		Narrative:   BuildNarrative(verdict, report, samr),
	}
}
