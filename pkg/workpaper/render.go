package workpaper

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"html/template"
	"time"

	"github.com/NeoOne601/ventro/pkg/apperrors"
)

// bodyTemplate renders the workpaper's claim-bearing content: narrative plus
// one citation block per claim, each addressable by document_id/page/bbox so
// a viewer can jump to the source coordinates, per spec.md §4.11.
var bodyTemplate = template.Must(template.New("workpaper-body").Parse(`
<article class="workpaper" data-session-id="{{.SessionID}}">
  <h1>Reconciliation Workpaper — {{.SessionID}}</h1>
  <pre class="narrative">{{.Narrative}}</pre>
  <section class="citations">
    <h2>Citations</h2>
    <ul>
    {{range .Citations}}
      <li data-document-id="{{.DocumentID}}" data-page="{{.Page}}"{{if .Bbox}} data-bbox="{{.Bbox.X0}},{{.Bbox.Y0}},{{.Bbox.X1}},{{.Bbox.Y1}}"{{end}}>
        <strong>{{.DocumentType}}</strong> p.{{.Page}} — {{.Text}}{{if .Value}} ({{.Value}}){{end}}
      </li>
    {{end}}
    </ul>
  </section>
</article>`))

// pageTemplate wraps the body with an integrity footer carrying the body
// digest, generation time, and session id, per spec.md §4.11's footer spec.
var pageTemplate = template.Must(template.New("workpaper-page").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Workpaper {{.SessionID}}</title></head>
<body>
{{.Body}}
<footer class="workpaper-integrity">
  <p>Session: {{.SessionID}} | Generated: {{.GeneratedAt}} | SHA-256: {{.Digest}}</p>
</footer>
</body>
</html>`))

// RenderResult is the exported HTML artifact plus the digest the caller
// echoes as the X-Workpaper-Hash response header.
type RenderResult struct {
	HTML   []byte
	Digest string
}

// RenderHTML implements the "fallback that streams HTML with an embedded
// integrity footer" export path from spec.md §4.11. The digest covers the
// claim-bearing body only (not the footer, which embeds the digest itself,
// nor the chrome around it), so verification just means re-rendering the
// body and comparing hashes.
func RenderHTML(doc Document) (RenderResult, error) {
	var bodyBuf bytes.Buffer
	if err := bodyTemplate.Execute(&bodyBuf, doc); err != nil {
		return RenderResult{}, apperrors.Wrap(apperrors.KindFatal, "workpaper body render failed", err)
	}
	sum := sha256.Sum256(bodyBuf.Bytes())
	digest := hex.EncodeToString(sum[:])

	var pageBuf bytes.Buffer
	pageData := struct {
		SessionID   string
		GeneratedAt string
		Digest      string
		Body        template.HTML
	}{
		SessionID:   doc.SessionID,
		GeneratedAt: doc.GeneratedAt.Format(time.RFC3339),
		Digest:      digest,
		Body:        template.HTML(bodyBuf.String()), //nolint:gosec // body is our own template output, not user-supplied markup
	}
	if err := pageTemplate.Execute(&pageBuf, pageData); err != nil {
		return RenderResult{}, apperrors.Wrap(apperrors.KindFatal, "workpaper page render failed", err)
	}

	return RenderResult{HTML: pageBuf.Bytes(), Digest: digest}, nil
}
