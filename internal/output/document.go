package output

import "github.com/preciselake/preciselake/pkg/models"

// reportDocument is the TOON shape of a report. Locations are flattened to
// "line:col" strings and an absent secondary location is an empty field.
type reportDocument struct {
	Path      string            `toon:"path"`
	Findings  []findingDocument `toon:"findings"`
	Skipped   []skippedDocument `toon:"skipped,omitempty"`
	Graph     *graphDocument    `toon:"graph,omitempty"`
	Telemetry telemetryDocument `toon:"telemetry"`
}

type findingDocument struct {
	Kind        string `toon:"kind"`
	Location    string `toon:"location"`
	Secondary   string `toon:"secondary_location,omitempty"`
	Subject     string `toon:"subject,omitempty"`
	Message     string `toon:"message"`
	Fingerprint string `toon:"fingerprint"`
}

type skippedDocument struct {
	Detector string `toon:"detector"`
	Reason   string `toon:"reason"`
}

type graphDocument struct {
	Vertices    []vertexDocument `toon:"vertices"`
	Edges       []edgeDocument   `toon:"edges"`
	TotalNodes  int              `toon:"total_nodes"`
	PaletteSize int              `toon:"palette_size"`
}

type vertexDocument struct {
	Label        string `toon:"label"`
	Order        int    `toon:"order"`
	PaletteIndex int    `toon:"palette_index"`
}

type edgeDocument struct {
	From string `toon:"from"`
	To   string `toon:"to"`
}

type telemetryDocument struct {
	MemoryMB       float64 `toon:"memory_mb"`
	ElapsedSeconds float64 `toon:"elapsed_seconds"`
}

// toonValue converts reports to documents and passes other data through.
func toonValue(data any) any {
	switch v := data.(type) {
	case *models.Report:
		if v == nil {
			return nil
		}
		return newReportDocument(v)
	case []*models.Report:
		docs := make([]reportDocument, 0, len(v))
		for _, r := range v {
			if r != nil {
				docs = append(docs, newReportDocument(r))
			}
		}
		return docs
	default:
		return data
	}
}

func newReportDocument(r *models.Report) reportDocument {
	doc := reportDocument{
		Path:     r.Path,
		Findings: make([]findingDocument, 0, len(r.Findings)),
		Telemetry: telemetryDocument{
			MemoryMB:       r.Telemetry.MemoryMB(),
			ElapsedSeconds: r.Telemetry.Elapsed.Seconds(),
		},
	}
	for _, f := range r.Findings {
		doc.Findings = append(doc.Findings, newFindingDocument(f))
	}
	for _, s := range r.Skipped {
		doc.Skipped = append(doc.Skipped, skippedDocument{Detector: s.Detector, Reason: s.Reason})
	}
	if g := r.Graph; g != nil {
		gd := &graphDocument{
			Vertices:    make([]vertexDocument, 0, len(g.Vertices)),
			Edges:       make([]edgeDocument, 0, len(g.Edges)),
			TotalNodes:  g.TotalNodes,
			PaletteSize: g.PaletteSize,
		}
		for _, vx := range g.Vertices {
			gd.Vertices = append(gd.Vertices, vertexDocument{Label: vx.Label, Order: vx.Order, PaletteIndex: vx.PaletteIndex})
		}
		for _, e := range g.Edges {
			gd.Edges = append(gd.Edges, edgeDocument{From: e.From, To: e.To})
		}
		doc.Graph = gd
	}
	return doc
}

func newFindingDocument(f models.Finding) findingDocument {
	return findingDocument{
		Kind:        f.Kind.String(),
		Location:    f.Location.String(),
		Secondary:   related(f),
		Subject:     f.Subject,
		Message:     f.Message,
		Fingerprint: f.Fingerprint,
	}
}

// related renders a finding's secondary location, or "" when it has none.
func related(f models.Finding) string {
	if f.Secondary == nil {
		return ""
	}
	return f.Secondary.String()
}
