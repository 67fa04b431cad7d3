package graph

// Metrics represents centrality and cycle metrics over the kind graph.
type Metrics struct {
	VertexMetrics []VertexMetric `json:"vertex_metrics" toon:"vertex_metrics"`
	Summary       Summary        `json:"summary" toon:"summary"`
}

// VertexMetric represents computed metrics for a single node kind.
type VertexMetric struct {
	Label     string  `json:"label" toon:"label"`
	PageRank  float64 `json:"pagerank" toon:"pagerank"`
	InDegree  int     `json:"in_degree" toon:"in_degree"`
	OutDegree int     `json:"out_degree" toon:"out_degree"`
	// Recursive is set when the kind can directly contain itself.
	Recursive bool `json:"recursive" toon:"recursive"`
}

// Summary provides aggregate graph statistics.
type Summary struct {
	TotalVertices int        `json:"total_vertices" toon:"total_vertices"`
	TotalEdges    int        `json:"total_edges" toon:"total_edges"`
	TotalNodes    int        `json:"total_nodes" toon:"total_nodes"`
	AvgDegree     float64    `json:"avg_degree" toon:"avg_degree"`
	Density       float64    `json:"density" toon:"density"`
	CycleCount    int        `json:"cycle_count" toon:"cycle_count"`
	Cycles        [][]string `json:"cycles,omitempty" toon:"cycles,omitempty"`
	IsCyclic      bool       `json:"is_cyclic" toon:"is_cyclic"`
}

// tab20 is the qualitative palette vertices are coloured from.
var tab20 = [...]string{
	"#1f77b4", "#aec7e8", "#ff7f0e", "#ffbb78", "#2ca02c",
	"#98df8a", "#d62728", "#ff9896", "#9467bd", "#c5b0d5",
	"#8c564b", "#c49c94", "#e377c2", "#f7b6d2", "#7f7f7f",
	"#c7c7c7", "#bcbd22", "#dbdb8d", "#17becf", "#9edae5",
}

// Color returns the tab20 colour for a palette index. Indices past the end
// of the palette wrap.
func Color(paletteIndex int) string {
	if paletteIndex < 0 {
		paletteIndex = 0
	}
	return tab20[paletteIndex%len(tab20)]
}
