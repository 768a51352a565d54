package models

// GraphNode is one claim in the node-link graph payload. Type reflects the
// claim status: validated, qualified, proposed, or rejected.
type GraphNode struct {
	ID        string `json:"id"`
	ClaimText string `json:"claim_text"`
	Type      string `json:"type"`
	Round     int    `json:"round"`
}

// GraphEdge links two graph nodes by claim ID.
type GraphEdge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	EdgeType string `json:"edge_type"`
}

// GraphResponse is the knowledge-graph snapshot for a session.
type GraphResponse struct {
	SessionID string      `json:"session_id"`
	Nodes     []GraphNode `json:"nodes"`
	Edges     []GraphEdge `json:"edges"`
}
