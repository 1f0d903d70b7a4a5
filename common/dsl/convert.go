package dsl

// EditorNodeType is the render type every node carries in the editor graph.
const EditorNodeType = "workflowNode"

// Position is the editor-only placement of a node on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Positions maps node id to canvas placement. It is the side channel that
// keeps visual state out of the canonical DSL.
type Positions map[string]Position

// EditorNode is the editor's view of a node: DSL fields tucked into data,
// plus visual state.
type EditorNode struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Position Position       `json:"position"`
	Data     EditorNodeData `json:"data"`
}

// EditorNodeData carries the DSL node fields inside an editor node.
type EditorNodeData struct {
	NodeType string                `json:"nodeType"`
	Label    string                `json:"label,omitempty"`
	Params   map[string]ParamValue `json:"params,omitempty"`
	Inputs   map[string]IOSchema   `json:"inputs,omitempty"`
	Outputs  map[string]IOSchema   `json:"outputs,omitempty"`
}

// EditorGraph is the editor-facing form of a workflow. Every canonical DSL
// field survives a round trip; positions are the only addition.
type EditorGraph struct {
	DSLVersion string              `json:"dslVersion"`
	Meta       Meta                `json:"meta"`
	Inputs     map[string]IOSchema `json:"inputs,omitempty"`
	Outputs    map[string]IOSchema `json:"outputs,omitempty"`
	Secrets    []string            `json:"secrets,omitempty"`
	Nodes      []EditorNode        `json:"nodes"`
	Edges      []Edge              `json:"edges"`
}

// ToEditor converts a canonical workflow to its editor graph. Nodes without
// a stored position land at the origin.
func ToEditor(wf *Workflow, positions Positions) *EditorGraph {
	g := &EditorGraph{
		DSLVersion: wf.DSLVersion,
		Meta:       wf.Meta,
		Inputs:     wf.Inputs,
		Outputs:    wf.Outputs,
		Secrets:    wf.Secrets,
		Nodes:      make([]EditorNode, 0, len(wf.Nodes)),
		Edges:      append([]Edge(nil), wf.Edges...),
	}

	for _, n := range wf.Nodes {
		g.Nodes = append(g.Nodes, EditorNode{
			ID:       n.ID,
			Type:     EditorNodeType,
			Position: positions[n.ID],
			Data: EditorNodeData{
				NodeType: n.Type,
				Label:    n.Label,
				Params:   n.Params,
				Inputs:   n.Inputs,
				Outputs:  n.Outputs,
			},
		})
	}

	return g
}

// FromEditor converts an editor graph back to the canonical workflow and the
// position side map.
func FromEditor(g *EditorGraph) (*Workflow, Positions) {
	wf := &Workflow{
		DSLVersion: g.DSLVersion,
		Meta:       g.Meta,
		Inputs:     g.Inputs,
		Outputs:    g.Outputs,
		Secrets:    g.Secrets,
		Nodes:      make([]Node, 0, len(g.Nodes)),
		Edges:      append([]Edge(nil), g.Edges...),
	}

	positions := make(Positions, len(g.Nodes))
	for _, en := range g.Nodes {
		positions[en.ID] = en.Position
		wf.Nodes = append(wf.Nodes, Node{
			ID:      en.ID,
			Type:    en.Data.NodeType,
			Label:   en.Data.Label,
			Params:  en.Data.Params,
			Inputs:  en.Data.Inputs,
			Outputs: en.Data.Outputs,
		})
	}

	return wf, positions
}
