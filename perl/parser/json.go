package parser

import "encoding/json"

type jsonNode struct {
	Kind     string      `json:"kind"`
	Start    int         `json:"start"`
	End      int         `json:"end"`
	Value    string      `json:"value,omitempty"`
	Children []*jsonNode `json:"children,omitempty"`
}

func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.toJSON())
}

func (n *Node) toJSON() *jsonNode {
	jn := &jsonNode{
		Kind:  n.Kind.String(),
		Start: n.Location.Start,
		End:   n.Location.End,
		Value: n.Value,
	}
	if len(n.Children) > 0 {
		jn.Children = make([]*jsonNode, len(n.Children))
		for i, child := range n.Children {
			jn.Children[i] = child.toJSON()
		}
	}
	return jn
}
