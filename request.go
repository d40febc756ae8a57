package godsiot

// Wire operation codes for the multireq endpoint.
const (
	opRead  = 2
	opWrite = 3
)

// statusFilter trims read responses down to the value/type/metadata fields.
const statusFilter = "?filter=pv,pt,md"

// Attribute is a single leaf write, split from a catalog Path: the endpoint
// it goes to, the two-level branch prefix inside that endpoint's tree, the
// leaf name and the value.
type Attribute struct {
	Name  string
	Value string
	Path  []string
	To    string
}

func newAttribute(p Path, value string) Attribute {
	return Attribute{
		Name:  p.Leaf(),
		Value: value,
		Path:  p.inner(),
		To:    p.Endpoint(),
	}
}

// treeNode is one node of the nested request tree: a branch carries child
// nodes under pch, a leaf carries its value under pv.
type treeNode struct {
	PN  string      `json:"pn"`
	PV  string      `json:"pv,omitempty"`
	PCH []*treeNode `json:"pch,omitempty"`
}

// child returns the branch named pn, appending a new one if absent. Merging
// by name is what keeps repeated writes to a shared prefix in one branch.
func (n *treeNode) child(pn string) *treeNode {
	for _, c := range n.PCH {
		if c.PN == pn {
			return c
		}
	}
	c := &treeNode{PN: pn}
	n.PCH = append(n.PCH, c)
	return c
}

type wireRequest struct {
	Op int       `json:"op"`
	To string    `json:"to"`
	PC *treeNode `json:"pc,omitempty"`
}

type multiRequest struct {
	Requests []*wireRequest `json:"requests"`
}

func (m *multiRequest) findEndpoint(to string) *wireRequest {
	for _, r := range m.Requests {
		if r.To == to {
			return r
		}
	}
	return nil
}

// Request collects attribute writes for a single exchange.
type Request struct {
	Attributes []Attribute
}

// Payload encodes the writes into the wire tree. All attributes targeting
// the same endpoint merge into one op-3 node, and writes sharing a branch
// prefix merge into the same branch rather than duplicating siblings.
func (r *Request) Payload() *multiRequest {
	payload := &multiRequest{}

	for _, attr := range r.Attributes {
		req := payload.findEndpoint(attr.To)
		if req == nil {
			req = &wireRequest{
				Op: opWrite,
				To: attr.To,
				PC: &treeNode{PN: statusRoot},
			}
			payload.Requests = append(payload.Requests, req)
		}

		node := req.PC
		for _, pn := range attr.Path {
			node = node.child(pn)
		}
		node.PCH = append(node.PCH, &treeNode{PN: attr.Name, PV: attr.Value})
	}

	return payload
}

// statusPayload is the fixed read set covering the device's full observable
// state: both status trees, the weekly energy counters, and the identity
// endpoint (unfiltered). It does not vary by settings.
func statusPayload() *multiRequest {
	return &multiRequest{Requests: []*wireRequest{
		{Op: opRead, To: endpointStatus + statusFilter},
		{Op: opRead, To: endpointOutdoor + statusFilter},
		{Op: opRead, To: endpointEnergy + statusFilter},
		{Op: opRead, To: endpointIdentity},
	}}
}
