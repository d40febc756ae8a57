package godsiot

import "fmt"

// responseNode mirrors treeNode on the inbound side. Leaf values are not
// always strings (the weekly energy counters come back as a number array),
// so pv stays untyped here.
type responseNode struct {
	PN  string         `json:"pn"`
	PV  any            `json:"pv,omitempty"`
	PCH []responseNode `json:"pch,omitempty"`
}

type endpointResponse struct {
	FR  string        `json:"fr"`
	PC  *responseNode `json:"pc,omitempty"`
	RSC *int          `json:"rsc,omitempty"`
}

type multiResponse struct {
	Responses []endpointResponse `json:"responses"`
}

// findValue extracts the leaf value addressed by fr and keys. The response
// list is filtered down to entries tagged with fr, then each key selects the
// matching child by name. A missing endpoint or key is a protocol error.
func findValue(resp *multiResponse, fr string, keys ...string) (any, error) {
	var nodes []responseNode
	for _, r := range resp.Responses {
		if r.FR == fr && r.PC != nil {
			nodes = append(nodes, *r.PC)
		}
	}
	if len(nodes) == 0 {
		return nil, NewProtocolError("endpoint "+fr+" not found in response", nil)
	}

	for i, key := range keys {
		found := false
		for _, n := range nodes {
			if n.PN != key {
				continue
			}
			if i == len(keys)-1 {
				return n.PV, nil
			}
			nodes = n.PCH
			found = true
			break
		}
		if !found {
			return nil, NewProtocolError("key "+key+" not found", nil)
		}
	}
	return nil, NewProtocolError("value not found", nil)
}

// findString is findValue for the common case of a string-coded leaf.
func findString(resp *multiResponse, p Path) (string, error) {
	v, err := findValue(resp, p.Endpoint(), p.Keys()...)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", NewProtocolError(fmt.Sprintf("unexpected value %v for %s", v, p.Leaf()), nil)
	}
	return s, nil
}

// validateResponse checks the per-endpoint result codes of a write exchange.
// 2000 and 2004 are success; anything else becomes a DeviceError carrying
// the code and the offending endpoint.
func validateResponse(resp *multiResponse) error {
	for _, r := range resp.Responses {
		if r.RSC == nil {
			continue
		}
		switch *r.RSC {
		case rscOK, rscAccepted:
		default:
			fr := r.FR
			if fr == "" {
				fr = "unknown"
			}
			return &DeviceError{Endpoint: fr, Code: *r.RSC}
		}
	}
	return nil
}
