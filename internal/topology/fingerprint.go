package topology

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/roach88/portsched/internal/graph"
)

// fingerprintDomain separates topology hashes from any other SHA-256 use.
// The version suffix allows the encoding to change later.
const fingerprintDomain = "portsched/topology/v1"

// Fingerprint returns a hex SHA-256 over the live nodes and edges of g, in
// index order, keyed by node name. Two topologies that compile to the same
// graph share a fingerprint regardless of CUE formatting.
func Fingerprint(g *graph.Graph) string {
	h := sha256.New()
	h.Write([]byte(fingerprintDomain))
	h.Write([]byte{0x00})

	for _, n := range g.Nodes() {
		writeField(h, "node", n.Name)
	}
	for _, e := range g.Edges() {
		writeField(h, "edge", g.NodeName(e.From))
		writeField(h, "to", g.NodeName(e.To))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint hashes the topology's graph.
func (t *Topology) Fingerprint() string {
	return Fingerprint(t.Graph)
}

// writeField length-prefixes s so adjacent names cannot run together.
func writeField(w io.Writer, kind, s string) {
	fmt.Fprintf(w, "%s:%d:%s;", kind, len(s), s)
}
