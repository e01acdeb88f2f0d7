package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const chainSrc = `pipeline: {
	nodes: ["a", "b", "c"]
	edges: [{from: "a", to: "b"}, {from: "b", to: "c"}]
}`

func TestFingerprint_Deterministic(t *testing.T) {
	fp1 := compile(t, chainSrc).Fingerprint()
	fp2 := compile(t, chainSrc).Fingerprint()

	assert.Equal(t, fp1, fp2)
	assert.Len(t, fp1, 64, "SHA-256 hex is 64 characters")
}

func TestFingerprint_IgnoresFormattingAndName(t *testing.T) {
	reformatted := compile(t, `pipeline: name: "renamed"
pipeline: nodes: ["a", "b", "c"]
pipeline: edges: [
	{from: "a", to: "b"},
	{from: "b", to: "c"},
]`)

	assert.Equal(t, compile(t, chainSrc).Fingerprint(), reformatted.Fingerprint())
}

func TestFingerprint_ChangesWithGraph(t *testing.T) {
	base := compile(t, chainSrc).Fingerprint()

	extraEdge := compile(t, `pipeline: {
	nodes: ["a", "b", "c"]
	edges: [{from: "a", to: "b"}, {from: "b", to: "c"}, {from: "c", to: "a"}]
}`).Fingerprint()
	renamed := compile(t, `pipeline: {
	nodes: ["a", "b", "d"]
	edges: [{from: "a", to: "b"}, {from: "b", to: "d"}]
}`).Fingerprint()
	reversed := compile(t, `pipeline: {
	nodes: ["a", "b", "c"]
	edges: [{from: "b", to: "a"}, {from: "b", to: "c"}]
}`).Fingerprint()

	assert.NotEqual(t, base, extraEdge)
	assert.NotEqual(t, base, renamed)
	assert.NotEqual(t, base, reversed)
}

func TestFingerprint_NameBoundaries(t *testing.T) {
	ab := compile(t, `pipeline: nodes: ["ab", "c"]`).Fingerprint()
	abc := compile(t, `pipeline: nodes: ["a", "bc"]`).Fingerprint()
	assert.NotEqual(t, ab, abc)
}

func TestFingerprint_RemovedEdge(t *testing.T) {
	top := compile(t, chainSrc)
	before := top.Fingerprint()
	assert.NoError(t, top.Graph.RemoveEdge(1))

	withoutEdge := compile(t, `pipeline: {
	nodes: ["a", "b", "c"]
	edges: [{from: "a", to: "b"}]
}`).Fingerprint()

	assert.NotEqual(t, before, top.Fingerprint())
	assert.Equal(t, withoutEdge, top.Fingerprint())
}
