package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haakonRefsvik/VA-student-performance/schema"
)

// Semicolon-separated like the UCI student files, with a precomputed embedding.
var studentCSV = []byte(`school;sex;Medu;G3;tsne-1;tsne-2
GP;F;4;6;-3.5;1.25
GP;M;1;10;-1.5;2.5
MS;F;2;15;0.5;-0.75
GP;M;3;12;2.25;0.5
MS;F;4;18;4.5;-2.5
`)

func TestBootstrap(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "students.csv")
	require.NoError(t, os.WriteFile(path, studentCSV, 0o644))

	dataPath, variant = path, "parallel"
	t.Cleanup(func() { dataPath, variant = "", "" })

	rt, err := bootstrap()
	require.NoError(t, err)

	assert.Equal(t, 5, rt.table.Len())
	assert.Equal(t, 5, rt.schema.Rows)
	assert.Equal(t, path, rt.schema.DiscoveredFrom)

	sex, ok := rt.schema.Column("sex")
	require.True(t, ok)
	assert.Equal(t, schema.KindBinary, sex.Kind, "F/M encoded to 0/1 before discovery")

	tsne, ok := rt.schema.Column("tsne-1")
	require.True(t, ok)
	assert.Equal(t, schema.KindEmbedding, tsne.Kind)
	assert.Equal(t, "parallel", rt.dashboard.Name)
}

func TestBootstrapMissingData(t *testing.T) {
	t.Chdir(t.TempDir())
	dataPath = "missing.csv"
	t.Cleanup(func() { dataPath = "" })

	_, err := bootstrap()
	assert.ErrorContains(t, err, "missing.csv")
}
