package schema

import (
	"testing"

	"github.com/aclements/go-gg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// DISCOVERY TESTS
// ============================================================================

// studentTable is a twelve-student slice of the performance dataset as the
// CSV loader produces it (binary columns already encoded as 0/1).
func studentTable() *table.Table {
	return new(table.Builder).
		Add("id", []string{"s01", "s02", "s03", "s04", "s05", "s06", "s07", "s08", "s09", "s10", "s11", "s12"}).
		Add("school", []string{"GP", "GP", "MS", "GP", "MS", "GP", "GP", "MS", "GP", "GP", "MS", "GP"}).
		Add("sex", []int{0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 1, 0}).
		Add("age", []int{15, 16, 17, 18, 19, 20, 15, 16, 17, 18, 21, 22}).
		Add("Medu", []int{0, 1, 2, 3, 4, 4, 3, 2, 1, 0, 2, 3}).
		Add("absences", []int{0, 2, 4, 6, 8, 10, 12, 14, 16, 18, 30, 75}).
		Add("G3", []int{5, 10, 15, 20, 0, 5, 10, 15, 20, 0, 11, 12}).
		Add("tsne-1", []float64{-10.5, -8.1, -6, -4, -2, 0, 2, 4, 6, 10.2, 1.1, 3.3}).
		Add("tsne-2", []float64{1.5, 2, 3, 4, 5, 6, 7, 8, 9, 11, -1.2, 0}).
		Add("cohort", []int{2020, 2020, 2020, 2020, 2020, 2020, 2020, 2020, 2020, 2020, 2020, 2020}).
		Done()
}

func TestDiscoverFromTable(t *testing.T) {
	cfg, err := DiscoverFromTable(studentTable())
	require.NoError(t, err)

	assert.Equal(t, "Auto-discovered Dataset", cfg.Name)
	assert.Equal(t, 12, cfg.Rows)
	assert.Equal(t, "table", cfg.DiscoveredFrom)
	assert.NotEmpty(t, cfg.DiscoveredAt)

	kinds := map[string]Kind{}
	for _, c := range cfg.Columns {
		kinds[c.Key] = c.Kind
	}
	assert.Equal(t, map[string]Kind{
		"school":   KindCategorical,
		"sex":      KindBinary,
		"age":      KindNumeric,
		"Medu":     KindOrdinal,
		"absences": KindNumeric,
		"G3":       KindNumeric,
		"tsne-1":   KindEmbedding,
		"tsne-2":   KindEmbedding,
	}, kinds)

	assert.Equal(t, []string{"tsne-1", "tsne-2"}, cfg.KeysOfKind(KindEmbedding))
	assert.Equal(t, []string{"school", "sex", "age", "Medu", "absences", "G3", "tsne-1", "tsne-2"}, cfg.ColumnKeys(),
		"columns keep table order")
}

func TestDiscoverColumnDetails(t *testing.T) {
	cfg, err := DiscoverFromTable(studentTable())
	require.NoError(t, err)

	medu, ok := cfg.Column("Medu")
	require.True(t, ok)
	assert.Equal(t, "Mother Education Level", medu.DisplayName)
	assert.Equal(t, 0.0, medu.Min)
	assert.Equal(t, 4.0, medu.Max)
	assert.Equal(t, 5, medu.Cardinality)
	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, medu.SampleValues)
	assert.Equal(t, "None", medu.Levels[0])
	assert.Len(t, medu.Levels, 5)

	school, ok := cfg.Column("school")
	require.True(t, ok)
	assert.Equal(t, []string{"GP", "MS"}, school.SampleValues)
	assert.Equal(t, 2, school.Cardinality)
	assert.False(t, school.Kind.Binnable())

	tsne, ok := cfg.Column("tsne-1")
	require.True(t, ok)
	assert.Equal(t, -10.5, tsne.Min)
	assert.Equal(t, 10.2, tsne.Max)
}

func TestDiscoverSkippedColumns(t *testing.T) {
	cfg, err := DiscoverFromTable(studentTable())
	require.NoError(t, err)

	skipped := map[string]SkippedColumn{}
	for _, s := range cfg.SkippedColumns {
		skipped[s.Column] = s
	}
	require.Contains(t, skipped, "id")
	assert.False(t, skipped["id"].Recoverable)
	assert.Contains(t, skipped["id"].Reason, "identifier")

	require.Contains(t, skipped, "cohort")
	assert.True(t, skipped["cohort"].Recoverable)

	t.Run("recover", func(t *testing.T) {
		opt := DefaultDiscoverOptions()
		opt.RecoverColumns = []string{"COHORT"}
		cfg, err := DiscoverFromTable(studentTable(), opt)
		require.NoError(t, err)
		c, ok := cfg.Column("cohort")
		require.True(t, ok)
		assert.Equal(t, 1, c.Cardinality)
	})
}

func TestDiscoverOptions(t *testing.T) {
	t.Run("ordinal threshold", func(t *testing.T) {
		opt := DefaultDiscoverOptions()
		opt.MaxOrdinalLevels = 8
		cfg, err := DiscoverFromTable(studentTable(), opt)
		require.NoError(t, err)
		age, _ := cfg.Column("age")
		assert.Equal(t, KindOrdinal, age.Kind)
	})

	t.Run("forced embedding and name", func(t *testing.T) {
		opt := DefaultDiscoverOptions()
		opt.EmbeddingColumns = []string{"absences"}
		opt.Name = "students"
		cfg, err := DiscoverFromTable(studentTable(), opt)
		require.NoError(t, err)
		assert.Equal(t, "students", cfg.Name)
		abs, _ := cfg.Column("absences")
		assert.Equal(t, KindEmbedding, abs.Kind)
	})

	t.Run("sample size", func(t *testing.T) {
		opt := DefaultDiscoverOptions()
		opt.SampleSize = 4
		cfg, err := DiscoverFromTable(studentTable(), opt)
		require.NoError(t, err)
		g3, _ := cfg.Column("G3")
		assert.Equal(t, 20.0, g3.Max)
		assert.Equal(t, 4, g3.Cardinality)
		assert.Equal(t, 12, cfg.Rows)
	})
}

func TestDiscoverErrors(t *testing.T) {
	_, err := DiscoverFromTable(nil)
	assert.Error(t, err)

	_, err = DiscoverFromTable(new(table.Builder).Add("x", []int{}).Done())
	assert.Error(t, err)

	_, err = DiscoverFromTable(new(table.Builder).Add("k", []int{3, 3, 3}).Done())
	assert.ErrorContains(t, err, "no usable columns")
}

func TestIsEmbeddingName(t *testing.T) {
	for name, want := range map[string]bool{
		"tsne-1":  true,
		"TSNE_2":  true,
		"umap-1":  true,
		"pc1":     true,
		"pca 2":   true,
		"Pstatus": false,
		"tsne":    false,
		"G3":      false,
	} {
		assert.Equal(t, want, isEmbeddingName(name), name)
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Final Grade", displayName("G3"))
	assert.Equal(t, "Study Hours", displayName("study_hours"))
	assert.Equal(t, "Already Nice", displayName("Already Nice"))
}
