package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neo2475/odoo-importer/internal/domain"
)

type fakeAdapter struct {
	key   string
	match string
	panic bool
}

func (f *fakeAdapter) Key() string { return f.key }
func (f *fakeAdapter) Detect(text, _ string) bool {
	if f.panic {
		panic("boom")
	}
	return text == f.match
}
func (f *fakeAdapter) Parse(string) (*domain.ImportDoc, error) { return nil, nil }

func TestRegistryGet(t *testing.T) {
	r := NewRegistry(&fakeAdapter{key: "a"}, &fakeAdapter{key: "b"})

	a, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a", a.Key())

	_, err = r.Get("missing")
	assert.Error(t, err)
}

func TestRegistryKeysOrdered(t *testing.T) {
	r := NewRegistry(&fakeAdapter{key: "b"}, &fakeAdapter{key: "a"}, &fakeAdapter{key: "c"})
	assert.Equal(t, []string{"b", "a", "c"}, r.Keys())
}

func TestRegistryDetect(t *testing.T) {
	r := NewRegistry(
		&fakeAdapter{key: "a", match: "texto a"},
		&fakeAdapter{key: "b", match: "texto b"},
	)

	key, err := r.Detect("texto b", "doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, "b", key)

	_, err = r.Detect("texto desconocido", "doc.pdf")
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
}

func TestRegistryDetect_AmbiguityIsUnknown(t *testing.T) {
	r := NewRegistry(
		&fakeAdapter{key: "a", match: "texto"},
		&fakeAdapter{key: "b", match: "texto"},
	)
	_, err := r.Detect("texto", "doc.pdf")
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
}

func TestRegistryDetect_PanicIsNonMatch(t *testing.T) {
	r := NewRegistry(
		&fakeAdapter{key: "a", panic: true},
		&fakeAdapter{key: "b", match: "texto"},
	)
	key, err := r.Detect("texto", "doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, "b", key)
}

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{"grupo_pena", "michelin", "varona"}, r.Keys())
}
