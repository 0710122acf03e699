package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cnes-dashboard/pkg/registry"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRegistryUpdater(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configs", "field-registry.json")

	out, err := run(t, "init", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote registry")

	_, err = run(t, "init", "--path", path)
	assert.Error(t, err, "init does not overwrite without --force")

	_, err = run(t, "add", "--path", path, "--section", "contato", "--key", "codigo_municipio", "--label", "Código do Município")
	require.NoError(t, err)

	_, err = run(t, "add", "--path", path, "--section", "contato", "--key", "codigo_municipio", "--label", "Duplicado")
	assert.Error(t, err)

	_, err = run(t, "update", "--path", path, "--key", "codigo_municipio", "--field", "kind", "--value", "flag")
	require.NoError(t, err)

	_, err = run(t, "update", "--path", path, "--key", "codigo_municipio", "--field", "kind", "--value", "emoji")
	assert.Error(t, err)

	out, err = run(t, "validate", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Registry validation passed.")

	reg, err := registry.LoadRegistry(path)
	require.NoError(t, err)
	contato := reg.Sections[1]
	last := contato.Fields[len(contato.Fields)-1]
	assert.Equal(t, registry.Field{Key: "codigo_municipio", Label: "Código do Município", Kind: registry.KindFlag}, last)
	assert.NotEmpty(t, reg.LastUpdated)
}

func TestValidate_MissingFile(t *testing.T) {
	_, err := run(t, "validate", "--path", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
