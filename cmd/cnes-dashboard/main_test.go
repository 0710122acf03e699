package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func seedDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cnes.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE estabelecimentos_saude (codigo_cnes TEXT, estado TEXT, municipio TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO estabelecimentos_saude VALUES ('1', 'SP', 'Santos'), ('2', 'SP', 'Campinas'), ('3', 'RJ', 'Niterói')`)
	require.NoError(t, err)
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		configPath = ""
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func sqliteConfig(t *testing.T) string {
	return writeFile(t, "config.yaml", fmt.Sprintf(`
backend:
  kind: relational
  driver: sqlite
database:
  sqlite:
    path: %s
logging:
  level: error
`, seedDatabase(t)))
}

func TestQueryCommand(t *testing.T) {
	out, err := execute(t, "--config", sqliteConfig(t), "query", "--estado", "SP", "--page-size", "1", "--page", "2")
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, "Exibindo 2 a 2 de 2 registros", body["summary"])
	assert.Len(t, body["rows"], 1)
}

func TestRegionsCommand(t *testing.T) {
	out, err := execute(t, "--config", sqliteConfig(t), "regions")
	require.NoError(t, err)

	var pairs []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &pairs))
	assert.Equal(t, []map[string]string{
		{"estado": "RJ", "municipio": "Niterói"},
		{"estado": "SP", "municipio": "Campinas"},
		{"estado": "SP", "municipio": "Santos"},
	}, pairs)
}

func TestLookupCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cnes/estabelecimentos/2077485" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"codigo_cnes": 2077485, "nome_fantasia": "HOSPITAL A"}`)
	}))
	t.Cleanup(srv.Close)

	cfg := writeFile(t, "config.yaml", fmt.Sprintf("lookup:\n  base_url: %s\nlogging:\n  level: error\n", srv.URL))

	out, err := execute(t, "--config", cfg, "lookup", "2077485")
	require.NoError(t, err)
	assert.Contains(t, out, `"nome_fantasia": "HOSPITAL A"`)

	_, err = execute(t, "--config", cfg, "lookup", "999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CNES não encontrado ou erro na API.")

	_, err = execute(t, "--config", cfg, "lookup", "12a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Digite apenas números no campo CNES.")
}
