package lookup

import "cnes-dashboard/internal/common/validation"

// responseSchema is the minimum shape of a usable record.
var responseSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["codigo_cnes"],
	"properties": {
		"codigo_cnes": {"type": ["string", "integer"]},
		"nome_fantasia": {"type": ["string", "null"]},
		"numero_cnpj": {"type": ["string", "integer", "null"]},
		"data_atualizacao": {"type": ["string", "null"]}
	}
}`)
