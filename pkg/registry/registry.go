package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	FlagYes = "Sim"
	FlagNo  = "Não"
)

func LoadRegistry(path string) (*FieldRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg FieldRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Save writes reg as indented JSON, creating the parent directory.
func Save(reg *FieldRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

// Default is the layout of the establishment detail view.
func Default() *FieldRegistry {
	return &FieldRegistry{
		Version: "1.0.0",
		Sections: []Section{
			{
				ID:    "principal",
				Title: "Informações Principais",
				Fields: []Field{
					{Key: "nome_fantasia", Label: "Nome", Kind: KindText},
					{Key: "codigo_cnes", Label: "CNES", Kind: KindText},
					{Key: "numero_cnpj", Label: "CNPJ", Kind: KindText},
				},
			},
			{
				ID:    "contato",
				Title: "Contato",
				Fields: []Field{
					{Key: "bairro_estabelecimento", Label: "Bairro", Kind: KindText},
					{Key: "endereco_estabelecimento", Label: "Endereço", Kind: KindText},
					{Key: "numero_estabelecimento", Label: "Número", Kind: KindText},
					{Key: "numero_telefone_estabelecimento", Label: "Telefone", Kind: KindText},
					{Key: "endereco_email_estabelecimento", Label: "Email", Kind: KindText},
				},
			},
			{
				ID:    "mais",
				Title: "Mais Informações",
				Fields: []Field{
					{Key: "estabelecimento_possui_centro_cirurgico", Label: "Possui Centro Cirúrgico", Kind: KindFlag},
					{Key: "estabelecimento_possui_centro_obstetrico", Label: "Possui Centro Obstretico", Kind: KindFlag},
					{Key: "estabelecimento_possui_centro_neonatal", Label: "Possui Centro Neonatal", Kind: KindFlag},
					{Key: "estabelecimento_possui_atendimento_hospitalar", Label: "Possui Atendimento Hospitalar", Kind: KindFlag},
					{Key: "estabelecimento_possui_servico_apoio", Label: "Possui Serviço de Apoio", Kind: KindFlag},
					{Key: "estabelecimento_possui_atendimento_ambulatorial", Label: "Possui Atendimento Ambulatorial", Kind: KindFlag},
					{Key: "data_atualizacao", Label: "Atualizado em", Kind: KindText},
				},
			},
		},
	}
}

// Validate checks that section ids and field keys are unique and set, and
// that every kind is known.
func (r *FieldRegistry) Validate() error {
	if len(r.Sections) == 0 {
		return fmt.Errorf("registry contains no sections")
	}

	sections := make(map[string]bool)
	keys := make(map[string]bool)
	for _, s := range r.Sections {
		if s.ID == "" {
			return fmt.Errorf("section missing required field: ID")
		}
		if sections[s.ID] {
			return fmt.Errorf("duplicate section ID: %s", s.ID)
		}
		sections[s.ID] = true
		if s.Title == "" {
			return fmt.Errorf("section %s missing required field: Title", s.ID)
		}

		for _, f := range s.Fields {
			if f.Key == "" {
				return fmt.Errorf("section %s has a field without a key", s.ID)
			}
			if keys[f.Key] {
				return fmt.Errorf("duplicate field key: %s", f.Key)
			}
			keys[f.Key] = true
			if f.Label == "" {
				return fmt.Errorf("field %s missing required field: Label", f.Key)
			}
			if f.Kind != KindText && f.Kind != KindFlag {
				return fmt.Errorf("field %s has unknown kind %q", f.Key, f.Kind)
			}
		}
	}
	return nil
}

// AddField appends f to the section with sectionID.
func (r *FieldRegistry) AddField(sectionID string, f Field) error {
	if f.Kind == "" {
		f.Kind = KindText
	}
	for _, s := range r.Sections {
		for _, existing := range s.Fields {
			if existing.Key == f.Key {
				return fmt.Errorf("field with key %s already exists", f.Key)
			}
		}
	}
	for i := range r.Sections {
		if r.Sections[i].ID == sectionID {
			r.Sections[i].Fields = append(r.Sections[i].Fields, f)
			r.touch()
			return nil
		}
	}
	return fmt.Errorf("section with ID %s not found", sectionID)
}

// UpdateField sets one attribute (label or kind) of the field with key.
func (r *FieldRegistry) UpdateField(key, attribute, value string) error {
	for i := range r.Sections {
		for j := range r.Sections[i].Fields {
			f := &r.Sections[i].Fields[j]
			if f.Key != key {
				continue
			}
			switch attribute {
			case "label":
				f.Label = value
			case "kind":
				if Kind(value) != KindText && Kind(value) != KindFlag {
					return fmt.Errorf("unknown kind: %s", value)
				}
				f.Kind = Kind(value)
			default:
				return fmt.Errorf("unknown field: %s", attribute)
			}
			r.touch()
			return nil
		}
	}
	return fmt.Errorf("field with key %s not found", key)
}

func (r *FieldRegistry) touch() {
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
}

// Render lays values out per the registry. Missing text values render as
// an empty string; flags render Sim only when the value is 1.
func (r *FieldRegistry) Render(values map[string]interface{}) View {
	view := View{Sections: make([]SectionView, 0, len(r.Sections))}
	for _, s := range r.Sections {
		sv := SectionView{ID: s.ID, Title: s.Title, Fields: make([]FieldView, 0, len(s.Fields))}
		for _, f := range s.Fields {
			v := values[f.Key]
			rendered := textValue(v)
			if f.Kind == KindFlag {
				rendered = FlagNo
				if isOne(v) {
					rendered = FlagYes
				}
			}
			sv.Fields = append(sv.Fields, FieldView{Key: f.Key, Label: f.Label, Value: rendered})
		}
		view.Sections = append(view.Sections, sv)
	}
	return view
}

func textValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

func isOne(v interface{}) bool {
	switch val := v.(type) {
	case int:
		return val == 1
	case int64:
		return val == 1
	case float64:
		return val == 1
	case bool:
		return val
	case string:
		return val == "1"
	case json.Number:
		return val.String() == "1"
	}
	return false
}
