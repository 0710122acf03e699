package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EstablishmentRecord is one CNES record as served by the public
// /cnes/estabelecimentos/{codigo} endpoint.
type EstablishmentRecord struct {
	CodigoCNES           FlexString `json:"codigo_cnes"`
	NomeFantasia         string     `json:"nome_fantasia"`
	NumeroCNPJ           FlexString `json:"numero_cnpj"`
	Bairro               string     `json:"bairro_estabelecimento"`
	Endereco             string     `json:"endereco_estabelecimento"`
	Numero               FlexString `json:"numero_estabelecimento"`
	Telefone             FlexString `json:"numero_telefone_estabelecimento"`
	Email                string     `json:"endereco_email_estabelecimento"`
	CentroCirurgico      Flag       `json:"estabelecimento_possui_centro_cirurgico"`
	CentroObstetrico     Flag       `json:"estabelecimento_possui_centro_obstetrico"`
	CentroNeonatal       Flag       `json:"estabelecimento_possui_centro_neonatal"`
	AtendimentoHospital  Flag       `json:"estabelecimento_possui_atendimento_hospitalar"`
	ServicoApoio         Flag       `json:"estabelecimento_possui_servico_apoio"`
	AtendimentoAmbulator Flag       `json:"estabelecimento_possui_atendimento_ambulatorial"`
	DataAtualizacao      string     `json:"data_atualizacao"`
}

func (r *EstablishmentRecord) HasCentroCirurgico() bool       { return r.CentroCirurgico == 1 }
func (r *EstablishmentRecord) HasCentroObstetrico() bool      { return r.CentroObstetrico == 1 }
func (r *EstablishmentRecord) HasCentroNeonatal() bool        { return r.CentroNeonatal == 1 }
func (r *EstablishmentRecord) HasAtendimentoHospitalar() bool { return r.AtendimentoHospital == 1 }
func (r *EstablishmentRecord) HasServicoApoio() bool          { return r.ServicoApoio == 1 }
func (r *EstablishmentRecord) HasAtendimentoAmbulatorial() bool {
	return r.AtendimentoAmbulator == 1
}

// Fields flattens the record into API field names, for display rendering.
func (r *EstablishmentRecord) Fields() Record {
	data, err := json.Marshal(r)
	if err != nil {
		return Record{}
	}
	out := Record{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return Record{}
	}
	for k, v := range out {
		if n, ok := v.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				out[k] = int(i)
			}
		}
	}
	return out
}

// Flag is a 0/1 indicator. The API is not consistent about encoding, so
// integers, booleans, numeric strings and null are all accepted.
type Flag int

func (f *Flag) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch raw {
	case "null", `""`:
		*f = 0
		return nil
	case "true":
		*f = 1
		return nil
	case "false":
		*f = 0
		return nil
	}
	raw = strings.Trim(raw, `"`)
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("flag: cannot decode %s", string(data))
	}
	*f = Flag(int(n))
	return nil
}

// FlexString decodes both JSON strings and numbers into a string. Codes
// like codigo_cnes arrive as either.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*s = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("flex string: cannot decode %s", raw)
	}
	*s = FlexString(num.String())
	return nil
}

func (s FlexString) String() string { return string(s) }

func toString(v interface{}) string {
	switch val := v.(type) {
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
