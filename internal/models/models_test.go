package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterCriteria_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   FilterCriteria
		want FilterCriteria
	}{
		{"empty", FilterCriteria{}, FilterCriteria{}},
		{"sub-region without region is dropped", FilterCriteria{SubRegion: "Campinas"}, FilterCriteria{}},
		{"whitespace trimmed", FilterCriteria{Region: " SP ", SubRegion: " Campinas"}, FilterCriteria{Region: "SP", SubRegion: "Campinas"}},
		{"blank region clears sub-region", FilterCriteria{Region: "  ", SubRegion: "Campinas"}, FilterCriteria{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestFilterCriteria_WithRegion(t *testing.T) {
	c := FilterCriteria{Region: "SP", SubRegion: "Campinas"}

	assert.Equal(t, FilterCriteria{Region: "SP", SubRegion: "Campinas"}, c.WithRegion("SP"))
	assert.Equal(t, FilterCriteria{Region: "RJ"}, c.WithRegion("RJ"))
	assert.Equal(t, FilterCriteria{}, c.WithRegion(""))
	assert.True(t, c.WithRegion("").IsEmpty())
}

func TestPageRequest_Normalize(t *testing.T) {
	assert.Equal(t, PageRequest{Page: 1, Size: DefaultPageSize}, PageRequest{}.Normalize())
	assert.Equal(t, PageRequest{Page: 1, Size: 10}, PageRequest{Page: -3, Size: 10}.Normalize())
	assert.Equal(t, PageRequest{Page: 4, Size: 100}, PageRequest{Page: 4, Size: -1}.Normalize())
}

func TestDistinctValuesIndex(t *testing.T) {
	idx := NewDistinctValuesIndex([]RegionPair{
		{Region: "SP", SubRegion: "Santos"},
		{Region: "RJ", SubRegion: "Niterói"},
		{Region: "SP", SubRegion: "Campinas"},
		{Region: "SP", SubRegion: "Campinas"},
		{Region: "", SubRegion: "Orphan"},
		{Region: "MG", SubRegion: ""},
	})

	assert.Len(t, idx.Pairs, 3)
	assert.Equal(t, []string{"RJ", "SP"}, idx.Regions())
	assert.Equal(t, []string{"Campinas", "Santos"}, idx.SubRegions("SP"))
	assert.Equal(t, []string{}, idx.SubRegions(""))
	assert.Equal(t, []string{}, idx.SubRegions("AC"))
}

func TestRecord_String(t *testing.T) {
	r := Record{"estado": "SP", "codigo": 2077485, "ratio": 1.5, "raw": []byte("x"), "nil": nil}

	assert.Equal(t, "SP", r.String("estado"))
	assert.Equal(t, "2077485", r.String("codigo"))
	assert.Equal(t, "1.5", r.String("ratio"))
	assert.Equal(t, "x", r.String("raw"))
	assert.Equal(t, "", r.String("nil"))
	assert.Equal(t, "", r.String("missing"))
}

func TestEstablishmentRecord_Decode(t *testing.T) {
	body := `{
		"codigo_cnes": 2077485,
		"nome_fantasia": "HOSPITAL MUNICIPAL",
		"numero_cnpj": "46068425000133",
		"numero_estabelecimento": "S/N",
		"numero_telefone_estabelecimento": null,
		"estabelecimento_possui_centro_cirurgico": 1,
		"estabelecimento_possui_centro_obstetrico": true,
		"estabelecimento_possui_centro_neonatal": "0",
		"estabelecimento_possui_atendimento_hospitalar": "1",
		"estabelecimento_possui_servico_apoio": null,
		"estabelecimento_possui_atendimento_ambulatorial": 0,
		"data_atualizacao": "2024-03-01"
	}`

	var rec EstablishmentRecord
	require.NoError(t, json.Unmarshal([]byte(body), &rec))

	assert.Equal(t, "2077485", rec.CodigoCNES.String())
	assert.Equal(t, "S/N", string(rec.Numero))
	assert.Equal(t, "", string(rec.Telefone))
	assert.True(t, rec.HasCentroCirurgico())
	assert.True(t, rec.HasCentroObstetrico())
	assert.False(t, rec.HasCentroNeonatal())
	assert.True(t, rec.HasAtendimentoHospitalar())
	assert.False(t, rec.HasServicoApoio())
	assert.False(t, rec.HasAtendimentoAmbulatorial())

	fields := rec.Fields()
	assert.Equal(t, "2077485", fields["codigo_cnes"])
	assert.Equal(t, 1, fields["estabelecimento_possui_centro_cirurgico"])
	assert.Equal(t, 0, fields["estabelecimento_possui_servico_apoio"])
	assert.Equal(t, "HOSPITAL MUNICIPAL", fields["nome_fantasia"])
}

func TestFlag_DecodeError(t *testing.T) {
	var f Flag
	assert.Error(t, json.Unmarshal([]byte(`"yes"`), &f))
	assert.Error(t, json.Unmarshal([]byte(`{}`), &f))
}
