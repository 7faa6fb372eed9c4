package dto

// Address is the subset of a postal-code lookup the portal fills in.
type Address struct {
	CEP          string `json:"cep"`
	AddressLine  string `json:"addressLine"`
	Neighborhood string `json:"neighborhood,omitempty"`
	City         string `json:"city"`
	State        string `json:"state,omitempty"`
}

// ViaCEPResponse is the payload returned by ViaCEP.
type ViaCEPResponse struct {
	CEP        string `json:"cep"`
	Logradouro string `json:"logradouro"`
	Bairro     string `json:"bairro"`
	Localidade string `json:"localidade"`
	UF         string `json:"uf"`
	Erro       any    `json:"erro,omitempty"`
}

// NotFound reports the {"erro": true} marker ViaCEP uses for unknown codes.
func (r ViaCEPResponse) NotFound() bool {
	switch v := r.Erro.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

// ToAddress keeps the fields the portal uses.
func (r ViaCEPResponse) ToAddress() Address {
	return Address{
		CEP:          r.CEP,
		AddressLine:  r.Logradouro,
		Neighborhood: r.Bairro,
		City:         r.Localidade,
		State:        r.UF,
	}
}
