// Package wms contém os DTOs das operações de armazém.
package wms

import (
	"encoding/json"
	"regexp"
)

var digitsOnly = regexp.MustCompile(`^\d+$`)

// SearchItemsRequest é o corpo de POST /search-items.
// codArm chega como string de dígitos (contrato herdado do app).
type SearchItemsRequest struct {
	CodArm string `json:"codArm"`
	Filtro string `json:"filtro,omitempty"`
}

func (r *SearchItemsRequest) Validate() []string {
	var errs []string
	if !digitsOnly.MatchString(r.CodArm) {
		errs = append(errs, "codArm: Código do armazém deve ser um número.")
	}
	if len(r.Filtro) > 100 {
		errs = append(errs, "filtro: O filtro excede 100 caracteres.")
	}
	return errs
}

// ItemDetailsRequest é o corpo de POST /get-item-details.
type ItemDetailsRequest struct {
	CodArm    string `json:"codArm"`
	Sequencia string `json:"sequencia"`
}

func (r *ItemDetailsRequest) Validate() []string {
	var errs []string
	if !digitsOnly.MatchString(r.CodArm) {
		errs = append(errs, "codArm: Código do armazém deve ser um número.")
	}
	if !digitsOnly.MatchString(r.Sequencia) {
		errs = append(errs, "sequencia: Sequência deve ser um número.")
	}
	return errs
}

// Number aceita número JSON ou string numérica (contrato tolerante do app).
type Number struct {
	Value int
	ok    bool
}

func (n *Number) UnmarshalJSON(b []byte) error {
	var asInt int
	if err := json.Unmarshal(b, &asInt); err == nil {
		n.Value = asInt
		n.ok = true
		return nil
	}
	var asStr string
	if err := json.Unmarshal(b, &asStr); err == nil && digitsOnly.MatchString(asStr) {
		v := 0
		for _, c := range asStr {
			v = v*10 + int(c-'0')
		}
		n.Value = v
		n.ok = true
		return nil
	}
	// inválido fica marcado para Validate acusar
	n.ok = false
	return nil
}

// Valid informa se o campo foi preenchido com um número coercível.
func (n *Number) Valid() bool { return n.ok }

// PickingLocationsRequest é o corpo de POST /get-picking-locations.
type PickingLocationsRequest struct {
	CodArm    Number `json:"codarm"`
	CodProd   Number `json:"codprod"`
	Sequencia Number `json:"sequencia"`
}

func (r *PickingLocationsRequest) Validate() []string {
	var errs []string
	if !r.CodArm.Valid() {
		errs = append(errs, "codarm: Deve ser um número.")
	}
	if !r.CodProd.Valid() {
		errs = append(errs, "codprod: Deve ser um número.")
	}
	if !r.Sequencia.Valid() {
		errs = append(errs, "sequencia: Deve ser um número.")
	}
	return errs
}

// TransactionRequest é o corpo de POST /execute-transaction.
// O payload é opaco aqui; cada tipo de transação decodifica o seu.
type TransactionRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

var validTransactionTypes = map[string]bool{
	"baixa":         true,
	"transferencia": true,
	"picking":       true,
	"correcao":      true,
}

func (r *TransactionRequest) Validate() []string {
	var errs []string
	if !validTransactionTypes[r.Type] {
		errs = append(errs, "type: Tipo de transação inválido.")
	}
	return errs
}

// BaixaPayload é o payload da transação de baixa.
type BaixaPayload struct {
	CodArm     Number `json:"codarm"`
	Sequencia  Number `json:"sequencia"`
	Quantidade any    `json:"quantidade"`
	Origem     struct {
		EndPic string `json:"endpic"`
	} `json:"origem"`
}

// MovePayload é o payload de transferência e picking.
type MovePayload struct {
	Origem struct {
		CodArm    Number `json:"codarm"`
		Sequencia Number `json:"sequencia"`
		CodProd   Number `json:"codprod"`
	} `json:"origem"`
	Destino struct {
		ArmazemDestino  Number `json:"armazemDestino"`
		EnderecoDestino string `json:"enderecoDestino"`
		Quantidade      any    `json:"quantidade"`
		CriarPick       bool   `json:"criarPick"`
	} `json:"destino"`
}

// CorrecaoPayload é o payload da correção de quantidade.
type CorrecaoPayload struct {
	CodArm      Number `json:"codarm"`
	Sequencia   Number `json:"sequencia"`
	NewQuantity any    `json:"newQuantity"`
}
