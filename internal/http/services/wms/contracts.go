// Package wms implementa as consultas e transações de estoque contra o ERP.
package wms

import (
	"context"
	"errors"

	"github.com/zenithwms/zenith/internal/sankhya"
)

// Dispatcher é a fatia do cliente Sankhya que o WMS usa.
type Dispatcher interface {
	Call(ctx context.Context, serviceName string, requestBody any) (*sankhya.Envelope, error)
	CallAsSystem(ctx context.Context, serviceName string, requestBody any) (*sankhya.Envelope, error)
}

// Permissions são as ações liberadas para um operador no AD_APPPERM.
type Permissions struct {
	Baixa    bool `json:"baixa"`
	Transfer bool `json:"transfer"`
	Pick     bool `json:"pick"`
	Corre    bool `json:"corre"`
	BxaPick  bool `json:"bxaPick"`
	CriaPick bool `json:"criaPick"`
}

// Erros do domínio WMS
var (
	ErrItemNotFound      = errors.New("produto não encontrado ou detalhes indisponíveis")
	ErrActionNotAllowed  = errors.New("operador sem permissão para esta ação")
	ErrPickingBaixa      = errors.New("operador sem permissão para baixar de área de picking")
	ErrTriggerTimeout    = errors.New("o sistema não populou o CODPROD a tempo")
	ErrCorrectionTarget  = errors.New("item não encontrado para correção")
	ErrHeaderNotReturned = errors.New("falha ao criar cabeçalho da transação")
)
