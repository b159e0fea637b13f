// Package wms expõe os handlers das operações de armazém. Todas as
// rotas aqui exigem sessão válida.
package wms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	dto "github.com/zenithwms/zenith/internal/http/dto/wms"
	httperrors "github.com/zenithwms/zenith/internal/http/errors"
	"github.com/zenithwms/zenith/internal/http/helpers"
	"github.com/zenithwms/zenith/internal/http/middlewares"
	wmssvc "github.com/zenithwms/zenith/internal/http/services/wms"
	"github.com/zenithwms/zenith/internal/observability/logger"
	"github.com/zenithwms/zenith/internal/sankhya"
	"github.com/zenithwms/zenith/internal/session"
)

// Controller trata as rotas protegidas do WMS.
type Controller struct {
	queries *wmssvc.QueryService
	tx      *wmssvc.TransactionService
}

func NewController(queries *wmssvc.QueryService, tx *wmssvc.TransactionService) *Controller {
	return &Controller{queries: queries, tx: tx}
}

// HandleWarehouses processa POST /api/get-warehouses.
func (c *Controller) HandleWarehouses(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	logger.From(r.Context()).Info("lista de armazéns solicitada",
		logger.Username(sess.Username),
		logger.NumReg(sess.NumReg),
	)

	rows, err := c.queries.Warehouses(r.Context(), sess.NumReg)
	if err != nil {
		c.writeWMSError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, rows)
}

// HandlePermissions processa POST /api/get-permissions.
func (c *Controller) HandlePermissions(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)

	perms, err := c.queries.UserPermissions(r.Context(), sess.CodUsu)
	if err != nil {
		c.writeWMSError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, perms)
}

// HandleSearchItems processa POST /api/search-items.
func (c *Controller) HandleSearchItems(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)

	var req dto.SearchItemsRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		httperrors.WriteValidationError(w, errs)
		return
	}

	codArm, _ := strconv.Atoi(req.CodArm)
	logger.From(r.Context()).Info("busca de itens",
		logger.Username(sess.Username),
		logger.Warehouse(codArm),
		logger.String("filtro", req.Filtro),
	)

	rows, err := c.queries.SearchItems(r.Context(), codArm, req.Filtro)
	if err != nil {
		c.writeWMSError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, rows)
}

// HandleItemDetails processa POST /api/get-item-details.
func (c *Controller) HandleItemDetails(w http.ResponseWriter, r *http.Request) {
	var req dto.ItemDetailsRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		httperrors.WriteValidationError(w, errs)
		return
	}

	codArm, _ := strconv.Atoi(req.CodArm)
	sequencia, _ := strconv.Atoi(req.Sequencia)

	row, err := c.queries.ItemDetails(r.Context(), codArm, sequencia)
	if err != nil {
		c.writeWMSError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, row)
}

// HandlePickingLocations processa POST /api/get-picking-locations.
func (c *Controller) HandlePickingLocations(w http.ResponseWriter, r *http.Request) {
	var req dto.PickingLocationsRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		httperrors.WriteValidationError(w, errs)
		return
	}

	rows, err := c.queries.PickingLocations(r.Context(), req.CodArm.Value, req.CodProd.Value, req.Sequencia.Value)
	if err != nil {
		c.writeWMSError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, rows)
}

// HandleHistory processa POST /api/get-history.
func (c *Controller) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)

	rows, err := c.queries.History(r.Context(), sess.CodUsu)
	if err != nil {
		c.writeWMSError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, rows)
}

// HandleTransaction processa POST /api/execute-transaction. O payload
// é decodificado conforme o tipo declarado.
func (c *Controller) HandleTransaction(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)

	var req dto.TransactionRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		httperrors.WriteValidationError(w, errs)
		return
	}

	logger.From(r.Context()).Info("transação iniciada",
		logger.Username(sess.Username),
		logger.CodUsu(sess.CodUsu),
		logger.String("tipo", req.Type),
	)

	var message string
	var err error
	switch req.Type {
	case wmssvc.TypeCorrecao:
		message, err = c.runCorrection(r.Context(), w, sess.CodUsu, req.Payload)
	case wmssvc.TypeBaixa:
		message, err = c.runBaixa(r.Context(), w, sess.CodUsu, req.Payload)
	default:
		message, err = c.runMove(r.Context(), w, sess.CodUsu, req.Type, req.Payload)
	}
	if err != nil {
		c.writeWMSError(w, r, err)
		return
	}
	if message == "" {
		// erros de payload já foram escritos
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"message": message})
}

func (c *Controller) runCorrection(ctx context.Context, w http.ResponseWriter, codUsu int, raw json.RawMessage) (string, error) {
	var p dto.CorrecaoPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		httperrors.WriteValidationError(w, []string{"payload: Payload de correção inválido."})
		return "", nil
	}
	if !p.CodArm.Valid() || !p.Sequencia.Valid() {
		httperrors.WriteValidationError(w, []string{"payload: codarm e sequencia devem ser números."})
		return "", nil
	}
	return c.tx.Correct(ctx, codUsu, wmssvc.CorrectionInput{
		CodArm:      p.CodArm.Value,
		Sequencia:   p.Sequencia.Value,
		NewQuantity: p.NewQuantity,
	})
}

func (c *Controller) runBaixa(ctx context.Context, w http.ResponseWriter, codUsu int, raw json.RawMessage) (string, error) {
	var p dto.BaixaPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		httperrors.WriteValidationError(w, []string{"payload: Payload de baixa inválido."})
		return "", nil
	}
	if !p.CodArm.Valid() || !p.Sequencia.Valid() {
		httperrors.WriteValidationError(w, []string{"payload: codarm e sequencia devem ser números."})
		return "", nil
	}
	return c.tx.Move(ctx, codUsu, wmssvc.MoveInput{
		Type:         wmssvc.TypeBaixa,
		CodArm:       p.CodArm.Value,
		Sequencia:    p.Sequencia.Value,
		Quantidade:   p.Quantidade,
		OrigemEndPic: p.Origem.EndPic,
	})
}

func (c *Controller) runMove(ctx context.Context, w http.ResponseWriter, codUsu int, typ string, raw json.RawMessage) (string, error) {
	var p dto.MovePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		httperrors.WriteValidationError(w, []string{"payload: Payload de movimentação inválido."})
		return "", nil
	}
	if !p.Origem.CodArm.Valid() || !p.Origem.Sequencia.Valid() || !p.Origem.CodProd.Valid() {
		httperrors.WriteValidationError(w, []string{"payload: origem incompleta."})
		return "", nil
	}
	if !p.Destino.ArmazemDestino.Valid() || p.Destino.EnderecoDestino == "" {
		httperrors.WriteValidationError(w, []string{"payload: destino incompleto."})
		return "", nil
	}
	return c.tx.Move(ctx, codUsu, wmssvc.MoveInput{
		Type:            typ,
		CodArm:          p.Origem.CodArm.Value,
		Sequencia:       p.Origem.Sequencia.Value,
		CodProd:         p.Origem.CodProd.Value,
		ArmazemDestino:  p.Destino.ArmazemDestino.Value,
		EnderecoDestino: p.Destino.EnderecoDestino,
		QtdDestino:      p.Destino.Quantidade,
		CriarPick:       p.Destino.CriarPick,
	})
}

// writeWMSError traduz os erros de domínio e de upstream para o
// contrato HTTP.
func (c *Controller) writeWMSError(w http.ResponseWriter, r *http.Request, err error) {
	var rejected *sankhya.RejectedError
	var malformed *sankhya.MalformedError

	switch {
	case errors.Is(err, wmssvc.ErrItemNotFound):
		httperrors.WriteError(w, httperrors.ErrItemNotFound)

	case errors.Is(err, wmssvc.ErrCorrectionTarget):
		httperrors.WriteError(w, httperrors.ErrItemNotFound.WithMessage("Item não encontrado para correção."))

	case errors.Is(err, wmssvc.ErrActionNotAllowed):
		httperrors.WriteError(w, httperrors.ErrForbidden.WithMessage("Você não tem permissão para executar esta ação."))

	case errors.Is(err, wmssvc.ErrPickingBaixa):
		httperrors.WriteError(w, httperrors.ErrForbidden.WithMessage("Você não tem permissão para baixar itens de uma área de picking."))

	case errors.Is(err, wmssvc.ErrTriggerTimeout):
		logger.From(r.Context()).Error("timeout esperando a trigger popular CODPROD")
		httperrors.WriteError(w, httperrors.ErrInternal.WithMessage("Timeout: O sistema não populou o CODPROD a tempo."))

	case errors.Is(err, wmssvc.ErrHeaderNotReturned):
		logger.From(r.Context()).Error("ERP não devolveu o SEQBAI do cabeçalho")
		httperrors.WriteError(w, httperrors.ErrInternal.WithMessage("Falha ao criar cabeçalho da transação."))

	case errors.Is(err, sankhya.ErrAuth):
		logger.From(r.Context()).Error("falha de autenticação do usuário de integração", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrUpstreamAuth)

	case errors.As(err, &rejected):
		logger.From(r.Context()).Error("ERP rejeitou a chamada", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrUpstreamRejected.WithDetail(rejected.StatusMessage))

	case errors.As(err, &malformed):
		logger.From(r.Context()).Error("resposta malformada do ERP", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrUpstreamMalformed)

	default:
		logger.From(r.Context()).Error("erro inesperado em operação WMS", logger.Err(err))
		httperrors.WriteError(w, err)
	}
}

func mustSession(r *http.Request) *session.Payload {
	if sess := middlewares.GetSession(r.Context()); sess != nil {
		return sess
	}
	// RequireSession garante a sessão; payload vazio evita pânico.
	return &session.Payload{}
}
