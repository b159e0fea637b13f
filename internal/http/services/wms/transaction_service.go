package wms

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/zenithwms/zenith/internal/observability/logger"
	"github.com/zenithwms/zenith/internal/sanitize"
)

const (
	saveService   = "DatasetSP.save"
	scriptService = "ActionButtonsSP.executeScript"
	stpService    = "ActionButtonsSP.executeSTP"

	correctionActionID = "97"
	movementActionID   = "20"
	movementProc       = "NIC_STP_BAIXA_END"
)

// Tipos de transação aceitos
const (
	TypeBaixa         = "baixa"
	TypeTransferencia = "transferencia"
	TypePicking       = "picking"
	TypeCorrecao      = "correcao"
)

// CorrectionInput ajusta a quantidade de um endereço.
type CorrectionInput struct {
	CodArm      int
	Sequencia   int
	NewQuantity any
}

// MoveInput cobre baixa, transferência e picking. Os campos de destino
// só valem para transferência e picking.
type MoveInput struct {
	Type string

	CodArm    int
	Sequencia int
	CodProd   int

	// baixa
	Quantidade   any
	OrigemEndPic string

	// transferência e picking
	ArmazemDestino  int
	EnderecoDestino string
	QtdDestino      any
	CriarPick       bool
}

type saveRecord struct {
	entity string
	fields []string
	values map[string]string
}

// TransactionService executa as movimentações de estoque. Toda escrita
// passa pelo usuário de integração (modo transacional do cliente).
type TransactionService struct {
	api     Dispatcher
	queries *QueryService

	pollAttempts int
	pollInterval time.Duration
	now          func() time.Time
}

func NewTransactionService(api Dispatcher, queries *QueryService) *TransactionService {
	return &TransactionService{
		api:          api,
		queries:      queries,
		pollAttempts: 10,
		pollInterval: 500 * time.Millisecond,
		now:          time.Now,
	}
}

// Correct executa a correção de quantidade via botão de ação do ERP e
// grava o histórico no AD_HISTENDAPP.
func (s *TransactionService) Correct(ctx context.Context, codUsu int, in CorrectionInput) (string, error) {
	perms, err := s.queries.UserPermissions(ctx, codUsu)
	if err != nil {
		return "", err
	}
	if !perms.Corre {
		return "", ErrActionNotAllowed
	}

	itemSQL := fmt.Sprintf(
		"SELECT DEND.CODPROD, DEND.CODVOL, DEND.DATENT, DEND.DATVAL, DEND.QTDPRO, PRO.MARCA,"+
			" (SELECT MAX(V.DESCRDANFE) FROM TGFVOA V WHERE V.CODPROD = DEND.CODPROD AND V.CODVOL = DEND.CODVOL) AS DERIVACAO"+
			" FROM AD_CADEND DEND JOIN TGFPRO PRO ON DEND.CODPROD = PRO.CODPROD"+
			" WHERE DEND.CODARM = %d AND DEND.SEQEND = %d",
		in.CodArm, in.Sequencia,
	)
	rows, err := s.queries.query(ctx, itemSQL)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", ErrCorrectionTarget
	}

	row := rows[0]
	codProd := stringify(row[0])
	codVol := stringify(row[1])
	datEnt := stringify(row[2])
	datVal := stringify(row[3])
	qtdAnterior := stringify(row[4])
	marca := stringify(row[5])
	derivacao := stringify(row[6])

	script := map[string]any{
		"runScript": map[string]any{
			"actionID":    correctionActionID,
			"refreshType": "SEL",
			"params": map[string]any{
				"param": []map[string]any{
					{"type": "S", "paramName": "CODPROD", "$": codProd},
					{"type": "S", "paramName": "CODVOL", "$": codVol},
					{"type": "F", "paramName": "QTDPRO", "$": in.NewQuantity},
					{"type": "D", "paramName": "DATENT", "$": sanitize.DBDateToAPI(datEnt)},
					{"type": "D", "paramName": "DATVAL", "$": sanitize.DBDateToAPI(datVal)},
				},
			},
			"rows": map[string]any{
				"row": []map[string]any{
					{"field": []map[string]any{
						{"fieldName": "CODARM", "$": strconv.Itoa(in.CodArm)},
						{"fieldName": "SEQEND", "$": strconv.Itoa(in.Sequencia)},
					}},
				},
			},
		},
		"clientEventList": map[string]any{
			"clientEvent": []map[string]any{
				{"$": "br.com.sankhya.actionbutton.clientconfirm"},
			},
		},
	}

	env, err := s.api.Call(ctx, scriptService, script)
	if err != nil {
		return "", err
	}
	if err := env.Check(); err != nil {
		return "", err
	}

	hist := map[string]any{
		"entityName": "AD_HISTENDAPP",
		"fields":     []string{"CODARM", "SEQEND", "CODPROD", "CODVOL", "MARCA", "DERIV", "QUANT", "QATUAL", "CODUSU"},
		"records": []map[string]any{
			{"values": map[string]any{
				"0": in.CodArm, "1": in.Sequencia, "2": codProd, "3": codVol,
				"4": marca, "5": derivacao, "6": qtdAnterior, "7": in.NewQuantity, "8": codUsu,
			}},
		},
	}
	if histEnv, err := s.api.Call(ctx, saveService, hist); err != nil {
		return "", err
	} else if checkErr := histEnv.Check(); checkErr != nil {
		logger.L().Warn("falha ao gravar histórico de correção", logger.Err(checkErr))
	}

	logger.L().Info("correção executada",
		logger.CodUsu(codUsu),
		logger.Warehouse(in.CodArm),
	)
	if env.StatusMessage != "" {
		return env.StatusMessage, nil
	}
	return "Correção executada com sucesso!", nil
}

// Move executa baixa, transferência ou picking: cria o cabeçalho no
// AD_BXAEND, grava os itens no AD_IBXEND, espera a trigger popular o
// CODPROD e dispara a procedure de baixa.
func (s *TransactionService) Move(ctx context.Context, codUsu int, in MoveInput) (string, error) {
	perms, err := s.queries.UserPermissions(ctx, codUsu)
	if err != nil {
		return "", err
	}
	if !moveAllowed(perms, in.Type) {
		return "", ErrActionNotAllowed
	}

	seqBai, err := s.createHeader(ctx, codUsu)
	if err != nil {
		return "", err
	}
	logger.L().Info("cabeçalho de transação criado",
		logger.CodUsu(codUsu),
		logger.Int("seqbai", seqBai),
	)

	records, err := s.buildRecords(ctx, perms, in)
	if err != nil {
		return "", err
	}

	for _, rec := range records {
		rec.values["1"] = strconv.Itoa(seqBai)
		body := map[string]any{
			"entityName": rec.entity,
			"fields":     rec.fields,
			"standAlone": false,
			"records":    []map[string]any{{"values": rec.values}},
		}
		env, err := s.api.Call(ctx, saveService, body)
		if err != nil {
			return "", err
		}
		if err := env.Check(); err != nil {
			return "", err
		}
	}

	if err := s.waitForTrigger(ctx, seqBai, len(records)); err != nil {
		return "", err
	}

	stp := map[string]any{
		"stpCall": map[string]any{
			"actionID":   movementActionID,
			"procName":   movementProc,
			"rootEntity": "AD_BXAEND",
			"rows": map[string]any{
				"row": []map[string]any{
					{"field": []map[string]any{{"fieldName": "SEQBAI", "$": seqBai}}},
				},
			},
		},
	}
	env, err := s.api.Call(ctx, stpService, stp)
	if err != nil {
		return "", err
	}
	// A procedure devolve status "2" em sucesso com aviso.
	if env.Status != "1" && env.Status != "2" {
		if env.StatusMessage != "" {
			return "", fmt.Errorf("procedure de movimentação rejeitada: %s", env.StatusMessage)
		}
		return "", fmt.Errorf("procedure de movimentação rejeitada")
	}

	logger.L().Info("transação concluída",
		logger.CodUsu(codUsu),
		logger.String("tipo", in.Type),
		logger.Int("seqbai", seqBai),
	)
	if env.StatusMessage != "" {
		return env.StatusMessage, nil
	}
	return "Operação concluída com sucesso!", nil
}

func (s *TransactionService) createHeader(ctx context.Context, codUsu int) (int, error) {
	body := map[string]any{
		"entityName": "AD_BXAEND",
		"fields":     []string{"SEQBAI", "DATGER", "USUGER"},
		"records": []map[string]any{
			{"values": map[string]string{
				"1": s.now().Format("02/01/2006"),
				"2": strconv.Itoa(codUsu),
			}},
		},
	}
	env, err := s.api.Call(ctx, saveService, body)
	if err != nil {
		return 0, err
	}
	if err := env.Check(); err != nil {
		return 0, err
	}

	var result struct {
		Result [][]any `json:"result"`
	}
	if err := env.Body(saveService, &result); err != nil {
		return 0, ErrHeaderNotReturned
	}
	if len(result.Result) == 0 || len(result.Result[0]) == 0 {
		return 0, ErrHeaderNotReturned
	}
	seqBai, err := sanitize.Number(result.Result[0][0])
	if err != nil {
		return 0, ErrHeaderNotReturned
	}
	return seqBai, nil
}

func (s *TransactionService) buildRecords(ctx context.Context, perms Permissions, in MoveInput) ([]saveRecord, error) {
	if in.Type == TypeBaixa {
		if in.OrigemEndPic == "S" && !perms.BxaPick {
			return nil, ErrPickingBaixa
		}
		return []saveRecord{{
			entity: "AD_IBXEND",
			fields: []string{"SEQITE", "SEQBAI", "CODARM", "SEQEND", "QTDPRO", "APP"},
			values: map[string]string{
				"2": strconv.Itoa(in.CodArm),
				"3": strconv.Itoa(in.Sequencia),
				"4": formatQuantity(in.Quantidade),
				"5": "S",
			},
		}}, nil
	}

	var records []saveRecord

	checkSQL := fmt.Sprintf(
		"SELECT CODPROD, QTDPRO FROM AD_CADEND WHERE SEQEND = '%s' AND CODARM = %d",
		sanitize.StringForSQL(in.EnderecoDestino), in.ArmazemDestino,
	)
	destRows, err := s.queries.query(ctx, checkSQL)
	if err != nil {
		return nil, err
	}

	// Destino que já guarda o mesmo produto entra na transação também,
	// com a quantidade que ele tem hoje.
	if len(destRows) > 0 {
		if destProd, err := sanitize.Number(destRows[0][0]); err == nil && destProd == in.CodProd {
			records = append(records, saveRecord{
				entity: "AD_IBXEND",
				fields: []string{"SEQITE", "SEQBAI", "CODARM", "SEQEND", "QTDPRO", "APP"},
				values: map[string]string{
					"2": strconv.Itoa(in.ArmazemDestino),
					"3": in.EnderecoDestino,
					"4": formatQuantity(destRows[0][1]),
					"5": "S",
				},
			})
		}
	}

	records = append(records, saveRecord{
		entity: "AD_IBXEND",
		fields: []string{"SEQITE", "SEQBAI", "CODARM", "SEQEND", "ARMDES", "ENDDES", "QTDPRO", "APP"},
		values: map[string]string{
			"2": strconv.Itoa(in.CodArm),
			"3": strconv.Itoa(in.Sequencia),
			"4": strconv.Itoa(in.ArmazemDestino),
			"5": in.EnderecoDestino,
			"6": formatQuantity(in.QtdDestino),
			"7": "S",
		},
	})

	if in.Type == TypeTransferencia && in.CriarPick {
		if perms.CriaPick {
			s.markDestinationAsPicking(ctx, in.ArmazemDestino, in.EnderecoDestino)
		} else {
			logger.L().Warn("destino não marcado como picking, operador sem permissão CRIAPICK",
				logger.Warehouse(in.ArmazemDestino),
			)
		}
	}

	return records, nil
}

// markDestinationAsPicking define ENDPIC='S' no destino. Falha aqui não
// derruba a transação.
func (s *TransactionService) markDestinationAsPicking(ctx context.Context, codArm int, seqEnd string) {
	body := map[string]any{
		"entityName": "CADEND",
		"standAlone": false,
		"fields":     []string{"CODARM", "SEQEND", "ENDPIC"},
		"records": []map[string]any{
			{
				"pk":     map[string]string{"CODARM": strconv.Itoa(codArm), "SEQEND": seqEnd},
				"values": map[string]string{"2": "S"},
			},
		},
	}
	env, err := s.api.Call(ctx, saveService, body)
	if err != nil {
		logger.L().Warn("falha ao marcar destino como picking", logger.Err(err))
		return
	}
	if env.Status != "1" {
		logger.L().Warn("ERP recusou marcar destino como picking",
			logger.String("statusMessage", env.StatusMessage),
		)
		return
	}
	logger.L().Info("destino marcado como local de picking",
		logger.Warehouse(codArm),
		logger.String("seqend", seqEnd),
	)
}

// waitForTrigger espera a trigger do banco popular o CODPROD de todos
// os itens gravados antes de rodar a procedure.
func (s *TransactionService) waitForTrigger(ctx context.Context, seqBai, want int) error {
	pollSQL := fmt.Sprintf(
		"SELECT COUNT(*) FROM AD_IBXEND WHERE SEQBAI = %d AND CODPROD IS NOT NULL",
		seqBai,
	)
	for i := 0; i < s.pollAttempts; i++ {
		rows, err := s.queries.query(ctx, pollSQL)
		if err == nil && len(rows) > 0 {
			if count, convErr := sanitize.Number(rows[0][0]); convErr == nil && count >= want {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
	return ErrTriggerTimeout
}

func moveAllowed(perms Permissions, typ string) bool {
	switch typ {
	case TypeBaixa:
		return perms.Baixa
	case TypeTransferencia:
		return perms.Transfer
	case TypePicking:
		return perms.Pick
	case TypeCorrecao:
		return perms.Corre
	}
	return false
}

// formatQuantity normaliza a quantidade para o formato que o ERP aceita,
// com ponto decimal e três casas. Valor ilegível vira "0.000".
func formatQuantity(v any) string {
	str := strings.ReplaceAll(fmt.Sprintf("%v", v), ",", ".")
	f, err := strconv.ParseFloat(str, 64)
	if err != nil || math.IsNaN(f) {
		return "0.000"
	}
	return strconv.FormatFloat(f, 'f', 3, 64)
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if f, ok := v.(float64); ok && f == math.Trunc(f) {
		return strconv.FormatInt(int64(f), 10)
	}
	return fmt.Sprintf("%v", v)
}
