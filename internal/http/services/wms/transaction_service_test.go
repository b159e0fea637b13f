package wms

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zenithwms/zenith/internal/cache"
	"github.com/zenithwms/zenith/internal/sankhya"
)

// txFake roteia consultas por fragmento de SQL e escreve por serviço.
// O cabeçalho AD_BXAEND sempre devolve o SEQBAI 123.
type txFake struct {
	queries []string
	calls   []savedCall

	rowsFor map[string][][]any
	envs    map[string]*sankhya.Envelope
}

func (f *txFake) CallAsSystem(_ context.Context, _ string, body any) (*sankhya.Envelope, error) {
	sql := body.(map[string]string)["sql"]
	f.queries = append(f.queries, sql)
	for frag, rows := range f.rowsFor {
		if strings.Contains(sql, frag) {
			raw, _ := json.Marshal(map[string]any{"rows": rows})
			return &sankhya.Envelope{Status: "1", ResponseBody: raw}, nil
		}
	}
	raw, _ := json.Marshal(map[string]any{"rows": [][]any{}})
	return &sankhya.Envelope{Status: "1", ResponseBody: raw}, nil
}

func (f *txFake) Call(_ context.Context, service string, body any) (*sankhya.Envelope, error) {
	f.calls = append(f.calls, savedCall{service: service, body: body})
	if service == saveService {
		if m, ok := body.(map[string]any); ok && m["entityName"] == "AD_BXAEND" {
			return &sankhya.Envelope{Status: "1", ResponseBody: json.RawMessage(`{"result":[[123]]}`)}, nil
		}
		return &sankhya.Envelope{Status: "1", ResponseBody: json.RawMessage(`{}`)}, nil
	}
	if env, ok := f.envs[service]; ok {
		return env, nil
	}
	return &sankhya.Envelope{Status: "1"}, nil
}

// savedEntities lista os entityName gravados via DatasetSP.save, na ordem.
func (f *txFake) savedEntities() []string {
	var out []string
	for _, c := range f.calls {
		if c.service != saveService {
			continue
		}
		if m, ok := c.body.(map[string]any); ok {
			out = append(out, m["entityName"].(string))
		}
	}
	return out
}

func allPermissions() [][]any {
	return [][]any{{"S", "S", "S", "S", "S", "S"}}
}

func newTxFixture(api *txFake) *TransactionService {
	queries := NewQueryService(api, cache.NewMemory(time.Minute), time.Minute)
	svc := NewTransactionService(api, queries)
	svc.pollInterval = time.Millisecond
	return svc
}

func TestMove_BaixaCompleta(t *testing.T) {
	api := &txFake{
		rowsFor: map[string][][]any{
			"FROM AD_APPPERM":           allPermissions(),
			"COUNT(*) FROM AD_IBXEND":   {{float64(1)}},
		},
		envs: map[string]*sankhya.Envelope{
			stpService: {Status: "1", StatusMessage: "Baixa concluída."},
		},
	}
	svc := newTxFixture(api)

	msg, err := svc.Move(context.Background(), 42, MoveInput{
		Type:       TypeBaixa,
		CodArm:     3,
		Sequencia:  1250,
		Quantidade: "2,5",
	})
	require.NoError(t, err)
	require.Equal(t, "Baixa concluída.", msg)

	require.Equal(t, []string{"AD_BXAEND", "AD_IBXEND"}, api.savedEntities())

	// o item carrega o SEQBAI do cabeçalho e a quantidade normalizada
	item := api.calls[1].body.(map[string]any)
	values := item["records"].([]map[string]any)[0]["values"].(map[string]string)
	require.Equal(t, "123", values["1"])
	require.Equal(t, "3", values["2"])
	require.Equal(t, "1250", values["3"])
	require.Equal(t, "2.500", values["4"])
	require.Equal(t, "S", values["5"])

	// o polling consulta o SEQBAI certo
	var polled bool
	for _, q := range api.queries {
		if strings.Contains(q, "SEQBAI = 123 AND CODPROD IS NOT NULL") {
			polled = true
		}
	}
	require.True(t, polled)
}

func TestMove_SemPermissao(t *testing.T) {
	api := &txFake{rowsFor: map[string][][]any{
		"FROM AD_APPPERM": {{"N", "N", "N", "N", "N", "N"}},
	}}
	svc := newTxFixture(api)

	_, err := svc.Move(context.Background(), 42, MoveInput{Type: TypeBaixa, CodArm: 3, Sequencia: 1})
	require.ErrorIs(t, err, ErrActionNotAllowed)
	// nada foi gravado
	require.Empty(t, api.calls)
}

func TestMove_BaixaDePickingExigeBXAPICK(t *testing.T) {
	api := &txFake{rowsFor: map[string][][]any{
		// BAIXA liberada, BXAPICK negada
		"FROM AD_APPPERM": {{"S", "N", "N", "N", "N", "N"}},
	}}
	svc := newTxFixture(api)

	_, err := svc.Move(context.Background(), 42, MoveInput{
		Type:         TypeBaixa,
		CodArm:       3,
		Sequencia:    1250,
		Quantidade:   1,
		OrigemEndPic: "S",
	})
	require.ErrorIs(t, err, ErrPickingBaixa)
}

func TestMove_TransferenciaComMesmoProdutoNoDestino(t *testing.T) {
	api := &txFake{
		rowsFor: map[string][][]any{
			"FROM AD_APPPERM":         allPermissions(),
			"FROM AD_CADEND WHERE SEQEND": {{float64(900), float64(10)}},
			"COUNT(*) FROM AD_IBXEND": {{float64(2)}},
		},
		envs: map[string]*sankhya.Envelope{
			stpService: {Status: "2", StatusMessage: "Concluído com avisos."},
		},
	}
	svc := newTxFixture(api)

	msg, err := svc.Move(context.Background(), 42, MoveInput{
		Type:            TypeTransferencia,
		CodArm:          3,
		Sequencia:       1250,
		CodProd:         900,
		ArmazemDestino:  5,
		EnderecoDestino: "2070",
		QtdDestino:      "7",
	})
	// status "2" da procedure ainda é sucesso
	require.NoError(t, err)
	require.Equal(t, "Concluído com avisos.", msg)

	// destino com o mesmo produto gera um registro extra antes do principal
	require.Equal(t, []string{"AD_BXAEND", "AD_IBXEND", "AD_IBXEND"}, api.savedEntities())

	extra := api.calls[1].body.(map[string]any)
	values := extra["records"].([]map[string]any)[0]["values"].(map[string]string)
	require.Equal(t, "10.000", values["4"])

	principal := api.calls[2].body.(map[string]any)
	pv := principal["records"].([]map[string]any)[0]["values"].(map[string]string)
	require.Equal(t, "5", pv["4"])
	require.Equal(t, "2070", pv["5"])
	require.Equal(t, "7.000", pv["6"])
}

func TestMove_CriarPickMarcaODestino(t *testing.T) {
	api := &txFake{
		rowsFor: map[string][][]any{
			"FROM AD_APPPERM":         allPermissions(),
			"COUNT(*) FROM AD_IBXEND": {{float64(1)}},
		},
	}
	svc := newTxFixture(api)

	_, err := svc.Move(context.Background(), 42, MoveInput{
		Type:            TypeTransferencia,
		CodArm:          3,
		Sequencia:       1250,
		CodProd:         900,
		ArmazemDestino:  5,
		EnderecoDestino: "2070",
		QtdDestino:      1,
		CriarPick:       true,
	})
	require.NoError(t, err)
	require.Contains(t, api.savedEntities(), "CADEND")
}

func TestMove_CriarPickSemPermissaoNaoMarca(t *testing.T) {
	api := &txFake{
		rowsFor: map[string][][]any{
			// CRIAPICK negada
			"FROM AD_APPPERM":         {{"S", "S", "S", "S", "S", "N"}},
			"COUNT(*) FROM AD_IBXEND": {{float64(1)}},
		},
	}
	svc := newTxFixture(api)

	_, err := svc.Move(context.Background(), 42, MoveInput{
		Type:            TypeTransferencia,
		CodArm:          3,
		Sequencia:       1250,
		CodProd:         900,
		ArmazemDestino:  5,
		EnderecoDestino: "2070",
		QtdDestino:      1,
		CriarPick:       true,
	})
	require.NoError(t, err)
	require.NotContains(t, api.savedEntities(), "CADEND")
}

func TestMove_TimeoutDaTrigger(t *testing.T) {
	api := &txFake{
		rowsFor: map[string][][]any{
			"FROM AD_APPPERM":         allPermissions(),
			"COUNT(*) FROM AD_IBXEND": {{float64(0)}},
		},
	}
	svc := newTxFixture(api)
	svc.pollAttempts = 2

	_, err := svc.Move(context.Background(), 42, MoveInput{
		Type:       TypeBaixa,
		CodArm:     3,
		Sequencia:  1250,
		Quantidade: 1,
	})
	require.ErrorIs(t, err, ErrTriggerTimeout)
}

func TestCorrect_FluxoCompleto(t *testing.T) {
	api := &txFake{
		rowsFor: map[string][][]any{
			"FROM AD_APPPERM": allPermissions(),
			"FROM AD_CADEND DEND": {
				{float64(900), "UN", "01012025", "31122026", float64(50), "MARCA X", "CAIXA 12"},
			},
		},
		envs: map[string]*sankhya.Envelope{
			scriptService: {Status: "1", StatusMessage: "Quantidade ajustada."},
		},
	}
	svc := newTxFixture(api)

	msg, err := svc.Correct(context.Background(), 42, CorrectionInput{
		CodArm:      3,
		Sequencia:   1250,
		NewQuantity: 75,
	})
	require.NoError(t, err)
	require.Equal(t, "Quantidade ajustada.", msg)

	// primeiro o script do botão de ação, depois o histórico
	require.Equal(t, scriptService, api.calls[0].service)
	script, _ := json.Marshal(api.calls[0].body)
	require.Contains(t, string(script), `"actionID":"97"`)
	require.Contains(t, string(script), `"01/01/2025"`)
	require.Contains(t, string(script), `"31/12/2026"`)

	require.Equal(t, saveService, api.calls[1].service)
	hist, _ := json.Marshal(api.calls[1].body)
	require.Contains(t, string(hist), "AD_HISTENDAPP")
	require.Contains(t, string(hist), `"50"`) // quantidade anterior preservada
}

func TestCorrect_ItemInexistente(t *testing.T) {
	api := &txFake{rowsFor: map[string][][]any{
		"FROM AD_APPPERM": allPermissions(),
	}}
	svc := newTxFixture(api)

	_, err := svc.Correct(context.Background(), 42, CorrectionInput{CodArm: 3, Sequencia: 9999})
	require.ErrorIs(t, err, ErrCorrectionTarget)
}

func TestCorrect_SemPermissao(t *testing.T) {
	api := &txFake{rowsFor: map[string][][]any{
		"FROM AD_APPPERM": {{"S", "S", "S", "N", "S", "S"}},
	}}
	svc := newTxFixture(api)

	_, err := svc.Correct(context.Background(), 42, CorrectionInput{CodArm: 3, Sequencia: 1})
	require.ErrorIs(t, err, ErrActionNotAllowed)
}

func TestFormatQuantity(t *testing.T) {
	require.Equal(t, "2.500", formatQuantity("2,5"))
	require.Equal(t, "2.500", formatQuantity(2.5))
	require.Equal(t, "3.000", formatQuantity(3))
	require.Equal(t, "10.000", formatQuantity("10"))
	require.Equal(t, "0.000", formatQuantity("abc"))
	require.Equal(t, "0.000", formatQuantity(nil))
	require.Equal(t, "0.000", formatQuantity(""))
}
