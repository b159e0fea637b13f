package wms

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/zenithwms/zenith/internal/cache"
	"github.com/zenithwms/zenith/internal/observability/logger"
	"github.com/zenithwms/zenith/internal/sanitize"
)

const queryService = "DbExplorerSP.executeQuery"

var onlyDigits = regexp.MustCompile(`^\d+$`)

// QueryService expõe as consultas de leitura do estoque. Armazéns e
// permissões ficam em cache por usuário.
type QueryService struct {
	api      Dispatcher
	cache    cache.Client
	cacheTTL time.Duration
}

func NewQueryService(api Dispatcher, c cache.Client, ttl time.Duration) *QueryService {
	return &QueryService{api: api, cache: c, cacheTTL: ttl}
}

// Warehouses lista os armazéns liberados para o NUMREG do operador.
// Cada linha vem como [CODARM, "CODARM-DESARM"].
func (s *QueryService) Warehouses(ctx context.Context, numReg int) ([][]any, error) {
	cacheKey := fmt.Sprintf("warehouses:%d", numReg)
	if rows, ok := s.cachedRows(ctx, cacheKey); ok {
		logger.L().Debug("armazéns servidos do cache", logger.NumReg(numReg))
		return rows, nil
	}

	sql := fmt.Sprintf(
		"SELECT CODARM, CODARM || '-' || DESARM FROM AD_CADARM"+
			" WHERE CODARM IN (SELECT CODARM FROM AD_PERMEND WHERE NUMREG = %d) ORDER BY CODARM",
		numReg,
	)
	rows, err := s.query(ctx, sql)
	if err != nil {
		return nil, err
	}

	s.storeRows(ctx, cacheKey, rows)
	return rows, nil
}

// UserPermissions carrega as flags do AD_APPPERM. Usuário sem linha
// cadastrada recebe tudo negado, sem erro.
func (s *QueryService) UserPermissions(ctx context.Context, codUsu int) (Permissions, error) {
	cacheKey := fmt.Sprintf("permissions:%d", codUsu)
	if raw, err := s.cache.Get(ctx, cacheKey); err == nil {
		var p Permissions
		if json.Unmarshal([]byte(raw), &p) == nil {
			logger.L().Debug("permissões servidas do cache", logger.CodUsu(codUsu))
			return p, nil
		}
	}

	sql := fmt.Sprintf(
		"SELECT BAIXA, TRANSF, PICK, CORRE, BXAPICK, CRIAPICK FROM AD_APPPERM WHERE CODUSU = %d",
		codUsu,
	)
	rows, err := s.query(ctx, sql)
	if err != nil {
		return Permissions{}, err
	}

	var p Permissions
	if len(rows) == 0 {
		logger.L().Warn("nenhuma permissão cadastrada para o usuário, negando tudo", logger.CodUsu(codUsu))
	} else {
		row := rows[0]
		p = Permissions{
			Baixa:    flag(row, 0),
			Transfer: flag(row, 1),
			Pick:     flag(row, 2),
			Corre:    flag(row, 3),
			BxaPick:  flag(row, 4),
			CriaPick: flag(row, 5),
		}
	}

	if raw, err := json.Marshal(p); err == nil {
		if err := s.cache.Set(ctx, cacheKey, string(raw), s.cacheTTL); err != nil {
			logger.L().Warn("falha ao gravar permissões no cache", logger.Err(err))
		}
	}
	return p, nil
}

// SearchItems busca endereços de um armazém. Filtro numérico casa com
// sequência ou produto; filtro textual casa palavra a palavra contra a
// descrição e a marca, ignorando acentos dos dois lados.
func (s *QueryService) SearchItems(ctx context.Context, codArm int, filtro string) ([][]any, error) {
	var b strings.Builder
	fmt.Fprintf(&b,
		"SELECT ENDE.SEQEND, ENDE.CODRUA, ENDE.CODPRD, ENDE.CODAPT, ENDE.CODPROD, PRO.DESCRPROD,"+
			" PRO.MARCA, ENDE.DATVAL, ENDE.QTDPRO, ENDE.ENDPIC,"+
			" TO_CHAR(ENDE.QTDPRO) || ' ' || ENDE.CODVOL AS QTD_COMPLETA,"+
			" (SELECT MAX(V.DESCRDANFE) FROM TGFVOA V WHERE V.CODPROD = ENDE.CODPROD AND V.CODVOL = ENDE.CODVOL) AS DERIVACAO"+
			" FROM AD_CADEND ENDE JOIN TGFPRO PRO ON PRO.CODPROD = ENDE.CODPROD"+
			" WHERE ENDE.CODARM = %d", codArm)

	orderBy := " ORDER BY ENDE.ENDPIC DESC, ENDE.DATVAL ASC"

	if filtro = strings.TrimSpace(filtro); filtro != "" {
		if onlyDigits.MatchString(filtro) {
			san := sanitize.StringForSQL(filtro)
			fmt.Fprintf(&b,
				" AND (ENDE.SEQEND LIKE '%s%%' OR ENDE.CODPROD = %s OR ENDE.CODPROD ="+
					" (SELECT CODPROD FROM AD_CADEND WHERE SEQEND = %s AND CODARM = %d AND ROWNUM = 1))",
				san, san, san, codArm)
			orderBy = fmt.Sprintf(
				" ORDER BY CASE WHEN ENDE.SEQEND = %s THEN 0 ELSE 1 END, ENDE.ENDPIC DESC, ENDE.DATVAL ASC",
				san)
		} else {
			for _, palavra := range strings.Fields(foldAccents(filtro)) {
				upper := sanitize.StringForSQL(strings.ToUpper(palavra))
				fmt.Fprintf(&b,
					" AND (TRANSLATE(UPPER(PRO.DESCRPROD), 'ÁÀÂÃÄÉÈÊËÍÌÎÏÓÒÔÕÖÚÙÇ', 'AAAAAEEEEIIIIOOOOOUUC') LIKE '%%%s%%'"+
						" OR TRANSLATE(UPPER(PRO.MARCA), 'ÁÀÂÃÄÉÈÊËÍÌÎÏÓÒÔÕÖÚÙÇ', 'AAAAAEEEEIIIIOOOOOUUC') LIKE '%%%s%%')",
					upper, upper)
			}
		}
	}

	b.WriteString(orderBy)
	return s.query(ctx, b.String())
}

// ItemDetails carrega a visão detalhada de um endereço.
func (s *QueryService) ItemDetails(ctx context.Context, codArm, sequencia int) ([]any, error) {
	sql := fmt.Sprintf(
		"SELECT * FROM V_WMS_ITEM_DETALHES WHERE CODARM = %d AND SEQEND = %d",
		codArm, sequencia,
	)
	rows, err := s.query(ctx, sql)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrItemNotFound
	}
	return rows[0], nil
}

// PickingLocations lista os endereços de picking de um produto,
// excluindo a própria sequência de origem.
func (s *QueryService) PickingLocations(ctx context.Context, codArm, codProd, sequencia int) ([][]any, error) {
	sql := fmt.Sprintf(
		"SELECT ENDE.SEQEND, PRO.DESCRPROD FROM AD_CADEND ENDE"+
			" JOIN TGFPRO PRO ON ENDE.CODPROD = PRO.CODPROD"+
			" WHERE ENDE.CODARM = %d AND ENDE.CODPROD = %d AND ENDE.ENDPIC = 'S' AND ENDE.SEQEND <> %d"+
			" ORDER BY ENDE.SEQEND",
		codArm, codProd, sequencia,
	)
	return s.query(ctx, sql)
}

// History devolve as movimentações e correções do operador no dia
// corrente, ordenadas da mais recente para a mais antiga.
func (s *QueryService) History(ctx context.Context, codUsu int) ([][]any, error) {
	hoje := time.Now().Format("02/01/2006")
	sql := fmt.Sprintf(
		"SELECT 'MOV' AS TIPO, BXA.DATGER, TO_CHAR(BXA.DATGER, 'HH24:MI:SS') AS HORA, IBX.CODARM,"+
			" IBX.SEQEND, IBX.ARMDES, IBX.ENDDES, IBX.CODPROD, PRO.DESCRPROD, PRO.MARCA,"+
			" (SELECT MAX(V.DESCRDANFE) FROM TGFVOA V WHERE V.CODPROD = IBX.CODPROD AND V.CODVOL = PRO.CODVOL) AS DERIVACAO,"+
			" NULL AS QUANT_ANT, NULL AS QTD_ATUAL, BXA.SEQBAI AS ID_OPERACAO, IBX.SEQITE"+
			" FROM AD_BXAEND BXA JOIN AD_IBXEND IBX ON IBX.SEQBAI = BXA.SEQBAI"+
			" LEFT JOIN TGFPRO PRO ON IBX.CODPROD = PRO.CODPROD"+
			" WHERE BXA.USUGER = %d AND TRUNC(BXA.DATGER) = TO_DATE('%s', 'DD/MM/YYYY')"+
			" UNION ALL"+
			" SELECT 'CORRECAO' AS TIPO, H.DTHOPER, TO_CHAR(H.DTHOPER, 'HH24:MI:SS') AS HORA, H.CODARM,"+
			" H.SEQEND, NULL, NULL, H.CODPROD,"+
			" (SELECT P.DESCRPROD FROM TGFPRO P WHERE P.CODPROD = H.CODPROD), H.MARCA, H.DERIV,"+
			" H.QUANT, H.QATUAL, H.NUMUNICO, NULL"+
			" FROM AD_HISTENDAPP H"+
			" WHERE H.CODUSU = %d AND TRUNC(H.DTHOPER) = TO_DATE('%s', 'DD/MM/YYYY')"+
			" ORDER BY 2 DESC, 15 ASC",
		codUsu, hoje, codUsu, hoje,
	)
	return s.query(ctx, sql)
}

func (s *QueryService) query(ctx context.Context, sql string) ([][]any, error) {
	env, err := s.api.CallAsSystem(ctx, queryService, map[string]string{"sql": sql})
	if err != nil {
		return nil, err
	}
	if err := env.Check(); err != nil {
		return nil, err
	}
	return env.Rows(queryService)
}

func (s *QueryService) cachedRows(ctx context.Context, key string) ([][]any, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var rows [][]any
	if json.Unmarshal([]byte(raw), &rows) != nil {
		return nil, false
	}
	return rows, true
}

func (s *QueryService) storeRows(ctx context.Context, key string, rows [][]any) {
	raw, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.cacheTTL); err != nil {
		logger.L().Warn("falha ao gravar no cache", logger.Err(err))
	}
}

func flag(row []any, idx int) bool {
	if idx >= len(row) {
		return false
	}
	v, _ := row[idx].(string)
	return v == "S"
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldAccents remove os diacríticos para casar com o TRANSLATE do lado
// do banco.
func foldAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}
