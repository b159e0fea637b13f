// Package sanitize guarda as únicas defesas de injeção deste sistema.
//
// O gateway do ERP só aceita SQL literal via DbExplorerSP.executeQuery, sem
// bind de parâmetros. Todo valor interpolado em uma query DEVE passar por
// StringForSQL ou Number, sem exceção.
package sanitize

import (
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidNumber indica que um parâmetro numérico não pôde ser interpretado.
type ErrInvalidNumber struct {
	Value string
}

func (e *ErrInvalidNumber) Error() string {
	return fmt.Sprintf("parâmetro numérico inválido: %s", e.Value)
}

// StringForSQL duplica cada aspa simples para interpolação segura em SQL.
// Função pura e total: entrada vazia produz string vazia.
func StringForSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// Number interpreta v como inteiro base 10.
// Aceita string ou qualquer tipo numérico; espaços nas pontas são tolerados.
func Number(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		// JSON decodifica números como float64
		return int(n), nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, &ErrInvalidNumber{Value: n}
		}
		return parsed, nil
	default:
		return 0, &ErrInvalidNumber{Value: fmt.Sprint(v)}
	}
}

// DBDateToAPI converte a data "DDMMYYYY[ HH:MM:SS]" devolvida pelo ERP para
// o formato "DD/MM/YYYY" aceito nos parâmetros de scripts. Entrada vazia ou
// fora do padrão é devolvida sem a parte de hora.
func DBDateToAPI(dbDate string) string {
	if dbDate == "" {
		return ""
	}
	datePart := strings.SplitN(dbDate, " ", 2)[0]
	if len(datePart) != 8 {
		return datePart
	}
	return datePart[0:2] + "/" + datePart[2:4] + "/" + datePart[4:8]
}
