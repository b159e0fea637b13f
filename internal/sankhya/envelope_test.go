package sankhya

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvelopeCheck(t *testing.T) {
	t.Run("sucesso", func(t *testing.T) {
		env := &Envelope{Status: "1"}
		require.NoError(t, env.Check())
	})

	t.Run("rejeicao carrega statusMessage", func(t *testing.T) {
		env := &Envelope{Status: "0", StatusMessage: "Registro não encontrado."}
		err := env.Check()
		var rejected *RejectedError
		require.ErrorAs(t, err, &rejected)
		require.Equal(t, "Registro não encontrado.", rejected.StatusMessage)
	})

	t.Run("rejeicao sem mensagem usa fallback", func(t *testing.T) {
		env := &Envelope{Status: "3"}
		err := env.Check()
		var rejected *RejectedError
		require.ErrorAs(t, err, &rejected)
		require.Equal(t, "Falha na comunicação com a API Sankhya.", rejected.StatusMessage)
	})

	t.Run("envelope nil", func(t *testing.T) {
		var env *Envelope
		require.Error(t, env.Check())
	})
}

func TestTokenExpired(t *testing.T) {
	t.Run("descritor de erro", func(t *testing.T) {
		env := &Envelope{
			Status: "0",
			Error:  &EnvelopeError{Descricao: "Bearer Token inválido ou Expirado"},
		}
		require.True(t, env.TokenExpired())
	})

	t.Run("usuario nao logado", func(t *testing.T) {
		env := &Envelope{Status: "0", StatusMessage: "Usuário não logado."}
		require.True(t, env.TokenExpired())
	})

	t.Run("nao autorizado", func(t *testing.T) {
		env := &Envelope{Status: "0", StatusMessage: "Não autorizado."}
		require.True(t, env.TokenExpired())
	})

	t.Run("falha comum nao conta", func(t *testing.T) {
		env := &Envelope{Status: "0", StatusMessage: "Registro duplicado."}
		require.False(t, env.TokenExpired())
	})

	t.Run("mensagem de nao logado com status 1 nao conta", func(t *testing.T) {
		env := &Envelope{Status: "1", StatusMessage: "Usuário não logado."}
		require.False(t, env.TokenExpired())
	})
}

func TestRows(t *testing.T) {
	t.Run("linhas presentes", func(t *testing.T) {
		env := &Envelope{
			Status:       "1",
			ResponseBody: json.RawMessage(`{"rows":[[1,"A"],[2,"B"]]}`),
		}
		rows, err := env.Rows("DbExplorerSP.executeQuery")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		require.Equal(t, "A", rows[0][1])
	})

	t.Run("sem linhas vira slice vazio", func(t *testing.T) {
		env := &Envelope{Status: "1", ResponseBody: json.RawMessage(`{}`)}
		rows, err := env.Rows("DbExplorerSP.executeQuery")
		require.NoError(t, err)
		require.NotNil(t, rows)
		require.Empty(t, rows)
	})

	t.Run("sucesso sem responseBody e malformado", func(t *testing.T) {
		env := &Envelope{Status: "1"}
		_, err := env.Rows("DbExplorerSP.executeQuery")
		var malformed *MalformedError
		require.ErrorAs(t, err, &malformed)
		require.Equal(t, "DbExplorerSP.executeQuery", malformed.Service)
	})
}
