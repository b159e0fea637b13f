package sankhya

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type gatewayScript func(call int, w http.ResponseWriter, r *http.Request)

// newFakeGateway sobe um servidor que responde /login com um token fixo e
// delega o gateway ao script, contando as chamadas de cada um.
func newFakeGateway(t *testing.T, script gatewayScript) (*Client, *TokenManager, *int32, *int32) {
	t.Helper()
	var logins, calls int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			atomic.AddInt32(&logins, 1)
			require.Equal(t, "appkey-1", r.Header.Get("appkey"))
			_ = json.NewEncoder(w).Encode(map[string]string{"bearerToken": "tok-fresh"})
		case gatewayPath:
			n := atomic.AddInt32(&calls, 1)
			script(int(n), w, r)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	tokens := NewTokenManager(srv.Client(), srv.URL, Credentials{
		AppKey: "appkey-1", Username: "INTEGRACAO", Password: "s3gredo", Token: "tok-0",
	})
	return NewClient(srv.Client(), srv.URL, tokens), tokens, &logins, &calls
}

func writeEnvelope(w http.ResponseWriter, env Envelope) {
	_ = json.NewEncoder(w).Encode(env)
}

func TestCall_RenovaTokenUmaVezQuandoExpirado(t *testing.T) {
	client, _, logins, calls := newFakeGateway(t, func(call int, w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		if call == 1 {
			writeEnvelope(w, Envelope{
				Status: "0",
				Error:  &EnvelopeError{Descricao: "Bearer Token inválido ou Expirado"},
			})
			return
		}
		writeEnvelope(w, Envelope{Status: "1", ResponseBody: json.RawMessage(`{"rows":[]}`)})
	})

	env, err := client.Call(context.Background(), "DatasetSP.save", map[string]string{"x": "y"})
	require.NoError(t, err)
	require.Equal(t, "1", env.Status)
	require.EqualValues(t, 2, atomic.LoadInt32(calls))
	// login inicial + refresh forçado
	require.EqualValues(t, 2, atomic.LoadInt32(logins))
}

func TestCall_DesisteDepoisDoSegundoExpirado(t *testing.T) {
	client, _, _, calls := newFakeGateway(t, func(call int, w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, Envelope{Status: "0", StatusMessage: "Usuário não logado."})
	})

	_, err := client.Call(context.Background(), "DatasetSP.save", nil)
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	require.Equal(t, "Usuário não logado.", rejected.StatusMessage)
	// exatamente duas tentativas, nunca mais
	require.EqualValues(t, 2, atomic.LoadInt32(calls))
}

func TestCall_TrataHTTP401SemEnvelopeComoExpirado(t *testing.T) {
	client, _, _, calls := newFakeGateway(t, func(call int, w http.ResponseWriter, r *http.Request) {
		if call == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Unauthorized"))
			return
		}
		writeEnvelope(w, Envelope{Status: "1", ResponseBody: json.RawMessage(`{}`)})
	})

	env, err := client.Call(context.Background(), "ActionButtonsSP.executeSTP", nil)
	require.NoError(t, err)
	require.Equal(t, "1", env.Status)
	require.EqualValues(t, 2, atomic.LoadInt32(calls))
}

func TestCall_NaoRepeteFalhaComum(t *testing.T) {
	client, _, _, calls := newFakeGateway(t, func(call int, w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, Envelope{Status: "0", StatusMessage: "Registro duplicado."})
	})

	env, err := client.Call(context.Background(), "DatasetSP.save", nil)
	// rejeição de aplicação volta no envelope, sem retry; Check fica com o chamador
	require.NoError(t, err)
	require.Error(t, env.Check())
	require.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestCallAsSystem_LoginNovoACadaConsulta(t *testing.T) {
	client, _, logins, calls := newFakeGateway(t, func(call int, w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "Bearer tok-fresh", r.Header.Get("Authorization"))
		writeEnvelope(w, Envelope{Status: "1", ResponseBody: json.RawMessage(`{"rows":[[1]]}`)})
	})

	for i := 0; i < 3; i++ {
		env, err := client.CallAsSystem(context.Background(), "DbExplorerSP.executeQuery",
			map[string]string{"sql": "SELECT 1 FROM DUAL"})
		require.NoError(t, err)
		require.Equal(t, "1", env.Status)
	}
	require.EqualValues(t, 3, atomic.LoadInt32(calls))
	require.EqualValues(t, 3, atomic.LoadInt32(logins))
}

func TestTokenManager_CacheEForceRefresh(t *testing.T) {
	_, tokens, logins, _ := newFakeGateway(t, func(call int, w http.ResponseWriter, r *http.Request) {})

	tok, err := tokens.Get(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, "tok-fresh", tok)

	// segunda chamada sai do cache
	_, err = tokens.Get(context.Background(), false)
	require.NoError(t, err)
	require.EqualValues(t, 1, atomic.LoadInt32(logins))

	// refresh forçado loga de novo
	_, err = tokens.Get(context.Background(), true)
	require.NoError(t, err)
	require.EqualValues(t, 2, atomic.LoadInt32(logins))
}

func TestTokenManager_LoginSemBearerTokenFalha(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"error":{"descricao":"credenciais inválidas"}}`))
	}))
	t.Cleanup(srv.Close)

	tokens := NewTokenManager(srv.Client(), srv.URL, Credentials{})
	_, err := tokens.Login(context.Background())
	require.ErrorIs(t, err, ErrAuth)
}
