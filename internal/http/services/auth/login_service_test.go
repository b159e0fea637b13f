package auth

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zenithwms/zenith/internal/rate"
	"github.com/zenithwms/zenith/internal/sankhya"
	"github.com/zenithwms/zenith/internal/session"
)

// fakeAPI roteia consultas por fragmento de SQL e registra tudo que passou.
type fakeAPI struct {
	queries []string
	saves   []any

	// fragmento de SQL -> linhas devolvidas
	rowsFor map[string][][]any

	// status devolvido por MobileLoginSP.login
	loginStatus string
}

func rowsEnvelope(rows [][]any) *sankhya.Envelope {
	raw, _ := json.Marshal(map[string]any{"rows": rows})
	return &sankhya.Envelope{Status: "1", ResponseBody: raw}
}

func (f *fakeAPI) CallAsSystem(_ context.Context, service string, body any) (*sankhya.Envelope, error) {
	sql := body.(map[string]string)["sql"]
	f.queries = append(f.queries, sql)
	for frag, rows := range f.rowsFor {
		if strings.Contains(sql, frag) {
			return rowsEnvelope(rows), nil
		}
	}
	return rowsEnvelope(nil), nil
}

func (f *fakeAPI) Call(_ context.Context, service string, body any) (*sankhya.Envelope, error) {
	if service == "MobileLoginSP.login" {
		status := f.loginStatus
		if status == "" {
			status = "1"
		}
		return &sankhya.Envelope{Status: status, StatusMessage: "Usuário ou senha inválidos."}, nil
	}
	f.saves = append(f.saves, body)
	return &sankhya.Envelope{Status: "1", ResponseBody: json.RawMessage(`{}`)}, nil
}

func newTestService(api Dispatcher, tracker *rate.LoginTracker) Service {
	sessions := session.NewIssuer("segredo-de-teste", time.Hour)
	return NewLoginService(api, sessions, tracker, false)
}

func happyAPI() *fakeAPI {
	return &fakeAPI{
		rowsFor: map[string][][]any{
			"FROM TSIUSU":     {{float64(42), "JOAO"}},
			"FROM AD_APPPERM": {{float64(7)}},
			"FROM AD_DISPAUT": {{"S"}},
		},
	}
}

func attempt(deviceToken string) LoginInput {
	return LoginInput{
		Username:    "joao",
		Password:    "senha123",
		DeviceToken: deviceToken,
		ClientIP:    "10.0.0.1",
		UserAgent:   "Coletor Zebra",
	}
}

func TestLogin_FluxoCompleto(t *testing.T) {
	api := happyAPI()
	tracker := rate.NewLoginTracker(10, 15*time.Minute)
	svc := newTestService(api, tracker)

	result, err := svc.Login(context.Background(), attempt("dev-token-1"))
	require.NoError(t, err)
	require.Equal(t, "JOAO", result.Username)
	require.Equal(t, 42, result.CodUsu)
	require.Equal(t, 7, result.NumReg)
	require.Equal(t, "dev-token-1", result.DeviceToken)
	require.NotEmpty(t, result.SessionToken)
	require.False(t, result.IsTestEnvironment)

	// username sobe em maiúsculas para o banco
	require.Contains(t, api.queries[0], "NOMEUSU = 'JOAO'")
	// sucesso limpa o contador de bloqueio
	require.Zero(t, tracker.Check("dev-token-1").CurrentHits)
}

func TestLogin_UsuarioInexistenteContaFalha(t *testing.T) {
	api := happyAPI()
	api.rowsFor["FROM TSIUSU"] = nil
	tracker := rate.NewLoginTracker(10, 15*time.Minute)
	svc := newTestService(api, tracker)

	_, err := svc.Login(context.Background(), attempt("dev-token-1"))
	require.ErrorIs(t, err, ErrUserNotFound)
	require.EqualValues(t, 1, tracker.Check("dev-token-1").CurrentHits)
}

func TestLogin_SemPermissaoDoAplicativo(t *testing.T) {
	api := happyAPI()
	api.rowsFor["FROM AD_APPPERM"] = nil
	svc := newTestService(api, rate.NewLoginTracker(10, 15*time.Minute))

	_, err := svc.Login(context.Background(), attempt("dev-token-1"))
	require.ErrorIs(t, err, ErrNoAppPermission)
}

func TestLogin_DispositivoDesconhecidoERegistrado(t *testing.T) {
	api := happyAPI()
	api.rowsFor["FROM AD_DISPAUT"] = nil
	tracker := rate.NewLoginTracker(10, 15*time.Minute)
	svc := newTestService(api, tracker)

	_, err := svc.Login(context.Background(), attempt("dev-desconhecido"))

	var deviceErr *DeviceTrustError
	require.ErrorAs(t, err, &deviceErr)
	require.False(t, deviceErr.Registered)
	// token novo de 40 hex, não o que o cliente mandou
	require.Len(t, deviceErr.Token, 40)
	require.NotEqual(t, "dev-desconhecido", deviceErr.Token)

	// o registro foi gravado inativo no ERP
	require.Len(t, api.saves, 1)
	raw, _ := json.Marshal(api.saves[0])
	require.Contains(t, string(raw), "AD_DISPAUT")
	require.Contains(t, string(raw), `"3":"N"`)

	// a tentativa conta para o bloqueio
	require.EqualValues(t, 1, tracker.Check("dev-desconhecido").CurrentHits)
}

func TestLogin_SemDeviceTokenRegistraNovo(t *testing.T) {
	api := happyAPI()
	tracker := rate.NewLoginTracker(10, 15*time.Minute)
	svc := newTestService(api, tracker)

	_, err := svc.Login(context.Background(), attempt(""))

	var deviceErr *DeviceTrustError
	require.ErrorAs(t, err, &deviceErr)
	require.False(t, deviceErr.Registered)
	require.Len(t, deviceErr.Token, 40)
	// sem deviceToken o bloqueio é chaveado pelo IP
	require.EqualValues(t, 1, tracker.Check("10.0.0.1").CurrentHits)
}

func TestLogin_DispositivoInativo(t *testing.T) {
	api := happyAPI()
	api.rowsFor["FROM AD_DISPAUT"] = [][]any{{"N"}}
	svc := newTestService(api, rate.NewLoginTracker(10, 15*time.Minute))

	_, err := svc.Login(context.Background(), attempt("dev-inativo"))

	var deviceErr *DeviceTrustError
	require.ErrorAs(t, err, &deviceErr)
	require.True(t, deviceErr.Registered)
	require.Equal(t, "dev-inativo", deviceErr.Token)
	// nada foi gravado: o dispositivo já existe
	require.Empty(t, api.saves)
}

func TestLogin_SenhaErrada(t *testing.T) {
	api := happyAPI()
	api.loginStatus = "0"
	tracker := rate.NewLoginTracker(10, 15*time.Minute)
	svc := newTestService(api, tracker)

	_, err := svc.Login(context.Background(), attempt("dev-token-1"))
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.EqualValues(t, 1, tracker.Check("dev-token-1").CurrentHits)
}

func TestLogin_BloqueioNaoChamaOUpstream(t *testing.T) {
	api := happyAPI()
	api.loginStatus = "0"
	tracker := rate.NewLoginTracker(2, 15*time.Minute)
	svc := newTestService(api, tracker)

	for i := 0; i < 2; i++ {
		_, err := svc.Login(context.Background(), attempt("dev-token-1"))
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	before := len(api.queries)

	_, err := svc.Login(context.Background(), attempt("dev-token-1"))
	var lockErr *LockoutError
	require.ErrorAs(t, err, &lockErr)
	require.Greater(t, lockErr.RetryAfter, time.Duration(0))
	// chave bloqueada não gera nenhuma chamada ao ERP
	require.Equal(t, before, len(api.queries))
}
