package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/zenithwms/zenith/internal/observability/logger"
	"github.com/zenithwms/zenith/internal/rate"
	"github.com/zenithwms/zenith/internal/sanitize"
	"github.com/zenithwms/zenith/internal/session"
)

const (
	queryService = "DbExplorerSP.executeQuery"
	loginService = "MobileLoginSP.login"
	saveService  = "DatasetSP.save"

	maxDeviceDescrLen = 100
)

// loginSvc executa o fluxo completo de autenticação: bloqueio por
// tentativas, existência do usuário, permissão do aplicativo, confiança
// do dispositivo e por fim a senha validada pelo próprio ERP.
type loginSvc struct {
	api      Dispatcher
	sessions *session.Issuer
	lockout  *rate.LoginTracker
	sandbox  bool
}

// NewLoginService monta o serviço de login.
func NewLoginService(api Dispatcher, sessions *session.Issuer, lockout *rate.LoginTracker, sandbox bool) Service {
	return &loginSvc{api: api, sessions: sessions, lockout: lockout, sandbox: sandbox}
}

func (s *loginSvc) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	key := in.DeviceToken
	if key == "" {
		key = in.ClientIP
	}

	if res := s.lockout.Check(key); !res.Allowed {
		return nil, &LockoutError{RetryAfter: res.RetryAfter}
	}

	username := strings.ToUpper(strings.TrimSpace(in.Username))

	codUsu, err := s.lookupUser(ctx, username)
	if err != nil {
		s.lockout.Fail(key)
		return nil, err
	}

	numReg, err := s.lookupPermission(ctx, codUsu)
	if err != nil {
		s.lockout.Fail(key)
		return nil, err
	}

	deviceToken, err := s.checkDevice(ctx, codUsu, in.DeviceToken, in.UserAgent)
	if err != nil {
		s.lockout.Fail(key)
		return nil, err
	}

	if err := s.validatePassword(ctx, username, in.Password); err != nil {
		s.lockout.Fail(key)
		return nil, err
	}

	token, err := s.sessions.Issue(session.Payload{Username: username, CodUsu: codUsu, NumReg: numReg})
	if err != nil {
		return nil, fmt.Errorf("emitindo sessão: %w", err)
	}

	s.lockout.Clear(key)
	logger.L().Info("login realizado",
		logger.Username(username),
		logger.CodUsu(codUsu),
		logger.NumReg(numReg),
	)

	return &LoginResult{
		Username:          username,
		CodUsu:            codUsu,
		NumReg:            numReg,
		DeviceToken:       deviceToken,
		SessionToken:      token,
		IsTestEnvironment: s.sandbox,
	}, nil
}

// lookupUser resolve o CODUSU pelo nome. Consulta roda como sistema.
func (s *loginSvc) lookupUser(ctx context.Context, username string) (int, error) {
	sql := fmt.Sprintf(
		"SELECT CODUSU, NOMEUSU FROM TSIUSU WHERE NOMEUSU = '%s'",
		sanitize.StringForSQL(username),
	)
	rows, err := s.query(ctx, sql)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, ErrUserNotFound
	}
	codUsu, err := sanitize.Number(rows[0][0])
	if err != nil {
		return 0, fmt.Errorf("CODUSU inválido na resposta: %w", err)
	}
	return codUsu, nil
}

// lookupPermission confere o cadastro do usuário no aplicativo (AD_APPPERM)
// e devolve o NUMREG da permissão.
func (s *loginSvc) lookupPermission(ctx context.Context, codUsu int) (int, error) {
	sql := fmt.Sprintf("SELECT NUMREG FROM AD_APPPERM WHERE CODUSU = %d", codUsu)
	rows, err := s.query(ctx, sql)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, ErrNoAppPermission
	}
	numReg, err := sanitize.Number(rows[0][0])
	if err != nil {
		return 0, fmt.Errorf("NUMREG inválido na resposta: %w", err)
	}
	return numReg, nil
}

// checkDevice aplica a confiança de dispositivo. Dispositivo desconhecido
// é registrado inativo no ERP e a tentativa falha até alguém ativá-lo.
func (s *loginSvc) checkDevice(ctx context.Context, codUsu int, deviceToken, userAgent string) (string, error) {
	if deviceToken == "" {
		token, err := s.registerDevice(ctx, codUsu, userAgent)
		if err != nil {
			return "", err
		}
		return "", &DeviceTrustError{Token: token, Registered: false}
	}

	sql := fmt.Sprintf(
		"SELECT ATIVO FROM AD_DISPAUT WHERE CODUSU = %d AND DEVICETOKEN = '%s'",
		codUsu, sanitize.StringForSQL(deviceToken),
	)
	rows, err := s.query(ctx, sql)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		token, err := s.registerDevice(ctx, codUsu, userAgent)
		if err != nil {
			return "", err
		}
		return "", &DeviceTrustError{Token: token, Registered: false}
	}

	ativo, _ := rows[0][0].(string)
	if ativo != "S" {
		return "", &DeviceTrustError{Token: deviceToken, Registered: true}
	}
	return deviceToken, nil
}

// registerDevice grava um dispositivo novo, inativo, no AD_DISPAUT.
func (s *loginSvc) registerDevice(ctx context.Context, codUsu int, userAgent string) (string, error) {
	token, err := newDeviceToken()
	if err != nil {
		return "", err
	}

	descr := strings.TrimSpace(userAgent)
	if descr == "" {
		descr = "Dispositivo Web"
	}
	if len(descr) > maxDeviceDescrLen {
		descr = descr[:maxDeviceDescrLen]
	}

	body := map[string]any{
		"entityName": "AD_DISPAUT",
		"fields":     []string{"CODUSU", "DEVICETOKEN", "DESCRDISP", "ATIVO", "DHGER"},
		"records": []map[string]any{
			{
				"values": map[string]string{
					"0": fmt.Sprintf("%d", codUsu),
					"1": token,
					"2": descr,
					"3": "N",
					"4": time.Now().Format("02/01/2006"),
				},
			},
		},
	}

	env, err := s.api.Call(ctx, saveService, body)
	if err != nil {
		return "", fmt.Errorf("registrando dispositivo: %w", err)
	}
	if err := env.Check(); err != nil {
		return "", fmt.Errorf("registrando dispositivo: %w", err)
	}

	logger.L().Info("dispositivo novo registrado, aguardando ativação",
		logger.CodUsu(codUsu),
	)
	return token, nil
}

// validatePassword delega a senha ao ERP via MobileLoginSP.login.
// Rejeição de status vira credencial inválida; falha de transporte sobe.
func (s *loginSvc) validatePassword(ctx context.Context, username, password string) error {
	body := map[string]any{
		"NOMUSU":  map[string]string{"$": username},
		"INTERNO": map[string]string{"$": password},
	}
	env, err := s.api.Call(ctx, loginService, body)
	if err != nil {
		return err
	}
	if env.Status != "1" {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *loginSvc) query(ctx context.Context, sql string) ([][]any, error) {
	env, err := s.api.CallAsSystem(ctx, queryService, map[string]string{"sql": sql})
	if err != nil {
		return nil, err
	}
	if err := env.Check(); err != nil {
		return nil, err
	}
	return env.Rows(queryService)
}

// newDeviceToken gera 40 caracteres hexadecimais aleatórios.
func newDeviceToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("gerando token de dispositivo: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
