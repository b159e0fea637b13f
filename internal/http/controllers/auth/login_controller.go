// Package auth expõe os handlers de login e logout.
package auth

import (
	"errors"
	"net/http"
	"time"

	dto "github.com/zenithwms/zenith/internal/http/dto/auth"
	httperrors "github.com/zenithwms/zenith/internal/http/errors"
	"github.com/zenithwms/zenith/internal/http/helpers"
	authsvc "github.com/zenithwms/zenith/internal/http/services/auth"
	"github.com/zenithwms/zenith/internal/observability/logger"
	"github.com/zenithwms/zenith/internal/sankhya"
)

// Controller trata as rotas públicas de autenticação.
type Controller struct {
	login        authsvc.Service
	cookieName   string
	secureCookie bool
	sessionTTL   time.Duration
}

func NewController(login authsvc.Service, cookieName string, secure bool, ttl time.Duration) *Controller {
	return &Controller{
		login:        login,
		cookieName:   cookieName,
		secureCookie: secure,
		sessionTTL:   ttl,
	}
}

// HandleLogin processa POST /api/login.
func (c *Controller) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		httperrors.WriteValidationError(w, errs)
		return
	}

	result, err := c.login.Login(r.Context(), authsvc.LoginInput{
		Username:    req.Username,
		Password:    req.Password,
		DeviceToken: req.DeviceToken,
		ClientIP:    helpers.ClientIP(r),
		UserAgent:   r.UserAgent(),
	})
	if err != nil {
		c.writeLoginError(w, r, req.Username, err)
		return
	}

	http.SetCookie(w, helpers.BuildSessionCookie(c.cookieName, result.SessionToken, c.secureCookie, c.sessionTTL))
	helpers.WriteJSON(w, http.StatusOK, dto.LoginResponse{
		Username:          result.Username,
		CodUsu:            result.CodUsu,
		NumReg:            result.NumReg,
		DeviceToken:       result.DeviceToken,
		SessionToken:      result.SessionToken,
		IsTestEnvironment: result.IsTestEnvironment,
	})
}

// HandleLogout processa POST /api/logout. A sessão é stateless, então
// basta derrubar o cookie.
func (c *Controller) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, helpers.BuildDeletionCookie(c.cookieName, c.secureCookie))
	helpers.WriteJSON(w, http.StatusOK, dto.LogoutResponse{Message: "Sessão encerrada com sucesso."})
}

// writeLoginError traduz os erros do serviço de login para o contrato
// HTTP. Usuário inexistente, sem permissão e senha errada respondem a
// mesma coisa de propósito.
func (c *Controller) writeLoginError(w http.ResponseWriter, r *http.Request, username string, err error) {
	var lockErr *authsvc.LockoutError
	var deviceErr *authsvc.DeviceTrustError
	var rejected *sankhya.RejectedError

	switch {
	case errors.As(err, &lockErr):
		logger.From(r.Context()).Warn("login bloqueado por excesso de tentativas",
			logger.Username(username),
		)
		httperrors.WriteLockoutError(w, int(lockErr.RetryAfter.Seconds()))

	case errors.As(err, &deviceErr):
		appErr := httperrors.ErrDeviceUnknown
		if deviceErr.Registered {
			appErr = httperrors.ErrDeviceInactive
		}
		logger.From(r.Context()).Warn("login negado por confiança de dispositivo",
			logger.Username(username),
			logger.Bool("registrado", deviceErr.Registered),
		)
		httperrors.WriteDeviceError(w, appErr, deviceErr.Token)

	case errors.Is(err, authsvc.ErrUserNotFound):
		httperrors.WriteError(w, httperrors.ErrUserNotFound)

	case errors.Is(err, authsvc.ErrNoAppPermission):
		httperrors.WriteError(w, httperrors.ErrNoAppPermission)

	case errors.Is(err, authsvc.ErrInvalidCredentials):
		httperrors.WriteError(w, httperrors.ErrInvalidCredentials)

	case errors.Is(err, sankhya.ErrAuth):
		logger.From(r.Context()).Error("falha de autenticação do usuário de integração", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrUpstreamAuth)

	case errors.As(err, &rejected):
		logger.From(r.Context()).Error("ERP rejeitou chamada durante o login", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrUpstreamRejected.WithDetail(rejected.StatusMessage))

	default:
		logger.From(r.Context()).Error("erro inesperado no login",
			logger.Username(username),
			logger.Err(err),
		)
		httperrors.WriteError(w, err)
	}
}
