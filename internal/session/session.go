// Package session emite e valida o token de sessão da aplicação.
package session

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	ErrExpired = errors.New("sessão expirada")
	ErrInvalid = errors.New("token de sessão inválido")
)

// Payload é a identidade do operador autenticado, criada no login e lida em
// toda requisição autenticada. Nunca é mutada.
type Payload struct {
	Username string `json:"username"`
	CodUsu   int    `json:"codusu"`
	NumReg   int    `json:"numreg"`
}

type claims struct {
	Username string `json:"username"`
	CodUsu   int    `json:"codusu"`
	NumReg   int    `json:"numreg"`
	jwtv5.RegisteredClaims
}

// Issuer assina tokens de sessão com segredo HS256 e TTL fixo.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer cria o emissor de sessões. O TTL padrão do produto é 8h.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// TTL devolve a duração configurada (usada para o MaxAge do cookie).
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue assina um token de sessão com a identidade dada.
func (i *Issuer) Issue(p Payload) (string, error) {
	now := time.Now()
	c := claims{
		Username: p.Username,
		CodUsu:   p.CodUsu,
		NumReg:   p.NumReg,
		RegisteredClaims: jwtv5.RegisteredClaims{
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(i.ttl)),
		},
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, c)
	return tk.SignedString(i.secret)
}

// Parse valida assinatura e expiração e devolve a identidade embutida.
// Expiração é distinguida de token inválido para que o boundary HTTP
// responda 401 vs 403 como o app espera.
func (i *Issuer) Parse(token string) (*Payload, error) {
	var c claims
	tk, err := jwtv5.ParseWithClaims(token, &c, func(t *jwtv5.Token) (any, error) {
		return i.secret, nil
	}, jwtv5.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	if !tk.Valid {
		return nil, ErrInvalid
	}
	return &Payload{Username: c.Username, CodUsu: c.CodUsu, NumReg: c.NumReg}, nil
}
