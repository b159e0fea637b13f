package middlewares

import "net/http"

// Middleware é um decorador de http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain aplica middlewares da esquerda para a direita.
// Chain(h, A, B, C) executa: A -> B -> C -> h
// Ou seja, A é o primeiro a interceptar o request e o último a ver a resposta.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
