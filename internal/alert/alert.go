// Package alert notifica operadores sobre erros não tratados do servidor.
// É um canal lateral de formatação de saída: falha de envio é logada e
// nunca propagada para a requisição.
package alert

// Notifier envia um alerta para o time de operação.
type Notifier interface {
	// NotifyError envia um alerta de erro com o contexto da requisição.
	NotifyError(summary, detail string)
}

// NoOp é o notifier usado quando alertas estão desabilitados.
type NoOp struct{}

func (NoOp) NotifyError(summary, detail string) {}
