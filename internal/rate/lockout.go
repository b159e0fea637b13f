package rate

import (
	"sync"
	"time"
)

// attemptRecord é o contador por identificador de dispositivo (ou IP).
// Vive só em memória: um restart do processo zera os bloqueios.
type attemptRecord struct {
	count       int
	lockedUntil time.Time
}

// LoginTracker conta tentativas de login falhadas por chave e bloqueia a
// chave ao atingir o limite. A corrida de duas falhas concorrentes passando
// do limite ao mesmo tempo é aceita como degradação, não como bug.
type LoginTracker struct {
	MaxAttempts int
	Duration    time.Duration

	mu      sync.Mutex
	records map[string]*attemptRecord

	// trocável nos testes
	now func() time.Time
}

// NewLoginTracker cria o contador de bloqueio.
func NewLoginTracker(maxAttempts int, duration time.Duration) *LoginTracker {
	return &LoginTracker{
		MaxAttempts: maxAttempts,
		Duration:    duration,
		records:     make(map[string]*attemptRecord),
		now:         time.Now,
	}
}

// Check devolve se a chave está liberada; quando bloqueada, RetryAfter
// informa o tempo restante. Não conta tentativa.
func (t *LoginTracker) Check(key string) Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[key]
	if !ok {
		return Result{Allowed: true}
	}

	now := t.now()
	if !rec.lockedUntil.IsZero() {
		if now.Before(rec.lockedUntil) {
			return Result{Allowed: false, RetryAfter: rec.lockedUntil.Sub(now)}
		}
		// bloqueio venceu: zera e libera
		delete(t.records, key)
		return Result{Allowed: true}
	}
	return Result{Allowed: true, CurrentHits: int64(rec.count)}
}

// Fail registra uma tentativa falhada; ao atingir o limite, bloqueia a
// chave pela duração configurada.
func (t *LoginTracker) Fail(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[key]
	if !ok {
		rec = &attemptRecord{}
		t.records[key] = rec
	}
	rec.count++
	if rec.count >= t.MaxAttempts {
		rec.lockedUntil = t.now().Add(t.Duration)
	}
}

// Clear remove o registro da chave por completo (login bem-sucedido).
func (t *LoginTracker) Clear(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, key)
}
