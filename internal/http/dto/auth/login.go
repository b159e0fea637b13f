// Package auth contém os DTOs do fluxo de login.
package auth

// LoginRequest é o corpo de POST /login.
type LoginRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DeviceToken string `json:"deviceToken,omitempty"`
}

// Validate devolve a lista de erros campo: mensagem, vazia quando válido.
func (r *LoginRequest) Validate() []string {
	var errs []string
	if r.Username == "" {
		errs = append(errs, "username: O nome de usuário é obrigatório.")
	}
	if len(r.Username) > 50 {
		errs = append(errs, "username: O nome de usuário excede 50 caracteres.")
	}
	if r.Password == "" {
		errs = append(errs, "password: A senha é obrigatória.")
	}
	return errs
}

// LoginResponse é a resposta de sucesso do login. O deviceToken volta
// sempre (inclusive o recém-gerado) para o app persistir localmente.
type LoginResponse struct {
	Username          string `json:"username"`
	CodUsu            int    `json:"codusu"`
	NumReg            int    `json:"numreg"`
	DeviceToken       string `json:"deviceToken"`
	SessionToken      string `json:"sessionToken"`
	IsTestEnvironment bool   `json:"isTestEnvironment"`
}

// LogoutResponse é a resposta de POST /logout.
type LogoutResponse struct {
	Message string `json:"message"`
}
