// zenithctl é um cliente de linha de comando para operar o proxy WMS:
// login, consultas de estoque e verificação de saúde, direto do terminal.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL string
	Token   string
	Out     string // "json" | "text"
	HTTP    *http.Client
}

func (c *client) do(method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, strings.TrimRight(c.BaseURL, "/")+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.Out == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func main() {
	var (
		baseURL = envOr("ZENITH_URL", "http://localhost:3030")
		token   = envOr("ZENITH_TOKEN", "")
		out     = envOr("ZENITH_OUT", "text")
	)

	cl := &client{HTTP: &http.Client{Timeout: 60 * time.Second}}

	root := &cobra.Command{
		Use:   "zenithctl",
		Short: "CLI do proxy WMS Zenith",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cl.BaseURL = baseURL
			cl.Token = token
			cl.Out = out
		},
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base do serviço (env ZENITH_URL)")
	root.PersistentFlags().StringVar(&token, "token", token, "token de sessão (env ZENITH_TOKEN)")
	root.PersistentFlags().StringVar(&out, "out", out, "formato de saída: json|text")

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Consulta /healthz",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/healthz", nil)
			if err != nil {
				return err
			}
			cl.print(status, body)
			return nil
		},
	}

	var deviceToken string
	loginCmd := &cobra.Command{
		Use:   "login <usuario> <senha>",
		Short: "Faz login e imprime o token de sessão",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("POST", "/api/login", map[string]string{
				"username":    args[0],
				"password":    args[1],
				"deviceToken": deviceToken,
			})
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status != http.StatusOK {
				return fmt.Errorf("login falhou com status %d", status)
			}
			return nil
		},
	}
	loginCmd.Flags().StringVar(&deviceToken, "device-token", "", "token do dispositivo já ativado")

	warehousesCmd := &cobra.Command{
		Use:   "warehouses",
		Short: "Lista os armazéns liberados para o operador",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("POST", "/api/get-warehouses", map[string]string{})
			if err != nil {
				return err
			}
			cl.print(status, body)
			return nil
		},
	}

	var filtro string
	searchCmd := &cobra.Command{
		Use:   "search <codarm>",
		Short: "Busca itens em um armazém",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("POST", "/api/search-items", map[string]string{
				"codArm": args[0],
				"filtro": filtro,
			})
			if err != nil {
				return err
			}
			cl.print(status, body)
			return nil
		},
	}
	searchCmd.Flags().StringVar(&filtro, "filtro", "", "filtro por sequência, produto ou descrição")

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Movimentações do operador no dia",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("POST", "/api/get-history", map[string]string{})
			if err != nil {
				return err
			}
			cl.print(status, body)
			return nil
		},
	}

	root.AddCommand(healthCmd, loginCmd, warehousesCmd, searchCmd, historyCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
