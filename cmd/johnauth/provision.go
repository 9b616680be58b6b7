package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/johnauth/internal/app"
	"github.com/dropDatabas3/johnauth/internal/config"
	"github.com/dropDatabas3/johnauth/internal/domain/repository"
	"github.com/dropDatabas3/johnauth/internal/security/password"
	tokens "github.com/dropDatabas3/johnauth/internal/security/token"
)

// Provisioning fuera de banda: clients, usuarios y authorization codes se
// crean acá, nunca por HTTP.

func newClientCmd(load func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{Use: "client", Short: "Operaciones sobre clients OAuth"}

	var clientID, secret, name, scheme string
	create := &cobra.Command{
		Use:   "create",
		Short: "Registra un client",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(clientID) == "" {
				return fmt.Errorf("--client-id es requerido")
			}
			if secret == "" {
				gen, err := tokens.GenerateAlphanumeric(32)
				if err != nil {
					return err
				}
				secret = gen
				fmt.Fprintf(cmd.OutOrStdout(), "generated secret: %s\n", secret)
			}
			stored, err := password.Hash(password.Scheme(scheme), secret)
			if err != nil {
				return err
			}

			cfg, err := load()
			if err != nil {
				return err
			}
			st, err := app.OpenStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			c, err := st.Clients().Create(cmd.Context(), repository.ClientInput{
				ClientID:     clientID,
				ClientSecret: stored,
				DisplayName:  name,
			})
			if err != nil {
				return friendly("client", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "client %s created (id=%d)\n", c.ClientID, c.ID)
			return nil
		},
	}
	create.Flags().StringVar(&clientID, "client-id", "", "Identificador público del client")
	create.Flags().StringVar(&secret, "secret", "", "Secret (si falta se genera uno)")
	create.Flags().StringVar(&name, "name", "", "Nombre visible")
	create.Flags().StringVar(&scheme, "hash", string(password.SchemePlain), "Cómo guardar el secret: plain|bcrypt|argon2id")

	cmd.AddCommand(create)
	return cmd
}

func newUserCmd(load func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Operaciones sobre usuarios"}

	var username, pass, scheme string
	create := &cobra.Command{
		Use:   "create",
		Short: "Registra un usuario",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(username) == "" || pass == "" {
				return fmt.Errorf("--username y --password son requeridos")
			}
			stored, err := password.Hash(password.Scheme(scheme), pass)
			if err != nil {
				return err
			}

			cfg, err := load()
			if err != nil {
				return err
			}
			st, err := app.OpenStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			u, err := st.Users().Create(cmd.Context(), repository.UserInput{Username: username, Password: stored})
			if err != nil {
				return friendly("user", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s created (id=%d)\n", u.Username, u.ID)
			return nil
		},
	}
	create.Flags().StringVar(&username, "username", "", "Username")
	create.Flags().StringVar(&pass, "password", "", "Password")
	create.Flags().StringVar(&scheme, "hash", string(password.SchemeBcrypt), "Cómo guardar la password: plain|bcrypt|argon2id")

	cmd.AddCommand(create)
	return cmd
}

func newCodeCmd(load func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{Use: "code", Short: "Operaciones sobre authorization codes"}

	var userID int64
	var code, verifier string
	create := &cobra.Command{
		Use:   "create",
		Short: "Emite un authorization code ligado a un usuario y un PKCE verifier",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 || verifier == "" {
				return fmt.Errorf("--user-id y --verifier son requeridos")
			}
			if code == "" {
				gen, err := tokens.GenerateAlphanumeric(40)
				if err != nil {
					return err
				}
				code = gen
			}

			cfg, err := load()
			if err != nil {
				return err
			}
			st, err := app.OpenStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			err = st.Codes().Create(cmd.Context(), repository.AuthorizationCode{
				Code:      code,
				UserID:    userID,
				PKCEHash:  tokens.SHA256Hex(verifier),
				CreatedAt: time.Now().UTC(),
			})
			if err != nil {
				return friendly("code", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		},
	}
	create.Flags().Int64Var(&userID, "user-id", 0, "ID de fila del usuario")
	create.Flags().StringVar(&code, "code", "", "Código (si falta se genera uno)")
	create.Flags().StringVar(&verifier, "verifier", "", "PKCE verifier en claro; se guarda su SHA-256")

	cmd.AddCommand(create)
	return cmd
}

func friendly(what string, err error) error {
	switch {
	case repository.IsConflict(err):
		return fmt.Errorf("%s already exists", what)
	case errors.Is(err, repository.ErrInvalidInput):
		return fmt.Errorf("invalid %s: %w", what, err)
	}
	return err
}
