package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"soak_console/internal/config"
	"soak_console/internal/models"
	"soak_console/internal/repository"
	"soak_console/internal/repository/db"
	"soak_console/internal/service"
)

var (
	userRole     string
	userPassword string

	userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage local operator accounts",
	}

	userAddCmd = &cobra.Command{
		Use:   "add [username]",
		Short: "Create an operator with the given role",
		Args:  cobra.ExactArgs(1),
		RunE:  runUserAdd,
	}

	userRoleCmd = &cobra.Command{
		Use:   "set-role [username] [viewer|user|admin]",
		Short: "Change an existing operator's role",
		Args:  cobra.ExactArgs(2),
		RunE:  runUserSetRole,
	}
)

func init() {
	userAddCmd.Flags().StringVarP(&userRole, "role", "r", string(models.RoleViewer), "viewer, user or admin")
	userAddCmd.Flags().StringVarP(&userPassword, "password", "p", "", "initial password")
	_ = userAddCmd.MarkFlagRequired("password")
	userCmd.AddCommand(userAddCmd, userRoleCmd)
}

func openRepos() (*repository.Repository, func() error, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init sqlite: %w", err)
	}
	return repository.NewRepository(conn), conn.Close, cfg, nil
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	repos, closeDB, cfg, err := openRepos()
	if err != nil {
		return err
	}
	defer func() { _ = closeDB() }()

	auth := service.NewAuthService(repos.Auth, cfg.Auth.SigningKey, cfg.Auth.TokenTTL)
	id, err := auth.CreateUser(args[0], userPassword, models.Role(userRole))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s (id %d, role %s)\n", args[0], id, userRole)
	return nil
}

func runUserSetRole(cmd *cobra.Command, args []string) error {
	role := models.Role(args[1])
	if !role.Valid() {
		return fmt.Errorf("%w: %q", service.ErrInvalidRole, role)
	}
	repos, closeDB, _, err := openRepos()
	if err != nil {
		return err
	}
	defer func() { _ = closeDB() }()

	if err := repos.Auth.SetRole(args[0], role); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], role)
	return nil
}
