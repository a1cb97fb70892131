package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/trip-planner/internal/app/domain/user"
	"github.com/FACorreiaa/trip-planner/internal/app/models"
	"github.com/FACorreiaa/trip-planner/internal/server"
)

var (
	userName     string
	userEmail    string
	userPassword string
)

func init() {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage trip owners",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user and print its id for the X-User-ID header",
		RunE:  runUsersAdd,
	}
	addCmd.Flags().StringVarP(&userName, "username", "u", "", "Username")
	addCmd.Flags().StringVarP(&userEmail, "email", "e", "", "Email address")
	addCmd.Flags().StringVarP(&userPassword, "password", "p", "", "Password (min 8 characters)")
	_ = addCmd.MarkFlagRequired("username")
	_ = addCmd.MarkFlagRequired("email")
	_ = addCmd.MarkFlagRequired("password")

	usersCmd.AddCommand(addCmd)
	rootCmd.AddCommand(usersCmd)
}

func runUsersAdd(cmd *cobra.Command, _ []string) error {
	pool, err := server.OpenDatabase(cmd.Context(), cfg, lg, true)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := user.NewUserService(user.NewPostgresUserRepo(pool, lg), lg)
	u, err := svc.CreateUser(cmd.Context(), models.CreateUserParams{
		Username: userName,
		Email:    userEmail,
		Password: userPassword,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), u.ID)
	return nil
}
