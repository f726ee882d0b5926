package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"qcportal/internal/qc/app"
	"qcportal/internal/qc/config"
	"qcportal/internal/qc/model"
	"qcportal/internal/qc/util"

	"github.com/spf13/cobra"
)

var (
	timeout time.Duration

	// create-user
	newUsername string
	newPassword string
	newFullName string
	newEmail    string
	newRole     string

	// seed-equipment
	seedAs string

	rootCmd = &cobra.Command{
		Use:           "qcctl",
		Short:         "Administrative tasks for the QC portal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	verifyAuditCmd = &cobra.Command{
		Use:   "verify-audit",
		Short: "Walk the audit hash chain and report the first broken link",
		RunE:  runVerifyAudit,
	}

	createUserCmd = &cobra.Command{
		Use:   "create-user",
		Short: "Create an active user account",
		RunE:  runCreateUser,
	}

	seedEquipmentCmd = &cobra.Command{
		Use:   "seed-equipment",
		Short: "Register the default equipment list, skipping existing entries",
		RunE:  runSeedEquipment,
	}
)

// errChainBroken makes the process exit non-zero after the report is printed
var errChainBroken = errors.New("audit chain is broken")

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Overall deadline for the command")

	rootCmd.AddCommand(verifyAuditCmd)

	rootCmd.AddCommand(createUserCmd)
	createUserCmd.Flags().StringVar(&newUsername, "username", "", "Login name")
	createUserCmd.Flags().StringVar(&newPassword, "password", "", "Initial password (8-72 characters)")
	createUserCmd.Flags().StringVar(&newFullName, "full-name", "", "Display name used on signatures")
	createUserCmd.Flags().StringVar(&newEmail, "email", "", "Optional e-mail address")
	createUserCmd.Flags().StringVar(&newRole, "role", model.RoleQCAnalyst, "One of: QC Analyst, QC Manager, Admin, Auditor")
	_ = createUserCmd.MarkFlagRequired("username")
	_ = createUserCmd.MarkFlagRequired("password")
	_ = createUserCmd.MarkFlagRequired("full-name")

	rootCmd.AddCommand(seedEquipmentCmd)
	seedEquipmentCmd.Flags().StringVar(&seedAs, "as", "", "Username of the Admin or QC Manager recorded as creator")
	_ = seedEquipmentCmd.MarkFlagRequired("as")
}

// open loads configuration and builds the application for one command
func open(cmd *cobra.Command) (*app.App, context.Context, context.CancelFunc, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	util.InitLogger(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	a, err := app.New(ctx, cfg)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return a, ctx, cancel, nil
}

func runVerifyAudit(cmd *cobra.Command, _ []string) error {
	a, ctx, cancel, err := open(cmd)
	if err != nil {
		return err
	}
	defer cancel()
	defer a.Close(context.Background())

	// Runs as a system task, outside any user's permissions
	report, err := a.Service.Audit.Verify(ctx)
	if err != nil {
		return err
	}

	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	if !report.Valid {
		return fmt.Errorf("%w at seq %d: %s", errChainBroken, report.BrokenSeq, report.Reason)
	}
	return nil
}

func runCreateUser(cmd *cobra.Command, _ []string) error {
	a, ctx, cancel, err := open(cmd)
	if err != nil {
		return err
	}
	defer cancel()
	defer a.Close(context.Background())

	user, err := a.Service.Register(ctx, &model.RegisterReq{
		Username: newUsername,
		Password: newPassword,
		Email:    newEmail,
		FullName: newFullName,
		Role:     newRole,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s) with role %s\n", user.Username, user.ID, user.Role)
	return nil
}

func runSeedEquipment(cmd *cobra.Command, _ []string) error {
	a, ctx, cancel, err := open(cmd)
	if err != nil {
		return err
	}
	defer cancel()
	defer a.Close(context.Background())

	actor, err := a.Store.GetUserByUsername(ctx, seedAs)
	if err != nil {
		return fmt.Errorf("look up %s: %w", seedAs, err)
	}

	added, err := a.Service.SeedEquipment(ctx, actor)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "registered %d of %d default instruments\n", added, len(model.DefaultEquipment))
	return nil
}
