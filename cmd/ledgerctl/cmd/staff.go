package cmd

import (
	"fmt"
	"time"

	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	"github.com/SscSPs/cashdesk_backoffice/pkg/database"
	"github.com/spf13/cobra"
)

var staffCmd = &cobra.Command{
	Use:   "staff",
	Short: "Manage the staff known to the workflow engine",
}

var (
	staffName     string
	staffRole     string
	staffAgency   string
	staffInactive bool
)

var staffAddCmd = &cobra.Command{
	Use:   "add <user-id>",
	Short: "Register or update a staff member",
	Long:  "Executors registered here take part in the assignment of validated transfers.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role := domain.Role(staffRole)
		if !role.Valid() {
			return fmt.Errorf("unknown role %q", staffRole)
		}
		ctx := cmd.Context()
		_, pool, repos, err := openRepositories(ctx)
		if err != nil {
			return err
		}
		defer database.ClosePgxPool(pool)

		now := time.Now().UTC()
		member := domain.StaffMember{
			UserID:   args[0],
			Name:     staffName,
			Role:     role,
			Agency:   staffAgency,
			IsActive: !staffInactive,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     actorID,
				LastUpdatedAt: now,
				LastUpdatedBy: actorID,
			},
		}
		if err := repos.Staff.SaveStaff(ctx, member); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "staff %s saved (%s, active=%t)\n", member.UserID, member.Role, member.IsActive)
		return nil
	},
}

func init() {
	staffAddCmd.Flags().StringVar(&staffName, "name", "", "display name")
	staffAddCmd.Flags().StringVar(&staffRole, "role", string(domain.RoleExecutor), "role")
	staffAddCmd.Flags().StringVar(&staffAgency, "agency", "", "agency code")
	staffAddCmd.Flags().BoolVar(&staffInactive, "inactive", false, "register as inactive")
	_ = staffAddCmd.MarkFlagRequired("name")
	staffCmd.AddCommand(staffAddCmd)
}
