package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/kennel/internal/stores/maintenance"
)

// maintenanceStatus is the JSON shape printed by maintenance subcommands.
type maintenanceStatus struct {
	Active    bool                 `json:"active"`
	Settings  maintenance.Settings `json:"settings"`
	Remaining string               `json:"remaining,omitempty"`
}

func (a *app) maintenanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Inspect or switch maintenance mode",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show whether maintenance mode is on",
			Args:  noArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := a.maintenance(cmd.Context())
				if err != nil {
					return err
				}
				return a.printMaintenance(cmd, m)
			},
		},
		a.maintenanceSwitchCmd("on", true),
		a.maintenanceSwitchCmd("off", false),
		a.maintenanceScheduleCmd(),
	)
	return cmd
}

func (a *app) maintenanceSwitchCmd(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Turn maintenance mode %s", use),
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.maintenance(cmd.Context())
			if err != nil {
				return err
			}
			if err := m.SetMode(cmd.Context(), active); err != nil {
				return err
			}
			return a.printMaintenance(cmd, m)
		},
	}
}

func (a *app) maintenanceScheduleCmd() *cobra.Command {
	var s maintenance.Settings
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Store a maintenance window",
		Long: `Schedule stores the window and message shown to visitors. Dates are
YYYY-MM-DD and times HH:MM in local time. The mode is on while --active is
set and the clock is inside the window.

Example:
  kennel maintenance schedule --start-date 2025-03-14 --start-time 09:00 \
    --end-date 2025-03-14 --end-time 18:00 --active`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.maintenance(cmd.Context())
			if err != nil {
				return err
			}
			current := m.Settings()
			f := cmd.Flags()
			if !f.Changed("message") {
				s.Message = current.Message
			}
			if !f.Changed("reason") {
				s.Reason = current.Reason
			}
			if _, err := m.UpdateSettings(cmd.Context(), s); err != nil {
				return err
			}
			return a.printMaintenance(cmd, m)
		},
	}
	f := cmd.Flags()
	f.StringVar(&s.StartDate, "start-date", "", "first day of the window (YYYY-MM-DD)")
	f.StringVar(&s.StartTime, "start-time", "", "start time (HH:MM)")
	f.StringVar(&s.EndDate, "end-date", "", "last day of the window (YYYY-MM-DD)")
	f.StringVar(&s.EndTime, "end-time", "", "end time (HH:MM)")
	f.StringVar(&s.Message, "message", "", "message shown while the mode is on")
	f.StringVar(&s.Reason, "reason", "", "reason shown while the mode is on")
	f.BoolVar(&s.IsActive, "active", false, "enable the window")
	return cmd
}

// maintenance opens a maintenance store on the configured storage and
// evaluates the stored window.
func (a *app) maintenance(ctx context.Context) (*maintenance.Store, error) {
	if _, err := a.service(ctx); err != nil {
		return nil, err
	}
	m := maintenance.New(a.storage, a.log)
	if _, err := m.Check(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (a *app) printMaintenance(cmd *cobra.Command, m *maintenance.Store) error {
	st := maintenanceStatus{Active: m.Active(), Settings: m.Settings()}
	if r, ok := m.TimeUntilEnd(); ok {
		st.Remaining = fmt.Sprintf("%dh%02dm", r.Hours, r.Minutes)
	}
	if a.flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), st)
	}
	w := cmd.OutOrStdout()
	if !st.Active {
		fmt.Fprintln(w, "maintenance: off")
		return nil
	}
	fmt.Fprintln(w, "maintenance: on")
	fmt.Fprintf(w, "message: %s\nreason: %s\n", st.Settings.Message, st.Settings.Reason)
	if st.Remaining != "" {
		fmt.Fprintf(w, "ends in: %s\n", st.Remaining)
	}
	return nil
}
