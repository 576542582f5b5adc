package secboard

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Run assembles the root command. Settings resolve in the persistent
// pre-run so every subcommand sees the same configuration.
func Run() error {
	var (
		s       Settings
		cfgPath string
	)

	com := &cobra.Command{
		Use:   "secboard",
		Short: "Terminal client for the security dashboard backend",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return LoadSettings(cfgPath, &s)
		},
	}
	com.AddGroup(
		&cobra.Group{ID: "view", Title: "Views"},
		&cobra.Group{ID: "act", Title: "Actions"},
	)

	fl := com.PersistentFlags()
	cfgFlags := pflag.NewFlagSet("Configuration", pflag.ExitOnError)
	cfgFlags.StringVar(&cfgPath, "config", "", "Path to configuration file")
	cfgFlags.StringVar(&s.BaseURL, "api", "", "Backend base URL")
	cfgFlags.BoolVar(&s.NoStore, "no-store", false, "Disable the local snapshot store")
	fl.AddFlagSet(cfgFlags)

	com.AddCommand(Commands(&s)...)
	return com.Execute()
}

func Commands(s *Settings) []*cobra.Command {
	return []*cobra.Command{
		// views
		dashboardCommand(s), // aggregate snapshot + connectivity
		toolsCommand(s),
		vulnsCommand(s),
		alertsCommand(s),
		scansCommand(s),
		hostsCommand(s),
		metricsCommand(s),
		schedulesCommand(s),
		watchCommand(s), // long-lived polling view
		// actions
		ackCommand(s),
		scanCommand(s),
		scheduleCommand(s),
	}
}

// note prints the mutation outcome the hub queued, if any.
func note(hub *Hub) {
	select {
	case n := <-hub.Notifications():
		RenderNotification(os.Stdout, n)
	default:
	}
}

func dashboardCommand(s *Settings) *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Short:   "Show the dashboard snapshot",
		GroupID: "view",
		RunE: func(cmd *cobra.Command, args []string) error {
			hub, err := Dial(s)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			// sibling feeds first so the aggregate can count
			// active scans and known tools
			hub.Scans.Get(ctx)
			hub.Tools.Get(ctx)

			stats, err := hub.Dashboard.Get(ctx)
			stats = PickValue(&stats, err != nil, FallbackStats())
			RenderDashboard(os.Stdout, stats, hub.Connected())
			return nil
		},
	}
}

func toolsCommand(s *Settings) *cobra.Command {
	return &cobra.Command{
		Use:     "tools",
		Short:   "List security tools and their status",
		GroupID: "view",
		RunE: func(cmd *cobra.Command, args []string) error {
			hub, err := Dial(s)
			if err != nil {
				return err
			}

			tools, err := hub.Tools.Get(cmd.Context())
			RenderTools(os.Stdout, PickList(tools, err != nil, FallbackTools()))
			return nil
		},
	}
}

func vulnsCommand(s *Settings) *cobra.Command {
	var (
		severity, status string
		recent           bool
	)

	cmd := &cobra.Command{
		Use:     "vulns [--severity severity] [--status status] [--recent]",
		Short:   "List vulnerabilities",
		GroupID: "view",
		RunE: func(cmd *cobra.Command, args []string) error {
			hub, err := Dial(s)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			// filtered variants are one-shot reads, not polled feeds
			switch {
			case recent:
				raw, err := hub.client.RecentVulnerabilities(ctx)
				if err != nil {
					return err
				}
				vulns, err := TransformAll(raw, TransformVulnerability)
				if err != nil {
					return err
				}
				RenderVulnerabilities(os.Stdout, vulns)
			case severity != "" || status != "":
				f := VulnFilter{Severity: Severity(severity), Status: VulnStatus(status)}
				vulns, err := hub.FilteredVulnerabilities(ctx, f)
				if err != nil {
					return err
				}
				RenderVulnerabilities(os.Stdout, vulns)
			default:
				vulns, err := hub.Vulnerabilities.Get(ctx)
				RenderVulnerabilities(os.Stdout, PickList(vulns, err != nil, nil))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&severity, "severity", "", "Filter by severity")
	flags.StringVar(&status, "status", "", "Filter by status")
	flags.BoolVar(&recent, "recent", false, "Only the last 24 hours")
	return cmd
}

func alertsCommand(s *Settings) *cobra.Command {
	var unacked bool

	cmd := &cobra.Command{
		Use:     "alerts [--unacked]",
		Short:   "List security alerts",
		GroupID: "view",
		RunE: func(cmd *cobra.Command, args []string) error {
			hub, err := Dial(s)
			if err != nil {
				return err
			}

			feed := hub.Alerts
			if unacked {
				feed = hub.Unacknowledged
			}
			alerts, err := feed.Get(cmd.Context())
			RenderAlerts(os.Stdout, PickList(alerts, err != nil, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&unacked, "unacked", false, "Only unacknowledged alerts")
	return cmd
}

func ackCommand(s *Settings) *cobra.Command {
	return &cobra.Command{
		Use:     "ack alert_id",
		Short:   "Acknowledge an alert",
		GroupID: "act",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id uint
			if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
				return fmt.Errorf("invalid alert id %q", args[0])
			}

			hub, err := Dial(s)
			if err != nil {
				return err
			}

			err = hub.AcknowledgeAlert(cmd.Context(), id)
			note(hub)
			return err
		},
	}
}

func scanCommand(s *Settings) *cobra.Command {
	var target, scanType string

	cmd := &cobra.Command{
		Use:     "scan",
		Short:   "Start or stop scans",
		GroupID: "act",
	}

	start := &cobra.Command{
		Use:   "start tool_id --target target [--type scan_type]",
		Short: "Start a scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id uint
			if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
				return fmt.Errorf("invalid tool id %q", args[0])
			}

			hub, err := Dial(s)
			if err != nil {
				return err
			}

			_, err = hub.StartScan(cmd.Context(), id, target, scanType)
			note(hub)
			return err
		},
	}
	start.Flags().StringVarP(&target, "target", "t", "", "Scan target")
	start.Flags().StringVar(&scanType, "type", "basic", "Scan type")
	start.MarkFlagRequired("target")

	stop := &cobra.Command{
		Use:   "stop tool_id",
		Short: "Stop a running scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id uint
			if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
				return fmt.Errorf("invalid tool id %q", args[0])
			}

			hub, err := Dial(s)
			if err != nil {
				return err
			}

			err = hub.StopScan(cmd.Context(), id)
			note(hub)
			return err
		},
	}

	cmd.AddCommand(start, stop)
	return cmd
}

func scansCommand(s *Settings) *cobra.Command {
	return &cobra.Command{
		Use:     "scans",
		Short:   "List scan results",
		GroupID: "view",
		RunE: func(cmd *cobra.Command, args []string) error {
			hub, err := Dial(s)
			if err != nil {
				return err
			}

			scans, err := hub.Scans.Get(cmd.Context())
			RenderScans(os.Stdout, PickList(scans, err != nil, nil))
			return nil
		},
	}
}

func hostsCommand(s *Settings) *cobra.Command {
	return &cobra.Command{
		Use:     "hosts",
		Short:   "List discovered network hosts",
		GroupID: "view",
		RunE: func(cmd *cobra.Command, args []string) error {
			hub, err := Dial(s)
			if err != nil {
				return err
			}

			hosts, err := hub.Hosts.Get(cmd.Context())
			RenderHosts(os.Stdout, PickList(hosts, err != nil, nil))
			return nil
		},
	}
}

func metricsCommand(s *Settings) *cobra.Command {
	return &cobra.Command{
		Use:     "metrics",
		Short:   "List security metrics",
		GroupID: "view",
		RunE: func(cmd *cobra.Command, args []string) error {
			hub, err := Dial(s)
			if err != nil {
				return err
			}

			metrics, err := hub.Metrics.Get(cmd.Context())
			RenderMetrics(os.Stdout, PickList(metrics, err != nil, nil))
			return nil
		},
	}
}

func schedulesCommand(s *Settings) *cobra.Command {
	var active bool

	cmd := &cobra.Command{
		Use:     "schedules [--active]",
		Short:   "List scan schedules",
		GroupID: "view",
		RunE: func(cmd *cobra.Command, args []string) error {
			hub, err := Dial(s)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if active {
				raw, err := hub.client.ActiveSchedules(ctx)
				if err != nil {
					return err
				}
				RenderSchedules(os.Stdout, mapAll(raw, TransformSchedule))
				return nil
			}

			schedules, err := hub.Schedules.Get(ctx)
			RenderSchedules(os.Stdout, PickList(schedules, err != nil, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&active, "active", false, "Only active schedules")
	return cmd
}

func scheduleCommand(s *Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schedule",
		Short:   "Manage scan schedules",
		GroupID: "act",
	}

	toggle := &cobra.Command{
		Use:   "toggle schedule_id",
		Short: "Enable or disable a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id uint
			if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
				return fmt.Errorf("invalid schedule id %q", args[0])
			}

			hub, err := Dial(s)
			if err != nil {
				return err
			}

			err = hub.ToggleSchedule(cmd.Context(), id)
			note(hub)
			return err
		},
	}

	run := &cobra.Command{
		Use:   "run schedule_id",
		Short: "Trigger a scheduled scan immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id uint
			if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
				return fmt.Errorf("invalid schedule id %q", args[0])
			}

			hub, err := Dial(s)
			if err != nil {
				return err
			}

			err = hub.RunScheduleNow(cmd.Context(), id)
			note(hub)
			return err
		},
	}

	cmd.AddCommand(toggle, run)
	return cmd
}

func watchCommand(s *Settings) *cobra.Command {
	var every time.Duration

	cmd := &cobra.Command{
		Use:     "watch",
		Short:   "Keep the dashboard refreshed until interrupted",
		GroupID: "view",
		RunE: func(cmd *cobra.Command, args []string) error {
			hub, err := Dial(s)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			hub.Start(ctx)
			defer hub.Stop()

			tick := time.NewTicker(every)
			defer tick.Stop()

			for {
				select {
				case <-ctx.Done():
					return nil
				case n := <-hub.Notifications():
					RenderNotification(os.Stdout, n)
				case <-tick.C:
					renderStatus(hub)
				}
			}
		},
	}

	cmd.Flags().DurationVar(&every, "every", 5*time.Second, "Render interval")
	return cmd
}

func renderStatus(hub *Hub) {
	snap := hub.Dashboard.Snapshot()
	stats := PickValue(&snap.Value, snap.State != FEED_READY, FallbackStats())

	alerts := hub.Unacknowledged.Snapshot()

	state := "offline"
	if hub.Connected() {
		state = "live"
	}
	fmt.Printf("[%s] %s  critical=%d high=%d unacked=%d hosts=%d\n",
		time.Now().Format("15:04:05"), state,
		stats.CriticalVulns, stats.HighVulns,
		len(alerts.Value), stats.HostsDiscovered)
}
