package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"lifetrack/pkg/db"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var apiBaseURL string

	cmd := &cobra.Command{
		Use:           "lifectl",
		Short:         "Utility for managing life-limited part tracking",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&apiBaseURL, "api", defaultAPIBaseURL(),
		"Base URL of the lifetrack API")

	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newConfigureCommand(&apiBaseURL))
	cmd.AddCommand(newStatusCommand(&apiBaseURL))
	cmd.AddCommand(newAlertsCommand(&apiBaseURL))
	cmd.AddCommand(newRetireCommand(&apiBaseURL))
	return cmd
}

func defaultAPIBaseURL() string {
	if v := strings.TrimSpace(os.Getenv("LIFETRACK_API")); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func newClient(baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(30 * time.Second)
}

func printResponse(resp *resty.Response) error {
	if resp.IsError() {
		return fmt.Errorf("%s: %s", resp.Status(), strings.TrimSpace(string(resp.Body())))
	}

	var pretty map[string]any
	if err := json.Unmarshal(resp.Body(), &pretty); err != nil {
		fmt.Println(string(resp.Body()))
		return nil
	}
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
			if dsn == "" {
				return errors.New("DATABASE_URL is required")
			}

			pool, err := db.Open(ctx, dsn)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.Migrate(ctx, pool); err != nil {
				return err
			}

			fmt.Println("migrations applied")
			return nil
		},
	}
}

func newConfigureCommand(apiBaseURL *string) *cobra.Command {
	var (
		partID             string
		criticality        string
		retirementType     string
		cycleLimit         int64
		timeLimit          int64
		inspectionInterval int64
		regulatoryRef      string
		certRequired       bool
		notes              string
		notLifeLimited     bool
	)

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Set the life-limit configuration for a part type",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"part_id":                partID,
				"is_life_limited":        !notLifeLimited,
				"criticality":            strings.ToUpper(criticality),
				"retirement_type":        strings.ToUpper(retirementType),
				"regulatory_reference":   regulatoryRef,
				"certification_required": certRequired,
				"notes":                  notes,
			}
			if cmd.Flags().Changed("cycle-limit") {
				body["cycle_limit"] = cycleLimit
			}
			if cmd.Flags().Changed("time-limit") {
				body["time_limit"] = timeLimit
			}
			if cmd.Flags().Changed("inspection-interval") {
				body["inspection_interval"] = inspectionInterval
			}

			resp, err := newClient(*apiBaseURL).R().
				SetContext(cmd.Context()).
				SetBody(body).
				Post("/v1/llp/configuration")
			if err != nil {
				return err
			}
			return printResponse(resp)
		},
	}

	cmd.Flags().StringVar(&partID, "part", "", "Part type ID")
	cmd.Flags().StringVar(&criticality, "criticality", "CRITICAL", "Criticality (CRITICAL, SEMI_CRITICAL, NON_CRITICAL)")
	cmd.Flags().StringVar(&retirementType, "retirement-type", "CYCLES_ONLY", "Retirement basis (CYCLES_ONLY, TIME_ONLY, CYCLES_OR_TIME)")
	cmd.Flags().Int64Var(&cycleLimit, "cycle-limit", 0, "Maximum accumulated cycles")
	cmd.Flags().Int64Var(&timeLimit, "time-limit", 0, "Maximum accumulated operating hours")
	cmd.Flags().Int64Var(&inspectionInterval, "inspection-interval", 0, "Cycles between mandatory inspections")
	cmd.Flags().StringVar(&regulatoryRef, "regulatory-reference", "", "Governing regulatory reference")
	cmd.Flags().BoolVar(&certRequired, "cert-required", false, "Require certification documents on events")
	cmd.Flags().StringVar(&notes, "notes", "", "Configuration notes")
	cmd.Flags().BoolVar(&notLifeLimited, "not-life-limited", false, "Mark the part type as not life-limited")
	_ = cmd.MarkFlagRequired("part")
	return cmd
}

func newStatusCommand(apiBaseURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status <instance-id>",
		Short: "Show the computed life status for a serialized part",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient(*apiBaseURL).R().
				SetContext(cmd.Context()).
				Get("/v1/llp/life-status/" + args[0])
			if err != nil {
				return err
			}
			return printResponse(resp)
		},
	}
}

func newAlertsCommand(apiBaseURL *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Alert listing and lifecycle operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newAlertsListCommand(apiBaseURL))
	cmd.AddCommand(newAlertsAckCommand(apiBaseURL))
	cmd.AddCommand(newAlertsResolveCommand(apiBaseURL))
	return cmd
}

func newAlertsListCommand(apiBaseURL *string) *cobra.Command {
	var (
		severity string
		active   bool
		page     int
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := newClient(*apiBaseURL).R().
				SetContext(cmd.Context()).
				SetQueryParam("page", fmt.Sprint(page)).
				SetQueryParam("limit", fmt.Sprint(limit))
			if severity != "" {
				req.SetQueryParam("severity", strings.ToUpper(severity))
			}
			if cmd.Flags().Changed("active") {
				req.SetQueryParam("is_active", fmt.Sprint(active))
			}

			resp, err := req.Get("/v1/llp/alerts")
			if err != nil {
				return err
			}
			return printResponse(resp)
		},
	}

	cmd.Flags().StringVar(&severity, "severity", "", "Filter by severity (INFO, WARNING, CRITICAL, URGENT)")
	cmd.Flags().BoolVar(&active, "active", true, "Filter by active state")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	return cmd
}

func newAlertsAckCommand(apiBaseURL *string) *cobra.Command {
	var (
		userID string
		notes  string
	)

	cmd := &cobra.Command{
		Use:   "ack <alert-id>",
		Short: "Acknowledge an active alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient(*apiBaseURL).R().
				SetContext(cmd.Context()).
				SetBody(map[string]string{"user_id": userID, "notes": notes}).
				Post("/v1/llp/alerts/" + args[0] + "/acknowledge")
			if err != nil {
				return err
			}
			return printResponse(resp)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User acknowledging the alert")
	cmd.Flags().StringVar(&notes, "notes", "", "Acknowledgement notes")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newAlertsResolveCommand(apiBaseURL *string) *cobra.Command {
	var (
		userID     string
		resolution string
		notes      string
	)

	cmd := &cobra.Command{
		Use:   "resolve <alert-id>",
		Short: "Resolve an acknowledged alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient(*apiBaseURL).R().
				SetContext(cmd.Context()).
				SetBody(map[string]string{
					"user_id":    userID,
					"resolution": resolution,
					"notes":      notes,
				}).
				Post("/v1/llp/alerts/" + args[0] + "/resolve")
			if err != nil {
				return err
			}
			return printResponse(resp)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User resolving the alert")
	cmd.Flags().StringVar(&resolution, "resolution", "", "Resolution taken (e.g. PART_RETIRED)")
	cmd.Flags().StringVar(&notes, "notes", "", "Resolution notes")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("resolution")
	return cmd
}

func newRetireCommand(apiBaseURL *string) *cobra.Command {
	var (
		instanceID string
		userID     string
		reason     string
		notes      string
		cycles     int64
		hours      int64
	)

	cmd := &cobra.Command{
		Use:   "retire",
		Short: "Permanently retire a serialized part",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient(*apiBaseURL).R().
				SetContext(cmd.Context()).
				SetBody(map[string]any{
					"serialized_part_id": instanceID,
					"retired_by":         userID,
					"reason":             reason,
					"notes":              notes,
					"retirement_cycles":  cycles,
					"retirement_hours":   hours,
				}).
				Post("/v1/llp/retirement")
			if err != nil {
				return err
			}
			return printResponse(resp)
		},
	}

	cmd.Flags().StringVar(&instanceID, "instance", "", "Serialized part instance ID")
	cmd.Flags().StringVar(&userID, "user", "", "User performing the retirement")
	cmd.Flags().StringVar(&reason, "reason", "", "Retirement reason")
	cmd.Flags().StringVar(&notes, "notes", "", "Retirement notes")
	cmd.Flags().Int64Var(&cycles, "cycles", 0, "Final accumulated cycles")
	cmd.Flags().Int64Var(&hours, "hours", 0, "Final accumulated operating hours")
	_ = cmd.MarkFlagRequired("instance")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}
