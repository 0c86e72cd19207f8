package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/pbaille/coursework/internal/api"
	"github.com/pbaille/coursework/internal/canvas"
	"github.com/pbaille/coursework/internal/config"
	"github.com/pbaille/coursework/internal/controller"
	"github.com/pbaille/coursework/internal/domain"
	"github.com/pbaille/coursework/internal/render"
	"github.com/pbaille/coursework/internal/settings"
	"github.com/pbaille/coursework/internal/store"
	"github.com/pbaille/coursework/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	dbPath string
	log    logger.Logger
)

func main() {
	if err := logger.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		os.Exit(1)
	}

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "coursework",
		Short:        "Browse Canvas courses and assignments",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log = logger.Named("cli")
			loaded, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			cfg = loaded
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			if err := logger.SetLevelString(cfg.LogLevel); err != nil {
				log.Warn(cmd.Context(), "invalid log_level; falling back to info",
					logger.String("log_level", cfg.LogLevel), logger.Error(err))
				_ = logger.SetLevelString("info")
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "settings database path (overrides db_path)")

	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(coursesCmd())
	rootCmd.AddCommand(assignmentsCmd())
	rootCmd.AddCommand(serveCmd())
	return rootCmd
}

func getStore() (*store.Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return store.New(cfg.DBPath)
}

func httpClient() *http.Client {
	if cfg.RequestTimeout() == 0 {
		return http.DefaultClient
	}
	return &http.Client{Timeout: cfg.RequestTimeout()}
}

func location() *time.Location {
	loc, err := cfg.Location()
	if err != nil {
		return time.Local
	}
	return loc
}

// getClient builds a Canvas client from the saved settings.
func getClient(ctx context.Context) (*canvas.Client, error) {
	s, err := getStore()
	if err != nil {
		return nil, err
	}
	defer s.Close()

	saved, err := settings.Load(ctx, s)
	if err != nil {
		return nil, err
	}
	return canvas.New(saved,
		canvas.WithHTTPClient(httpClient()),
		canvas.WithLogger(logger.Named("canvas")),
	), nil
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the Canvas connection settings",
	}
	cmd.AddCommand(configSetCmd())
	cmd.AddCommand(configShowCmd())
	return cmd
}

func configSetCmd() *cobra.Command {
	var domainName, token, proxy string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Save the Canvas domain, access token and CORS proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ctx := cmd.Context()
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			// Unset flags keep their saved value.
			current, err := settings.Load(ctx, s)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("domain") {
				domainName = current.Domain
			}
			if !cmd.Flags().Changed("token") {
				token = current.AccessToken
			}
			if !cmd.Flags().Changed("proxy") {
				proxy = current.ProxyPrefix
			}

			saved, err := settings.Save(ctx, s, domainName, token, proxy)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, controller.SavedNotice)
			printConfig(out, saved)
			return nil
		},
	}

	cmd.Flags().StringVar(&domainName, "domain", "", "Canvas domain, e.g. school.instructure.com")
	cmd.Flags().StringVar(&token, "token", "", "Canvas access token")
	cmd.Flags().StringVar(&proxy, "proxy", "", "CORS proxy prefix (empty disables proxying)")
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the saved settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			saved, err := settings.Load(cmd.Context(), s)
			if err != nil {
				return err
			}
			printConfig(out, saved)
			return nil
		},
	}
}

func coursesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "courses",
		Short: "List active courses",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			client, err := getClient(cmd.Context())
			if err != nil {
				return err
			}

			courses, err := client.Courses(cmd.Context())
			if err != nil {
				return err
			}

			if len(courses) == 0 {
				fmt.Fprintln(out, render.NoCourses)
				return nil
			}

			for _, c := range courses {
				if c.CourseCode != "" {
					fmt.Fprintf(out, "%-8d %s (%s)\n", c.ID, c.Name, c.CourseCode)
				} else {
					fmt.Fprintf(out, "%-8d %s\n", c.ID, c.Name)
				}
			}
			return nil
		},
	}
}

func assignmentsCmd() *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "assignments [course-id]",
		Short: "List a course's assignments with rubrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			courseID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || courseID <= 0 {
				return fmt.Errorf("invalid course id: %s", args[0])
			}
			if width < 0 {
				return fmt.Errorf("invalid width: %d", width)
			}

			client, err := getClient(cmd.Context())
			if err != nil {
				return err
			}

			assignments, err := client.Assignments(cmd.Context(), courseID)
			if err != nil {
				return err
			}

			if len(assignments) == 0 {
				fmt.Fprintln(out, render.NoAssignments)
				return nil
			}

			loc := location()
			for i, a := range assignments {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "%s\n", a.Name)
				fmt.Fprintf(out, "  Due:      %s\n", render.FormatDueDate(a.DueAt, loc))
				fmt.Fprintf(out, "  Points:   %s\n", render.FormatPoints(a.PointsPossible))
				if len(a.Rubric) == 0 {
					fmt.Fprintf(out, "  Rubric:   %s\n", render.NoRubric)
				} else {
					fmt.Fprintf(out, "  Rubric:   %d criteria\n", len(a.Rubric))
					for _, c := range a.Rubric {
						fmt.Fprintf(out, "    - %s (%spts)\n", c.Description, render.FormatPoints(&c.Points))
					}
				}
				if a.Description == "" {
					fmt.Fprintf(out, "  Details:  %s\n", render.NoInstructions)
				} else {
					fmt.Fprintf(out, "  Details:  %s\n", render.Summary(a.Description, width))
				}
				if a.HTMLURL != "" {
					fmt.Fprintf(out, "  Link:     %s\n", a.HTMLURL)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&width, "width", "w", 80, "maximum instruction summary length")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			ctrl, err := controller.New(ctx, s,
				controller.WithHTTPClient(httpClient()),
				controller.WithLocation(location()),
				controller.WithLogger(logger.Named("controller")),
			)
			if err != nil {
				return err
			}

			if addr == "" {
				addr = cfg.Addr
			}
			fmt.Fprintf(out, "Serving on %s\n", addr)
			server := api.New(ctrl, addr, api.WithLogger(logger.Named("api")))
			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides addr)")
	return cmd
}

func printConfig(out io.Writer, c domain.Configuration) {
	proxy := c.ProxyPrefix
	if proxy == "" {
		proxy = "(disabled)"
	}
	domainName := c.Domain
	if domainName == "" {
		domainName = "(not set)"
	}
	fmt.Fprintf(out, "Domain: %s\n", domainName)
	fmt.Fprintf(out, "Token:  %s\n", settings.MaskToken(c.AccessToken))
	fmt.Fprintf(out, "Proxy:  %s\n", proxy)
}
