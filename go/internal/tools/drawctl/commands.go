package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/luckydraw/go/internal/draw/engine"
	"github.com/mcdev12/luckydraw/go/internal/draw/frame"
	"github.com/mcdev12/luckydraw/go/internal/draw/session"
	"github.com/mcdev12/luckydraw/go/internal/models"
	"github.com/spf13/cobra"
)

type options struct {
	statePath string
	server    string
	sessionID string
	picker    engine.Picker
	out       io.Writer
}

// newRootCmd builds the command tree. A nil picker draws at random.
func newRootCmd(out io.Writer, picker engine.Picker) *cobra.Command {
	opts := &options{out: out, picker: picker}

	root := &cobra.Command{
		Use:          "drawctl",
		Short:        "Run a lucky draw from the terminal",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.SetErr(out)

	root.PersistentFlags().StringVar(&opts.statePath, "state", "luckydraw.json", "draw state file")
	root.PersistentFlags().StringVar(&opts.server, "server", "", "draw service base URL (e.g. http://127.0.0.1:8080); uses --session instead of --state")
	root.PersistentFlags().StringVar(&opts.sessionID, "session", "", "session id on --server")

	root.AddCommand(
		actionCmd(opts, "add <names>...", "Add comma or newline separated names to the pool", models.ActionAdd, frame.RouteHome, cobra.MinimumNArgs(1)),
		actionCmd(opts, "reset", "Clear the pool and the winners", models.ActionReset, frame.RouteHome, cobra.NoArgs),
		actionCmd(opts, "spin", "Start a round", models.ActionSpin, frame.RouteSpin, cobra.NoArgs),
		actionCmd(opts, "reveal", "Draw a winner from the pool", models.ActionReveal, frame.RouteReveal, cobra.NoArgs),
		actionCmd(opts, "remove", "Move the revealed winner out of the pool", models.ActionRemove, frame.RouteRemove, cobra.NoArgs),
		showCmd(opts),
		newCmd(opts),
		sessionsCmd(opts),
	)
	return root
}

func actionCmd(opts *options, use, short string, action models.Action, route frame.Route, args cobra.PositionalArgs) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			ev := models.DrawEvent{Action: action, InputText: strings.Join(args, "\n")}
			state, err := opts.apply(cmd.Context(), ev)
			if err != nil {
				return err
			}
			printFrame(opts.out, frame.Render(route, state))
			return nil
		},
	}
}

func showCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the pool and the winners",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			printFrame(opts.out, frame.Render(frame.RouteHome, state))
			fmt.Fprintf(opts.out, "Pool: %s\n", joinOrDash(state.Names))
			fmt.Fprintf(opts.out, "Winners: %s\n", joinOrDash(state.Winners))
			return nil
		},
	}
}

func newCmd(opts *options) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "new [names]...",
		Short: "Start a session on --server, optionally seeded with names",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			s, err := client.CreateSession(cmd.Context(), session.CreateSessionRequest{
				Title: title,
				Names: strings.Join(args, "\n"),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.out, "Session: %s\n", s.ID)
			printFrame(opts.out, frame.Render(frame.RouteHome, s.State))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "session title")
	return cmd
}

func sessionsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List the sessions on --server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			sessions, err := client.ListSessions(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range sessions {
				fmt.Fprintf(opts.out, "%s  %s  players=%d winners=%d\n", s.ID, s.Title, len(s.State.Names), len(s.State.Winners))
			}
			return nil
		},
	}
}

func (o *options) client() (*session.Client, error) {
	if o.server == "" {
		return nil, fmt.Errorf("--server is required")
	}
	return session.NewClient(&http.Client{Timeout: 10 * time.Second}, o.server), nil
}

func (o *options) remote() (*session.Client, uuid.UUID, error) {
	if o.sessionID == "" {
		return nil, uuid.Nil, fmt.Errorf("--session is required with --server")
	}
	id, err := uuid.Parse(o.sessionID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("invalid --session: %w", err)
	}
	client, err := o.client()
	if err != nil {
		return nil, uuid.Nil, err
	}
	return client, id, nil
}

func (o *options) load(ctx context.Context) (models.DrawState, error) {
	if o.server == "" {
		return loadState(o.statePath)
	}
	client, id, err := o.remote()
	if err != nil {
		return models.DrawState{}, err
	}
	s, err := client.GetSession(ctx, id)
	if err != nil {
		return models.DrawState{}, err
	}
	return s.State, nil
}

func (o *options) apply(ctx context.Context, ev models.DrawEvent) (models.DrawState, error) {
	if o.server != "" {
		client, id, err := o.remote()
		if err != nil {
			return models.DrawState{}, err
		}
		res, err := client.Apply(ctx, id, ev)
		if err != nil {
			return models.DrawState{}, err
		}
		return res.Session.State, nil
	}

	state, err := loadState(o.statePath)
	if err != nil {
		return models.DrawState{}, err
	}

	var engOpts []engine.Option
	if o.picker != nil {
		engOpts = append(engOpts, engine.WithPicker(o.picker))
	}
	res := engine.New(engOpts...).Apply(state, ev)
	if res.Changed {
		if err := saveState(o.statePath, res.State); err != nil {
			return models.DrawState{}, err
		}
	}
	return res.State, nil
}

func printFrame(w io.Writer, f frame.Frame) {
	fmt.Fprintln(w, f.Title)
	for _, line := range f.Lines {
		fmt.Fprintln(w, line)
	}
}

func joinOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
