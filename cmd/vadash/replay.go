package main

import (
	"context"
	"errors"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/haakonRefsvik/VA-student-performance/engine"
	"github.com/haakonRefsvik/VA-student-performance/translator"
)

var eventsPath string

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Apply a recorded event stream and print each outcome",
	Long: `Replay newline-delimited events against a fresh session.

Each line is one event envelope; blank lines and lines starting with '#'
are ignored:
  {"viewId":"tsne-plot","kind":"POINT_SELECTION","points":[0,1,2]}
  {"viewId":"final-grade-slider","kind":"RANGE_SELECTION","range":{"lo":10,"hi":20}}

Rejected events are reported and leave the state untouched.`,
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVarP(&eventsPath, "events", "e", "", "JSONL event file (required)")
	_ = replayCmd.MarkFlagRequired("events")
}

// replayStep is one line of replay output.
type replayStep struct {
	Event     string      `json:"event" yaml:"event"`
	ViewID    string      `json:"viewId" yaml:"viewId"`
	Kind      string      `json:"kind" yaml:"kind"`
	Status    string      `json:"status" yaml:"status"`
	Canonical string      `json:"canonical,omitempty" yaml:"canonical,omitempty"`
	Rows      []int       `json:"rows,omitempty" yaml:"rows,omitempty,flow"`
	Summary   string      `json:"summary,omitempty" yaml:"summary,omitempty"`
	Rejection *rejectInfo `json:"rejection,omitempty" yaml:"rejection,omitempty"`
}

type rejectInfo struct {
	Reason string `json:"reason" yaml:"reason"`
}

func runReplay(cmd *cobra.Command, _ []string) error {
	rt, err := bootstrap()
	if err != nil {
		return err
	}
	f, err := os.Open(eventsPath)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to open events")
	}
	defer f.Close()

	events, err := translator.ReadEvents(f)
	if err != nil {
		return err
	}
	session, err := engine.NewSession(rt.table, rt.dashboard, rt.sessionOptions()...)
	if err != nil {
		return err
	}

	steps, rejected, err := replay(cmd.Context(), session, events)
	if err != nil {
		return err
	}
	rt.log.WithFields(logrus.Fields{
		"Events":   len(events),
		"Rejected": rejected,
	}).Infoln("Replay finished ✅")
	return write(cmd.OutOrStdout(), steps)
}

// replay applies events in order. Validation failures become rejection
// steps; any other error aborts.
func replay(ctx context.Context, session *engine.Session, events []engine.Event) ([]replayStep, int, error) {
	steps := make([]replayStep, 0, len(events))
	rejected := 0
	for _, ev := range events {
		step := replayStep{Event: ev.ID, ViewID: ev.ViewID, Kind: string(ev.Kind)}
		update, err := session.HandleEvent(ctx, ev)
		switch {
		case err == nil:
			c := update.Derived.Canonical
			step.Event = update.EventID
			step.Status = "accepted"
			step.Canonical = string(c.Mode)
			step.Rows = c.Rows()
			step.Summary = update.Derived.Summary.Text
		case errors.Is(err, engine.ErrValidation):
			rejected++
			step.Status = "rejected"
			step.Rejection = &rejectInfo{Reason: engine.RejectionFor(ev, err).Reason}
		default:
			return nil, rejected, err
		}
		steps = append(steps, step)
	}
	return steps, rejected, nil
}
