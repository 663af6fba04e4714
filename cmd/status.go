package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	statusadapter "github.com/bnema/clawsync/internal/adapters/render/status"
	"github.com/bnema/clawsync/internal/application"
	"github.com/bnema/clawsync/internal/domain"
	"github.com/spf13/cobra"
)

const (
	defaultStatusWait   = 5 * time.Second
	heartbeatStaleAfter = 90 * time.Second
)

var errGatewayUnreachable = errors.New("gateway unreachable")

func newStatusCmd(app *app) *cobra.Command {
	var asJSON bool
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Connect once and print a fleet snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := app.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.Close()

			var snapshot application.Snapshot
			waitFn := func(ctx context.Context) error {
				var waitErr error
				snapshot, waitErr = waitForSnapshot(ctx, sess.store, wait)
				return waitErr
			}

			if asJSON {
				err = waitFn(cmd.Context())
			} else {
				err = runConnectSpinner(cmd.Context(), cmd.ErrOrStderr(), "Connecting to gateway...", waitFn)
			}
			if err != nil {
				return err
			}

			return writeSnapshotOutput(cmd, app, snapshot, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.Flags().DurationVar(&wait, "wait", defaultStatusWait, "How long to wait for roster and usage")

	return cmd
}

// waitForSnapshot returns once the first usage sample arrived, the connection
// failed for good, or wait elapsed. A connection that never came up is an
// error; a slow usage poll is not.
func waitForSnapshot(ctx context.Context, store *application.Store, wait time.Duration) (application.Snapshot, error) {
	settled := make(chan struct{}, 1)
	unsubscribe := store.Subscribe(func(snapshot application.Snapshot) {
		if snapshotSettled(snapshot) {
			select {
			case settled <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	if !snapshotSettled(store.Snapshot()) {
		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case <-settled:
		case <-timer.C:
		case <-ctx.Done():
			return application.Snapshot{}, ctx.Err()
		}
	}

	snapshot := store.Snapshot()
	switch snapshot.Connection.Status {
	case domain.ConnectionConnected:
		return snapshot, nil
	case domain.ConnectionError, domain.ConnectionDisconnected:
		if snapshot.Connection.Error != "" {
			return snapshot, fmt.Errorf("%w: %s", errGatewayUnreachable, snapshot.Connection.Error)
		}
		return snapshot, errGatewayUnreachable
	default:
		return snapshot, fmt.Errorf("%w: still %s after %s", errGatewayUnreachable, snapshot.Connection.Status, wait)
	}
}

func snapshotSettled(snapshot application.Snapshot) bool {
	switch snapshot.Connection.Status {
	case domain.ConnectionError:
		return true
	case domain.ConnectionDisconnected:
		return snapshot.Connection.Error != ""
	case domain.ConnectionConnected:
		return len(snapshot.Tokens) > 0
	default:
		return false
	}
}

func writeSnapshotOutput(cmd *cobra.Command, app *app, snapshot application.Snapshot, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(snapshot)
	}

	rendered, err := app.statusRenderer(snapshot, statusadapter.RenderOptions{
		Now:                 app.now(),
		HeartbeatStaleAfter: heartbeatStaleAfter,
	})
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
