// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uipilot/internal/observability"
	"github.com/xkilldash9x/uipilot/internal/service"
)

// newRunCmd creates the `run` command. Words after the flags form the first
// request; without them the request is read from stdin.
func newRunCmd(opts *rootOptions, factory service.ComponentFactory) *cobra.Command {
	var taskID string

	runCmd := &cobra.Command{
		Use:   "run [request...]",
		Short: "Carries out a request, then keeps asking for new ones until told to stop",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Use the context passed from main.go (signal-aware).
			ctx := cmd.Context()
			logger := observability.GetLogger()

			if taskID == "" {
				taskID = uuid.NewString()
			}
			request := strings.TrimSpace(strings.Join(args, " "))
			logger.Info("Starting new task",
				zap.String("task_id", taskID),
				zap.String("request", request),
				zap.Int("max_step", opts.cfg.Session().MaxStep),
				zap.Bool("safe_guard", opts.cfg.Session().SafeGuard),
			)

			components, err := factory.Create(ctx, opts.cfg, service.Request{
				TaskID:  taskID,
				Request: request,
				In:      cmd.InOrStdin(),
				Out:     cmd.OutOrStdout(),
			}, logger)
			if err != nil {
				if errors.Is(err, service.ErrNoRequest) {
					return err
				}
				return fmt.Errorf("failed to initialize task components: %w", err)
			}
			defer components.Shutdown()

			if err := components.Run(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					logger.Warn("Task aborted gracefully", zap.String("task_id", taskID))
					return fmt.Errorf("task aborted by user signal: %w", err)
				}
				return fmt.Errorf("task %s failed: %w", taskID, err)
			}

			c := components.Controller
			logger.Info("Task completed",
				zap.String("task_id", taskID),
				zap.Int("steps", c.Step()),
				zap.Int("rounds", c.Round()),
				zap.String("cost", c.Cost().String()),
				zap.String("logs", c.LogDir()),
			)
			return nil
		},
	}

	flags := runCmd.Flags()
	flags.StringVar(&taskID, "task-id", "", "name of the task log directory (default is a random UUID)")
	flags.Int("max-step", 30, "maximum number of steps before a round is finished")
	flags.Bool("safe-guard", true, "ask for confirmation before sensitive actions")
	flags.String("log-root", "logs", "directory holding the per-task logs")
	flags.Bool("headless", false, "launch the browser without a window")
	flags.String("remote-url", "", "DevTools URL of a running browser to attach to")
	flags.String("start-url", "about:blank", "page opened in a launched browser")
	return runCmd
}
