package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	apperrors "pomodoro/timer/internal/errors"
	"pomodoro/timer/internal/model"
	"pomodoro/timer/internal/service"
	"pomodoro/timer/internal/timer"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a timer in this terminal",
		Long: `Run a local timer. Keys (followed by Enter):
  <Enter>  start, or confirm a finished session
  p        pause or resume
  s        stop the current session
  q        quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, _ := cmd.Flags().GetString("mode")
			taskID, _ := cmd.Flags().GetString("task")
			return runTimer(cmd, model.Mode(mode), taskID, os.Stdin, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringP("mode", "m", string(model.ModeWork), "Mode to start in (work, shortBreak, longBreak)")
	cmd.Flags().StringP("task", "t", "", "Task id to attach to sessions")

	return cmd
}

func runTimer(cmd *cobra.Command, mode model.Mode, taskID string, in io.Reader, out io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := openLocal(ctx, cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	timers := application.Timer
	events, cancel, apiErr := timers.Subscribe(ctx, localUserID, 64)
	if apiErr != nil {
		return apiErr
	}
	defer cancel()
	alerts := application.Notifier().Listen(4)

	state, apiErr := timers.Start(ctx, localUserID, service.StartInput{Mode: mode, TaskID: taskID})
	if apiErr != nil {
		return apiErr
	}
	printState(out, state.State)

	keys := make(chan string)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			keys <- strings.TrimSpace(scanner.Text())
		}
		close(keys)
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			printEvent(out, event)
		case alert, ok := <-alerts:
			if !ok {
				alerts = nil
				continue
			}
			fmt.Fprintf(out, "\a\n%s finished. Press Enter to continue.\n", alert.Mode)
		case key, ok := <-keys:
			if !ok || key == "q" {
				fmt.Fprintln(out)
				return nil
			}
			if apiErr := handleKey(ctx, timers, key); apiErr != nil {
				fmt.Fprintf(out, "\n%s\n", apiErr.Message)
			}
		}
	}
}

func handleKey(ctx context.Context, timers *service.TimerService, key string) *apperrors.APIError {
	state, apiErr := timers.GetState(ctx, localUserID)
	if apiErr != nil {
		return apiErr
	}

	switch key {
	case "":
		switch state.Status {
		case timer.StatusAwaitingConfirmation:
			_, apiErr = timers.Confirm(ctx, localUserID, 0)
		case timer.StatusIdle:
			_, apiErr = timers.Start(ctx, localUserID, service.StartInput{})
		}
	case "p":
		if state.Status == timer.StatusPaused {
			_, apiErr = timers.Resume(ctx, localUserID, 0)
		} else {
			_, apiErr = timers.Pause(ctx, localUserID, 0)
		}
	case "s":
		_, apiErr = timers.Stop(ctx, localUserID, 0)
	}
	return apiErr
}

func printEvent(out io.Writer, event timer.Event) {
	switch event.Type {
	case timer.EventSessionComplete:
		fmt.Fprintf(out, "\r%s session complete, next: %s\n",
			event.Completion.CompletedMode, event.Completion.NextMode)
	default:
		printState(out, event.State)
	}
}

func printState(out io.Writer, state timer.State) {
	fmt.Fprintf(out, "\r%-10s %s  [%s] sessions: %d   ",
		state.CurrentMode, formatClock(state.TimeRemaining), state.Status(), state.SessionCount)
}
