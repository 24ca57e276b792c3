package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldbus-io/modbus-coordinator/internal/config"
	"github.com/fieldbus-io/modbus-coordinator/internal/coordinator"
	coordmodbus "github.com/fieldbus-io/modbus-coordinator/internal/coordinator/modbus"
	"github.com/fieldbus-io/modbus-coordinator/internal/register"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the configured device and log each cycle",
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = runCmd.MarkFlagRequired("config")
}

type attachment struct {
	id   string
	regs []register.Register
}

func runRun(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)

	co := cfg.Coordinator

	// ---- transport ----
	transport, err := coordmodbus.New(coordmodbus.Config{
		Endpoint: co.Connection.Endpoint,
		UnitID:   co.Connection.UnitID,
		Timeout:  time.Duration(co.Connection.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return fmt.Errorf("transport connect failed: %w", err)
	}
	defer transport.Close()

	// ---- coordinator ----
	coord, err := coordinator.New(coordinator.Config{
		Interval:            time.Duration(co.Poll.IntervalMs) * time.Millisecond,
		MaxTransactionWords: co.Limits.MaxTransactionWords,
		MaxGap:              co.Limits.MaxGap,
		MaxRetries:          *co.Limits.MaxRetries,
		RetryBackoff:        time.Duration(co.Limits.RetryBackoffMs) * time.Millisecond,
		TransactionTimeout:  time.Duration(co.Connection.TimeoutMs) * time.Millisecond,
		MaxInFlight:         co.Limits.MaxInFlight,
	}, transport)
	if err != nil {
		return fmt.Errorf("coordinator build failed: %w", err)
	}

	// ---- consumers ----
	var attachments []attachment
	for _, cons := range co.Consumers {
		regs, err := cons.BuildRegisters()
		if err != nil {
			return err
		}
		if err := coord.Attach(cons.ID, regs); err != nil {
			return fmt.Errorf("attach %q failed: %w", cons.ID, err)
		}
		attachments = append(attachments, attachment{id: cons.ID, regs: regs})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	updates := coord.Subscribe("cli")
	go coord.Run(ctx)

	// First cycle right away instead of one interval in.
	coord.RequestRefresh()

	log.Printf("polling %s every %dms (%d consumers)",
		co.Connection.Endpoint, co.Poll.IntervalMs, len(attachments))

	for {
		select {
		case <-ctx.Done():
			log.Printf("shutting down")
			return nil

		case res := <-updates:
			st := coord.Stats()
			log.Printf("cycle %d: %d registers in %d batches, %d failed, %s",
				st.CyclesRun, res.Len(), st.LastBatchCount, st.LastFailedBatches,
				st.LastCycleDuration.Round(time.Millisecond))

			for _, a := range attachments {
				for _, r := range a.regs {
					value, state := res.Value(r)
					if state == coordinator.Ok {
						log.Printf("  %s %s = %v", a.id, r, value)
					} else {
						log.Printf("  %s %s: %s", a.id, r, state)
					}
				}
			}
		}
	}
}
