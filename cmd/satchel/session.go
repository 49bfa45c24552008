package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/satchel"
	"github.com/aretw0/satchel/internal/presentation/tui"
	"github.com/aretw0/satchel/pkg/adapters/file"
	"github.com/aretw0/satchel/pkg/codec"
	"github.com/aretw0/satchel/pkg/config"
	"github.com/spf13/cobra"
)

var errFileDriverOnly = errors.New("this command inspects the file backend only (use --driver file)")

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored sessions",
	Long:  `List, inspect, remove and garbage collect sessions saved by the file backend.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := fileConfig(cmd)
		if err != nil {
			return err
		}
		ids, err := file.List(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, tui.Faint("No sessions found in "+cfg.Dir()))
			return nil
		}
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the record of a session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := fileConfig(cmd)
		if err != nil {
			return err
		}
		record, err := file.Load(cmd.Context(), cfg, args[0], codec.JSON{})
		if err != nil {
			return fmt.Errorf("loading session '%s': %w", args[0], err)
		}

		data, err := tui.MarshalJSON(record, prettyOutput(cmd))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := fileConfig(cmd)
		if err != nil {
			return err
		}

		all, _ := cmd.Flags().GetBool("all")
		switch {
		case all && len(args) > 0:
			return errors.New("pass session ids or --all, not both")
		case all:
			if args, err = file.List(cmd.Context(), cfg); err != nil {
				return err
			}
		case len(args) == 0:
			return errors.New("requires at least 1 session id, or --all")
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, id := range args {
			if err := file.Delete(cmd.Context(), cfg, id); err != nil {
				fmt.Fprintln(out, tui.Failure(fmt.Sprintf("Error removing '%s': %v", id, err)))
				failed++
				continue
			}
			fmt.Fprintln(out, tui.Success(fmt.Sprintf("Removed session '%s'", id)))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d sessions could not be removed", failed, len(args))
		}
		return nil
	},
}

var sessionGCCmd = &cobra.Command{
	Use:   "gc",
	Short: "Remove expired sessions now",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}

		f, err := satchel.New(cfg, satchel.WithLogger(logger))
		if err != nil {
			return err
		}
		defer f.Close(cmd.Context())

		removed, err := f.GC(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.Success(fmt.Sprintf("Removed %d expired session(s)", removed)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionCmd.AddCommand(sessionGCCmd)

	sessionRmCmd.Flags().Bool("all", false, "Remove every stored session")
}

func fileConfig(cmd *cobra.Command) (config.File, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return config.File{}, err
	}
	if cfg.Driver != config.DriverFile {
		return config.File{}, errFileDriverOnly
	}
	return cfg.File, nil
}
