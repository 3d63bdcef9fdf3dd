package main

import (
	"fmt"
	"image/png"
	"os"
	"os/signal"
	"strconv"

	"fystack/internal/bulk"
	"fystack/internal/config"
	"fystack/internal/logging"
	"fystack/internal/pixel"
	"fystack/internal/service"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var (
	svc        *service.Service
	formatFlag string
	statsFlag  bool
	clearFlag  bool
)

// ServiceFunc builds the service for one command run.
type ServiceFunc func(flags *config.Flags, logger func(string)) (*service.Service, error)

// closeService closes the service opened by the last command, if any.
func closeService() {
	if svc != nil {
		svc.Close()
		svc = nil
	}
}

// NewRootCmd creates the root command for the CLI application.
// getService is responsible for initializing the service, which allows
// tests to point it at a temporary database.
func NewRootCmd(getService ServiceFunc) *cobra.Command {
	flags := config.NewFlags()
	flags.LogLevel = "warn"
	v := viper.New()

	var rootCmd = &cobra.Command{
		Use:           "fystack-cli",
		Short:         "fystack CLI - inspect and export TIFF stacks",
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.InitConfig(v, flags.CfgFile); err != nil {
				return err
			}
			settings, err := config.Load(v)
			if err != nil {
				return err
			}
			if !v.IsSet(config.KeyLogLevel) {
				settings.LogLevel = flags.LogLevel
			}
			logger, err := logging.New(settings.LogLevel)
			if err != nil {
				return err
			}
			svc, err = getService(settings, logging.Func(logger, "fystack-cli"))
			if err != nil {
				return fmt.Errorf("failed to initialize service: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeService()
		},
	}

	// Info command
	infoCmd := &cobra.Command{
		Use:   "info [file]",
		Short: "Show the frame count, shape and size of a stack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if formatFlag != "text" && formatFlag != "yaml" {
				return fmt.Errorf("unknown format %q (expected text or yaml)", formatFlag)
			}
			info, err := svc.Describe(args[0], statsFlag)
			if err != nil {
				return err
			}
			if formatFlag == "yaml" {
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(info); err != nil {
					return fmt.Errorf("failed to encode info: %w", err)
				}
				return enc.Close()
			}
			printInfo(cmd, info)
			return nil
		},
	}
	infoCmd.Flags().StringVarP(&formatFlag, "format", "f", "text", "Output format: text or yaml")
	infoCmd.Flags().BoolVar(&statsFlag, "stats", false, "Decode every frame and report min, max, mean and standard deviation")
	rootCmd.AddCommand(infoCmd)

	// Export command
	exportCmd := &cobra.Command{
		Use:   "export [file] [frame] [out.png]",
		Short: "Write one frame, contrast stretched, as a PNG",
		Long: `Write one frame of a stack as an 8-bit PNG. Frames are numbered from 1.
Samples are stretched so the darkest becomes black and the brightest white.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return fmt.Errorf("frame must be a positive number, got %q", args[1])
			}
			h, err := svc.OpenStack(args[0])
			if err != nil {
				return err
			}
			defer h.Close()

			f, err := h.ReadFrame(n - 1)
			if err != nil {
				return fmt.Errorf("frame %d: %w", n, err)
			}
			out, err := os.Create(args[2])
			if err != nil {
				return err
			}
			if err := png.Encode(out, pixel.ToDisplayBuffer(f)); err != nil {
				out.Close()
				return fmt.Errorf("failed to write %s: %w", args[2], err)
			}
			if err := out.Close(); err != nil {
				return err
			}
			cmd.Printf("Wrote frame %d/%d of %s to %s\n", n, h.FrameCount(), h.Path(), args[2])
			return nil
		},
	}
	rootCmd.AddCommand(exportCmd)

	// Load command
	loadCmd := &cobra.Command{
		Use:   "load [file]",
		Short: "Read every frame into memory and print the stack shape",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := svc.OpenStack(args[0])
			if err != nil {
				return err
			}
			defer h.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			arr, err := bulk.LoadAll(ctx, h, func(done, total int) {
				fmt.Fprintf(cmd.ErrOrStderr(), "\rLoading frame %d/%d", done, total)
				if done == total {
					fmt.Fprintln(cmd.ErrOrStderr())
				}
			})
			if bulk.IsCancelled(err) {
				fmt.Fprintln(cmd.ErrOrStderr(), "\nLoading cancelled.")
				return nil
			}
			if err != nil {
				return err
			}
			w, ht, n := arr.Shape()
			cmd.Printf("(%d, %d, %d)\n", w, ht, n)
			return nil
		},
	}
	rootCmd.AddCommand(loadCmd)

	// List stacks in a directory
	listCmd := &cobra.Command{
		Use:   "list [directory]",
		Short: "List TIFF stacks under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stacks, err := svc.ListStacks(args[0])
			if err != nil {
				return err
			}
			if len(stacks) == 0 {
				cmd.Println("No stacks found.")
				return nil
			}
			for _, s := range stacks {
				if s.Err != nil {
					cmd.Printf("%s  error: %v\n", s.Path, s.Err)
					continue
				}
				cmd.Printf("%s  %d frames  %dx%d\n", s.Path, s.Frames, s.Width, s.Height)
			}
			return nil
		},
	}
	rootCmd.AddCommand(listCmd)

	// Recent stacks
	recentCmd := &cobra.Command{
		Use:   "recent",
		Short: "List recently opened stacks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearFlag {
				svc.ClearRecent()
				cmd.Println("Recent stacks cleared.")
				return nil
			}
			paths := svc.RecentStacks()
			if len(paths) == 0 {
				cmd.Println("No recent stacks.")
				return nil
			}
			for _, p := range paths {
				cmd.Println(p)
			}
			return nil
		},
	}
	recentCmd.Flags().BoolVar(&clearFlag, "clear", false, "Forget all recent stacks")
	rootCmd.AddCommand(recentCmd)

	// Index cache maintenance
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clean the page index cache",
	}
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stacks with a cached page index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := svc.IndexedStacks()
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				cmd.Println("Index cache is empty.")
				return nil
			}
			for _, p := range paths {
				cmd.Println(p)
			}
			return nil
		},
	})
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clean",
		Short: "Remove cached indexes of missing or changed files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := svc.CleanIndexCache()
			if err != nil {
				return err
			}
			cmd.Printf("Removed %d stale index entries.\n", n)
			return nil
		},
	})
	rootCmd.AddCommand(cacheCmd)

	flags.RegisterCommon(rootCmd.PersistentFlags())
	cobra.CheckErr(config.Bind(v, rootCmd.PersistentFlags()))

	return rootCmd
}

func printInfo(cmd *cobra.Command, info *service.StackInfo) {
	cmd.Printf("Path:     %s\n", info.Path)
	cmd.Printf("Size:     %d bytes\n", info.Size)
	cmd.Printf("Modified: %s\n", info.ModTime.Format("2006-01-02 15:04:05"))
	cmd.Printf("Frames:   %d\n", info.Frames)
	cmd.Printf("Shape:    (%d, %d, %d)\n", info.Width, info.Height, info.Frames)
	cmd.Printf("Channels: %d\n", info.Channels)
	if len(info.Stats) == 0 {
		return
	}
	cmd.Printf("\n%6s %12s %12s %12s %12s\n", "Frame", "Min", "Max", "Mean", "StdDev")
	for _, s := range info.Stats {
		cmd.Printf("%6d %12.4g %12.4g %12.4g %12.4g\n", s.Index+1, s.Min, s.Max, s.Mean, s.StdDev)
	}
}

func main() {
	rootCmd := NewRootCmd(service.Setup)
	// cobra prints to stderr unless told otherwise.
	rootCmd.SetOut(os.Stdout)
	err := rootCmd.Execute()
	closeService()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
