package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/youzoom64/RTMP-streamer/pkg/animator"
	"github.com/youzoom64/RTMP-streamer/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration and profiles.

A profile names a character (its asset root) together with the output
directory, frame rate and stream mode used to render it.

Configuration is stored in ~/.rtmp-streamer/streamer/config.yaml`,
}

var configAddProfileCmd = &cobra.Command{
	Use:   "add-profile <name>",
	Short: "Add or replace a profile",
	Long: `Add a profile with the specified name. The first profile becomes the
current one.

Example:
  streamer config add-profile zunda --assets ./zundamon
  streamer config add-profile stage --assets ./zundamon --out-dir /tmp/frames --fps 24 --mode layered`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if assetRoot == "" {
			return fmt.Errorf("--assets is required")
		}
		flags := cmd.Flags()
		fps, _ := flags.GetInt("fps")
		seed, _ := flags.GetDuration("seed")
		window, _ := flags.GetInt("window")
		positionMap, _ := flags.GetString("position-map")
		cacheDir, _ := flags.GetString("cache-dir")
		modeName, _ := flags.GetString("mode")
		mode, err := animator.ParseMode(modeName)
		if err != nil {
			return err
		}

		// Profile paths are relative to the config directory; flags are
		// relative to the working directory.
		for _, path := range []*string{&assetRoot, &outputDir, &positionMap, &cacheDir} {
			if *path == "" {
				continue
			}
			if *path, err = filepath.Abs(*path); err != nil {
				return err
			}
		}

		p := &cli.Profile{Config: animator.Config{
			AssetRoot:    assetRoot,
			OutputDir:    outputDir,
			PositionMap:  positionMap,
			CacheDir:     cacheDir,
			FPS:          fps,
			SeedDuration: seed,
			WindowSize:   window,
			Mode:         mode,
		}}
		if err := getConfig().AddProfile(args[0], p); err != nil {
			return err
		}
		cli.PrintSuccess("Profile %q added", args[0])
		return nil
	},
}

var configDeleteProfileCmd = &cobra.Command{
	Use:   "delete-profile <name>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := getConfig().DeleteProfile(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Profile %q deleted", args[0])
		return nil
	},
}

var configUseProfileCmd = &cobra.Command{
	Use:   "use-profile <name>",
	Short: "Set the current profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := getConfig().UseProfile(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Switched to profile %q", args[0])
		return nil
	},
}

var configGetProfileCmd = &cobra.Command{
	Use:   "get-profile",
	Short: "Display the current profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		if cfg.CurrentProfile == "" {
			fmt.Println("No current profile set")
			return nil
		}
		fmt.Println(cfg.CurrentProfile)
		return nil
	},
}

var configListProfilesCmd = &cobra.Command{
	Use:     "list-profiles",
	Aliases: []string{"get-profiles"},
	Short:   "List all profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		if len(cfg.Profiles) == 0 {
			fmt.Println("No profiles configured")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tASSETS\tMODE\tFPS")
		for _, name := range cfg.ListProfiles() {
			p := cfg.Profiles[name]
			current := ""
			if name == cfg.CurrentProfile {
				current = "*"
			}
			fps := p.FPS
			if fps == 0 {
				fps = animator.DefaultFPS
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", current, name, p.AssetRoot, p.Mode, fps)
		}
		return w.Flush()
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "View the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		printVerbose("config file: %s", cfg.Path())
		return outputResult(cfg)
	},
}

func init() {
	f := configAddProfileCmd.Flags()
	f.Int("fps", 0, "frame rate (default 30)")
	f.Duration("seed", 0, "seed duration (default 2s)")
	f.Int("window", 0, "slot window of layered sub-streams (default 60)")
	f.String("mode", "full", "stream mode: full or layered")
	f.String("position-map", "", "position map JSON file")
	f.String("cache-dir", "", "persistent encoded-frame cache directory")

	configCmd.AddCommand(configAddProfileCmd)
	configCmd.AddCommand(configDeleteProfileCmd)
	configCmd.AddCommand(configUseProfileCmd)
	configCmd.AddCommand(configGetProfileCmd)
	configCmd.AddCommand(configListProfilesCmd)
	configCmd.AddCommand(configViewCmd)
}
