package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/youzoom64/RTMP-streamer/pkg/assets"
	"github.com/youzoom64/RTMP-streamer/pkg/cli"
)

var indexCmd = &cobra.Command{
	Use:   "index [key-substring]",
	Short: "Inspect the asset index",
	Long: `Build the asset index of the profile's character and print a summary.

With --keys, every normalized key is listed with the files registered
under it. An optional argument filters the keys by substring.

Example:
  streamer index
  streamer index --keys 目`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

type indexKey struct {
	Key   string   `json:"key" yaml:"key"`
	Files []string `json:"files" yaml:"files"`
}

type indexSummary struct {
	Root        string     `json:"root" yaml:"root"`
	Files       int        `json:"files" yaml:"files"`
	Keys        int        `json:"keys" yaml:"keys"`
	Size        int64      `json:"size" yaml:"size"`
	Fingerprint string     `json:"fingerprint" yaml:"fingerprint"`
	Entries     []indexKey `json:"entries,omitempty" yaml:"entries,omitempty"`
}

func runIndex(cmd *cobra.Command, args []string) error {
	ac, err := getAnimatorConfig()
	if err != nil {
		return err
	}
	ext, _ := cmd.Flags().GetString("ext")
	if ext != "" {
		ac.ImageExt = ext
	}
	ch, err := loadCharacter(ac)
	if err != nil {
		return err
	}
	idx := ch.idx

	sum := indexSummary{
		Root:        idx.Root(),
		Files:       idx.Files(),
		Keys:        idx.Len(),
		Fingerprint: idx.Fingerprint(),
	}
	idx.RangePaths(func(rel string) bool {
		if info, err := os.Stat(idx.Abs(rel)); err == nil {
			sum.Size += info.Size()
		}
		return true
	})

	listKeys, _ := cmd.Flags().GetBool("keys")
	if listKeys || len(args) > 0 {
		filter := ""
		if len(args) > 0 {
			filter = assets.Normalize(args[0])
		}
		idx.Range(func(key string, rels []string) bool {
			if filter == "" || strings.Contains(key, filter) {
				sum.Entries = append(sum.Entries, indexKey{Key: key, Files: rels})
			}
			return true
		})
	}

	if outputJSON || outputFile != "" {
		return outputResult(sum)
	}

	fmt.Println(cli.Panel{
		Styles: cli.DefaultStyles,
		Title:  "asset index",
		Rows: []cli.Row{
			{Label: "root", Value: sum.Root},
			{Label: "files", Value: cli.FormatCount(int64(sum.Files))},
			{Label: "keys", Value: cli.FormatCount(int64(sum.Keys))},
			{Label: "size", Value: cli.FormatBytes(sum.Size)},
			{Label: "fingerprint", Value: sum.Fingerprint},
		},
	}.Render(72))
	for _, e := range sum.Entries {
		fmt.Printf("%s\n", e.Key)
		for _, f := range e.Files {
			fmt.Printf("  %s\n", f)
		}
	}
	return nil
}

func init() {
	indexCmd.Flags().Bool("keys", false, "list every key with its files")
	indexCmd.Flags().String("ext", "", "layer file extension (default .png)")
}
