package cmd

import (
	"fmt"
	"strconv"

	"github.com/mik25/your-series/internal/library"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(splitCmd)
}

var splitCmd = &cobra.Command{
	Use:   "split <file> <parts>",
	Short: "Split a library file into smaller part files",
	Long: `split divides the JSON array in <file> into <parts> files named
<file>_part1.json, <file>_part2.json and so on. Series are spread as evenly
as possible, with the earlier parts taking the remainder.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		parts, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("parts must be a number, got %q", args[1])
		}

		paths, err := library.Split(appFs, args[0], parts)
		if err != nil {
			return err
		}
		for _, path := range paths {
			cmd.Println(path)
		}
		return nil
	},
}
