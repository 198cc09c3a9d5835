package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"imsizer/internal/storage"
)

var listHistory bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List previously stored image records",
	Long: `Display the image metadata records stored by 'imsizer scan --store',
or the history of past scan runs.

Example:
  imsizer list
  imsizer list --history`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listHistory, "history", false, "Show past scan runs instead of image records")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := storage.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	if listHistory {
		records, err := store.GetScanHistory()
		if err != nil {
			return fmt.Errorf("failed to get scan history: %w", err)
		}
		if len(records) == 0 {
			fmt.Println("No scans recorded. Run 'imsizer scan --store' first.")
			return nil
		}
		for _, rec := range records {
			fmt.Printf("%s  %s: %d images, %s compressed, %s uncompressed\n",
				rec.ScannedAt.Format("2006-01-02 15:04:05"), rec.Folder, rec.TotalImages,
				humanize.IBytes(uint64(rec.Compressed)), humanize.IBytes(uint64(rec.Uncompressed)))
		}
		return nil
	}

	infos, err := store.GetAllImages()
	if err != nil {
		return fmt.Errorf("failed to get images: %w", err)
	}
	if len(infos) == 0 {
		fmt.Println("No records found. Run 'imsizer scan --store' first.")
		return nil
	}
	var totalCompressed, totalUncompressed int64
	for _, info := range infos {
		totalCompressed += info.FileSize
		totalUncompressed += info.NBytes
		fmt.Println(displayLine(info))
	}
	fmt.Printf("%d records, total %s compressed, %s uncompressed\n",
		len(infos), humanize.IBytes(uint64(totalCompressed)), humanize.IBytes(uint64(totalUncompressed)))
	return nil
}
