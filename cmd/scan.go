package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"imsizer/internal/imsize"
	"imsizer/internal/logger"
	"imsizer/internal/scan"
	"imsizer/internal/storage"
)

var (
	scanQuiet bool
	scanAll   bool
	scanStore bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [file-or-directory ...]",
	Short: "Report the sizes of the given images",
	Long: `Scan files and directories for images and report the dimensions and
uncompressed in-memory size of each, followed by collection totals.
Only the header part of each file is read from disk, so scanning large
photo collections is fast.

Example:
  imsizer scan ~/Pictures
  imsizer scan shot.nef sensor.raw --all`,
	Args: cobra.ArbitraryArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanQuiet, "quiet", false, "Do not show per-image information")
	scanCmd.Flags().BoolVar(&scanAll, "all", false, "Show all extracted per-image metadata")
	scanCmd.Flags().BoolVar(&scanStore, "store", false, "Persist the extracted records to the database")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	paths := args
	if len(paths) == 0 {
		paths = []string{"."} // scan current directory if no arguments
	}

	log := logger.New("scan")
	s := scan.New(scan.WithWorkers(workers), scan.WithLogger(log))
	infos, err := s.ScanPaths(paths)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("No images found.")
		return nil
	}

	var totalCompressed, totalUncompressed int64
	processed := 0
	for _, info := range infos {
		basename := filepath.Base(info.FileSpec)
		if info.Width == 0 {
			fmt.Printf("%s: unable to guess dimensions, maybe not an image? Skipping.\n", basename)
			continue
		}
		processed++
		totalCompressed += info.FileSize
		totalUncompressed += info.NBytes
		if !scanQuiet {
			fmt.Println(displayLine(info))
		}
		if scanAll {
			fmt.Println(info)
		}
	}
	fmt.Printf("Scanned %d images, total %s compressed, %s uncompressed\n",
		processed, humanize.IBytes(uint64(totalCompressed)), humanize.IBytes(uint64(totalUncompressed)))

	if scanStore {
		store, err := storage.New(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()
		if err := store.SaveImages(infos); err != nil {
			return fmt.Errorf("failed to save images: %w", err)
		}
		if err := store.RecordScan(strings.Join(paths, " "), processed, totalCompressed, totalUncompressed); err != nil {
			return fmt.Errorf("failed to record scan: %w", err)
		}
		fmt.Printf("Stored %d records in %s\n", len(infos), dbPath)
	}
	return nil
}

// displayLine renders the one-line per-image report. Width and height
// are swapped for display when the EXIF orientation calls for an odd
// number of 90-degree rotations.
func displayLine(info *imsize.ImageInfo) string {
	width, height := info.Width, info.Height
	if info.Rot90CCWSteps%2 == 1 {
		width, height = height, width
	}
	megs := float64(info.NBytes) / (1 << 20)
	mpix := float64(info.Width) * float64(info.Height) / 1e6
	est := ""
	if info.Uncertain {
		est = " [estimated]"
	}
	return fmt.Sprintf("%s: %d x %d x %d x %d bits => %.1f MB%s, %.1f MP",
		filepath.Base(info.FileSpec), width, height, info.NChan, info.BitDepth, megs, est, mpix)
}
