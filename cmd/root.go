package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	dbPath  string
	workers int
)

var rootCmd = &cobra.Command{
	Use:   "imsizer",
	Short: "Report image dimensions and uncompressed sizes",
	Long: `imsizer displays the dimensions, bit depth, and uncompressed in-memory
size of images by parsing only their header bytes. It runs very fast
because pixel data is never read from disk (except for headerless
camera RAW and Nikon NEF, which have no usable header).

Supported file types:
  png pnm pgm ppm pfm bmp jpeg jpg insp tiff tif exr hdr dng cr2 nef raw npy

Example usage:
  imsizer scan ~/Pictures         # report every image under a directory
  imsizer scan photo.jpg --all    # dump all extracted metadata
  imsizer scan ~/Pictures --store # also persist records to the database
  imsizer list                    # show previously stored records`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	homeDir, _ := os.UserHomeDir()
	defaultDB := filepath.Join(homeDir, ".imsizer", "images.db")

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "Path to SQLite database")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 8, "Number of parallel workers for scanning")
}
