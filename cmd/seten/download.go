package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gungorbudak/seten-cli/internal/mapping"
)

func organisms() []string {
	return mapping.Organisms()
}

func newDownloadCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download coordinate mappings from Ensembl BioMart",
		Long: `Download the chromosome, start, end and gene symbol table of an organism
from Ensembl BioMart into <resources>/mappings/<organism>.tsv.
Existing files are kept.`,
		Example: `  seten download --organism hsa_hg19
  seten download --all --resources /data/seten`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orgs := []string{viper.GetString("download-organism")}
			if all {
				orgs = organisms()
			}
			return runDownload(cmd, orgs, viper.GetString("resources"))
		},
	}

	cmd.Flags().String("organism", "hsa_hg19", "organism to download")
	cmd.Flags().BoolVar(&all, "all", false, "download every supported organism")
	viper.BindPFlag("download-organism", cmd.Flags().Lookup("organism"))
	return cmd
}

func runDownload(cmd *cobra.Command, orgs []string, dir string) error {
	out := cmd.OutOrStdout()
	known := make(map[string]bool)
	for _, o := range organisms() {
		known[o] = true
	}
	for _, org := range orgs {
		if !known[org] {
			return usagef("unknown organism %q", org)
		}
	}

	fmt.Fprintf(out, "Destination: %s\n\n", filepath.Join(dir, "mappings"))
	for _, org := range orgs {
		dest := filepath.Join(dir, "mappings", org+".tsv")
		if info, err := os.Stat(dest); err == nil {
			fmt.Fprintf(out, "  %s already exists (%s), skipping\n", filepath.Base(dest), formatSize(info.Size()))
			continue
		}

		fmt.Fprintf(out, "  Downloading %s...\n", org)
		var downloaded int64
		pw := &progressWriter{out: out, downloaded: &downloaded, lastPrint: time.Now()}
		path, err := mapping.DownloadMapping(cmd.Context(), org, dir, pw)
		if err != nil {
			return fmt.Errorf("download %s: %w", org, err)
		}
		fmt.Fprintf(out, "\n    Done: %s -> %s\n", formatSize(downloaded), path)
	}

	fmt.Fprintf(out, "\nDownload complete!\n")
	return nil
}

// progressWriter prints the downloaded byte count about once a second.
// BioMart streams its exports without a content length.
type progressWriter struct {
	out        io.Writer
	downloaded *int64
	lastPrint  time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	*pw.downloaded += int64(n)

	if time.Since(pw.lastPrint) > time.Second {
		fmt.Fprintf(pw.out, "\r    Progress: %s  ", formatSize(*pw.downloaded))
		pw.lastPrint = time.Now()
	}
	return n, nil
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
