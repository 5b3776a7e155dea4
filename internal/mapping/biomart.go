package mapping

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// biomartDataset describes where an organism's gene coordinates live in BioMart.
type biomartDataset struct {
	host      string
	dataset   string
	symbolAtt string
	human     bool
}

var biomartDatasets = map[string]biomartDataset{
	"hsa_hg19":   {host: "grch37.ensembl.org", dataset: "hsapiens_gene_ensembl", symbolAtt: "hgnc_symbol", human: true},
	"hsa_hg38":   {host: "www.ensembl.org", dataset: "hsapiens_gene_ensembl", symbolAtt: "hgnc_symbol", human: true},
	"mmu_mm10":   {host: "www.ensembl.org", dataset: "mmusculus_gene_ensembl", symbolAtt: "mgi_symbol"},
	"rno_rn6":    {host: "www.ensembl.org", dataset: "rnorvegicus_gene_ensembl", symbolAtt: "rgd_symbol"},
	"dme_dme3":   {host: "www.ensembl.org", dataset: "dmelanogaster_gene_ensembl", symbolAtt: "external_gene_name"},
	"cel_cel235": {host: "www.ensembl.org", dataset: "celegans_gene_ensembl", symbolAtt: "external_gene_name"},
	"sce_r6411":  {host: "www.ensembl.org", dataset: "scerevisiae_gene_ensembl", symbolAtt: "external_gene_name"},
}

// humanChromosomes restricts human exports to the primary assembly.
const humanChromosomes = "1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16,17,18,19,20,21,22,X,Y,MT"

// Organisms returns the organisms with a known BioMart dataset.
func Organisms() []string {
	orgs := make([]string, 0, len(biomartDatasets))
	for org := range biomartDatasets {
		orgs = append(orgs, org)
	}
	sort.Strings(orgs)
	return orgs
}

// BiomartURL returns the BioMart query URL exporting chromosome, start, end
// and gene symbol for organism.
func BiomartURL(organism string) (string, error) {
	ds, ok := biomartDatasets[organism]
	if !ok {
		return "", fmt.Errorf("no BioMart dataset for organism %q", organism)
	}

	var filters string
	if ds.human {
		filters = `<Filter name="chromosome_name" value="` + humanChromosomes + `"/>` +
			`<Filter name="with_hgnc" excluded="0"/>`
	}
	query := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<!DOCTYPE Query>` +
		`<Query virtualSchemaName="default" formatter="TSV" header="0" uniqueRows="0" count="" datasetConfigVersion="0.6">` +
		`<Dataset name="` + ds.dataset + `" interface="default">` +
		filters +
		`<Attribute name="chromosome_name"/>` +
		`<Attribute name="start_position"/>` +
		`<Attribute name="end_position"/>` +
		`<Attribute name="` + ds.symbolAtt + `"/>` +
		`</Dataset>` +
		`</Query>`

	return fmt.Sprintf("http://%s/biomart/martservice?query=%s", ds.host, url.QueryEscape(query)), nil
}

// DownloadMapping fetches the BioMart export for organism into
// <dir>/mappings/<organism>.tsv with a header row. An existing file is kept.
// Downloaded bytes are also written to progress when it is non-nil.
// Returns the destination path.
func DownloadMapping(ctx context.Context, organism, dir string, progress io.Writer) (string, error) {
	u, err := BiomartURL(organism)
	if err != nil {
		return "", err
	}

	destDir := filepath.Join(dir, "mappings")
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("create mapping directory: %w", err)
	}
	destPath := filepath.Join(destDir, organism+".tsv")
	if _, err := os.Stat(destPath); err == nil {
		return destPath, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	client := &http.Client{Timeout: 30 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %s", resp.Status)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	var body io.Reader = resp.Body
	if progress != nil {
		body = io.TeeReader(resp.Body, progress)
	}
	if err := writeBiomart(f, body); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("download failed: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename file: %w", err)
	}
	return destPath, nil
}

// writeBiomart copies a headerless BioMart TSV to w with a header row,
// dropping rows that lack a symbol.
func writeBiomart(w io.Writer, body io.Reader) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("chromosome_name\tstart_position\tend_position\thgnc_symbol\n"); err != nil {
		return err
	}

	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		fields := strings.Split(line, "\t")
		if len(fields) < 4 || fields[3] == "" {
			continue
		}
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return bw.Flush()
}
