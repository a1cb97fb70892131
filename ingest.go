package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/trip-planner/internal/app/domain/places"
	"github.com/FACorreiaa/trip-planner/internal/app/models"
	"github.com/FACorreiaa/trip-planner/internal/server"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "ingest <file.json>",
		Short: "Load a batch of place records into the catalog",
		Long: `Reads either {"places": [...]} or a bare JSON array of place records
and stores them in one transaction. Records whose place_id already exists are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: runIngest,
	})
}

func runIngest(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	records, err := decodePlaces(f)
	if err != nil {
		return errors.Wrapf(err, "read %s", args[0])
	}

	pool, err := server.OpenDatabase(cmd.Context(), cfg, lg, true)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := places.NewServiceImpl(places.NewRepository(pool, lg), lg, cfg.Places.SearchCacheTTL)
	n, err := svc.IngestPlaces(cmd.Context(), records)
	if err != nil {
		return err
	}
	total, err := svc.CountPlaces(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "submitted %d records, catalog now holds %d places\n", n, total)
	return nil
}

// decodePlaces accepts the HTTP ingest body or a bare array. Numbers are
// kept as json.Number so integer columns are not routed through float64.
func decodePlaces(r io.Reader) ([]models.PlaceRecord, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("empty input")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	if raw[0] == '[' {
		var records []models.PlaceRecord
		if err := dec.Decode(&records); err != nil {
			return nil, errors.Wrap(err, "decode array")
		}
		return records, nil
	}

	var req models.IngestPlacesRequest
	if err := dec.Decode(&req); err != nil {
		return nil, errors.Wrap(err, "decode object")
	}
	return req.Places, nil
}
