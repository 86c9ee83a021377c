package report

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/donorlogix/fleetplan/internal/model"
	"github.com/parquet-go/parquet-go"
)

// ParquetRouteStop is one served visit-node, the unit of the weekly route
// archive. Adapted from the teacher's ParquetPosition schema.
type ParquetRouteStop struct {
	RunAt        string  `parquet:"run_at"`
	DepotKey     string  `parquet:"depot_key"`
	Weekday      int32   `parquet:"weekday"`
	SiteID       int32   `parquet:"site_id"`
	DemandLbs    int32   `parquet:"demand_lbs"`
	CostCents    int64   `parquet:"cost_cents"`
	RevenueCents int64   `parquet:"revenue_cents"`
}

// getR2Client builds an S3-compatible client from R2_* env vars, matching
// the teacher's cron_archive.go constructor. Returns a nil client when R2
// is not configured, in which case archiving is silently skipped.
func getR2Client() (*s3.Client, string) {
	endpoint := os.Getenv("R2_ENDPOINT")
	accessKeyID := os.Getenv("R2_ACCESS_KEY_ID")
	secretAccessKey := os.Getenv("R2_SECRET_ACCESS_KEY")

	if endpoint == "" || accessKeyID == "" || secretAccessKey == "" {
		return nil, ""
	}

	bucket := os.Getenv("R2_BUCKET")
	if bucket == "" {
		bucket = "fleetplan-runs"
	}

	client := s3.New(s3.Options{
		BaseEndpoint: &endpoint,
		Region:       "auto",
		Credentials:  credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
	})

	return client, bucket
}

// ArchiveRun writes one run's served stops to Parquet and uploads it to
// routes/{isoyear}/{isoweek}.parquet, idempotently (skips if the object
// already exists), matching the teacher's runArchivePositions shape.
func ArchiveRun(ctx context.Context, runAt time.Time, weekly []model.WeeklySolution) error {
	r2, bucket := getR2Client()
	if r2 == nil {
		log.Println("[archive] R2 not configured — skipping archive")
		return nil
	}

	isoYear, isoWeek := runAt.ISOWeek()
	key := fmt.Sprintf("routes/%04d/%02d.parquet", isoYear, isoWeek)

	if _, err := r2.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &bucket, Key: &key}); err == nil {
		log.Printf("[archive] %s already exists — skipping", key)
		return nil
	}

	var rows []ParquetRouteStop
	for _, ws := range weekly {
		for weekday, day := range ws.Days {
			for _, r := range day.Routes {
				for _, stop := range r.Stops {
					rows = append(rows, ParquetRouteStop{
						RunAt:        runAt.Format(time.RFC3339),
						DepotKey:     ws.DepotKey,
						Weekday:      int32(weekday),
						SiteID:       int32(stop.SiteID),
						DemandLbs:    int32(stop.DemandLbs),
						CostCents:    r.CostCents,
						RevenueCents: r.RevenueCents,
					})
				}
			}
		}
	}

	if len(rows) == 0 {
		log.Printf("[archive] no served stops to archive for run %s", runAt.Format(time.RFC3339))
		return nil
	}

	var buf bytes.Buffer
	writer := parquet.NewGenericWriter[ParquetRouteStop](&buf)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}

	body := buf.Bytes()
	contentType := "application/vnd.apache.parquet"
	_, err := r2.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: &contentType,
		Metadata: map[string]string{
			"rows": fmt.Sprintf("%d", len(rows)),
		},
	})
	if err != nil {
		return fmt.Errorf("upload to R2: %w", err)
	}

	log.Printf("[archive] archived %d stops (%.2f MB) to %s", len(rows), float64(len(body))/1024/1024, key)
	return nil
}
