// Package reports exports order reports to S3 as CSV and hands back a
// download URL. It satisfies the service's ReportSink seam.
package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/fundraiser-tracker/internal/domain"
	"github.com/ignite/fundraiser-tracker/internal/pkg/logger"
)

// S3Sink writes CSV order reports to an S3 bucket.
type S3Sink struct {
	client *s3.Client
	bucket string
	region string
	now    func() time.Time
}

// NewS3Sink creates a sink for the given bucket. An empty region falls
// back to the default credential chain's region.
func NewS3Sink(ctx context.Context, bucket, region string) (*S3Sink, error) {
	opts := []func(*config.LoadOptions) error{}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Sink{
		client: s3.NewFromConfig(awsCfg),
		bucket: bucket,
		region: awsCfg.Region,
		now:    time.Now,
	}, nil
}

// WriteOrderReport renders the orders as CSV, uploads the object, and
// returns its URL.
func (s *S3Sink) WriteOrderReport(ctx context.Context, profile domain.Profile, orders []domain.Order) (string, error) {
	body, err := renderCSV(orders)
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	key := fmt.Sprintf("reports/%s/orders-%s.csv", profile.ID, s.now().UTC().Format("20060102-150405"))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report: %w", err)
	}

	logger.Info("uploaded order report", "profile_id", profile.ID, "orders", len(orders), "key", key)
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

func renderCSV(orders []domain.Order) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"order_id", "campaign_id", "customer_name", "product_id", "quantity", "unit_price_cents", "total_cents", "created_at"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, o := range orders {
		for _, li := range o.LineItems {
			row := []string{
				o.ID,
				o.CampaignID,
				o.CustomerName,
				li.ProductID,
				strconv.Itoa(li.Quantity),
				strconv.FormatInt(li.UnitPriceCents, 10),
				strconv.FormatInt(o.TotalCents, 10),
				o.CreatedAt.UTC().Format(time.RFC3339),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
