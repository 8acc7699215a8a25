package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/rs/zerolog/log"

	"github.com/sashvara/storefront_api/internal/config"
	"github.com/sashvara/storefront_api/internal/utils"
)

// ModerationAPI is the Rekognition call the screener uses.
type ModerationAPI interface {
	DetectModerationLabels(ctx context.Context, params *rekognition.DetectModerationLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectModerationLabelsOutput, error)
}

// ImageModerator screens uploads with AWS Rekognition moderation labels.
type ImageModerator struct {
	client        ModerationAPI
	minConfidence float32
}

// NewRekognitionClient builds a Rekognition client for the moderation region.
func NewRekognitionClient(ctx context.Context, cfg *config.ModerationConfig) (*rekognition.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return rekognition.NewFromConfig(awsCfg), nil
}

// NewImageModerator creates an ImageModerator.
func NewImageModerator(client ModerationAPI, minConfidence float64) *ImageModerator {
	return &ImageModerator{client: client, minConfidence: float32(minConfidence)}
}

// Screen rejects data when Rekognition reports any moderation label at or
// above the configured confidence.
func (m *ImageModerator) Screen(ctx context.Context, data []byte) error {
	out, err := m.client.DetectModerationLabels(ctx, &rekognition.DetectModerationLabelsInput{
		Image:         &types.Image{Bytes: data},
		MinConfidence: aws.Float32(m.minConfidence),
	})
	if err != nil {
		log.Error().Err(err).Msg("rekognition DetectModerationLabels failed")
		return utils.UpstreamError("Failed to screen image", err)
	}

	var flagged []string
	for _, l := range out.ModerationLabels {
		if l.Confidence != nil && *l.Confidence >= m.minConfidence {
			flagged = append(flagged, aws.ToString(l.Name))
		}
	}
	if len(flagged) > 0 {
		log.Warn().Strs("labels", flagged).Msg("upload rejected by moderation")
		return utils.ValidationError("Image rejected: %s", strings.Join(flagged, ", "))
	}
	return nil
}
