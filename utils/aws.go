package utils

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
)

var (
	sesClient *ses.Client
	snsClient *awssns.Client
	s3Client  *s3.Client
	rekClient *rekognition.Client
)

// InitAWS loads the shared AWS config once and builds every client the
// app uses. Must be called at startup before any accessor.
func InitAWS() {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "ap-south-1"
	}
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(region))
	if err != nil {
		log.Fatalf("AWS config load failed: %v", err)
	}
	sesClient = ses.NewFromConfig(cfg)
	snsClient = awssns.NewFromConfig(cfg)
	s3Client = s3.NewFromConfig(cfg)
	rekClient = rekognition.NewFromConfig(cfg)
}

func SNSClient() *awssns.Client { return snsClient }

func RekClient() *rekognition.Client { return rekClient }
