package main

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	athenasdk "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/timelocker/tracker/internal/armament"
	"github.com/timelocker/tracker/internal/notify"
	"github.com/timelocker/tracker/internal/ocr"
	"github.com/timelocker/tracker/internal/pipeline"
	"github.com/timelocker/tracker/internal/report"
	"github.com/timelocker/tracker/internal/store"
	"github.com/timelocker/tracker/pkg/athena"
	"github.com/timelocker/tracker/pkg/blob"
	"github.com/timelocker/tracker/pkg/notion"
)

// appEnv holds the clients shared by the commands. Fields a command does
// not need are nil.
type appEnv struct {
	AWS       aws.Config
	Store     store.Store
	Blobs     blob.Store
	Notes     notion.Client
	Analyzer  *pipeline.Analyzer
	Processor *pipeline.NoteProcessor
	Reports   *report.Service
	Notifier  notify.Notifier
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWS.Region),
	}
	if cfg.AWS.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, "",
		)))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, eris.Wrap(err, "load aws config")
	}
	return awsCfg, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "tracker.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func initBlobs(awsCfg aws.Config) blob.Store {
	return blob.NewS3(blob.NewS3Client(awsCfg, cfg.Storage.Endpoint), cfg.Storage.Bucket)
}

func initAnalyzer(awsCfg aws.Config) (*pipeline.Analyzer, error) {
	var rek ocr.RekognitionAPI
	if cfg.OCR.Provider == "rekognition" || cfg.OCR.Provider == "" {
		rek = rekognition.NewFromConfig(awsCfg)
	}
	text, err := ocr.NewDetector(cfg.OCR, rek)
	if err != nil {
		return nil, err
	}
	arms := armament.NewLambda(lambda.NewFromConfig(awsCfg), cfg.Armament.FunctionName)
	return pipeline.NewAnalyzer(cfg.Analysis, text, arms), nil
}

func initReports(awsCfg aws.Config) *report.Service {
	opts := []athena.Option{
		athena.WithPollOptions(
			athena.WithMaxAttempts(cfg.Query.MaxAttempts),
			athena.WithDelay(time.Duration(cfg.Query.PollDelayMs)*time.Millisecond),
		),
	}
	if cfg.Query.WorkGroup != "" {
		opts = append(opts, athena.WithWorkGroup(cfg.Query.WorkGroup))
	}
	q := athena.NewClient(athenasdk.NewFromConfig(awsCfg), cfg.Query.OutputLocation, opts...)
	return report.NewService(q, report.Config{
		Database:      cfg.Query.Database,
		Table:         cfg.TableName(),
		StaticBaseURL: cfg.Server.StaticBaseURL,
	}, nil)
}

func initNotifier(awsCfg aws.Config) notify.Notifier {
	var ses notify.SESAPI
	if cfg.Notify.EmailFrom != "" {
		sesCfg := awsCfg.Copy()
		if cfg.Notify.EmailRegion != "" {
			sesCfg.Region = cfg.Notify.EmailRegion
		}
		ses = sesv2.NewFromConfig(sesCfg)
	}
	return notify.New(cfg.Notify, ses)
}

// initApp validates config for mode and builds the environment that mode
// needs. Callers should defer env.Close().
func initApp(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	awsCfg, err := loadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	env := &appEnv{AWS: awsCfg}

	if mode == "analyze" {
		env.Analyzer, err = initAnalyzer(awsCfg)
		return env, err
	}

	env.Blobs = initBlobs(awsCfg)
	if mode == "backfill" {
		return env, nil
	}

	env.Store, err = initStore(ctx)
	if err != nil {
		return nil, err
	}
	env.Analyzer, err = initAnalyzer(awsCfg)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Notes = notion.NewClient(cfg.Notion.Token, notion.WithRateLimit(cfg.Notion.RateLimit))
	env.Processor = pipeline.NewNoteProcessor(
		env.Notes,
		notion.NewDownloader(&http.Client{Timeout: 60 * time.Second}),
		env.Analyzer,
		env.Blobs,
		pipeline.WithLedger(env.Store),
		pipeline.WithConcurrency(cfg.Pipeline.MaxConcurrentImages),
	)

	if mode == "serve" {
		env.Reports = initReports(awsCfg)
		env.Notifier = initNotifier(awsCfg)
	}

	zap.L().Debug("app initialized",
		zap.String("mode", mode),
		zap.String("store", cfg.Store.Driver),
		zap.String("ocr", cfg.OCR.Provider),
	)
	return env, nil
}
