// Package athena runs SQL against the play result table and returns
// name-addressable result sets.
package athena

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// API is the subset of the Athena SDK client used by this package.
type API interface {
	StatusAPI
	StartQueryExecution(ctx context.Context, in *awsathena.StartQueryExecutionInput, optFns ...func(*awsathena.Options)) (*awsathena.StartQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, in *awsathena.GetQueryResultsInput, optFns ...func(*awsathena.Options)) (*awsathena.GetQueryResultsOutput, error)
}

// Client runs a query to completion.
type Client interface {
	Query(ctx context.Context, sql string) (*ResultSet, error)
}

// Option configures the query client.
type Option func(*queryClient)

// WithWorkGroup runs queries in the given work group.
func WithWorkGroup(wg string) Option {
	return func(c *queryClient) {
		c.workGroup = wg
	}
}

// WithPollOptions sets how completion is awaited.
func WithPollOptions(opts ...PollOption) Option {
	return func(c *queryClient) {
		c.pollOpts = append(c.pollOpts, opts...)
	}
}

type queryClient struct {
	api            API
	outputLocation string
	workGroup      string
	pollOpts       []PollOption
}

// NewClient creates a query client that writes results under outputLocation
// (an s3:// URI).
func NewClient(api API, outputLocation string, opts ...Option) Client {
	c := &queryClient{api: api, outputLocation: outputLocation}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *queryClient) Query(ctx context.Context, sql string) (*ResultSet, error) {
	in := &awsathena.StartQueryExecutionInput{
		QueryString: aws.String(sql),
		ResultConfiguration: &types.ResultConfiguration{
			OutputLocation: aws.String(c.outputLocation),
		},
	}
	if c.workGroup != "" {
		in.WorkGroup = aws.String(c.workGroup)
	}

	started, err := c.api.StartQueryExecution(ctx, in)
	if err != nil {
		return nil, eris.Wrap(err, "athena: start query")
	}
	id := aws.ToString(started.QueryExecutionId)
	zap.L().Debug("athena: query started", zap.String("execution_id", id))

	if err := Await(ctx, c.api, id, c.pollOpts...); err != nil {
		return nil, err
	}
	return c.results(ctx, id)
}

// results reads every page of the execution's output. The first row of the
// first page repeats the column names and is dropped.
func (c *queryClient) results(ctx context.Context, id string) (*ResultSet, error) {
	var columns []Column
	var rows [][]*string

	p := awsathena.NewGetQueryResultsPaginator(c.api, &awsathena.GetQueryResultsInput{
		QueryExecutionId: aws.String(id),
	})
	first := true
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, eris.Wrapf(err, "athena: get results %s", id)
		}
		if page.ResultSet == nil {
			break
		}
		if columns == nil && page.ResultSet.ResultSetMetadata != nil {
			for _, ci := range page.ResultSet.ResultSetMetadata.ColumnInfo {
				columns = append(columns, Column{Name: aws.ToString(ci.Name), Type: aws.ToString(ci.Type)})
			}
		}
		for i, r := range page.ResultSet.Rows {
			if first && i == 0 {
				continue
			}
			values := make([]*string, len(r.Data))
			for j, d := range r.Data {
				values[j] = d.VarCharValue
			}
			rows = append(rows, values)
		}
		first = false
	}

	return NewResultSet(columns, rows), nil
}
