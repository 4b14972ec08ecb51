package transfer

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/cpan115/pan115/internal/api"
)

// ObjectPutter pushes one local file to the object-storage destination named
// by a negotiated upload. It exists as an interface so orchestrator tests can
// stub the byte transfer.
type ObjectPutter interface {
	Put(ctx context.Context, token *api.UploadToken, init *api.InitData, localPath string, progress Progress) error
}

// ossPutter is the production ObjectPutter: a single-shot put against the
// S3-compatible endpoint from the token call, authenticated with the STS
// credential set. Multipart is out of scope; the scheduling endpoint only
// hands single-shot destinations to this client.
type ossPutter struct{}

func NewObjectPutter() ObjectPutter {
	return &ossPutter{}
}

func (p *ossPutter) Put(ctx context.Context, token *api.UploadToken, init *api.InitData, localPath string, progress Progress) error {
	client, err := newObjectClient(ctx, token)
	if err != nil {
		return err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("object put: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("object put: %w", err)
	}

	body := &progressReader{
		reader:    f,
		totalSize: info.Size(),
		callback:  progress,
	}

	// The service validates the transfer through the callback blob issued
	// at init time; it rides along as headers on the put.
	cb := base64.StdEncoding.EncodeToString([]byte(init.Callback.Callback))
	cbVar := base64.StdEncoding.EncodeToString([]byte(init.Callback.CallbackVar))

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(init.Bucket),
		Key:           aws.String(init.Object),
		Body:          body,
		ContentLength: aws.Int64(info.Size()),
	}, func(o *s3.Options) {
		o.APIOptions = append(o.APIOptions,
			smithyhttp.SetHeaderValue("x-oss-callback", cb),
			smithyhttp.SetHeaderValue("x-oss-callback-var", cbVar),
		)
	})
	if err != nil {
		return fmt.Errorf("object put %q: %w", init.Object, err)
	}

	return nil
}

func newObjectClient(ctx context.Context, token *api.UploadToken) (*s3.Client, error) {
	if token.Endpoint == "" {
		return nil, fmt.Errorf("object put: token has no endpoint")
	}

	region, err := regionFromEndpoint(token.Endpoint)
	if err != nil {
		return nil, err
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(token.AccessKeyID, token.AccessKeySecret, token.SecurityToken),
		),
		awsconfig.WithRegion(region),
		awsconfig.WithHTTPClient(&http.Client{Timeout: 10 * time.Minute}),
	)
	if err != nil {
		return nil, fmt.Errorf("object put: load config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(token.Endpoint)
		o.UsePathStyle = false
	})

	return client, nil
}

// regionFromEndpoint extracts the region from an endpoint host such as
// "https://oss-cn-shenzhen.example.com" -> "cn-shenzhen".
func regionFromEndpoint(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("object put: invalid endpoint %q: %w", endpoint, err)
	}
	host := u.Host
	if host == "" {
		host = u.Path // endpoint without scheme
	}

	label, _, _ := strings.Cut(host, ".")
	region := strings.TrimPrefix(label, "oss-")
	if region == "" {
		return "", fmt.Errorf("object put: cannot derive region from endpoint %q", endpoint)
	}
	return region, nil
}
