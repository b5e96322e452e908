// Package awsutil builds AWS sessions shared by the Kinesis, Comprehend and
// S3 clients.
package awsutil

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/credentials/ec2rolecreds"
	"github.com/aws/aws-sdk-go/aws/ec2metadata"
	"github.com/aws/aws-sdk-go/aws/session"
)

// ErrRegionRequired is returned when no region is configured.
var ErrRegionRequired = errors.New("aws region required")

// Config selects the region, endpoint and credentials of an AWS session.
type Config struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"` // Optional, for local emulators
	EC2Role  bool   `yaml:"ec2Role"`
	ID       string `yaml:"id"`
	Secret   string `yaml:"secret"`
	Token    string `yaml:"token"`
}

// Credentials returns the credential chain for c. Environment credentials
// always win; after that come the EC2 instance role or the static keys.
func (c Config) Credentials(sess *session.Session) *credentials.Credentials {
	providers := []credentials.Provider{&credentials.EnvProvider{}}
	if c.EC2Role {
		providers = append(providers, &ec2rolecreds.EC2RoleProvider{
			Client: ec2metadata.New(sess),
		})
	}
	if c.ID != "" {
		providers = append(providers, &credentials.StaticProvider{
			Value: credentials.Value{
				AccessKeyID:     c.ID,
				SecretAccessKey: c.Secret,
				SessionToken:    c.Token,
			},
		})
	}
	return credentials.NewChainCredentials(providers)
}

// NewSession creates a session and verifies that credentials resolve.
func NewSession(c Config) (*session.Session, error) {
	if c.Region == "" {
		return nil, ErrRegionRequired
	}
	base, err := session.NewSession()
	if err != nil {
		return nil, err
	}

	creds := c.Credentials(base)
	if _, err := creds.Get(); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}

	cfg := aws.NewConfig().
		WithRegion(c.Region).
		WithCredentials(creds).
		WithCredentialsChainVerboseErrors(true)
	if c.Endpoint != "" {
		cfg = cfg.WithEndpoint(c.Endpoint).WithS3ForcePathStyle(true)
	}
	return session.NewSession(cfg)
}
