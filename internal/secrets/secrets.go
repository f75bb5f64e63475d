// Package secrets loads webhook credentials from AWS Secrets Manager.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// Credentials is the webhook endpoint and the shared HMAC secret. The
// secret value is stored as a JSON document with url and secret fields.
type Credentials struct {
	URL    string `json:"url"`
	Secret string `json:"secret"`
}

// SecretsManagerAPI defines the Secrets Manager operations required to load
// credentials.
type SecretsManagerAPI interface {
	GetSecretValue(
		ctx context.Context,
		input *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Load fetches and parses webhook credentials. Callers load once at cold
// start; rotation takes effect on the next cold start.
func Load(ctx context.Context, client SecretsManagerAPI, secretARN string) (*Credentials, error) {
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretARN),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot get secret %q: %w", secretARN, err)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(aws.ToString(out.SecretString)), &creds); err != nil {
		return nil, fmt.Errorf("cannot parse secret %q: %w", secretARN, err)
	}

	if creds.URL == "" || creds.Secret == "" {
		return nil, fmt.Errorf("secret %q is missing url or secret", secretARN)
	}

	return &creds, nil
}
