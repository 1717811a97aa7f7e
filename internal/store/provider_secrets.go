package store

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/finance-dashboard/internal/errs"
)

// Secrets path
// projects/{project}/secrets/provider-key-{provider}/versions/latest

type providerSecretsStore struct {
	client    *secretmanager.Client
	projectID string
	prefix    string
}

func NewProviderSecretsStore(client *secretmanager.Client, projectID string) *providerSecretsStore {
	return &providerSecretsStore{
		client:    client,
		projectID: projectID,
		prefix:    "provider-key",
	}
}

func (s *providerSecretsStore) secretID(provider string) string {
	return fmt.Sprintf("%s-%s", s.prefix, provider)
}

func (s *providerSecretsStore) secretName(provider string) string {
	return fmt.Sprintf("projects/%s/secrets/%s", s.projectID, s.secretID(provider))
}

// GetProviderKey returns the latest credential for provider, or "" when no
// secret exists for it.
func (s *providerSecretsStore) GetProviderKey(ctx context.Context, provider string) (string, error) {
	res, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("%s/versions/latest", s.secretName(provider)),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", nil
		}
		transient := status.Code(err) == codes.Unavailable || status.Code(err) == codes.DeadlineExceeded
		return "", errs.NewExternalServiceError("secretmanager", "failed to read provider key "+provider, transient, err)
	}
	return strings.TrimSpace(string(res.Payload.Data)), nil
}

// ResolveProviderKeys fills in every provider whose key is empty in keys.
func (s *providerSecretsStore) ResolveProviderKeys(ctx context.Context, keys map[string]string, providers []string) (map[string]string, error) {
	out := make(map[string]string, len(providers))
	for k, v := range keys {
		out[k] = v
	}
	for _, p := range providers {
		if out[p] != "" {
			continue
		}
		key, err := s.GetProviderKey(ctx, p)
		if err != nil {
			return nil, err
		}
		out[p] = key
	}
	return out, nil
}
