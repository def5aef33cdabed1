package credential

import (
	"context"
	"time"

	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/token"
)

// HostConfig is one (URL, feature) endpoint advertisement (spec.md §3
// "Endpoint" host configs).
type HostConfig struct {
	Feature cmn.HostFeature
	URL     string
	TLS     bool
	Primary bool
}

// Endpoint is the subset of endpoint metadata the exchange flow needs.
type Endpoint struct {
	ID    cmn.ID
	Hosts []HostConfig
}

func (e Endpoint) primary(feature cmn.HostFeature) (HostConfig, bool) {
	for _, h := range e.Hosts {
		if h.Feature == feature && h.Primary {
			return h, true
		}
	}
	return HostConfig{}, false
}

// Credentials is an issued S3 access-key pair.
type Credentials struct {
	AccessKey string
	SecretKey string
}

// CredentialService is the remote endpoint's credential RPC surface
// (spec.md §6 "Data-proxy user service"): GetCredentials and
// CreateOrUpdateCredentials.
type CredentialService interface {
	GetCredentials(ctx context.Context, token string, userID cmn.ID) (Credentials, error)
	CreateOrUpdateCredentials(ctx context.Context, token string, userID cmn.ID) (Credentials, error)
}

// Result is what get_or_create_credentials returns (spec.md §4.I).
type Result struct {
	HostURL     string
	S3URL       string
	SSL         bool
	Credentials Credentials
}

// ExchangeTTL is how long the CreateSecrets token minted for this flow
// lives, chosen short since it's used once against a single endpoint
// call.
const ExchangeTTL = 5 * time.Minute

// GetOrCreateCredentials implements spec.md §4.I's algorithm: mint an
// intent token targeting endpoint, resolve its primary S3 and gRPC
// hosts, call its credential service, and on an Unauthenticated reply
// with allowCreate set, retry through CreateOrUpdateCredentials.
func GetOrCreateCredentials(ctx context.Context, signer *token.Signer, svc CredentialService, user cmn.ID, endpoint Endpoint, allowCreate bool) (Result, error) {
	s3Host, ok := endpoint.primary(cmn.FeatureS3)
	if !ok {
		return Result{}, cmn.NewError(cmn.KindInternal, "endpoint has no primary S3 host config")
	}
	grpcHost, ok := endpoint.primary(cmn.FeatureGRPC)
	if !ok {
		return Result{}, cmn.NewError(cmn.KindInternal, "endpoint has no primary gRPC host config")
	}

	tok, err := signer.SignCreateSecrets(user, endpoint.ID, ExchangeTTL)
	if err != nil {
		return Result{}, err
	}

	creds, err := svc.GetCredentials(ctx, tok, user)
	if err != nil {
		if allowCreate && cmn.IsKind(err, cmn.KindUnauthenticated) {
			creds, err = svc.CreateOrUpdateCredentials(ctx, tok, user)
			if err != nil {
				return Result{}, err
			}
		} else {
			return Result{}, err
		}
	}

	return Result{
		HostURL:     grpcHost.URL,
		S3URL:       s3Host.URL,
		SSL:         s3Host.TLS,
		Credentials: creds,
	}, nil
}
