package services

import (
	"context"
	"fmt"

	"cloud.google.com/go/auth/credentials/idtoken"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/collegelover/college-lover-api/models"
)

// Identity is the verified subject of an external ID token.
type Identity struct {
	UID      string
	Email    string
	Name     string
	Picture  string
	Provider models.AuthProvider
}

type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

// FirebaseVerifier checks Firebase Authentication ID tokens.
type FirebaseVerifier struct {
	client *auth.Client
}

// NewFirebaseVerifier builds a verifier for projectID. credentialsJSON may be
// empty, in which case application default credentials are used.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsJSON string) (*FirebaseVerifier, error) {
	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	tok, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return &Identity{
		UID:      tok.UID,
		Email:    claimString(tok.Claims, "email"),
		Name:     claimString(tok.Claims, "name"),
		Picture:  claimString(tok.Claims, "picture"),
		Provider: providerFromSignIn(tok.Firebase.SignInProvider),
	}, nil
}

func providerFromSignIn(signIn string) models.AuthProvider {
	switch signIn {
	case "google.com":
		return models.ProviderGoogle
	case "apple.com":
		return models.ProviderApple
	default:
		return models.ProviderLocal
	}
}

// GoogleVerifier checks Google Sign-In ID tokens issued for one client id.
type GoogleVerifier struct {
	clientID string
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	payload, err := idtoken.Validate(ctx, idToken, v.clientID)
	if err != nil {
		return nil, err
	}
	return &Identity{
		UID:      payload.Subject,
		Email:    claimString(payload.Claims, "email"),
		Name:     claimString(payload.Claims, "name"),
		Picture:  claimString(payload.Claims, "picture"),
		Provider: models.ProviderGoogle,
	}, nil
}

// DisabledVerifier rejects every token. It stands in when no identity
// backend is configured.
type DisabledVerifier struct{}

func (DisabledVerifier) Verify(context.Context, string) (*Identity, error) {
	return nil, fmt.Errorf("social sign-in is not configured")
}

func claimString(claims map[string]interface{}, key string) string {
	s, _ := claims[key].(string)
	return s
}
