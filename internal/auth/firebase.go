// Package auth implements the two user-identity adapters SPEC_FULL.md
// §4.9 asks for: bearer-token verification against Firebase, and the
// reserved-username check every new UserId is run through. Both are
// direct ports of original_source/api/infrastructure/src/external's
// firebase.rs and adapters/infrastructure/src/external's
// reserved_uids_reader.rs.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/team-azb/route-bucket-backend-sub000/internal/apperr"
	"github.com/team-azb/route-bucket-backend-sub000/internal/model"
)

const (
	identityToolkitScope  = "https://www.googleapis.com/auth/identitytoolkit"
	identityToolkitLookup = "https://identitytoolkit.googleapis.com/v1/accounts:lookup"
	accessTokenLifetime   = time.Hour
)

// serviceAccountCredential is the subset of a Firebase/GCP service-account
// JSON key this adapter needs to self-sign an OAuth assertion.
type serviceAccountCredential struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// FirebaseAuthApi implements usecase.UserAuthApi by resolving a bearer
// token through Firebase's accounts:lookup REST endpoint, authenticating
// itself with a service-account-signed JWT assertion.
type FirebaseAuthApi struct {
	credential serviceAccountCredential
	httpClient *http.Client
	lookupURL  string

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// NewFirebaseAuthApi loads the service-account credential at
// credentialPath. The access token is fetched lazily on first use.
func NewFirebaseAuthApi(credentialPath string) (*FirebaseAuthApi, error) {
	data, err := os.ReadFile(credentialPath)
	if err != nil {
		return nil, apperr.Wrap(apperr.External, "failed to read firebase credential file", err)
	}
	var cred serviceAccountCredential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, apperr.Wrap(apperr.External, "failed to parse firebase credential file", err)
	}
	return &FirebaseAuthApi{credential: cred, httpClient: http.DefaultClient, lookupURL: identityToolkitLookup}, nil
}

// ensureAccessToken refreshes the OAuth access token used to call
// accounts:lookup, if it's missing or within a minute of expiry.
func (a *FirebaseAuthApi) ensureAccessToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.accessToken != "" && time.Now().Add(time.Minute).Before(a.expiresAt) {
		return a.accessToken, nil
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(a.credential.PrivateKey))
	if err != nil {
		return "", apperr.Wrap(apperr.External, "failed to parse firebase service-account key", err)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"aud":   a.credential.TokenURI,
		"iss":   a.credential.ClientEmail,
		"iat":   now.Unix(),
		"exp":   now.Add(accessTokenLifetime).Unix(),
		"scope": identityToolkitScope,
	}
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", apperr.Wrap(apperr.External, "failed to sign firebase service-account jwt", err)
	}

	body, _ := json.Marshal(map[string]string{
		"grant_type": "urn:ietf:params:oauth:grant-type:jwt-bearer",
		"assertion":  assertion,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.credential.TokenURI, bytes.NewReader(body))
	if err != nil {
		return "", apperr.Wrap(apperr.External, "failed to build firebase token request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.External, "failed to request firebase access token", err)
	}
	defer resp.Body.Close()

	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil || parsed.AccessToken == "" {
		return "", apperr.New(apperr.External, "firebase token response had no access_token")
	}

	a.accessToken = parsed.AccessToken
	a.expiresAt = now.Add(time.Duration(parsed.ExpiresIn) * time.Second)
	return a.accessToken, nil
}

// Authenticate resolves an ID token to the UserId Firebase has on file for
// it, failing with Authentication if the token is missing or invalid.
func (a *FirebaseAuthApi) Authenticate(ctx context.Context, token string) (model.UserId, error) {
	accessToken, err := a.ensureAccessToken(ctx)
	if err != nil {
		return "", err
	}

	body, _ := json.Marshal(map[string]string{"idToken": token})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.lookupURL, bytes.NewReader(body))
	if err != nil {
		return "", apperr.Wrap(apperr.External, "failed to build accounts:lookup request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", accessToken))

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.External, "failed to call accounts:lookup", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperr.New(apperr.Authentication, "invalid or expired bearer token")
	}

	var parsed struct {
		Users []struct {
			LocalID string `json:"localId"`
		} `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil || len(parsed.Users) == 0 {
		return "", apperr.New(apperr.Authentication, "accounts:lookup returned no matching user")
	}

	return model.UserId(parsed.Users[0].LocalID), nil
}
