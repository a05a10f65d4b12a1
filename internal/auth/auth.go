package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/adventcavalier/google-photos-upload/internal/config"
)

// clientSecretsFile is the OAuth client registration downloaded from the
// Google Cloud console ("installed app" format).
const clientSecretsFile = "client_id.json"

// Error marks a failure to load, save, or interactively obtain
// credentials. It is fatal to the whole run.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Credentials is the on-disk token record. The field set and the
// indented-JSON encoding are kept compatible with token files written by
// earlier versions of this tool, so they stay human-inspectable and
// interchangeable.
type Credentials struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token"`
	IDToken      string   `json:"id_token"`
	Scopes       []string `json:"scopes"`
	TokenURI     string   `json:"token_uri"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
}

type clientSecrets struct {
	Installed struct {
		ClientID     string   `json:"client_id"`
		ClientSecret string   `json:"client_secret"`
		AuthURI      string   `json:"auth_uri"`
		TokenURI     string   `json:"token_uri"`
		RedirectURIs []string `json:"redirect_uris"`
	} `json:"installed"`
}

// Session returns an authenticated HTTP client for the Photos Library
// API. If authFile holds usable credentials they are reused; otherwise
// the interactive browser flow runs, listening for the OAuth callback on
// settings.AuthHost:settings.AuthPort. Obtained credentials are written
// back to authFile when one was given.
func Session(ctx context.Context, settings config.Settings, authFile string, logger *slog.Logger) (*http.Client, error) {
	conf, err := oauthConfig(settings)
	if err != nil {
		return nil, &Error{Err: err}
	}

	var token *oauth2.Token
	if authFile != "" {
		creds, err := LoadCredentials(authFile)
		if err != nil {
			logger.Debug("Could not load auth tokens",
				slog.String("auth_file", authFile),
				slog.String("error", err.Error()))
		} else {
			token = creds.token()
		}
	}

	if token == nil {
		token, err = tokenFromWeb(ctx, conf, settings)
		if err != nil {
			return nil, &Error{Err: err}
		}
	}

	if authFile != "" {
		creds := credentialsFromToken(token, conf)
		if err := SaveCredentials(authFile, creds); err != nil {
			logger.Debug("Could not save auth tokens",
				slog.String("auth_file", authFile),
				slog.String("error", err.Error()))
		}
	}

	return conf.Client(ctx, token), nil
}

func oauthConfig(settings config.Settings) (*oauth2.Config, error) {
	f, err := os.Open(clientSecretsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open client secrets file %s: %w", clientSecretsFile, err)
	}
	defer f.Close()

	var secrets clientSecrets
	if err := json.NewDecoder(f).Decode(&secrets); err != nil {
		return nil, fmt.Errorf("failed to decode client secrets file %s: %w", clientSecretsFile, err)
	}
	if secrets.Installed.ClientID == "" || secrets.Installed.ClientSecret == "" {
		return nil, fmt.Errorf("client secrets file %s is missing client_id or client_secret", clientSecretsFile)
	}

	return &oauth2.Config{
		ClientID:     secrets.Installed.ClientID,
		ClientSecret: secrets.Installed.ClientSecret,
		RedirectURL:  fmt.Sprintf("http://%s:%d/", settings.AuthHost, settings.AuthPort),
		Scopes:       config.Scopes,
		Endpoint:     google.Endpoint,
	}, nil
}

// LoadCredentials reads a stored token record from path.
func LoadCredentials(path string) (*Credentials, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	creds := &Credentials{}
	if err := json.NewDecoder(f).Decode(creds); err != nil {
		return nil, fmt.Errorf("failed to decode credentials file %s: %w", path, err)
	}
	if creds.Token == "" && creds.RefreshToken == "" {
		return nil, fmt.Errorf("credentials file %s holds no tokens", path)
	}
	return creds, nil
}

// SaveCredentials writes creds to path as indented JSON.
func SaveCredentials(path string, creds *Credentials) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to write credentials file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	return enc.Encode(creds)
}

// token converts the stored record into an oauth2 token. The record
// carries no expiry, so when a refresh token is present the access token
// is marked stale to force a refresh on first use.
func (c *Credentials) token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  c.Token,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
	}
	if c.RefreshToken != "" {
		tok.Expiry = time.Now().Add(-time.Minute)
	}
	return tok
}

func credentialsFromToken(token *oauth2.Token, conf *oauth2.Config) *Credentials {
	idToken, _ := token.Extra("id_token").(string)
	return &Credentials{
		Token:        token.AccessToken,
		RefreshToken: token.RefreshToken,
		IDToken:      idToken,
		Scopes:       conf.Scopes,
		TokenURI:     conf.Endpoint.TokenURL,
		ClientID:     conf.ClientID,
		ClientSecret: conf.ClientSecret,
	}
}

// tokenFromWeb runs the interactive OAuth flow: it prints the consent
// URL, waits for the provider to redirect the browser to the local
// callback listener, and exchanges the received code for a token.
func tokenFromWeb(ctx context.Context, conf *oauth2.Config, settings config.Settings) (*oauth2.Token, error) {
	state, err := randomState()
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", settings.AuthHost, settings.AuthPort))
	if err != nil {
		return nil, fmt.Errorf("failed to start callback listener on %s:%d: %w", settings.AuthHost, settings.AuthPort, err)
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("state") != state {
				http.Error(w, "state mismatch", http.StatusBadRequest)
				errCh <- fmt.Errorf("oauth callback state mismatch")
				return
			}
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "missing code", http.StatusBadRequest)
				errCh <- fmt.Errorf("oauth callback missing authorization code")
				return
			}
			fmt.Fprint(w, config.AuthSuccessMessage)
			codeCh <- code
		}),
	}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	defer srv.Close()

	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser to authorize this application:\n%v\n", authURL)

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to exchange authorization code: %w", err)
	}
	return token, nil
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
