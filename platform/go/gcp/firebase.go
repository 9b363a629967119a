package gcp

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// CredentialsPathEnv points at a service-account JSON file for local runs. In Cloud Run the
// ambient credentials are used instead.
const CredentialsPathEnv = "FIREBASE_CONFIG"

// ClientOptions returns the Google API options shared by Firebase and Cloud Storage clients.
func ClientOptions(credentialsPath string) []option.ClientOption {
	if credentialsPath == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(credentialsPath)}
}

// GetApp Creates a Firebase App instance.
func GetApp(ctx context.Context, projectID, credentialsPath string) (*firebase.App, error) {
	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}
	return firebase.NewApp(ctx, conf, ClientOptions(credentialsPath)...)
}

// InitFirebaseAuth initializes the Firebase App and returns an Auth client used to verify admin ID tokens.
func InitFirebaseAuth(ctx context.Context, projectID, credentialsPath string) (*firebase.App, *firebaseauth.Client, error) {
	firebaseApp, err := GetApp(ctx, projectID, credentialsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing firebase app [%w]", err)
	}

	fbAuth, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing firebase auth [%w]", err)
	}

	return firebaseApp, fbAuth, nil
}
