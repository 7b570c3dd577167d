package firebase

import (
	"context"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/anonto42/campus-notices/backend/pkg/config"
	"github.com/anonto42/campus-notices/backend/pkg/logger"
)

// App holds the initialized Firebase app, its auth client and, when a bucket is configured, the storage bucket.
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
	Storage     *BucketStore
}

// NewApp returns nil when no credentials are configured.
func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	if cfg.FirebaseCredentialsPath == "" {
		log.Info("Firebase credentials not configured, skipping Firebase initialization.")
		return nil, nil
	}
	app, err := InitFirebase(context.Background(), cfg.FirebaseCredentialsPath, cfg.FirebaseStorageBucket)
	if err != nil {
		return nil, err
	}
	log.Info("Firebase app initialized successfully!")
	return app, nil
}

// InitFirebase initializes the Firebase application, authentication client and storage bucket
func InitFirebase(ctx context.Context, credentialsPath, bucket string) (*App, error) {
	if credentialsPath == "" {
		return nil, errors.New("firebase credentials path not provided")
	}
	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, errors.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	opt := option.WithCredentialsFile(credentialsPath)

	var fbConfig *firebase.Config
	if bucket != "" {
		fbConfig = &firebase.Config{StorageBucket: bucket}
	}
	firebaseApp, err := firebase.NewApp(ctx, fbConfig, opt)
	if err != nil {
		return nil, errors.Wrap(err, "error initializing firebase app")
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "error getting firebase auth client")
	}

	app := &App{FirebaseApp: firebaseApp, AuthClient: authClient}
	if bucket == "" {
		return app, nil
	}

	storageClient, err := firebaseApp.Storage(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "error getting firebase storage client")
	}
	handle, err := storageClient.DefaultBucket()
	if err != nil {
		return nil, errors.Wrapf(err, "error opening storage bucket %s", bucket)
	}
	app.Storage = NewBucketStore(handle, bucket)
	return app, nil
}
