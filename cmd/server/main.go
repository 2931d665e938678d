package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"

	"github.com/cvbuilder/backend/internal/config"
	"github.com/cvbuilder/backend/internal/handlers"
	appMiddleware "github.com/cvbuilder/backend/internal/middleware"
	"github.com/cvbuilder/backend/internal/services"
	"github.com/cvbuilder/backend/internal/storage"
	"github.com/cvbuilder/backend/internal/templates"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var app *firebase.App
	if cfg.UsesFirebase() {
		app, err = appMiddleware.NewFirebaseApp(ctx, appMiddleware.FirebaseConfig{
			ProjectID:       cfg.FirebaseProjectID,
			CredentialsJSON: cfg.FirebaseCredentialsJSON,
			CredentialsFile: cfg.FirebaseCredentialsFile,
			StorageBucket:   cfg.FirebaseStorageBucket,
		})
		if err != nil {
			sugar.Fatalw("failed to initialize Firebase", "error", err)
		}
	}

	docs, err := newDocumentStore(ctx, cfg, app, sugar)
	if err != nil {
		sugar.Fatalw("failed to initialize document store", "store", cfg.DocumentStore, "error", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := docs.Close(closeCtx); err != nil {
			sugar.Warnw("failed to close document store", "error", err)
		}
	}()

	blobs, uploadDir, err := newBlobStore(ctx, cfg, app)
	if err != nil {
		sugar.Fatalw("failed to initialize blob store", "store", cfg.BlobStore, "error", err)
	}

	cvService := services.NewCVService(docs, blobs, templates.NewRegistry(), sugar)

	routes := handlers.RouterConfig{
		CV:             handlers.NewCVHandler(cvService, sugar, cfg.MaxUploadBytes(), cfg.PublicBaseURL),
		Logger:         sugar,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		UploadDir:      uploadDir,
	}
	switch cfg.AuthProvider {
	case "firebase":
		authClient, err := appMiddleware.NewFirebaseAuthClient(ctx, app)
		if err != nil {
			sugar.Fatalw("failed to initialize Firebase Auth client", "error", err)
		}
		routes.Verifier = appMiddleware.NewFirebaseVerifier(authClient)
	default:
		users, err := services.NewFileUserService(cfg.DataDir)
		if err != nil {
			sugar.Fatalw("failed to initialize user store", "error", err)
		}
		tokens := appMiddleware.NewJWTVerifier(cfg.JWTSecret, cfg.JWTExpiration)
		routes.Verifier = tokens
		routes.Auth = handlers.NewAuthHandler(users, tokens, sugar)
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           handlers.NewRouter(routes),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("graceful shutdown failed", "error", err)
		}
	}()

	sugar.Infow("Starting server",
		"addr", cfg.ServerAddress,
		"env", cfg.Env,
		"document_store", cfg.DocumentStore,
		"blob_store", cfg.BlobStore,
		"auth_provider", cfg.AuthProvider,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Fatalw("Server failed", "error", err)
	}
	sugar.Infow("Server stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func newDocumentStore(ctx context.Context, cfg *config.Config, app *firebase.App, logger *zap.SugaredLogger) (storage.DocumentStore, error) {
	switch cfg.DocumentStore {
	case "firestore":
		return storage.NewFirestoreStore(ctx, app, logger)
	case "mongo":
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return storage.NewMongoStore(connectCtx, cfg.MongoURI, cfg.MongoDB, logger)
	default:
		return storage.NewFileStore(cfg.DataDir)
	}
}

// newBlobStore also returns the directory to serve under /uploads/, which is
// empty unless images are kept on local disk.
func newBlobStore(ctx context.Context, cfg *config.Config, app *firebase.App) (storage.BlobStore, string, error) {
	switch cfg.BlobStore {
	case "firebase":
		s, err := storage.NewFirebaseBlobStore(ctx, app, cfg.FirebaseStorageBucket)
		return s, "", err
	case "minio":
		s, err := storage.NewMinioBlobStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioPublicURL, cfg.MinioUseSSL)
		return s, "", err
	default:
		s, err := storage.NewLocalBlobStore(cfg.UploadDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, "", err
		}
		return s, s.Dir(), nil
	}
}
